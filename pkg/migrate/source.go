package migrate

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// DefaultDir is where cmd/migrate reads and writes migrations when run from
// the repository root.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded returns the migrations compiled into the binary, rooted so file
// names carry no directory prefix.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}

// Dir returns the on-disk migrations under dir.
func Dir(dir string) (fs.FS, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// EmbeddedFiles lists the compiled-in migration file names in version order.
func EmbeddedFiles() ([]string, error) {
	names, err := fs.Glob(Embedded(), "*.sql")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
