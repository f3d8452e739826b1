package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

var (
	versionRe = regexp.MustCompile(`^\d{14}$`)
	sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
)

const (
	upMarker             = "-- +goose Up"
	downMarker           = "-- +goose Down"
	statementBeginMarker = "-- +goose StatementBegin"
	statementEndMarker   = "-- +goose StatementEnd"
)

// ValidateDir validates the migrations stored on disk under dir.
func ValidateDir(dir string) error {
	fsys, err := Dir(dir)
	if err != nil {
		return err
	}
	return Validate(fsys)
}

// Validate checks every *.sql file at the root of fsys and reports all
// problems at once: file naming, duplicate versions, the Up/Down sections
// and balanced statement blocks.
func Validate(fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	var problems error
	seen := map[string]string{}
	for _, name := range names {
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			multierr.AppendInto(&problems, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			multierr.AppendInto(&problems, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
		}
		seen[m[1]] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			multierr.AppendInto(&problems, fmt.Errorf("read %q: %w", name, err))
			continue
		}
		multierr.AppendInto(&problems, validateBody(name, string(body)))
	}
	return problems
}

func validateBody(name, body string) error {
	up := strings.Index(body, upMarker)
	down := strings.Index(body, downMarker)

	var problems error
	switch {
	case up < 0:
		multierr.AppendInto(&problems, fmt.Errorf("migration %q missing %q", name, upMarker))
	case down < 0:
		multierr.AppendInto(&problems, fmt.Errorf("migration %q missing %q", name, downMarker))
	case down < up:
		multierr.AppendInto(&problems, fmt.Errorf("migration %q has its Down section before Up", name))
	}

	depth := 0
	for _, line := range strings.Split(body, "\n") {
		switch strings.TrimSpace(line) {
		case statementBeginMarker:
			depth++
			if depth > 1 {
				multierr.AppendInto(&problems, fmt.Errorf("migration %q nests StatementBegin blocks", name))
			}
		case statementEndMarker:
			depth--
			if depth < 0 {
				multierr.AppendInto(&problems, fmt.Errorf("migration %q has StatementEnd without StatementBegin", name))
				depth = 0
			}
		}
	}
	if depth != 0 {
		multierr.AppendInto(&problems, fmt.Errorf("migration %q leaves a StatementBegin block open", name))
	}
	return problems
}
