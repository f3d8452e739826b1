package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
)

// Step is one migration the runner applied or rolled back.
type Step struct {
	Version   int64
	File      string
	Direction string
	Duration  time.Duration
}

// Status reports whether a known migration has been applied.
type Status struct {
	Version   int64
	File      string
	Applied   bool
	AppliedAt time.Time
}

// Runner applies the migrations of a single source against Postgres. Each
// runner owns its goose provider, so embedded and on-disk runs never share
// package-level goose state.
type Runner struct {
	provider *goose.Provider
}

// NewRunner builds a runner over the *.sql files at the root of fsys.
func NewRunner(db *sql.DB, fsys fs.FS) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if fsys == nil {
		return nil, fmt.Errorf("migration source is required")
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider}, nil
}

// NewEmbeddedRunner builds a runner over the compiled-in migrations.
func NewEmbeddedRunner(db *sql.DB) (*Runner, error) {
	return NewRunner(db, Embedded())
}

// Version returns the highest applied migration version, or 0 on an empty
// database.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	v, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return v, nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) ([]Step, error) {
	results, err := r.provider.Up(ctx)
	if err != nil {
		return toSteps(results), fmt.Errorf("goose up: %w", err)
	}
	return toSteps(results), nil
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down(ctx context.Context) ([]Step, error) {
	result, err := r.provider.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose down: %w", err)
	}
	return toSteps([]*goose.MigrationResult{result}), nil
}

// To moves the schema up or down until target is the current version.
func (r *Runner) To(ctx context.Context, target int64) ([]Step, error) {
	current, err := r.Version(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case current == target:
		return nil, nil
	case current < target:
		results, err := r.provider.UpTo(ctx, target)
		if err != nil {
			return toSteps(results), fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return toSteps(results), nil
	default:
		results, err := r.provider.DownTo(ctx, target)
		if err != nil {
			return toSteps(results), fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return toSteps(results), nil
	}
}

// Status lists every known migration in version order.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	rows, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	out := make([]Status, 0, len(rows))
	for _, row := range rows {
		if row == nil || row.Source == nil {
			continue
		}
		out = append(out, Status{
			Version:   row.Source.Version,
			File:      row.Source.Path,
			Applied:   row.State == goose.StateApplied,
			AppliedAt: row.AppliedAt,
		})
	}
	return out, nil
}

// ParseVersion parses a YYYYMMDDHHMMSS migration version.
func ParseVersion(raw string) (int64, error) {
	if !versionRe.MatchString(raw) {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", raw)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	return v, nil
}

func toSteps(results []*goose.MigrationResult) []Step {
	steps := make([]Step, 0, len(results))
	for _, res := range results {
		if res == nil || res.Source == nil || res.Empty {
			continue
		}
		steps = append(steps, Step{
			Version:   res.Source.Version,
			File:      res.Source.Path,
			Direction: res.Direction,
			Duration:  res.Duration,
		})
	}
	return steps
}
