package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/bakery-backend/pkg/config"
	"github.com/angelmondragon/bakery-backend/pkg/db"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on startup when running in dev
// with the auto-migrate flag on. Other environments migrate through
// cmd/migrate before deploying.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	runner, err := NewEmbeddedRunner(sqlDB)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": "embedded"})
	steps, err := runner.Up(ctx)
	for _, step := range steps {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     step.Version,
			"file":        step.File,
			"duration_ms": step.Duration.Milliseconds(),
		}), "migration applied")
	}
	if err != nil {
		return err
	}

	version, err := runner.Version(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"applied": len(steps), "version": version}), "dev schema up to date")
	return nil
}
