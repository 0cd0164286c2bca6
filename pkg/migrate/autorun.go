package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/autoshop-backend/pkg/config"
	"github.com/angelmondragon/autoshop-backend/pkg/db"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on startup, but only in dev with
// AUTOSHOP_AUTO_MIGRATE on. Other environments run cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if err := ValidateDir(DefaultDir); err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	runner, err := NewRunner(sqlDB, cfg.DB.Driver, DefaultDir, logg)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"dialect": string(Dialect(cfg.DB.Driver)), "dir": DefaultDir})
	pending, err := runner.Pending(ctx)
	if err != nil {
		return fmt.Errorf("check pending migrations: %w", err)
	}
	if !pending {
		logg.Debug(ctx, "migrate.dev_autorun.up_to_date")
		return nil
	}
	logg.Info(ctx, "migrate.dev_autorun.start")
	if err := runner.Apply(ctx, CmdUp, ""); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.dev_autorun.done")
	return nil
}
