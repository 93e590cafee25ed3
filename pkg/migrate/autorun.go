package migrate

import (
	"context"
	"fmt"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/config"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

// MaybeRunDev brings a dev database up to the newest embedded migration when
// HOSTEL_AUTO_MIGRATE is set. Files are validated first so a malformed
// migration fails boot instead of half-applying.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	files, err := listFiles(FS, embeddedDir)
	if err != nil {
		return fmt.Errorf("validating embedded migrations: %w", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := prepare(); err != nil {
		return err
	}
	before, err := CurrentVersion(sqlDB)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"from_version":   before,
		"embedded_files": len(files),
	})
	if latest := files[len(files)-1].Version; latest <= before {
		logg.Debug(ctx, "schema already current")
		return nil
	}

	logg.Info(ctx, "applying embedded migrations")
	if err := Run(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	after, err := CurrentVersion(sqlDB)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "to_version", after), "embedded migrations applied")
	return nil
}
