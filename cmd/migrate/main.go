package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/autoshop-backend/internal/users"
	"github.com/angelmondragon/autoshop-backend/pkg/config"
	"github.com/angelmondragon/autoshop-backend/pkg/db"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	"github.com/angelmondragon/autoshop-backend/pkg/migrate"
	"github.com/angelmondragon/autoshop-backend/pkg/security"
)

const seedPasswordEnv = "AUTOSHOP_SEED_ADMIN_PASSWORD"

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|redo|reset|version|create|validate|seed-admin")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (create)")
	version := flag.String("version", "", "target version YYYYMMDDHHMMSS (version)")
	email := flag.String("email", "", "admin email (seed-admin); password is read from "+seedPasswordEnv)
	flag.Parse()

	cfg, err := config.Load()
	exitOn(context.Background(), logg, "load config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	switch *cmd {
	case "create":
		if *name == "" {
			exitOn(ctx, logg, "create", fmt.Errorf("missing -name"))
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		exitOn(ctx, logg, "create migration", err)
		fmt.Println("created migration:", path)
		return
	case "validate":
		exitOn(ctx, logg, "validate migrations", migrate.ValidateDir(*dir))
		fmt.Println("migration validation passed")
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "connect database", err)
	defer dbClient.Close()

	if *cmd == "seed-admin" {
		hasher, err := security.NewHasher(cfg.Password)
		exitOn(ctx, logg, "password hasher", err)
		user, created, err := users.EnsureAdmin(ctx, users.NewRepository(dbClient.DB()), hasher, *email, os.Getenv(seedPasswordEnv))
		exitOn(ctx, logg, "seed admin", err)
		logg.Info(logg.WithFields(ctx, map[string]any{"user_id": user.ID.String(), "created": created}), "admin ready")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "open sql handle", err)

	runner, err := migrate.NewRunner(sqlDB, cfg.DB.Driver, *dir, logg)
	exitOn(ctx, logg, "load migrations", err)

	if *cmd == migrate.CmdVersion && *version == "" {
		exitOn(ctx, logg, "version", fmt.Errorf("missing -version"))
	}
	exitOn(ctx, logg, "migrate "+*cmd, runner.Apply(ctx, *cmd, *version))

	current, err := runner.Version(ctx)
	exitOn(ctx, logg, "read schema version", err)
	logg.Info(logg.WithField(ctx, "schema_version", current), "migrate finished")
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, step+" failed", err)
	os.Exit(1)
}
