package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

const DefaultDir = "pkg/migrate/migrations"

// Commands accepted by Runner.Apply.
const (
	CmdUp      = "up"
	CmdDown    = "down"
	CmdRedo    = "redo"
	CmdReset   = "reset"
	CmdStatus  = "status"
	CmdVersion = "version"
)

// Dialect maps AUTOSHOP_DB_DRIVER onto a goose dialect. Migrations are
// written in SQL both postgres and sqlite accept.
func Dialect(driver string) goose.Dialect {
	if strings.EqualFold(strings.TrimSpace(driver), "sqlite") {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

// Runner applies the SQL files in one directory through a goose provider and
// logs every applied or rolled back version.
type Runner struct {
	provider *goose.Provider
	logg     *logger.Logger
}

func NewRunner(db *sql.DB, driver, dir string, logg *logger.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("migrate: db is required")
	}
	if dir == "" {
		return nil, errors.New("migrate: dir is required")
	}
	provider, err := goose.NewProvider(Dialect(driver), db, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("migrate: load %s: %w", dir, err)
	}
	return &Runner{provider: provider, logg: logg}, nil
}

// Apply runs one command. target is only read by CmdVersion and must be a
// YYYYMMDDHHMMSS version; the runner migrates up or down to reach it.
func (r *Runner) Apply(ctx context.Context, command, target string) error {
	var (
		results []*goose.MigrationResult
		err     error
	)
	switch command {
	case CmdUp:
		results, err = r.provider.Up(ctx)
	case CmdDown:
		results, err = r.one(r.provider.Down(ctx))
	case CmdRedo:
		if results, err = r.one(r.provider.Down(ctx)); err == nil {
			var up []*goose.MigrationResult
			up, err = r.one(r.provider.UpByOne(ctx))
			results = append(results, up...)
		}
	case CmdReset:
		results, err = r.provider.DownTo(ctx, 0)
	case CmdStatus:
		return r.logStatus(ctx)
	case CmdVersion:
		results, err = r.migrateTo(ctx, target)
	default:
		return fmt.Errorf("migrate: unknown command %q", command)
	}
	r.logResults(ctx, results)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}

func (r *Runner) one(result *goose.MigrationResult, err error) ([]*goose.MigrationResult, error) {
	if result == nil {
		return nil, err
	}
	return []*goose.MigrationResult{result}, err
}

func (r *Runner) migrateTo(ctx context.Context, target string) ([]*goose.MigrationResult, error) {
	version, err := strconv.ParseInt(strings.TrimSpace(target), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("version %q is not YYYYMMDDHHMMSS: %w", target, err)
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case version > current:
		return r.provider.UpTo(ctx, version)
	case version < current:
		return r.provider.DownTo(ctx, version)
	}
	return nil, nil
}

// Pending reports whether any migration has not been applied.
func (r *Runner) Pending(ctx context.Context) (bool, error) {
	return r.provider.HasPending(ctx)
}

func (r *Runner) Version(ctx context.Context) (int64, error) {
	return r.provider.GetDBVersion(ctx)
}

func (r *Runner) logResults(ctx context.Context, results []*goose.MigrationResult) {
	if r.logg == nil {
		return
	}
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"file":        res.Source.Path,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		}), "migrate.applied")
	}
}

func (r *Runner) logStatus(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	if r.logg == nil {
		return nil
	}
	for _, st := range statuses {
		fields := map[string]any{"version": st.Source.Version, "file": st.Source.Path, "state": string(st.State)}
		if !st.AppliedAt.IsZero() {
			fields["applied_at"] = st.AppliedAt
		}
		r.logg.Info(r.logg.WithFields(ctx, fields), "migrate.status")
	}
	return nil
}
