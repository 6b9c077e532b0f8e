// Package app wires configuration, the connection pool and the engine
// together for the server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/scanmaster/internal/config"
	"github.com/JonMunkholm/scanmaster/internal/core"
	"github.com/JonMunkholm/scanmaster/internal/database"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config   *config.Config
	Pool     *database.Pool
	Service  *core.Service
	Location *time.Location
}

// PoolConfig maps the database section of cfg onto the pool settings.
func PoolConfig(cfg *config.Config) database.PoolConfig {
	return database.PoolConfig{
		URL:             cfg.Database.URL,
		MinSize:         cfg.Database.MinConns,
		MaxSize:         cfg.Database.MaxConns,
		AcquireTimeout:  cfg.Database.AcquireTimeout,
		RetryBackoff:    cfg.Database.RetryBackoff,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}
}

// ServiceOptions maps the import and export sections of cfg onto the engine
// options.
func ServiceOptions(cfg *config.Config) (core.Options, error) {
	loc, err := cfg.Export.Location()
	if err != nil {
		return core.Options{}, fmt.Errorf("export timezone: %w", err)
	}
	return core.Options{
		ImportLimiter:  core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWait),
		ImportTimeout:  cfg.Import.Timeout,
		ImportLogEvery: cfg.Import.LogEvery,
		Location:       loc,
	}, nil
}

// Open connects to the database and builds the engine on top of it.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	opts, err := ServiceOptions(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := database.Open(ctx, PoolConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if name := databaseName(cfg.Database.URL); name != "" {
		slog.Info("connected to database", "name", name, "max_conns", cfg.Database.MaxConns)
	} else {
		slog.Info("connected to database", "max_conns", cfg.Database.MaxConns)
	}

	svc := core.NewService(core.NewPostgresCatalog(pool), core.NewPostgresScanLog(pool), opts)
	return &App{Config: cfg, Pool: pool, Service: svc, Location: opts.Location}, nil
}

// Migrate applies the schema and creates the bootstrap administrators that
// do not exist yet. Both steps are idempotent.
func (a *App) Migrate(ctx context.Context) (int, error) {
	var created int
	err := a.Pool.WithConn(ctx, func(ctx context.Context, db database.DBTX) error {
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
		n, err := database.EnsureAdmins(ctx, db, a.Config.Bootstrap.Admins)
		created = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("schema ready", "admins_created", created, "admins", len(a.Config.Bootstrap.Admins))
	return created, nil
}

// Close releases the pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

func databaseName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
