// AngelaMos | 2026
// storage.go

// Package storage opens the configured credential store and hands back the
// user and post repositories backed by it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/blog-api/internal/config"
	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/post"
	"github.com/carterperez-dev/blog-api/internal/user"
)

type Stores struct {
	Users user.Repository
	Posts post.Repository

	// Ping checks the underlying database. Stats is nil for Mongo.
	Ping  func(ctx context.Context) error
	Stats func() sql.DBStats

	close func(ctx context.Context) error
}

func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the store named by cfg.Driver and prepares its schema:
// migrations for Postgres, indexes for Mongo.
func Open(
	ctx context.Context,
	cfg config.DatabaseConfig,
	logger *slog.Logger,
) (*Stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.DriverMongo:
		return openMongo(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(
	ctx context.Context,
	cfg config.DatabaseConfig,
	logger *slog.Logger,
) (*Stores, error) {
	db, err := core.NewDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on migration failure
		return nil, err
	}

	logger.Info("database connected",
		"driver", cfg.Driver,
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)

	return &Stores{
		Users: user.NewRepository(db.DB),
		Posts: post.NewRepository(db.DB),
		Ping:  db.Ping,
		Stats: db.Stats,
		close: func(context.Context) error { return db.Close() },
	}, nil
}

func openMongo(
	ctx context.Context,
	cfg config.DatabaseConfig,
	logger *slog.Logger,
) (*Stores, error) {
	m, err := core.NewMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := user.EnsureIndexes(ctx, m.DB); err != nil {
		_ = m.Close(ctx) //nolint:errcheck // cleanup on index failure
		return nil, err
	}
	if err := post.EnsureIndexes(ctx, m.DB); err != nil {
		_ = m.Close(ctx) //nolint:errcheck // cleanup on index failure
		return nil, err
	}

	logger.Info("database connected",
		"driver", cfg.Driver,
		"database", cfg.Name,
	)

	return &Stores{
		Users: user.NewMongoRepository(m.DB),
		Posts: post.NewMongoRepository(m.DB),
		Ping:  m.Ping,
		close: m.Close,
	}, nil
}
