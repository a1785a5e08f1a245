package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/wadjakorntonsri/shorturl/pkg/adapters/cache"
	"github.com/wadjakorntonsri/shorturl/pkg/adapters/repository/postgres"
	"github.com/wadjakorntonsri/shorturl/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shorturl/pkg/config"
	"github.com/wadjakorntonsri/shorturl/pkg/ports"
)

// Store is a MappingStore that owns connections.
type Store interface {
	ports.MappingStore
	Close() error
}

// IsPostgres reports whether dbURL points at PostgreSQL rather than SQLite/libsql.
func IsPostgres(dbURL string) bool {
	return strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://")
}

// OpenDatabase opens the SQL store selected by cfg.DatabaseURL, migrating
// its schema first.
func OpenDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, error) {
	if IsPostgres(cfg.DatabaseURL) {
		if err := postgres.Migrate(cfg.DatabaseURL, log); err != nil {
			return nil, err
		}
		repo, err := postgres.NewPostgresRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// Open returns the store the service runs on: the SQL store, fronted by the
// Redis cache when REDIS_URL is set.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (ports.MappingStore, func() error, error) {
	db, err := OpenDatabase(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.RedisURL == "" {
		return db, db.Close, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		// the cache is optional, run without it
		log.Warn("redis unavailable, resolving without cache", slog.String("error", err.Error()))
		client.Close()
		return db, db.Close, nil
	}

	closeAll := func() error {
		return errors.Join(client.Close(), db.Close())
	}
	return cache.NewStore(db, client, cfg.CacheTTL), closeAll, nil
}
