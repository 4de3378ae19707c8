// Package bootstrap wires the process-wide runtime shared by the server and
// the command line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/middleware"
	"quill/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedGroups upserts the built-in groups after connecting.
	SeedGroups bool
	// SkipSchema leaves the schema alone, for tools that manage it themselves.
	SkipSchema bool
}

// InitRuntime connects to the database and Redis. An unreachable Redis is
// not an error: the returned client is nil and callers fall back to
// in-process caching.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without it",
			slog.String("addr", cfg.RedisURL),
			slog.String("error", err.Error()),
		)
		rdb = nil
	}

	if opts.SeedGroups {
		groups, err := seed.Groups(ctx, db, seed.BuiltInGroups)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in groups: %w", err)
		}
		middleware.Logger.Info("built-in groups ensured", slog.Int("count", len(groups)))
	}

	return db, rdb, nil
}
