package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/fieldtrack/internal/database"
)

// Options selects and configures a Storage backend.
type Options struct {
	Kind          string // "sqlite" or "redis"
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Device        string
	TTL           time.Duration
}

// Open connects the configured backend. The returned close function
// releases its connection.
func Open(ctx context.Context, opts Options) (Storage, func() error, error) {
	switch opts.Kind {
	case "sqlite", "":
		db, err := database.Open(opts.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLiteStore(db), db.Close, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", opts.RedisAddr, err)
		}
		return NewRedisStore(client, opts.Device, opts.TTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", opts.Kind)
	}
}
