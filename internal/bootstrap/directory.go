package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"

	"github.com/brightpixel/agency-backend/config"
	"github.com/brightpixel/agency-backend/internal/auth/repository"
	"github.com/brightpixel/agency-backend/internal/storage/postgres"
)

// Directory is the opened directory backend plus whatever must be closed on
// shutdown.
type Directory struct {
	Store   repository.DirectoryStore
	closers []func() error
}

func (d *Directory) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenDirectory connects the backend named by DIRECTORY_BACKEND.
func OpenDirectory(ctx context.Context, cfg *config.Config, app *firebase.App) (*Directory, error) {
	switch cfg.Directory.Backend {
	case config.BackendFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		return &Directory{
			Store:   repository.NewFirestoreUserRepository(client, cfg.Directory.Collection),
			closers: []func() error{client.Close},
		}, nil

	case config.BackendRedis:
		client, err := ConnectRedis(ctx, cfg.Redis, 5*time.Second)
		if err != nil {
			return nil, err
		}
		return &Directory{
			Store:   repository.NewRedisUserRepository(client),
			closers: []func() error{client.Close},
		}, nil

	case config.BackendPostgres:
		if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
			return nil, err
		}
		db, err := postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		return &Directory{
			Store:   repository.NewPostgresUserRepository(db),
			closers: []func() error{db.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unknown directory backend %q", cfg.Directory.Backend)
	}
}

// ConnectRedis opens a client and verifies it with a ping.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
