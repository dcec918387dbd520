package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/serroba/shortlink/internal/visits"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

// RedisClient owns the shared Redis connection pool.
type RedisClient struct {
	*redis.Client
}

// Shutdown closes the client. It shadows the embedded SHUTDOWN server command.
func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// PostgresPool owns the shared Postgres connection pool.
type PostgresPool struct {
	*pgxpool.Pool
}

// Shutdown closes the pool.
func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}

// RedisPackage provides *RedisClient. The client is only created when a
// Redis backed component is invoked.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect to redis at %s: %w", opts.RedisAddr, err)
		}

		return &RedisClient{Client: client}, nil
	})
}

// PostgresPackage provides *PostgresPool and applies migrations when enabled.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		if opts.Migrate {
			if err := store.Migrate(ctx, pool); err != nil {
				pool.Close()

				return nil, err
			}

			logger.Info("postgres migrations applied")
		}

		return &PostgresPool{Pool: pool}, nil
	})
}

// RepositoryPackage provides the shortener.Repository and visits.Store for the
// configured backend.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Store {
		case StoreMemory:
			return store.NewMemoryStore(), nil
		case StorePostgres:
			pool, err := do.Invoke[*PostgresPool](i)
			if err != nil {
				return nil, err
			}

			return store.NewPostgresStore(pool.Pool), nil
		case StoreRedis:
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			return store.NewRedisStore(client.Client), nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStore, opts.Store)
		}
	})

	do.Provide(i, func(i *do.Injector) (visits.Store, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Store {
		case StoreMemory:
			return store.NewMemoryVisitStore(), nil
		case StorePostgres:
			pool, err := do.Invoke[*PostgresPool](i)
			if err != nil {
				return nil, err
			}

			return store.NewPostgresVisitStore(pool.Pool), nil
		case StoreRedis:
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			return store.NewRedisVisitStore(client.Client), nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStore, opts.Store)
		}
	})
}
