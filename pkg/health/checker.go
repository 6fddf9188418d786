package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Checker reports nil when a dependency is healthy
type Checker func() error

// CheckerConfig configures dependency checks
type CheckerConfig struct {
	Timeout time.Duration
}

// DefaultCheckerConfig returns the default check timeout
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{Timeout: 2 * time.Second}
}

// DatabaseChecker pings a database/sql connection
func DatabaseChecker(db *sql.DB) Checker {
	return DatabaseCheckerWithConfig(db, DefaultCheckerConfig())
}

// DatabaseCheckerWithConfig pings a database/sql connection with a custom timeout
func DatabaseCheckerWithConfig(db *sql.DB, config CheckerConfig) Checker {
	return func() error {
		if db == nil {
			return errors.New("database connection is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		defer cancel()
		return db.PingContext(ctx)
	}
}

// PoolChecker pings a pgx connection pool
func PoolChecker(pool *pgxpool.Pool) Checker {
	return func() error {
		if pool == nil {
			return errors.New("database pool is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), DefaultCheckerConfig().Timeout)
		defer cancel()
		return pool.Ping(ctx)
	}
}

// RedisChecker pings Redis
func RedisChecker(client redis.UniversalClient) Checker {
	return func() error {
		if client == nil {
			return errors.New("redis client is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), DefaultCheckerConfig().Timeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// CompositeChecker runs every checker and joins failures as "<name>.<check>: <err>"
func CompositeChecker(name string, checkers map[string]Checker) Checker {
	return func() error {
		keys := make([]string, 0, len(checkers))
		for k := range checkers {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var failures []string
		for _, k := range keys {
			if err := checkers[k](); err != nil {
				failures = append(failures, fmt.Sprintf("%s.%s: %v", name, k, err))
			}
		}
		if len(failures) > 0 {
			return errors.New(strings.Join(failures, "; "))
		}
		return nil
	}
}
