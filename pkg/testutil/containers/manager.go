//go:build integration

// Package containers manages shared test containers. Containers are started
// once per test binary and shared across suites; Ryuk reaps them when the
// run ends.
package containers

import (
	"sync"
	"testing"
)

var (
	mu       sync.Mutex
	postgres *PostgresContainer
	redis    *RedisContainer
	redpanda *RedpandaContainer
)

// Postgres returns the shared PostgreSQL container, starting it on first use.
func Postgres(t *testing.T) *PostgresContainer {
	t.Helper()
	mu.Lock()
	defer mu.Unlock()
	if postgres == nil {
		postgres = NewPostgresContainer(t)
	}
	return postgres
}

// Redis returns the shared Redis container, starting it on first use.
func Redis(t *testing.T) *RedisContainer {
	t.Helper()
	mu.Lock()
	defer mu.Unlock()
	if redis == nil {
		redis = NewRedisContainer(t)
	}
	return redis
}

// Redpanda returns the shared Redpanda container, starting it on first use.
func Redpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	mu.Lock()
	defer mu.Unlock()
	if redpanda == nil {
		redpanda = NewRedpandaContainer(t)
	}
	return redpanda
}
