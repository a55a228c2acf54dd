package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg, err := PoolConfig("postgres://bot:pw@localhost:5432/movies?sslmode=disable", "bootstrap-runner", 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, int32(0), cfg.MinConns)
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
	assert.Equal(t, 2*time.Second, cfg.ConnConfig.ConnectTimeout)
	assert.Equal(t, "off", cfg.ConnConfig.RuntimeParams["jit"])
	assert.Equal(t, "bootstrap-runner", cfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "movies", cfg.ConnConfig.Database)
	assert.Equal(t, "localhost", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5432), cfg.ConnConfig.Port)
}

func TestPoolConfigWithoutApplicationName(t *testing.T) {
	cfg, err := PoolConfig("postgres://bot:pw@localhost:5432/movies", "", time.Second)
	require.NoError(t, err)
	_, ok := cfg.ConnConfig.RuntimeParams["application_name"]
	assert.False(t, ok)
}

func TestPoolConfigRejectsMalformedURL(t *testing.T) {
	_, err := PoolConfig("postgres://bot:pw@localhost:notaport/movies", "", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database URL")
}

func TestConnectFailsFastWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Port 1 on loopback is reserved and not listening.
	start := time.Now()
	pool, err := Connect(ctx, "postgres://bot:pw@127.0.0.1:1/movies?sslmode=disable", "test", 500*time.Millisecond)
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Less(t, time.Since(start), 5*time.Second)
}
