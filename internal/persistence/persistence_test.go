package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/config"
)

func TestMigrationFiles_SortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)

	_, err = migrationFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestRunMigrations_NoPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, "does-not-matter", zap.NewNop()))
}

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{
		Host:              "redis",
		Port:              "6379",
		DB:                3,
		DialTimeoutMS:     1500,
		IOTimeoutMS:       500,
		MaxRetries:        2,
		MinRetryBackoffMS: 100,
		MaxRetryBackoffMS: 5000,
	})
	assert.Equal(t, "redis:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 1500*time.Millisecond, opts.DialTimeout)
	assert.Equal(t, 500*time.Millisecond, opts.ReadTimeout)
	assert.Equal(t, 500*time.Millisecond, opts.WriteTimeout)
	assert.Equal(t, 100*time.Millisecond, opts.MinRetryBackoff)
	assert.Equal(t, 5*time.Second, opts.MaxRetryBackoff)
}

func TestNewRedis_PingAndClose(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.RedisConfig{Host: mr.Host(), Port: mr.Port(), DialTimeoutMS: 500}

	r := NewRedis(cfg, zap.NewNop())
	require.NoError(t, r.Ping(context.Background()))
	r.Close()

	var missing *Redis
	assert.Error(t, missing.Ping(context.Background()))
}

func TestNewPostgres_WithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
	pg.Close()
}
