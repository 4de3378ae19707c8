package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"quill/internal/config"
	"quill/internal/models"
	"quill/internal/seed"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T, redisURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "runtime.db"),
		RedisURL: redisURL,
	}
}

func TestInitRuntime_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	db, rdb, err := InitRuntime(context.Background(), sqliteConfig(t, mr.Addr()), Options{SeedGroups: true})
	require.NoError(t, err)
	require.NotNil(t, rdb)
	t.Cleanup(func() { _ = rdb.Close() })

	var n int64
	require.NoError(t, db.Model(&models.Group{}).Count(&n).Error)
	assert.Equal(t, int64(len(seed.BuiltInGroups)), n)
}

func TestInitRuntime_RedisUnavailable(t *testing.T) {
	db, rdb, err := InitRuntime(context.Background(), sqliteConfig(t, ""), Options{})
	require.NoError(t, err)
	assert.Nil(t, rdb)

	var n int64
	require.NoError(t, db.Model(&models.Group{}).Count(&n).Error)
	assert.Zero(t, n)
}
