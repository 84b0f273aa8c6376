package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// sqliteConfig returns a config whose pool lives in a throwaway
// directory. SQLite keeps these tests free of external servers.
func sqliteConfig(t *testing.T, name, file string, maxConns int32) ConnectionConfig {
	t.Helper()
	cfg, err := NewConnectionConfig(name, EngineSQLite, file, t.TempDir()+string(os.PathSeparator), "", maxConns, nil)
	require.NoError(t, err)
	return cfg
}

func TestNew_EmptyConfigs(t *testing.T) {
	r, err := New(context.Background(), nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	assert.Empty(t, r.Names())
	assert.Equal(t, 0, r.Stats().TotalPools)
}

func TestNew_DuplicateName(t *testing.T) {
	dir := t.TempDir() + string(os.PathSeparator)
	a, err := NewConnectionConfig("shared", EngineSQLite, "a.db", dir, "", 2, nil)
	require.NoError(t, err)
	b, err := NewConnectionConfig("shared", EngineSQLite, "b.db", dir, "", 2, nil)
	require.NoError(t, err)

	r, err := New(context.Background(), []ConnectionConfig{a, b}, zaptest.NewLogger(t))
	require.Nil(t, r)

	var dupErr *DuplicateNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "shared", dupErr.Name)

	// The collision is detected before any pool is built, so neither
	// database file was ever opened or created.
	_, statErr := os.Stat(dir + "a.db")
	assert.True(t, os.IsNotExist(statErr), "no pool should have been built")
}

func TestNew_DuplicateDetectionOrder(t *testing.T) {
	dir := t.TempDir() + string(os.PathSeparator)
	mk := func(name, file string) ConnectionConfig {
		cfg, err := NewConnectionConfig(name, EngineSQLite, file, dir, "", 1, nil)
		require.NoError(t, err)
		return cfg
	}

	// Both "b" and "a" repeat; "b" repeats first in input order.
	configs := []ConnectionConfig{mk("a", "1.db"), mk("b", "2.db"), mk("b", "3.db"), mk("a", "4.db")}
	_, err := New(context.Background(), configs, zaptest.NewLogger(t))

	var dupErr *DuplicateNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "b", dupErr.Name)
}

func TestNew_InvalidConfigRechecked(t *testing.T) {
	// A zero-value config never passed NewConnectionConfig; the
	// constructor re-validates rather than trusting the caller.
	_, err := New(context.Background(), []ConnectionConfig{{}}, zaptest.NewLogger(t))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNew_AllOrNothing(t *testing.T) {
	good := sqliteConfig(t, "good", "good.db", 2)
	// A database file inside a directory that does not exist cannot be
	// opened, so this pool fails its fail-fast ping.
	badDir := filepath.Join(t.TempDir(), "does", "not", "exist") + string(os.PathSeparator)
	bad, err := NewConnectionConfig("bad", EngineSQLite, "bad.db", badDir, "", 2, nil)
	require.NoError(t, err)
	trailing := sqliteConfig(t, "trailing", "trailing.db", 2)

	r, err := New(context.Background(), []ConnectionConfig{good, bad, trailing}, zaptest.NewLogger(t))
	require.Nil(t, r, "no partially-initialized registry")

	var buildErr *PoolBuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "bad", buildErr.Name)
	assert.Equal(t, EngineSQLite, buildErr.Engine)
	require.Error(t, buildErr.Unwrap())
}

func TestRegistry_TypedLookup(t *testing.T) {
	r, err := New(context.Background(), []ConnectionConfig{
		sqliteConfig(t, "tenant_a", "a.db", 2),
		sqliteConfig(t, "tenant_b", "b.db", 2),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	t.Run("hit", func(t *testing.T) {
		db, err := r.SQLite("tenant_a")
		require.NoError(t, err)
		require.NotNil(t, db)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := r.SQLite("tenant_z")
		var unknownErr *UnknownConnectionError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "tenant_z", unknownErr.Name)
	})

	t.Run("engine mismatch is not unknown", func(t *testing.T) {
		_, err := r.MySQL("tenant_a")
		var mismatchErr *EngineMismatchError
		require.ErrorAs(t, err, &mismatchErr)
		assert.Equal(t, "tenant_a", mismatchErr.Name)
		assert.Equal(t, EngineMySQL, mismatchErr.Requested)
		assert.Equal(t, EngineSQLite, mismatchErr.Actual)

		var unknownErr *UnknownConnectionError
		assert.False(t, errors.As(err, &unknownErr))
	})

	t.Run("mismatch across every accessor", func(t *testing.T) {
		_, err := r.Postgres("tenant_a")
		var mismatchErr *EngineMismatchError
		require.ErrorAs(t, err, &mismatchErr)
		assert.Equal(t, EnginePostgres, mismatchErr.Requested)

		_, err = r.SQLServer("tenant_a")
		require.ErrorAs(t, err, &mismatchErr)
		assert.Equal(t, EngineSQLServer, mismatchErr.Requested)
	})
}

func TestRegistry_IdempotentLookup(t *testing.T) {
	r, err := New(context.Background(), []ConnectionConfig{
		sqliteConfig(t, "tenant_a", "a.db", 2),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	first, err := r.SQLite("tenant_a")
	require.NoError(t, err)
	second, err := r.SQLite("tenant_a")
	require.NoError(t, err)
	assert.Same(t, first, second, "repeated lookups must return the same pool")
}

func TestRegistry_PoolCeiling(t *testing.T) {
	r, err := New(context.Background(), []ConnectionConfig{
		sqliteConfig(t, "bounded", "bounded.db", 2),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()

	first, err := r.AcquireSQLite(ctx, "bounded")
	require.NoError(t, err)
	second, err := r.AcquireSQLite(ctx, "bounded")
	require.NoError(t, err)

	// Both slots are held, so a third acquisition blocks until its
	// deadline expires.
	blockedCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = r.AcquireSQLite(blockedCtx, "bounded")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Releasing one slot lets the next caller through.
	require.NoError(t, first.Close())
	third, err := r.AcquireSQLite(ctx, "bounded")
	require.NoError(t, err)

	require.NoError(t, second.Close())
	require.NoError(t, third.Close())
}

func TestRegistry_NamesAndEngineOf(t *testing.T) {
	r, err := New(context.Background(), []ConnectionConfig{
		sqliteConfig(t, "zeta", "z.db", 1),
		sqliteConfig(t, "alpha", "a.db", 1),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())

	engine, err := r.EngineOf("alpha")
	require.NoError(t, err)
	assert.Equal(t, EngineSQLite, engine)

	_, err = r.EngineOf("missing")
	var unknownErr *UnknownConnectionError
	require.ErrorAs(t, err, &unknownErr)
}

func TestRegistry_Stats(t *testing.T) {
	r, err := New(context.Background(), []ConnectionConfig{
		sqliteConfig(t, "s1", "1.db", 3),
		sqliteConfig(t, "s2", "2.db", 5),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	stats := r.Stats()
	assert.Equal(t, 2, stats.TotalPools)
	assert.Equal(t, 2, stats.PoolsByEngine[EngineSQLite])
	assert.Equal(t, int32(3), stats.Pools["s1"].MaxConns)
	assert.Equal(t, int32(5), stats.Pools["s2"].MaxConns)
}

func TestRegistry_PingAndClose(t *testing.T) {
	r, err := New(context.Background(), []ConnectionConfig{
		sqliteConfig(t, "s1", "1.db", 2),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, r.Ping(context.Background()))

	r.Close()
	r.Close() // idempotent

	err = r.Ping(context.Background())
	require.Error(t, err, "pinging closed pools must fail")
	assert.Contains(t, err.Error(), `"s1"`)
}
