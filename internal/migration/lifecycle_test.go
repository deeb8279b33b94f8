package migration

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unclebob/internal/config"
)

// fakeServer keeps databases in memory, shared between connections
type fakeServer struct {
	databases map[string]bool
	createErr error
	closed    int
	onCreate  func(name string) error
}

func (s *fakeServer) Exists(ctx context.Context, name string) (bool, error) {
	return s.databases[name], nil
}

func (s *fakeServer) Create(ctx context.Context, name string) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.onCreate != nil {
		if err := s.onCreate(name); err != nil {
			return err
		}
	}
	s.databases[name] = true
	return nil
}

func (s *fakeServer) Drop(ctx context.Context, name string) error {
	delete(s.databases, name)
	return nil
}

func (s *fakeServer) Close() error {
	s.closed++
	return nil
}

func newLifecycle(t *testing.T, server *fakeServer, interactive bool, answer string) *Lifecycle {
	t.Helper()
	cfg := config.New()
	cfg.Databases = map[string]config.Database{
		"default": {Engine: "mysql", Name: "shop"},
		"reports": {Engine: "postgres", Name: "reports"},
	}
	return NewLifecycle(cfg, interactive, strings.NewReader(answer), nil).
		WithConnector(func(ctx context.Context, db config.Database) (Server, error) {
			return server, nil
		})
}

func TestLifecycle_SetupAndTeardownDatabases(t *testing.T) {
	t.Setenv("DB_DATABASE", "shop")
	server := &fakeServer{databases: map[string]bool{}}
	lc := newLifecycle(t, server, false, "")
	ctx := context.Background()

	handle, err := lc.SetupDatabases(ctx)
	require.NoError(t, err)

	h, ok := handle.(*Handle)
	require.True(t, ok)
	assert.Equal(t, []string{"test_shop", "test_reports"}, h.Names())
	assert.True(t, server.databases["test_shop"])
	assert.True(t, server.databases["test_reports"])
	assert.Equal(t, "test_shop", os.Getenv("DB_DATABASE"))

	require.NoError(t, lc.TeardownDatabases(ctx, handle))
	assert.Empty(t, server.databases)
	assert.Equal(t, "shop", os.Getenv("DB_DATABASE"))
	assert.Equal(t, 4, server.closed)
}

func TestLifecycle_ExistingDatabase(t *testing.T) {
	t.Setenv("DB_DATABASE", "")
	ctx := context.Background()

	t.Run("replaced without asking when not interactive", func(t *testing.T) {
		server := &fakeServer{databases: map[string]bool{"test_shop": true}}
		handle, err := newLifecycle(t, server, false, "").SetupDatabases(ctx)
		require.NoError(t, err)
		assert.NotNil(t, handle)
	})

	t.Run("replaced after confirmation", func(t *testing.T) {
		server := &fakeServer{databases: map[string]bool{"test_shop": true}}
		_, err := newLifecycle(t, server, true, "yes\n").SetupDatabases(ctx)
		require.NoError(t, err)
	})

	t.Run("refusal aborts and drops what was created", func(t *testing.T) {
		server := &fakeServer{databases: map[string]bool{"test_reports": true}}
		_, err := newLifecycle(t, server, true, "no\n").SetupDatabases(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
		// aliases are handled in order, test_shop was created before the refusal
		assert.False(t, server.databases["test_shop"])
		assert.True(t, server.databases["test_reports"])
	})
}

func TestLifecycle_CreateFailure(t *testing.T) {
	server := &fakeServer{databases: map[string]bool{}, createErr: errors.New("access denied")}
	_, err := newLifecycle(t, server, false, "").SetupDatabases(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestLifecycle_InterruptedSetupRollsBack(t *testing.T) {
	t.Setenv("DB_DATABASE", "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := &fakeServer{databases: map[string]bool{}}
	server.onCreate = func(name string) error {
		if name == "test_reports" {
			cancel()
			return ctx.Err()
		}
		return nil
	}
	lc := newLifecycle(t, server, false, "")
	// connections fail on a done context the way a driver ping does
	lc.WithConnector(func(ctx context.Context, db config.Database) (Server, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return server, nil
	})

	_, err := lc.SetupDatabases(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, server.databases)
	assert.Equal(t, "", os.Getenv("DB_DATABASE"))
}

func TestLifecycle_TeardownRejectsForeignHandle(t *testing.T) {
	lc := newLifecycle(t, &fakeServer{databases: map[string]bool{}}, false, "")
	require.Error(t, lc.TeardownDatabases(context.Background(), "not a handle"))
}

func TestLifecycle_TestEnvironment(t *testing.T) {
	os.Unsetenv(TestingEnv)
	lc := newLifecycle(t, &fakeServer{databases: map[string]bool{}}, false, "")
	ctx := context.Background()

	require.NoError(t, lc.SetupTestEnvironment(ctx))
	assert.Equal(t, "1", os.Getenv(TestingEnv))

	require.NoError(t, lc.TeardownTestEnvironment(ctx))
	_, set := os.LookupEnv(TestingEnv)
	assert.False(t, set)

	// teardown without setup is a no-op
	require.NoError(t, lc.TeardownTestEnvironment(ctx))
}

func TestIsValidDatabaseName(t *testing.T) {
	for name, expected := range map[string]bool{
		"test_shop":             true,
		"":                      false,
		"test_shop; DROP":       false,
		"test`shop":             false,
		"test_truncate_tables":  true,
		"test_backdrop":         true,
		"test_deleted_items":    true,
		"test_shop$2":           true,
		strings.Repeat("a", 64): false,
	} {
		assert.Equal(t, expected, IsValidDatabaseName(name), name)
	}
}

func TestConnectionStrings(t *testing.T) {
	assert.Equal(t, "root@tcp(127.0.0.1:3306)/", MySQLDSN(config.Database{}))
	assert.Equal(t, "bob:secret@tcp(db:3307)/", MySQLDSN(config.Database{User: "bob", Password: "secret", Host: "db", Port: "3307"}))

	assert.Equal(t, "postgres://postgres@127.0.0.1:5432/postgres", PostgresURI(config.Database{}))
	assert.Equal(t, "postgres://bob:s%40cret@db:5433/postgres",
		PostgresURI(config.Database{User: "bob", Password: "s@cret", Host: "db", Port: "5433"}))
}

func TestConnect_UnsupportedEngine(t *testing.T) {
	_, err := Connect(context.Background(), config.Database{Engine: "oracle"})
	require.Error(t, err)
}
