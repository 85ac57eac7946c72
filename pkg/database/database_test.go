package database

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/migrations"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":  {Data: []byte("SELECT 1;")},
		"002_second.sql": {Data: []byte("SELECT 1;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{got[0].Version, got[1].Version, got[2].Version})
	assert.Equal(t, "first", got[0].Name)
}

func TestLoadMigrations_RejectsBadFilename(t *testing.T) {
	fsys := fstest.MapFS{"schema.sql": {Data: []byte("SELECT 1;")}}

	_, err := LoadMigrations(fsys)
	assert.Error(t, err)
}

func TestMigrator_RunMigrations_Idempotent(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	require.NoError(t, m.RunMigrations(migrations.Files))
	require.NoError(t, m.RunMigrations(migrations.Files))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	embedded, err := LoadMigrations(migrations.Files)
	require.NoError(t, err)
	assert.Equal(t, len(embedded), count)

	_, err = db.Exec(`INSERT INTO employees (employee_id, name) VALUES ('EMP-1', 'Ava')`)
	assert.NoError(t, err)
}

func TestDB_WithTransaction_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec("CREATE TABLE t (v TEXT)")
	require.NoError(t, err)

	err = db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO t (v) VALUES ('x')"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM t").Scan(&count))
	assert.Zero(t, count)
}
