package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestList(t *testing.T) {
	fsys := fstest.MapFS{
		"002_more.up.sql":    {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"001_first.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"001_first.down.sql": {Data: []byte("DROP TABLE a;")},
		"README.up.sql":      {Data: []byte("ignored")},
	}

	list, err := List(fsys)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Version)
	assert.Equal(t, "002_more.up.sql", list[1].Name)
}

func TestList_DuplicateVersion(t *testing.T) {
	_, err := List(fstest.MapFS{
		"001_a.up.sql": {Data: []byte("SELECT 1;")},
		"001_b.up.sql": {Data: []byte("SELECT 1;")},
	})
	assert.ErrorContains(t, err, "share version 1")
}

func TestApply_Embedded(t *testing.T) {
	db := openDB(t)

	n, err := Apply(t.Context(), db, FS)
	require.NoError(t, err)
	assert.Positive(t, n)

	for _, table := range []string{"chunks", "pack_registry", "ingest_runs", "scheduled_tasks", "task_results"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}

	again, err := Apply(t.Context(), db, FS)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestApply_FailureKeepsVersion(t *testing.T) {
	db := openDB(t)
	fsys := fstest.MapFS{
		"001_ok.up.sql":  {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"002_bad.up.sql": {Data: []byte("CREATE TABLE b (id INTEGER); NOT SQL;")},
	}

	n, err := Apply(t.Context(), db, fsys)
	require.Error(t, err)
	assert.Equal(t, 1, n)

	var version int
	require.NoError(t, db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, 1, version)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name='b'`).Scan(&count))
	assert.Zero(t, count)
}
