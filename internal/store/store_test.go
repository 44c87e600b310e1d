package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Reopening an existing file is a no-op migration.
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open #%d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	tables := queryStrings(t, s.db, "SELECT name FROM sqlite_master WHERE type = 'table'")
	assert.Subset(t, tables, []string{"descriptors", "snapshots"})
	require.NoError(t, s.DB().Ping())
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	descs, err := s.ListDescriptors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, descs)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = OpenContext(ctx, filepath.Join(t.TempDir(), "test.db"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClose_Unopened(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	want := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
		"foreign_keys": "1",
	}
	for name, v := range want {
		got, err := s.pragma(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, v, got, "PRAGMA %s", name)
	}
}

func TestSchema(t *testing.T) {
	s := createTestStore(t)

	columns := map[string][]string{
		"descriptors": {"name", "kind", "body", "digest", "seq"},
		"snapshots":   {"id", "type_name", "descriptor_digest", "body", "seq"},
	}
	for table, want := range columns {
		got := queryStrings(t, s.db, "SELECT name FROM pragma_table_info(?)", table)
		assert.Subset(t, got, want, table)
	}

	assert.Subset(t, indexNames(t, s.db), []string{
		"idx_descriptors_digest",
		"idx_snapshots_type",
		"idx_snapshots_descriptor",
	})
}

func TestSchema_SnapshotNeedsDescriptor(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO snapshots (id, type_name, descriptor_digest, body, seq)
		VALUES ('s1', 'Ghost', 'd', '{}', 1)`)
	assert.Error(t, err)
}

func TestMigrations_Ordered(t *testing.T) {
	for i, m := range migrations {
		assert.Equal(t, i+1, m.version)
		assert.NotEmpty(t, m.name)
		assert.NotEmpty(t, m.stmt)
	}
	assert.Equal(t, len(migrations), currentSchemaVersion)
}

func TestMigrate_FromVersionZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	assert.NotContains(t, indexNames(t, db), "idx_snapshots_descriptor")
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	version, err := s.pragma(context.Background(), "user_version")
	require.NoError(t, err)
	assert.Equal(t, "1", version)
	assert.Contains(t, indexNames(t, s.db), "idx_snapshots_descriptor")
}

func indexNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	return queryStrings(t, db, "SELECT name FROM sqlite_master WHERE type = 'index'")
}

func queryStrings(t *testing.T, db *sql.DB, query string, args ...any) []string {
	t.Helper()
	rows, err := db.Query(query, args...)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		out = append(out, s)
	}
	require.NoError(t, rows.Err())
	return out
}
