package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(t.TempDir(), DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func openRawConn(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), FileName)
	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", dbPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestMigrateUp_FreshDB(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	applied, err := defaultMigrator().applied(ctx, database.Conn())
	require.NoError(t, err)

	migrations, err := defaultMigrator().load()
	require.NoError(t, err)
	require.Len(t, applied, len(migrations))
	for _, m := range migrations {
		assert.True(t, applied[m.Version], "version %d applied", m.Version)
	}

	for _, table := range []string{"kv_store", "documents"} {
		_, err = database.Conn().ExecContext(ctx, "SELECT 1 FROM "+table+" LIMIT 0")
		require.NoError(t, err, "%s table should exist", table)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	database := openTestDB(t)

	err := defaultMigrator().Up(context.Background(), database.Conn())
	assert.NoError(t, err, "second Up should be a no-op")
}

func TestMigrateDown(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	conn := database.Conn()

	_, err := conn.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, created_at, updated_at)
		VALUES ('prefs:zoom', '1.5', 1, 1)
	`)
	require.NoError(t, err)

	require.NoError(t, MigrateDown(ctx, conn, 1))

	_, err = conn.ExecContext(ctx, "SELECT 1 FROM documents LIMIT 0")
	require.Error(t, err, "documents should not exist after down migration")

	var count int
	err = conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "kv row should be preserved")
}

func TestMigrateDown_InvalidN(t *testing.T) {
	conn := openRawConn(t)
	ctx := context.Background()

	require.Error(t, MigrateDown(ctx, conn, 0))
	require.Error(t, MigrateDown(ctx, conn, -1))
}

func TestMigrateDown_TooMany(t *testing.T) {
	database := openTestDB(t)

	migrations, err := defaultMigrator().load()
	require.NoError(t, err)

	err = MigrateDown(context.Background(), database.Conn(), len(migrations)+1)
	assert.Error(t, err)
}

func TestMigrator_LoadValidatesPairs(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{
			name: "missing down",
			files: fstest.MapFS{
				"m/0001_a.up.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "no down file",
		},
		{
			name: "missing up",
			files: fstest.MapFS{
				"m/0001_a.down.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "no up file",
		},
		{
			name: "bad name",
			files: fstest.MapFS{
				"m/first.up.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "invalid migration filename",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newMigrator(tt.files, "m").load()
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMigrator_UpFromFS(t *testing.T) {
	conn := openRawConn(t)
	ctx := context.Background()

	files := fstest.MapFS{
		"m/0002_b.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"m/0002_b.down.sql": {Data: []byte("DROP TABLE b;")},
		"m/0001_a.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"m/0001_a.down.sql": {Data: []byte("DROP TABLE a;")},
	}
	m := newMigrator(files, "m")

	migrations, err := m.load()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "a", migrations[0].Name)

	require.NoError(t, m.Up(ctx, conn))
	require.NoError(t, m.Down(ctx, conn, 2))

	applied, err := m.applied(ctx, conn)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion int
		wantName    string
		wantUp      bool
		wantErr     bool
	}{
		{"0001_initial.up.sql", 1, "initial", true, false},
		{"0001_initial.down.sql", 1, "initial", false, false},
		{"0100_big_version.down.sql", 100, "big_version", false, false},
		{"bad.sql", 0, "", false, true},
		{"0001_initial.sql", 0, "", false, true},
		{"0000_zero.up.sql", 0, "", false, true},
		{"abc_notnumber.up.sql", 0, "", false, true},
		{"0001_.up.sql", 0, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, err := parseFilename(tt.filename)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantUp, up)
		})
	}
}
