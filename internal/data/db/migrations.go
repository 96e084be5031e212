package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/quire/internal/core/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one versioned schema change with its up and down SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// migrator applies the migrations found in a directory of
// NNNN_name.{up,down}.sql files.
type migrator struct {
	fsys fs.FS
	dir  string
	log  zerolog.Logger
}

func newMigrator(fsys fs.FS, dir string) *migrator {
	return &migrator{fsys: fsys, dir: dir, log: logging.Component("db")}
}

func defaultMigrator() *migrator {
	return newMigrator(migrationsFS, "migrations")
}

// load reads and pairs every migration file, sorted by version.
func (m *migrator) load() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, up, err := parseFilename(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid migration filename %q: %w", entry.Name(), err)
		}

		content, err := fs.ReadFile(m.fsys, path.Join(m.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: name}
			byVersion[version] = mig
		}

		target := &mig.DownSQL
		if up {
			target = &mig.UpSQL
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate migration file %s", entry.Name())
		}
		*target = string(content)
	}

	out := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		switch {
		case mig.UpSQL == "":
			return nil, fmt.Errorf("migration %04d has no up file", mig.Version)
		case mig.DownSQL == "":
			return nil, fmt.Errorf("migration %04d has no down file", mig.Version)
		}
		out = append(out, *mig)
	}

	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

// parseFilename splits "NNNN_name.up.sql" or "NNNN_name.down.sql".
func parseFilename(filename string) (version int, name string, up bool, err error) {
	base, isUp := strings.CutSuffix(filename, ".up.sql")
	if !isUp {
		var isDown bool
		base, isDown = strings.CutSuffix(filename, ".down.sql")
		if !isDown {
			return 0, "", false, fmt.Errorf("expected .up.sql or .down.sql suffix, got %q", filename)
		}
	}

	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", false, fmt.Errorf("expected format NNNN_name.{up,down}.sql")
	}

	version, err = strconv.Atoi(num)
	if err != nil {
		return 0, "", false, fmt.Errorf("version %q is not a valid integer: %w", num, err)
	}
	if version <= 0 {
		return 0, "", false, fmt.Errorf("version must be positive, got %d", version)
	}

	return version, name, isUp, nil
}

// Up applies every pending migration in version order.
func (m *migrator) Up(ctx context.Context, conn *sql.DB) error {
	migrations, err := m.load()
	if err != nil {
		return err
	}

	applied, err := m.applied(ctx, conn)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}

		m.log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("applying migration")
		err := inTx(ctx, conn, mig.UpSQL,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			mig.Version, mig.Name, time.Now().UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("migration %04d (%s): %w", mig.Version, mig.Name, err)
		}
	}

	return nil
}

// Down reverts the last n applied migrations, newest first.
func (m *migrator) Down(ctx context.Context, conn *sql.DB, n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}

	migrations, err := m.load()
	if err != nil {
		return err
	}

	applied, err := m.applied(ctx, conn)
	if err != nil {
		return err
	}

	var revert []Migration
	for _, mig := range slices.Backward(migrations) {
		if applied[mig.Version] {
			revert = append(revert, mig)
		}
	}
	if n > len(revert) {
		return fmt.Errorf("requested %d down migrations but only %d are applied", n, len(revert))
	}

	for _, mig := range revert[:n] {
		m.log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("reverting migration")
		err := inTx(ctx, conn, mig.DownSQL, "DELETE FROM schema_migrations WHERE version = ?", mig.Version)
		if err != nil {
			return fmt.Errorf("revert migration %04d (%s): %w", mig.Version, mig.Name, err)
		}
	}

	return nil
}

// applied creates the tracking table if needed and returns the applied
// versions.
func (m *migrator) applied(ctx context.Context, conn *sql.DB) (map[int]bool, error) {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}

	rows, err := conn.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// inTx runs the migration SQL and its bookkeeping statement in one
// transaction.
func inTx(ctx context.Context, conn *sql.DB, migrationSQL, record string, args ...any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, migrationSQL); err != nil {
		return fmt.Errorf("execute SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}

// MigrateDown reverts the last n applied built-in migrations.
func MigrateDown(ctx context.Context, conn *sql.DB, n int) error {
	return defaultMigrator().Down(ctx, conn, n)
}
