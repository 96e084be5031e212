package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hay-kot/quire/internal/core/logging"
	"github.com/hay-kot/quire/internal/data/db"
)

// IsBusyError returns true if the error is a SQLITE_BUSY error.
func IsBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_BUSY
	}
	return false
}

// IsCorruptionError returns true if the error indicates database corruption.
func IsCorruptionError(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "database disk image is malformed") ||
		strings.Contains(msg, "file is not a database")
}

// IsNotFoundError returns true if the error is a "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Open opens the database in dataDir. A corrupted database file is moved
// aside and a fresh one is created in its place.
func Open(dataDir string, opts db.OpenOptions) (*db.DB, error) {
	database, err := db.Open(dataDir, opts)
	if err == nil || !IsCorruptionError(err) {
		return database, err
	}

	log := logging.Component("stores")
	log.Warn().Err(err).Str("dir", dataDir).Msg("database corrupted, recreating")
	if rerr := RecoverFromCorruption(dataDir); rerr != nil {
		return nil, errors.Join(err, rerr)
	}
	return db.Open(dataDir, opts)
}

// RecoverFromCorruption moves the database file and its WAL and SHM
// companions to timestamped backups. Missing files are skipped.
func RecoverFromCorruption(dataDir string) error {
	dbPath := filepath.Join(dataDir, db.FileName)
	backupPath := fmt.Sprintf("%s.corrupt.%s", dbPath, time.Now().Format("20060102-150405"))

	// WAL and SHM must not survive next to a fresh database file.
	for _, suffix := range []string{"", "-wal", "-shm"} {
		src := dbPath + suffix
		if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err := os.Rename(src, backupPath+suffix); err != nil {
			if suffix == "" {
				return fmt.Errorf("failed to backup corrupted database: %w", err)
			}
			if delErr := os.Remove(src); delErr != nil {
				return fmt.Errorf("failed to backup or remove %s: %w", filepath.Base(src), err)
			}
		}
	}

	return nil
}
