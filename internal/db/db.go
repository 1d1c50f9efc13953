package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"albion-flipper/internal/logger"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// DefaultPath returns albion-flipper.db in the working directory, falling
// back to the executable directory.
func DefaultPath() string {
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "albion-flipper.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "albion-flipper.db")
}

// Open opens (or creates) the SQLite database at path and runs migrations.
// An empty path uses DefaultPath.
func Open(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath()
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	// Missing table means a fresh database.
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS prices (
				item_id        TEXT    NOT NULL,
				city           TEXT    NOT NULL,
				quality        INTEGER NOT NULL,
				observed_at    INTEGER NOT NULL,
				sell_price_min REAL    NOT NULL,
				buy_price_max  REAL    NOT NULL,
				source_tag     TEXT    NOT NULL DEFAULT '',
				PRIMARY KEY (item_id, city, quality, observed_at)
			);

			CREATE TABLE IF NOT EXISTS scan_history (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp    TEXT    NOT NULL,
				kind         TEXT    NOT NULL,
				city         TEXT    NOT NULL,
				count        INTEGER NOT NULL,
				top_profit   REAL    NOT NULL,
				total_profit REAL    NOT NULL DEFAULT 0,
				duration_ms  INTEGER NOT NULL DEFAULT 0,
				params_json  TEXT    NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_scan_history_ts ON scan_history(timestamp);

			CREATE TABLE IF NOT EXISTS flip_results (
				id                  INTEGER PRIMARY KEY AUTOINCREMENT,
				scan_id             INTEGER NOT NULL REFERENCES scan_history(id),
				item_id             TEXT    NOT NULL,
				quality             INTEGER NOT NULL,
				source_city         TEXT    NOT NULL,
				dest_city           TEXT    NOT NULL,
				strategy            TEXT    NOT NULL,
				buy_price           REAL,
				sell_price          REAL,
				roi_percent         REAL,
				risk_level          INTEGER,
				suggested_quantity  INTEGER,
				liquidity           REAL,
				data_age_seconds    REAL
			);
			CREATE INDEX IF NOT EXISTS idx_flip_scan ON flip_results(scan_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	if version < 2 {
		_, err := d.sql.Exec(`
			CREATE INDEX IF NOT EXISTS idx_prices_observed ON prices(observed_at);
			CREATE INDEX IF NOT EXISTS idx_flip_item ON flip_results(item_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logger.Info("DB", "Applied migration v2 (price cleanup index)")
	}

	if version < 3 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS watchlist (
				item_id        TEXT PRIMARY KEY,
				added_at       TEXT NOT NULL,
				min_roi        REAL NOT NULL DEFAULT 0,
				alert_enabled  INTEGER NOT NULL DEFAULT 0,
				last_alert_at  TEXT NOT NULL DEFAULT ''
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (3);
		`)
		if err != nil {
			return fmt.Errorf("migration v3: %w", err)
		}
		logger.Info("DB", "Applied migration v3 (watchlist)")
	}

	return nil
}
