package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/appser/appser-store/pkg/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDatabase(dbPath string) error {
	log := logger.GetLogger().WithContext("component", "database")

	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	var err error
	DB, err = sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; review transactions rely on it.
	DB.SetMaxOpenConns(1)

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("database_connection_established", "path", dbPath)

	if err = createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	log.Info("database_tables_ready")
	return nil
}

func createTables() error {
	schema := `
    CREATE TABLE IF NOT EXISTS apps (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        category TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL DEFAULT '',
        icon_url TEXT NOT NULL DEFAULT '',
        screenshots TEXT NOT NULL DEFAULT '[]',
        apk_url TEXT NOT NULL DEFAULT '',
        playstore_url TEXT NOT NULL DEFAULT '',
        uptodown_url TEXT NOT NULL DEFAULT '',
        mega_url TEXT NOT NULL DEFAULT '',
        mediafire_url TEXT NOT NULL DEFAULT '',
        size TEXT NOT NULL DEFAULT '',
        internet TEXT NOT NULL DEFAULT '',
        language TEXT NOT NULL DEFAULT '',
        version TEXT NOT NULL DEFAULT '',
        license TEXT NOT NULL DEFAULT '',
        operating_system TEXT NOT NULL DEFAULT '',
        requirements TEXT NOT NULL DEFAULT '',
        last_updated TIMESTAMP,
        age_rating TEXT NOT NULL DEFAULT '',
        ads TEXT NOT NULL DEFAULT '',
        privacy_url TEXT NOT NULL DEFAULT '',
        package_name TEXT NOT NULL DEFAULT '',
        downloads INTEGER NOT NULL DEFAULT 0,
        real_downloads INTEGER,
        likes INTEGER NOT NULL DEFAULT 0,
        rating_avg REAL NOT NULL DEFAULT 0,
        rating_count INTEGER NOT NULL DEFAULT 0,
        stars_1 INTEGER NOT NULL DEFAULT 0,
        stars_2 INTEGER NOT NULL DEFAULT 0,
        stars_3 INTEGER NOT NULL DEFAULT 0,
        stars_4 INTEGER NOT NULL DEFAULT 0,
        stars_5 INTEGER NOT NULL DEFAULT 0,
        seed_avg REAL NOT NULL DEFAULT 0,
        seed_count INTEGER NOT NULL DEFAULT 0,
        seed_stars_1 INTEGER NOT NULL DEFAULT 0,
        seed_stars_2 INTEGER NOT NULL DEFAULT 0,
        seed_stars_3 INTEGER NOT NULL DEFAULT 0,
        seed_stars_4 INTEGER NOT NULL DEFAULT 0,
        seed_stars_5 INTEGER NOT NULL DEFAULT 0,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS reviews (
        id TEXT PRIMARY KEY,
        app_id TEXT NOT NULL,
        stars INTEGER NOT NULL CHECK (stars BETWEEN 1 AND 5),
        comment TEXT NOT NULL,
        author TEXT NOT NULL DEFAULT 'anonymous',
        created_at INTEGER NOT NULL,
        FOREIGN KEY (app_id) REFERENCES apps(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_apps_category ON apps(category);
    CREATE INDEX IF NOT EXISTS idx_reviews_app_created ON reviews(app_id, created_at DESC);
    `

	if _, err := DB.Exec(schema); err != nil {
		return err
	}
	// Databases created before the live download counter existed.
	if _, err := ensureColumn("apps", "real_downloads", "INTEGER"); err != nil {
		return err
	}
	return ensureSeedBaseline()
}

// ensureSeedBaseline adds the seeded rating columns to older databases and
// derives them from the stored aggregate minus the votes already in reviews.
func ensureSeedBaseline() error {
	added := false
	for _, column := range []string{"seed_count", "seed_stars_1", "seed_stars_2", "seed_stars_3", "seed_stars_4", "seed_stars_5"} {
		ok, err := ensureColumn("apps", column, "INTEGER NOT NULL DEFAULT 0")
		if err != nil {
			return err
		}
		added = added || ok
	}
	ok, err := ensureColumn("apps", "seed_avg", "REAL NOT NULL DEFAULT 0")
	if err != nil {
		return err
	}
	if !added && !ok {
		return nil
	}

	const reviewCount = `(SELECT COUNT(*) FROM reviews WHERE reviews.app_id = apps.id)`
	const reviewSum = `(SELECT COALESCE(SUM(stars), 0) FROM reviews WHERE reviews.app_id = apps.id)`
	bucket := func(n int) string {
		return fmt.Sprintf(`seed_stars_%d = MAX(stars_%d - (SELECT COUNT(*) FROM reviews WHERE reviews.app_id = apps.id AND stars = %d), 0)`, n, n, n)
	}
	_, err = DB.Exec(`
		UPDATE apps SET
			` + bucket(1) + `,
			` + bucket(2) + `,
			` + bucket(3) + `,
			` + bucket(4) + `,
			` + bucket(5) + `,
			seed_count = MAX(rating_count - ` + reviewCount + `, 0),
			seed_avg = CASE
				WHEN rating_count > ` + reviewCount + `
				THEN (rating_avg * rating_count - ` + reviewSum + `) / (rating_count - ` + reviewCount + `)
				ELSE 0
			END`)
	if err != nil {
		return fmt.Errorf("failed to backfill seeded ratings: %w", err)
	}
	logger.Info("seed_ratings_backfilled")
	return nil
}

// ensureColumn adds column when missing and reports whether it did.
func ensureColumn(table, column, ddl string) (bool, error) {
	rows, err := DB.Query(fmt.Sprintf(`PRAGMA table_info(%s);`, table))
	if err != nil {
		return false, err
	}
	has := false
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return false, err
		}
		if strings.EqualFold(name, column) {
			has = true
			break
		}
	}
	rows.Close()

	if has {
		return false, nil
	}
	if _, err := DB.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s;`, table, column, ddl)); err != nil {
		logger.Warn("add_column_failed", "table", table, "column", column, "error", err.Error())
		return false, nil
	}
	logger.Info("column_added", "table", table, "column", column)
	return true, nil
}

func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
