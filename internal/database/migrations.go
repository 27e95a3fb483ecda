package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

func getMigrations(driver string) []migration {
	if driver == "postgres" {
		return postgresMigrations()
	}
	return sqliteMigrations()
}

func sqliteMigrations() []migration {
	return []migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT UNIQUE NOT NULL,
				password TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_login DATETIME
			)`,
		},
		{
			Version:     2,
			Description: "Create indexes",
			SQL:         `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);`,
		},
	}
}

func postgresMigrations() []migration {
	return []migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				username VARCHAR(255) UNIQUE NOT NULL,
				password VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				last_login TIMESTAMP WITH TIME ZONE
			)`,
		},
		{
			Version:     2,
			Description: "Create indexes",
			SQL:         `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);`,
		},
	}
}

func createMigrationsTable(db *sql.DB, driver string) error {
	var query string
	if driver == "postgres" {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`
	} else {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}
	_, err := db.Exec(query)
	return err
}

func appliedMigrations(db *sql.DB) (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func recordMigration(db *sql.DB, driver string, version int) error {
	query := "INSERT INTO schema_migrations (version) VALUES (?)"
	if driver == "postgres" {
		query = "INSERT INTO schema_migrations (version) VALUES ($1)"
	}
	_, err := db.Exec(query, version)
	return err
}

// runMigrations applies pending migrations in version order.
func runMigrations(db *sql.DB, driver string) error {
	if err := createMigrationsTable(db, driver); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, m := range getMigrations(driver) {
		if applied[m.Version] {
			continue
		}

		log.Printf("Applying migration %d: %s", m.Version, m.Description)
		for _, stmt := range strings.Split(m.SQL, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
			}
		}

		if err := recordMigration(db, driver, m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}

	return nil
}
