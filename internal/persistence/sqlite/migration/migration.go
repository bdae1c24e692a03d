// Package migration applies the embedded schema migrations in version
// order, tracking applied versions in a schema_migrations table. Each
// migration runs inside its own transaction, so a failed migration leaves
// the schema at the previous version.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration is one versioned schema change.
type Migration struct {
	Version     string
	Description string
	SQL         string
	FilePath    string
}

// Run applies every pending embedded migration to db.
func Run(ctx context.Context, db *sql.DB) error {
	migrations, err := ScanFS(migrationFiles, "sql")
	if err != nil {
		return err
	}
	return Apply(ctx, db, migrations)
}

// Apply executes the given migrations in order, skipping versions already
// recorded in schema_migrations.
func Apply(ctx context.Context, db *sql.DB, migrations []Migration) error {
	if err := initVersionTable(ctx, db); err != nil {
		return err
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		if err := applyOne(ctx, db, m); err != nil {
			return fmt.Errorf("migration %s (%s): %w", m.Version, m.Description, err)
		}
	}
	return nil
}

// AppliedVersions lists the recorded migration versions in apply order.
func AppliedVersions(ctx context.Context, db *sql.DB) ([]string, error) {
	if err := initVersionTable(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version ASC")
	if err != nil {
		return nil, fmt.Errorf("migration: listing versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func initVersionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migration: creating version table: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]struct{}, error) {
	versions, err := AppliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(versions))
	for _, version := range versions {
		set[version] = struct{}{}
	}
	return set, nil
}

func applyOne(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}

	appliedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, appliedAt); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
