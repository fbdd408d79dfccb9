package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// migrate executes the wanted queries that were not executed before. Executed
// queries are registered in the migration table, in order.
func migrate(ctx context.Context, db *sql.DB, d dialect) error {
	if _, err := db.ExecContext(ctx, d.migrationTable); err != nil {
		return err
	}

	// find existing
	rows, err := db.QueryContext(ctx, `SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return err
	}
	existing := []string{}
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, query)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// compare
	missing, err := compareMigrations(d.migrations, existing)
	if err != nil {
		return err
	}

	// execute missing
	for _, query := range missing {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migration %q: %w", query, err)
		}

		// register
		if _, err := db.ExecContext(ctx, d.registerMigration, query); err != nil {
			return err
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	needed := []string{}
	if len(wanted) < len(existing) {
		return []string{}, fmt.Errorf("not enough migrations")
	}

	for i, want := range wanted {
		switch {
		case i >= len(existing):
			needed = append(needed, want)
		case want == existing[i]:
			// do nothing
		case want != existing[i]:
			return []string{}, fmt.Errorf("incompatible migration: %v", want)
		}
	}

	return needed, nil
}
