package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Migrate applies the embedded SQL migrations in filename order. It creates a
// `schema_migrations` table to track applied migrations and skips any file
// already recorded, so running it on every startup is safe.
func Migrate(ctx context.Context, d *DB, migrationFS embed.FS) error {
	if _, err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	migDir := "migrations"
	entries, err := fs.ReadDir(migrationFS, migDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	for _, fname := range files {
		// filename without extension is the migration version key
		version := strings.TrimSuffix(fname, path.Ext(fname))

		var count int
		row := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, version)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("scan migration applied count: %w", err)
		}
		if count > 0 {
			continue
		}

		b, err := fs.ReadFile(migrationFS, path.Join(migDir, fname))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", fname, err)
		}
		if _, err := d.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec migration %s: %w", fname, err)
		}

		if _, err := d.Exec(ctx, `INSERT INTO schema_migrations (version, applied) VALUES (?, strftime('%s','now'))`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", fname, err)
		}
	}

	return nil
}
