package db_test

import (
	"context"
	"testing"

	dbfs "github.com/presspool/presspool/db"
	"github.com/presspool/presspool/internal/db"
)

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()

	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	// Run again to ensure idempotency
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	var count int
	row := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan schema_migrations count: %v", err)
	}
	if count < 1 {
		t.Fatalf("expected at least 1 migration recorded, got %d", count)
	}

	// verify known tables from the embedded migrations exist
	for _, table := range []string{"users", "requests", "request_invites", "jobs", "dead_letter_jobs"} {
		var name string
		r := d.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table)
		if err := r.Scan(&name); err != nil {
			t.Fatalf("expected %s table to exist: %v", table, err)
		}
	}
}
