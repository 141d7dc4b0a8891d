package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	dbpkg "github.com/presspool/presspool/internal/db"
)

func TestNew_Close_GetConn(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	d, err := dbpkg.New(ctx, "file::memory:?cache=shared", nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	conn := d.GetConn()
	if conn == nil {
		t.Fatalf("expected non-nil sql.DB from GetConn")
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestExec_QueryRow(t *testing.T) {
	ctx := context.Background()
	d, err := dbpkg.New(ctx, "file::memory:?cache=shared", nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer d.Close()

	_, err = d.Exec(ctx, `CREATE TABLE IF NOT EXISTS items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT);`)
	if err != nil {
		t.Fatalf("Exec create table returned error: %v", err)
	}

	res, err := d.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "foo")
	if err != nil {
		t.Fatalf("Exec insert returned error: %v", err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("LastInsertId returned error: %v", err)
	}
	if lastID == 0 {
		t.Fatalf("expected last insert id > 0")
	}

	row := d.QueryRow(ctx, `SELECT name FROM items WHERE id = ?`, lastID)
	var name string
	if err := row.Scan(&name); err != nil {
		t.Fatalf("QueryRow scan returned error: %v", err)
	}
	if name != "foo" {
		t.Fatalf("expected name 'foo' got %q", name)
	}
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	d, err := dbpkg.New(ctx, "file::memory:?cache=shared", nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT);`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	// commit path
	if err := d.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO items (name) VALUES (?)`, "kept")
		return err
	}); err != nil {
		t.Fatalf("WithTx commit error: %v", err)
	}

	// rollback path: the error surfaces and the write disappears
	boom := errors.New("boom")
	err = d.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO items (name) VALUES (?)`, "dropped"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to surface, got %v", err)
	}

	var count int
	if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM items`).Scan(&count); err != nil {
		t.Fatalf("count scan: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected only the committed row, got %d rows", count)
	}
}
