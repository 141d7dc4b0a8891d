package main

import (
	"context"
	"fmt"
	"os"

	dbfs "github.com/presspool/presspool/db"
	"github.com/presspool/presspool/internal/config"
	"github.com/presspool/presspool/internal/db"
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Database initialized successfully.")
}
