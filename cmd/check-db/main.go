// Package main is a diagnostic tool for database connectivity. It loads the
// server configuration, connects to PostgreSQL, prints the schema version and
// the user, script and community entry counts, and exits non-zero on any
// failure so it can gate deployments in CI/CD pipelines.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hookline/hookline/internal/config"
	"github.com/hookline/hookline/internal/db"
	"github.com/hookline/hookline/internal/db/repositories"
	"github.com/jmoiron/sqlx"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("check-db: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), 2, 1)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Println("=== SCHEMA ===")
	version, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	fmt.Printf("Version: %d (dirty: %v)\n", version, dirty)

	st := repositories.NewStore(sqlx.NewDb(database, "postgres"))
	users, err := st.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	scripts, err := st.CountScripts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count scripts: %w", err)
	}
	entries, err := st.CountCommunityEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to count community entries: %w", err)
	}

	fmt.Println("\n=== CONTENTS ===")
	fmt.Printf("Users:             %d\n", users)
	fmt.Printf("Scripts:           %d\n", scripts)
	fmt.Printf("Community entries: %d\n", entries)

	if dirty {
		return fmt.Errorf("schema version %d is dirty; run fix-migration", version)
	}
	return nil
}
