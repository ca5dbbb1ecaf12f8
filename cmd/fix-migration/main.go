// Package main repairs a dirty golang-migrate state. Dirty state occurs when
// a migration was marked in progress but the process died before finishing.
// The tool forces the recorded version (by default the current one, or the
// one given with -version) so the server's auto-migration can retry cleanly
// instead of refusing to start with "Dirty database version".
package main

import (
	"flag"
	"log"
	"os"

	"github.com/hookline/hookline/internal/config"
	"github.com/hookline/hookline/internal/db"
)

func main() {
	target := flag.Int("version", -2, "version to force; defaults to the current version, -1 means no migrations applied")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), 2, 1)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Println("Connected to database successfully")

	version, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		log.Fatalf("Failed to check migration state: %v", err)
	}
	log.Printf("Current migration state: version=%d, dirty=%v", version, dirty)

	if !dirty && *target == -2 {
		log.Println("Migration state is already clean")
		return
	}

	force := int(version)
	if *target != -2 {
		force = *target
	}

	log.Printf("Forcing migration version %d...", force)
	if err := db.ForceVersion(database, force); err != nil {
		log.Fatalf("Failed to fix dirty state: %v", err)
	}

	version, dirty, err = db.GetMigrationVersion(database)
	if err != nil {
		log.Fatalf("Failed to check final migration state: %v", err)
	}
	log.Printf("Final migration state: version=%d, dirty=%v", version, dirty)
}
