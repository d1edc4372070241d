// Command main applies the database schema for Gatekeeper.
package main

import (
	"log"

	"gatekeeper/internal/config"
	"gatekeeper/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Connect auto-migrates outside production; run it explicitly here so
	// this command also works against production databases.
	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Schema migration complete")
}
