// Command main runs the database seeder for Gatekeeper.
package main

import (
	"flag"
	"log"

	"gatekeeper/internal/config"
	"gatekeeper/internal/database"
	"gatekeeper/internal/seed"
)

func main() {
	numItems := flag.Int("items", 100, "Number of queue items to create")
	numReports := flag.Int("reports", 60, "Number of user reports to create")
	numModerators := flag.Int("moderators", 10, "Number of moderators to appoint")
	numBans := flag.Int("bans", 15, "Number of bans to issue")
	numAppeals := flag.Int("appeals", 5, "Number of pending appeals to file")
	rulesFile := flag.String("rules", "", "Optional YAML fixture of screening rules")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Gatekeeper database seeder")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *shouldClean {
		if err := seed.ClearAll(database.DB); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if *rulesFile != "" {
		loaded, err := seed.RulesFromFile(database.DB, *rulesFile)
		if err != nil {
			log.Fatalf("Rule fixture loading failed: %v", err)
		}
		log.Printf("Loaded %d rules from %s", loaded, *rulesFile)
	}

	err = seed.Seed(database.DB, seed.SeedOptions{
		NumQueueItems: *numItems,
		NumReports:    *numReports,
		NumModerators: *numModerators,
		NumBans:       *numBans,
		NumAppeals:    *numAppeals,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done. The moderation tables are populated with demo data.")
}
