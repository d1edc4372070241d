package seed

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// Seed populates the database with demo moderation data: screening rules,
// queue items with reports, moderators, bans, and appeals.
func Seed(db *gorm.DB, opts SeedOptions) error {
	log.Printf("Seeding moderation data: %d queue items, %d reports, %d moderators...",
		opts.NumQueueItems, opts.NumReports, opts.NumModerators)

	if err := Rules(db); err != nil {
		return fmt.Errorf("seed rules: %w", err)
	}

	f := NewFactory(db, opts)

	items := make([]string, 0, opts.NumQueueItems)
	for i := 0; i < opts.NumQueueItems; i++ {
		item, err := f.CreateQueueItem()
		if err != nil {
			return fmt.Errorf("seed queue item: %w", err)
		}
		items = append(items, item.ID)

		// Attach a report to roughly a third of the items so the
		// dashboard's report breakdown has material.
		if opts.NumReports > 0 && i%3 == 0 {
			if _, err := f.CreateReport(item); err != nil {
				return fmt.Errorf("seed report: %w", err)
			}
			opts.NumReports--
		}
	}
	for i := 0; i < opts.NumReports; i++ {
		if _, err := f.CreateReport(nil); err != nil {
			return fmt.Errorf("seed report: %w", err)
		}
	}
	log.Printf("Created %d queue items", len(items))

	moderators := make([]string, 0, opts.NumModerators)
	for i := 0; i < opts.NumModerators; i++ {
		mod, err := f.CreateModerator(fmt.Sprintf("community-%d", i%5))
		if err != nil {
			return fmt.Errorf("seed moderator: %w", err)
		}
		moderators = append(moderators, mod.UserID)
	}
	log.Printf("Created %d moderators", len(moderators))

	for i := 0; i < opts.NumBans; i++ {
		bannedBy := "seed"
		if len(moderators) > 0 {
			bannedBy = moderators[i%len(moderators)]
		}
		ban, err := f.CreateBan(bannedBy)
		if err != nil {
			return fmt.Errorf("seed ban: %w", err)
		}
		if i < opts.NumAppeals {
			if _, err := f.CreateAppeal(ban.ID); err != nil {
				return fmt.Errorf("seed appeal: %w", err)
			}
		}
	}

	for i := 0; i < opts.NumQueueItems; i++ {
		if _, err := f.CreateResult(); err != nil {
			return fmt.Errorf("seed result: %w", err)
		}
	}

	log.Println("Seeding completed")
	return nil
}

// ClearAll removes all moderation data. Development convenience only.
func ClearAll(db *gorm.DB) error {
	tables := []string{
		"user_reports", "queue_items", "content_moderation_results",
		"moderation_actions", "appeals", "user_bans",
		"community_moderators", "moderation_rules",
	}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
