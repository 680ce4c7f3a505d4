package main

import (
	"fmt"

	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/db"
	"github.com/directus-ops/cmsctl/pkg/journal"
)

// openJournal connects to the journal database. Without
// JOURNAL_DATABASE_URL runs are not recorded and a NopStore is returned.
func openJournal(cfg *config.Config) (journal.Store, func(), error) {
	if cfg.JournalDatabaseURL == "" {
		return journal.NopStore{}, func() {}, nil
	}
	database, err := db.Connect(db.Config{URL: cfg.JournalDatabaseURL, LogLevel: cfg.LogLevel})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return journal.NewGormStore(database), closeFn, nil
}

// requireJournal is openJournal for commands that are meaningless without
// a journal.
func requireJournal(cfg *config.Config) (journal.Store, func(), error) {
	if cfg.JournalDatabaseURL == "" {
		return nil, nil, fmt.Errorf("JOURNAL_DATABASE_URL environment variable is required")
	}
	return openJournal(cfg)
}
