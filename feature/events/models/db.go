package models

import "gorm.io/gorm"

// Migrate creates or updates the schema for all event-store tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Event{},
		&IgnoredFingerprint{},
		&SyncRecord{},
		&Setting{},
		&RunProgress{},
	)
}
