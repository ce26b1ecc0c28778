package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Entry is one persisted key of the local session.
type Entry struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"type:text;not null"`
}

func (Entry) TableName() string { return "local_storage" }

// AutoMigrate creates or updates the session table. Idempotent.
func AutoMigrate(db *gorm.DB, extra ...any) error {
	models := append([]any{&Entry{}}, extra...)
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}
