package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// SlotEntry is one key of the persistent credential slot.
// Keys mirror the browser storage keys (authToken, cookie:token).
type SlotEntry struct {
	BaseModel
	SlotKey   string    `json:"slot_key" gorm:"not null;uniqueIndex"`
	Value     string    `json:"-" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&SlotEntry{},
	}

	return db.AutoMigrate(models...)
}

// FindByKey finds a slot entry by its key
func FindByKey(db *gorm.DB, key string, entry *SlotEntry) error {
	return db.Where("slot_key = ?", key).First(entry).Error
}
