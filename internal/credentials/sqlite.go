package credentials

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pixgram-dev/pixgram/internal/models"
)

// SQLiteSlot stores values in a local SQLite database, for machines without
// a usable keychain (CI runners, containers).
type SQLiteSlot struct {
	db    *gorm.DB
	scope string
}

// NewSQLiteSlot creates a slot on an already migrated database
func NewSQLiteSlot(db *gorm.DB, scope string) *SQLiteSlot {
	return &SQLiteSlot{db: db, scope: scope}
}

func (s *SQLiteSlot) scopedKey(key string) string {
	return s.scope + "|" + key
}

func (s *SQLiteSlot) Get(key string) (string, bool, error) {
	var entry models.SlotEntry
	if err := models.FindByKey(s.db, s.scopedKey(key), &entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *SQLiteSlot) Set(key, value string) error {
	entry := models.SlotEntry{
		SlotKey: s.scopedKey(key),
		Value:   value,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteSlot) Delete(key string) error {
	if err := s.db.Where("slot_key = ?", s.scopedKey(key)).Delete(&models.SlotEntry{}).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
