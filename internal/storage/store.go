// Package storage persists the dashboard's client-side state: the auth token, the
// signed-in user and cached restaurant lookups. It is a plain key-value table with
// last-write-wins semantics.
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
)

// ErrNotFound is returned when a key has no value
var ErrNotFound = errors.New("storage: key not found")

// Entry is a stored key-value pair
type Entry struct {
	Key       string `gorm:"column:entry_key;primary_key;size:191"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm pluralization rules
func (Entry) TableName() string {
	return "session_entries"
}

// Store is a key-value store backed by gorm
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore migrates the entries table and returns a store on db
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Entry{}).Error; err != nil {
		return nil, fmt.Errorf("failed to migrate session entries: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Get returns the entry stored under key
func (s *Store) Get(key string) (*Entry, error) {
	var e Entry
	err := s.db.Where("entry_key = ?", key).First(&e).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return &e, nil
}

// Set stores value under key, replacing any previous value
func (s *Store) Set(key, value string) error {
	now := s.now()
	res := s.db.Model(&Entry{}).Where("entry_key = ?", key).
		UpdateColumns(map[string]interface{}{"value": value, "updated_at": now})
	if res.Error != nil {
		return fmt.Errorf("failed to write %s: %w", key, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if err := s.db.Create(&Entry{Key: key, Value: value, UpdatedAt: now}).Error; err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (s *Store) Delete(key string) error {
	if err := s.db.Where("entry_key = ?", key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys starting with prefix
func (s *Store) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.Model(&Entry{}).Where("entry_key LIKE ?", prefix+"%").Order("entry_key").Pluck("entry_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}
