package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// kvEntry is one stored record.
type kvEntry struct {
	Key   string `gorm:"primaryKey;type:varchar(255);column:k"`
	Value string `gorm:"type:text;column:v"`
}

func (kvEntry) TableName() string {
	return "kv_entry"
}

// SQLiteStore is the durable KVStore, one sqlite file per installation.
// Every operation is synchronous; the quota ceiling is enforced here, not by
// the database.
type SQLiteStore struct {
	db       *gorm.DB
	capacity int64
}

// OpenSQLiteStore opens (creating if necessary) the sqlite file at path.
func OpenSQLiteStore(path string, capacity int64) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv table: %w", err)
	}
	return &SQLiteStore{db: db, capacity: capacity}, nil
}

func (s *SQLiteStore) Get(key string) (string, bool) {
	var e kvEntry
	err := s.db.First(&e, "k = ?", key).Error
	if err != nil {
		return "", false
	}
	return e.Value, true
}

func (s *SQLiteStore) Set(key, value string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var used int64
		// LENGTH on TEXT counts characters; cast to BLOB so the sum matches
		// the byte accounting of entrySize/StoreUsedBytes.
		row := tx.Model(&kvEntry{}).
			Select("COALESCE(SUM(LENGTH(CAST(k AS BLOB)) + LENGTH(CAST(v AS BLOB))), 0)")
		if err := row.Scan(&used).Error; err != nil {
			return err
		}
		next := used + entrySize(key, value)
		var prev kvEntry
		if err := tx.First(&prev, "k = ?", key).Error; err == nil {
			next -= entrySize(prev.Key, prev.Value)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if next > s.capacity {
			return ErrQuotaExceeded
		}
		return tx.Save(&kvEntry{Key: key, Value: value}).Error
	})
}

func (s *SQLiteStore) Remove(key string) {
	s.db.Delete(&kvEntry{}, "k = ?", key)
}

func (s *SQLiteStore) Keys() []string {
	var keys []string
	s.db.Model(&kvEntry{}).Pluck("k", &keys)
	return keys
}

func (s *SQLiteStore) Capacity() int64 {
	return s.capacity
}
