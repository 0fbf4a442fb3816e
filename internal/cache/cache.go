// Package cache is the local durable key→string store backing the reactive
// slices. Slices read their key once at initialization and write through on
// every mutation, so gameplay keeps working offline.
package cache

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Keys used by the slices. The names match the original browser storage.
const (
	KeyOwnedPowerUps = "ownedPowerUps"
	KeyTransactions  = "piq_transactions"
)

type Entry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     string `gorm:"column:value"`
	UpdatedAt time.Time
}

func (Entry) TableName() string {
	return "cache_entries"
}

type Cache struct {
	db *gorm.DB

	mu       sync.Mutex
	watchers []chan string
}

// Open connects to the sqlite cache at path, creating the schema if needed.
// Use "file::memory:?cache=shared" in tests.
func Open(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Get returns the stored value for key and whether it was present.
func (c *Cache) Get(key string) (string, bool, error) {
	var entry Entry
	err := c.db.First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

// Put upserts the value for key.
func (c *Cache) Put(key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&entry).Error
}

// Watch returns a channel receiving the key of every externally notified
// change. This is the cross-tab signal: another session writing the same
// cache file calls Notify and observers re-read the key.
func (c *Cache) Watch() <-chan string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan string, 8)
	c.watchers = append(c.watchers, ch)
	return ch
}

// Notify broadcasts that key was changed outside this session. Slow watchers
// are skipped rather than blocked on.
func (c *Cache) Notify(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.watchers {
		select {
		case ch <- key:
		default:
			zap.L().Warn("cache watcher backlogged, dropping notification", zap.String("key", key))
		}
	}
}
