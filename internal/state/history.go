package state

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Amaan007S/piq-sync/internal/cache"
	"github.com/Amaan007S/piq-sync/internal/models"
)

// History is the wallet transaction log, newest-first. The local side only
// ever prepends; the remote copy replaces the whole list when it diverges.
// Entries persist under cache.KeyTransactions.
type History struct {
	notifier

	mu      sync.Mutex
	entries []models.Transaction
	lastID  int64
	cache   *cache.Cache
}

// NewHistory loads the transaction log from the local cache.
func NewHistory(c *cache.Cache) *History {
	h := &History{cache: c}
	h.loadFromCache()
	return h
}

// Append prepends a new entry with a fresh id and the current timestamp and
// returns it.
func (h *History) Append(txType, detail string, amount float64) models.Transaction {
	now := time.Now()

	h.mu.Lock()
	// Millisecond ids collide under rapid appends; keep them strictly
	// increasing.
	id := now.UnixMilli()
	if id <= h.lastID {
		id = h.lastID + 1
	}
	h.lastID = id

	entry := models.Transaction{
		ID:     id,
		Type:   txType,
		Detail: detail,
		Amount: amount,
		Time:   now.Format("2006-01-02 15:04:05"),
	}
	h.entries = append([]models.Transaction{entry}, h.entries...)
	h.persistLocked()
	h.mu.Unlock()

	h.notify()
	return entry
}

// Snapshot returns a copy of the transaction list, newest-first.
func (h *History) Snapshot() []models.Transaction {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := make([]models.Transaction, len(h.entries))
	copy(entries, h.entries)
	return entries
}

// Restore overwrites the whole list with an externally reconciled value.
func (h *History) Restore(entries []models.Transaction) {
	h.mu.Lock()
	h.entries = make([]models.Transaction, len(entries))
	copy(h.entries, entries)
	h.syncLastIDLocked()
	h.persistLocked()
	h.mu.Unlock()
	h.notify()
}

// Reload re-reads the cached list. Wired to the cache watcher so a write
// from another session of the same user becomes visible here.
func (h *History) Reload() {
	h.loadFromCache()
	h.notify()
}

func (h *History) loadFromCache() {
	if h.cache == nil {
		return
	}
	raw, ok, err := h.cache.Get(cache.KeyTransactions)
	if err != nil {
		zap.L().Warn("failed to read cached transactions", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	var saved []models.Transaction
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		zap.L().Warn("discarding malformed cached transactions", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.entries = saved
	h.syncLastIDLocked()
	h.mu.Unlock()
}

func (h *History) syncLastIDLocked() {
	for _, entry := range h.entries {
		if entry.ID > h.lastID {
			h.lastID = entry.ID
		}
	}
}

func (h *History) persistLocked() {
	if h.cache == nil {
		return
	}
	data, err := json.Marshal(h.entries)
	if err != nil {
		zap.L().Warn("failed to encode transactions for cache", zap.Error(err))
		return
	}
	if err := h.cache.Put(cache.KeyTransactions, string(data)); err != nil {
		zap.L().Warn("failed to persist transactions to cache", zap.Error(err))
	}
}
