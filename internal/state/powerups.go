package state

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Amaan007S/piq-sync/internal/cache"
	"github.com/Amaan007S/piq-sync/internal/models"
)

// PowerUps holds the owned power-up counts, persisted to the local cache
// under cache.KeyOwnedPowerUps so they survive a restart offline.
type PowerUps struct {
	notifier

	mu    sync.Mutex
	owned map[string]int
	cache *cache.Cache
}

// NewPowerUps loads the owned counts from the local cache, falling back to
// the zeroed default set.
func NewPowerUps(c *cache.Cache) *PowerUps {
	p := &PowerUps{owned: models.DefaultPowerUps(), cache: c}
	if c == nil {
		return p
	}

	raw, ok, err := c.Get(cache.KeyOwnedPowerUps)
	if err != nil {
		zap.L().Warn("failed to read cached power-ups", zap.Error(err))
		return p
	}
	if !ok {
		return p
	}

	var saved map[string]int
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		zap.L().Warn("discarding malformed cached power-ups", zap.Error(err))
		return p
	}
	p.owned = models.MergePowerUpDefaults(saved)
	return p
}

// Trigger consumes one use of the named power-up. Using one you do not own
// is a silent no-op.
func (p *PowerUps) Trigger(name string) {
	p.mu.Lock()
	if p.owned[name] <= 0 {
		p.mu.Unlock()
		return
	}
	p.owned[name]--
	p.persistLocked()
	p.mu.Unlock()
	p.notify()
}

// Buy credits one unit of the named power-up. Price enforcement lives in the
// purchase flow, not here.
func (p *PowerUps) Buy(name string) {
	if !models.IsPowerUpName(name) {
		return
	}
	p.mu.Lock()
	p.owned[name]++
	p.persistLocked()
	p.mu.Unlock()
	p.notify()
}

// ResetAll restores every count to zero.
func (p *PowerUps) ResetAll() {
	p.mu.Lock()
	p.owned = models.DefaultPowerUps()
	p.persistLocked()
	p.mu.Unlock()
	p.notify()
}

// Snapshot returns a copy of the owned counts.
func (p *PowerUps) Snapshot() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	counts := make(map[string]int, len(p.owned))
	for name, count := range p.owned {
		counts[name] = count
	}
	return counts
}

// Restore overwrites the slice with an externally reconciled value.
func (p *PowerUps) Restore(owned map[string]int) {
	p.mu.Lock()
	p.owned = models.MergePowerUpDefaults(owned)
	p.persistLocked()
	p.mu.Unlock()
	p.notify()
}

// persistLocked writes through to the local cache. Failures are logged and
// otherwise ignored; the in-memory value stays authoritative.
func (p *PowerUps) persistLocked() {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(p.owned)
	if err != nil {
		zap.L().Warn("failed to encode power-ups for cache", zap.Error(err))
		return
	}
	if err := p.cache.Put(cache.KeyOwnedPowerUps, string(data)); err != nil {
		zap.L().Warn("failed to persist power-ups to cache", zap.Error(err))
	}
}
