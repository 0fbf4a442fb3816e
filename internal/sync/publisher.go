package sync

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Amaan007S/piq-sync/internal/store"
)

// PayloadFunc builds the merge payload a publisher replicates. Map key order
// does not matter for the equality gate; json.Marshal sorts map keys.
type PayloadFunc func() map[string]any

// Publisher observes one or more slices and merge-writes their serialized
// subset to the user record whenever it differs from the last payload
// actually acknowledged. Failed writes are only logged: because lastSent
// advances on success alone, the same payload is re-attempted on the next
// change notification and on every flush tick, so a failure never desyncs
// the record for good.
type Publisher struct {
	st       store.Store
	username string
	payload  PayloadFunc
	interval time.Duration

	mu       sync.Mutex
	lastSent string

	pending  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup
}

func NewPublisher(st store.Store, username string, interval time.Duration, payload PayloadFunc) *Publisher {
	return &Publisher{
		st:       st,
		username: username,
		payload:  payload,
		interval: interval,
		pending:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Changed signals that an observed slice mutated. Wire it to the slices'
// Subscribe. Non-blocking; coalesces with an already pending flush.
func (p *Publisher) Changed() {
	select {
	case p.pending <- struct{}{}:
	default:
	}
}

// Start runs the flush loop until Stop. An immediate flush pushes whatever
// local state diverged while offline.
func (p *Publisher) Start(ctx context.Context) {
	p.done.Add(1)
	go func() {
		defer p.done.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.Flush(ctx)
		for {
			select {
			case <-p.pending:
				p.Flush(ctx)
			case <-ticker.C:
				p.Flush(ctx)
			case <-p.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the flush loop. In-flight writes are not cancelled; a late
// completion is harmless because merges are idempotent at the field level.
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.done.Wait()
}

// Flush performs one equality-gated write pass. Safe to call directly; the
// loop and tests both use it.
func (p *Publisher) Flush(ctx context.Context) {
	payload := p.payload()
	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("failed to serialize sync payload", zap.Error(err))
		return
	}
	serialized := string(data)

	p.mu.Lock()
	unchanged := serialized == p.lastSent
	p.mu.Unlock()
	if unchanged {
		return
	}

	if err := p.st.Merge(ctx, p.username, payload); err != nil {
		// Not surfaced anywhere; the next change or tick retries.
		zap.L().Warn("record sync write failed",
			zap.String("username", p.username), zap.Error(err))
		return
	}

	p.mu.Lock()
	p.lastSent = serialized
	p.mu.Unlock()
	zap.L().Debug("record sync write applied", zap.String("username", p.username))
}

// LastSent exposes the last acknowledged payload for diagnostics.
func (p *Publisher) LastSent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSent
}
