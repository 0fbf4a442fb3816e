package sync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Amaan007S/piq-sync/internal/cache"
	"github.com/Amaan007S/piq-sync/internal/identity"
	"github.com/Amaan007S/piq-sync/internal/state"
	"github.com/Amaan007S/piq-sync/internal/store"
)

// Session wires one user's slices to the remote record for the lifetime of a
// login: authenticate, bootstrap, then mirror inbound and publish outbound
// until Close.
type Session struct {
	Provider *identity.Provider
	Streak   *state.Streak
	PowerUps *state.PowerUps
	Wallet   *state.Wallet
	History  *state.History

	st    store.Store
	cache *cache.Cache

	statsPub *Publisher
	txPub    *Publisher
	mirror   *Mirror

	cancel context.CancelFunc
	unsubs []func()
	done   sync.WaitGroup

	mu    sync.Mutex
	phase Phase
}

func NewSession(provider *identity.Provider, st store.Store, c *cache.Cache) *Session {
	return &Session{
		Provider: provider,
		Streak:   state.NewStreak(),
		PowerUps: state.NewPowerUps(c),
		Wallet:   state.NewWallet(),
		History:  state.NewHistory(c),
		st:       st,
		cache:    c,
		phase:    PhaseUnauthenticated,
	}
}

// Phase reports where the account lifecycle currently stands.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) setPhase(phase Phase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}

// Start authenticates, bootstraps the remote record, seeds the slices from
// it, and brings up the mirror and publishers. Returns without starting any
// replication when authentication fails; the caller keeps the session around
// for its local (offline) slices.
func (s *Session) Start(ctx context.Context, flushInterval time.Duration) error {
	s.setPhase(PhaseAuthenticating)
	if err := s.Provider.Authenticate(ctx); err != nil {
		s.setPhase(PhaseUnauthenticated)
		return err
	}
	username := s.Provider.User().Username

	rec, phase, err := Bootstrap(ctx, s.st, username)
	if err != nil {
		s.setPhase(PhaseUnauthenticated)
		return err
	}
	s.setPhase(phase)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// Inbound first: the initial mirror apply seeds local state with the
	// record before anything local can be pushed over it.
	s.mirror = NewMirror(s.st, username, s.Streak, s.PowerUps, s.Wallet, s.History)
	s.mirror.Apply(rec)
	if err := s.mirror.Start(runCtx); err != nil {
		cancel()
		s.setPhase(PhaseUnauthenticated)
		return err
	}

	s.statsPub = NewPublisher(s.st, username, flushInterval, func() map[string]any {
		return map[string]any{
			"gameStats": s.Streak.Snapshot(),
			"powerUps":  s.PowerUps.Snapshot(),
			"wallet":    s.Wallet.Snapshot(),
		}
	})
	s.txPub = NewPublisher(s.st, username, flushInterval, func() map[string]any {
		return map[string]any{
			"transactions": s.History.Snapshot(),
		}
	})

	s.unsubs = append(s.unsubs,
		s.Streak.Subscribe(s.statsPub.Changed),
		s.PowerUps.Subscribe(s.statsPub.Changed),
		s.Wallet.Subscribe(s.statsPub.Changed),
		s.History.Subscribe(s.txPub.Changed),
	)

	s.statsPub.Start(runCtx)
	s.txPub.Start(runCtx)
	s.watchCache(runCtx)

	s.setPhase(PhaseReady)
	zap.L().Info("session ready", zap.String("username", username))
	return nil
}

// watchCache re-reads the transaction log when another session of the same
// user writes the shared cache file.
func (s *Session) watchCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	changes := s.cache.Watch()
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		for {
			select {
			case key := <-changes:
				if key == cache.KeyTransactions {
					s.History.Reload()
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close tears down the subscription, the publishers and the slice wiring.
// Safe to call after a failed Start.
func (s *Session) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil

	if s.statsPub != nil {
		s.statsPub.Stop()
	}
	if s.txPub != nil {
		s.txPub.Stop()
	}
	if s.mirror != nil {
		s.mirror.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.done.Wait()
	s.setPhase(PhaseUnauthenticated)
}

// StatsPublisher exposes the unified publisher for diagnostics.
func (s *Session) StatsPublisher() *Publisher {
	return s.statsPub
}
