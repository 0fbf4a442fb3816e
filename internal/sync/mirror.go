package sync

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"go.uber.org/zap"

	"github.com/Amaan007S/piq-sync/internal/models"
	"github.com/Amaan007S/piq-sync/internal/state"
	"github.com/Amaan007S/piq-sync/internal/store"
)

// Mirror reconciles remote record pushes into the local slices. Per slice:
// an absent sub-document is a no-op (local state is never clobbered with
// emptiness), a present one is merged with the slice's default shape and
// written back only when it differs from the current local value. That
// equality gate, not in-flight tracking, is what stops a write from
// echoing through the subscription into another write.
//
// The transaction list reconciles by whole-list replacement. That is only
// sound under the single-active-session assumption; concurrent appends from
// two devices would be lost, not merged.
type Mirror struct {
	st       store.Store
	username string

	streak   *state.Streak
	powerUps *state.PowerUps
	wallet   *state.Wallet
	history  *state.History

	unsubscribe func()
}

func NewMirror(st store.Store, username string, streak *state.Streak, powerUps *state.PowerUps, wallet *state.Wallet, history *state.History) *Mirror {
	return &Mirror{
		st:       st,
		username: username,
		streak:   streak,
		powerUps: powerUps,
		wallet:   wallet,
		history:  history,
	}
}

// Start subscribes for pushes, then applies the current remote record once.
// Subscribing first closes the window where a write could land unseen; the
// initial apply is what seeds a fresh device with the user's progress.
func (m *Mirror) Start(ctx context.Context) error {
	unsubscribe, err := m.st.Subscribe(ctx, m.username, m.Apply, func(err error) {
		// Local state stays authoritative; stale but available.
		zap.L().Warn("record subscription error", zap.Error(err))
	})
	if err != nil {
		return err
	}
	m.unsubscribe = unsubscribe

	rec, err := m.st.Get(ctx, m.username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		m.Stop()
		return err
	}
	if rec != nil {
		m.Apply(rec)
	}
	return nil
}

// Stop tears the subscription down. Must run on logout so no orphaned
// subscription survives into a session for a different user.
func (m *Mirror) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Apply reconciles one pushed record into the slices.
func (m *Mirror) Apply(rec *models.UserRecord) {
	if models.ValidGameStats(rec.GameStats) {
		remote := *rec.GameStats
		remote.Clamp()
		if remote != m.streak.Snapshot() {
			m.streak.Restore(remote)
		}
	}

	if rec.PowerUps != nil {
		merged := models.MergePowerUpDefaults(rec.PowerUps)
		if !reflect.DeepEqual(merged, m.powerUps.Snapshot()) {
			m.powerUps.Restore(merged)
		}
	}

	if models.ValidWallet(rec.Wallet) {
		if *rec.Wallet != m.wallet.Snapshot() {
			m.wallet.Restore(*rec.Wallet)
		}
	}

	if rec.Transactions != nil {
		if !transactionsEqual(rec.Transactions, m.history.Snapshot()) {
			m.history.Restore(rec.Transactions)
		}
	}
}

func transactionsEqual(a, b []models.Transaction) bool {
	if len(a) != len(b) {
		return false
	}
	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)
	return string(aJSON) == string(bJSON)
}
