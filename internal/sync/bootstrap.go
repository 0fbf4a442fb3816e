// Package sync replicates the reactive slices to the remote per-user record:
// bootstrap/backfill on login, equality-gated publishers outbound, an
// equality-gated mirror inbound.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Amaan007S/piq-sync/internal/models"
	"github.com/Amaan007S/piq-sync/internal/store"
)

// Phase tracks the account lifecycle across a login.
type Phase string

const (
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseAuthenticating  Phase = "authenticating"
	PhaseCreated         Phase = "created"
	PhaseBackfilled      Phase = "backfilled"
	PhaseReady           Phase = "ready"
)

// Bootstrap runs once per successful authentication, before any publisher is
// allowed to write. A missing record is created with full defaults via
// create-if-absent; an existing record gets a minimal patch of only its
// missing fields, never touching populated ones, so schema additions reach
// returning users without resetting progress. Returns the effective record.
func Bootstrap(ctx context.Context, st store.Store, username string) (*models.UserRecord, Phase, error) {
	rec, err := st.Get(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		defaults := models.DefaultRecord(username)
		err = st.Create(ctx, username, defaults)
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost the create race against an earlier session; fall back
			// to backfilling whatever that session wrote.
			if rec, err = st.Get(ctx, username); err != nil {
				return nil, PhaseAuthenticating, fmt.Errorf("bootstrap re-read: %w", err)
			}
			return backfill(ctx, st, username, rec)
		}
		if err != nil {
			return nil, PhaseAuthenticating, fmt.Errorf("bootstrap create: %w", err)
		}
		zap.L().Info("created user record", zap.String("username", username))
		return defaults, PhaseCreated, nil
	}
	if err != nil {
		return nil, PhaseAuthenticating, fmt.Errorf("bootstrap read: %w", err)
	}

	return backfill(ctx, st, username, rec)
}

func backfill(ctx context.Context, st store.Store, username string, rec *models.UserRecord) (*models.UserRecord, Phase, error) {
	patch := missingFieldPatch(rec, username)
	if len(patch) == 0 {
		return rec, PhaseBackfilled, nil
	}

	if err := st.Merge(ctx, username, patch); err != nil {
		return nil, PhaseAuthenticating, fmt.Errorf("bootstrap backfill: %w", err)
	}
	zap.L().Info("backfilled missing record fields",
		zap.String("username", username), zap.Int("fields", len(patch)))

	applyPatch(rec, username)
	return rec, PhaseBackfilled, nil
}

// missingFieldPatch computes the minimal merge payload for fields the stored
// record lacks. Populated fields never appear in the patch.
func missingFieldPatch(rec *models.UserRecord, username string) map[string]any {
	patch := map[string]any{}

	switch {
	case rec.Identity == nil:
		patch["identity"] = models.Identity{
			Username:  username,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
	case rec.Identity.Username == "":
		patch["identity"] = map[string]any{"username": username}
	}

	switch {
	case rec.Profile == nil:
		patch["profile"] = models.DefaultProfile(username)
	default:
		nested := map[string]any{}
		if rec.Profile.AvatarURL == "" {
			nested["avatarUrl"] = models.AvatarURL(username)
		}
		if rec.Profile.Rank == "" {
			nested["rank"] = models.DefaultRank
		}
		if len(nested) > 0 {
			patch["profile"] = nested
		}
	}

	if rec.GameStats == nil {
		patch["gameStats"] = models.DefaultGameStats()
	}
	if rec.PowerUps == nil {
		patch["powerUps"] = models.DefaultPowerUps()
	}
	if rec.Wallet == nil {
		patch["wallet"] = models.DefaultWallet()
	}
	if rec.Transactions == nil {
		patch["transactions"] = []models.Transaction{}
	}
	if rec.Achievements == nil {
		patch["achievements"] = []string{}
	}
	if rec.Settings == nil {
		patch["settings"] = models.DefaultSettings()
	}

	return patch
}

// applyPatch fills the same defaults into the in-memory record so callers
// see the post-backfill shape without a second read.
func applyPatch(rec *models.UserRecord, username string) {
	if rec.Identity == nil {
		rec.Identity = &models.Identity{
			Username:  username,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
	} else if rec.Identity.Username == "" {
		rec.Identity.Username = username
	}
	if rec.Profile == nil {
		rec.Profile = models.DefaultProfile(username)
	} else {
		if rec.Profile.AvatarURL == "" {
			rec.Profile.AvatarURL = models.AvatarURL(username)
		}
		if rec.Profile.Rank == "" {
			rec.Profile.Rank = models.DefaultRank
		}
	}
	if rec.GameStats == nil {
		rec.GameStats = models.DefaultGameStats()
	}
	if rec.PowerUps == nil {
		rec.PowerUps = models.DefaultPowerUps()
	}
	if rec.Wallet == nil {
		rec.Wallet = models.DefaultWallet()
	}
	if rec.Transactions == nil {
		rec.Transactions = []models.Transaction{}
	}
	if rec.Achievements == nil {
		rec.Achievements = []string{}
	}
	if rec.Settings == nil {
		rec.Settings = models.DefaultSettings()
	}
}
