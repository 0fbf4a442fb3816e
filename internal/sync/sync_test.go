package sync

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amaan007S/piq-sync/internal/models"
	"github.com/Amaan007S/piq-sync/internal/store"
)

// fakeStore is an in-memory store.Store with the same push-after-write
// behavior as the Redis implementation, plus write-failure injection and
// call counters.
type fakeStore struct {
	mu         sync.Mutex
	docs       map[string]map[string]any
	subs       map[int]func(*models.UserRecord)
	subSeq     int
	creates    int
	merges     int
	failMerges bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs: map[string]map[string]any{},
		subs: map[int]func(*models.UserRecord){},
	}
}

func toDoc(v any) map[string]any {
	data, _ := json.Marshal(v)
	var doc map[string]any
	_ = json.Unmarshal(data, &doc)
	return doc
}

func (f *fakeStore) record(username string) *models.UserRecord {
	doc, ok := f.docs[username]
	if !ok {
		return nil
	}
	data, _ := json.Marshal(doc)
	var rec models.UserRecord
	_ = json.Unmarshal(data, &rec)
	return &rec
}

func (f *fakeStore) Get(ctx context.Context, username string) (*models.UserRecord, error) {
	f.mu.Lock()
	rec := f.record(username)
	f.mu.Unlock()
	if rec == nil {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) Create(ctx context.Context, username string, rec *models.UserRecord) error {
	f.mu.Lock()
	f.creates++
	if _, ok := f.docs[username]; ok {
		f.mu.Unlock()
		return store.ErrAlreadyExists
	}
	f.docs[username] = toDoc(rec)
	f.mu.Unlock()

	f.push(username)
	return nil
}

func (f *fakeStore) Merge(ctx context.Context, username string, patch map[string]any) error {
	f.mu.Lock()
	f.merges++
	if f.failMerges {
		f.mu.Unlock()
		return errors.New("injected write failure")
	}
	doc, ok := f.docs[username]
	if !ok {
		f.mu.Unlock()
		return store.ErrNotFound
	}
	f.docs[username] = store.DeepMerge(doc, toDoc(patch))
	f.mu.Unlock()

	f.push(username)
	return nil
}

func (f *fakeStore) Subscribe(ctx context.Context, username string, onChange func(*models.UserRecord), onError func(error)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subSeq++
	id := f.subSeq
	f.subs[id] = onChange
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}, nil
}

// push delivers the current record to every subscriber, the way the remote
// store echoes a write back to its writer.
func (f *fakeStore) push(username string) {
	f.mu.Lock()
	rec := f.record(username)
	fns := make([]func(*models.UserRecord), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	if rec == nil {
		return
	}
	for _, fn := range fns {
		fn(rec)
	}
}

func (f *fakeStore) setFailMerges(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failMerges = fail
}

func (f *fakeStore) mergeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.merges
}

func TestBootstrapCreatesFreshUser(t *testing.T) {
	fs := newFakeStore()
	ctx := context.Background()

	rec, phase, err := Bootstrap(ctx, fs, "alice")
	require.NoError(t, err)
	assert.Equal(t, PhaseCreated, phase)

	stored, err := fs.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Identity.Username)
	assert.Equal(t, models.GameStats{}, *stored.GameStats)
	assert.Equal(t, map[string]int{
		models.PowerUpExtraTime:    0,
		models.PowerUpSkipQuestion: 0,
		models.PowerUpSecondChance: 0,
	}, stored.PowerUps)
	assert.Equal(t, 0.0, stored.Wallet.PiBalance)
	assert.True(t, stored.Wallet.TestnetLinked)
	assert.Empty(t, stored.Transactions)
	assert.Equal(t, "Rookie", rec.Profile.Rank)
}

func TestBootstrapIdempotentAfterCreate(t *testing.T) {
	fs := newFakeStore()
	ctx := context.Background()

	_, phase, err := Bootstrap(ctx, fs, "alice")
	require.NoError(t, err)
	require.Equal(t, PhaseCreated, phase)

	// The created document stores every field, empty lists included
	doc := fs.docs["alice"]
	for _, key := range []string{
		"identity", "profile", "gameStats", "powerUps",
		"wallet", "transactions", "achievements", "settings",
	} {
		assert.Contains(t, doc, key)
	}

	// So the next login finds nothing missing and writes nothing
	_, phase, err = Bootstrap(ctx, fs, "alice")
	require.NoError(t, err)
	assert.Equal(t, PhaseBackfilled, phase)
	assert.Equal(t, 0, fs.mergeCount())
}

func TestBootstrapBackfillFillsCreatedAt(t *testing.T) {
	fs := newFakeStore()
	ctx := context.Background()

	fs.docs["erin"] = map[string]any{
		"gameStats": map[string]any{"score": 1.0},
	}

	_, _, err := Bootstrap(ctx, fs, "erin")
	require.NoError(t, err)

	stored, err := fs.Get(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, "erin", stored.Identity.Username)
	assert.NotEmpty(t, stored.Identity.CreatedAt)
}

func TestBootstrapBackfillNeverOverwrites(t *testing.T) {
	fs := newFakeStore()
	ctx := context.Background()

	// A record with only gameStats.score populated
	fs.docs["bob"] = map[string]any{
		"gameStats": map[string]any{"score": 42.0},
	}

	rec, phase, err := Bootstrap(ctx, fs, "bob")
	require.NoError(t, err)
	assert.Equal(t, PhaseBackfilled, phase)

	stored, err := fs.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 42, stored.GameStats.Score)
	assert.Equal(t, "bob", stored.Identity.Username)
	require.NotNil(t, stored.Wallet)
	assert.True(t, stored.Wallet.TestnetLinked)
	require.NotNil(t, stored.PowerUps)
	assert.NotNil(t, stored.Settings)

	// The returned record reflects the backfilled shape too
	assert.Equal(t, 42, rec.GameStats.Score)
	assert.Equal(t, models.AvatarURL("bob"), rec.Profile.AvatarURL)
}

func TestBootstrapIdempotent(t *testing.T) {
	fs := newFakeStore()
	ctx := context.Background()

	fs.docs["carol"] = map[string]any{
		"gameStats": map[string]any{"score": 7.0},
	}

	_, _, err := Bootstrap(ctx, fs, "carol")
	require.NoError(t, err)
	mergesAfterFirst := fs.mergeCount()
	assert.Equal(t, 1, mergesAfterFirst)

	// A second pass finds nothing missing and issues no writes
	_, phase, err := Bootstrap(ctx, fs, "carol")
	require.NoError(t, err)
	assert.Equal(t, PhaseBackfilled, phase)
	assert.Equal(t, mergesAfterFirst, fs.mergeCount())
}

func TestBootstrapBackfillPatchesPartialProfile(t *testing.T) {
	fs := newFakeStore()
	ctx := context.Background()

	fs.docs["dave"] = toDoc(models.DefaultRecord("dave"))
	doc := fs.docs["dave"]
	profile := doc["profile"].(map[string]any)
	profile["rank"] = "Master"
	delete(profile, "avatarUrl")

	_, _, err := Bootstrap(ctx, fs, "dave")
	require.NoError(t, err)

	stored, err := fs.Get(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, "Master", stored.Profile.Rank)
	assert.Equal(t, models.AvatarURL("dave"), stored.Profile.AvatarURL)
}
