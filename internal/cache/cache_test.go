package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dbSeq int

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	dbSeq++
	c, err := Open(fmt.Sprintf("file:cache%d?mode=memory&cache=shared", dbSeq))
	require.NoError(t, err)
	return c
}

func TestCacheGetMissing(t *testing.T) {
	c := openTestCache(t)

	_, ok, err := c.Get("nope")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCachePutGet(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Put(KeyOwnedPowerUps, `{"Extra Time":1}`))

	value, ok, err := c.Get(KeyOwnedPowerUps)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"Extra Time":1}`, value)

	// Upsert overwrites
	require.NoError(t, c.Put(KeyOwnedPowerUps, `{"Extra Time":2}`))
	value, _, err = c.Get(KeyOwnedPowerUps)
	require.NoError(t, err)
	assert.Equal(t, `{"Extra Time":2}`, value)
}

func TestCacheNotifyReachesWatchers(t *testing.T) {
	c := openTestCache(t)

	ch := c.Watch()
	c.Notify(KeyTransactions)

	select {
	case key := <-ch:
		assert.Equal(t, KeyTransactions, key)
	default:
		t.Fatal("expected a notification")
	}
}

func TestCacheNotifySkipsBackloggedWatcher(t *testing.T) {
	c := openTestCache(t)

	c.Watch() // never drained
	for i := 0; i < 20; i++ {
		c.Notify(KeyTransactions) // must not block
	}
}
