package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalletDeduct(t *testing.T) {
	w := NewWallet()
	w.Add(10)

	assert.True(t, w.Deduct(3))
	assert.Equal(t, 7.0, w.Snapshot().PiBalance)

	// Over-deduct is rejected and leaves the balance alone
	assert.False(t, w.Deduct(8))
	assert.Equal(t, 7.0, w.Snapshot().PiBalance)

	assert.True(t, w.Deduct(7))
	assert.Equal(t, 0.0, w.Snapshot().PiBalance)
}

func TestWalletBalanceNeverNegative(t *testing.T) {
	w := NewWallet()

	type op struct {
		add    bool
		amount float64
	}
	ops := []op{
		{true, 5}, {false, 3}, {false, 3}, {true, 1},
		{false, 2.5}, {false, 0.5}, {false, 0.5}, {false, 10},
	}
	for _, o := range ops {
		if o.add {
			w.Add(o.amount)
		} else {
			before := w.Snapshot().PiBalance
			if !w.Deduct(o.amount) {
				assert.Equal(t, before, w.Snapshot().PiBalance)
			}
		}
		assert.GreaterOrEqual(t, w.Snapshot().PiBalance, 0.0)
	}
}

func TestWalletNegativeDeductRejected(t *testing.T) {
	w := NewWallet()
	w.Add(5)

	assert.False(t, w.Deduct(-1))
	assert.Equal(t, 5.0, w.Snapshot().PiBalance)
}

func TestWalletDefaults(t *testing.T) {
	w := NewWallet()
	snap := w.Snapshot()
	assert.Equal(t, 0.0, snap.PiBalance)
	assert.True(t, snap.TestnetLinked)
}
