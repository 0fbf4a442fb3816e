package state

import (
	"sync"

	"github.com/Amaan007S/piq-sync/internal/models"
)

// Wallet holds the Pi balance. Deduct is the one slice operation with an
// explicit failure signal; every other mutation is unconditional.
type Wallet struct {
	notifier

	mu            sync.Mutex
	balance       float64
	testnetLinked bool
}

func NewWallet() *Wallet {
	return &Wallet{testnetLinked: true}
}

// Add credits amount to the balance.
func (w *Wallet) Add(amount float64) {
	w.mu.Lock()
	w.balance += amount
	w.mu.Unlock()
	w.notify()
}

// Deduct debits amount if the balance covers it and reports whether it did.
// On a false return the balance is unchanged. Callers gate purchases and
// payments on the result.
func (w *Wallet) Deduct(amount float64) bool {
	w.mu.Lock()
	if amount < 0 || w.balance < amount {
		w.mu.Unlock()
		return false
	}
	w.balance -= amount
	w.mu.Unlock()
	w.notify()
	return true
}

// SetTestnetLinked records whether the testnet wallet is linked.
func (w *Wallet) SetTestnetLinked(linked bool) {
	w.mu.Lock()
	changed := w.testnetLinked != linked
	w.testnetLinked = linked
	w.mu.Unlock()
	if changed {
		w.notify()
	}
}

// Snapshot returns a copy of the wallet state.
func (w *Wallet) Snapshot() models.Wallet {
	w.mu.Lock()
	defer w.mu.Unlock()
	return models.Wallet{PiBalance: w.balance, TestnetLinked: w.testnetLinked}
}

// Restore overwrites the slice with an externally reconciled value.
func (w *Wallet) Restore(wallet models.Wallet) {
	w.mu.Lock()
	w.balance = wallet.PiBalance
	w.testnetLinked = wallet.TestnetLinked
	w.mu.Unlock()
	w.notify()
}
