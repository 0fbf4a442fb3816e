// Package state holds the in-memory reactive slices. Mutations are
// synchronous and instantly visible; observers (the change publishers and the
// UI) are notified after every change. Slices never talk to the network.
package state

import "sync"

// notifier is the change fan-out every slice embeds. Callbacks run
// synchronously on the mutating goroutine, after the slice lock is released,
// so an observer can read a consistent snapshot.
type notifier struct {
	subMu sync.Mutex
	seq   int
	subs  map[int]func()
}

// Subscribe registers fn to run after every change and returns its
// unsubscribe function.
func (n *notifier) Subscribe(fn func()) func() {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	n.seq++
	id := n.seq
	n.subs[id] = fn
	return func() {
		n.subMu.Lock()
		defer n.subMu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify() {
	n.subMu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
