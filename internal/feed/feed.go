// Package feed notifies watchers that a group's expenses or membership changed.
//
// Notifications carry no payload: a watcher reloads the full snapshot when woken.
// Each subscriber has a one-slot buffer, so a burst of changes wakes it once and a
// slow watcher never blocks publishers.
package feed

import "sync"

// Notifier fans out change notifications per group.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers interest in groupID. The returned cancel func must be called
// once the caller stops reading; it is safe to call more than once.
func (n *Notifier) Subscribe(groupID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	if n.subs[groupID] == nil {
		n.subs[groupID] = make(map[chan struct{}]struct{})
	}
	n.subs[groupID][ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs[groupID], ch)
			if len(n.subs[groupID]) == 0 {
				delete(n.subs, groupID)
			}
		})
	}
	return ch, cancel
}

// Publish wakes every subscriber of groupID without blocking.
func (n *Notifier) Publish(groupID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs[groupID] {
		select {
		case ch <- struct{}{}:
		default:
			// already pending
		}
	}
}

// Subscribers returns the number of active subscriptions for groupID.
func (n *Notifier) Subscribers(groupID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[groupID])
}
