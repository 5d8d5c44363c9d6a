package store

import (
	"sync"

	"github.com/irc-library/maktaba/log"
	"go.uber.org/zap"
)

// StatusEvent is published whenever a book's lending status changes,
// regardless of which caller changed it.
type StatusEvent struct {
	BookID    string
	Status    string
	UpdatedTs int64
}

// Subscription delivers status events for a fixed set of book ids.
// Cancel must be called on teardown; it is safe to call twice.
type Subscription struct {
	C chan StatusEvent

	ids      map[string]struct{}
	notifier *Notifier
	once     sync.Once
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.notifier.remove(s)
		close(s.C)
	})
}

// Notifier fans status events out to the subscriptions that watch the
// affected book id. Delivery is best-effort: a subscriber that stops
// draining loses events rather than blocking writers.
type Notifier struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[*Subscription]struct{})}
}

func (n *Notifier) Subscribe(ids []string) *Subscription {
	sub := &Subscription{
		C:        make(chan StatusEvent, 64),
		ids:      make(map[string]struct{}, len(ids)),
		notifier: n,
	}
	for _, id := range ids {
		sub.ids[id] = struct{}{}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(sub.C)
		return sub
	}
	n.subs[sub] = struct{}{}
	return sub
}

func (n *Notifier) remove(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, sub)
}

func (n *Notifier) publish(event StatusEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	for sub := range n.subs {
		if _, ok := sub.ids[event.BookID]; !ok {
			continue
		}
		select {
		case sub.C <- event:
		default:
			log.Warn("Dropping status event, subscriber not draining",
				zap.String("book_id", event.BookID))
		}
	}
}

func (n *Notifier) CloseAll() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	subs := n.subs
	n.subs = make(map[*Subscription]struct{})
	n.mu.Unlock()

	// Cancel may race in from subscribers; the once keeps the close
	// single-shot. The lock is released first: Cancel holds the once
	// while it takes the lock.
	for sub := range subs {
		sub := sub
		sub.once.Do(func() { close(sub.C) })
	}
}

// WatchStatus subscribes to status changes for the given book ids.
func (s *Store) WatchStatus(ids []string) *Subscription {
	return s.notifier.Subscribe(ids)
}
