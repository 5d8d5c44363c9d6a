package catalog

import (
	"sync"

	"github.com/irc-library/maktaba/store"
)

// watcher keeps the engine's loaded page in sync with status changes made
// by other actors. Subscriptions are scoped to the materialized id set,
// split into batches no larger than the store's id-filter capacity, and
// replaced whenever that set changes.
type watcher struct {
	engine *Engine

	mu   sync.Mutex
	subs []*store.Subscription
}

func newWatcher(e *Engine) *watcher {
	return &watcher{engine: e}
}

// update re-subscribes for the given id set. Safe to call with the
// engine's lock held: consumers deliver through engine.patchStatus, which
// takes the lock itself, and update never waits for them.
func (w *watcher) update(ids []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, sub := range w.subs {
		sub.Cancel()
	}
	w.subs = nil

	batch := w.engine.watchBatch
	if batch <= 0 {
		batch = 30
	}
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}
		sub := w.engine.store.WatchStatus(ids[start:end])
		w.subs = append(w.subs, sub)
		go w.consume(sub)
	}
}

func (w *watcher) consume(sub *store.Subscription) {
	for event := range sub.C {
		w.engine.patchStatus(event)
	}
}

func (w *watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sub := range w.subs {
		sub.Cancel()
	}
	w.subs = nil
}
