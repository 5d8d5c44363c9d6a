// Package catalog owns the loaded page of the book collection: paginated,
// filterable, searchable, kept fresh by the change watcher. One Engine is
// the single source of truth for one viewer's accumulated page; it is
// constructed explicitly and torn down with Close.
package catalog

import (
	"sort"
	"sync"

	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/search"
	"github.com/irc-library/maktaba/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SubjectAll is the subject filter sentinel meaning no subject restriction.
const SubjectAll = "All"

var ErrClosed = errors.New("catalog: engine is closed")

type State int

const (
	StateIdle State = iota
	StateLoadingFirstPage
	StateLoadingMore
	StateReady
)

type Filters struct {
	Subject    string
	SearchTerm string
	Sort       model.SortKey
}

// Snapshot is what a caller renders: the accumulated page in display
// order plus the load state.
type Snapshot struct {
	Books   []*model.Book `json:"books"`
	HasMore bool          `json:"hasMore"`
	State   State         `json:"-"`
}

type Engine struct {
	store      *store.Store
	pageSize   int
	watchBatch int

	mu      sync.Mutex
	closed  bool
	filters Filters
	books   []*model.Book
	index   map[string]int // book id -> position in books
	cursor  *model.BookCursor
	hasMore bool
	state   State

	// sqlite paginates in byte order; display order for the a-z key uses
	// Urdu collation over the accumulated page.
	collator *collate.Collator

	watcher *watcher
}

func NewEngine(s *store.Store, pageSize, watchBatch int) *Engine {
	e := &Engine{
		store:      s,
		pageSize:   pageSize,
		watchBatch: watchBatch,
		index:      make(map[string]int),
		hasMore:    true,
		state:      StateIdle,
		filters:    Filters{Subject: SubjectAll, Sort: model.SortNewest},
		collator:   collate.New(language.Urdu),
	}
	e.watcher = newWatcher(e)
	return e
}

// SetFilters applies a filter or sort change. Any change resets the
// accumulated page and loads the first page fresh; an unchanged filter
// set is a no-op.
func (e *Engine) SetFilters(f Filters) (Snapshot, error) {
	if f.Sort == "" {
		f.Sort = model.SortNewest
	}
	if f.Subject == "" {
		f.Subject = SubjectAll
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	if f == e.filters && e.state != StateIdle {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, nil
	}
	e.filters = f
	e.mu.Unlock()

	return e.LoadPage(true)
}

// Refresh reloads the first page even when the filters are unchanged, for
// viewers who explicitly ask for a fresh view.
func (e *Engine) Refresh(f Filters) (Snapshot, error) {
	if f.Sort == "" {
		f.Sort = model.SortNewest
	}
	if f.Subject == "" {
		f.Subject = SubjectAll
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	e.filters = f
	e.mu.Unlock()

	return e.LoadPage(true)
}

// LoadPage loads the first page (resetting the accumulated list and
// cursor) or appends the next page under the current filters.
func (e *Engine) LoadPage(first bool) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Snapshot{}, ErrClosed
	}

	if first {
		e.books = nil
		e.index = make(map[string]int)
		e.cursor = nil
		e.hasMore = true
		e.state = StateLoadingFirstPage
	} else {
		if !e.hasMore {
			e.state = StateReady
			return e.snapshotLocked(), nil
		}
		e.state = StateLoadingMore
	}

	find := e.findLocked()
	page, err := e.store.ListBooks(find)
	if err != nil {
		// A failed query clears the view; the caller re-triggers manually.
		e.books = nil
		e.index = make(map[string]int)
		e.cursor = nil
		e.hasMore = false
		e.state = StateReady
		log.Error("Failed to load catalog page", zap.Error(err))
		return e.snapshotLocked(), errors.Wrap(err, "failed to load catalog page")
	}

	for _, book := range page {
		// A later page must never reintroduce an item: live updates can
		// race with pagination.
		if _, dup := e.index[book.ID]; dup {
			continue
		}
		e.index[book.ID] = len(e.books)
		e.books = append(e.books, book)
	}
	if len(page) > 0 {
		last := page[len(page)-1]
		e.cursor = &model.BookCursor{
			ID:        last.ID,
			BookName:  last.BookName,
			CreatedTs: last.CreatedTs,
		}
	}
	e.hasMore = len(page) == e.pageSize
	if e.filters.Sort == model.SortAlphabetical {
		e.resortLocked()
	}
	e.state = StateReady

	e.watcher.update(e.idsLocked())
	return e.snapshotLocked(), nil
}

// Snapshot returns the current accumulated page without touching the store.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Patch replaces a loaded book's fields in place after a local edit,
// keeping its position and the pagination cursor untouched.
func (e *Engine) Patch(book *model.Book) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if pos, ok := e.index[book.ID]; ok {
		e.books[pos] = book
	}
}

// Remove drops a deleted book from the loaded page.
func (e *Engine) Remove(bookID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	pos, ok := e.index[bookID]
	if !ok {
		return
	}
	e.books = append(e.books[:pos], e.books[pos+1:]...)
	delete(e.index, bookID)
	for i := pos; i < len(e.books); i++ {
		e.index[e.books[i].ID] = i
	}
	e.watcher.update(e.idsLocked())
}

// Close tears the engine down and cancels every change subscription.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.watcher.close()
}

// patchStatus merges an externally-originated status change into the
// loaded page: status and timestamp only, position untouched.
func (e *Engine) patchStatus(event store.StatusEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	pos, ok := e.index[event.BookID]
	if !ok {
		return
	}
	patched := *e.books[pos]
	patched.Status = event.Status
	updatedTs := event.UpdatedTs
	patched.UpdatedTs = &updatedTs
	e.books[pos] = &patched
}

func (e *Engine) findLocked() *model.FindBook {
	limit := e.pageSize
	find := &model.FindBook{
		SortKey: e.filters.Sort,
		After:   e.cursor,
		Limit:   &limit,
	}
	if e.filters.Subject != "" && e.filters.Subject != SubjectAll {
		subject := e.filters.Subject
		find.Subject = &subject
	}
	if term := search.NormalizeTerm(e.filters.SearchTerm); term != "" {
		find.SearchTerm = &term
	}
	return find
}

func (e *Engine) snapshotLocked() Snapshot {
	books := make([]*model.Book, len(e.books))
	copy(books, e.books)
	return Snapshot{
		Books:   books,
		HasMore: e.hasMore,
		State:   e.state,
	}
}

func (e *Engine) idsLocked() []string {
	ids := make([]string, len(e.books))
	for i, book := range e.books {
		ids[i] = book.ID
	}
	return ids
}

func (e *Engine) resortLocked() {
	sort.SliceStable(e.books, func(i, j int) bool {
		if c := e.collator.CompareString(e.books[i].BookName, e.books[j].BookName); c != 0 {
			return c < 0
		}
		return e.books[i].ID < e.books[j].ID
	})
	for i, book := range e.books {
		e.index[book.ID] = i
	}
}
