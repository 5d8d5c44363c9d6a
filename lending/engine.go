// Package lending owns the per-book status field and its legal
// transitions. A book is either on the shelf (the "library" sentinel) or
// borrowed, in which case the status holds the borrower's name. The
// engine validates the actor, performs the status write, and keeps the
// open-loan log consistent with the new status.
package lending

import (
	"database/sql"
	"strings"
	"sync"

	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrUnauthenticated = errors.New("lending: actor is not signed in")
	ErrNotAllowed      = errors.New("lending: actor may not perform this transition")
	ErrUpdateInFlight  = errors.New("lending: another update for this book is in flight")
	ErrBookNotFound    = errors.New("lending: book not found")
	ErrEmptyStatus     = errors.New("lending: status must not be empty")
)

type Engine struct {
	store *store.Store

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{
		store:    s,
		inFlight: make(map[string]struct{}),
	}
}

// UpdatingBook reports whether an update for the given book id is in
// flight, so callers can disable further actions for that book.
func (e *Engine) UpdatingBook(bookID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, busy := e.inFlight[bookID]
	return busy
}

// UpdateStatus runs one lending transition. Updates are serialized per
// book id: a second request for a busy id fails with ErrUpdateInFlight
// while other ids proceed. The status write is authoritative; loan-log
// maintenance is best-effort and never rolls the status back.
func (e *Engine) UpdateStatus(actor model.Identity, bookID, newStatus string) (*model.Book, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	newStatus = strings.TrimSpace(newStatus)
	if newStatus == "" {
		return nil, ErrEmptyStatus
	}

	if !e.acquire(bookID) {
		return nil, ErrUpdateInFlight
	}
	defer e.release(bookID)

	book, err := e.store.GetBook(&model.FindBook{ID: &bookID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load book")
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	if newStatus == book.Status {
		// No transition, no log entry.
		return book, nil
	}

	if err := authorize(actor, book.Status, newStatus); err != nil {
		return nil, err
	}

	updated, err := e.store.UpdateBookStatus(bookID, newStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		// Status unchanged, no log side effect.
		return nil, errors.Wrap(err, "failed to update status")
	}

	e.applyLogSideEffect(updated, newStatus)
	return updated, nil
}

// authorize enforces the transition rules for the actor. The checks run
// here, not in the handlers, so the store never sees an illegal
// transition regardless of what the client sends.
func authorize(actor model.Identity, current, next string) error {
	if actor.IsLibrarian() {
		// Librarian may borrow to any reader, reassign, and return on
		// anyone's behalf.
		return nil
	}

	if next == model.StatusShelf {
		// Returning: only the current holder may shelve the book.
		if current == actor.Name {
			return nil
		}
		return ErrNotAllowed
	}

	// Borrowing or taking over: a reader may only assign the book to
	// themselves. Takeover of a borrowed book is allowed; the digital
	// record may lag the physical one.
	if next == actor.Name {
		return nil
	}
	return ErrNotAllowed
}

func (e *Engine) applyLogSideEffect(book *model.Book, newStatus string) {
	if newStatus == model.StatusShelf {
		// Return clears the open-loan record for the book.
		if err := e.store.RemoveLoanEntries(book.ID); err != nil {
			log.Warn("Failed to clear loan entries after return",
				zap.String("book_id", book.ID), zap.Error(err))
		}
		return
	}

	// Borrow or transfer: append one open entry. A transfer leaves the
	// previous borrower's entry in place; entries only clear on return.
	if _, err := e.store.AddLoanEntry(&model.LoanEntry{
		BookID:     book.ID,
		ReaderName: newStatus,
	}); err != nil {
		log.Warn("Failed to append loan entry",
			zap.String("book_id", book.ID),
			zap.String("reader", newStatus),
			zap.Error(err))
	}
}

func (e *Engine) acquire(bookID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[bookID]; busy {
		return false
	}
	e.inFlight[bookID] = struct{}{}
	return true
}

func (e *Engine) release(bookID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, bookID)
}
