package store

import (
	"database/sql"
	"sync"
)

type Store struct {
	db *sql.DB
	// serializes multi-statement writes; sqlite allows one writer anyway
	dbLock sync.Mutex

	BookCache   sync.Map // map[string]*model.Book
	ReaderCache sync.Map // map[string]*model.Reader
	metaCache   sync.Map // single entry keyed by model.LibraryMetaID

	notifier *Notifier
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		notifier: NewNotifier(),
	}
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) Close() {
	s.notifier.CloseAll()
}
