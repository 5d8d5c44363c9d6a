package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (s *Store) GetBook(find *model.FindBook) (*model.Book, error) {
	if find.ID != nil {
		if cache, ok := s.BookCache.Load(*find.ID); ok {
			return cache.(*model.Book), nil
		}
	}

	list, err := s.ListBooks(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	book := list[0]
	s.BookCache.Store(book.ID, book)
	return book, nil
}

func (s *Store) ListBooks(find *model.FindBook) ([]*model.Book, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Subject; v != nil {
		where, args = append(where, "subject = ?"), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "status = ?"), append(args, *v)
	}
	if v := find.SearchTerm; v != nil && *v != "" {
		// Exact token membership against the derived prefix set; the
		// indexer makes this behave as prefix search.
		where = append(where, "EXISTS (SELECT 1 FROM json_each(book.search_keywords) WHERE json_each.value = ?)")
		args = append(args, *v)
	}

	// Pagination relies on the byte order of book_name being stable; the
	// catalog engine applies Urdu collation to the accumulated page.
	orderBy := "created_ts DESC, id DESC"
	if find.SortKey == model.SortAlphabetical {
		orderBy = "book_name ASC, id ASC"
	}

	if c := find.After; c != nil {
		if find.SortKey == model.SortAlphabetical {
			where = append(where, "(book_name > ? OR (book_name = ? AND id > ?))")
			args = append(args, c.BookName, c.BookName, c.ID)
		} else {
			where = append(where, "(created_ts < ? OR (created_ts = ? AND id < ?))")
			args = append(args, c.CreatedTs, c.CreatedTs, c.ID)
		}
	}

	query := `
        SELECT
            id,
            book_name,
            author,
            subject,
            publisher,
            library_code,
            book_link,
            title_page,
            status,
            search_keywords,
            created_ts,
            updated_ts
        FROM book
        WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + orderBy
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query books", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows.Scan)
		if err != nil {
			log.Error("Failed to scan book", zap.Error(err))
			return nil, err
		}
		list = append(list, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) AddBook(book *model.Book) (*model.Book, error) {
	if book.ID == "" {
		book.ID = util.GenUUID()
	}
	if book.Status == "" {
		book.Status = model.StatusShelf
	}
	keywords, err := json.Marshal(book.SearchKeywords)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search keywords")
	}

	stmt := `
        INSERT INTO book (
            id,
            book_name,
            author,
            subject,
            publisher,
            library_code,
            book_link,
            title_page,
            status,
            search_keywords,
            created_ts
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?)
        RETURNING id, book_name, author, subject, publisher, library_code,
                  book_link, title_page, status, search_keywords, created_ts, updated_ts`
	args := []any{
		book.ID,
		book.BookName,
		book.Author,
		book.Subject,
		book.Publisher,
		book.LibraryCode,
		book.BookLink,
		book.TitlePage,
		book.Status,
		string(keywords),
		time.Now().Unix(),
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", stmt, args))

	newBook, err := scanBookRow(tx.QueryRow(stmt, args...))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.BookCache.Store(newBook.ID, newBook)
	return newBook, nil
}

func (s *Store) UpdateBook(update *model.UpdateBook) (*model.Book, error) {
	set, args := []string{}, []any{}

	if v := update.BookName; v != nil {
		set, args = append(set, "book_name = ?"), append(args, *v)
	}
	if v := update.Author; v != nil {
		set, args = append(set, "author = ?"), append(args, *v)
	}
	if v := update.Subject; v != nil {
		set, args = append(set, "subject = ?"), append(args, *v)
	}
	if v := update.Publisher; v != nil {
		set, args = append(set, "publisher = ?"), append(args, *v)
	}
	if v := update.LibraryCode; v != nil {
		set, args = append(set, "library_code = ?"), append(args, *v)
	}
	if v := update.BookLink; v != nil {
		set, args = append(set, "book_link = ?"), append(args, *v)
	}
	if v := update.TitlePage; v != nil {
		set, args = append(set, "title_page = ?"), append(args, *v)
	}
	if v := update.SearchKeywords; v != nil {
		keywords, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal search keywords")
		}
		set, args = append(set, "search_keywords = ?"), append(args, string(keywords))
	}
	if len(set) == 0 {
		return s.GetBook(&model.FindBook{ID: &update.ID})
	}
	set, args = append(set, "updated_ts = ?"), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `
        UPDATE book SET ` + strings.Join(set, ", ") + ` WHERE id = ?
        RETURNING id, book_name, author, subject, publisher, library_code,
                  book_link, title_page, status, search_keywords, created_ts, updated_ts`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", stmt, args))

	book, err := scanBookRow(tx.QueryRow(stmt, args...))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.BookCache.Store(book.ID, book)
	return book, nil
}

// UpdateBookStatus performs the status write of a lending transition and
// publishes the change to watchers. Permission checks belong to the
// lending engine, not here.
func (s *Store) UpdateBookStatus(bookID, status string) (*model.Book, error) {
	stmt := `
        UPDATE book SET status = ?, updated_ts = ? WHERE id = ?
        RETURNING id, book_name, author, subject, publisher, library_code,
                  book_link, title_page, status, search_keywords, created_ts, updated_ts`
	args := []any{status, time.Now().Unix(), bookID}

	s.dbLock.Lock()
	tx, err := s.db.Begin()
	if err != nil {
		s.dbLock.Unlock()
		return nil, err
	}

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", stmt, args))

	book, err := scanBookRow(tx.QueryRow(stmt, args...))
	if err != nil {
		tx.Rollback()
		s.dbLock.Unlock()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		s.dbLock.Unlock()
		return nil, err
	}
	s.dbLock.Unlock()

	s.BookCache.Store(book.ID, book)

	var updatedTs int64
	if book.UpdatedTs != nil {
		updatedTs = *book.UpdatedTs
	}
	s.notifier.publish(StatusEvent{
		BookID:    book.ID,
		Status:    book.Status,
		UpdatedTs: updatedTs,
	})
	return book, nil
}

// RemoveBook deletes the book and its loan-log entries in one transaction.
func (s *Store) RemoveBook(bookID string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM book_log WHERE book_id = ?`, bookID); err != nil {
		return errors.Wrap(err, "failed to delete book logs")
	}
	if _, err := tx.Exec(`DELETE FROM book WHERE id = ?`, bookID); err != nil {
		return errors.Wrap(err, "failed to delete book")
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.BookCache.Delete(bookID)
	return nil
}

type scanFunc func(dest ...any) error

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookRow(row rowScanner) (*model.Book, error) {
	return scanBook(row.Scan)
}

func scanBook(scan scanFunc) (*model.Book, error) {
	var book model.Book
	var titlePage *string
	var updatedTs *int64
	var keywords string
	if err := scan(
		&book.ID,
		&book.BookName,
		&book.Author,
		&book.Subject,
		&book.Publisher,
		&book.LibraryCode,
		&book.BookLink,
		&titlePage,
		&book.Status,
		&keywords,
		&book.CreatedTs,
		&updatedTs,
	); err != nil {
		return nil, err
	}
	book.TitlePage = titlePage
	book.UpdatedTs = updatedTs
	if err := json.Unmarshal([]byte(keywords), &book.SearchKeywords); err != nil {
		// Historical rows had inconsistent shapes; normalize at the read
		// boundary instead of failing the whole list.
		log.Warn("Malformed search_keywords column", zap.String("book_id", book.ID))
		book.SearchKeywords = nil
	}
	return &book, nil
}
