package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/util"
	"go.uber.org/zap"
)

func (s *Store) ListLoanEntries(find *model.FindLoanEntry) ([]*model.LoanEntry, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.BookID; v != nil {
		where, args = append(where, "book_id = ?"), append(args, *v)
	}
	if v := find.ReaderName; v != nil {
		where, args = append(where, "reader_name = ?"), append(args, *v)
	}

	query := `
        SELECT
            id,
            book_id,
            reader_name,
            taken_ts
        FROM book_log
        WHERE ` + strings.Join(where, " AND ") + ` ORDER BY taken_ts DESC`

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query loan entries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.LoanEntry, 0)
	for rows.Next() {
		var entry model.LoanEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.BookID,
			&entry.ReaderName,
			&entry.TakenTs,
		); err != nil {
			log.Error("Failed to scan loan entry", zap.Error(err))
			return nil, err
		}
		list = append(list, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// AddLoanEntry appends one open-loan record for a borrow or transfer.
func (s *Store) AddLoanEntry(entry *model.LoanEntry) (*model.LoanEntry, error) {
	if entry.ID == "" {
		entry.ID = util.GenUUID()
	}

	stmt := `
        INSERT INTO book_log (
            id,
            book_id,
            reader_name,
            taken_ts
        ) VALUES (?,?,?,?)
        RETURNING id, book_id, reader_name, taken_ts`
	args := []any{entry.ID, entry.BookID, entry.ReaderName, time.Now().Unix()}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", stmt, args))

	var newEntry model.LoanEntry
	if err := tx.QueryRow(stmt, args...).Scan(
		&newEntry.ID,
		&newEntry.BookID,
		&newEntry.ReaderName,
		&newEntry.TakenTs,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &newEntry, nil
}

// RemoveLoanEntries clears every entry for a book. Called when a book
// returns to the shelf: the log tracks open loans, not history.
func (s *Store) RemoveLoanEntries(bookID string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM book_log WHERE book_id = ?`, bookID); err != nil {
		return err
	}
	return tx.Commit()
}
