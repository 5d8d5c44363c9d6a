package store

import (
	"database/sql"
	"time"

	"github.com/irc-library/maktaba/model"
	"github.com/pkg/errors"
)

func (s *Store) GetLibrarian(email string) (*model.Librarian, error) {
	stmt := `
        SELECT
            id,
            email,
            password_hash,
            created_ts
        FROM librarian
        WHERE email = ?`

	var librarian model.Librarian
	err := s.db.QueryRow(stmt, email).Scan(
		&librarian.ID,
		&librarian.Email,
		&librarian.PasswordHash,
		&librarian.CreatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get librarian")
	}
	return &librarian, nil
}

func (s *Store) CountLibrarians() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM librarian`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) AddLibrarian(librarian *model.Librarian) (*model.Librarian, error) {
	stmt := `
        INSERT INTO librarian (
            email,
            password_hash,
            created_ts
        ) VALUES (?,?,?)
        RETURNING id, email, password_hash, created_ts`
	args := []any{librarian.Email, librarian.PasswordHash, time.Now().Unix()}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var newLibrarian model.Librarian
	if err := tx.QueryRow(stmt, args...).Scan(
		&newLibrarian.ID,
		&newLibrarian.Email,
		&newLibrarian.PasswordHash,
		&newLibrarian.CreatedTs,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &newLibrarian, nil
}
