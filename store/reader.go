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

func (s *Store) GetReader(find *model.FindReader) (*model.Reader, error) {
	if find.ID != nil {
		if cache, ok := s.ReaderCache.Load(*find.ID); ok {
			return cache.(*model.Reader), nil
		}
	}

	list, err := s.ListReaders(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	reader := list[0]
	s.ReaderCache.Store(reader.ID, reader)
	return reader, nil
}

func (s *Store) ListReaders(find *model.FindReader) ([]*model.Reader, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "name = ?"), append(args, *v)
	}
	if v := find.Email; v != nil {
		where, args = append(where, "email = ?"), append(args, *v)
	}

	query := `
        SELECT
            id,
            name,
            email,
            password_hash,
            created_ts
        FROM reader
        WHERE ` + strings.Join(where, " AND ") + ` ORDER BY name ASC`

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query readers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Reader, 0)
	for rows.Next() {
		var reader model.Reader
		if err := rows.Scan(
			&reader.ID,
			&reader.Name,
			&reader.Email,
			&reader.PasswordHash,
			&reader.CreatedTs,
		); err != nil {
			log.Error("Failed to scan reader", zap.Error(err))
			return nil, err
		}
		list = append(list, &reader)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) AddReader(reader *model.Reader) (*model.Reader, error) {
	if reader.ID == "" {
		reader.ID = util.GenUUID()
	}

	stmt := `
        INSERT INTO reader (
            id,
            name,
            email,
            password_hash,
            created_ts
        ) VALUES (?,?,?,?,?)
        RETURNING id, name, email, password_hash, created_ts`
	args := []any{reader.ID, reader.Name, reader.Email, reader.PasswordHash, time.Now().Unix()}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var newReader model.Reader
	if err := tx.QueryRow(stmt, args...).Scan(
		&newReader.ID,
		&newReader.Name,
		&newReader.Email,
		&newReader.PasswordHash,
		&newReader.CreatedTs,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.ReaderCache.Store(newReader.ID, &newReader)
	return &newReader, nil
}

// RemoveReader deletes a reader record. Books whose status bears the
// reader's name keep it; the dangling reference is accepted behavior.
func (s *Store) RemoveReader(readerID string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM reader WHERE id = ?`, readerID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.ReaderCache.Delete(readerID)
	return nil
}

func (s *Store) ListReaderRequests(find *model.FindReaderRequest) ([]*model.ReaderRequest, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "status = ?"), append(args, string(*v))
	}

	query := `
        SELECT
            id,
            name,
            email,
            password_hash,
            status,
            created_ts
        FROM reader_request
        WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query reader requests", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.ReaderRequest, 0)
	for rows.Next() {
		var request model.ReaderRequest
		if err := rows.Scan(
			&request.ID,
			&request.Name,
			&request.Email,
			&request.PasswordHash,
			&request.Status,
			&request.CreatedTs,
		); err != nil {
			log.Error("Failed to scan reader request", zap.Error(err))
			return nil, err
		}
		list = append(list, &request)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) GetReaderRequest(id string) (*model.ReaderRequest, error) {
	list, err := s.ListReaderRequests(&model.FindReaderRequest{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) AddReaderRequest(request *model.ReaderRequest) (*model.ReaderRequest, error) {
	if request.ID == "" {
		request.ID = util.GenUUID()
	}
	if request.Status == "" {
		request.Status = model.RequestPending
	}

	stmt := `
        INSERT INTO reader_request (
            id,
            name,
            email,
            password_hash,
            status,
            created_ts
        ) VALUES (?,?,?,?,?,?)
        RETURNING id, name, email, password_hash, status, created_ts`
	args := []any{request.ID, request.Name, request.Email, request.PasswordHash, string(request.Status), time.Now().Unix()}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var newRequest model.ReaderRequest
	if err := tx.QueryRow(stmt, args...).Scan(
		&newRequest.ID,
		&newRequest.Name,
		&newRequest.Email,
		&newRequest.PasswordHash,
		&newRequest.Status,
		&newRequest.CreatedTs,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &newRequest, nil
}

// SetReaderRequestStatus moves a request to approved or rejected. Requests
// are never deleted.
func (s *Store) SetReaderRequestStatus(id string, status model.RequestStatus) (*model.ReaderRequest, error) {
	stmt := `
        UPDATE reader_request SET status = ? WHERE id = ?
        RETURNING id, name, email, password_hash, status, created_ts`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var request model.ReaderRequest
	if err := tx.QueryRow(stmt, string(status), id).Scan(
		&request.ID,
		&request.Name,
		&request.Email,
		&request.PasswordHash,
		&request.Status,
		&request.CreatedTs,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &request, nil
}
