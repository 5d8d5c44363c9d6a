package store

import (
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GetLibraryMeta reads the singleton aggregate row. A missing row
// self-heals with a full recompute; later reads come from the cache
// until the next recompute invalidates it.
func (s *Store) GetLibraryMeta() (*model.LibraryMeta, error) {
	if cache, ok := s.metaCache.Load(model.LibraryMetaID); ok {
		return cache.(*model.LibraryMeta), nil
	}

	stmt := `
        SELECT
            total_books,
            total_subjects,
            total_authors,
            subjects,
            updated_ts
        FROM library_meta
        WHERE id = ?`

	var meta model.LibraryMeta
	var subjects string
	err := s.db.QueryRow(stmt, model.LibraryMetaID).Scan(
		&meta.TotalBooks,
		&meta.TotalSubjects,
		&meta.TotalAuthors,
		&subjects,
		&meta.UpdatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return s.RecomputeLibraryMeta()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get library meta")
	}
	if err := json.Unmarshal([]byte(subjects), &meta.Subjects); err != nil {
		log.Warn("Malformed subjects column, recomputing", zap.Error(err))
		return s.RecomputeLibraryMeta()
	}

	s.metaCache.Store(model.LibraryMetaID, &meta)
	return &meta, nil
}

// RecomputeLibraryMeta rescans the whole book collection and overwrites
// the aggregate. A full scan per structural change buys correctness
// without decrement bookkeeping; the collection is human-sized.
func (s *Store) RecomputeLibraryMeta() (*model.LibraryMeta, error) {
	rows, err := s.db.Query(`SELECT subject, author FROM book`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan books for meta")
	}
	defer rows.Close()

	total := 0
	subjectSet := make(map[string]struct{})
	authorSet := make(map[string]struct{})
	for rows.Next() {
		var subject, author string
		if err := rows.Scan(&subject, &author); err != nil {
			return nil, errors.Wrap(err, "failed to scan book for meta")
		}
		total++
		if v := strings.TrimSpace(subject); v != "" {
			subjectSet[v] = struct{}{}
		}
		if v := strings.TrimSpace(author); v != "" {
			authorSet[v] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subjects := make([]string, 0, len(subjectSet))
	for subject := range subjectSet {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	meta := &model.LibraryMeta{
		TotalBooks:    total,
		TotalSubjects: len(subjectSet),
		TotalAuthors:  len(authorSet),
		Subjects:      subjects,
		UpdatedTs:     time.Now().Unix(),
	}

	encoded, err := json.Marshal(meta.Subjects)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal subjects")
	}

	stmt := `
        INSERT INTO library_meta (
            id,
            total_books,
            total_subjects,
            total_authors,
            subjects,
            updated_ts
        ) VALUES (?,?,?,?,?,?)
        ON CONFLICT(id) DO UPDATE
        SET
            total_books = EXCLUDED.total_books,
            total_subjects = EXCLUDED.total_subjects,
            total_authors = EXCLUDED.total_authors,
            subjects = EXCLUDED.subjects,
            updated_ts = EXCLUDED.updated_ts`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt,
		model.LibraryMetaID,
		meta.TotalBooks,
		meta.TotalSubjects,
		meta.TotalAuthors,
		string(encoded),
		meta.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert library meta")
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.metaCache.Store(model.LibraryMetaID, meta)
	return meta, nil
}
