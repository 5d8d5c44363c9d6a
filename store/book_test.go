package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/irc-library/maktaba/config"
	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/search"
	"github.com/irc-library/maktaba/store/db"
)

// Initialize the logger and config
func init() {
	config.Opts = config.GetDefaultOptions()
	log.Logger = log.NewLogger()
}

func createTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "maktaba_test.db")
	config.Opts.DSN = dsn

	database, err := db.NewDB(dsn)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return NewStore(database.DB)
}

func addTestBook(t *testing.T, s *Store, name, author, subject string) *model.Book {
	t.Helper()
	book, err := s.AddBook(&model.Book{
		BookName:       name,
		Author:         author,
		Subject:        subject,
		LibraryCode:    "T-1",
		SearchKeywords: search.Keywords(name + " " + author),
	})
	if err != nil {
		t.Fatalf("Failed to add book %q: %v", name, err)
	}
	return book
}

func TestAddAndGetBook(t *testing.T) {
	s := createTestStore(t)

	book := addTestBook(t, s, "Sahih Bukhari", "Imam Bukhari", "Hadith")
	if book.Status != model.StatusShelf {
		t.Errorf("Expected new book on shelf, got status %q", book.Status)
	}
	if book.CreatedTs == 0 {
		t.Error("Expected created timestamp to be set")
	}

	got, err := s.GetBook(&model.FindBook{ID: &book.ID})
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if got == nil || got.BookName != "Sahih Bukhari" {
		t.Fatalf("Unexpected book: %+v", got)
	}
	if len(got.SearchKeywords) == 0 {
		t.Error("Expected search keywords to round-trip")
	}
}

func TestListBooksPagination(t *testing.T) {
	s := createTestStore(t)

	names := []string{"Alif", "Be", "Pe", "Te", "Se"}
	for _, name := range names {
		addTestBook(t, s, name, "Author", "Subject")
	}

	limit := 2
	seen := make(map[string]bool)
	var cursor *model.BookCursor
	var pageLens []int
	for {
		page, err := s.ListBooks(&model.FindBook{
			SortKey: model.SortNewest,
			After:   cursor,
			Limit:   &limit,
		})
		if err != nil {
			t.Fatalf("Failed to list books: %v", err)
		}
		if len(page) == 0 {
			break
		}
		pageLens = append(pageLens, len(page))
		for _, book := range page {
			if seen[book.ID] {
				t.Errorf("Book %s returned twice", book.ID)
			}
			seen[book.ID] = true
		}
		// Rows must be strictly descending by (created_ts, id).
		for i := 1; i < len(page); i++ {
			prev, cur := page[i-1], page[i]
			if cur.CreatedTs > prev.CreatedTs ||
				(cur.CreatedTs == prev.CreatedTs && cur.ID >= prev.ID) {
				t.Errorf("Page out of order: %v before %v", prev.ID, cur.ID)
			}
		}
		last := page[len(page)-1]
		cursor = &model.BookCursor{ID: last.ID, BookName: last.BookName, CreatedTs: last.CreatedTs}
		if len(page) < limit {
			break
		}
	}

	if len(seen) != len(names) {
		t.Errorf("Expected %d distinct books across pages, got %d", len(names), len(seen))
	}
	if len(pageLens) != 3 || pageLens[0] != 2 || pageLens[1] != 2 || pageLens[2] != 1 {
		t.Errorf("Unexpected page sizes: %v", pageLens)
	}
}

func TestListBooksAlphabetical(t *testing.T) {
	s := createTestStore(t)

	for _, name := range []string{"Muqaddimah", "Alchemy of Happiness", "Revival"} {
		addTestBook(t, s, name, "Author", "Subject")
	}

	limit := 2
	first, err := s.ListBooks(&model.FindBook{SortKey: model.SortAlphabetical, Limit: &limit})
	if err != nil {
		t.Fatalf("Failed to list books: %v", err)
	}
	if len(first) != 2 || first[0].BookName != "Alchemy of Happiness" || first[1].BookName != "Muqaddimah" {
		t.Fatalf("Unexpected first page: %+v", bookNames(first))
	}

	last := first[len(first)-1]
	second, err := s.ListBooks(&model.FindBook{
		SortKey: model.SortAlphabetical,
		After:   &model.BookCursor{ID: last.ID, BookName: last.BookName, CreatedTs: last.CreatedTs},
		Limit:   &limit,
	})
	if err != nil {
		t.Fatalf("Failed to list second page: %v", err)
	}
	if len(second) != 1 || second[0].BookName != "Revival" {
		t.Fatalf("Unexpected second page: %+v", bookNames(second))
	}
}

func TestListBooksSearch(t *testing.T) {
	s := createTestStore(t)

	addTestBook(t, s, "Sahih Bukhari", "Imam Bukhari", "Hadith")
	addTestBook(t, s, "Tafsir ibn Kathir", "Ibn Kathir", "Tafsir")

	term := search.NormalizeTerm("  SaH  ")
	hits, err := s.ListBooks(&model.FindBook{SearchTerm: &term})
	if err != nil {
		t.Fatalf("Failed to search books: %v", err)
	}
	if len(hits) != 1 || hits[0].BookName != "Sahih Bukhari" {
		t.Fatalf("Unexpected search hits: %+v", bookNames(hits))
	}

	// Tokens anchor at word starts only.
	middle := "ukhari"
	miss, err := s.ListBooks(&model.FindBook{SearchTerm: &middle})
	if err != nil {
		t.Fatalf("Failed to search books: %v", err)
	}
	if len(miss) != 0 {
		t.Errorf("Expected no hits for mid-word term, got %+v", bookNames(miss))
	}
}

func TestUpdateBookStatusPublishes(t *testing.T) {
	s := createTestStore(t)

	book := addTestBook(t, s, "Riyadh as-Salihin", "Imam Nawawi", "Hadith")
	sub := s.WatchStatus([]string{book.ID})
	defer sub.Cancel()

	updated, err := s.UpdateBookStatus(book.ID, "Ayesha")
	if err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}
	if updated.Status != "Ayesha" {
		t.Errorf("Expected status Ayesha, got %q", updated.Status)
	}
	if updated.UpdatedTs == nil {
		t.Error("Expected updated timestamp to be set")
	}

	select {
	case event := <-sub.C:
		if event.BookID != book.ID || event.Status != "Ayesha" {
			t.Errorf("Unexpected event: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for status event")
	}
}

func TestRemoveBookClearsLoanLog(t *testing.T) {
	s := createTestStore(t)

	book := addTestBook(t, s, "Fiqh us-Sunnah", "Sayyid Sabiq", "Fiqh")
	if _, err := s.AddLoanEntry(&model.LoanEntry{BookID: book.ID, ReaderName: "Omar"}); err != nil {
		t.Fatalf("Failed to add loan entry: %v", err)
	}

	if err := s.RemoveBook(book.ID); err != nil {
		t.Fatalf("Failed to remove book: %v", err)
	}

	got, err := s.GetBook(&model.FindBook{ID: &book.ID})
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if got != nil {
		t.Errorf("Expected book to be gone, got %+v", got)
	}

	entries, err := s.ListLoanEntries(&model.FindLoanEntry{BookID: &book.ID})
	if err != nil {
		t.Fatalf("Failed to list loan entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected loan log to be cleared, got %d entries", len(entries))
	}
}

func bookNames(books []*model.Book) []string {
	names := make([]string, 0, len(books))
	for _, book := range books {
		names = append(names, book.BookName)
	}
	return names
}
