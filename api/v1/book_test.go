package v1

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/search"
	"github.com/irc-library/maktaba/store"
)

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, value := range fields {
		if err := writer.WriteField(field, value); err != nil {
			t.Fatalf("Failed to write form field %q: %v", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close form writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func addHandlerTestBook(t *testing.T, s *store.Store) *model.Book {
	t.Helper()
	book, err := s.AddBook(&model.Book{
		BookName:       "Sahih Muslim",
		Author:         "Imam Muslim",
		Subject:        "Hadith",
		LibraryCode:    "H-2",
		SearchKeywords: search.Keywords("Sahih Muslim Imam Muslim"),
	})
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}
	return book
}

func TestCreateBookRequiresCatalogFields(t *testing.T) {
	h, s := newTestHandler(t)

	// Only the title; author, subject, and shelf code are all missing.
	body, contentType := multipartBody(t, map[string]string{"bookName": "Sahih Bukhari"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/books", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.createBook(w, asLibrarian(r))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing required fields, got %d", w.Code)
	}
	books, err := s.ListBooks(&model.FindBook{})
	if err != nil {
		t.Fatalf("Failed to list books: %v", err)
	}
	if len(books) != 0 {
		t.Errorf("Expected nothing persisted, got %d books", len(books))
	}
}

func TestCreateBookPersistsFullRecord(t *testing.T) {
	h, s := newTestHandler(t)

	body, contentType := multipartBody(t, map[string]string{
		"bookName":    "Sahih Bukhari",
		"author":      "Imam Bukhari",
		"subject":     "Hadith",
		"libraryCode": "H-1",
	})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/books", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.createBook(w, asLibrarian(r))

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	books, err := s.ListBooks(&model.FindBook{})
	if err != nil {
		t.Fatalf("Failed to list books: %v", err)
	}
	if len(books) != 1 || books[0].LibraryCode != "H-1" {
		t.Fatalf("Unexpected persisted books: %+v", books)
	}
}

func TestUpdateBookRejectsBlankRequiredField(t *testing.T) {
	h, s := newTestHandler(t)
	book := addHandlerTestBook(t, s)

	r := httptest.NewRequest(http.MethodPut, "/api/v1/books/"+book.ID, strings.NewReader(`{"author": ""}`))
	r.Header.Set("Content-Type", "application/json")
	r = mux.SetURLVars(asLibrarian(r), map[string]string{"id": book.ID})
	w := httptest.NewRecorder()
	h.updateBook(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for blanked author, got %d", w.Code)
	}
	got, err := s.GetBook(&model.FindBook{ID: &book.ID})
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if got.Author != "Imam Muslim" {
		t.Errorf("Expected author untouched, got %q", got.Author)
	}
}

func TestUpdateBookAcceptsPartialEdit(t *testing.T) {
	h, s := newTestHandler(t)
	book := addHandlerTestBook(t, s)

	r := httptest.NewRequest(http.MethodPut, "/api/v1/books/"+book.ID, strings.NewReader(`{"publisher": "Dar al-Salam"}`))
	r.Header.Set("Content-Type", "application/json")
	r = mux.SetURLVars(asLibrarian(r), map[string]string{"id": book.ID})
	w := httptest.NewRecorder()
	h.updateBook(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got, err := s.GetBook(&model.FindBook{ID: &book.ID})
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if got.Publisher != "Dar al-Salam" {
		t.Errorf("Expected publisher updated, got %q", got.Publisher)
	}
}
