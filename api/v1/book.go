package v1

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/irc-library/maktaba/catalog"
	"github.com/irc-library/maktaba/config"
	"github.com/irc-library/maktaba/http/request"
	"github.com/irc-library/maktaba/http/response"
	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/search"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// listBooks serves the viewer's accumulated catalog page. The engine is
// keyed by the access-token session so repeated calls append rather than
// restart; anonymous viewers fall back to a per-IP session.
func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	sessionID := request.SessionID(r)
	if sessionID == "" {
		sessionID = request.FindClientIP(r)
	}
	engine := h.catalog.Session(sessionID)

	if request.QueryBoolParam(r, "more", false) {
		snapshot, err := engine.LoadPage(false)
		if err != nil {
			response.ServerError(w, r, err)
			return
		}
		response.OK(w, r, snapshot)
		return
	}

	sort := model.SortKey(request.QueryStringParam(r, "sort", string(model.SortNewest)))
	if sort != model.SortNewest && sort != model.SortAlphabetical {
		response.BadRequest(w, r, errors.Errorf("unknown sort key: %s", sort))
		return
	}
	filters := catalog.Filters{
		Subject:    request.QueryStringParam(r, "subject", catalog.SubjectAll),
		SearchTerm: request.QueryStringParam(r, "q", ""),
		Sort:       sort,
	}

	var snapshot catalog.Snapshot
	var err error
	if request.QueryBoolParam(r, "refresh", false) {
		snapshot, err = engine.Refresh(filters)
	} else {
		snapshot, err = engine.SetFilters(filters)
	}
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, snapshot)
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	if !h.requireLibrarian(w, r) {
		return
	}

	if err := r.ParseMultipartForm(config.Opts.MaxUploadSize << 20); err != nil {
		log.Error("Failed to parse multipart form", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}

	book := &model.Book{
		BookName:    strings.TrimSpace(r.FormValue("bookName")),
		Author:      strings.TrimSpace(r.FormValue("author")),
		Subject:     strings.TrimSpace(r.FormValue("subject")),
		Publisher:   strings.TrimSpace(r.FormValue("publisher")),
		LibraryCode: strings.TrimSpace(r.FormValue("libraryCode")),
		BookLink:    strings.TrimSpace(r.FormValue("bookLink")),
	}
	if err := validateRequiredBookFields(book); err != nil {
		response.BadRequest(w, r, err)
		return
	}
	book.SearchKeywords = search.Keywords(book.BookName + " " + book.Author)

	book, err := h.store.AddBook(book)
	if err != nil {
		log.Error("Failed to add book", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	if _, err := h.store.RecomputeLibraryMeta(); err != nil {
		log.Warn("Failed to recompute library meta", zap.Error(err))
	}

	h.pushCoverJob(r, book.ID)

	response.Created(w, r, book)
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	if !h.requireLibrarian(w, r) {
		return
	}
	bookID := request.RouteStringParam(r, "id")

	current, err := h.store.GetBook(&model.FindBook{ID: &bookID})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if current == nil {
		response.NotFound(w, r)
		return
	}

	update, err := h.decodeBookUpdate(r, bookID)
	if err != nil {
		log.Error("Failed to decode book update", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}
	if err := validateBookUpdate(update); err != nil {
		response.BadRequest(w, r, err)
		return
	}

	// The keyword set indexes title and author, so either edit rewrites it.
	if update.BookName != nil || update.Author != nil {
		bookName, author := current.BookName, current.Author
		if update.BookName != nil {
			bookName = *update.BookName
		}
		if update.Author != nil {
			author = *update.Author
		}
		update.SearchKeywords = search.Keywords(bookName + " " + author)
	}

	book, err := h.store.UpdateBook(update)
	if err != nil {
		log.Error("Failed to update book", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	if update.Subject != nil || update.Author != nil {
		if _, err := h.store.RecomputeLibraryMeta(); err != nil {
			log.Warn("Failed to recompute library meta", zap.Error(err))
		}
	}

	h.pushCoverJob(r, book.ID)
	h.catalog.Patch(book)

	response.OK(w, r, book)
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	if !h.requireLibrarian(w, r) {
		return
	}
	bookID := request.RouteStringParam(r, "id")

	book, err := h.store.GetBook(&model.FindBook{ID: &bookID})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if book == nil {
		response.NotFound(w, r)
		return
	}

	if err := h.store.RemoveBook(bookID); err != nil {
		log.Error("Failed to remove book", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	if _, err := h.store.RecomputeLibraryMeta(); err != nil {
		log.Warn("Failed to recompute library meta", zap.Error(err))
	}
	h.catalog.Remove(bookID)

	response.NoContent(w, r)
}

// decodeBookUpdate accepts either a JSON body or a multipart form. With a
// form, only the fields present in the form are treated as edits.
func (h *Handler) decodeBookUpdate(r *http.Request, bookID string) (*model.UpdateBook, error) {
	update := &model.UpdateBook{ID: bookID}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(config.Opts.MaxUploadSize << 20); err != nil {
			return nil, errors.Wrap(err, "failed to parse multipart form")
		}
		update.BookName = formStringField(r, "bookName")
		update.Author = formStringField(r, "author")
		update.Subject = formStringField(r, "subject")
		update.Publisher = formStringField(r, "publisher")
		update.LibraryCode = formStringField(r, "libraryCode")
		update.BookLink = formStringField(r, "bookLink")
		return update, nil
	}

	var body struct {
		BookName    *string `json:"bookName"`
		Author      *string `json:"author"`
		Subject     *string `json:"subject"`
		Publisher   *string `json:"publisher"`
		LibraryCode *string `json:"libraryCode"`
		BookLink    *string `json:"bookLink"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode request body")
	}
	update.BookName = body.BookName
	update.Author = body.Author
	update.Subject = body.Subject
	update.Publisher = body.Publisher
	update.LibraryCode = body.LibraryCode
	update.BookLink = body.BookLink
	return update, nil
}

// validateRequiredBookFields rejects records that would be unfindable or
// unidentifiable on the shelf. Publisher and link stay optional.
func validateRequiredBookFields(book *model.Book) error {
	for field, value := range map[string]string{
		"bookName":    book.BookName,
		"author":      book.Author,
		"subject":     book.Subject,
		"libraryCode": book.LibraryCode,
	} {
		if value == "" {
			return errors.Errorf("%s is required", field)
		}
	}
	return nil
}

// validateBookUpdate rejects edits that blank out a required field.
func validateBookUpdate(update *model.UpdateBook) error {
	for field, value := range map[string]*string{
		"bookName":    update.BookName,
		"author":      update.Author,
		"subject":     update.Subject,
		"libraryCode": update.LibraryCode,
	} {
		if value != nil && strings.TrimSpace(*value) == "" {
			return errors.Errorf("%s cannot be empty", field)
		}
	}
	return nil
}

func formStringField(r *http.Request, field string) *string {
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	value := strings.TrimSpace(values[0])
	return &value
}

// pushCoverJob hands an uploaded cover to the background pool. The
// request may legitimately carry no file.
func (h *Handler) pushCoverJob(r *http.Request, bookID string) {
	if r.MultipartForm == nil {
		return
	}
	file, header, err := r.FormFile("titlePage")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			log.Warn("Failed to read cover upload", zap.Error(err))
		}
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Warn("Failed to read cover upload", zap.Error(err))
		return
	}

	h.coverPool.Push(model.Job{
		BookID:   bookID,
		FileName: header.Filename,
		Data:     data,
		Status:   model.JobStatusPending,
	})
}
