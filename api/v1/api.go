package v1

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/irc-library/maktaba/catalog"
	"github.com/irc-library/maktaba/http/request"
	"github.com/irc-library/maktaba/http/response"
	"github.com/irc-library/maktaba/lending"
	"github.com/irc-library/maktaba/middleware"
	"github.com/irc-library/maktaba/store"
	"github.com/irc-library/maktaba/worker"
)

type Handler struct {
	store     *store.Store
	lending   *lending.Engine
	catalog   *catalog.Manager
	coverPool worker.WorkPool
	// For JWT
	secret []byte
}

// NewHandler is a constructor for the v1.Handler
func NewHandler(store *store.Store, lendingEngine *lending.Engine, catalogManager *catalog.Manager, coverPool worker.WorkPool, secret []byte) *Handler {
	return &Handler{
		store:     store,
		lending:   lendingEngine,
		catalog:   catalogManager,
		coverPool: coverPool,
		secret:    secret,
	}
}

func Server(router *mux.Router, handler *Handler) {
	sr := router.PathPrefix("/api/v1").Subrouter()
	m := middleware.NewMiddleware(handler.store, handler.secret)
	sr.Use(m.HandleCORS)
	sr.Use(m.LoggingRequest)
	sr.Use(m.AuthenticationInterceptor)
	sr.Methods(http.MethodOptions)

	sr.HandleFunc("/signin", handler.signIn).Methods(http.MethodPost)
	sr.HandleFunc("/signout", handler.signOut).Methods(http.MethodPost)
	sr.HandleFunc("/register", handler.register).Methods(http.MethodPost)

	sr.HandleFunc("/books", handler.listBooks).Methods(http.MethodGet)
	sr.HandleFunc("/books", handler.createBook).Methods(http.MethodPost)
	sr.HandleFunc("/books/{id}", handler.updateBook).Methods(http.MethodPut)
	sr.HandleFunc("/books/{id}", handler.deleteBook).Methods(http.MethodDelete)
	sr.HandleFunc("/books/{id}/status", handler.updateBookStatus).Methods(http.MethodPost)
	sr.HandleFunc("/books/{id}/loans", handler.listBookLoans).Methods(http.MethodGet)

	sr.HandleFunc("/library/meta", handler.getLibraryMeta).Methods(http.MethodGet)

	sr.HandleFunc("/readers", handler.listReaders).Methods(http.MethodGet)
	sr.HandleFunc("/readers", handler.createReader).Methods(http.MethodPost)
	sr.HandleFunc("/readers/{id}", handler.deleteReader).Methods(http.MethodDelete)
	sr.HandleFunc("/readerRequests", handler.listReaderRequests).Methods(http.MethodGet)
	sr.HandleFunc("/readerRequests/{id}/approve", handler.approveReaderRequest).Methods(http.MethodPost)
	sr.HandleFunc("/readerRequests/{id}/reject", handler.rejectReaderRequest).Methods(http.MethodPost)
}

// requireLibrarian guards the management endpoints. It writes the error
// response itself and reports whether the handler may continue.
func (h *Handler) requireLibrarian(w http.ResponseWriter, r *http.Request) bool {
	identity := request.GetIdentity(r)
	if !identity.Authenticated() {
		response.Unauthorized(w, r)
		return false
	}
	if !identity.IsLibrarian() {
		response.Forbidden(w, r)
		return false
	}
	return true
}
