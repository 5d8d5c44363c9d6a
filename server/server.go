package server

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	v1 "github.com/irc-library/maktaba/api/v1"
	"github.com/irc-library/maktaba/catalog"
	"github.com/irc-library/maktaba/config"
	"github.com/irc-library/maktaba/lending"
	"github.com/irc-library/maktaba/storage"
	"github.com/irc-library/maktaba/store"
	"github.com/irc-library/maktaba/version"
	"github.com/irc-library/maktaba/worker"
)

// StartServer starts the HTTP server
func StartServer(ctx context.Context, store *store.Store, coverHost storage.CoverHost, coverPool worker.WorkPool) (*http.Server, error) {
	addr := config.Opts.Host
	port := config.Opts.Port
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", addr, port),
		Handler: setupHandler(store, coverHost, coverPool),
	}

	startHTTPServer(server)

	return server, nil
}

func startHTTPServer(server *http.Server) {
	go func() {
		fmt.Println("Starting HTTP server in:", server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			fmt.Println("HTTP server error", err)
			os.Exit(1)
		}
	}()
}

func setupHandler(store *store.Store, coverHost storage.CoverHost, coverPool worker.WorkPool) http.Handler {
	router := mux.NewRouter()

	lendingEngine := lending.NewEngine(store)
	catalogManager := catalog.NewManager(store, config.Opts.PageSize, config.Opts.WatchBatchSize)

	apiHandler := v1.NewHandler(store, lendingEngine, catalogManager, coverPool, []byte(config.Opts.JWTSecret))
	// Setup the API routes
	v1.Server(router, apiHandler)

	// Locally hosted covers are served straight off the data directory.
	if local, ok := coverHost.(*storage.LocalHost); ok {
		router.PathPrefix("/covers/").Handler(
			http.StripPrefix("/covers/", http.FileServer(http.Dir(local.Dir()))))
	}

	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(); err != nil {
			http.Error(w, "Database Connection Error", http.StatusInternalServerError)
			return
		}

		w.Write([]byte("OK"))
	}).Name("healthcheck")

	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(version.GetCurrentVersion()))
	}).Name("version")

	return router
}
