package v1

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/irc-library/maktaba/catalog"
	"github.com/irc-library/maktaba/config"
	"github.com/irc-library/maktaba/http/request"
	"github.com/irc-library/maktaba/lending"
	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/store"
	"github.com/irc-library/maktaba/store/db"
)

// Initialize the logger and config
func init() {
	config.Opts = config.GetDefaultOptions()
	log.Logger = log.NewLogger()
}

// recordingPool captures cover jobs instead of processing them.
type recordingPool struct {
	jobs []model.Job
}

func (p *recordingPool) Push(job model.Job) {
	p.jobs = append(p.jobs, job)
}

func newTestHandler(t *testing.T) (*Handler, *store.Store) {
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

	s := store.NewStore(database.DB)
	manager := catalog.NewManager(s, config.Opts.PageSize, config.Opts.WatchBatchSize)
	t.Cleanup(manager.Close)

	handler := NewHandler(s, lending.NewEngine(s), manager, &recordingPool{}, []byte("test-secret"))
	return handler, s
}

// asLibrarian binds a librarian identity to the request, the way the
// authentication interceptor would for a valid token.
func asLibrarian(r *http.Request) *http.Request {
	identity := model.Identity{
		Name:  "admin@example.org",
		Email: "admin@example.org",
		Role:  model.RoleLibrarian,
	}
	return r.WithContext(request.WithIdentity(r.Context(), identity))
}
