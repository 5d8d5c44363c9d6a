package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalHost writes covers into a directory served by the HTTP server
// under /covers/. The default backend; needs no external service.
type LocalHost struct {
	dir string
}

func NewLocalHost(dataDir string) (*LocalHost, error) {
	dir := filepath.Join(dataDir, "covers")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create covers folder %s", dir)
	}
	return &LocalHost{dir: dir}, nil
}

// Dir returns the directory the server should expose as /covers/.
func (h *LocalHost) Dir() string {
	return h.dir
}

func (h *LocalHost) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	path := filepath.Join(h.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write cover %s", path)
	}
	return "/covers/" + filepath.Base(name), nil
}
