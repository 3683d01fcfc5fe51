package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes uploads to a directory and serves them over HTTP.
type LocalStore struct {
	dir        string
	publicPath string
}

// NewLocalStore creates dir if needed. publicPath is the URL prefix the
// files are served under, e.g. "/uploads".
func NewLocalStore(dir, publicPath string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewLocalStore: %w", err)
	}
	return &LocalStore{dir: dir, publicPath: "/" + strings.Trim(publicPath, "/")}, nil
}

// PublicPath is the URL prefix returned URLs start with.
func (s *LocalStore) PublicPath() string { return s.publicPath }

// Put writes body to a temp file and renames it into place, so a reader
// never sees a partial file.
func (s *LocalStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if err := validateKey(key); err != nil {
		return "", fmt.Errorf("storage.LocalStore.Put: %w", err)
	}
	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("storage.LocalStore.Put: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage.LocalStore.Put: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage.LocalStore.Put: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage.LocalStore.Put: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("storage.LocalStore.Put: rename: %w", err)
	}
	return joinURL(s.publicPath, key), nil
}

// Handler serves stored files read-only. Directory listings are refused.
func (s *LocalStore) Handler() http.Handler {
	files := http.StripPrefix(s.publicPath, http.FileServer(http.Dir(s.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
