package synthesizer

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// AudioStore persists rendered audio and returns the URL it is served from.
type AudioStore interface {
	Put(ctx context.Context, name string, audio io.Reader) (string, error)
}

// FileStore writes audio files under Dir. BaseURL is the public prefix the
// directory is served from, e.g. "https://cdn.example.com/audio".
type FileStore struct {
	Dir     string
	BaseURL string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("audio dir cannot be empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid audio base url %q: %w", baseURL, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &FileStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes audio to a temp file and renames it into place, so a partially
// written file is never served.
func (s *FileStore) Put(ctx context.Context, name string, audio io.Reader) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid audio file name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp audio file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, audio); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close audio file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return "", fmt.Errorf("store audio: %w", err)
	}

	return s.BaseURL + "/" + url.PathEscape(name), nil
}
