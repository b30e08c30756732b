package docstore

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// FileStore keeps documents under Dir.
type FileStore struct {
	Dir string
}

// NewFileStore creates dir when missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("docstore: create %s: %w", dir, err)
	}
	return &FileStore{Dir: dir}, nil
}

// Put writes body atomically (temp file + rename).
func (s *FileStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if !validKey(key) {
		return fmt.Errorf("docstore: invalid key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".doc-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Get reads the document at key. The content type comes from its extension.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	if !validKey(key) {
		return nil, "", ErrNotFound
	}
	b, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	ct := mime.TypeByExtension(filepath.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return b, ct, nil
}
