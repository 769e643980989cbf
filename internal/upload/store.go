// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package upload parks inbound files on local disk for the lifetime of one
// request. Each saved file gets a random name, so concurrent requests never
// share a path and client filenames never reach the filesystem.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pdiddy/convert-relay/pkg/types"
)

// Store writes uploads under a single directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("upload directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory uploads are written to.
func (s *Store) Dir() string { return s.dir }

// Save copies a multipart file part to a new file in the store.
func (s *Store) Save(fh *multipart.FileHeader) (types.Upload, error) {
	src, err := fh.Open()
	if err != nil {
		return types.Upload{}, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	u, err := s.Write(fh.Filename, src)
	if err != nil {
		return types.Upload{}, err
	}
	u.ContentType = fh.Header.Get("Content-Type")
	return u, nil
}

// Write stores the contents of r under a fresh name and records name as the
// upload's original filename.
func (s *Store) Write(name string, r io.Reader) (types.Upload, error) {
	path := filepath.Join(s.dir, uuid.NewString())
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return types.Upload{}, fmt.Errorf("creating temp file: %w", err)
	}

	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return types.Upload{}, fmt.Errorf("writing upload %s: %w", name, err)
	}

	return types.Upload{
		OriginalName: name,
		Path:         path,
		Size:         n,
	}, nil
}

// Read returns the full contents of a stored upload.
func (s *Store) Read(u types.Upload) ([]byte, error) {
	data, err := os.ReadFile(u.Path)
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", u.OriginalName, err)
	}
	return data, nil
}

// Remove deletes a stored upload. Removing an already-deleted upload is not
// an error.
func (s *Store) Remove(u types.Upload) error {
	if err := os.Remove(u.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing upload %s: %w", u.OriginalName, err)
	}
	return nil
}
