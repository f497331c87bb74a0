// Package blob stores uploaded document originals.
package blob

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Storage persists an object and returns a stable reference URL. Delete
// removes an object by that URL.
type Storage interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

// LocalStorage writes objects under a directory on the local filesystem.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates a LocalStorage rooted at dir.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "blob: resolve dir %s", dir)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, eris.Wrapf(err, "blob: create dir %s", abs)
	}
	return &LocalStorage{dir: abs}, nil
}

// Put writes data under a fresh key derived from name and returns its
// file:// URL. Existing objects are never overwritten.
func (s *LocalStorage) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "blob: put")
	}

	key := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(name)))
	path := filepath.Join(s.dir, key)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", eris.Wrap(err, "blob: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return "", eris.Wrap(err, "blob: write file")
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrap(err, "blob: close file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", eris.Wrap(err, "blob: rename file")
	}

	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
}

// Delete removes the object behind ref. A missing object is not an error;
// refs that do not point into the storage directory are rejected.
func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "blob: delete")
	}

	u, err := url.Parse(ref)
	if err != nil {
		return eris.Wrapf(err, "blob: parse ref %s", ref)
	}
	path := filepath.FromSlash(u.Path)
	if u.Scheme != "file" || filepath.Dir(path) != s.dir {
		return eris.Errorf("blob: ref %s is outside %s", ref, s.dir)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(err, "blob: delete %s", ref)
	}
	return nil
}
