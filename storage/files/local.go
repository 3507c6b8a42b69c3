package files

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
)

var ErrNotFound = errors.New("file not found")

// LocalStorage keeps uploaded blobs on the local filesystem under a root dir.
type LocalStorage struct {
	root string
}

var _ core.FileStorage = (*LocalStorage)(nil)

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &LocalStorage{root: root}, nil
}

func (s *LocalStorage) Save(_ context.Context, path string, content io.Reader) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.Wrap(err, "creating dir")
	}
	f, err := os.Create(full)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	defer f.Close()
	if _, err = io.Copy(f, content); err != nil {
		return errors.Wrap(err, "writing file")
	}
	return nil
}

func (s *LocalStorage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, path string) error {
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path))); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}
