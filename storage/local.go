package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
)

// LocalStore keeps files under a directory on disk, served by the app under baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: baseURL}
}

// Root is the directory files are written to.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(ctx context.Context, dir, name string, r io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(s.root, filepath.FromSlash(dir)), 0o755); err != nil {
		return "", errors.Annotate(err, "create upload directory")
	}

	name = cleanName(name)
	rel := path.Join(dir, name)
	f, err := os.OpenFile(s.abs(rel), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	for attempt := 0; os.IsExist(err) && attempt < 5; attempt++ {
		rel = path.Join(dir, withSuffix(name))
		f, err = os.OpenFile(s.abs(rel), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", errors.Annotate(err, "create upload file")
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(s.abs(rel))
		return "", errors.Annotate(err, "write upload file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(s.abs(rel))
		return "", errors.Annotate(err, "close upload file")
	}
	return rel, nil
}

func (s *LocalStore) Delete(_ context.Context, relPath string) error {
	if relPath == "" || strings.Contains(relPath, "..") {
		return errors.NotValidf("path %q", relPath)
	}
	err := os.Remove(s.abs(relPath))
	if err != nil && !os.IsNotExist(err) {
		return errors.Trace(err)
	}
	return nil
}

func (s *LocalStore) URL(relPath string) string {
	return joinURL(s.baseURL, relPath)
}

func (s *LocalStore) abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}
