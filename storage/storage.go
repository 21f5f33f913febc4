package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/yatube/yatube/config"
)

// PostImagesDir is the namespace uploaded post images are stored under.
const PostImagesDir = "posts"

// BlobStore persists uploaded files and returns the stable relative path stored on a record.
type BlobStore interface {
	// Save writes r under dir/name and returns the relative path actually used.
	// An existing object is never overwritten; a short random suffix is added instead.
	Save(ctx context.Context, dir, name string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, relPath string) error
	// URL maps a relative path to the address browsers fetch it from.
	URL(relPath string) string
}

// New builds the blob store selected by MediaBackend.
func New(ctx context.Context, cfg config.AppConfig) (BlobStore, error) {
	switch strings.ToLower(cfg.MediaBackend) {
	case "", "local":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
	case "s3":
		return NewS3StoreFromConfig(ctx, cfg)
	default:
		return nil, errors.NotSupportedf("media backend %q", cfg.MediaBackend)
	}
}

// cleanName reduces a client-supplied filename to a safe base name.
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = uuid.NewString()
	}
	return name
}

// withSuffix inserts a short random token before the extension: cat.gif -> cat_1a2b3c4.gif.
func withSuffix(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:7] + ext
}

func joinURL(base, relPath string) string {
	if relPath == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(relPath, "/")
}
