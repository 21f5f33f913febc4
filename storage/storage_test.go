package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallGIF is a 1x1 GIF.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00,
	0x01, 0x00, 0x00, 0x00, 0x00, 0x21, 0xf9, 0x04,
	0x01, 0x0a, 0x00, 0x01, 0x00, 0x2c, 0x00, 0x00,
	0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x4c, 0x01, 0x00, 0x3b,
}

func TestLocalStoreSaveUnderNamespace(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, "/media/")

	rel, err := s.Save(context.Background(), PostImagesDir, "small.gif", bytes.NewReader(smallGIF), "image/gif")
	require.NoError(t, err)
	assert.Equal(t, "posts/small.gif", rel)
	assert.Equal(t, "/media/posts/small.gif", s.URL(rel))

	data, err := os.ReadFile(filepath.Join(root, "posts", "small.gif"))
	require.NoError(t, err)
	assert.Equal(t, smallGIF, data)
}

func TestLocalStoreNeverOverwrites(t *testing.T) {
	s := NewLocalStore(t.TempDir(), "/media/")
	ctx := context.Background()

	first, err := s.Save(ctx, PostImagesDir, "small.gif", bytes.NewReader(smallGIF), "image/gif")
	require.NoError(t, err)
	second, err := s.Save(ctx, PostImagesDir, "small.gif", bytes.NewReader([]byte("other")), "image/gif")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(second, "posts/small_"))
	assert.True(t, strings.HasSuffix(second, ".gif"))
}

func TestLocalStoreCleansNames(t *testing.T) {
	s := NewLocalStore(t.TempDir(), "/media/")
	rel, err := s.Save(context.Background(), PostImagesDir, "../../etc/my cat.gif", bytes.NewReader(smallGIF), "")
	require.NoError(t, err)
	assert.Equal(t, "posts/my_cat.gif", rel)

	require.NoError(t, s.Delete(context.Background(), rel))
	assert.Error(t, s.Delete(context.Background(), "../outside"))
}

func TestSniffImage(t *testing.T) {
	contentType, ext, ok := SniffImage(smallGIF)
	assert.True(t, ok)
	assert.Equal(t, "image/gif", contentType)
	assert.Equal(t, ".gif", ext)

	_, _, ok = SniffImage([]byte("just some text"))
	assert.False(t, ok)
}
