package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentCacheServesStaleUntilExpiry(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewClock(time.Now())
	fc := NewFragmentCache(NewMemoryStore(clk), 20*time.Second)

	version := "first"
	calls := 0
	renderFn := func() ([]byte, error) {
		calls++
		return []byte(version), nil
	}

	got, err := fc.Fetch(ctx, IndexPageFragment, renderFn)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	version = "second"
	got, err = fc.Fetch(ctx, IndexPageFragment, renderFn)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
	assert.Equal(t, 1, calls)

	clk.Advance(20 * time.Second)
	got, err = fc.Fetch(ctx, IndexPageFragment, renderFn)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
	assert.Equal(t, 2, calls)
}

// peek reads a cached fragment without rendering.
func peek(ctx context.Context, f *FragmentCache, name string) ([]byte, bool) {
	b, ok, err := f.store.Get(ctx, fragmentKey(name))
	if err != nil {
		return nil, false
	}
	return b, ok
}

func TestFragmentCacheClear(t *testing.T) {
	ctx := context.Background()
	fc := NewFragmentCache(NewMemoryStore(nil), time.Minute)

	_, err := fc.Fetch(ctx, IndexPageFragment, func() ([]byte, error) { return []byte("old"), nil })
	require.NoError(t, err)
	cached, ok := peek(ctx, fc, IndexPageFragment)
	require.True(t, ok)
	assert.Equal(t, "old", string(cached))

	require.NoError(t, fc.Clear(ctx))
	_, ok = peek(ctx, fc, IndexPageFragment)
	assert.False(t, ok)

	got, err := fc.Fetch(ctx, IndexPageFragment, func() ([]byte, error) { return []byte("new"), nil })
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestFragmentCacheDoesNotStoreRenderErrors(t *testing.T) {
	ctx := context.Background()
	fc := NewFragmentCache(NewMemoryStore(nil), time.Minute)

	_, err := fc.Fetch(ctx, IndexPageFragment, func() ([]byte, error) { return nil, errors.New("boom") })
	require.Error(t, err)
	_, ok := peek(ctx, fc, IndexPageFragment)
	assert.False(t, ok)
}
