package utils

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiresEntries(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s := NewMemoryStore(clk)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 20*time.Second))
	clk.Advance(19 * time.Second)
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	clk.Advance(time.Second)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreWithoutTTLKeepsEntry(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewClock(time.Now())
	s := NewMemoryStore(clk)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	clk.Advance(24 * time.Hour)
	_, ok, _ := s.Get(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryStoreCopiesValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'
	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestMemoryStoreDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), time.Minute))

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, _ := s.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, s.Clear(ctx))
	_, ok, _ = s.Get(ctx, "b")
	assert.False(t, ok)
}
