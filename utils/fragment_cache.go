package utils

import (
	"context"
	"time"

	"github.com/yatube/yatube/monitoring"
)

// IndexPageFragment names the cached post list of the global timeline.
const IndexPageFragment = "index_page"

// FragmentCache stores rendered page fragments under fixed names for a fixed TTL.
// Entries are replaced wholesale and only disappear on expiry or Clear; writes to the
// underlying data do not invalidate them.
type FragmentCache struct {
	store Store
	ttl   time.Duration
}

// NewFragmentCache wraps store with the given fragment lifetime.
func NewFragmentCache(store Store, ttl time.Duration) *FragmentCache {
	return &FragmentCache{store: store, ttl: ttl}
}

func fragmentKey(name string) string {
	return "template.cache." + name
}

// Fetch returns the cached fragment, or renders, stores and returns a fresh one.
// A failing store degrades to rendering on every call.
func (f *FragmentCache) Fetch(ctx context.Context, name string, render func() ([]byte, error)) ([]byte, error) {
	key := fragmentKey(name)
	b, ok, err := f.store.Get(ctx, key)
	if err != nil {
		Sugar.Warnf("fragment cache get failed key=%s err=%v", key, err)
	}
	if ok {
		monitoring.FragmentCacheLookups.WithLabelValues(name, "hit").Inc()
		return b, nil
	}
	monitoring.FragmentCacheLookups.WithLabelValues(name, "miss").Inc()

	b, err = render()
	if err != nil {
		return nil, err
	}
	if err := f.store.Set(ctx, key, b, f.ttl); err != nil {
		Sugar.Warnf("fragment cache set failed key=%s err=%v", key, err)
	}
	return b, nil
}

// Clear drops every cached fragment.
func (f *FragmentCache) Clear(ctx context.Context) error {
	return f.store.Clear(ctx)
}
