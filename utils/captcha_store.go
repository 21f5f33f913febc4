package utils

import (
	"context"
	"strings"
	"time"

	"github.com/mojocn/base64Captcha"
)

// storeCaptcha adapts a Store to base64Captcha.Store so answers survive across instances
// when the Redis backend is configured.
type storeCaptcha struct {
	store Store
	ttl   time.Duration
}

// NewCaptchaStore wraps store; answers expire after ttl (10 minutes when ttl <= 0).
func NewCaptchaStore(store Store, ttl time.Duration) base64Captcha.Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &storeCaptcha{store: store, ttl: ttl}
}

func (s *storeCaptcha) Set(id string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.store.Set(ctx, id, []byte(value), s.ttl)
}

func (s *storeCaptcha) Get(id string, clear bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, ok, err := s.store.Get(ctx, id)
	if err != nil || !ok {
		return ""
	}
	if clear {
		_ = s.store.Delete(ctx, id)
	}
	return string(b)
}

func (s *storeCaptcha) Verify(id, answer string, clear bool) bool {
	if id == "" || answer == "" {
		return false
	}
	v := s.Get(id, clear)
	return v != "" && strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(answer))
}
