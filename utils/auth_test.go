package utils

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("secret", 7, "leo", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "leo", claims.Username)

	assert.Equal(t, "7", claims.Subject)

	_, err = ParseToken("other-secret", tok)
	assert.True(t, errors.Is(err, errors.Unauthorized))
}

func TestExpiredTokenIsRejected(t *testing.T) {
	tok, err := GenerateToken("secret", 7, "leo", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", tok)
	assert.True(t, errors.Is(err, errors.Unauthorized))
}

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist(NewMemoryStore(nil))

	assert.False(t, b.IsRevoked(ctx, "tok"))
	require.NoError(t, b.Revoke(ctx, "tok", time.Now().Add(time.Hour)))
	assert.True(t, b.IsRevoked(ctx, "tok"))

	require.NoError(t, b.Revoke(ctx, "old", time.Now().Add(-time.Hour)))
	assert.False(t, b.IsRevoked(ctx, "old"))
}

func TestOAuthStatesAreSingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewOAuthStates(NewMemoryStore(nil))

	require.NoError(t, s.Save(ctx, "state", "/follow/", time.Minute))
	next, ok := s.Consume(ctx, "state")
	assert.True(t, ok)
	assert.Equal(t, "/follow/", next)

	_, ok = s.Consume(ctx, "state")
	assert.False(t, ok)
	_, ok = s.Consume(ctx, "")
	assert.False(t, ok)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "password124"))
	assert.False(t, CheckPassword("", "password123"))
}

func TestCaptchaStoreConsumesAnswer(t *testing.T) {
	s := NewCaptchaStore(NewMemoryStore(nil), time.Minute)
	require.NoError(t, s.Set("id", "12345"))
	assert.False(t, s.Verify("id", "00000", false))
	assert.True(t, s.Verify("id", "12345", true))
	assert.False(t, s.Verify("id", "12345", true))
}

func TestRenderTextEscapesPlainText(t *testing.T) {
	assert.Equal(t, "if a&lt;b and c&gt;d then x &amp; y", RenderText("if a<b and c>d then x & y"))
	assert.Equal(t, "line one<br>line two", RenderText("line one\r\nline two"))
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;&lt;b&gt;bold", RenderText("<script>alert(1)</script><b>bold"))
}
