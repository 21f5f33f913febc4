package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/new/":                "/new/",
		"/leo/3/?page=2":       "/leo/3/?page=2",
		"//evil.example.com/":  "/",
		"/\\evil.example.com":  "/",
		"https://evil.example": "/",
		"relative/path":        "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), in)
	}
}

func TestParseID(t *testing.T) {
	id, ok := parseID("42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		_, ok := parseID(raw)
		assert.False(t, ok, raw)
	}
}

func bindSignup(values url.Values) map[string]string {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/auth/signup/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ctx.Request = req
	var form signupForm
	return bindForm(ctx, &form)
}

func TestBindFormKeysErrorsByFormField(t *testing.T) {
	errs := bindSignup(url.Values{
		"email":     {"not-an-email"},
		"password1": {"short"},
		"password2": {"different"},
	})
	assert.Equal(t, msgRequired, errs["username"])
	assert.Equal(t, "Enter a valid email address.", errs["email"])
	assert.Equal(t, "Ensure this value has at least 8 characters.", errs["password1"])
	assert.Equal(t, "The two password fields didn't match.", errs["password2"])

	errs = bindSignup(url.Values{
		"username":  {"leo"},
		"password1": {"password123"},
		"password2": {"password123"},
	})
	assert.Empty(t, errs)
}
