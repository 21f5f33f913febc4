package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

const (
	// ContextUserKey stores the *models.User of an authenticated request.
	ContextUserKey = "current_user"
	// ContextTokenKey stores the bearer token the request was authenticated with, if any.
	ContextTokenKey = "bearer_token"

	SessionName      = "yatube_session"
	sessionUserIDKey = "user_id"

	// LoginPath is where unauthenticated visitors are sent, with ?next= pointing back.
	LoginPath = "/auth/login/"
)

// NewSessionStore creates the signed cookie store holding browser logins.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   14 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Identify resolves the current user: a valid, unrevoked bearer token first, then the
// session cookie. Requests that match neither carry on anonymously.
func Identify(db *gorm.DB, store sessions.Store, secret string, blacklist *utils.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token := BearerToken(ctx); token != "" {
			if blacklist.IsRevoked(ctx.Request.Context(), token) {
				ctx.Next()
				return
			}
			claims, err := utils.ParseToken(secret, token)
			if err == nil {
				if user := loadUser(ctx, db, claims.UserID); user != nil {
					ctx.Set(ContextUserKey, user)
					ctx.Set(ContextTokenKey, token)
				}
			}
			ctx.Next()
			return
		}

		session, err := store.Get(ctx.Request, SessionName)
		if err == nil {
			if id, ok := session.Values[sessionUserIDKey].(uint); ok {
				if user := loadUser(ctx, db, id); user != nil {
					ctx.Set(ContextUserKey, user)
				}
			}
		}
		ctx.Next()
	}
}

func loadUser(ctx *gin.Context, db *gorm.DB, id uint) *models.User {
	var user models.User
	if err := db.WithContext(ctx.Request.Context()).First(&user, id).Error; err != nil {
		return nil
	}
	return &user
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(ctx *gin.Context) string {
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentUser returns the authenticated user or nil for anonymous requests.
func CurrentUser(ctx *gin.Context) *models.User {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// StartSession logs user in for subsequent browser requests.
func StartSession(ctx *gin.Context, store sessions.Store, user models.User) error {
	session, _ := store.Get(ctx.Request, SessionName)
	session.Values[sessionUserIDKey] = user.ID
	return session.Save(ctx.Request, ctx.Writer)
}

// EndSession drops the session cookie.
func EndSession(ctx *gin.Context, store sessions.Store) error {
	session, _ := store.Get(ctx.Request, SessionName)
	delete(session.Values, sessionUserIDKey)
	session.Options.MaxAge = -1
	return session.Save(ctx.Request, ctx.Writer)
}

// LoginURL is the login page address that returns to next afterwards.
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// LoginRequired redirects anonymous visitors to the login page, remembering where they were going.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if CurrentUser(ctx) == nil {
			ctx.Redirect(http.StatusFound, LoginURL(ctx.Request.URL.RequestURI()))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// AuthRequired rejects anonymous API requests with a JSON 401.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if CurrentUser(ctx) == nil {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// AdminRequired lets through only users listed as administrators.
func AdminRequired(cfg config.AppConfig) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user := CurrentUser(ctx)
		if user == nil {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
			ctx.Abort()
			return
		}
		if !cfg.IsAdmin(user.Username) {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin only")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
