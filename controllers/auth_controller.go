package controllers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/juju/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/monitoring"
	"github.com/yatube/yatube/services"
	"github.com/yatube/yatube/utils"
)

const tokenLifetime = 72 * time.Hour

// AuthController handles signup, login and logout for browsers and the token API,
// including third-party providers.
type AuthController struct {
	cfg       config.AppConfig
	accounts  *services.AccountService
	sessions  sessions.Store
	blacklist *utils.TokenBlacklist
	states    *utils.OAuthStates
	captcha   *utils.Captcha
}

// NewAuthController creates an AuthController. captcha may be nil when signup captchas are off.
func NewAuthController(db *gorm.DB, cfg config.AppConfig, store sessions.Store, blacklist *utils.TokenBlacklist, states *utils.OAuthStates, captcha *utils.Captcha) *AuthController {
	return &AuthController{
		cfg:       cfg,
		accounts:  services.NewAccountService(db),
		sessions:  store,
		blacklist: blacklist,
		states:    states,
		captcha:   captcha,
	}
}

// LoginForm shows the login page.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	a.renderLogin(ctx, loginForm{Next: ctx.Query("next")}, nil)
}

// Login checks credentials, starts a session and continues to ?next=.
func (a *AuthController) Login(ctx *gin.Context) {
	var form loginForm
	errs := bindForm(ctx, &form)
	if len(errs) > 0 {
		a.renderLogin(ctx, form, errs)
		return
	}
	user, err := a.accounts.Authenticate(ctx.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, errors.Unauthorized) {
			monitoring.LoginFailure.WithLabelValues("credentials").Inc()
			a.renderLogin(ctx, form, map[string]string{
				"form": "Please enter a correct username and password. Note that both fields may be case-sensitive.",
			})
			return
		}
		fail(ctx, err)
		return
	}
	if err := middleware.StartSession(ctx, a.sessions, *user); err != nil {
		fail(ctx, errors.Annotate(err, "start session"))
		return
	}
	ctx.Redirect(http.StatusFound, safeNext(form.Next))
}

// Logout ends the browser session and revokes the bearer token the request carried.
func (a *AuthController) Logout(ctx *gin.Context) {
	if err := middleware.EndSession(ctx, a.sessions); err != nil {
		utils.Sugar.Warnf("end session: %v", err)
	}
	a.revokeBearer(ctx)
	ctx.Redirect(http.StatusFound, "/")
}

// SignupForm shows the registration page.
func (a *AuthController) SignupForm(ctx *gin.Context) {
	a.renderSignup(ctx, signupForm{}, nil)
}

// Signup creates a local account and logs it in.
func (a *AuthController) Signup(ctx *gin.Context) {
	var form signupForm
	errs := bindForm(ctx, &form)
	form.Username = strings.TrimSpace(form.Username)
	if _, bad := errs["username"]; !bad && !services.ValidUsername(form.Username) {
		errs["username"] = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	if a.captcha != nil && !a.captcha.Verify(form.CaptchaID, form.CaptchaAnswer) {
		errs["captcha_answer"] = "Wrong captcha answer."
	}
	if len(errs) > 0 {
		a.renderSignup(ctx, form, errs)
		return
	}

	user, err := a.accounts.Signup(ctx.Request.Context(), form.Username, form.Email, form.Password1)
	switch {
	case errors.Is(err, errors.AlreadyExists):
		a.renderSignup(ctx, form, map[string]string{"username": "A user with that username already exists."})
		return
	case errors.Is(err, errors.NotValid):
		a.renderSignup(ctx, form, map[string]string{"form": err.Error()})
		return
	case err != nil:
		fail(ctx, err)
		return
	}
	if err := middleware.StartSession(ctx, a.sessions, *user); err != nil {
		fail(ctx, errors.Annotate(err, "start session"))
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// IssueToken exchanges a username and password for a JWT.
func (a *AuthController) IssueToken(ctx *gin.Context) {
	var req loginForm
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	user, err := a.accounts.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errors.Unauthorized) {
			monitoring.LoginFailure.WithLabelValues("credentials").Inc()
		}
		failJSON(ctx, err)
		return
	}
	token, err := utils.GenerateToken(a.cfg.SecretKey, user.ID, user.Username, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": a.userResponse(*user)})
}

// RevokeToken blacklists the bearer token of the request until it expires.
func (a *AuthController) RevokeToken(ctx *gin.Context) {
	if !a.revokeBearer(ctx) {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	utils.Success(ctx, a.userResponse(*middleware.CurrentUser(ctx)))
}

func (a *AuthController) revokeBearer(ctx *gin.Context) bool {
	token := middleware.BearerToken(ctx)
	if token == "" {
		return false
	}
	claims, err := utils.ParseToken(a.cfg.SecretKey, token)
	if err != nil {
		return false
	}
	expiresAt := time.Now().Add(tokenLifetime)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := a.blacklist.Revoke(ctx.Request.Context(), token, expiresAt); err != nil {
		utils.Sugar.Warnf("revoke token: %v", err)
		return false
	}
	return true
}

func (a *AuthController) userResponse(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"provider":   user.Provider,
		"avatar_url": user.AvatarURL,
		"created_at": user.CreatedAt,
		"is_admin":   a.cfg.IsAdmin(user.Username),
	}
}

func (a *AuthController) renderLogin(ctx *gin.Context, form loginForm, errs map[string]string) {
	var providers []string
	for _, p := range []string{"github", "google"} {
		if _, err := a.oauthConfig(p); err == nil {
			providers = append(providers, p)
		}
	}
	render(ctx, http.StatusOK, "login.html", gin.H{
		"title":           "Log in",
		"form":            form,
		"next":            form.Next,
		"errors":          errs,
		"oauth_providers": providers,
	})
}

func (a *AuthController) renderSignup(ctx *gin.Context, form signupForm, errs map[string]string) {
	data := gin.H{
		"title":  "Sign up",
		"form":   form,
		"errors": errs,
	}
	if a.captcha != nil {
		id, image, err := a.captcha.Generate()
		if err != nil {
			fail(ctx, errors.Annotate(err, "generate captcha"))
			return
		}
		data["captcha_id"] = id
		// data: URI produced by the captcha library
		data["captcha_image"] = template.URL(image)
	}
	render(ctx, http.StatusOK, "signup.html", data)
}

// OAuthRedirect sends the browser to the provider's consent page.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	cfg, err := a.oauthConfig(ctx.Param("provider"))
	if err != nil {
		NotFound(ctx)
		return
	}
	state := uuid.NewString()
	if err := a.states.Save(ctx.Request.Context(), state, safeNext(ctx.Query("next")), 10*time.Minute); err != nil {
		fail(ctx, errors.Annotate(err, "save oauth state"))
		return
	}
	ctx.Redirect(http.StatusFound, cfg.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// OAuthCallback exchanges the authorization code, signs the user in and continues to the saved page.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	cfg, err := a.oauthConfig(provider)
	if err != nil {
		NotFound(ctx)
		return
	}
	next, ok := a.states.Consume(ctx.Request.Context(), state)
	if code == "" || !ok {
		monitoring.LoginFailure.WithLabelValues("oauth_state").Inc()
		ctx.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	token, err := cfg.Exchange(ctx.Request.Context(), code)
	if err != nil {
		monitoring.LoginFailure.WithLabelValues("oauth_exchange").Inc()
		utils.Sugar.Warnf("oauth exchange provider=%s err=%v", provider, err)
		ctx.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}
	ident, err := fetchOAuthUser(ctx, cfg, provider, token)
	if err != nil {
		fail(ctx, err)
		return
	}
	user, err := a.accounts.FindOrCreateOAuth(ctx.Request.Context(), provider, *ident)
	if err != nil {
		fail(ctx, err)
		return
	}
	if err := middleware.StartSession(ctx, a.sessions, *user); err != nil {
		fail(ctx, errors.Annotate(err, "start session"))
		return
	}
	ctx.Redirect(http.StatusFound, safeNext(next))
}

func (a *AuthController) oauthConfig(provider string) (*oauth2.Config, error) {
	cfg := a.cfg
	switch strings.ToLower(provider) {
	case "github":
		if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
			return nil, errors.NotSupportedf("github oauth")
		}
		return &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  fmt.Sprintf("%s/auth/oauth/github/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	case "google":
		if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
			return nil, errors.NotSupportedf("google oauth")
		}
		return &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  fmt.Sprintf("%s/auth/oauth/google/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	default:
		return nil, errors.NotSupportedf("provider %q", provider)
	}
}

func fetchOAuthUser(ctx *gin.Context, cfg *oauth2.Config, provider string, token *oauth2.Token) (*services.OAuthIdentity, error) {
	client := cfg.Client(ctx.Request.Context(), token)
	switch provider {
	case "github":
		var payload struct {
			ID        int64  `json:"id"`
			Login     string `json:"login"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := getJSON(client, "https://api.github.com/user", &payload); err != nil {
			return nil, errors.Annotate(err, "github user")
		}
		return &services.OAuthIdentity{
			ID:        fmt.Sprintf("%d", payload.ID),
			Username:  payload.Login,
			Email:     payload.Email,
			AvatarURL: payload.AvatarURL,
		}, nil
	case "google":
		var payload struct {
			ID      string `json:"id"`
			Email   string `json:"email"`
			Picture string `json:"picture"`
		}
		if err := getJSON(client, "https://www.googleapis.com/oauth2/v2/userinfo", &payload); err != nil {
			return nil, errors.Annotate(err, "google user")
		}
		return &services.OAuthIdentity{
			ID:        payload.ID,
			Username:  strings.Split(payload.Email, "@")[0],
			Email:     payload.Email,
			AvatarURL: payload.Picture,
		}, nil
	}
	return nil, errors.NotSupportedf("provider %q", provider)
}

func getJSON(client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
