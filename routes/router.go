package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/controllers"
	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/monitoring"
	"github.com/yatube/yatube/storage"
	"github.com/yatube/yatube/templates"
	"github.com/yatube/yatube/utils"
)

// Deps are the collaborators the router wires into controllers.
type Deps struct {
	DB     *gorm.DB
	Config config.AppConfig
	Stores utils.Stores
	Blobs  storage.BlobStore
	// AccessLog receives one line per request; utils.Logger when nil.
	AccessLog *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	accessLog := d.AccessLog
	if accessLog == nil {
		accessLog = utils.Logger
	}

	tmpl := templates.Must(d.Blobs.URL)
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, true, controllers.ServerError))
	r.Use(monitoring.Instrument())

	blacklist := utils.NewTokenBlacklist(d.Stores.Revoked)
	sessionStore := middleware.NewSessionStore(cfg.SecretKey, strings.HasPrefix(cfg.OAuthRedirectBase, "https://"))
	r.Use(middleware.Identify(d.DB, sessionStore, cfg.SecretKey, blacklist))

	r.Static("/static", "./static")
	if local, ok := d.Blobs.(*storage.LocalStore); ok && strings.HasPrefix(cfg.MediaURL, "/") {
		r.Static(strings.TrimSuffix(cfg.MediaURL, "/"), local.Root())
	}

	fragments := utils.NewFragmentCache(d.Stores.Fragments, time.Duration(cfg.IndexCacheTTLSeconds)*time.Second)
	var captcha *utils.Captcha
	if cfg.RegisterCaptchaEnabled {
		captcha = utils.NewCaptcha(utils.NewCaptchaStore(d.Stores.Captcha, 10*time.Minute))
	}

	postController := controllers.NewPostController(d.DB, cfg.PageSize, tmpl, d.Blobs, fragments)
	followController := controllers.NewFollowController(d.DB, cfg.PageSize)
	authController := controllers.NewAuthController(d.DB, cfg, sessionStore, blacklist, utils.NewOAuthStates(d.Stores.OAuthState), captcha)
	adminController := controllers.NewAdminController(d.DB, fragments)
	pageController := controllers.NewPageController(d.DB)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	login := middleware.LoginRequired()

	r.GET("/health", pageController.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/about/author/", pageController.AboutAuthor)
	r.GET("/about/tech/", pageController.AboutTech)

	authGroup := r.Group("/auth")
	authGroup.GET("/login/", authController.LoginForm)
	authGroup.POST("/login/", limiter.Middleware(), authController.Login)
	authGroup.GET("/signup/", authController.SignupForm)
	authGroup.POST("/signup/", limiter.Middleware(), authController.Signup)
	authGroup.GET("/logout/", authController.Logout)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)

	r.GET("/", postController.Index)
	r.GET("/group/:slug/", postController.GroupPosts)
	r.GET("/new/", login, postController.NewPostForm)
	r.POST("/new/", login, postController.CreatePost)
	r.GET("/follow/", login, followController.FollowIndex)

	r.GET("/:username/", followController.Profile)
	r.GET("/:username/follow/", login, followController.Follow)
	r.GET("/:username/unfollow/", login, followController.Unfollow)
	r.GET("/:username/:post_id/", postController.PostView)
	r.GET("/:username/:post_id/edit/", login, postController.EditForm)
	r.POST("/:username/:post_id/edit/", login, postController.UpdatePost)
	r.GET("/:username/:post_id/comment/", login, postController.CommentForm)
	r.POST("/:username/:post_id/comment/", login, postController.AddComment)

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// browsers reject credentials with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	api := r.Group("/api/v1")
	api.Use(cors.New(corsCfg))
	api.POST("/auth/token", limiter.Middleware(), authController.IssueToken)
	api.POST("/auth/logout", middleware.AuthRequired(), authController.RevokeToken)
	api.GET("/auth/me", middleware.AuthRequired(), authController.Me)
	api.GET("/posts", postController.ListPosts)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired(cfg))
	admin.GET("/groups", adminController.ListGroups)
	admin.POST("/groups", adminController.CreateGroup)
	admin.DELETE("/groups/:slug", adminController.DeleteGroup)
	admin.DELETE("/users/:username", adminController.DeleteUser)
	admin.POST("/cache/clear", adminController.ClearCache)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		controllers.NotFound(ctx)
	})

	return r
}
