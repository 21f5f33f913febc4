package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/utils"
)

// render executes a page template with the current user added to data.
func render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user := middleware.CurrentUser(ctx); user != nil {
		data["user"] = user
	}
	ctx.HTML(status, name, data)
}

// NotFound renders the not-found page with status 404.
func NotFound(ctx *gin.Context) {
	render(ctx, http.StatusNotFound, "404.html", gin.H{
		"title": "Page not found",
		"path":  ctx.Request.URL.Path,
	})
}

// ServerError renders the generic failure page with status 500.
func ServerError(ctx *gin.Context) {
	render(ctx, http.StatusInternalServerError, "500.html", gin.H{"title": "Server error"})
}

// fail maps a service error onto a page: NotFound becomes 404, anything else 500.
func fail(ctx *gin.Context, err error) {
	if errors.Is(err, errors.NotFound) {
		NotFound(ctx)
		return
	}
	utils.Logger.Error("request failed",
		zap.String("path", ctx.Request.URL.Path),
		zap.String("error", errors.ErrorStack(err)))
	_ = ctx.Error(err)
	ServerError(ctx)
}

// failJSON is fail for the JSON API.
func failJSON(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, errors.NotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, err.Error())
	case errors.Is(err, errors.NotValid):
		utils.Error(ctx, http.StatusBadRequest, 40000, err.Error())
	case errors.Is(err, errors.AlreadyExists):
		utils.Error(ctx, http.StatusConflict, 40900, err.Error())
	case errors.Is(err, errors.Unauthorized):
		utils.Error(ctx, http.StatusUnauthorized, 40100, err.Error())
	default:
		utils.Logger.Error("api request failed",
			zap.String("path", ctx.Request.URL.Path),
			zap.String("error", errors.ErrorStack(err)))
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal error")
	}
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}

func postURL(username string, id uint) string {
	return "/" + url.PathEscape(username) + "/" + utoa(id) + "/"
}
