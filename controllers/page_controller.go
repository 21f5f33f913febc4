package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/utils"
)

// PageController serves the static about pages and the health check.
type PageController struct {
	db *gorm.DB
}

func NewPageController(db *gorm.DB) *PageController {
	return &PageController{db: db}
}

func (p *PageController) AboutAuthor(ctx *gin.Context) {
	render(ctx, http.StatusOK, "author.html", gin.H{"title": "About the author"})
}

func (p *PageController) AboutTech(ctx *gin.Context) {
	render(ctx, http.StatusOK, "tech.html", gin.H{"title": "Technologies"})
}

// Health reports whether the database answers.
func (p *PageController) Health(ctx *gin.Context) {
	sqlDB, err := p.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx.Request.Context())
	}
	if err != nil {
		utils.Error(ctx, http.StatusServiceUnavailable, 50300, "database unavailable")
		return
	}
	utils.Success(ctx, gin.H{"status": "ok"})
}
