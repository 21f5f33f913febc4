package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/services"
	"github.com/yatube/yatube/utils"
)

// AdminController exposes group management, account removal and cache control as JSON.
type AdminController struct {
	groups    *services.GroupService
	accounts  *services.AccountService
	fragments *utils.FragmentCache
}

func NewAdminController(db *gorm.DB, fragments *utils.FragmentCache) *AdminController {
	return &AdminController{
		groups:    services.NewGroupService(db),
		accounts:  services.NewAccountService(db),
		fragments: fragments,
	}
}

// ListGroups returns every group.
func (a *AdminController) ListGroups(ctx *gin.Context) {
	groups, err := a.groups.List(ctx.Request.Context())
	if err != nil {
		failJSON(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": groups})
}

// CreateGroup adds a group.
func (a *AdminController) CreateGroup(ctx *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required,max=200"`
		Slug        string `json:"slug" binding:"required,max=50"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	group, err := a.groups.Create(ctx.Request.Context(), req.Title, req.Slug, req.Description)
	if err != nil {
		failJSON(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"group": group})
}

// DeleteGroup removes a group; its posts remain without a group.
func (a *AdminController) DeleteGroup(ctx *gin.Context) {
	if err := a.groups.Delete(ctx.Request.Context(), ctx.Param("slug")); err != nil {
		failJSON(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "group deleted"})
}

// DeleteUser removes an account with its posts, comments and follow edges.
func (a *AdminController) DeleteUser(ctx *gin.Context) {
	if err := a.accounts.Delete(ctx.Request.Context(), ctx.Param("username")); err != nil {
		failJSON(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "user deleted"})
}

// ClearCache drops every cached page fragment.
func (a *AdminController) ClearCache(ctx *gin.Context) {
	if err := a.fragments.Clear(ctx.Request.Context()); err != nil {
		failJSON(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "cache cleared"})
}
