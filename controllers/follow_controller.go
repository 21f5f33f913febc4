package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/monitoring"
	"github.com/yatube/yatube/services"
)

// FollowController serves author profiles, the following feed and follow actions.
type FollowController struct {
	feed    *services.FeedService
	posts   *services.PostService
	follows *services.FollowService
}

func NewFollowController(db *gorm.DB, pageSize int) *FollowController {
	return &FollowController{
		feed:    services.NewFeedService(db, pageSize),
		posts:   services.NewPostService(db),
		follows: services.NewFollowService(db),
	}
}

// Profile shows an author's posts with the follow button for other logged-in users.
func (f *FollowController) Profile(ctx *gin.Context) {
	feed, err := f.feed.Load(ctx.Request.Context(), services.ByAuthor(ctx.Param("username")), ctx.Query("page"))
	if err != nil {
		fail(ctx, err)
		return
	}
	data, err := authorCard(ctx, f.posts, f.follows, *feed.Author)
	if err != nil {
		fail(ctx, err)
		return
	}
	data["title"] = feed.Author.Username
	data["page"] = feed.Page
	render(ctx, http.StatusOK, "profile.html", data)
}

// FollowIndex shows posts of the authors the current user follows.
func (f *FollowController) FollowIndex(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	feed, err := f.feed.Load(ctx.Request.Context(), services.ByFollowing(user.ID), ctx.Query("page"))
	if err != nil {
		fail(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "follow_index.html", gin.H{
		"title": "Following",
		"page":  feed.Page,
	})
}

// Follow subscribes the current user to an author and goes to the following feed.
func (f *FollowController) Follow(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	created, err := f.follows.Follow(ctx.Request.Context(), *user, ctx.Param("username"))
	if err != nil {
		fail(ctx, err)
		return
	}
	if created {
		monitoring.FollowChanges.WithLabelValues("follow").Inc()
	}
	ctx.Redirect(http.StatusFound, "/follow/")
}

// Unfollow drops the subscription, if any, and goes to the following feed.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	removed, err := f.follows.Unfollow(ctx.Request.Context(), *user, ctx.Param("username"))
	if err != nil {
		fail(ctx, err)
		return
	}
	if removed {
		monitoring.FollowChanges.WithLabelValues("unfollow").Inc()
	}
	ctx.Redirect(http.StatusFound, "/follow/")
}

// authorCard collects the author sidebar shown on profile and post pages.
func authorCard(ctx *gin.Context, posts *services.PostService, follows *services.FollowService, author models.User) (gin.H, error) {
	rctx := ctx.Request.Context()
	count, err := posts.CountByAuthor(rctx, author.ID)
	if err != nil {
		return nil, err
	}
	followers, following, err := follows.Counts(rctx, author.ID)
	if err != nil {
		return nil, err
	}
	user := middleware.CurrentUser(ctx)
	isFollowing, err := follows.IsFollowing(rctx, user, author)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"author":       author,
		"posts_count":  count,
		"followers":    followers,
		"following":    following,
		"is_following": isFollowing,
		"show_follow":  user != nil && user.ID != author.ID,
	}, nil
}
