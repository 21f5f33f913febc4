package controllers

import (
	"bytes"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"gorm.io/gorm"

	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/monitoring"
	"github.com/yatube/yatube/services"
	"github.com/yatube/yatube/storage"
	"github.com/yatube/yatube/templates"
	"github.com/yatube/yatube/utils"
)

// PostController serves the feeds and the post, edit and comment pages.
type PostController struct {
	feed      *services.FeedService
	posts     *services.PostService
	groups    *services.GroupService
	follows   *services.FollowService
	blobs     storage.BlobStore
	fragments *utils.FragmentCache
	tmpl      *template.Template
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, pageSize int, tmpl *template.Template, blobs storage.BlobStore, fragments *utils.FragmentCache) *PostController {
	return &PostController{
		feed:      services.NewFeedService(db, pageSize),
		posts:     services.NewPostService(db),
		groups:    services.NewGroupService(db),
		follows:   services.NewFollowService(db),
		blobs:     blobs,
		fragments: fragments,
		tmpl:      tmpl,
	}
}

// Index shows the global timeline. The post list of the first page is served from the
// fragment cache, so posts published within the cache lifetime may not show up yet.
// Only the count runs on a cache hit; posts are loaded when the list is rendered.
func (p *PostController) Index(ctx *gin.Context) {
	rctx := ctx.Request.Context()
	feed, err := p.feed.Locate(rctx, services.Global(), ctx.Query("page"))
	if err != nil {
		fail(ctx, err)
		return
	}

	renderPosts := func() ([]byte, error) {
		if err := p.feed.Fill(rctx, feed); err != nil {
			return nil, err
		}
		return templates.Render(p.tmpl, templates.IndexPostsFragment, feed.Page)
	}
	var fragment []byte
	if feed.Page.Number == 1 {
		fragment, err = p.fragments.Fetch(rctx, utils.IndexPageFragment, renderPosts)
	} else {
		fragment, err = renderPosts()
	}
	if err != nil {
		fail(ctx, errors.Annotate(err, "render index posts"))
		return
	}

	render(ctx, http.StatusOK, "index.html", gin.H{
		"page":       feed.Page,
		"posts_html": template.HTML(fragment),
	})
}

// GroupPosts shows the posts filed under a group.
func (p *PostController) GroupPosts(ctx *gin.Context) {
	feed, err := p.feed.Load(ctx.Request.Context(), services.ByGroup(ctx.Param("slug")), ctx.Query("page"))
	if err != nil {
		fail(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "group.html", gin.H{
		"title": feed.Group.Title,
		"group": feed.Group,
		"page":  feed.Page,
	})
}

// NewPostForm shows an empty post form.
func (p *PostController) NewPostForm(ctx *gin.Context) {
	p.renderPostForm(ctx, nil, postForm{}, nil)
}

// CreatePost publishes a post and returns to the timeline, or shows the form again with errors.
func (p *PostController) CreatePost(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var form postForm
	in, errs := p.readPostForm(ctx, &form)
	if len(errs) > 0 {
		p.renderPostForm(ctx, nil, form, errs)
		return
	}
	if err := p.saveImage(ctx, &in); err != nil {
		fail(ctx, err)
		return
	}
	if _, err := p.posts.Create(ctx.Request.Context(), *user, in.PostInput); err != nil {
		p.discardImage(ctx, in)
		if errors.Is(err, errors.NotValid) {
			p.renderPostForm(ctx, nil, form, map[string]string{"text": msgRequired})
			return
		}
		fail(ctx, err)
		return
	}
	monitoring.PostsCreated.Inc()
	ctx.Redirect(http.StatusFound, "/")
}

// PostView shows one post with its comments and the comment form.
func (p *PostController) PostView(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	p.renderPost(ctx, post, commentForm{}, nil)
}

// EditForm shows the post form filled with the post. Only the author may edit;
// anybody else is sent back to the post.
func (p *PostController) EditForm(ctx *gin.Context) {
	if !p.isAuthorPath(ctx) {
		return
	}
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	form := postForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = utoa(*post.GroupID)
	}
	p.renderPostForm(ctx, post, form, nil)
}

// UpdatePost saves the author's changes and returns to the post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	if !p.isAuthorPath(ctx) {
		return
	}
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	var form postForm
	in, errs := p.readPostForm(ctx, &form)
	if len(errs) > 0 {
		p.renderPostForm(ctx, post, form, errs)
		return
	}
	if err := p.saveImage(ctx, &in); err != nil {
		fail(ctx, err)
		return
	}
	if in.image == nil && ctx.PostForm("image-clear") != "" {
		cleared := ""
		in.Image = &cleared
	}
	if err := p.posts.Update(ctx.Request.Context(), post, in.PostInput); err != nil {
		p.discardImage(ctx, in)
		if errors.Is(err, errors.NotValid) {
			p.renderPostForm(ctx, post, form, map[string]string{"text": msgRequired})
			return
		}
		fail(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
}

// CommentForm shows the bare comment form for a post.
func (p *PostController) CommentForm(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "comment.html", gin.H{"post": post, "form": commentForm{}})
}

// AddComment stores a comment and returns to the post.
func (p *PostController) AddComment(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	user := middleware.CurrentUser(ctx)

	var form commentForm
	errs := bindForm(ctx, &form)
	if len(errs) == 0 && strings.TrimSpace(form.Text) == "" {
		errs["text"] = msgRequired
	}
	if len(errs) > 0 {
		render(ctx, http.StatusOK, "comment.html", gin.H{"post": post, "form": form, "errors": errs})
		return
	}
	if _, err := p.posts.AddComment(ctx.Request.Context(), *post, *user, form.Text); err != nil {
		if errors.Is(err, errors.NotValid) {
			errs["text"] = msgRequired
			render(ctx, http.StatusOK, "comment.html", gin.H{"post": post, "form": form, "errors": errs})
			return
		}
		fail(ctx, err)
		return
	}
	monitoring.CommentsCreated.Inc()
	ctx.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
}

// ListPosts returns the global timeline as JSON.
func (p *PostController) ListPosts(ctx *gin.Context) {
	feed, err := p.feed.Load(ctx.Request.Context(), services.Global(), ctx.Query("page"))
	if err != nil {
		failJSON(ctx, err)
		return
	}
	items := make([]gin.H, 0, len(feed.Page.Items))
	for _, post := range feed.Page.Items {
		items = append(items, postJSON(post, p.blobs))
	}
	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        feed.Page.Number,
			"page_size":   feed.Page.PerPage,
			"total":       feed.Page.Total,
			"total_pages": feed.Page.NumPages,
		},
	})
}

func postJSON(post models.Post, blobs storage.BlobStore) gin.H {
	h := gin.H{
		"id":       post.ID,
		"text":     post.Text,
		"pub_date": post.PubDate,
		"author":   post.Author.Username,
		"group":    nil,
		"image":    nil,
	}
	if post.Group != nil {
		h["group"] = post.Group.Slug
	}
	if post.Image != "" {
		h["image"] = blobs.URL(post.Image)
	}
	return h
}

func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	id, ok := parseID(ctx.Param("post_id"))
	if !ok {
		NotFound(ctx)
		return nil, false
	}
	post, err := p.posts.Get(ctx.Request.Context(), ctx.Param("username"), id)
	if err != nil {
		fail(ctx, err)
		return nil, false
	}
	return post, true
}

// isAuthorPath redirects to the post unless the current user owns the URL's username.
func (p *PostController) isAuthorPath(ctx *gin.Context) bool {
	user := middleware.CurrentUser(ctx)
	username := ctx.Param("username")
	if user != nil && user.Username == username {
		return true
	}
	ctx.Redirect(http.StatusFound, "/"+url.PathEscape(username)+"/"+url.PathEscape(ctx.Param("post_id"))+"/")
	return false
}

func (p *PostController) renderPost(ctx *gin.Context, post *models.Post, form commentForm, errs map[string]string) {
	rctx := ctx.Request.Context()
	comments, err := p.posts.Comments(rctx, post.ID)
	if err != nil {
		fail(ctx, err)
		return
	}
	data, err := authorCard(ctx, p.posts, p.follows, post.Author)
	if err != nil {
		fail(ctx, err)
		return
	}
	user := middleware.CurrentUser(ctx)
	data["title"] = post.Author.Username
	data["post"] = post
	data["comments"] = comments
	data["form"] = form
	data["errors"] = errs
	data["can_edit"] = user != nil && user.ID == post.AuthorID
	render(ctx, http.StatusOK, "post.html", data)
}

func (p *PostController) renderPostForm(ctx *gin.Context, post *models.Post, form postForm, errs map[string]string) {
	groups, err := p.groups.List(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	data := gin.H{
		"title":  "New post",
		"form":   form,
		"groups": groups,
		"errors": errs,
	}
	if post != nil {
		data["title"] = "Edit post"
		data["post"] = post
	}
	render(ctx, http.StatusOK, "new_post.html", data)
}

// postSubmission is a validated post form whose image has not been stored yet.
type postSubmission struct {
	services.PostInput
	image     []byte
	imageName string
	imageType string
	saved     bool
}

// readPostForm validates text, group and image. Nothing is stored.
func (p *PostController) readPostForm(ctx *gin.Context, form *postForm) (postSubmission, map[string]string) {
	var in postSubmission
	errs := bindForm(ctx, form)
	form.Text = strings.TrimSpace(form.Text)
	if _, bad := errs["text"]; !bad && form.Text == "" {
		errs["text"] = msgRequired
	}
	in.Text = form.Text

	if raw := strings.TrimSpace(form.Group); raw != "" {
		id, ok := parseID(raw)
		if ok {
			if _, err := p.groups.Get(ctx.Request.Context(), id); err != nil {
				ok = false
			}
		}
		if ok {
			in.GroupID = &id
		} else {
			errs["group"] = msgInvalidGroup
		}
	}

	header, err := ctx.FormFile("image")
	if err != nil {
		return in, errs
	}
	f, err := header.Open()
	if err != nil {
		errs["image"] = msgInvalidImage
		return in, errs
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	switch {
	case err != nil:
		errs["image"] = msgInvalidImage
	case len(data) > maxImageSize:
		errs["image"] = msgImageTooBig
	default:
		contentType, ext, ok := storage.SniffImage(data)
		if !ok {
			errs["image"] = msgInvalidImage
			break
		}
		name := header.Filename
		if !strings.EqualFold(path.Ext(name), ext) {
			name = strings.TrimSuffix(name, path.Ext(name)) + ext
		}
		in.image, in.imageName, in.imageType = data, name, contentType
	}
	return in, errs
}

func (p *PostController) saveImage(ctx *gin.Context, in *postSubmission) error {
	if in.image == nil {
		return nil
	}
	rel, err := p.blobs.Save(ctx.Request.Context(), storage.PostImagesDir, in.imageName, bytes.NewReader(in.image), in.imageType)
	if err != nil {
		return errors.Annotate(err, "store image")
	}
	in.Image = &rel
	in.saved = true
	return nil
}

// discardImage removes an image stored for a submission that was then rejected.
func (p *PostController) discardImage(ctx *gin.Context, in postSubmission) {
	if !in.saved || in.Image == nil {
		return
	}
	if err := p.blobs.Delete(ctx.Request.Context(), *in.Image); err != nil {
		utils.Sugar.Warnf("discard image path=%s err=%v", *in.Image, err)
	}
}
