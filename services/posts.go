package services

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"github.com/yatube/yatube/models"
)

// PostInput carries the author-editable fields of a post.
// Image nil leaves the current image alone; an empty string clears it.
type PostInput struct {
	Text    string
	GroupID *uint
	Image   *string
}

// PostService creates, edits and reads single posts and their comments.
type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

// Create publishes a post by author. Text is stored as written, minus surrounding whitespace.
func (s *PostService) Create(ctx context.Context, author models.User, in PostInput) (*models.Post, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, errors.NotValidf("empty post text")
	}
	post := models.Post{
		Text:     text,
		AuthorID: author.ID,
		GroupID:  in.GroupID,
	}
	if in.Image != nil {
		post.Image = *in.Image
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, errors.Annotate(err, "create post")
	}
	post.Author = author
	return &post, nil
}

// Update changes text, group and image only; pub_date and author stay as they were.
func (s *PostService) Update(ctx context.Context, post *models.Post, in PostInput) error {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return errors.NotValidf("empty post text")
	}
	image := post.Image
	if in.Image != nil {
		image = *in.Image
	}

	var groupID interface{}
	if in.GroupID != nil {
		groupID = *in.GroupID
	}
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     text,
			"group_id": groupID,
			"image":    image,
		}).Error
	if err != nil {
		return errors.Annotate(err, "update post")
	}

	post.Text = text
	post.GroupID = in.GroupID
	post.Image = image
	post.Group = nil
	if in.GroupID != nil {
		var g models.Group
		if err := s.db.WithContext(ctx).First(&g, *in.GroupID).Error; err == nil {
			post.Group = &g
		}
	}
	return nil
}

// Get loads post id if it was written by username; anything else is NotFound.
func (s *PostService) Get(ctx context.Context, username string, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.id = ? AND users.username = ?", id, username).
		First(&post).Error
	if err != nil {
		return nil, notFound(err, "post %d by %q", id, username)
	}
	return &post, nil
}

// CountByAuthor is the number of posts written by authorID.
func (s *PostService) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&n).Error; err != nil {
		return 0, errors.Trace(err)
	}
	return n, nil
}

// AddComment stores a comment by author on post.
func (s *PostService) AddComment(ctx context.Context, post models.Post, author models.User, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NotValidf("empty comment text")
	}
	comment := models.Comment{Text: text, PostID: post.ID, AuthorID: author.ID}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, errors.Annotate(err, "create comment")
	}
	comment.Author = author
	return &comment, nil
}

// Comments lists the comments on postID, oldest first.
func (s *PostService) Comments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return comments, nil
}
