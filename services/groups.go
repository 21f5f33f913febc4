package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"github.com/yatube/yatube/models"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// GroupService manages groups. Only administrators create or delete them.
type GroupService struct {
	db *gorm.DB
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{db: db}
}

// List returns every group ordered by title.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("title ASC").Find(&groups).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return groups, nil
}

func (s *GroupService) Get(ctx context.Context, id uint) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, notFound(err, "group %d", id)
	}
	return &g, nil
}

func (s *GroupService) BySlug(ctx context.Context, slug string) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&g).Error; err != nil {
		return nil, notFound(err, "group %q", slug)
	}
	return &g, nil
}

// Create adds a group. The slug must be URL-safe and unused.
func (s *GroupService) Create(ctx context.Context, title, slug, description string) (*models.Group, error) {
	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)
	if title == "" || len(title) > 200 {
		return nil, errors.NotValidf("group title %q", title)
	}
	if len(slug) > 50 || !slugPattern.MatchString(slug) {
		return nil, errors.NotValidf("group slug %q", slug)
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Group{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return nil, errors.Trace(err)
	}
	if n > 0 {
		return nil, errors.AlreadyExistsf("group %q", slug)
	}

	g := models.Group{Title: title, Slug: slug, Description: strings.TrimSpace(description)}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return nil, errors.Annotate(err, "create group")
	}
	return &g, nil
}

// Delete removes a group. Its posts stay and lose their group.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Group
		if err := tx.Where("slug = ?", slug).First(&g).Error; err != nil {
			return notFound(err, "group %q", slug)
		}
		if err := tx.Model(&models.Post{}).Where("group_id = ?", g.ID).Update("group_id", nil).Error; err != nil {
			return errors.Annotate(err, "detach posts")
		}
		if err := tx.Delete(&g).Error; err != nil {
			return errors.Annotate(err, "delete group")
		}
		return nil
	})
}
