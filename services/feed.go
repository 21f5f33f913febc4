package services

import (
	"context"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

// FeedKind tells which posts a feed contains.
type FeedKind int

const (
	FeedGlobal FeedKind = iota
	FeedGroup
	FeedAuthor
	FeedFollowing
)

// Selector picks a feed. Build it with Global, ByGroup, ByAuthor or ByFollowing.
type Selector struct {
	Kind     FeedKind
	Slug     string
	Username string
	UserID   uint
}

func Global() Selector { return Selector{Kind: FeedGlobal} }

func ByGroup(slug string) Selector { return Selector{Kind: FeedGroup, Slug: slug} }

func ByAuthor(username string) Selector { return Selector{Kind: FeedAuthor, Username: username} }

// ByFollowing selects posts of every author userID follows. Callers make sure the user is logged in.
func ByFollowing(userID uint) Selector { return Selector{Kind: FeedFollowing, UserID: userID} }

// Feed is one page of a feed plus the group or author it was selected by.
type Feed struct {
	Group  *models.Group
	Author *models.User
	Page   utils.Page[models.Post]

	scope func(*gorm.DB) *gorm.DB
}

// FeedService reads post feeds, newest first, with author and group loaded.
type FeedService struct {
	db       *gorm.DB
	pageSize int
}

func NewFeedService(db *gorm.DB, pageSize int) *FeedService {
	if pageSize <= 0 {
		pageSize = utils.DefaultPageSize
	}
	return &FeedService{db: db, pageSize: pageSize}
}

// PageSize is the number of posts on a full page.
func (s *FeedService) PageSize() int {
	return s.pageSize
}

// Load returns the requested page of the selected feed with its posts.
func (s *FeedService) Load(ctx context.Context, sel Selector, rawPage string) (*Feed, error) {
	feed, err := s.Locate(ctx, sel, rawPage)
	if err != nil {
		return nil, err
	}
	if err := s.Fill(ctx, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// Locate resolves the selector and counts the feed, clamping rawPage (the unparsed ?page=
// value) into range. The returned page has no items yet; Fill loads them.
// Unknown group slugs and usernames are NotFound.
func (s *FeedService) Locate(ctx context.Context, sel Selector, rawPage string) (*Feed, error) {
	feed := &Feed{}
	scope, err := s.resolve(ctx, sel, feed)
	if err != nil {
		return nil, err
	}
	feed.scope = scope

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, errors.Annotate(err, "count posts")
	}
	number, numPages := utils.ResolvePage(total, s.pageSize, rawPage)
	feed.Page = utils.Page[models.Post]{
		Number:   number,
		PerPage:  s.pageSize,
		NumPages: numPages,
		Total:    total,
	}
	return feed, nil
}

// Fill loads the posts of a located page.
func (s *FeedService) Fill(ctx context.Context, feed *Feed) error {
	if feed.scope == nil {
		return errors.NotValidf("feed not located")
	}
	posts := []models.Post{}
	err := s.ordered(ctx, feed.scope).
		Offset(utils.Offset(feed.Page.Number, feed.Page.PerPage)).
		Limit(feed.Page.PerPage).
		Find(&posts).Error
	if err != nil {
		return errors.Annotate(err, "list posts")
	}
	feed.Page.Items = posts
	return nil
}

// ordered starts a fresh query so a Count on another chain never leaks into it.
// id breaks pub_date ties so the order is stable between calls.
func (s *FeedService) ordered(ctx context.Context, scope func(*gorm.DB) *gorm.DB) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Scopes(scope).
		Order("pub_date DESC").
		Order("id DESC")
}

func (s *FeedService) resolve(ctx context.Context, sel Selector, feed *Feed) (func(*gorm.DB) *gorm.DB, error) {
	switch sel.Kind {
	case FeedGlobal:
		return func(db *gorm.DB) *gorm.DB { return db }, nil

	case FeedGroup:
		var group models.Group
		if err := s.db.WithContext(ctx).Where("slug = ?", sel.Slug).First(&group).Error; err != nil {
			return nil, notFound(err, "group %q", sel.Slug)
		}
		feed.Group = &group
		return func(db *gorm.DB) *gorm.DB { return db.Where("group_id = ?", group.ID) }, nil

	case FeedAuthor:
		var author models.User
		if err := s.db.WithContext(ctx).Where("username = ?", sel.Username).First(&author).Error; err != nil {
			return nil, notFound(err, "user %q", sel.Username)
		}
		feed.Author = &author
		return func(db *gorm.DB) *gorm.DB { return db.Where("author_id = ?", author.ID) }, nil

	case FeedFollowing:
		followed := s.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", sel.UserID)
		return func(db *gorm.DB) *gorm.DB { return db.Where("author_id IN (?)", followed) }, nil
	}
	return nil, errors.NotValidf("feed kind %d", sel.Kind)
}

// notFound turns gorm's missing-record error into a NotFound error and traces anything else.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFoundf(format, args...)
	}
	return errors.Trace(err)
}
