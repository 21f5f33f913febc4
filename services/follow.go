package services

import (
	"context"

	"github.com/juju/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yatube/yatube/models"
)

// FollowService manages follow edges between users.
type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// Follow makes user follow the author called username. Following yourself does nothing,
// and following twice leaves a single edge. An unknown author is NotFound.
// It reports whether a new edge was created.
func (s *FollowService) Follow(ctx context.Context, user models.User, username string) (bool, error) {
	if user.Username == username {
		return false, nil
	}
	var author models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&author).Error; err != nil {
		return false, notFound(err, "user %q", username)
	}

	edge := models.Follow{UserID: user.ID, AuthorID: author.ID}
	// the unique (user_id, author_id) index makes a concurrent duplicate a no-op
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
	if res.Error != nil {
		return false, errors.Annotate(res.Error, "create follow")
	}
	return res.RowsAffected > 0, nil
}

// Unfollow removes the edge if it exists. Unknown authors and missing edges are not errors.
func (s *FollowService) Unfollow(ctx context.Context, user models.User, username string) (bool, error) {
	authorIDs := s.db.Model(&models.User{}).Select("id").Where("username = ?", username)
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id IN (?)", user.ID, authorIDs).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, errors.Annotate(res.Error, "delete follow")
	}
	return res.RowsAffected > 0, nil
}

// IsFollowing is false for anonymous viewers (nil user) and for a user looking at themself.
func (s *FollowService) IsFollowing(ctx context.Context, user *models.User, author models.User) (bool, error) {
	if user == nil || user.ID == author.ID {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Count(&n).Error
	if err != nil {
		return false, errors.Trace(err)
	}
	return n > 0, nil
}

// Counts returns how many users follow userID and how many authors userID follows.
func (s *FollowService) Counts(ctx context.Context, userID uint) (followers, following int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Follow{}).Where("author_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, errors.Trace(err)
	}
	if err = db.Model(&models.Follow{}).Where("user_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, errors.Trace(err)
	}
	return followers, following, nil
}
