package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

// MinPasswordLength is the shortest password signup accepts.
const MinPasswordLength = 8

// letters, digits and @ . + - _
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// OAuthIdentity is what a third-party provider tells us about the person signing in.
type OAuthIdentity struct {
	ID        string
	Username  string
	Email     string
	AvatarURL string
}

// AccountService owns user accounts: signup, credential checks and deletion.
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// reservedUsernames would be shadowed by fixed top-level routes.
var reservedUsernames = map[string]bool{
	"about": true, "api": true, "auth": true, "follow": true, "group": true,
	"health": true, "media": true, "metrics": true, "new": true, "static": true,
}

// ValidUsername reports whether name can be used as a username (and therefore in URLs).
func ValidUsername(name string) bool {
	return len(name) > 0 && len(name) <= 150 && usernamePattern.MatchString(name) &&
		!reservedUsernames[strings.ToLower(name)]
}

// Signup creates a local account. A taken username is AlreadyExists.
func (s *AccountService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if !ValidUsername(username) {
		return nil, errors.NotValidf("username %q", username)
	}
	if len(password) < MinPasswordLength {
		return nil, errors.NotValidf("password shorter than %d characters", MinPasswordLength)
	}
	if _, err := s.ByUsername(ctx, username); err == nil {
		return nil, errors.AlreadyExistsf("user %q", username)
	} else if !errors.Is(err, errors.NotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, errors.Annotate(err, "hash password")
	}
	user := models.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Provider:     "local",
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, errors.Annotate(err, "create user")
	}
	return &user, nil
}

// Authenticate checks a username and password pair. Any mismatch is Unauthorized.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.Unauthorizedf("invalid username or password")
		}
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, errors.Unauthorizedf("invalid username or password")
	}
	return user, nil
}

func (s *AccountService) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "user %q", username)
	}
	return &user, nil
}

func (s *AccountService) ByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user %d", id)
	}
	return &user, nil
}

// Delete removes a user with everything that depends on it: their posts and the comments on
// those posts, their own comments elsewhere and follow edges on either side.
func (s *AccountService) Delete(ctx context.Context, username string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return notFound(err, "user %q", username)
		}
		postIDs := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", user.ID)
		if err := tx.Where("post_id IN (?) OR author_id = ?", postIDs, user.ID).Delete(&models.Comment{}).Error; err != nil {
			return errors.Annotate(err, "delete comments")
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Post{}).Error; err != nil {
			return errors.Annotate(err, "delete posts")
		}
		if err := tx.Where("user_id = ? OR author_id = ?", user.ID, user.ID).Delete(&models.Follow{}).Error; err != nil {
			return errors.Annotate(err, "delete follows")
		}
		if err := tx.Delete(&user).Error; err != nil {
			return errors.Annotate(err, "delete user")
		}
		return nil
	})
}

// FindOrCreateOAuth returns the account linked to the provider identity, creating it with a
// free username on first sign-in and refreshing email and avatar afterwards.
func (s *AccountService) FindOrCreateOAuth(ctx context.Context, provider string, ident OAuthIdentity) (*models.User, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	err := db.Where("provider = ? AND provider_id = ?", provider, ident.ID).First(&user).Error
	if err == nil {
		updates := map[string]interface{}{
			"email":      strings.TrimSpace(ident.Email),
			"avatar_url": ident.AvatarURL,
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			utils.Sugar.Warnf("refresh oauth profile user=%d err=%v", user.ID, err)
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Trace(err)
	}

	username, err := s.uniqueUsername(ctx, ident.Username, provider, ident.ID)
	if err != nil {
		return nil, err
	}
	user = models.User{
		Username:   username,
		Email:      strings.TrimSpace(ident.Email),
		Provider:   provider,
		ProviderID: ident.ID,
		AvatarURL:  ident.AvatarURL,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, errors.Annotate(err, "create oauth user")
	}
	return &user, nil
}

func sanitizeUsername(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	var b strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.' || r == '@':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func (s *AccountService) uniqueUsername(ctx context.Context, base, provider, id string) (string, error) {
	base = sanitizeUsername(base)
	if base == "" {
		base = sanitizeUsername(fmt.Sprintf("%s_%s", provider, id))
	}
	if base == "" {
		base = "user"
	}
	if len(base) > 140 {
		base = base[:140]
	}

	candidate := base
	for suffix := 1; ; suffix++ {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", candidate).Count(&n).Error; err != nil {
			return "", errors.Trace(err)
		}
		if n == 0 && !reservedUsernames[candidate] {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
	}
}
