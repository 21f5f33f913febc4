// Package testutil sets up throwaway databases and fixtures for package tests.
package testutil

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

// NewDB opens a migrated SQLite database in a temporary directory removed after the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "test.sqlite3"),
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Config returns settings suitable for tests: sqlite, memory cache, local media under a temp dir.
func Config(t testing.TB) config.AppConfig {
	t.Helper()
	return config.AppConfig{
		SecretKey:            "test-secret",
		GinMode:              "test",
		RateLimitPerMinute:   1000,
		AllowedOrigins:       []string{"*"},
		AdminUsernames:       []string{"admin"},
		DBDriver:             "sqlite",
		CacheBackend:         "memory",
		PageSize:             utils.DefaultPageSize,
		IndexCacheTTLSeconds: 20,
		MediaBackend:         "local",
		MediaRoot:            t.TempDir(),
		MediaURL:             "/media/",
		LogLevel:             "silent",
	}
}

// CreateUser inserts a user with password "password123".
func CreateUser(t testing.TB, db *gorm.DB, username string) models.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	user := models.User{Username: username, PasswordHash: hash, Provider: "local"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func CreateGroup(t testing.TB, db *gorm.DB, title, slug string) models.Group {
	t.Helper()
	group := models.Group{Title: title, Slug: slug, Description: title + " description"}
	require.NoError(t, db.Create(&group).Error)
	return group
}

// CreatePost inserts a post; group may be nil. Successive posts get increasing publication dates.
func CreatePost(t testing.TB, db *gorm.DB, author models.User, text string, group *models.Group) models.Post {
	t.Helper()
	post := models.Post{Text: text, AuthorID: author.ID, PubDate: nextPubDate()}
	if group != nil {
		post.GroupID = &group.ID
	}
	require.NoError(t, db.Create(&post).Error)
	post.Author = author
	post.Group = group
	return post
}

var (
	pubDateMu   sync.Mutex
	lastPubDate time.Time
)

func nextPubDate() time.Time {
	pubDateMu.Lock()
	defer pubDateMu.Unlock()
	now := time.Now().Truncate(time.Millisecond)
	if !now.After(lastPubDate) {
		now = lastPubDate.Add(time.Millisecond)
	}
	lastPubDate = now
	return now
}
