package services

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/testutil"
)

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "leo")
	group := testutil.CreateGroup(t, db, "Cats", "cats")
	svc := NewPostService(db)

	image := "posts/cat.gif"
	post, err := svc.Create(ctx, author, PostInput{Text: "  hello  ", GroupID: &group.ID, Image: &image})
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Text)
	assert.False(t, post.PubDate.IsZero())

	got, err := svc.Get(ctx, "leo", post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "leo", got.Author.Username)
	require.NotNil(t, got.Group)
	assert.Equal(t, "cats", got.Group.Slug)
	assert.Equal(t, image, got.Image)

	_, err = svc.Create(ctx, author, PostInput{Text: "   "})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestGetPostRequiresMatchingAuthor(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	leo := testutil.CreateUser(t, db, "leo")
	testutil.CreateUser(t, db, "max")
	post := testutil.CreatePost(t, db, leo, "text", nil)
	svc := NewPostService(db)

	_, err := svc.Get(ctx, "max", post.ID)
	assert.True(t, errors.Is(err, errors.NotFound))
	_, err = svc.Get(ctx, "leo", post.ID+100)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestUpdatePostKeepsPubDateAndAuthor(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	leo := testutil.CreateUser(t, db, "leo")
	group := testutil.CreateGroup(t, db, "Cats", "cats")
	image := "posts/old.gif"
	svc := NewPostService(db)
	created, err := svc.Create(ctx, leo, PostInput{Text: "before", Image: &image})
	require.NoError(t, err)

	post, err := svc.Get(ctx, "leo", created.ID)
	require.NoError(t, err)
	pubDate := post.PubDate

	require.NoError(t, svc.Update(ctx, post, PostInput{Text: "after", GroupID: &group.ID}))

	var stored models.Post
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.Equal(t, "after", stored.Text)
	require.NotNil(t, stored.GroupID)
	assert.Equal(t, group.ID, *stored.GroupID)
	assert.Equal(t, image, stored.Image)
	assert.Equal(t, leo.ID, stored.AuthorID)
	assert.WithinDuration(t, pubDate, stored.PubDate, time.Millisecond)

	cleared := ""
	require.NoError(t, svc.Update(ctx, post, PostInput{Text: "after", Image: &cleared}))
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.Equal(t, "", stored.Image)
	assert.Nil(t, stored.GroupID)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	leo := testutil.CreateUser(t, db, "leo")
	maxim := testutil.CreateUser(t, db, "max")
	post := testutil.CreatePost(t, db, leo, "text", nil)
	svc := NewPostService(db)

	_, err := svc.AddComment(ctx, post, maxim, "first!")
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, post, leo, "thanks")
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, post, leo, " ")
	assert.True(t, errors.Is(err, errors.NotValid))

	comments, err := svc.Comments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first!", comments[0].Text)
	assert.Equal(t, "max", comments[0].Author.Username)
	assert.Equal(t, "thanks", comments[1].Text)

	n, err := svc.CountByAuthor(ctx, leo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDeletingPostDeletesComments(t *testing.T) {
	db := testutil.NewDB(t)
	leo := testutil.CreateUser(t, db, "leo")
	post := testutil.CreatePost(t, db, leo, "text", nil)
	_, err := NewPostService(db).AddComment(context.Background(), post, leo, "note")
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.Post{}, post.ID).Error)

	var n int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}
