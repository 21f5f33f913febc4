package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/testutil"
)

// allPosts reads the whole selected feed in order.
func allPosts(ctx context.Context, s *FeedService, sel Selector) ([]models.Post, error) {
	scope, err := s.resolve(ctx, sel, &Feed{})
	if err != nil {
		return nil, err
	}
	var posts []models.Post
	err = s.ordered(ctx, scope).Find(&posts).Error
	return posts, err
}

func texts(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Text
	}
	return out
}

func TestGlobalFeedNewestFirstWithRelations(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "leo")
	group := testutil.CreateGroup(t, db, "Cats", "cats")
	testutil.CreatePost(t, db, author, "first", nil)
	testutil.CreatePost(t, db, author, "second", &group)

	feed, err := NewFeedService(db, 10).Load(ctx, Global(), "")
	require.NoError(t, err)
	require.Len(t, feed.Page.Items, 2)
	assert.Equal(t, []string{"second", "first"}, texts(feed.Page.Items))
	assert.Equal(t, "leo", feed.Page.Items[0].Author.Username)
	require.NotNil(t, feed.Page.Items[0].Group)
	assert.Equal(t, "cats", feed.Page.Items[0].Group.Slug)
	assert.Nil(t, feed.Page.Items[1].Group)
}

func TestFeedPagination(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "leo")
	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, db, author, fmt.Sprintf("post %02d", i), nil)
	}
	svc := NewFeedService(db, 10)

	first, err := svc.Load(ctx, Global(), "1")
	require.NoError(t, err)
	assert.Len(t, first.Page.Items, 10)
	assert.Equal(t, "post 12", first.Page.Items[0].Text)
	assert.Equal(t, int64(13), first.Page.Total)
	assert.True(t, first.Page.HasNext())

	second, err := svc.Load(ctx, Global(), "2")
	require.NoError(t, err)
	assert.Len(t, second.Page.Items, 3)
	assert.Equal(t, "post 00", second.Page.Items[2].Text)

	clamped, err := svc.Load(ctx, Global(), "50")
	require.NoError(t, err)
	assert.Equal(t, 2, clamped.Page.Number)

	all, err := allPosts(ctx, svc, Global())
	require.NoError(t, err)
	assert.Equal(t, texts(append(first.Page.Items, second.Page.Items...)), texts(all))
}

func TestGroupFeed(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "leo")
	cats := testutil.CreateGroup(t, db, "Cats", "cats")
	dogs := testutil.CreateGroup(t, db, "Dogs", "dogs")
	testutil.CreatePost(t, db, author, "meow", &cats)
	testutil.CreatePost(t, db, author, "woof", &dogs)
	testutil.CreatePost(t, db, author, "plain", nil)
	svc := NewFeedService(db, 10)

	feed, err := svc.Load(ctx, ByGroup("cats"), "")
	require.NoError(t, err)
	assert.Equal(t, "Cats", feed.Group.Title)
	assert.Equal(t, []string{"meow"}, texts(feed.Page.Items))

	_, err = svc.Load(ctx, ByGroup("birds"), "")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestAuthorFeed(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	leo := testutil.CreateUser(t, db, "leo")
	maxim := testutil.CreateUser(t, db, "max")
	testutil.CreatePost(t, db, leo, "by leo", nil)
	testutil.CreatePost(t, db, maxim, "by max", nil)
	svc := NewFeedService(db, 10)

	feed, err := svc.Load(ctx, ByAuthor("leo"), "")
	require.NoError(t, err)
	assert.Equal(t, "leo", feed.Author.Username)
	assert.Equal(t, []string{"by leo"}, texts(feed.Page.Items))

	_, err = svc.Load(ctx, ByAuthor("nobody"), "")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestFollowingFeed(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")
	stranger := testutil.CreateUser(t, db, "stranger")
	other := testutil.CreateUser(t, db, "other")
	testutil.CreatePost(t, db, author, "old news", nil)
	testutil.CreatePost(t, db, other, "unrelated", nil)

	_, err := NewFollowService(db).Follow(ctx, fan, "author")
	require.NoError(t, err)
	testutil.CreatePost(t, db, author, "fresh news", nil)

	svc := NewFeedService(db, 10)
	feed, err := svc.Load(ctx, ByFollowing(fan.ID), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh news", "old news"}, texts(feed.Page.Items))

	feed, err = svc.Load(ctx, ByFollowing(stranger.ID), "")
	require.NoError(t, err)
	assert.Empty(t, feed.Page.Items)
	assert.Equal(t, 1, feed.Page.NumPages)

	// authors never see their own posts here
	feed, err = svc.Load(ctx, ByFollowing(author.ID), "")
	require.NoError(t, err)
	assert.Empty(t, feed.Page.Items)
}

func TestLocateCountsWithoutLoading(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "leo")
	for i := 0; i < 12; i++ {
		testutil.CreatePost(t, db, author, fmt.Sprintf("post %02d", i), nil)
	}
	svc := NewFeedService(db, 10)

	feed, err := svc.Locate(ctx, Global(), "7")
	require.NoError(t, err)
	assert.Equal(t, 2, feed.Page.Number)
	assert.Equal(t, 2, feed.Page.NumPages)
	assert.Equal(t, int64(12), feed.Page.Total)
	assert.Empty(t, feed.Page.Items)

	require.NoError(t, svc.Fill(ctx, feed))
	require.Len(t, feed.Page.Items, 2)
	assert.Equal(t, "post 01", feed.Page.Items[0].Text)

	assert.True(t, errors.Is(svc.Fill(ctx, &Feed{}), errors.NotValid))
}
