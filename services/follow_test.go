package services

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/testutil"
)

func countFollows(t *testing.T, svc *FollowService) int64 {
	t.Helper()
	var n int64
	require.NoError(t, svc.db.Model(&models.Follow{}).Count(&n).Error)
	return n
}

func TestFollowIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewFollowService(db)
	fan := testutil.CreateUser(t, db, "fan")
	author := testutil.CreateUser(t, db, "author")

	created, err := svc.Follow(ctx, fan, "author")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Follow(ctx, fan, "author")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), countFollows(t, svc))

	following, err := svc.IsFollowing(ctx, &fan, author)
	require.NoError(t, err)
	assert.True(t, following)

	removed, err := svc.Unfollow(ctx, fan, "author")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, int64(0), countFollows(t, svc))

	removed, err = svc.Unfollow(ctx, fan, "author")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollowSelfIsNoop(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewFollowService(db)
	user := testutil.CreateUser(t, db, "narcissus")

	created, err := svc.Follow(ctx, user, "narcissus")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(0), countFollows(t, svc))

	following, err := svc.IsFollowing(ctx, &user, user)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowUnknownAuthor(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewFollowService(db)
	fan := testutil.CreateUser(t, db, "fan")

	_, err := svc.Follow(ctx, fan, "ghost")
	assert.True(t, errors.Is(err, errors.NotFound))

	removed, err := svc.Unfollow(ctx, fan, "ghost")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestIsFollowingAnonymous(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewFollowService(db)
	author := testutil.CreateUser(t, db, "author")

	following, err := svc.IsFollowing(context.Background(), nil, author)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowCounts(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewFollowService(db)
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")

	_, err := svc.Follow(ctx, b, "a")
	require.NoError(t, err)
	_, err = svc.Follow(ctx, c, "a")
	require.NoError(t, err)
	_, err = svc.Follow(ctx, a, "c")
	require.NoError(t, err)

	followers, following, err := svc.Counts(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), followers)
	assert.Equal(t, int64(1), following)
}

func TestFollowEdgeIsUniqueInStore(t *testing.T) {
	db := testutil.NewDB(t)
	fan := testutil.CreateUser(t, db, "fan")
	author := testutil.CreateUser(t, db, "author")

	require.NoError(t, db.Create(&models.Follow{UserID: fan.ID, AuthorID: author.ID}).Error)
	assert.Error(t, db.Create(&models.Follow{UserID: fan.ID, AuthorID: author.ID}).Error)
}
