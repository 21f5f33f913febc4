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

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewGroupService(db)

	g, err := svc.Create(ctx, "Cats", "cats", "All about cats")
	require.NoError(t, err)
	assert.Equal(t, "cats", g.Slug)

	_, err = svc.Create(ctx, "Cats again", "cats", "")
	assert.True(t, errors.Is(err, errors.AlreadyExists))
	_, err = svc.Create(ctx, "Bad", "not a slug", "")
	assert.True(t, errors.Is(err, errors.NotValid))

	got, err := svc.BySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	_, err = svc.Get(ctx, g.ID+1)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestDeleteGroupKeepsPosts(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	leo := testutil.CreateUser(t, db, "leo")
	group := testutil.CreateGroup(t, db, "Cats", "cats")
	post := testutil.CreatePost(t, db, leo, "meow", &group)

	require.NoError(t, NewGroupService(db).Delete(ctx, "cats"))

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Nil(t, stored.GroupID)

	err := NewGroupService(db).Delete(ctx, "cats")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestDeleteGroupRowSetsPostGroupNull(t *testing.T) {
	db := testutil.NewDB(t)
	leo := testutil.CreateUser(t, db, "leo")
	group := testutil.CreateGroup(t, db, "Cats", "cats")
	post := testutil.CreatePost(t, db, leo, "meow", &group)

	require.NoError(t, db.Delete(&models.Group{}, group.ID).Error)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Nil(t, stored.GroupID)
}
