package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/inkwell-be/internal/models"
)

func TestImageService_OnlyPostAuthorUploads(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	post := env.post(t, alice, "Post with pictures")

	_, err := env.images.Create(ctx, post.ID, pngUpload(), bob)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, env.files.saved, "no file is stored for a rejected principal")

	_, err = env.images.Create(ctx, "missing", pngUpload(), alice)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.images.Create(ctx, post.ID, nil, alice)
	assert.ErrorIs(t, err, ErrValidation)

	img, err := env.images.Create(ctx, post.ID, pngUpload(), alice)
	require.NoError(t, err)
	assert.Equal(t, post.ID, img.PostID)
	assert.Equal(t, env.files.saved[0], img.ImageURL)

	list, err := env.images.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := env.images.Get(ctx, post.ID, img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.ImageURL, got.ImageURL)
}

func TestImageService_WrongPostIsNotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	first := env.post(t, alice, "First post with image")
	second := env.post(t, alice, "Second post, no image")

	img, err := env.images.Create(ctx, first.ID, pngUpload(), alice)
	require.NoError(t, err)

	_, err = env.images.Get(ctx, second.ID, img.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.images.Delete(ctx, second.ID, img.ID, alice), ErrNotFound)
	_, err = env.images.Update(ctx, second.ID, img.ID, pngUpload(), alice)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImageService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	post := env.post(t, alice, "Post with pictures")

	img, err := env.images.Create(ctx, post.ID, pngUpload(), alice)
	require.NoError(t, err)

	_, err = env.images.Update(ctx, post.ID, img.ID, pngUpload(), bob)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.images.Delete(ctx, post.ID, img.ID, bob), ErrForbidden)

	replaced, err := env.images.Update(ctx, post.ID, img.ID, pngUpload(), alice)
	require.NoError(t, err)
	assert.Equal(t, img.ID, replaced.ID)
	assert.NotEqual(t, img.ImageURL, replaced.ImageURL)
	assert.Equal(t, []string{img.ImageURL}, env.files.removed)

	require.NoError(t, env.images.Delete(ctx, post.ID, img.ID, alice))
	assert.Equal(t, []string{img.ImageURL, replaced.ImageURL}, env.files.removed)
	assert.Equal(t, int64(0), count(t, env.db, &models.Image{}))

	assert.ErrorIs(t, env.images.Delete(ctx, post.ID, img.ID, alice), ErrNotFound)
}
