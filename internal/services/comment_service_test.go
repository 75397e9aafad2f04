package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/inkwell-be/internal/auth"
)

func TestCommentService_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	post := env.post(t, alice, "Post open for comments")

	_, err := env.comments.Create(ctx, "missing", CommentInput{Content: "hello"}, bob)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.comments.Create(ctx, post.ID, CommentInput{Content: "   "}, bob)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.comments.Create(ctx, post.ID, CommentInput{Content: "hello"}, auth.Principal{})
	assert.ErrorIs(t, err, ErrAuthentication)

	comment, err := env.comments.Create(ctx, post.ID, CommentInput{Content: " great read "}, bob)
	require.NoError(t, err)
	assert.Equal(t, "great read", comment.Content)
	assert.Equal(t, bob.ID, comment.AuthorID)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "bob", comment.Author.Username)

	list, err := env.comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, comment.ID, list[0].ID)

	detail, err := env.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "bob", detail.Comments[0].Author.Username)

	_, err = env.comments.ListByPost(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentService_OwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	post := env.post(t, alice, "Post open for comments")

	comment, err := env.comments.Create(ctx, post.ID, CommentInput{Content: "bob's words"}, bob)
	require.NoError(t, err)

	// The post author does not own comments on the post.
	_, err = env.comments.Update(ctx, comment.ID, CommentInput{Content: "edited by alice"}, alice)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.comments.Delete(ctx, comment.ID, alice), ErrForbidden)

	updated, err := env.comments.Update(ctx, comment.ID, CommentInput{Content: "edited by bob"}, bob)
	require.NoError(t, err)
	assert.Equal(t, "edited by bob", updated.Content)
	edits := env.published.ofType(EventCommentUpdate)
	require.Len(t, edits, 1)
	require.NotNil(t, edits[0].PostID)
	assert.Equal(t, post.ID, *edits[0].PostID)
	require.NotNil(t, edits[0].ActorID)
	assert.Equal(t, bob.ID, *edits[0].ActorID)

	_, err = env.comments.Update(ctx, comment.ID, CommentInput{Content: ""}, bob)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.comments.Delete(ctx, comment.ID, bob))
	assert.ErrorIs(t, env.comments.Delete(ctx, comment.ID, bob), ErrNotFound)
	_, err = env.comments.Get(ctx, comment.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Contains(t, env.published.types(), EventCommentDelete)
}
