package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/models"
)

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.users.Register(ctx, RegisterInput{Username: " alice ", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.Password)

	ok, err := auth.CheckPassword(user.Password, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Contains(t, env.published.types(), EventUserRegister)
}

func TestUserService_RegisterConflicts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice")

	_, err := env.users.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Username already exists.", Message(err))

	_, err = env.users.Register(ctx, RegisterInput{Username: "other", Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Email already exists.", Message(err))
}

func TestUserService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input RegisterInput
		ok    bool
	}{
		{name: "password of 6", input: RegisterInput{Username: "a", Email: "a@example.com", Password: "123456"}, ok: true},
		{name: "password of 10", input: RegisterInput{Username: "b", Email: "b@example.com", Password: "1234567890"}, ok: true},
		{name: "password of 5", input: RegisterInput{Username: "c", Email: "c@example.com", Password: "12345"}},
		{name: "password of 11", input: RegisterInput{Username: "d", Email: "d@example.com", Password: "12345678901"}},
		{name: "bad email", input: RegisterInput{Username: "e", Email: "not-an-email", Password: "123456"}},
		{name: "blank username", input: RegisterInput{Username: "   ", Email: "f@example.com", Password: "123456"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tt.input)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	res, err := env.users.Login(ctx, LoginInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "token-"+alice.ID, res.Token)
	assert.False(t, res.ExpiresAt.IsZero())

	_, err = env.users.Login(ctx, LoginInput{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.users.Login(ctx, LoginInput{Username: "alice", Password: "secret2"})
	assert.ErrorIs(t, err, ErrAuthentication)

	_, err = env.users.Login(ctx, LoginInput{Username: "alice", Password: "short"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_Logout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.users.Logout(ctx, "token-x"))
	assert.Equal(t, []string{"token-x"}, env.tokens.revoked)

	assert.ErrorIs(t, env.users.Logout(ctx, ""), ErrAuthentication)
}

func TestUserService_AdminOperations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	root := env.admin(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")

	_, err := env.users.ListAll(ctx, alice, PageRequest{})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.users.GetByID(ctx, alice, root.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.users.DeleteByID(ctx, alice, root.ID), ErrForbidden)

	page, err := env.users.ListAll(ctx, root, PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(2), page.PageMax)

	all, err := env.users.ListAll(ctx, root, PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)

	got, err := env.users.GetByID(ctx, root, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = env.users.GetByID(ctx, root, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_DeleteByIDCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	root := env.admin(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	alicePost := env.post(t, alice, "Alice writes about Go")
	bobPost := env.post(t, bob, "Bob writes about SQL")

	_, err := env.comments.Create(ctx, alicePost.ID, CommentInput{Content: "bob on alice"}, bob)
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, bobPost.ID, CommentInput{Content: "alice on bob"}, alice)
	require.NoError(t, err)
	img, err := env.images.Create(ctx, alicePost.ID, pngUpload(), alice)
	require.NoError(t, err)

	require.NoError(t, env.users.DeleteByID(ctx, root, alice.ID))

	_, err = env.posts.Get(ctx, alicePost.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	remaining, err := env.posts.Get(ctx, bobPost.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining.Comments, "alice's comment on bob's post is removed")

	assert.Equal(t, int64(0), count(t, env.db, &models.Image{}))
	assert.Equal(t, int64(0), count(t, env.db, &models.Comment{}))
	assert.Contains(t, env.files.removed, img.ImageURL)

	assert.ErrorIs(t, env.users.DeleteByID(ctx, root, alice.ID), ErrNotFound)
}

func TestUserService_Profile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")

	me, err := env.users.Profile(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)

	_, err = env.users.Profile(ctx, auth.Principal{})
	assert.ErrorIs(t, err, ErrAuthentication)

	taken := "bob"
	_, err = env.users.UpdateProfile(ctx, alice, UpdateProfileInput{Username: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	takenEmail := "bob@example.com"
	_, err = env.users.UpdateProfile(ctx, alice, UpdateProfileInput{Email: &takenEmail})
	assert.ErrorIs(t, err, ErrConflict)

	newPassword := "newpass1"
	_, err = env.users.UpdateProfile(ctx, alice, UpdateProfileInput{NewPassword: &newPassword})
	assert.ErrorIs(t, err, ErrValidation)

	wrong := "wrongpw"
	_, err = env.users.UpdateProfile(ctx, alice, UpdateProfileInput{OldPassword: &wrong, NewPassword: &newPassword})
	assert.ErrorIs(t, err, ErrAuthentication)

	empty := ""
	_, err = env.users.UpdateProfile(ctx, alice, UpdateProfileInput{Username: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	old := "secret1"
	renamed := "alicia"
	updated, err := env.users.UpdateProfile(ctx, alice, UpdateProfileInput{
		Username:    &renamed,
		OldPassword: &old,
		NewPassword: &newPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)

	_, err = env.users.Login(ctx, LoginInput{Username: "alicia", Password: "newpass1"})
	assert.NoError(t, err)
	_, err = env.users.Login(ctx, LoginInput{Username: "alicia", Password: "secret1"})
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestUserService_EnsureSuperAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	created, err := env.users.EnsureSuperAdmin(ctx, "superadmin", "superadmin@example.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.users.EnsureSuperAdmin(ctx, "another", "another@example.com", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	var admins []models.User
	require.NoError(t, env.db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "superadmin", admins[0].Username)

	_, err = NewUserService(newTestDB(t), nil, nil, env.events).EnsureSuperAdmin(ctx, "x", "x@example.com", "123")
	assert.ErrorIs(t, err, ErrValidation)
}
