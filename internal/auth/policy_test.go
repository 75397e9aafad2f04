package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/isdelr/inkwell-be/internal/models"
)

func TestCanModify(t *testing.T) {
	owner := Principal{ID: "a", Role: models.RoleUser}
	admin := Principal{ID: "root", Role: models.RoleAdmin}

	assert.True(t, CanModify(owner, "a"))
	assert.False(t, CanModify(owner, "b"))
	assert.False(t, CanModify(admin, "a"), "admins get no ownership override")
	assert.False(t, CanModify(Principal{}, ""), "anonymous principal owns nothing")
}

func TestRequireRole(t *testing.T) {
	assert.NoError(t, RequireRole(Principal{ID: "x", Role: models.RoleAdmin}, models.RoleAdmin))
	assert.ErrorIs(t, RequireRole(Principal{ID: "x", Role: models.RoleUser}, models.RoleAdmin), ErrForbidden)
	assert.ErrorIs(t, RequireRole(Principal{}, models.RoleAdmin), ErrForbidden)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	assert.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	ok, err := CheckPassword(hash, "secret1")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong12")
	assert.NoError(t, err)
	assert.False(t, ok)
}
