package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/isdelr/inkwell-be/internal/models"
)

func TestNewAndMigrate_SQLiteMemory(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	require.NoError(t, Migrate(db))

	user := models.User{Username: "alice", Email: "alice@example.com", Password: "hash"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)

	dup := models.User{Username: "alice", Email: "other@example.com", Password: "hash"}
	err = db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "gorm duplicated key", err: fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "postgres unique", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "postgres other", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "sqlite unique", err: errors.New("constraint failed: UNIQUE constraint failed: posts.title (2067)"), want: true},
		{name: "not found", err: gorm.ErrRecordNotFound, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "blog.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("blog.db"))
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:x?mode=memory"))
	assert.Equal(t, "blog.db?_pragma=journal_mode(WAL)", sqliteDSN("blog.db?_pragma=journal_mode(WAL)"))
	assert.True(t, isPostgresURL("postgres://u:p@localhost/db"))
	assert.False(t, isPostgresURL("blog.db"))
}
