package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/inkwell-be/internal/models"
)

func TestEventService_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	root := env.admin(t)
	alice := env.register(t, "alice")

	env.events.Record(ctx, "custom.event", "info", "something happened", strPtr(alice.ID), nil)
	types := env.published.types()
	assert.Equal(t, "custom.event", types[len(types)-1])

	_, err := env.events.Recent(ctx, alice, 10)
	assert.ErrorIs(t, err, ErrForbidden)

	events, err := env.events.Recent(ctx, root, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)

	events, err = env.events.Recent(ctx, root, 0)
	require.NoError(t, err)
	// root and alice registrations plus the custom event.
	assert.Len(t, events, 3)
}

func TestEventService_Prune(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	old := models.Event{Type: "post.create", Level: "info", Message: "old", CreatedAt: time.Now().Add(-72 * time.Hour)}
	require.NoError(t, env.db.Create(&old).Error)
	env.events.Record(ctx, "post.create", "info", "new", nil, nil)

	n, err := env.events.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), count(t, env.db, &models.Event{}))
}
