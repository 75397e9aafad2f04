package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/database"
	"github.com/isdelr/inkwell-be/internal/models"
	"github.com/isdelr/inkwell-be/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.Migrate(db))
	return db
}

type fakeTokens struct {
	mu      sync.Mutex
	revoked []string
}

func (f *fakeTokens) Issue(userID, username string) (string, time.Time, error) {
	return "token-" + userID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func (f *fakeTokens) Revoke(_ context.Context, token string) error {
	if token == "" {
		return auth.ErrInvalidToken
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)
	return nil
}

// memStore records saved and removed files instead of touching the disk.
type memStore struct {
	mu      sync.Mutex
	saved   []string
	removed []string
}

func (m *memStore) Save(u *storage.Upload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := fmt.Sprintf("%sfile-%d%s", storage.URLPrefix, len(m.saved)+1, u.Ext)
	m.saved = append(m.saved, url)
	return url, nil
}

func (m *memStore) Remove(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, url)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(evt models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) ofType(typ string) []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Event
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires every service against one in-memory database.
type testEnv struct {
	db        *gorm.DB
	tokens    *fakeTokens
	files     *memStore
	published *recordingPublisher
	events    *EventService
	users     *UserService
	posts     *PostService
	comments  *CommentService
	images    *ImageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:        db,
		tokens:    &fakeTokens{},
		files:     &memStore{},
		published: &recordingPublisher{},
	}
	env.events = NewEventService(db, env.published)
	env.users = NewUserService(db, env.tokens, env.files, env.events)
	env.posts = NewPostService(db, env.files, env.events)
	env.comments = NewCommentService(db, env.events)
	env.images = NewImageService(db, env.files, env.events)
	return env
}

// register creates a USER account and returns its principal.
func (e *testEnv) register(t *testing.T, name string) auth.Principal {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return auth.Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}

// admin creates an ADMIN account and returns its principal.
func (e *testEnv) admin(t *testing.T) auth.Principal {
	t.Helper()
	p := e.register(t, "root")
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", p.ID).Update("role", models.RoleAdmin).Error)
	p.Role = models.RoleAdmin
	return p
}

func (e *testEnv) post(t *testing.T, p auth.Principal, title string) models.Post {
	t.Helper()
	post, err := e.posts.Create(context.Background(), CreatePostInput{
		Title:   title,
		Content: "This content is comfortably long enough.",
	}, p)
	require.NoError(t, err)
	return post
}

func pngUpload() *storage.Upload {
	return &storage.Upload{Name: "photo.png", Ext: ".png", MIME: "image/png", Data: []byte("\x89PNG\r\n\x1a\n")}
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
