package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/flux/internal/access"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/models"
	"github.com/thereayou/flux/internal/realtime"
	"github.com/thereayou/flux/internal/storage"
	"github.com/thereayou/flux/internal/testutil"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
)

// memStore хранилище в памяти
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Upload(_ context.Context, path string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return nil
}

func (s *memStore) Remove(_ context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.objects, p)
		s.removed = append(s.removed, p)
	}
	return nil
}

func (s *memStore) PublicURL(path string) string {
	return "https://cdn.test/" + path
}

func (s *memStore) List(_ context.Context, prefix string) ([]storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Object
	for p, data := range s.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, storage.Object{Path: p, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *memStore) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) last() realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return realtime.Event{}
	}
	return p.events[len(p.events)-1]
}

func (p *recordingPublisher) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type recordingChannels struct {
	groups []uuid.UUID
	users  [][2]uuid.UUID
}

func (c *recordingChannels) DropGroup(groupID uuid.UUID) {
	c.groups = append(c.groups, groupID)
}

func (c *recordingChannels) DropUserFromGroup(userID, groupID uuid.UUID) {
	c.users = append(c.users, [2]uuid.UUID{userID, groupID})
}

type fixture struct {
	db       *database.Database
	store    *memStore
	pub      *recordingPublisher
	channels *recordingChannels

	groups  *GroupService
	files   *FileService
	repos   *RepositoryService
	tasks   *TaskService
	profile *ProfileService
	search  *SearchService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewDatabase(testutil.NewGormDB(t))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	evaluator := access.NewEvaluator(db, db)

	f := &fixture{
		db:       db,
		store:    newMemStore(),
		pub:      &recordingPublisher{},
		channels: &recordingChannels{},
	}
	feed := NewFeed(f.pub, log)
	f.groups = NewGroupService(db, evaluator, feed, f.store, f.channels, log)
	f.files = NewFileService(db, evaluator, feed, f.store, log)
	f.repos = NewRepositoryService(db, evaluator, f.store, log)
	f.tasks = NewTaskService(db, evaluator)
	f.profile = NewProfileService(db, f.store, log)
	f.search = NewSearchService(db)
	return f
}

func (f *fixture) user(t *testing.T, first, last string) *models.User {
	t.Helper()
	hash, err := hashPassword("Secreto123")
	require.NoError(t, err)
	u := &models.User{
		Username:     strings.ToLower(first),
		Email:        strings.ToLower(first) + "@correo.unimet.edu.ve",
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		DisplayName:  first + " " + last,
	}
	require.NoError(t, f.db.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) group(t *testing.T, owner *models.User, name string, public bool) *models.Group {
	t.Helper()
	g, err := f.groups.Create(context.Background(), owner.ID, name, public)
	require.NoError(t, err)
	return g
}

func (f *fixture) join(t *testing.T, u *models.User, g *models.Group) {
	t.Helper()
	_, _, err := f.groups.Join(context.Background(), u.ID, g.JoinCode)
	require.NoError(t, err)
}

func upload(name string, data []byte) Upload {
	return Upload{Name: name, Size: int64(len(data)), Body: bytes.NewReader(data)}
}

func ptr[T any](v T) *T { return &v }

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
