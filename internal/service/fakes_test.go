package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noisyneuron/noisyneuron/internal/metrics"
	"github.com/noisyneuron/noisyneuron/internal/model"
	"github.com/noisyneuron/noisyneuron/internal/repository"
)

// memStore is an in-memory Store with the same error contract as the repository.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	profiles map[string]*model.Profile // by user id
	projects []*model.Project

	updateErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*model.User),
		profiles: make(map[string]*model.Profile),
	}
}

func (m *memStore) CreateUserWithProfile(_ context.Context, user *model.User, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}
	u := *user
	p := *profile
	m.users[user.ID] = &u
	m.profiles[user.ID] = &p
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (m *memStore) GetProfileByUserID(_ context.Context, userID string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetOrCreateProfile(_ context.Context, defaults *model.Profile) (*model.Profile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := false
	if _, ok := m.profiles[defaults.UserID]; !ok {
		p := *defaults
		m.profiles[defaults.UserID] = &p
		created = true
	}
	cp := *m.profiles[defaults.UserID]
	return &cp, created, nil
}

func (m *memStore) UpdateProfile(_ context.Context, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.profiles[profile.UserID]; !ok {
		return repository.ErrProfileNotFound
	}
	p := *profile
	m.profiles[profile.UserID] = &p
	return nil
}

func (m *memStore) CountProjects(_ context.Context, userID string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total, completed int64
	for _, p := range m.projects {
		if p.UserID != userID {
			continue
		}
		total++
		if p.IsCompleted() {
			completed++
		}
	}
	return total, completed, nil
}

func (m *memStore) ListRecentProjects(_ context.Context, userID string, limit int) ([]*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Project
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) profileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.profiles)
}

// plainHasher is a reversible stand-in for argon2 in service tests.
type plainHasher struct {
	dummyCalls int
}

func (h *plainHasher) Hash(password string) (string, error) {
	return "plain$" + password, nil
}

func (h *plainHasher) Verify(password, encodedHash string) (bool, error) {
	if !strings.HasPrefix(encodedHash, "plain$") {
		return false, errors.New("bad hash")
	}
	return encodedHash == "plain$"+password, nil
}

func (h *plainHasher) VerifyDummy(string) {
	h.dummyCalls++
}

type recordedEvent struct {
	Type   string
	UserID string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishAsync(eventType, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, UserID: userID})
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

type fixture struct {
	svc       *AccountService
	store     *memStore
	hasher    *plainHasher
	publisher *recordingPublisher
	metrics   *metrics.InMemoryRecorder
}

func newFixture() *fixture {
	f := &fixture{
		store:     newMemStore(),
		hasher:    &plainHasher{},
		publisher: &recordingPublisher{},
		metrics:   metrics.NewInMemory(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewAccountService(f.store, f.hasher, f.publisher, f.metrics, logger)
	return f
}
