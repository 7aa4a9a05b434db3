package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// --- users ---

type memUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUserStore(users ...model.User) *memUserStore {
	m := &memUserStore{users: map[string]model.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUserStore) Create(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return driven.ErrEmailTaken
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUserStore) Get(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, driven.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, driven.ErrUserNotFound
}

func (m *memUserStore) List(_ context.Context, filter model.UserFilter) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memUserStore) Update(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return driven.ErrUserNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUserStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return driven.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// --- connections ---

type memConnectionStore struct {
	mu        sync.Mutex
	conns     map[string]model.Connection
	createErr error
	deleted   []string
}

func newMemConnectionStore(conns ...model.Connection) *memConnectionStore {
	m := &memConnectionStore{conns: map[string]model.Connection{}}
	for _, c := range conns {
		m.conns[c.ID] = c
	}
	return m
}

func (m *memConnectionStore) Create(_ context.Context, c model.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.conns[c.ID] = c
	return nil
}

func (m *memConnectionStore) Get(_ context.Context, userID, id string) (*model.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok || c.UserID != userID {
		return nil, driven.ErrConnectionNotFound
	}
	return &c, nil
}

func (m *memConnectionStore) ListByUser(_ context.Context, userID string) ([]model.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Connection{}
	for _, c := range m.conns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memConnectionStore) Update(_ context.Context, c model.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.conns[c.ID]
	if !ok || existing.UserID != c.UserID {
		return driven.ErrConnectionNotFound
	}
	m.conns[c.ID] = c
	return nil
}

func (m *memConnectionStore) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok || c.UserID != userID {
		return driven.ErrConnectionNotFound
	}
	delete(m.conns, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// --- oauth states ---

type memStateStore struct {
	mu           sync.Mutex
	states       map[string]model.OAuthState
	saveErr      error
	deleteErr    error
	sweptAt      []time.Time
	deleteCalled int
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: map[string]model.OAuthState{}}
}

func (m *memStateStore) Save(_ context.Context, s model.OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.states[s.StateToken] = s
	return nil
}

func (m *memStateStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalled++
	m.sweptAt = append(m.sweptAt, now)
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var n int64
	for token, s := range m.states {
		if s.Expired(now) {
			delete(m.states, token)
			n++
		}
	}
	return n, nil
}

func (m *memStateStore) sweeps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCalled
}

// --- messages ---

type memMessageStore struct {
	mu       sync.Mutex
	messages map[string]model.Message
}

func newMemMessageStore() *memMessageStore {
	return &memMessageStore{messages: map[string]model.Message{}}
}

func (m *memMessageStore) Create(_ context.Context, msg model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ID] = msg
	return nil
}

func (m *memMessageStore) Get(_ context.Context, userID, id string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok || msg.UserID != userID {
		return nil, driven.ErrMessageNotFound
	}
	return &msg, nil
}

func (m *memMessageStore) ListByUser(_ context.Context, userID string, limit int) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Message{}
	for _, msg := range m.messages {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memMessageStore) Update(_ context.Context, msg model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[msg.ID]; !ok {
		return driven.ErrMessageNotFound
	}
	m.messages[msg.ID] = msg
	return nil
}

func (m *memMessageStore) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok || msg.UserID != userID {
		return driven.ErrMessageNotFound
	}
	delete(m.messages, id)
	return nil
}

// --- security ---

// plainHasher prefixes passwords instead of hashing them.
type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }

func (plainHasher) Verify(hash, pw string) bool { return hash == "hashed:"+pw }

// reverseCipher treats "enc:"-prefixed strings as ciphertext; anything else is invalid.
type reverseCipher struct{}

func (reverseCipher) Decrypt(ct string) (string, error) {
	if ct == "" {
		return "", nil
	}
	if !strings.HasPrefix(ct, "enc:") {
		return "", driven.ErrInvalidToken
	}
	return strings.TrimPrefix(ct, "enc:"), nil
}

// stubSigner issues "session:<id>" tokens.
type stubSigner struct {
	err error
}

func (s stubSigner) Issue(userID string) (string, time.Duration, error) {
	if s.err != nil {
		return "", 0, s.err
	}
	return "session:" + userID, time.Hour, nil
}

func (s stubSigner) Verify(token string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	id, ok := strings.CutPrefix(token, "session:")
	if !ok {
		return "", driven.ErrInvalidToken
	}
	return id, nil
}

// stubAuthURLs serves URLs for gmail and google only.
type stubAuthURLs struct{}

func (stubAuthURLs) AuthURL(provider, state string) (string, bool) {
	if !model.Provider(provider).UsesGoogleOAuth() {
		return "", false
	}
	return fmt.Sprintf("https://accounts.example/auth?state=%s", state), true
}

func activeUser(id, email string) model.User {
	return model.User{
		ID:             id,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          email,
		HashedPassword: "hashed:password123",
		IsActive:       true,
		CreatedAt:      fixedNow,
		UpdatedAt:      fixedNow,
	}
}
