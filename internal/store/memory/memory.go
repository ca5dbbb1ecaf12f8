// Package memory is the default, volatile store backend. All state lives in
// process memory behind a single RWMutex and is lost on restart.
package memory

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hookline/hookline/internal/config"
	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/store"
)

func init() {
	store.Register(config.BackendMemory, func(*config.Config) (store.Store, error) {
		return New(), nil
	})
}

// Rand is the random source used for community engagement counters.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRand overrides the random source used by AddToCommunity.
func WithRand(r Rand) Option {
	return func(s *Store) { s.rand = r }
}

// Store implements store.Store in memory.
type Store struct {
	mu sync.RWMutex

	users       map[string]*models.User
	userByEmail map[string]string
	userByName  map[string]string

	scripts   map[string]*models.Script
	community map[string]*models.CommunityEntry

	now  func() time.Time
	rand Rand
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		users:       make(map[string]*models.User),
		userByEmail: make(map[string]string),
		userByName:  make(map[string]string),
		scripts:     make(map[string]*models.Script),
		community:   make(map[string]*models.CommunityEntry),
		now:         time.Now,
		rand:        globalRand{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// CreateUser inserts u, failing when its email or username is taken.
func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userByEmail[u.Email]; ok {
		return store.ErrEmailTaken
	}
	if _, ok := s.userByName[u.Username]; ok {
		return store.ErrUsernameTaken
	}

	u.ID = uuid.New().String()
	u.CreatedAt = s.now()

	stored := *u
	s.users[u.ID] = &stored
	s.userByEmail[u.Email] = u.ID
	s.userByName[u.Username] = u.ID
	return nil
}

// GetUserByID returns nil, nil when no user has id.
func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.users[id]), nil
}

// GetUserByEmail returns nil, nil when no user has email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.users[s.userByEmail[email]]), nil
}

// GetUserByUsername returns nil, nil when no user has username.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.users[s.userByName[username]]), nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// ---------------------------------------------------------------------------
// Scripts
// ---------------------------------------------------------------------------

// CreateScript inserts sc with a fresh ID and timestamps.
func (s *Store) CreateScript(_ context.Context, sc *models.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sc.ID = uuid.New().String()
	sc.CreatedAt = now
	sc.UpdatedAt = now
	s.scripts[sc.ID] = copyScript(sc)
	return nil
}

// GetScript returns nil, nil when the script does not exist.
func (s *Store) GetScript(_ context.Context, id string) (*models.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyScript(s.scripts[id]), nil
}

// ListScriptsByUser returns userID's scripts, newest first.
func (s *Store) ListScriptsByUser(_ context.Context, userID string) ([]*models.Script, error) {
	s.mu.RLock()
	out := make([]*models.Script, 0)
	for _, sc := range s.scripts {
		if sc.UserID == userID {
			out = append(out, copyScript(sc))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UpdateScript applies patch to the script with id.
func (s *Store) UpdateScript(_ context.Context, id string, patch *models.ScriptPatch) (*models.Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scripts[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(sc)
	sc.UpdatedAt = s.now()
	return copyScript(sc), nil
}

// DeleteScript removes the script owned by userID and its community entries.
func (s *Store) DeleteScript(_ context.Context, id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scripts[id]
	if !ok || sc.UserID != userID {
		return false, nil
	}
	delete(s.scripts, id)
	for entryID, e := range s.community {
		if e.ScriptID == id {
			delete(s.community, entryID)
		}
	}
	return true, nil
}

// CountScripts returns the number of saved scripts.
func (s *Store) CountScripts(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scripts), nil
}

// ---------------------------------------------------------------------------
// Community
// ---------------------------------------------------------------------------

// ListCommunity returns visible entries joined with their scripts, most liked first.
func (s *Store) ListCommunity(_ context.Context, limit int) ([]*models.CommunityScript, error) {
	s.mu.RLock()
	out := make([]*models.CommunityScript, 0, len(s.community))
	for _, e := range s.community {
		if e.IsVisible != 1 {
			continue
		}
		sc, ok := s.scripts[e.ScriptID]
		if !ok {
			continue
		}
		out = append(out, &models.CommunityScript{CommunityEntry: *e, Script: *copyScript(sc)})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Likes != out[j].Likes {
			return out[i].Likes > out[j].Likes
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AddToCommunity promotes scriptID into the feed with likes in [100, 600)
// and shares in [20, 120).
func (s *Store) AddToCommunity(_ context.Context, scriptID, anonymousUsername string) (*models.CommunityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scripts[scriptID]; !ok {
		return nil, store.ErrScriptNotFound
	}

	e := &models.CommunityEntry{
		ID:                uuid.New().String(),
		ScriptID:          scriptID,
		AnonymousUsername: anonymousUsername,
		Likes:             100 + s.rand.IntN(500),
		Shares:            20 + s.rand.IntN(100),
		IsVisible:         1,
		CreatedAt:         s.now(),
	}
	s.community[e.ID] = e
	out := *e
	return &out, nil
}

// CountCommunityEntries returns the number of feed entries, visible or not.
func (s *Store) CountCommunityEntries(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.community), nil
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

func copyScript(sc *models.Script) *models.Script {
	if sc == nil {
		return nil
	}
	out := *sc
	if sc.Notes != nil {
		notes := *sc.Notes
		out.Notes = &notes
	}
	return &out
}
