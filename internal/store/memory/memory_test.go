package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/internal/config"
	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/store"
)

// fixedRand returns n-1 for every call, the top of each range.
type fixedRand struct{}

func (fixedRand) IntN(n int) int { return n - 1 }

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore() *Store {
	clock := &stepClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.now), WithRand(fixedRand{}))
}

func newUser(email, username string) *models.User {
	return &models.User{Email: email, Username: username, PasswordHash: "hash", FullName: "Test User"}
}

func newScript(userID, title string) *models.Script {
	return &models.Script{
		UserID: userID, Title: title, Niche: "Technology", ContentType: "Reel",
		Tone: "Casual", Length: "30s", Hook: "hook", Body: "body", CTA: "cta",
	}
}

func TestRegisteredAsMemoryBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = config.BackendMemory
	s, err := store.New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Store{}, s)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	u := newUser("a@example.com", "alice")
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)

	got, err = s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateUser_Duplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.CreateUser(ctx, newUser("a@example.com", "alice")))

	err := s.CreateUser(ctx, newUser("a@example.com", "other"))
	assert.ErrorIs(t, err, store.ErrEmailTaken)

	err = s.CreateUser(ctx, newUser("b@example.com", "alice"))
	assert.ErrorIs(t, err, store.ErrUsernameTaken)

	n, _ := s.CountUsers(ctx)
	assert.Equal(t, 1, n)
}

func TestCreateUser_ConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.CreateUser(ctx, newUser("race@example.com", fmt.Sprintf("user%d", i)))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	n, _ := s.CountUsers(ctx)
	assert.Equal(t, 1, n)
}

func TestGetUser_Missing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	u, err := s.GetUserByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = s.GetUserByEmail(ctx, "nope@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	u := newUser("a@example.com", "alice")
	require.NoError(t, s.CreateUser(ctx, u))
	u.Username = "mutated"

	got, _ := s.GetUserByID(ctx, u.ID)
	assert.Equal(t, "alice", got.Username)

	notes := "original"
	sc := newScript(u.ID, "T")
	sc.Notes = &notes
	require.NoError(t, s.CreateScript(ctx, sc))

	fetched, _ := s.GetScript(ctx, sc.ID)
	*fetched.Notes = "changed"
	again, _ := s.GetScript(ctx, sc.ID)
	assert.Equal(t, "original", *again.Notes)
}

func TestListScriptsByUser_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.CreateScript(ctx, newScript("u-1", fmt.Sprintf("T%d", i))))
	}
	require.NoError(t, s.CreateScript(ctx, newScript("u-2", "other")))

	list, err := s.ListScriptsByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"T3", "T2", "T1"}, []string{list[0].Title, list[1].Title, list[2].Title})

	empty, err := s.ListScriptsByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestUpdateScript(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	sc := newScript("u-1", "Old")
	require.NoError(t, s.CreateScript(ctx, sc))

	title := "New"
	fav := 1
	updated, err := s.UpdateScript(ctx, sc.ID, &models.ScriptPatch{Title: &title, IsFavorite: &fav})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, 1, updated.IsFavorite)
	assert.Equal(t, "hook", updated.Hook)
	assert.True(t, updated.UpdatedAt.After(sc.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(sc.CreatedAt))

	missing, err := s.UpdateScript(ctx, "nope", &models.ScriptPatch{Title: &title})
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteScript(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	sc := newScript("u-1", "T")
	require.NoError(t, s.CreateScript(ctx, sc))
	_, err := s.AddToCommunity(ctx, sc.ID, "Anon")
	require.NoError(t, err)

	t.Run("other user cannot delete", func(t *testing.T) {
		ok, err := s.DeleteScript(ctx, sc.ID, "u-2")
		require.NoError(t, err)
		assert.False(t, ok)
		got, _ := s.GetScript(ctx, sc.ID)
		assert.NotNil(t, got)
	})

	t.Run("owner deletes and community entry cascades", func(t *testing.T) {
		ok, err := s.DeleteScript(ctx, sc.ID, "u-1")
		require.NoError(t, err)
		assert.True(t, ok)

		got, _ := s.GetScript(ctx, sc.ID)
		assert.Nil(t, got)
		n, _ := s.CountCommunityEntries(ctx)
		assert.Equal(t, 0, n)
	})

	t.Run("second delete reports false", func(t *testing.T) {
		ok, err := s.DeleteScript(ctx, sc.ID, "u-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAddToCommunity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	sc := newScript("u-1", "T")
	require.NoError(t, s.CreateScript(ctx, sc))

	e, err := s.AddToCommunity(ctx, sc.ID, "CreatorOne")
	require.NoError(t, err)
	assert.Equal(t, 599, e.Likes)
	assert.Equal(t, 119, e.Shares)
	assert.Equal(t, 1, e.IsVisible)
	assert.Equal(t, sc.ID, e.ScriptID)

	_, err = s.AddToCommunity(ctx, "missing", "Anon")
	assert.ErrorIs(t, err, store.ErrScriptNotFound)
}

func TestAddToCommunity_Ranges(t *testing.T) {
	ctx := context.Background()
	s := New()

	sc := newScript("u-1", "T")
	require.NoError(t, s.CreateScript(ctx, sc))

	for i := 0; i < 200; i++ {
		e, err := s.AddToCommunity(ctx, sc.ID, "Anon")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, e.Likes, 100)
		assert.LessOrEqual(t, e.Likes, 599)
		assert.GreaterOrEqual(t, e.Shares, 20)
		assert.LessOrEqual(t, e.Shares, 119)
	}
}

// likesRand hands out a fixed sequence of values.
type likesRand struct {
	mu   sync.Mutex
	vals []int
}

func (r *likesRand) IntN(int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.vals[0]
	r.vals = r.vals[1:]
	return v
}

func TestListCommunity(t *testing.T) {
	ctx := context.Background()
	// likes offsets interleaved with share offsets
	r := &likesRand{vals: []int{10, 0, 300, 0, 50, 0, 400, 0, 5, 0, 250, 0, 20, 0, 499, 0}}
	s := New(WithRand(r))

	var scripts []*models.Script
	for i := 0; i < 8; i++ {
		sc := newScript("u-1", fmt.Sprintf("T%d", i))
		require.NoError(t, s.CreateScript(ctx, sc))
		scripts = append(scripts, sc)
		_, err := s.AddToCommunity(ctx, sc.ID, "Anon")
		require.NoError(t, err)
	}

	feed, err := s.ListCommunity(ctx, 6)
	require.NoError(t, err)
	require.Len(t, feed, 6)

	likes := make([]int, 0, len(feed))
	for _, cs := range feed {
		likes = append(likes, cs.Likes)
		assert.Equal(t, cs.ScriptID, cs.Script.ID)
	}
	assert.Equal(t, []int{599, 500, 400, 350, 150, 120}, likes)

	// Deleting a promoted script removes it from the feed.
	ok, err := s.DeleteScript(ctx, scripts[7].ID, "u-1")
	require.NoError(t, err)
	require.True(t, ok)

	all, err := s.ListCommunity(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 7)
	assert.Equal(t, 500, all[0].Likes)
}

func TestListCommunity_HidesInvisible(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	sc := newScript("u-1", "T")
	require.NoError(t, s.CreateScript(ctx, sc))
	e, err := s.AddToCommunity(ctx, sc.ID, "Anon")
	require.NoError(t, err)

	s.mu.Lock()
	s.community[e.ID].IsVisible = 0
	s.mu.Unlock()

	feed, err := s.ListCommunity(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.CreateUser(ctx, newUser("a@example.com", "alice")))
	sc := newScript("u-1", "T")
	require.NoError(t, s.CreateScript(ctx, sc))
	_, err := s.AddToCommunity(ctx, sc.ID, "Anon")
	require.NoError(t, err)

	users, _ := s.CountUsers(ctx)
	scripts, _ := s.CountScripts(ctx)
	entries, _ := s.CountCommunityEntries(ctx)
	assert.Equal(t, []int{1, 1, 1}, []int{users, scripts, entries})
	assert.NoError(t, s.Ping(ctx))
	assert.NoError(t, s.Close())
}
