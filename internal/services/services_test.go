package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/internal/auth"
	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/generation"
	"github.com/hookline/hookline/internal/store/memory"
	"github.com/hookline/hookline/internal/validation"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// clock is a settable time source shared by the store and the services.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newAccounts(t *testing.T) (*AccountService, *memory.Store, *auth.TokenIssuer) {
	t.Helper()
	st := memory.New()
	issuer, err := auth.NewTokenIssuer(testSecret, auth.DefaultTokenTTL)
	require.NoError(t, err)
	// bcrypt.MinCost keeps the tests fast
	return NewAccountService(st, auth.NewPasswordHasher(4), issuer), st, issuer
}

func validSignup() SignupInput {
	return SignupInput{Email: "alice@example.com", Password: "secret1", Username: "alice", FullName: "Alice Doe"}
}

// ---------------------------------------------------------------------------
// AccountService
// ---------------------------------------------------------------------------

func TestSignup(t *testing.T) {
	svc, st, issuer := newAccounts(t)
	ctx := context.Background()

	sess, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "alice", sess.User.Username)
	assert.Equal(t, "Alice Doe", sess.User.FullName)

	claims, err := issuer.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)

	stored, err := st.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
}

func TestSignup_Duplicates(t *testing.T) {
	svc, st, _ := newAccounts(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	dupEmail := validSignup()
	dupEmail.Username = "other"
	_, err = svc.Signup(ctx, dupEmail)
	assert.ErrorIs(t, err, ErrEmailTaken)

	dupName := validSignup()
	dupName.Email = "other@example.com"
	_, err = svc.Signup(ctx, dupName)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// Email is checked before username.
	_, err = svc.Signup(ctx, validSignup())
	assert.ErrorIs(t, err, ErrEmailTaken)

	n, _ := st.CountUsers(ctx)
	assert.Equal(t, 1, n)
}

func TestSignup_Validation(t *testing.T) {
	svc, st, _ := newAccounts(t)
	ctx := context.Background()

	cases := map[string]func(*SignupInput){
		"bad email":      func(in *SignupInput) { in.Email = "not-an-email" },
		"short password": func(in *SignupInput) { in.Password = "12345" },
		"no username":    func(in *SignupInput) { in.Username = "" },
		"no full name":   func(in *SignupInput) { in.FullName = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validSignup()
			mutate(&in)
			_, err := svc.Signup(ctx, in)
			assert.True(t, validation.IsValidationError(err), "err = %v", err)
		})
	}

	n, _ := st.CountUsers(ctx)
	assert.Equal(t, 0, n)
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	svc, st, _ := newAccounts(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := validSignup()
			in.Username = "user" + string(rune('a'+i))
			_, err := svc.Signup(ctx, in)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrEmailTaken)
		}
	}
	assert.Equal(t, 1, ok)
	n, _ := st.CountUsers(ctx)
	assert.Equal(t, 1, n)
}

func TestLogin(t *testing.T) {
	svc, _, issuer := newAccounts(t)
	ctx := context.Background()
	signup, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		sess, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
		require.NoError(t, err)
		claims, err := issuer.Verify(sess.Token)
		require.NoError(t, err)
		assert.Equal(t, signup.User.ID, claims.UserID)
		assert.Equal(t, signup.User, sess.User)
	})

	t.Run("wrong password", func(t *testing.T) {
		sess, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-pass"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, sess)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "bob", Password: "secret1"})
		assert.True(t, validation.IsValidationError(err))
	})
}

func TestProfile(t *testing.T) {
	svc, _, _ := newAccounts(t)
	ctx := context.Background()
	sess, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	pub, err := svc.Profile(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.User, *pub)

	_, err = svc.Profile(ctx, "gone")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// ---------------------------------------------------------------------------
// ScriptService
// ---------------------------------------------------------------------------

type stubGenerator struct{ calls int }

func (g *stubGenerator) Generate(_ context.Context, req generation.Request) generation.Result {
	g.calls++
	return generation.Result{Hook: "hook for " + req.Niche, Body: "body", CTA: "cta"}
}

func newScripts(t *testing.T) (*ScriptService, *memory.Store, *stubGenerator) {
	t.Helper()
	st := memory.New()
	gen := &stubGenerator{}
	return NewScriptService(st, st, gen), st, gen
}

func validSave() SaveInput {
	return SaveInput{
		Title: "My script", Niche: "Technology", ContentType: "Reel", Tone: "Casual",
		Length: "30s", Hook: "h", Body: "b", CTA: "c",
	}
}

func TestScriptGenerate(t *testing.T) {
	svc, _, gen := newScripts(t)
	ctx := context.Background()

	res, err := svc.Generate(ctx, generation.Request{Niche: "Technology", ContentType: "Reel", Tone: "Casual", Length: "30s"})
	require.NoError(t, err)
	assert.Equal(t, "hook for Technology", res.Hook)

	_, err = svc.Generate(ctx, generation.Request{Niche: "Technology"})
	assert.True(t, validation.IsValidationError(err))
	assert.Equal(t, 1, gen.calls, "generator must not run for an invalid brief")
}

func TestScriptSave(t *testing.T) {
	svc, st, _ := newScripts(t)
	ctx := context.Background()

	s, err := svc.Save(ctx, "u-1", validSave())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, 0, s.IsFavorite)
	assert.Nil(t, s.Notes)

	in := validSave()
	in.Notes = "use trending audio"
	s, err = svc.Save(ctx, "u-1", in)
	require.NoError(t, err)
	require.NotNil(t, s.Notes)
	assert.Equal(t, "use trending audio", *s.Notes)

	n, _ := st.CountScripts(ctx)
	assert.Equal(t, 2, n)
}

func TestScriptSave_MissingField(t *testing.T) {
	svc, st, _ := newScripts(t)
	ctx := context.Background()

	in := validSave()
	in.CTA = ""
	_, err := svc.Save(ctx, "u-1", in)

	var ve *validation.Error
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Missing required script data", ve.Message)
	n, _ := st.CountScripts(ctx)
	assert.Equal(t, 0, n)
}

func TestScriptUpdate(t *testing.T) {
	svc, _, _ := newScripts(t)
	ctx := context.Background()
	s, err := svc.Save(ctx, "u-1", validSave())
	require.NoError(t, err)

	fav := 1
	title := "Renamed"
	updated, err := svc.Update(ctx, "u-1", s.ID, &models.ScriptPatch{IsFavorite: &fav, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.IsFavorite)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, s.ID, updated.ID)
	assert.Equal(t, "u-1", updated.UserID)

	_, err = svc.Update(ctx, "u-2", s.ID, &models.ScriptPatch{Title: &title})
	assert.ErrorIs(t, err, ErrScriptNotFound)

	_, err = svc.Update(ctx, "u-1", "missing", &models.ScriptPatch{Title: &title})
	assert.ErrorIs(t, err, ErrScriptNotFound)

	bad := 7
	_, err = svc.Update(ctx, "u-1", s.ID, &models.ScriptPatch{IsFavorite: &bad})
	assert.True(t, validation.IsValidationError(err))

	_, err = svc.Update(ctx, "u-1", s.ID, &models.ScriptPatch{})
	assert.True(t, validation.IsValidationError(err))
}

func TestScriptDelete(t *testing.T) {
	svc, st, _ := newScripts(t)
	ctx := context.Background()
	s, err := svc.Save(ctx, "u-1", validSave())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "u-2", s.ID), ErrScriptNotFound)
	got, _ := st.GetScript(ctx, s.ID)
	assert.NotNil(t, got, "non-owner delete must not remove the script")

	require.NoError(t, svc.Delete(ctx, "u-1", s.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "u-1", s.ID), ErrScriptNotFound)

	list, err := svc.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestScriptDelete_Concurrent(t *testing.T) {
	svc, _, _ := newScripts(t)
	ctx := context.Background()
	s, err := svc.Save(ctx, "u-1", validSave())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Delete(ctx, "u-1", s.ID)
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
}

func TestPromoteAndFeed(t *testing.T) {
	svc, st, _ := newScripts(t)
	feed := NewCommunityService(st, 0)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 8; i++ {
		s, err := svc.Save(ctx, "u-1", validSave())
		require.NoError(t, err)
		ids = append(ids, s.ID)
		e, err := svc.Promote(ctx, s.ID, "Creator")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, e.Likes, 100)
		assert.Less(t, e.Likes, 600)
		assert.GreaterOrEqual(t, e.Shares, 20)
		assert.Less(t, e.Shares, 120)
	}

	entries, err := feed.Feed(ctx)
	require.NoError(t, err)
	require.Len(t, entries, DefaultFeedLimit)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Likes, entries[i].Likes)
	}

	// A deleted script's entry never appears.
	for _, id := range ids {
		require.NoError(t, svc.Delete(ctx, "u-1", id))
	}
	entries, err = feed.Feed(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.Promote(ctx, "missing", "Creator")
	assert.ErrorIs(t, err, ErrScriptNotFound)

	_, err = svc.Promote(ctx, "missing", "  ")
	assert.True(t, validation.IsValidationError(err))
}

// ---------------------------------------------------------------------------
// AnalyticsService
// ---------------------------------------------------------------------------

func TestStatsFor(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clk := &clock{t: now}
	st := memory.New(memory.WithClock(clk.Now))
	analytics := NewAnalyticsService(st, clk.Now)
	ctx := context.Background()

	t.Run("no scripts", func(t *testing.T) {
		stats, err := analytics.StatsFor(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, Stats{}, *stats)
	})

	t.Run("three old non-favorites", func(t *testing.T) {
		clk.Set(now.Add(-10 * 24 * time.Hour))
		for i := 0; i < 3; i++ {
			require.NoError(t, st.CreateScript(ctx, &models.Script{UserID: "u-2", Title: "old"}))
		}
		clk.Set(now)

		stats, err := analytics.StatsFor(ctx, "u-2")
		require.NoError(t, err)
		assert.Equal(t, Stats{TotalScripts: 3, WeeklyScripts: 0, FavoriteScripts: 0, SuccessRate: 91}, *stats)
	})

	t.Run("weekly boundary and favorites", func(t *testing.T) {
		clk.Set(now.Add(-7 * 24 * time.Hour))
		edge := &models.Script{UserID: "u-3", IsFavorite: 1}
		require.NoError(t, st.CreateScript(ctx, edge))
		clk.Set(now.Add(-7*24*time.Hour - time.Second))
		require.NoError(t, st.CreateScript(ctx, &models.Script{UserID: "u-3"}))
		clk.Set(now)
		require.NoError(t, st.CreateScript(ctx, &models.Script{UserID: "u-3", IsFavorite: 1}))

		stats, err := analytics.StatsFor(ctx, "u-3")
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalScripts)
		assert.Equal(t, 2, stats.WeeklyScripts)
		assert.Equal(t, 2, stats.FavoriteScripts)
		assert.Equal(t, 91, stats.SuccessRate)
	})

	t.Run("success rate caps at 95", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			require.NoError(t, st.CreateScript(ctx, &models.Script{UserID: "u-4"}))
		}
		stats, err := analytics.StatsFor(ctx, "u-4")
		require.NoError(t, err)
		assert.Equal(t, 95, stats.SuccessRate)
	})
}

func TestStatsFor_SuccessRateFormula(t *testing.T) {
	st := memory.New()
	analytics := NewAnalyticsService(st, nil)
	ctx := context.Background()

	want := []int{87, 89, 91, 93, 95, 95}
	for i, w := range want {
		require.NoError(t, st.CreateScript(ctx, &models.Script{UserID: "u-1"}))
		stats, err := analytics.StatsFor(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, w, stats.SuccessRate, "after %d scripts", i+1)
	}
}
