package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/middleware"
	"github.com/hookline/hookline/internal/services"
	"github.com/hookline/hookline/internal/store"
	"github.com/hookline/hookline/internal/store/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type brokenScripts struct {
	*memory.Store
}

func (brokenScripts) ListScriptsByUser(context.Context, string) ([]*models.Script, error) {
	return nil, errors.New("db error")
}

func newStatsRouter(t *testing.T, scripts store.Scripts, now time.Time) *gin.Engine {
	t.Helper()
	h := NewStatsHandler(services.NewAnalyticsService(scripts, func() time.Time { return now }))

	r := gin.New()
	r.GET("/api/analytics/stats", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, "u1")
		c.Next()
	}, h.GetStats)
	return r
}

func getStats(t *testing.T, r *gin.Engine) (int, services.Stats) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/stats", nil))
	var stats services.Stats
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return w.Code, stats
}

func TestGetStats_NoScripts(t *testing.T) {
	r := newStatsRouter(t, memory.New(), time.Now())

	code, stats := getStats(t, r)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if stats != (services.Stats{}) {
		t.Errorf("stats = %+v, want all zero", stats)
	}
}

func TestGetStats_ThreeOldScripts(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	created := now.Add(-10 * 24 * time.Hour)
	st := memory.New(memory.WithClock(func() time.Time { return created }))
	for range 3 {
		if err := st.CreateScript(context.Background(), &models.Script{UserID: "u1", Title: "t"}); err != nil {
			t.Fatalf("CreateScript: %v", err)
		}
	}
	// another user's script must not count
	if err := st.CreateScript(context.Background(), &models.Script{UserID: "u2", Title: "t"}); err != nil {
		t.Fatalf("CreateScript: %v", err)
	}

	code, stats := getStats(t, newStatsRouter(t, st, now))
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	want := services.Stats{TotalScripts: 3, WeeklyScripts: 0, FavoriteScripts: 0, SuccessRate: 91}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestGetStats_StoreError(t *testing.T) {
	r := newStatsRouter(t, brokenScripts{memory.New()}, time.Now())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/stats", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if got := w.Body.String(); got != `{"message":"Failed to get analytics"}` {
		t.Errorf("body = %s", got)
	}
}
