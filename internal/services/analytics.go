package services

import (
	"context"
	"time"

	"github.com/hookline/hookline/internal/store"
)

// Stats summarises a user's scripts.
type Stats struct {
	TotalScripts    int `json:"totalScripts"`
	WeeklyScripts   int `json:"weeklyScripts"`
	FavoriteScripts int `json:"favoriteScripts"`
	SuccessRate     int `json:"successRate"`
}

const (
	statsWindow    = 7 * 24 * time.Hour
	successBase    = 85
	successPerItem = 2
	successCap     = 95
)

// AnalyticsService computes per-user statistics.
type AnalyticsService struct {
	scripts store.Scripts
	now     func() time.Time
}

// NewAnalyticsService creates an AnalyticsService. now may be nil.
func NewAnalyticsService(scripts store.Scripts, now func() time.Time) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{scripts: scripts, now: now}
}

// StatsFor counts userID's scripts, those created in the last seven days and
// favorites. SuccessRate is 0 without scripts, else min(95, 85 + 2*total).
func (s *AnalyticsService) StatsFor(ctx context.Context, userID string) (*Stats, error) {
	scripts, err := s.scripts.ListScriptsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	weekAgo := s.now().Add(-statsWindow)
	stats := &Stats{TotalScripts: len(scripts)}
	for _, sc := range scripts {
		if !sc.CreatedAt.Before(weekAgo) {
			stats.WeeklyScripts++
		}
		if sc.IsFavorite == 1 {
			stats.FavoriteScripts++
		}
	}
	if stats.TotalScripts > 0 {
		stats.SuccessRate = min(successCap, successBase+successPerItem*stats.TotalScripts)
	}
	return stats, nil
}
