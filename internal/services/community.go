package services

import (
	"context"

	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/store"
)

// DefaultFeedLimit is the number of entries the community feed shows.
const DefaultFeedLimit = 6

// CommunityService serves the public community feed.
type CommunityService struct {
	community store.Community
	limit     int
}

// NewCommunityService creates a CommunityService showing at most limit
// entries; limit <= 0 means DefaultFeedLimit.
func NewCommunityService(community store.Community, limit int) *CommunityService {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return &CommunityService{community: community, limit: limit}
}

// Feed returns the most liked visible entries with their scripts.
func (s *CommunityService) Feed(ctx context.Context) ([]*models.CommunityScript, error) {
	return s.community.ListCommunity(ctx, s.limit)
}
