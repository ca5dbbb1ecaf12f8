// Package community serves the public community feed.
package community

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hookline/hookline/internal/api/respond"
	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/services"
)

// FeedHandler handles GET /api/community/scripts
type FeedHandler struct {
	community *services.CommunityService
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(community *services.CommunityService) *FeedHandler {
	return &FeedHandler{community: community}
}

// @Summary      Community feed
// @Description  Returns the most liked visible community entries, each with its script. No authentication required.
// @Tags         Community
// @Produce      json
// @Success      200  {array}   models.CommunityScript
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/community/scripts [get]
func (h *FeedHandler) ListScripts(c *gin.Context) {
	feed, err := h.community.Feed(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "Failed to get community scripts")
		return
	}
	if feed == nil {
		feed = []*models.CommunityScript{}
	}
	c.JSON(http.StatusOK, feed)
}
