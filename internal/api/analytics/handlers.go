// Package analytics serves per-user script statistics.
package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hookline/hookline/internal/api/respond"
	"github.com/hookline/hookline/internal/middleware"
	"github.com/hookline/hookline/internal/services"
)

// StatsHandler handles GET /api/analytics/stats
type StatsHandler struct {
	analytics *services.AnalyticsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(analytics *services.AnalyticsService) *StatsHandler {
	return &StatsHandler{analytics: analytics}
}

// @Summary      Get script statistics
// @Description  Returns the caller's total, weekly (trailing seven days) and favorite script counts plus a success rate derived from volume.
// @Tags         Analytics
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  services.Stats
// @Failure      401  {object}  map[string]interface{}  "Access token required"
// @Failure      403  {object}  map[string]interface{}  "Invalid or expired token"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/analytics/stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.analytics.StatsFor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, err, "Failed to get analytics")
		return
	}
	c.JSON(http.StatusOK, stats)
}
