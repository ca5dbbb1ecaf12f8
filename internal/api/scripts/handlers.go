// Package scripts implements the /api/scripts endpoints: generation, saving
// and per-user management of saved scripts. Every route requires a session.
package scripts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hookline/hookline/internal/api/respond"
	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/generation"
	"github.com/hookline/hookline/internal/middleware"
	"github.com/hookline/hookline/internal/services"
)

// msgDeleteNotFound is the DELETE-specific 404 message.
const msgDeleteNotFound = "Script not found or unauthorized"

// Handlers serves the script endpoints.
type Handlers struct {
	scripts *services.ScriptService
}

// NewHandlers creates script handlers backed by scripts.
func NewHandlers(scripts *services.ScriptService) *Handlers {
	return &Handlers{scripts: scripts}
}

// generateRequest is the body of POST /api/scripts/generate.
type generateRequest struct {
	Niche       string `json:"niche"`
	ContentType string `json:"contentType"`
	Tone        string `json:"tone"`
	Length      string `json:"length"`
	Notes       string `json:"notes"`
}

// @Summary      Generate a script
// @Description  Generates hook, body and call-to-action for a brief. Provider failures are absorbed and replaced with curated fallback lines, so a valid brief always yields three non-empty fields.
// @Tags         Scripts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  generateRequest  true  "Brief"
// @Success      200  {object}  generation.Result
// @Failure      400  {object}  map[string]interface{}  "Missing brief field"
// @Failure      401  {object}  map[string]interface{}  "Access token required"
// @Failure      403  {object}  map[string]interface{}  "Invalid or expired token"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/scripts/generate [post]
func (h *Handlers) Generate(c *gin.Context) {
	var req generateRequest
	if !respond.BindJSON(c, &req) {
		return
	}

	result, err := h.scripts.Generate(c.Request.Context(), generation.Request{
		Niche:       req.Niche,
		ContentType: req.ContentType,
		Tone:        req.Tone,
		Length:      req.Length,
		Notes:       req.Notes,
	})
	if err != nil {
		respond.Error(c, err, "Failed to generate script. Please try again.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary      Save a script
// @Description  Saves a generated script for the caller. Every field except notes is required; new scripts are not favorites.
// @Tags         Scripts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  services.SaveInput  true  "Script"
// @Success      200  {object}  models.Script
// @Failure      400  {object}  map[string]interface{}  "Missing required script data"
// @Failure      401  {object}  map[string]interface{}  "Access token required"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/scripts/save [post]
func (h *Handlers) Save(c *gin.Context) {
	var in services.SaveInput
	if !respond.BindJSON(c, &in) {
		return
	}

	script, err := h.scripts.Save(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		respond.Error(c, err, "Failed to save script")
		return
	}
	c.JSON(http.StatusOK, script)
}

// @Summary      List scripts
// @Description  Returns the caller's saved scripts, newest first.
// @Tags         Scripts
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   models.Script
// @Failure      401  {object}  map[string]interface{}  "Access token required"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/scripts [get]
func (h *Handlers) List(c *gin.Context) {
	scripts, err := h.scripts.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, err, "Failed to get scripts")
		return
	}
	if scripts == nil {
		scripts = []*models.Script{}
	}
	c.JSON(http.StatusOK, scripts)
}

// @Summary      Update a script
// @Description  Applies a partial update to one of the caller's scripts. Scripts owned by other users are reported as not found.
// @Tags         Scripts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "Script ID"
// @Param        body  body  models.ScriptPatch  true  "Fields to change"
// @Success      200  {object}  models.Script
// @Failure      400  {object}  map[string]interface{}  "Invalid patch"
// @Failure      404  {object}  map[string]interface{}  "Script not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/scripts/{id} [put]
func (h *Handlers) Update(c *gin.Context) {
	var patch models.ScriptPatch
	if !respond.BindJSON(c, &patch) {
		return
	}

	script, err := h.scripts.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &patch)
	if err != nil {
		respond.Error(c, err, "Failed to update script")
		return
	}
	c.JSON(http.StatusOK, script)
}

// @Summary      Delete a script
// @Description  Deletes one of the caller's scripts together with its community entries.
// @Tags         Scripts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Script ID"
// @Success      200  {object}  map[string]interface{}  "message: Script deleted successfully"
// @Failure      404  {object}  map[string]interface{}  "Script not found or unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/scripts/{id} [delete]
func (h *Handlers) Delete(c *gin.Context) {
	err := h.scripts.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if errors.Is(err, services.ErrScriptNotFound) {
		respond.Message(c, http.StatusNotFound, msgDeleteNotFound)
		return
	}
	if err != nil {
		respond.Error(c, err, "Failed to delete script")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Script deleted successfully"})
}
