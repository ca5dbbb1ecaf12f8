// Package account implements the /api/auth endpoints: signup, login and the
// current-user profile.
package account

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hookline/hookline/internal/api/respond"
	"github.com/hookline/hookline/internal/middleware"
	"github.com/hookline/hookline/internal/services"
)

// Handlers serves the account endpoints.
type Handlers struct {
	accounts *services.AccountService
}

// NewHandlers creates account handlers backed by accounts.
func NewHandlers(accounts *services.AccountService) *Handlers {
	return &Handlers{accounts: accounts}
}

// @Summary      Sign up
// @Description  Registers a new user and returns a session token. Email is checked for duplicates before username.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  services.SignupInput  true  "Account details"
// @Success      200  {object}  services.Session
// @Failure      400  {object}  map[string]interface{}  "Validation failure, duplicate email or duplicate username"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/auth/signup [post]
// SignupHandler registers a user
// POST /api/auth/signup
func (h *Handlers) SignupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.SignupInput
		if !respond.BindJSON(c, &in) {
			return
		}

		session, err := h.accounts.Signup(c.Request.Context(), in)
		if err != nil {
			respond.Error(c, err, "Signup failed")
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// @Summary      Log in
// @Description  Exchanges email and password for a session token valid for seven days.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  services.LoginInput  true  "Credentials"
// @Success      200  {object}  services.Session
// @Failure      400  {object}  map[string]interface{}  "Malformed body"
// @Failure      401  {object}  map[string]interface{}  "Invalid email or password"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/auth/login [post]
// LoginHandler authenticates a user
// POST /api/auth/login
func (h *Handlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.LoginInput
		if !respond.BindJSON(c, &in) {
			return
		}

		session, err := h.accounts.Login(c.Request.Context(), in)
		if err != nil {
			respond.Error(c, err, "Login failed")
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// @Summary      Current user
// @Description  Returns the public profile of the token's user.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user: models.PublicUser"
// @Failure      401  {object}  map[string]interface{}  "Access token required"
// @Failure      403  {object}  map[string]interface{}  "Invalid or expired token"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/auth/me [get]
// MeHandler returns the authenticated user
// GET /api/auth/me
func (h *Handlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.accounts.Profile(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respond.Error(c, err, "Failed to get user profile")
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}
