// Package api wires together all HTTP routes for the Hookline backend.
//
// Route grouping:
//   - /api/auth/signup, /api/auth/login and /api/community/scripts are public.
//   - Everything else under /api requires a session token (AuthMiddleware).
//   - /health, /ready and /version are unauthenticated operational endpoints.
//
// Handlers receive their services through Dependencies; NewRouter never
// reaches for globals, so tests can build isolated routers over a fresh store.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hookline/hookline/internal/api/account"
	"github.com/hookline/hookline/internal/api/analytics"
	"github.com/hookline/hookline/internal/api/community"
	"github.com/hookline/hookline/internal/api/scripts"
	"github.com/hookline/hookline/internal/auth"
	"github.com/hookline/hookline/internal/config"
	"github.com/hookline/hookline/internal/middleware"
	"github.com/hookline/hookline/internal/services"
	"github.com/hookline/hookline/internal/store"
)

// Version is reported by /version. Release builds override it with
// -ldflags "-X github.com/hookline/hookline/internal/api.Version=...".
var Version = "0.1.0"

// Dependencies are the collaborators the router needs.
type Dependencies struct {
	Store     store.Store
	Tokens    *auth.TokenIssuer
	Generator services.Generator
	// Provider names the generation backend for /ready; "none" means
	// fallback content only.
	Provider string
	// Now is the analytics clock; nil means time.Now.
	Now func() time.Time
	// AuthLimiter throttles signup and login, GenerateLimiter throttles
	// script generation. nil disables the limit.
	AuthLimiter     middleware.Limiter
	GenerateLimiter middleware.Limiter
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	router := gin.New()
	// Without trusted proxies ClientIP is the TCP peer, so X-Forwarded-For
	// cannot pick a fresh rate limit bucket.
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		slog.Error("invalid trusted proxies, trusting none", "error", err)
		_ = router.SetTrustedProxies(nil)
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	accountSvc := services.NewAccountService(deps.Store, hasher, deps.Tokens)
	scriptSvc := services.NewScriptService(deps.Store, deps.Store, deps.Generator)
	analyticsSvc := services.NewAnalyticsService(deps.Store, deps.Now)
	communitySvc := services.NewCommunityService(deps.Store, cfg.Community.FeedLimit)

	accountHandlers := account.NewHandlers(accountSvc)
	scriptHandlers := scripts.NewHandlers(scriptSvc)
	statsHandler := analytics.NewStatsHandler(analyticsSvc)
	feedHandler := community.NewFeedHandler(communitySvc)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})

	router.GET("/health", healthCheckHandler(deps.Store))
	router.GET("/ready", readinessHandler(deps.Store, deps.Provider))
	router.GET("/version", versionHandler())

	apiGroup := router.Group("/api")
	requireAuth := middleware.AuthMiddleware(deps.Tokens)

	authLimit := rateLimit("auth", deps.AuthLimiter)
	generateLimit := rateLimit("generate", deps.GenerateLimiter)

	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/signup", authLimit, accountHandlers.SignupHandler())
		authGroup.POST("/login", authLimit, accountHandlers.LoginHandler())
		authGroup.GET("/me", requireAuth, accountHandlers.MeHandler())
	}

	// Auth runs before the generate limit so buckets are keyed by user.
	scriptsGroup := apiGroup.Group("/scripts")
	scriptsGroup.Use(requireAuth)
	{
		scriptsGroup.POST("/generate", generateLimit, scriptHandlers.Generate)
		scriptsGroup.POST("/save", scriptHandlers.Save)
		scriptsGroup.GET("", scriptHandlers.List)
		scriptsGroup.PUT("/:id", scriptHandlers.Update)
		scriptsGroup.DELETE("/:id", scriptHandlers.Delete)
	}

	apiGroup.GET("/analytics/stats", requireAuth, statsHandler.GetStats)
	apiGroup.GET("/community/scripts", feedHandler.ListScripts)

	return router
}

// rateLimit returns the limiting middleware for scope, or a pass-through
// when limiter is nil.
func rateLimit(scope string, limiter middleware.Limiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimitMiddleware(scope, limiter)
}

// @Summary      Health check
// @Description  Returns the health status of the service, including store connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, message: store unavailable"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := st.Ping(c.Request.Context()); err != nil {
			slog.WarnContext(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "store unavailable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks the store and reports the generation provider.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, checks: map, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "ready: false, message: store not ready"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service. A missing
// generation provider does not fail readiness: generation falls back to
// curated content.
func readinessHandler(st store.Store, provider string) gin.HandlerFunc {
	if provider == "" {
		provider = config.ProviderNone
	}
	return func(c *gin.Context) {
		checks := gin.H{"generation": provider}

		if err := st.Ping(c.Request.Context()); err != nil {
			checks["store"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":   false,
				"checks":  checks,
				"message": "store not ready",
			})
			return
		}
		checks["store"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the running build version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": Version})
	}
}

// LoggerMiddleware emits one structured record per request. The output
// format (JSON or text) follows the global slog handler set up by
// telemetry.SetupLogger. Probe endpoints log at debug, server errors at error.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		level := slog.LevelInfo
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			level = slog.LevelError
		case path == "/health" || path == "/ready":
			level = slog.LevelDebug
		}
		slog.LogAttrs(
			c.Request.Context(),
			level,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", middleware.RequestID(c)),
			slog.String("user_id", middleware.UserID(c)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	methods := "GET, POST, PUT, DELETE, OPTIONS"
	if len(cfg.Security.CORS.AllowedMethods) > 0 {
		methods = strings.Join(cfg.Security.CORS.AllowedMethods, ", ")
	}
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		wildcard := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" {
				allowed, wildcard = true, true
				break
			}
			if allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" || wildcard {
				// bearer tokens, no cookies: no Allow-Credentials
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
