package api

import (
	"github.com/gin-gonic/gin"

	"farmio/internal/auth"
	"farmio/internal/config"
	"farmio/internal/engine"
	"farmio/internal/logging"
	"farmio/internal/store"
)

// SetupRouter builds the admin HTTP surface: account auth plus a read-only
// view of the live game registry. The game protocol itself is plain TCP,
// handled entirely by internal/transport.
func SetupRouter(cfg *config.Config, s *store.Store, reg *engine.Registry, log *logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies(nil)

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := r.Group("/api")
	auth.RegisterRoutes(api.Group("/auth"), cfg, s)

	protected := api.Group("")
	protected.Use(auth.AuthMiddleware(cfg.JWTSecret))
	{
		RegisterDashboardRoutes(protected, reg, s, log)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found"})
	})

	return r
}
