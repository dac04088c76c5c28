package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up the API endpoints and groups them logically.
func RegisterRoutes(router *gin.Engine, h *APIHandler) {
	owner := RequireOwner(h.ownerSecret)

	page := router.Group("/api/page")
	{
		page.POST("/instruct", owner, h.Instruct)
		page.POST("/reset", owner, h.ResetPage)
		page.GET("/current", h.CurrentPage)
		page.GET("/versions/:version", h.PageVersion)
	}

	router.POST("/api/auth/verify", h.VerifyToken)

	// Live build stream for viewers.
	router.GET("/ws", h.ViewerWS)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// NewRouter builds the engine with the standard middleware and every route.
func NewRouter(h *APIHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	RegisterRoutes(router, h)
	return router
}
