package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"wikifeed/internal/assetcache"
	"wikifeed/internal/config"
	"wikifeed/internal/events"
	"wikifeed/internal/feed"
	"wikifeed/internal/security"
)

type Server struct {
	router      *gin.Engine
	feed        *feed.Feed
	assets      *assetcache.Loader
	bus         *events.Bus
	port        int
	docsEnabled bool
}

func NewServer(f *feed.Feed, assets *assetcache.Loader, bus *events.Bus, cfg *config.Config) *Server {
	router := gin.Default()

	securityConfig := &security.SecurityConfig{
		EnableRateLimit:       cfg.Security.EnableRateLimit,
		RateLimitPerSecond:    cfg.Security.RateLimitPerSecond,
		RateLimitBurst:        cfg.Security.RateLimitBurst,
		EnableCORS:            cfg.Security.EnableCORS,
		AllowedOrigins:        cfg.Security.AllowedOrigins,
		EnableSecurityHeaders: cfg.Security.EnableSecurityHeaders,
		MaxRequestSize:        cfg.Security.MaxRequestSize,
		EnableRequestID:       cfg.Security.EnableRequestID,
	}
	security.SetupSecurityMiddleware(router, securityConfig)

	server := &Server{
		router:      router,
		feed:        f,
		assets:      assets,
		bus:         bus,
		port:        cfg.Port,
		docsEnabled: cfg.EnableSwagger,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// API routes
	api := s.router.Group("/api/v1")
	{
		api.GET("/feed", s.getFeed)
		api.POST("/feed/more", s.requestMore)
		api.POST("/feed/refresh", s.refreshFeed)
		api.GET("/feed/status", s.getFeedStatus)
		api.GET("/feed/items", s.getCachedItem)

		// Direct asset-cache access for the presentation layer,
		// bypassing the orchestrator
		api.GET("/assets", s.getAsset)

		// Configuration change signals
		api.POST("/config/language", s.setLanguage)
		api.POST("/config/topics", s.setTopics)

		// Host environment signals
		api.POST("/signals/memory-pressure", s.memoryPressure)
	}

	s.registerDocs()
}

func (s *Server) Start() error {
	return s.router.Run(":" + strconv.Itoa(s.port))
}

// StartWithContext runs the server until the context is cancelled,
// then shuts down gracefully
func (s *Server) StartWithContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "wikifeed",
	})
}

func (s *Server) getFeed(c *gin.Context) {
	c.JSON(http.StatusOK, s.feed.Snapshot())
}

func (s *Server) requestMore(c *gin.Context) {
	isInitial := c.Query("initial") == "true"

	added, err := s.feed.RequestMore(c.Request.Context(), isInitial)
	if err != nil {
		// The classified error is already reflected in the snapshot;
		// the response stays cache-friendly for the UI
		c.JSON(http.StatusOK, s.feed.Snapshot())
		return
	}

	snapshot := s.feed.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"added":    added,
		"snapshot": snapshot,
	})
}

func (s *Server) refreshFeed(c *gin.Context) {
	added, err := s.feed.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, s.feed.Snapshot())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"added":    added,
		"snapshot": s.feed.Snapshot(),
	})
}

func (s *Server) getFeedStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.feed.Info())
}

func (s *Server) getCachedItem(c *gin.Context) {
	idStr := c.Query("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid item id",
		})
		return
	}

	item, found := s.feed.CachedItem(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "item not cached",
		})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) getAsset(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing url parameter",
		})
		return
	}

	data, ok := s.assets.FetchAndCache(c.Request.Context(), url, url)
	if !ok {
		// Asset absence is not a pipeline error; the item stays valid
		c.JSON(http.StatusNotFound, gin.H{
			"error": "asset unavailable",
		})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

func (s *Server) setLanguage(c *gin.Context) {
	var body struct {
		Language string `json:"language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "language is required",
		})
		return
	}

	info := s.feed.Info()
	s.bus.PublishConfigChange(events.ConfigChange{
		Language: body.Language,
		Topics:   info.Topics,
	})

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Language change signalled",
		"language": body.Language,
	})
}

func (s *Server) setTopics(c *gin.Context) {
	var body struct {
		Topics []string `json:"topics"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid topics payload",
		})
		return
	}

	info := s.feed.Info()
	s.bus.PublishConfigChange(events.ConfigChange{
		Language: info.Language,
		Topics:   body.Topics,
	})

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Topic change signalled",
		"topics":  body.Topics,
	})
}

func (s *Server) memoryPressure(c *gin.Context) {
	s.bus.PublishMemoryPressure()
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Memory pressure signalled",
	})
}
