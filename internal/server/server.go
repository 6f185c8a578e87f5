// Package server exposes the editor's persistence and export operations
// over HTTP. The API is stateless with respect to editing: clients send the
// full project document; the server stores it, imports into it, or renders
// it.
package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/framecut/framecut/config"
	"github.com/framecut/framecut/internal/job"
	"github.com/framecut/framecut/internal/media"
	"github.com/framecut/framecut/internal/storage"
)

// Server handles HTTP requests for the editor backend
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	backend storage.Storage
	jobs    *job.Manager
	fetcher *media.Fetcher
}

// New creates a new HTTP server instance over the given storage backend.
func New(cfg *config.Config, backend storage.Storage) (*Server, error) {
	router := gin.Default()

	fetcher, err := media.NewFetcher(cfg.Media.CacheDir)
	if err != nil {
		return nil, err
	}

	server := &Server{
		cfg:     cfg,
		router:  router,
		backend: backend,
		jobs:    job.NewManager(),
		fetcher: fetcher,
	}

	server.setupRoutes()
	return server, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// The editor UI runs in a browser on another origin.
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api/v1")
	{
		api.GET("/projects", s.listProjects)
		api.PUT("/projects/:id", s.saveProject)
		api.GET("/projects/:id", s.getProject)
		api.DELETE("/projects/:id", s.deleteProject)

		api.POST("/subtitles/import", s.importSubtitles)

		api.POST("/export", s.startExport)
		api.GET("/export/jobs", s.listExportJobs)
		api.GET("/export/jobs/:id", s.getExportJob)
		api.DELETE("/export/jobs/:id", s.cancelExportJob)
		api.GET("/export/jobs/:id/download", s.downloadExport)
	}
}

// Start starts the HTTP server
func (s *Server) Start(port string) error {
	return s.router.Run(":" + port)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "framecut",
	})
}
