package server

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/framecut/framecut/internal/storage"
	"github.com/framecut/framecut/internal/subtitle"
	"github.com/framecut/framecut/internal/timeline"
)

// saveProject validates and persists a full project document.
func (s *Server) saveProject(c *gin.Context) {
	id := c.Param("id")

	var project timeline.Project
	if err := c.ShouldBindJSON(&project); err != nil {
		c.JSON(400, gin.H{"error": "Invalid project JSON: " + err.Error()})
		return
	}
	if err := timeline.ValidateProject(project); err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}

	// Round-trip through the store so what is persisted is the same
	// normalized form Export produces.
	store := timeline.NewStore()
	store.Load(project)
	data, err := json.Marshal(store.Export())
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	if err := s.backend.SaveProject(c.Request.Context(), id, data); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"id": id, "message": "Project saved"})
}

func (s *Server) getProject(c *gin.Context) {
	data, err := s.backend.LoadProject(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.Data(200, "application/json", data)
}

func (s *Server) listProjects(c *gin.Context) {
	ids, err := s.backend.ListProjects(c.Request.Context())
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(200, gin.H{"projects": ids})
}

func (s *Server) deleteProject(c *gin.Context) {
	err := s.backend.DeleteProject(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "Project deleted"})
}

// SubtitleImportRequest carries a project and the raw SRT document to
// import into it.
type SubtitleImportRequest struct {
	Project timeline.Project `json:"project" binding:"required"`
	SRT     string           `json:"srt" binding:"required"`
	Style   struct {
		FontFamily string  `json:"font_family"`
		FontSize   float64 `json:"font_size"`
		Color      string  `json:"color"`
		Background string  `json:"background"`
	} `json:"style"`
}

// importSubtitles parses an SRT document and returns the project with one
// text clip per cue on a dedicated subtitle track.
func (s *Server) importSubtitles(c *gin.Context) {
	var req SubtitleImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	cues, err := subtitle.Parse(strings.NewReader(req.SRT))
	if err != nil {
		c.JSON(422, gin.H{"error": "Invalid SRT: " + err.Error()})
		return
	}

	store := timeline.NewStore()
	store.Load(req.Project)
	trackID := subtitle.Import(store, cues, subtitle.Style{
		FontFamily: req.Style.FontFamily,
		FontSize:   req.Style.FontSize,
		Color:      req.Style.Color,
		Background: req.Style.Background,
	})

	c.JSON(200, gin.H{
		"project":  store.Export(),
		"track_id": trackID,
		"cues":     len(cues),
	})
}
