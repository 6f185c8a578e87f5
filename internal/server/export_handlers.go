package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/framecut/framecut/internal/export"
	"github.com/framecut/framecut/internal/job"
	"github.com/framecut/framecut/internal/media"
	"github.com/framecut/framecut/internal/progress"
	"github.com/framecut/framecut/internal/timeline"
)

// startExport accepts an export request and runs it in the background,
// returning the job ID immediately.
func (s *Server) startExport(c *gin.Context) {
	var req job.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if err := timeline.ValidateProject(req.Project); err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}

	opts := req.Options()
	if opts.Quality == "" {
		opts.Quality = export.Quality(s.cfg.Export.Quality)
	}

	j, ctx := s.jobs.CreateJob(opts.Filename)
	go s.runExport(ctx, j.ID, req.Project, opts)

	c.JSON(202, gin.H{
		"job_id":  j.ID,
		"status":  "accepted",
		"message": "Export started",
	})
}

// runExport performs one export under the job's cancellable context and
// records its outcome on the job.
func (s *Server) runExport(ctx context.Context, jobID string, project timeline.Project, opts export.Options) {
	s.jobs.SetProcessing(jobID)

	store := timeline.NewStore()
	store.Load(project)

	tracker := progress.NewTracker()
	remove := tracker.AddListener(func(ev progress.Event) {
		s.jobs.RecordEvent(jobID, ev)
	})
	defer remove()

	resolve := func(source string) (string, error) {
		if media.IsRemote(source) {
			return s.fetcher.Resolve(ctx, source)
		}
		return source, nil
	}

	exporter := export.New(store, tracker, resolve)
	data, err := exporter.Export(ctx, opts)
	if err != nil {
		s.jobs.Fail(jobID, err)
		slog.Error("export job failed", "job", jobID, "error", err)
		return
	}

	// Prefix with the job ID so concurrent exports with the same filename
	// do not overwrite each other.
	key, err := s.backend.SaveArtifact(context.Background(), fmt.Sprintf("%s_%s", jobID, opts.Filename), data)
	if err != nil {
		s.jobs.Fail(jobID, err)
		slog.Error("failed to store export artifact", "job", jobID, "error", err)
		return
	}

	s.jobs.Complete(jobID, key)
	slog.Info("export job completed", "job", jobID, "artifact", key, "bytes", len(data))
}

// getExportJob handles job status requests
func (s *Server) getExportJob(c *gin.Context) {
	j, err := s.jobs.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(404, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(200, j)
}

// cancelExportJob handles job cancellation requests
func (s *Server) cancelExportJob(c *gin.Context) {
	err := s.jobs.CancelJob(c.Param("id"))
	if errors.Is(err, job.ErrNotFound) {
		c.JSON(404, gin.H{"error": "Job not found"})
		return
	}
	if errors.Is(err, job.ErrInvalidState) {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "Job cancelled"})
}

// listExportJobs handles listing all jobs with pagination
func (s *Server) listExportJobs(c *gin.Context) {
	page := 1
	pageSize := job.DefaultPageSize

	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= job.MaxPageSize {
			pageSize = parsed
		}
	}

	c.JSON(200, s.jobs.ListJobs(page, pageSize))
}

// downloadExport streams a finished job's artifact.
func (s *Server) downloadExport(c *gin.Context) {
	j, err := s.jobs.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(404, gin.H{"error": "Job not found"})
		return
	}
	if j.Status != job.StatusCompleted || j.Artifact == "" {
		c.JSON(409, gin.H{"error": fmt.Sprintf("Job is %s, no artifact available", j.Status)})
		return
	}

	r, err := s.backend.OpenArtifact(c.Request.Context(), j.Artifact)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	defer r.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", j.Filename))
	c.Header("Content-Type", "video/mp4")
	c.Status(200)
	if _, err := io.Copy(c.Writer, r); err != nil {
		slog.Error("failed to stream artifact", "job", j.ID, "error", err)
	}
}
