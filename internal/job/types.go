package job

import (
	"context"
	"time"

	"github.com/framecut/framecut/internal/export"
	"github.com/framecut/framecut/internal/progress"
	"github.com/framecut/framecut/internal/timeline"
)

// Constants for job status
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Constants for pagination
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// maxEvents bounds the per-job event log so long exports do not grow the
// status payload without limit.
const maxEvents = 200

// Status represents the current state of an export job.
type Status struct {
	ID         string           `json:"id"`
	Status     string           `json:"status"`
	Progress   float64          `json:"progress"`
	Message    string           `json:"message"`
	Error      string           `json:"error,omitempty"`
	Artifact   string           `json:"artifact,omitempty"`
	Events     []progress.Event `json:"events"`
	StartTime  time.Time        `json:"start_time"`
	EndTime    *time.Time       `json:"end_time,omitempty"`
	Filename   string           `json:"filename"`
	cancelFunc context.CancelFunc
}

// clone returns a deep copy of the status, safe to read and marshal after
// the manager's lock is released.
func (j *Status) clone() *Status {
	c := *j
	c.cancelFunc = nil
	if j.Events != nil {
		c.Events = make([]progress.Event, len(j.Events))
		copy(c.Events, j.Events)
	}
	if j.EndTime != nil {
		end := *j.EndTime
		c.EndTime = &end
	}
	return &c
}

// Request is the request body for starting an export.
type Request struct {
	Project     timeline.Project `json:"project" binding:"required"`
	Width       int              `json:"width" binding:"required"`
	Height      int              `json:"height" binding:"required"`
	FPS         float64          `json:"fps"`
	Quality     export.Quality   `json:"quality"`
	Filename    string           `json:"filename"`
	UseHardware bool             `json:"use_hardware"`
}

// Options converts the request into encoder options, applying defaults.
func (r Request) Options() export.Options {
	opts := export.Options{
		Width:       r.Width,
		Height:      r.Height,
		FPS:         r.FPS,
		Quality:     r.Quality,
		Filename:    r.Filename,
		UseHardware: r.UseHardware,
	}
	if opts.FPS <= 0 {
		opts.FPS = r.Project.FPS
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Quality == "" {
		opts.Quality = export.QualityMedium
	}
	if opts.Filename == "" {
		opts.Filename = "export.mp4"
	}
	return opts
}

// Response is the paginated job listing.
type Response struct {
	Jobs       []*Status `json:"jobs"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalJobs  int       `json:"total_jobs"`
	TotalPages int       `json:"total_pages"`
}
