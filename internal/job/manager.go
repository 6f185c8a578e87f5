package job

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framecut/framecut/internal/progress"
)

// Manager tracks export jobs. Jobs are kept in memory for the lifetime of
// the process; a restart forgets finished and running jobs alike.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]*Status
}

// NewManager creates a new job manager
func NewManager() *Manager {
	return &Manager{
		jobs: make(map[string]*Status),
	}
}

// CreateJob registers a new pending export job and returns its status along
// with the context the export should run under. Cancelling the job cancels
// that context.
func (m *Manager) CreateJob(filename string) (*Status, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())

	j := &Status{
		ID:         uuid.NewString(),
		Status:     StatusPending,
		Progress:   0,
		Message:    "Job created",
		StartTime:  time.Now(),
		Filename:   filename,
		cancelFunc: cancel,
	}

	m.mu.Lock()
	m.jobs[j.ID] = j
	m.mu.Unlock()
	return j, ctx
}

// GetJob retrieves a copy-safe view of a job by ID. The returned status is
// a deep copy; the live job keeps mutating under the manager's lock while
// the export runs.
func (m *Manager) GetJob(jobID string) (*Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, exists := m.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return j.clone(), nil
}

// SetProcessing marks the job as running.
func (m *Manager) SetProcessing(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok {
		j.Status = StatusProcessing
		j.Message = "Export running"
	}
}

// RecordEvent appends a progress event and updates the rolled-up fields.
func (m *Manager) RecordEvent(jobID string, ev progress.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return
	}
	j.Progress = ev.Progress
	if ev.Message != "" {
		j.Message = ev.Message
	}
	j.Events = append(j.Events, ev)
	if len(j.Events) > maxEvents {
		j.Events = j.Events[len(j.Events)-maxEvents:]
	}
}

// Complete marks the job finished with the named stored artifact.
func (m *Manager) Complete(jobID, artifact string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return
	}
	j.Status = StatusCompleted
	j.Progress = 1
	j.Message = "Export complete"
	j.Artifact = artifact
	now := time.Now()
	j.EndTime = &now
}

// Fail marks the job failed. A job already cancelled stays cancelled even
// when the aborted export surfaces its error afterwards.
func (m *Manager) Fail(jobID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.Status == StatusCancelled {
		return
	}
	j.Status = StatusFailed
	j.Error = err.Error()
	j.Message = "Export failed"
	now := time.Now()
	j.EndTime = &now
}

// CancelJob cancels a pending or running job.
func (m *Manager) CancelJob(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, exists := m.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}

	if j.Status != StatusProcessing && j.Status != StatusPending {
		return fmt.Errorf("%w: %s", ErrInvalidState, j.Status)
	}

	j.cancelFunc()
	j.Status = StatusCancelled
	j.Message = "Job cancelled by user"
	endTime := time.Now()
	j.EndTime = &endTime

	return nil
}

// ListJobs lists all jobs with pagination, newest first.
func (m *Manager) ListJobs(page, pageSize int) *Response {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	m.mu.RLock()
	jobs := make([]*Status, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j.clone())
	}
	m.mu.RUnlock()

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].StartTime.After(jobs[k].StartTime)
	})

	start := (page - 1) * pageSize
	end := start + pageSize

	if start >= len(jobs) {
		return &Response{
			Jobs:       []*Status{},
			Page:       page,
			PageSize:   pageSize,
			TotalJobs:  len(jobs),
			TotalPages: (len(jobs) + pageSize - 1) / pageSize,
		}
	}

	if end > len(jobs) {
		end = len(jobs)
	}

	return &Response{
		Jobs:       jobs[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalJobs:  len(jobs),
		TotalPages: (len(jobs) + pageSize - 1) / pageSize,
	}
}
