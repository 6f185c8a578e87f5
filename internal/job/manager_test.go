package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framecut/framecut/internal/progress"
)

func TestCreateJob(t *testing.T) {
	m := NewManager()
	j, ctx := m.CreateJob("out.mp4")

	assert.NotEmpty(t, j.ID)
	assert.Equal(t, StatusPending, j.Status)
	assert.Equal(t, "out.mp4", j.Filename)
	require.NotNil(t, ctx)
	assert.NoError(t, ctx.Err())

	got, err := m.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
}

func TestGetJobNotFound(t *testing.T) {
	m := NewManager()
	_, err := m.GetJob("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelJob(t *testing.T) {
	m := NewManager()
	j, ctx := m.CreateJob("out.mp4")

	require.NoError(t, m.CancelJob(j.ID))

	got, err := m.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.NotNil(t, got.EndTime)
	assert.Error(t, ctx.Err(), "cancelling the job must cancel its context")

	err = m.CancelJob(j.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFailDoesNotOverrideCancelled(t *testing.T) {
	m := NewManager()
	j, _ := m.CreateJob("out.mp4")

	require.NoError(t, m.CancelJob(j.ID))
	m.Fail(j.ID, errors.New("context canceled"))

	got, err := m.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestCompleteJob(t *testing.T) {
	m := NewManager()
	j, _ := m.CreateJob("out.mp4")

	m.SetProcessing(j.ID)
	m.RecordEvent(j.ID, progress.Event{Stage: progress.StageRendering, Progress: 0.4, Timestamp: time.Now()})
	m.Complete(j.ID, "exports/out.mp4")

	got, err := m.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "exports/out.mp4", got.Artifact)
	assert.Equal(t, 1.0, got.Progress)
	assert.Len(t, got.Events, 1)
}

func TestEventLogBounded(t *testing.T) {
	m := NewManager()
	j, _ := m.CreateJob("out.mp4")

	for i := 0; i < maxEvents+50; i++ {
		m.RecordEvent(j.ID, progress.Event{Stage: progress.StageRendering, Frame: i})
	}

	got, err := m.GetJob(j.ID)
	require.NoError(t, err)
	assert.Len(t, got.Events, maxEvents)
	assert.Equal(t, maxEvents+49, got.Events[len(got.Events)-1].Frame)
}

func TestListJobsPagination(t *testing.T) {
	m := NewManager()
	for i := 0; i < 25; i++ {
		m.CreateJob(fmt.Sprintf("out-%d.mp4", i))
	}

	resp := m.ListJobs(1, 10)
	assert.Len(t, resp.Jobs, 10)
	assert.Equal(t, 25, resp.TotalJobs)
	assert.Equal(t, 3, resp.TotalPages)

	resp = m.ListJobs(3, 10)
	assert.Len(t, resp.Jobs, 5)

	resp = m.ListJobs(4, 10)
	assert.Empty(t, resp.Jobs)

	resp = m.ListJobs(0, -1)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, DefaultPageSize, resp.PageSize)
}

func TestRequestOptionsDefaults(t *testing.T) {
	r := Request{Width: 1280, Height: 720}
	opts := r.Options()
	assert.Equal(t, 30.0, opts.FPS)
	assert.Equal(t, "export.mp4", opts.Filename)
	assert.NotEmpty(t, opts.Quality)
}

func TestGetJobReturnsDetachedCopy(t *testing.T) {
	m := NewManager()
	j, _ := m.CreateJob("out.mp4")
	m.RecordEvent(j.ID, progress.Event{Stage: progress.StageRendering, Progress: 0.1})

	got, err := m.GetJob(j.ID)
	require.NoError(t, err)

	// Mutating the returned view must not reach the manager's state.
	got.Status = StatusFailed
	got.Events[0].Progress = 0.99
	got.Events = append(got.Events, progress.Event{Progress: 0.5})

	fresh, err := m.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fresh.Status)
	require.Len(t, fresh.Events, 1)
	assert.Equal(t, 0.1, fresh.Events[0].Progress)

	for _, listed := range m.ListJobs(1, 10).Jobs {
		assert.Equal(t, StatusPending, listed.Status)
		assert.Len(t, listed.Events, 1)
	}
}

func TestGetJobSafeDuringConcurrentEvents(t *testing.T) {
	m := NewManager()
	j, _ := m.CreateJob("out.mp4")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			m.RecordEvent(j.ID, progress.Event{Stage: progress.StageRendering, Progress: float64(i) / 500})
		}
		m.Complete(j.ID, "artifact.mp4")
	}()

	// Status views taken mid-export marshal cleanly while the recording
	// goroutine keeps appending.
	for i := 0; i < 200; i++ {
		got, err := m.GetJob(j.ID)
		require.NoError(t, err)
		_, err = json.Marshal(got)
		require.NoError(t, err)
		_, err = json.Marshal(m.ListJobs(1, 10))
		require.NoError(t, err)
	}
	<-done

	final, err := m.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
}
