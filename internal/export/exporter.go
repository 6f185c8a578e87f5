package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/framecut/framecut/internal/progress"
	"github.com/framecut/framecut/internal/timeline"
)

// Exporter drives one export end to end: snapshot the store, pick an
// encoder, render every frame in order, mux, and report progress. The
// rendering phase occupies the first 80% of the progress scale and
// encoding the remainder.
type Exporter struct {
	store   *timeline.Store
	tracker *progress.Tracker
	resolve func(string) (string, error)
	opener  SourceOpener
	tempDir string
}

// New returns an exporter over the given store. resolve maps clip source
// URLs to local paths (nil means paths are already local); tracker may be
// nil when no progress reporting is wanted.
func New(store *timeline.Store, tracker *progress.Tracker, resolve func(string) (string, error)) *Exporter {
	if tracker == nil {
		tracker = progress.NewTracker()
	}
	if resolve == nil {
		resolve = func(s string) (string, error) { return s, nil }
	}
	return &Exporter{
		store:   store,
		tracker: tracker,
		resolve: resolve,
		tempDir: os.TempDir(),
	}
}

// Tracker exposes the progress tracker so callers can attach listeners.
func (e *Exporter) Tracker() *progress.Tracker { return e.tracker }

// SetSourceOpener overrides how media sources are opened. Used by tests.
func (e *Exporter) SetSourceOpener(opener SourceOpener) { e.opener = opener }

// Export renders the current project to MP4 bytes. The project is
// snapshotted up front, so concurrent edits do not affect the output. Any
// encoder error aborts the whole export; there is no partial result.
func (e *Exporter) Export(ctx context.Context, opts Options) ([]byte, error) {
	opts.Width, opts.Height = EvenDimensions(opts.Width, opts.Height)
	if err := opts.Validate(); err != nil {
		e.tracker.Fail(err)
		return nil, err
	}

	e.tracker.Update(progress.StageInitializing, 0, "preparing export")
	CleanupStaleWorkDirs(e.tempDir)

	project := e.store.Export()
	comp, err := NewCompositor(project, opts, e.resolve, e.opener)
	if err != nil {
		e.tracker.Fail(err)
		return nil, err
	}
	defer comp.Close()

	enc, err := e.selectEncoder(project, opts)
	if err != nil {
		e.tracker.Fail(err)
		return nil, err
	}
	defer enc.Cleanup()

	data, err := e.run(ctx, comp, enc)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		e.tracker.Fail(err)
		return nil, err
	}

	e.tracker.Update(progress.StageComplete, 1, "export complete")
	return data, nil
}

func (e *Exporter) selectEncoder(project timeline.Project, opts Options) (Encoder, error) {
	if opts.UseHardware {
		if name := DetectHardwareEncoder(); name != "" {
			slog.Info("using hardware encoder", "encoder", name)
			return NewHardwareEncoder(opts, name, e.tempDir), nil
		}
		slog.Warn("hardware encoding requested but no encoder available, falling back to software")
	}
	audio, err := NewAudioGraph(project, e.resolve)
	if err != nil {
		return nil, err
	}
	return NewSoftwareEncoder(opts, audio, e.tempDir), nil
}

func (e *Exporter) run(ctx context.Context, comp *Compositor, enc Encoder) ([]byte, error) {
	if err := enc.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start encoder: %w", err)
	}

	total := comp.FrameCount()
	if total == 0 {
		return nil, fmt.Errorf("project has no duration to export")
	}

	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		frame, err := comp.RenderFrame(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("failed to render frame %d: %w", i, err)
		}
		if err := enc.WriteFrame(ctx, frame, i); err != nil {
			return nil, err
		}
		e.tracker.UpdateFrame(i+1, total, renderPhaseFraction*float64(i+1)/float64(total))
	}

	e.tracker.Update(progress.StageEncoding, renderPhaseFraction, "encoding and muxing")
	data, err := enc.Finish(ctx)
	if err != nil {
		return nil, err
	}
	if err := enc.Cleanup(); err != nil {
		slog.Warn("failed to remove export intermediates", "error", err)
	}
	return data, nil
}
