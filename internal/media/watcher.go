package media

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/framecut/framecut/internal/timeline"
)

var mediaKindByExt = map[string]timeline.MediaKind{
	".mp4":  timeline.MediaVideo,
	".mov":  timeline.MediaVideo,
	".mkv":  timeline.MediaVideo,
	".webm": timeline.MediaVideo,
	".mp3":  timeline.MediaAudio,
	".m4a":  timeline.MediaAudio,
	".wav":  timeline.MediaAudio,
	".flac": timeline.MediaAudio,
	".srt":  timeline.MediaSRT,
}

// Watcher observes a media directory and imports new files into the store's
// media library, probing duration and resolution as they appear.
type Watcher struct {
	dir     string
	store   *timeline.Store
	watcher *fsnotify.Watcher

	// settle is how long a file must stay quiet after a write before it is
	// probed, so half-copied files are not imported.
	settle time.Duration
}

// NewWatcher creates a watcher over dir feeding the store's media library.
func NewWatcher(dir string, store *timeline.Store) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{dir: dir, store: store, watcher: fw, settle: 500 * time.Millisecond}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				if _, known := mediaKindByExt[strings.ToLower(filepath.Ext(ev.Name))]; known {
					pending[ev.Name] = time.Now()
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("media watcher error", "error", err)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				w.importFile(ctx, path)
			}
		}
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	kind := mediaKindByExt[strings.ToLower(filepath.Ext(path))]

	// Skip files already in the library by URL.
	for _, m := range w.store.Media() {
		if m.URL == path {
			return
		}
	}

	item := timeline.MediaItem{
		ID:   timeline.NewID(),
		Name: filepath.Base(path),
		Kind: kind,
		URL:  path,
	}
	if kind != timeline.MediaSRT {
		info, err := Probe(ctx, path)
		if err != nil {
			slog.Warn("probe failed, importing without metadata", "path", path, "error", err)
		} else {
			item.Duration = info.Duration
			item.Width = info.Width
			item.Height = info.Height
		}
	}
	w.store.AddMedia(item)
	slog.Debug("imported media file", "path", path, "kind", kind)
}
