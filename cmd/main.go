package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/framecut/framecut/config"
	"github.com/framecut/framecut/internal/autosave"
	"github.com/framecut/framecut/internal/export"
	"github.com/framecut/framecut/internal/media"
	"github.com/framecut/framecut/internal/progress"
	"github.com/framecut/framecut/internal/storage"
	"github.com/framecut/framecut/internal/timeline"
)

func main() {
	projectPath := flag.String("project", "", "Path to the project JSON file (required)")
	outPath := flag.String("out", "export.mp4", "Output file path")
	width := flag.Int("width", 0, "Output width (defaults to config)")
	height := flag.Int("height", 0, "Output height (defaults to config)")
	fps := flag.Float64("fps", 0, "Output frame rate (defaults to project)")
	quality := flag.String("quality", "", "Encoder quality: low, medium or high")
	hardware := flag.Bool("hardware", false, "Use the platform hardware encoder (video only)")
	watch := flag.Bool("watch", false, "Watch the configured media directory and autosave instead of exporting")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *projectPath == "" {
		log.Fatal("Missing required flag: -project")
	}

	cfg, err := config.Load("./config/config.yaml")
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatal(err)
		}
		cfg = config.Default()
	}

	data, err := os.ReadFile(*projectPath)
	if err != nil {
		log.Fatal(err)
	}
	var project timeline.Project
	if err := json.Unmarshal(data, &project); err != nil {
		log.Fatalf("invalid project file: %v", err)
	}
	if err := timeline.ValidateProject(project); err != nil {
		log.Fatalf("invalid project: %v", err)
	}

	store := timeline.NewStore()
	store.Load(project)

	if *watch {
		if err := watchMedia(cfg, store, *projectPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	opts := export.Options{
		Width:       cfg.Export.Width,
		Height:      cfg.Export.Height,
		FPS:         cfg.Export.FPS,
		Quality:     export.Quality(cfg.Export.Quality),
		Filename:    filepath.Base(*outPath),
		UseHardware: *hardware || cfg.Export.UseHardware,
	}
	if *width > 0 {
		opts.Width = *width
	}
	if *height > 0 {
		opts.Height = *height
	}
	if *fps > 0 {
		opts.FPS = *fps
	}
	if *quality != "" {
		opts.Quality = export.Quality(*quality)
	}

	if err := runExport(store, cfg, opts, *outPath); err != nil {
		log.Fatal(err)
	}
}

func runExport(store *timeline.Store, cfg *config.Config, opts export.Options, outPath string) error {
	fetcher, err := media.NewFetcher(cfg.Media.CacheDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolve := func(source string) (string, error) {
		if media.IsRemote(source) {
			return fetcher.Resolve(ctx, source)
		}
		return source, nil
	}

	tracker := progress.NewTracker()
	exporter := export.New(store, tracker, resolve)

	// Same rounding as the render loop, so the bar completes exactly.
	total := int(math.Ceil(store.Export().Duration * opts.FPS))
	bar := progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan][1/2][reset] Rendering frames..."),
	)
	remove := tracker.AddListener(func(ev progress.Event) {
		switch ev.Stage {
		case progress.StageRendering:
			bar.Set(ev.Frame)
		case progress.StageEncoding:
			bar.Finish()
			fmt.Println("\nEncoding and muxing...")
		}
	})
	defer remove()

	data, err := exporter.Export(ctx, opts)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d bytes)\n", outPath, len(data))
	return nil
}

// watchMedia runs a headless session that imports files appearing in the
// configured media directory into the project's library and autosaves the
// result next to the original file.
func watchMedia(cfg *config.Config, store *timeline.Store, projectPath string) error {
	if cfg.Media.Dir == "" {
		return fmt.Errorf("media.dir is not configured")
	}

	backend, err := storage.NewLocalStorage(cfg.Storage.OutputDir)
	if err != nil {
		return err
	}
	defer backend.Close()

	projectID := strings.TrimSuffix(filepath.Base(projectPath), ".json")
	saver := autosave.New(store, backend, projectID)
	saver.Start()
	defer saver.Stop()

	watcher, err := media.NewWatcher(cfg.Media.Dir, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s for media, autosaving project %q\n", cfg.Media.Dir, projectID)
	return watcher.Run(ctx)
}
