package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/framecut/framecut/config"
	"github.com/framecut/framecut/internal/server"
	"github.com/framecut/framecut/internal/storage"
)

func main() {
	port := flag.String("port", "", "Server port (defaults to config)")
	configPath := flag.String("config", "./config/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	backend, err := newBackend(cfg)
	if err != nil {
		slog.Error("Failed to create storage backend", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	srv, err := server.New(cfg, backend)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	listenPort := cfg.Server.Port
	if *port != "" {
		listenPort = *port
	}

	slog.Info("Starting framecut API server", "port", listenPort, "storage", cfg.Storage.Type)
	if err := srv.Start(listenPort); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func newBackend(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case "gcs":
		return storage.NewGCSStorage(
			context.Background(),
			cfg.Storage.GCS.Bucket,
			cfg.Storage.GCS.ObjectPrefix,
			cfg.Storage.GCS.CredentialsFile,
		)
	default:
		return storage.NewLocalStorage(cfg.Storage.OutputDir)
	}
}
