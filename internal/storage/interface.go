// Package storage persists project documents and export artifacts behind a
// backend-neutral interface with local-disk and Google Cloud Storage
// implementations.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound reports a missing project or artifact.
var ErrNotFound = errors.New("not found")

// Storage defines the operations for persisting project JSON documents and
// finished export files. Project IDs and artifact names are opaque keys;
// backends decide the layout.
type Storage interface {
	// SaveProject writes the serialized project, replacing any previous
	// version atomically where the backend supports it.
	SaveProject(ctx context.Context, id string, data []byte) error

	LoadProject(ctx context.Context, id string) ([]byte, error)

	// ListProjects returns the IDs of all stored projects.
	ListProjects(ctx context.Context) ([]string, error)

	DeleteProject(ctx context.Context, id string) error

	// SaveArtifact stores a finished export and returns the key it can be
	// retrieved under.
	SaveArtifact(ctx context.Context, name string, data []byte) (string, error)

	OpenArtifact(ctx context.Context, key string) (io.ReadCloser, error)

	ArtifactExists(ctx context.Context, key string) bool

	Close() error
}
