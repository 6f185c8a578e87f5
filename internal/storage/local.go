package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	projectsDir = "projects"
	exportsDir  = "exports"
)

// LocalStorage implements Storage on the local filesystem. Projects live
// under <root>/projects/<id>.json and artifacts under <root>/exports/.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates a local storage rooted at dir, creating the
// layout if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	for _, sub := range []string{projectsDir, exportsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", sub, err)
		}
	}
	return &LocalStorage{root: dir}, nil
}

func (s *LocalStorage) projectPath(id string) string {
	return filepath.Join(s.root, projectsDir, sanitizeKey(id)+".json")
}

// SaveProject writes via a temp file and rename so a crash mid-write never
// leaves a truncated project on disk.
func (s *LocalStorage) SaveProject(_ context.Context, id string, data []byte) error {
	if id == "" {
		return fmt.Errorf("empty project id")
	}
	path := s.projectPath(id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project %s: %w", id, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit project %s: %w", id, err)
	}
	return nil
}

func (s *LocalStorage) LoadProject(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(s.projectPath(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	return data, err
}

func (s *LocalStorage) ListProjects(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, projectsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read projects directory: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

func (s *LocalStorage) DeleteProject(_ context.Context, id string) error {
	err := os.Remove(s.projectPath(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	return err
}

func (s *LocalStorage) SaveArtifact(_ context.Context, name string, data []byte) (string, error) {
	key := sanitizeKey(name)
	if key == "" {
		return "", fmt.Errorf("empty artifact name")
	}
	path := filepath.Join(s.root, exportsDir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", key, err)
	}
	return key, nil
}

func (s *LocalStorage) OpenArtifact(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, exportsDir, sanitizeKey(key)))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: artifact %s", ErrNotFound, key)
	}
	return f, err
}

func (s *LocalStorage) ArtifactExists(_ context.Context, key string) bool {
	_, err := os.Stat(filepath.Join(s.root, exportsDir, sanitizeKey(key)))
	return err == nil
}

func (s *LocalStorage) Close() error { return nil }

// sanitizeKey flattens path separators so keys cannot escape the storage
// root.
func sanitizeKey(key string) string {
	key = filepath.Base(strings.ReplaceAll(key, "\\", "/"))
	if key == "." || key == "/" {
		return ""
	}
	return key
}
