package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const gcsOpTimeout = 5 * time.Minute

// GCSStorage implements Storage on a Google Cloud Storage bucket. Projects
// are stored under <prefix>/projects/<id>.json and artifacts under
// <prefix>/exports/.
type GCSStorage struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStorage creates a GCS-backed storage. With an empty credentialsFile
// the client uses application default credentials.
func NewGCSStorage(ctx context.Context, bucketName, objectPrefix, credentialsFile string) (*GCSStorage, error) {
	var client *storage.Client
	var err error

	if credentialsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: bucketName,
		prefix: strings.Trim(objectPrefix, "/"),
	}, nil
}

func (s *GCSStorage) object(parts ...string) string {
	if s.prefix != "" {
		parts = append([]string{s.prefix}, parts...)
	}
	return path.Join(parts...)
}

func (s *GCSStorage) write(ctx context.Context, object string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, gcsOpTimeout)
	defer cancel()

	wc := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write object %s: %w", object, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %s: %w", object, err)
	}
	return nil
}

func (s *GCSStorage) SaveProject(ctx context.Context, id string, data []byte) error {
	if id == "" {
		return fmt.Errorf("empty project id")
	}
	return s.write(ctx, s.object(projectsDir, sanitizeKey(id)+".json"), data)
}

func (s *GCSStorage) LoadProject(ctx context.Context, id string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.object(projectsDir, sanitizeKey(id)+".json")).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open project %s: %w", id, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSStorage) ListProjects(ctx context.Context) ([]string, error) {
	prefix := s.object(projectsDir) + "/"
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var ids []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error listing projects: %w", err)
		}
		name := path.Base(attrs.Name)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

func (s *GCSStorage) DeleteProject(ctx context.Context, id string) error {
	err := s.client.Bucket(s.bucket).Object(s.object(projectsDir, sanitizeKey(id)+".json")).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	return err
}

func (s *GCSStorage) SaveArtifact(ctx context.Context, name string, data []byte) (string, error) {
	key := sanitizeKey(name)
	if key == "" {
		return "", fmt.Errorf("empty artifact name")
	}
	if err := s.write(ctx, s.object(exportsDir, key), data); err != nil {
		return "", err
	}
	return key, nil
}

func (s *GCSStorage) OpenArtifact(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.object(exportsDir, sanitizeKey(key))).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: artifact %s", ErrNotFound, key)
	}
	return r, err
}

func (s *GCSStorage) ArtifactExists(ctx context.Context, key string) bool {
	_, err := s.client.Bucket(s.bucket).Object(s.object(exportsDir, sanitizeKey(key))).Attrs(ctx)
	return err == nil
}

// Close closes the GCS client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
