package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/SBrookhart/side-quest-generator/internal/config"
)

// ErrNotExist is returned by Get for a missing key.
var ErrNotExist = errors.New("object does not exist")

// Bucket is a flat key/value blob store.
type Bucket interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// NewBucket builds the backend named in cfg.
func NewBucket(ctx context.Context, cfg *config.Config) (Bucket, error) {
	switch cfg.Publish.Backend {
	case "", "fs":
		return NewFSBucket(cfg.PublishDir()), nil
	case "gcs":
		return NewGCSBucket(ctx, cfg.Publish.Bucket, cfg.Publish.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown publish backend %q", cfg.Publish.Backend)
	}
}

// FSBucket stores objects as files under a root directory.
type FSBucket struct {
	root string
}

func NewFSBucket(root string) *FSBucket {
	return &FSBucket{root: root}
}

func (b *FSBucket) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(b.root, filepath.FromSlash(clean)), nil
}

func (b *FSBucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(p), err)
	}
	// Write then rename so readers never see a partial file.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("renaming %s: %w", key, err)
	}
	return nil
}

func (b *FSBucket) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// GCSBucket stores objects in Cloud Storage.
type GCSBucket struct {
	name   string
	client *storage.Client
}

// NewGCSBucket uses application default credentials unless credentialsFile is set.
func NewGCSBucket(ctx context.Context, bucket, credentialsFile string) (*GCSBucket, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSBucket{name: bucket, client: client}, nil
}

func (b *GCSBucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=300"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing gs://%s/%s: %w", b.name, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing gs://%s/%s: %w", b.name, key, err)
	}
	return nil
}

func (b *GCSBucket) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := b.client.Bucket(b.name).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading gs://%s/%s: %w", b.name, key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (b *GCSBucket) Close() error {
	return b.client.Close()
}
