package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const uploadTimeout = 10 * time.Minute

type implGCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS stores artifacts as objects under gs://bucket/prefix/.
// An empty credentialsFile uses application default credentials.
func NewGCS(ctx context.Context, bucket, prefix, credentialsFile string) (Store, error) {
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &implGCS{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (s *implGCS) key(name string) string {
	return objectKey(s.prefix, name)
}

func objectKey(prefix, name string) string {
	name = path.Base(name)
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (s *implGCS) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(s.key(name)).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat gs://%s/%s: %w", s.bucket, s.key(name), err)
}

func (s *implGCS) Put(ctx context.Context, name string, r io.Reader) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(s.key(name)).NewWriter(ctx)
	if ct := contentTypeForKey(name); ct != "" {
		w.ContentType = ct
	}
	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return 0, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return n, nil
}

func (s *implGCS) Ref(name string) string {
	return "gs://" + s.bucket + "/" + s.key(name)
}

func (s *implGCS) Close() error {
	return s.client.Close()
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".mp4":
		return "video/mp4"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".json":
		return "application/json"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return ""
	}
}
