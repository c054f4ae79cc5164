package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSStorage keeps media in a Google Cloud Storage bucket.
type GCSStorage struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewGCSStorage(ctx context.Context, bucket, credentialsFile, publicBaseURL string) (*GCSStorage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return newGCSStorage(ctx, bucket, publicBaseURL, opts...)
}

func newGCSStorage(ctx context.Context, bucket, publicBaseURL string, opts ...option.ClientOption) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	baseURL := strings.TrimRight(publicBaseURL, "/")
	if baseURL == "" {
		baseURL = gcsPublicHost + "/" + bucket
	}
	return &GCSStorage{client: client, bucket: bucket, baseURL: baseURL}, nil
}

func (s *GCSStorage) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error) {
	name := objectName(folder, filename, time.Now())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		// Cancelling instead of closing discards the partial object.
		cancel()
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", name, err)
	}

	return s.baseURL + "/" + name, nil
}

func (s *GCSStorage) Delete(ctx context.Context, url string) error {
	name, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || name == "" {
		return fmt.Errorf("url %q does not belong to bucket %s", url, s.bucket)
	}

	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", name, err)
	}
	return nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}
