package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSClient stores objects in Google Cloud Storage using application default credentials.
type GCSClient struct {
	client *storage.Client
}

var _ ObjectClient = (*GCSClient)(nil)

func NewGCSClient(ctx context.Context) (*GCSClient, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSClient{client: client}, nil
}

func (c *GCSClient) Close() error { return c.client.Close() }

// UploadFile writes the object only if it does not exist yet; job artifacts are write-once.
func (c *GCSClient) UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	w := c.client.Bucket(bucket).Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 412 {
			slog.Warn("objectclient.gcs.exists", "key", key)
		}
		return "", fmt.Errorf("gcs finalize %s: %w", key, err)
	}
	return fmt.Sprintf("gs://%s/%s", bucket, key), nil
}

func (c *GCSClient) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	r, err := c.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("gcs get %s: %w", key, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	return body, nil
}
