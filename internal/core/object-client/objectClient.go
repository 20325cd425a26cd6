package objectclient

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by GetFile when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectClient defines interactions with S3, GCS or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
