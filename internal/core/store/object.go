package store

import (
	"context"
	"errors"
	"log/slog"
	"path"

	"github.com/markdave123-py/docreader/internal/core"
	objectclient "github.com/markdave123-py/docreader/internal/core/object-client"
	"github.com/markdave123-py/docreader/internal/models"
)

// ObjectStore keeps job artifacts in an object storage bucket under <prefix>/<job_id>/.
type ObjectStore struct {
	client objectclient.ObjectClient
	bucket string
	prefix string
}

func NewObjectStore(client objectclient.ObjectClient, bucket, prefix string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, prefix: prefix}
}

var _ ResultStore = (*ObjectStore)(nil)

func (s *ObjectStore) key(jobID, name string) string {
	return path.Join(s.prefix, jobID, name)
}

func (s *ObjectStore) Save(ctx context.Context, result *models.ProcessingResult, req models.ProcessRequest) (string, error) {
	a, err := encode(result, req)
	if err != nil {
		return "", &core.StorageError{Op: "encode", Cause: err}
	}
	jobID := newJobID()

	if _, err := s.client.UploadFile(ctx, s.bucket, s.key(jobID, ResultFile), a.result, "application/json"); err != nil {
		slog.Error("store.save.fail", "job_id", jobID, "file", ResultFile, "err", err)
		return "", &core.StorageError{Op: "upload", JobID: jobID, Cause: err}
	}
	if _, err := s.client.UploadFile(ctx, s.bucket, s.key(jobID, RequestFile), a.request, "application/json"); err != nil {
		slog.Warn("store.save.partial", "job_id", jobID, "file", RequestFile, "err", err)
	}
	if _, err := s.client.UploadFile(ctx, s.bucket, s.key(jobID, MarkdownFile), a.markdown, "text/markdown; charset=utf-8"); err != nil {
		slog.Warn("store.save.partial", "job_id", jobID, "file", MarkdownFile, "err", err)
	}
	return jobID, nil
}

func (s *ObjectStore) Get(ctx context.Context, jobID string) (*models.JobRecord, bool, error) {
	if !validID(jobID) {
		return nil, false, nil
	}
	raw, err := s.client.GetFile(ctx, s.bucket, s.key(jobID, ResultFile))
	if errors.Is(err, objectclient.ErrObjectNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &core.StorageError{Op: "get", JobID: jobID, Cause: err}
	}
	rec, err := decode(jobID, raw)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}
