package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/models"
)

// FileStore keeps one directory per job under root.
type FileStore struct {
	root  string
	permF os.FileMode
	permD os.FileMode
	write func(dest string, data []byte) error
}

func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("file store: output directory is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create %s: %w", root, err)
	}
	s := &FileStore{root: root, permF: 0o644, permD: 0o755}
	s.write = s.writeAtomic
	return s, nil
}

var _ ResultStore = (*FileStore)(nil)

func (s *FileStore) Save(ctx context.Context, result *models.ProcessingResult, req models.ProcessRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a, err := encode(result, req)
	if err != nil {
		return "", &core.StorageError{Op: "encode", Cause: err}
	}

	jobID := newJobID()
	dir := filepath.Join(s.root, jobID)
	if err := os.MkdirAll(dir, s.permD); err != nil {
		return "", &core.StorageError{Op: "mkdir", JobID: jobID, Cause: err}
	}

	if err := s.write(filepath.Join(dir, ResultFile), a.result); err != nil {
		slog.Error("store.save.fail", "job_id", jobID, "file", ResultFile, "err", err)
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			slog.Warn("store.cleanup.fail", "job_id", jobID, "err", rmErr)
		}
		return "", &core.StorageError{Op: "write", JobID: jobID, Cause: err}
	}
	// The job is readable from here on; the audit copy and rendering are best-effort.
	if err := s.write(filepath.Join(dir, RequestFile), a.request); err != nil {
		slog.Warn("store.save.partial", "job_id", jobID, "file", RequestFile, "err", err)
	}
	if err := s.write(filepath.Join(dir, MarkdownFile), a.markdown); err != nil {
		slog.Warn("store.save.partial", "job_id", jobID, "file", MarkdownFile, "err", err)
	}

	slog.Debug("store.save.ok", "job_id", jobID, "dir", dir)
	return jobID, nil
}

func (s *FileStore) Get(ctx context.Context, jobID string) (*models.JobRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !validID(jobID) {
		return nil, false, nil
	}
	raw, err := os.ReadFile(filepath.Join(s.root, jobID, ResultFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &core.StorageError{Op: "read", JobID: jobID, Cause: err}
	}
	rec, err := decode(jobID, raw)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// writeAtomic writes to a temp file in the target directory and renames it into place.
func (s *FileStore) writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(dest)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, s.permF); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		cleanup()
		return err
	}
	return nil
}
