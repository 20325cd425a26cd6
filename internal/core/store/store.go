package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/models"
)

// Per-job artifact names.
const (
	ResultFile   = "result.json"
	RequestFile  = "request.json"
	MarkdownFile = "output.md"
)

// ResultStore persists processing results under generated job ids.
type ResultStore interface {
	// Save persists result and the originating request, returning the new job id.
	Save(ctx context.Context, result *models.ProcessingResult, req models.ProcessRequest) (string, error)
	// Get loads a job. found is false when no job exists under id.
	Get(ctx context.Context, jobID string) (rec *models.JobRecord, found bool, err error)
}

// artifacts is the encoded form of one job.
type artifacts struct {
	result   []byte
	request  []byte
	markdown []byte
}

func encode(result *models.ProcessingResult, req models.ProcessRequest) (artifacts, error) {
	res, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return artifacts{}, fmt.Errorf("encode result: %w", err)
	}
	rq, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return artifacts{}, fmt.Errorf("encode request: %w", err)
	}
	return artifacts{result: res, request: rq, markdown: []byte(result.Markdown())}, nil
}

func decode(jobID string, raw []byte) (*models.JobRecord, error) {
	var res models.ProcessingResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, &core.StorageError{Op: "decode", JobID: jobID, Cause: err}
	}
	return &models.JobRecord{JobID: jobID, Result: &res, Status: models.StatusCompleted}, nil
}

func newJobID() string { return uuid.NewString() }

// validID guards storage lookups; anything that is not a canonical UUID cannot name a job.
func validID(jobID string) bool {
	u, err := uuid.Parse(jobID)
	return err == nil && u.String() == jobID
}
