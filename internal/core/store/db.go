package store

import (
	"context"
	"log/slog"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/models"
)

// JobRow is the relational form of a job.
type JobRow struct {
	ID         string
	Technology string
	Result     []byte
	Request    []byte
	Markdown   string
}

// JobTable is the persistence surface a database client provides.
type JobTable interface {
	InsertJob(ctx context.Context, row JobRow) error
	// GetJobResult returns (nil, nil) when no row exists.
	GetJobResult(ctx context.Context, id string) ([]byte, error)
}

// DBStore keeps jobs as rows; all three artifacts land in one insert.
type DBStore struct {
	table JobTable
}

func NewDBStore(table JobTable) *DBStore {
	return &DBStore{table: table}
}

var _ ResultStore = (*DBStore)(nil)

func (s *DBStore) Save(ctx context.Context, result *models.ProcessingResult, req models.ProcessRequest) (string, error) {
	a, err := encode(result, req)
	if err != nil {
		return "", &core.StorageError{Op: "encode", Cause: err}
	}
	row := JobRow{
		ID:         newJobID(),
		Technology: result.TechnologyUsed,
		Result:     a.result,
		Request:    a.request,
		Markdown:   string(a.markdown),
	}
	if err := s.table.InsertJob(ctx, row); err != nil {
		slog.Error("store.save.fail", "job_id", row.ID, "err", err)
		return "", &core.StorageError{Op: "insert", JobID: row.ID, Cause: err}
	}
	return row.ID, nil
}

func (s *DBStore) Get(ctx context.Context, jobID string) (*models.JobRecord, bool, error) {
	if !validID(jobID) {
		return nil, false, nil
	}
	raw, err := s.table.GetJobResult(ctx, jobID)
	if err != nil {
		return nil, false, &core.StorageError{Op: "select", JobID: jobID, Cause: err}
	}
	if raw == nil {
		return nil, false, nil
	}
	rec, err := decode(jobID, raw)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}
