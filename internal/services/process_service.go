package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/core/store"
	"github.com/markdave123-py/docreader/internal/models"
)

// Catalog resolves technologies by name.
type Catalog interface {
	Get(name string) (core.Technology, error)
	List() []models.TechnologyDescriptor
}

// SubmitInput is one inbound processing request.
type SubmitInput struct {
	Technology string
	Params     string
	Filename   string
	Document   []byte
	RequestID  string
	Subject    string
}

type ProcessService struct {
	catalog           Catalog
	store             store.ResultStore
	defaultTechnology string
	settings          map[string]map[string]any
}

func NewProcessService(catalog Catalog, st store.ResultStore, defaultTechnology string, settings map[string]map[string]any) *ProcessService {
	if settings == nil {
		settings = map[string]map[string]any{}
	}
	return &ProcessService{catalog: catalog, store: st, defaultTechnology: defaultTechnology, settings: settings}
}

// Submit runs the requested technology and stores its result. Nothing is stored on failure.
func (s *ProcessService) Submit(ctx context.Context, in SubmitInput) (*models.SubmitResponse, error) {
	start := time.Now()
	name := strings.TrimSpace(in.Technology)
	if name == "" {
		name = s.defaultTechnology
	}
	if name == "" {
		return nil, &core.InvalidRequestError{Message: "technology is required"}
	}
	if len(in.Document) == 0 {
		return nil, &core.InvalidRequestError{Message: "file is empty"}
	}
	params, err := core.ParseParams(in.Params)
	if err != nil {
		return nil, err
	}
	log := slog.With("req_id", in.RequestID, "technology", name)

	tech, err := s.catalog.Get(name)
	if err != nil {
		log.Warn("process.resolve.fail", "err", err)
		return nil, err
	}

	log.Info("process.start", "filename", in.Filename, "doc_bytes", len(in.Document))
	result, err := tech.Run(ctx, in.Document, params.Merge(s.settings[name]))
	if err != nil {
		log.Error("process.fail", "err", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	blob := strings.TrimSpace(in.Params)
	if blob == "" {
		blob = "{}"
	}
	jobID, err := s.store.Save(ctx, result, models.ProcessRequest{
		Technology: name,
		Params:     blob,
		Filename:   in.Filename,
		Subject:    in.Subject,
	})
	if err != nil {
		log.Error("process.store.fail", "err", err)
		return nil, err
	}

	log.Info("process.done", "job_id", jobID, "elapsed_ms", time.Since(start).Milliseconds())
	return &models.SubmitResponse{JobID: jobID, Status: models.StatusProcessing}, nil
}

// Result loads a stored job.
func (s *ProcessService) Result(ctx context.Context, jobID string) (*models.JobRecord, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, &core.InvalidRequestError{Message: "job id is required"}
	}
	rec, found, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &core.NotFoundError{JobID: jobID}
	}
	return rec, nil
}

// Technologies lists what can be submitted.
func (s *ProcessService) Technologies() []models.TechnologyDescriptor {
	return s.catalog.List()
}
