package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appMiddleware "github.com/markdave123-py/docreader/internal/api/middlewares"
	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/services"
)

type ProcessHandler struct {
	svc         *services.ProcessService
	maxUploadMB int
}

func NewProcessHandler(svc *services.ProcessService, maxUploadMB int) *ProcessHandler {
	return &ProcessHandler{svc: svc, maxUploadMB: maxUploadMB}
}

// RunProcess accepts a multipart upload and answers 202 with the job id.
func (h *ProcessHandler) RunProcess(w http.ResponseWriter, r *http.Request) {
	limit := int64(h.maxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, &core.InvalidRequestError{Message: fmt.Sprintf("upload exceeds %d MB", h.maxUploadMB)})
			return
		}
		writeError(w, r, &core.InvalidRequestError{Message: "expected multipart/form-data", Cause: err})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, &core.InvalidRequestError{Message: "file is required"})
		return
	}
	defer file.Close()

	if header.Size > limit {
		writeError(w, r, &core.InvalidRequestError{Message: fmt.Sprintf("upload exceeds %d MB", h.maxUploadMB)})
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, &core.InvalidRequestError{Message: "could not read file", Cause: err})
		return
	}

	resp, err := h.svc.Submit(r.Context(), services.SubmitInput{
		Technology: r.FormValue("technology"),
		Params:     r.FormValue("params"),
		Filename:   filepath.Base(header.Filename),
		Document:   data,
		RequestID:  middleware.GetReqID(r.Context()),
		Subject:    appMiddleware.Subject(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// GetResult returns a stored job.
func (h *ProcessHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Result(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListTechnologies describes every registered technology and its parameters.
func (h *ProcessHandler) ListTechnologies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Technologies())
}

func (h *ProcessHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

// UpdateConfig is reserved; runtime reconfiguration is not supported.
func (h *ProcessHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "not implemented"})
}
