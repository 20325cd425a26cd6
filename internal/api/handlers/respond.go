package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/markdave123-py/docreader/internal/core"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("http.encode.fail", "err", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Causes of server faults are logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())

	var be *core.BackendError
	switch {
	case core.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: err.Error()})
	case core.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "Result not found"})
	case errors.As(err, &be):
		slog.Error("http.backend_error", "req_id", reqID, "technology", be.Technology, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: be.Technology + ": " + be.Message})
	default:
		slog.Error("http.internal_error", "req_id", reqID, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "Internal server error"})
	}
}
