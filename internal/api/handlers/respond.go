package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	importengine "github.com/vitalia-labs/vitalia/internal/core/import_engine"
	"github.com/vitalia-labs/vitalia/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps known service errors onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrDocumentNotFound),
		errors.Is(err, importengine.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, importengine.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, importengine.ErrEmptySource),
		errors.Is(err, importengine.ErrUnsupportedFileType),
		errors.Is(err, services.ErrEmptyQuery):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}
