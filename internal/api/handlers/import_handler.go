package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/vitalia-labs/vitalia/internal/api/middlewares"
	importengine "github.com/vitalia-labs/vitalia/internal/core/import_engine"
	"github.com/vitalia-labs/vitalia/internal/services"
)

type ImportHandler struct {
	docs     *services.DocumentService
	registry *importengine.SessionRegistry
}

func NewImportHandler(docs *services.DocumentService, registry *importengine.SessionRegistry) *ImportHandler {
	return &ImportHandler{docs: docs, registry: registry}
}

type importStatusResponse struct {
	DocumentID string   `json:"document_id"`
	Status     string   `json:"status"`
	ChunkCount int      `json:"chunk_count"`
	SessionID  string   `json:"session_id,omitempty"`
	Progress   *float64 `json:"progress,omitempty"`
	Processed  *int     `json:"processed_chunks,omitempty"`
}

// GetImportStatus reports the document's import state. While a session is
// live it also carries the session id and progress percentage.
func (h *ImportHandler) GetImportStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user identity not found", http.StatusUnauthorized)
		return
	}

	docID := chi.URLParam(r, "documentID")
	doc, err := h.docs.GetOwned(r.Context(), userID, docID)
	if err != nil {
		respondError(w, err)
		return
	}

	count, err := h.docs.ChunkCount(r.Context(), docID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := importStatusResponse{
		DocumentID: doc.ID,
		Status:     doc.Status,
		ChunkCount: count,
	}
	if sess, ok := h.registry.FindByDocument(docID); ok {
		progress := sess.Progress()
		processed := sess.Processed()
		resp.SessionID = sess.ID
		resp.Progress = &progress
		resp.Processed = &processed
	}

	writeJSON(w, http.StatusOK, resp)
}

// CancelImport flags the document's live import session for cooperative
// cancellation. The pipeline stops before its next chunk dispatch.
func (h *ImportHandler) CancelImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user identity not found", http.StatusUnauthorized)
		return
	}

	docID := chi.URLParam(r, "documentID")
	if _, err := h.docs.GetOwned(r.Context(), userID, docID); err != nil {
		respondError(w, err)
		return
	}

	sess, ok := h.registry.FindByDocument(docID)
	if !ok {
		respondError(w, importengine.ErrSessionNotFound)
		return
	}
	if err := h.registry.Cancel(sess.ID); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"session_id": sess.ID,
		"status":     "cancelling",
	})
}
