package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/vitalia-labs/vitalia/internal/api/middlewares"
	importengine "github.com/vitalia-labs/vitalia/internal/core/import_engine"
	"github.com/vitalia-labs/vitalia/internal/services"
)

type DocumentHandler struct {
	docs     *services.DocumentService
	importer *importengine.Importer
}

func NewDocumentHandler(docs *services.DocumentService, importer *importengine.Importer) *DocumentHandler {
	return &DocumentHandler{docs: docs, importer: importer}
}

// UploadDocument accepts a multipart export upload, stores it, and queues
// the background import. Large parts spool to disk during parsing, so the
// export never sits in memory.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user identity not found", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	doc, err := h.docs.UploadAndCreate(r.Context(), userID, header.Filename, contentType, header.Size, file)
	if err != nil {
		respondError(w, err)
		return
	}

	h.importer.Enqueue(doc.ID)

	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user identity not found", http.StatusUnauthorized)
		return
	}

	documents, err := h.docs.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documents)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user identity not found", http.StatusUnauthorized)
		return
	}

	doc, err := h.docs.GetOwned(r.Context(), userID, chi.URLParam(r, "documentID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
