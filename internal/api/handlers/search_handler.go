package handlers

import (
	"encoding/json"
	"net/http"

	middleware "github.com/vitalia-labs/vitalia/internal/api/middlewares"
	"github.com/vitalia-labs/vitalia/internal/services"
)

type SearchHandler struct {
	search *services.SearchService
}

func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
	Limit      int    `json:"limit"`
}

type searchResult struct {
	ChunkIndex  int    `json:"chunk_index"`
	RecordCount int    `json:"record_count"`
	Text        string `json:"text"`
}

// SearchDocument embeds the query and returns the closest stored chunks of
// the document. Embeddings stay server-side; only chunk text goes out.
func (h *SearchHandler) SearchDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user identity not found", http.StatusUnauthorized)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	chunks, err := h.search.Search(r.Context(), userID, req.DocumentID, req.Query, req.Limit)
	if err != nil {
		respondError(w, err)
		return
	}

	results := make([]searchResult, 0, len(chunks))
	for _, ch := range chunks {
		results = append(results, searchResult{
			ChunkIndex:  ch.ChunkIndex,
			RecordCount: ch.RecordCount,
			Text:        ch.Text,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": req.DocumentID,
		"results":     results,
	})
}
