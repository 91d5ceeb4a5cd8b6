package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vitalia-labs/vitalia/internal/core"
	"github.com/vitalia-labs/vitalia/internal/models"
)

var ErrEmptyQuery = errors.New("query is empty")

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 50
)

// SearchService answers similarity queries over a document's stored chunks.
type SearchService struct {
	docs     *DocumentService
	db       core.DbClient
	embedder core.EmbeddingProvider
}

func NewSearchService(docs *DocumentService, db core.DbClient, embedder core.EmbeddingProvider) *SearchService {
	return &SearchService{docs: docs, db: db, embedder: embedder}
}

// Search embeds the query and returns the top-limit chunks of the document
// by vector distance. The document must belong to userID.
func (s *SearchService) Search(ctx context.Context, userID, documentID, query string, limit int) ([]models.RecordChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = defaultSearchLimit
	}

	if _, err := s.docs.GetOwned(ctx, userID, documentID); err != nil {
		return nil, err
	}

	vecs, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d embeddings for one query", len(vecs))
	}

	return s.db.SearchRecordChunks(ctx, documentID, vecs[0], limit)
}
