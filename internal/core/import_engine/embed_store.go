package importengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vitalia-labs/vitalia/internal/core"
	"github.com/vitalia-labs/vitalia/internal/models"
)

// EmbedStore is the production chunk processor: it embeds a chunk's records
// and upserts the result as one record_chunks row. The upsert keys on
// (document_id, chunk_index), so the at-least-once delivery the retry layer
// allows collapses into a single row per chunk.
type EmbedStore struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
}

var _ core.ChunkProcessor = (*EmbedStore)(nil)

func NewEmbedStore(db core.DbClient, embedder core.EmbeddingProvider) *EmbedStore {
	return &EmbedStore{db: db, embedder: embedder}
}

func (s *EmbedStore) ProcessChunk(ctx context.Context, records []string, ref core.ChunkRef) error {
	text := strings.Join(records, "\n")

	vecs, err := s.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed chunk: %w", err)
	}
	if len(vecs) != 1 {
		return fmt.Errorf("embed size mismatch: got %d want 1", len(vecs))
	}

	row := models.RecordChunk{
		ID:          uuid.New().String(),
		DocumentID:  ref.DocumentID,
		ChunkIndex:  ref.Index,
		RecordCount: len(records),
		Text:        text,
		Embedding:   vecs[0],
		SizeBytes:   len(text),
	}
	if err := s.db.UpsertRecordChunks(ctx, []models.RecordChunk{row}); err != nil {
		return fmt.Errorf("store chunk: %w", err)
	}
	return nil
}
