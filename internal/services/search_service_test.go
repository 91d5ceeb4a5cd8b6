package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalia-labs/vitalia/internal/models"
)

type stubEmbedder struct {
	calls int
	vec   []float32
}

func (s *stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

func newSearchFixture() (*fakeDB, *stubEmbedder, *SearchService) {
	db := newFakeDB()
	db.docs["doc-1"] = &models.HealthDocument{ID: "doc-1", UserID: "user-1", Status: models.StatusReady}
	emb := &stubEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	docs := NewDocumentService(db, &fakeStorage{}, "vitalia-exports", 0)
	return db, emb, NewSearchService(docs, db, emb)
}

func TestSearchReturnsTopChunks(t *testing.T) {
	db, emb, svc := newSearchFixture()
	db.searchOut = []models.RecordChunk{
		{ID: "c1", DocumentID: "doc-1", ChunkIndex: 4, Text: `<Record type="SleepAnalysis"/>`},
		{ID: "c2", DocumentID: "doc-1", ChunkIndex: 9, Text: `<Record type="HeartRate"/>`},
	}

	got, err := svc.Search(context.Background(), "user-1", "doc-1", "how did I sleep", 3)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, "doc-1", db.searchDoc)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, db.searchVec)
	assert.Equal(t, 3, db.searchLimit)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	_, emb, svc := newSearchFixture()

	_, err := svc.Search(context.Background(), "user-1", "doc-1", "   ", 5)
	require.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, 0, emb.calls)
}

func TestSearchChecksOwnership(t *testing.T) {
	_, emb, svc := newSearchFixture()

	_, err := svc.Search(context.Background(), "user-2", "doc-1", "heart rate", 5)
	require.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, 0, emb.calls)

	_, err = svc.Search(context.Background(), "user-1", "missing", "heart rate", 5)
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestSearchClampsLimit(t *testing.T) {
	db, _, svc := newSearchFixture()

	_, err := svc.Search(context.Background(), "user-1", "doc-1", "steps", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultSearchLimit, db.searchLimit)

	_, err = svc.Search(context.Background(), "user-1", "doc-1", "steps", 500)
	require.NoError(t, err)
	assert.Equal(t, defaultSearchLimit, db.searchLimit)
}
