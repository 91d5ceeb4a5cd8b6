package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalia-labs/vitalia/internal/models"
)

func TestGetImportStatusIdle(t *testing.T) {
	fx := newFixture()
	fx.db.docs["doc-1"] = &models.HealthDocument{ID: "doc-1", UserID: "user-1", Status: models.StatusReady}
	fx.db.chunkCount = 7

	rec := fx.do(http.MethodGet, "/api/imports/doc-1", "user-1", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "doc-1", got["document_id"])
	assert.Equal(t, models.StatusReady, got["status"])
	assert.Equal(t, float64(7), got["chunk_count"])
	assert.NotContains(t, got, "session_id")
	assert.NotContains(t, got, "progress")
}

func TestGetImportStatusLiveSession(t *testing.T) {
	fx := newFixture()
	fx.db.docs["doc-1"] = &models.HealthDocument{ID: "doc-1", UserID: "user-1", Status: models.StatusProcessing}
	sess := fx.registry.Start("user-1", "doc-1", "export.xml", 1000)

	rec := fx.do(http.MethodGet, "/api/imports/doc-1", "user-1", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusProcessing, got["status"])
	assert.Equal(t, sess.ID, got["session_id"])
	assert.Equal(t, float64(0), got["progress"])
	assert.Equal(t, float64(0), got["processed_chunks"])
}

func TestGetImportStatusOwnership(t *testing.T) {
	fx := newFixture()
	fx.db.docs["doc-1"] = &models.HealthDocument{ID: "doc-1", UserID: "user-1"}

	rec := fx.do(http.MethodGet, "/api/imports/doc-1", "user-2", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = fx.do(http.MethodGet, "/api/imports/missing", "user-1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelImportNoSession(t *testing.T) {
	fx := newFixture()
	fx.db.docs["doc-1"] = &models.HealthDocument{ID: "doc-1", UserID: "user-1", Status: models.StatusReady}

	rec := fx.do(http.MethodPost, "/api/imports/doc-1/cancel", "user-1", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelImportFlagsSession(t *testing.T) {
	fx := newFixture()
	fx.db.docs["doc-1"] = &models.HealthDocument{ID: "doc-1", UserID: "user-1", Status: models.StatusProcessing}
	sess := fx.registry.Start("user-1", "doc-1", "export.xml", 1000)

	rec := fx.do(http.MethodPost, "/api/imports/doc-1/cancel", "user-1", nil, "")

	require.Equal(t, http.StatusAccepted, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sess.ID, got["session_id"])
	assert.Equal(t, "cancelling", got["status"])

	assert.True(t, sess.IsCancelled())
	_, ok := fx.registry.FindByDocument("doc-1")
	assert.False(t, ok)
}
