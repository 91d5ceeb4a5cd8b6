package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	middleware "github.com/vitalia-labs/vitalia/internal/api/middlewares"
	importengine "github.com/vitalia-labs/vitalia/internal/core/import_engine"
	"github.com/vitalia-labs/vitalia/internal/models"
	"github.com/vitalia-labs/vitalia/internal/services"
)

type fakeDB struct {
	mu         sync.Mutex
	docs       map[string]*models.HealthDocument
	chunkCount int
	searchOut  []models.RecordChunk
	lastQuery  []float32
}

func newFakeDB() *fakeDB {
	return &fakeDB{docs: map[string]*models.HealthDocument{}}
}

func (f *fakeDB) CreateDocument(_ context.Context, doc *models.HealthDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeDB) GetDocumentByID(_ context.Context, id string) (*models.HealthDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeDB) ListDocumentsByUser(_ context.Context, userID string) ([]models.HealthDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.HealthDocument
	for _, d := range f.docs {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDB) UpdateDocumentStatus(_ context.Context, id string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	f.docs[id].Status = status
	return nil
}

func (f *fakeDB) UpsertRecordChunks(_ context.Context, chunks []models.RecordChunk) error {
	return nil
}

func (f *fakeDB) CountChunksByDocument(_ context.Context, documentID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chunkCount, nil
}

func (f *fakeDB) SearchRecordChunks(_ context.Context, documentID string, queryVec []float32, limit int) ([]models.RecordChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = append([]float32(nil), queryVec...)
	return f.searchOut, nil
}

func (f *fakeDB) Close() error { return nil }

type fakeObj struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeObj) UploadFile(_ context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return fmt.Sprintf("https://%s.s3.us-east-1.amazonaws.com/%s", bucket, key), nil
}

func (f *fakeObj) DeleteFile(_ context.Context, bucket, key string) error { return nil }

func (f *fakeObj) GetObjectReader(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

type stubEmbedder struct {
	mu      sync.Mutex
	queries []string
	vec     []float32
}

func (s *stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, texts...)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

type fixture struct {
	db       *fakeDB
	obj      *fakeObj
	embedder *stubEmbedder
	registry *importengine.SessionRegistry
	router   http.Handler
}

// newFixture wires the handlers behind the same routes the server mounts.
func newFixture() *fixture {
	db := newFakeDB()
	obj := &fakeObj{}
	emb := &stubEmbedder{vec: []float32{0.5, 0.5}}

	docs := services.NewDocumentService(db, obj, "vitalia-exports", 0)
	search := services.NewSearchService(docs, db, emb)
	importer := importengine.NewImporter(db, obj, nil, importengine.Options{})

	dh := NewDocumentHandler(docs, importer)
	ih := NewImportHandler(docs, importer.Registry())
	sh := NewSearchHandler(search)

	r := chi.NewRouter()
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.UserAuth)
		protected.Post("/api/documents/upload", dh.UploadDocument)
		protected.Get("/api/documents", dh.GetDocuments)
		protected.Get("/api/documents/{documentID}", dh.GetDocument)
		protected.Get("/api/imports/{documentID}", ih.GetImportStatus)
		protected.Post("/api/imports/{documentID}/cancel", ih.CancelImport)
		protected.Post("/api/search", sh.SearchDocument)
	})

	return &fixture{db: db, obj: obj, embedder: emb, registry: importer.Registry(), router: r}
}

func (fx *fixture) do(method, target, user string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

// multipartExport builds a multipart body with one file part.
func multipartExport(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}
