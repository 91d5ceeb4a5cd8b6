package services

import (
	"context"
	"errors"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	importengine "github.com/vitalia-labs/vitalia/internal/core/import_engine"

	"github.com/vitalia-labs/vitalia/internal/core"
	"github.com/vitalia-labs/vitalia/internal/models"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrNotOwner         = errors.New("document does not belong to user")
)

type DocumentService struct {
	db      core.DbClient
	storage core.ObjectClient
	bucket  string
	maxSize int64
}

func NewDocumentService(db core.DbClient, storage core.ObjectClient, bucket string, maxSize int64) *DocumentService {
	if maxSize <= 0 {
		maxSize = importengine.DefaultMaxFileSize
	}
	return &DocumentService{db: db, storage: storage, bucket: bucket, maxSize: maxSize}
}

// UploadAndCreate streams the export body to object storage and records it
// as a document in status "uploaded". The body is never buffered in memory,
// so multi-gigabyte exports pass straight through.
func (s *DocumentService) UploadAndCreate(ctx context.Context, userID, filename, contentType string, size int64, body io.Reader) (*models.HealthDocument, error) {
	meta := importengine.FileMeta{Name: filename, Size: size}
	if err := importengine.CheckSource(meta, s.maxSize); err != nil {
		return nil, err
	}

	if contentType == "" {
		contentType = "application/xml"
	}

	docID := uuid.NewString()
	key := s.objectKey(userID, docID, filename)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, body, contentType)
	if err != nil {
		return nil, err
	}

	doc := &models.HealthDocument{
		ID:          docID,
		UserID:      userID,
		FileName:    filename,
		StorageURL:  url,
		ContentType: contentType,
		SizeBytes:   size,
		Status:      models.StatusUploaded,
	}
	if err := s.db.CreateDocument(ctx, doc); err != nil {
		// Best-effort cleanup of the orphaned object.
		if delErr := s.storage.DeleteFile(ctx, s.bucket, key); delErr != nil {
			log.Printf("cleanup orphaned object %s: %v", key, delErr)
		}
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.HealthDocument, error) {
	return s.db.GetDocumentByID(ctx, id)
}

// GetOwned resolves a document and verifies it belongs to userID.
func (s *DocumentService) GetOwned(ctx context.Context, userID, docID string) (*models.HealthDocument, error) {
	doc, err := s.db.GetDocumentByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.UserID != userID {
		return nil, ErrNotOwner
	}
	return doc, nil
}

func (s *DocumentService) ListByUser(ctx context.Context, userID string) ([]models.HealthDocument, error) {
	return s.db.ListDocumentsByUser(ctx, userID)
}

func (s *DocumentService) SetStatus(ctx context.Context, docID string, status string) error {
	return s.db.UpdateDocumentStatus(ctx, docID, status)
}

// ChunkCount reports how many chunks have been stored for a document.
func (s *DocumentService) ChunkCount(ctx context.Context, docID string) (int, error) {
	return s.db.CountChunksByDocument(ctx, docID)
}

// objectKey creates a consistent S3 key layout: <userID>/<docID>/<filename>.
func (s *DocumentService) objectKey(userID, docID, filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join(userID, docID, filename)
}
