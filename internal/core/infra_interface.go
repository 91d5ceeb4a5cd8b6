package core

import (
	"context"
	"io"

	"github.com/vitalia-labs/vitalia/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateDocument(ctx context.Context, doc *models.HealthDocument) error
	GetDocumentByID(ctx context.Context, id string) (*models.HealthDocument, error)
	ListDocumentsByUser(ctx context.Context, userID string) ([]models.HealthDocument, error)
	UpdateDocumentStatus(ctx context.Context, id string, status string) error

	UpsertRecordChunks(ctx context.Context, chunks []models.RecordChunk) error
	CountChunksByDocument(ctx context.Context, documentID string) (int, error)
	SearchRecordChunks(ctx context.Context, documentID string, queryVec []float32, limit int) ([]models.RecordChunk, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// Uploads take a reader so multi-gigabyte exports never sit in memory.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, body io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
