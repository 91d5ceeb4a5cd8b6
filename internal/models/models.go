package models

import (
	"time"
)

// Document status lifecycle: uploaded -> processing -> ready | failed.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// HealthDocument represents one uploaded health-export file.
type HealthDocument struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	StorageURL  string    `db:"storage_url" json:"storage_url"` // S3 URL of the raw export
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	Status      string    `db:"status" json:"status"` // uploaded | processing | ready | failed
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RecordChunk represents one sealed batch of records from a document,
// stored with its embedding for similarity search.
type RecordChunk struct {
	ID          string    `db:"id" json:"id"`
	DocumentID  string    `db:"document_id" json:"document_id"`
	ChunkIndex  int       `db:"chunk_index" json:"chunk_index"`
	RecordCount int       `db:"record_count" json:"record_count"`
	Text        string    `db:"text" json:"text"`
	Embedding   []float32 `db:"embedding" json:"embedding"` // pgvector column
	SizeBytes   int       `db:"size_bytes" json:"size_bytes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
