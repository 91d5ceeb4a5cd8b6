package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vitalia-labs/vitalia/internal/config"
	"github.com/vitalia-labs/vitalia/internal/core"
	"github.com/vitalia-labs/vitalia/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	// Append SSL params to the provided DATABASE_URL when a cert is configured.
	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		if _, err := os.Stat(cfg.SslCertPath); err != nil {
			return nil, fmt.Errorf("ssl cert not accessible at %q: %w", cfg.SslCertPath, err)
		}
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	// Ensure bootstrap once
	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for HealthDocument

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.HealthDocument) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO health_documents
			(id, user_id, file_name, storage_url, content_type, size_bytes, status, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.UserID, doc.FileName, doc.StorageURL, doc.ContentType, doc.SizeBytes, doc.Status)
	return err
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.HealthDocument, error) {
	const q = `
		SELECT id, user_id, file_name, storage_url, content_type, size_bytes, status, created_at, updated_at
		FROM health_documents
		WHERE id = $1
	`
	var d models.HealthDocument
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.UserID, &d.FileName, &d.StorageURL, &d.ContentType, &d.SizeBytes, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) ListDocumentsByUser(ctx context.Context, userID string) ([]models.HealthDocument, error) {
	const q = `
		SELECT id, user_id, file_name, storage_url, content_type, size_bytes, status, created_at, updated_at
		FROM health_documents
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HealthDocument
	for rows.Next() {
		var d models.HealthDocument
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.FileName, &d.StorageURL, &d.ContentType, &d.SizeBytes, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE health_documents
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// Implementing the db interface for record chunks

// UpsertRecordChunks writes chunks in a single transaction. The upsert keys
// on (document_id, chunk_index) so retried or re-imported chunks overwrite
// their earlier row instead of duplicating it.
func (c *DatabaseClient) UpsertRecordChunks(ctx context.Context, chunks []models.RecordChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO record_chunks
			(id, document_id, chunk_index, record_count, text, embedding, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (document_id, chunk_index) DO UPDATE
		SET record_count = EXCLUDED.record_count,
		    text         = EXCLUDED.text,
		    embedding    = EXCLUDED.embedding,
		    size_bytes   = EXCLUDED.size_bytes
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)

		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.ChunkIndex, ch.RecordCount, ch.Text, vec, ch.SizeBytes,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) CountChunksByDocument(ctx context.Context, documentID string) (int, error) {
	const q = `SELECT count(*) FROM record_chunks WHERE document_id = $1`
	var n int
	if err := c.db.QueryRowContext(ctx, q, documentID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SearchRecordChunks finds top-k similar chunks within a document for a
// query embedding.
func (c *DatabaseClient) SearchRecordChunks(ctx context.Context, documentID string, queryVec []float32, limit int) ([]models.RecordChunk, error) {
	const q = `
		SELECT id, document_id, chunk_index, record_count, text, embedding, size_bytes
		FROM record_chunks
		WHERE document_id = $1
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, documentID, vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RecordChunk
	for rows.Next() {
		var (
			ch  models.RecordChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.ChunkIndex, &ch.RecordCount, &ch.Text, &emb, &ch.SizeBytes); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}
