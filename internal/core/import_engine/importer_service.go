package importengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vitalia-labs/vitalia/internal/core"
	"github.com/vitalia-labs/vitalia/internal/models"
)

// Precondition failures. All three are checked against the reported file
// metadata before a single byte is read from the source.
var (
	ErrEmptySource         = errors.New("source is empty")
	ErrFileTooLarge        = errors.New("file exceeds maximum size")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

const expectedExtension = ".xml"

// FileMeta describes the source as reported by the caller (upload headers or
// the stored document row), not as measured by reading it.
type FileMeta struct {
	Name string
	Size int64
}

// CheckSource enforces the entry preconditions. The upload path calls it
// too, so rejected files never reach object storage.
func CheckSource(meta FileMeta, maxSize int64) error {
	if meta.Size <= 0 {
		return fmt.Errorf("%w: %q", ErrEmptySource, meta.Name)
	}
	if meta.Size > maxSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, meta.Size, maxSize)
	}
	if !strings.EqualFold(filepath.Ext(meta.Name), expectedExtension) {
		return fmt.Errorf("%w: %q (want %s)", ErrUnsupportedFileType, meta.Name, expectedExtension)
	}
	return nil
}

// Importer runs health-export imports. It owns the session registry, the
// downstream chunk processor, and a bounded in-memory queue of background
// jobs (easy to swap for a real broker later).
type Importer struct {
	db        core.DbClient
	obj       core.ObjectClient
	processor core.ChunkProcessor
	registry  *SessionRegistry

	opts        Options // service-level defaults from config
	backoffBase time.Duration

	jobs    chan string
	workers *errgroup.Group
}

// NewImporter constructs the importer with a bounded job queue (64).
func NewImporter(db core.DbClient, obj core.ObjectClient, processor core.ChunkProcessor, opts Options) *Importer {
	return &Importer{
		db:          db,
		obj:         obj,
		processor:   processor,
		registry:    NewSessionRegistry(),
		opts:        opts.normalized(),
		backoffBase: defaultBackoffBase,
		jobs:        make(chan string, 64),
	}
}

// Registry exposes the live sessions for progress and cancellation lookups.
func (imp *Importer) Registry() *SessionRegistry {
	return imp.registry
}

// ProcessStream drains src through the pipeline: block reads, record
// extraction, chunk assembly, and strictly-ordered chunk processing with
// retries. It blocks until the stream is drained and every chunk has reached
// a terminal state, then returns the session id.
//
// The first chunk to exhaust its retries aborts the rest of the stream; the
// returned error carries that chunk's index. Cancelling ctx or the session
// stops the run at the next suspension point.
func (imp *Importer) ProcessStream(ctx context.Context, src io.Reader, meta FileMeta, userID, documentID string, opts Options) (string, error) {
	opts = opts.normalized()
	if err := CheckSource(meta, opts.MaxFileSize); err != nil {
		return "", err
	}

	sess := imp.registry.Start(userID, documentID, meta.Name, meta.Size)
	defer imp.registry.Remove(sess.ID)

	retrier := &retryProcessor{
		processor:      imp.processor,
		maxRetries:     opts.MaxRetries,
		attemptTimeout: opts.AttemptTimeout,
		backoffBase:    imp.backoffBase,
	}

	halt := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if sess.IsCancelled() {
			return ErrImportCancelled
		}
		return nil
	}

	resolve := func(c *chunk) error {
		ref := core.ChunkRef{SessionID: sess.ID, UserID: userID, DocumentID: documentID, Index: c.index}
		outcome, err := retrier.run(ctx, sess.cancelChan(), c.records, ref)
		switch outcome {
		case outcomeCancelled:
			return err
		case outcomeExhausted:
			return fmt.Errorf("chunk %d: %w", c.index, err)
		case outcomeSuccess, outcomeSkipped:
			sess.markResolved(c.index)
		}
		if opts.OnChunkComplete != nil {
			opts.OnChunkComplete(c.index, c.index+1)
		}
		if opts.OnProgress != nil {
			opts.OnProgress(sess.Progress())
		}
		return nil
	}

	driver := newStreamDriver(src, opts.ChunkSize, resolve)
	total, err := driver.run(halt)
	if err != nil {
		return sess.ID, err
	}

	sess.finalizeTotal(total)
	if opts.OnProgress != nil {
		opts.OnProgress(sess.Progress())
	}
	return sess.ID, nil
}

// Enqueue schedules a document id for background import.
// If the queue is full, this call will block until space frees up.
func (imp *Importer) Enqueue(docID string) {
	imp.jobs <- docID
}

// Start launches numWorkers goroutines consuming queued document ids. The
// workers exit when ctx is cancelled; Wait joins them.
func (imp *Importer) Start(ctx context.Context, numWorkers int) {
	g, gctx := errgroup.WithContext(ctx)
	for w := 1; w <= numWorkers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					log.Printf("Importer: worker %d shutting down", w)
					return nil
				case docID := <-imp.jobs:
					log.Printf("Importer: worker %d importing document %s", w, docID)
					if err := imp.processOne(gctx, docID); err != nil {
						log.Printf("Importer: document %s import failed: %v", docID, err)
					}
				}
			}
		})
	}
	imp.workers = g
}

// Wait blocks until every worker started by Start has exited.
func (imp *Importer) Wait() error {
	if imp.workers == nil {
		return nil
	}
	return imp.workers.Wait()
}

// processOne imports a single stored document: resolve the row, stream the
// object out of storage, run the pipeline, and move the document status to
// its terminal value.
func (imp *Importer) processOne(ctx context.Context, docID string) error {
	doc, err := imp.db.GetDocumentByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("document not found: %s", docID)
	}

	_ = imp.db.UpdateDocumentStatus(ctx, docID, models.StatusProcessing)

	bucket, key := parseS3URL(doc.StorageURL)
	rc, err := imp.obj.GetObjectReader(ctx, bucket, key)
	if err != nil {
		_ = imp.db.UpdateDocumentStatus(ctx, docID, models.StatusFailed)
		return fmt.Errorf("open stored export: %w", err)
	}
	defer rc.Close()

	opts := imp.opts
	lastLogged := -10.0
	opts.OnProgress = func(percent float64) {
		if percent-lastLogged >= 10 {
			log.Printf("Importer: document %s at %.0f%%", docID, percent)
			lastLogged = percent
		}
	}

	meta := FileMeta{Name: doc.FileName, Size: doc.SizeBytes}
	if _, err := imp.ProcessStream(ctx, rc, meta, doc.UserID, doc.ID, opts); err != nil {
		_ = imp.db.UpdateDocumentStatus(ctx, docID, models.StatusFailed)
		return fmt.Errorf("process stream: %w", err)
	}
	return imp.db.UpdateDocumentStatus(ctx, docID, models.StatusReady)
}

// parseS3URL extracts the bucket and key from a virtual-hosted-style S3 URL.
// Example: https://my-bucket.s3.us-east-2.amazonaws.com/exports/file.xml
func parseS3URL(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 0 {
		bucket = parts[0]
	}
	return bucket, key
}
