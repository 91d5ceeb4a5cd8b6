package importengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitalia-labs/vitalia/internal/core"
)

// ErrChunkFailed marks a chunk whose retry budget is exhausted.
var ErrChunkFailed = errors.New("chunk processing failed")

// attemptOutcome is the terminal state one chunk reaches.
//
// Per chunk the state machine is Pending -> Attempting(k) -> {Success |
// Attempting(k+1) | ExhaustedFailure}; skipped covers chunks holding no
// records at all, cancelled covers a session torn down between attempts.
type attemptOutcome int

const (
	outcomeSuccess attemptOutcome = iota
	outcomeSkipped
	outcomeExhausted
	outcomeCancelled
)

// retryProcessor drives one chunk at a time through timeout-raced attempts
// with exponential backoff. The in-flight processor call is never forcibly
// cancelled; when the timer wins the race the call keeps running in the
// background and its eventual result is discarded, so processors must
// tolerate at-least-once delivery.
type retryProcessor struct {
	processor      core.ChunkProcessor
	maxRetries     int
	attemptTimeout time.Duration
	backoffBase    time.Duration
}

// run takes one chunk to a terminal state. cancel unblocks backoff waits
// when the session is cancelled; ctx reaches the processor so collaborators
// observe session-level cancellation, not per-attempt deadlines.
func (r *retryProcessor) run(ctx context.Context, cancel <-chan struct{}, records []string, ref core.ChunkRef) (attemptOutcome, error) {
	if countChunkRecords(records) == 0 {
		// Non-empty text without a single record marker: no-op success.
		return outcomeSkipped, nil
	}

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		err := r.attempt(ctx, records, ref)
		if err == nil {
			return outcomeSuccess, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return outcomeCancelled, ctx.Err()
		}
		if attempt == r.maxRetries {
			break
		}

		backoff := r.backoffBase << uint(attempt)
		select {
		case <-ctx.Done():
			return outcomeCancelled, ctx.Err()
		case <-cancel:
			return outcomeCancelled, ErrImportCancelled
		case <-time.After(backoff):
		}
	}
	return outcomeExhausted, fmt.Errorf("%w after %d attempts: %v", ErrChunkFailed, r.maxRetries+1, lastErr)
}

// attempt races one processor call against the attempt timeout.
func (r *retryProcessor) attempt(ctx context.Context, records []string, ref core.ChunkRef) error {
	done := make(chan error, 1)
	go func() {
		done <- r.processor.ProcessChunk(ctx, records, ref)
	}()

	timer := time.NewTimer(r.attemptTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("attempt timed out after %s", r.attemptTimeout)
	}
}

// countChunkRecords counts validated record markers across a chunk's records.
func countChunkRecords(records []string) int {
	total := 0
	for _, rec := range records {
		total += countRecordMarkers(rec)
	}
	return total
}
