package core

import "context"

// ChunkRef identifies one sealed chunk within a running import.
type ChunkRef struct {
	SessionID  string
	UserID     string
	DocumentID string
	Index      int
}

// ChunkProcessor consumes one sealed chunk of records. Implementations must
// tolerate at-least-once delivery: a timed-out attempt may still complete in
// the background while the engine retries.
type ChunkProcessor interface {
	ProcessChunk(ctx context.Context, records []string, ref ChunkRef) error
}
