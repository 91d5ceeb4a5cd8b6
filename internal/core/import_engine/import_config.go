package importengine

import "time"

// Pipeline tuning defaults. ChunkSize counts bytes of record text per sealed
// chunk; MaxFileSize bounds the size the source reports before any read.
const (
	DefaultChunkSize      = 5 << 20
	DefaultMaxRetries     = 3
	DefaultAttemptTimeout = 30 * time.Second
	DefaultMaxFileSize    = int64(5) << 30

	defaultBackoffBase = time.Second

	// readBlockSize is the fixed block the stream driver pulls per read,
	// independent of ChunkSize.
	readBlockSize = 64 * 1024
)

// Options tunes one import run. These six fields are the complete option
// surface; zero numeric values select the defaults above.
//
// ChunkSize:       bytes of accumulated record text that seal a chunk.
// MaxRetries:      retries after the first attempt (total attempts = MaxRetries+1).
// AttemptTimeout:  hard bound on a single processor attempt.
// MaxFileSize:     sources reporting more than this are rejected up front.
// OnProgress:      called with 0..100 after every chunk resolution and at EOF.
// OnChunkComplete: called with (chunkIndex, totalChunksSoFar) per resolved chunk.
type Options struct {
	ChunkSize      int
	MaxRetries     int
	AttemptTimeout time.Duration
	MaxFileSize    int64

	OnProgress      func(percent float64)
	OnChunkComplete func(chunkIndex, totalChunksSoFar int)
}

// normalized fills unset numeric options with their defaults.
func (o Options) normalized() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = DefaultAttemptTimeout
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	return o
}
