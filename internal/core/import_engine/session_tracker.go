package importengine

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrImportCancelled = errors.New("import cancelled")
)

// ImportSession tracks one file's end-to-end progress through the pipeline.
// The text buffer and decode state belong to the session's driver; the
// fields here are safe for concurrent readers such as HTTP handlers polling
// progress while the import runs.
type ImportSession struct {
	ID         string
	UserID     string
	DocumentID string
	FileName   string
	FileSize   int64
	StartedAt  time.Time

	mu         sync.Mutex
	total      int
	totalKnown bool
	processed  map[int]struct{}
	cancelled  bool
	cancelCh   chan struct{}
}

// markResolved records a chunk index that reached a successful terminal
// state. The set feeds the progress percentage only; there is no checkpoint
// or resume.
func (s *ImportSession) markResolved(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[index] = struct{}{}
}

// finalizeTotal pins the chunk count once the stream is fully drained. The
// count is unknowable earlier because chunk boundaries depend on record
// boundaries, not byte offsets.
func (s *ImportSession) finalizeTotal(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = total
	s.totalKnown = true
}

// Progress reports completion as 0..100, defined as 0 until the total chunk
// count is known.
func (s *ImportSession) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.totalKnown {
		return 0
	}
	if s.total == 0 {
		return 100
	}
	return float64(len(s.processed)) / float64(s.total) * 100
}

// Processed reports how many chunks have resolved successfully so far.
func (s *ImportSession) Processed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processed)
}

// Cancel flags the session. Cancellation is cooperative: the driver stops
// before its next read or dispatch, and a processor attempt already in
// flight runs to completion or to its own timeout.
func (s *ImportSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.cancelled = true
	close(s.cancelCh)
}

func (s *ImportSession) IsCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// cancelChan unblocks backoff waits when the session is cancelled.
func (s *ImportSession) cancelChan() <-chan struct{} {
	return s.cancelCh
}

// SessionRegistry owns every live import session. Callers hold a registry
// instance and look sessions up by id; there is no package-level session
// state anywhere.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*ImportSession
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*ImportSession)}
}

// Start registers a new session for one file import.
func (r *SessionRegistry) Start(userID, documentID, fileName string, fileSize int64) *ImportSession {
	s := &ImportSession{
		ID:         uuid.New().String(),
		UserID:     userID,
		DocumentID: documentID,
		FileName:   fileName,
		FileSize:   fileSize,
		StartedAt:  time.Now(),
		processed:  make(map[int]struct{}),
		cancelCh:   make(chan struct{}),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return s
}

func (r *SessionRegistry) Get(id string) (*ImportSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// FindByDocument returns the live session importing the given document.
func (r *SessionRegistry) FindByDocument(documentID string) (*ImportSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.DocumentID == documentID {
			return s, true
		}
	}
	return nil, false
}

// Progress reports a session's completion percentage.
func (r *SessionRegistry) Progress(id string) (float64, error) {
	s, err := r.Get(id)
	if err != nil {
		return 0, err
	}
	return s.Progress(), nil
}

// Cancel flags the session and drops it from the registry. The running
// driver keeps its handle and stops at the next suspension point.
func (r *SessionRegistry) Cancel(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Cancel()
	return nil
}

// Remove drops a finished session. Safe to call for ids already gone.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
