package importengine

// chunk is one sealed group of records handed downstream. Records keep their
// source order; index is assigned sequentially from zero.
type chunk struct {
	index   int
	records []string
	size    int
}

// chunkAssembler accumulates records until their combined length reaches the
// threshold, then seals them into the next chunk. Chunks are never split
// mid-record: a single record longer than the threshold seals alone.
type chunkAssembler struct {
	threshold   int
	pending     []string
	pendingSize int
	nextIndex   int
}

func newChunkAssembler(threshold int) *chunkAssembler {
	return &chunkAssembler{threshold: threshold}
}

// add appends one record and returns the sealed chunk once the pending size
// reaches the threshold, nil otherwise.
func (a *chunkAssembler) add(record string) *chunk {
	a.pending = append(a.pending, record)
	a.pendingSize += len(record)
	if a.pendingSize >= a.threshold {
		return a.seal()
	}
	return nil
}

// flush seals whatever is pending regardless of the threshold. Returns nil
// when nothing is pending. Used once at end of stream.
func (a *chunkAssembler) flush() *chunk {
	if len(a.pending) == 0 {
		return nil
	}
	return a.seal()
}

func (a *chunkAssembler) seal() *chunk {
	c := &chunk{index: a.nextIndex, records: a.pending, size: a.pendingSize}
	a.nextIndex++
	a.pending = nil
	a.pendingSize = 0
	return c
}
