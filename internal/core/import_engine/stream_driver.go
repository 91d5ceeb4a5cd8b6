package importengine

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// streamDriver owns the text buffer and decode state for one session. It
// reads fixed-size blocks, extracts complete records, feeds the assembler,
// and resolves every sealed chunk before the next block is read. There is no
// pipelining: chunk k+1 is never started before chunk k resolves.
type streamDriver struct {
	src     io.Reader
	asm     *chunkAssembler
	onChunk func(*chunk) error

	buf   string // decoded text not yet resolved into complete records
	carry []byte // trailing bytes of a rune split across block reads
}

func newStreamDriver(src io.Reader, chunkSize int, onChunk func(*chunk) error) *streamDriver {
	return &streamDriver{src: src, asm: newChunkAssembler(chunkSize), onChunk: onChunk}
}

// run drains the stream to EOF and returns the number of chunks emitted.
// halt is consulted before every read and before every dispatch; a non-nil
// result stops the loop without touching the in-flight state.
func (d *streamDriver) run(halt func() error) (int, error) {
	block := make([]byte, readBlockSize)
	emitted := 0

	dispatch := func(c *chunk) error {
		if err := halt(); err != nil {
			return err
		}
		if err := d.onChunk(c); err != nil {
			return err
		}
		emitted++
		return nil
	}

	feed := func(records []string) error {
		for _, rec := range records {
			if c := d.asm.add(rec); c != nil {
				if err := dispatch(c); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for {
		if err := halt(); err != nil {
			return emitted, err
		}
		n, err := d.src.Read(block)
		if n > 0 {
			d.buf += d.decode(block[:n])
			records, remainder := extractRecords(d.buf)
			d.buf = remainder
			if err := feed(records); err != nil {
				return emitted, err
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return emitted, fmt.Errorf("read stream: %w", err)
		}
	}

	// End of stream: release any carried bytes, extract one last time, and
	// flush the trailing chunk. A record left unterminated here is dropped.
	if len(d.carry) > 0 {
		d.buf += string(d.carry)
		d.carry = nil
	}
	records, remainder := extractRecords(d.buf)
	d.buf = remainder
	if err := feed(records); err != nil {
		return emitted, err
	}
	if c := d.asm.flush(); c != nil {
		if err := dispatch(c); err != nil {
			return emitted, err
		}
	}
	return emitted, nil
}

// decode joins block with any bytes carried from the previous read and
// returns the longest prefix ending on a rune boundary. The incomplete tail
// of a rune split across blocks is carried to the next call, so the text
// buffer only ever holds whole runes.
func (d *streamDriver) decode(block []byte) string {
	data := block
	if len(d.carry) > 0 {
		data = append(d.carry, block...)
		d.carry = nil
	}

	cut := len(data)
	for back := 1; back <= utf8.UTFMax && back <= len(data); back++ {
		b := data[len(data)-back]
		if utf8.RuneStart(b) {
			if !utf8.FullRune(data[len(data)-back:]) {
				cut = len(data) - back
			}
			break
		}
	}
	if cut < len(data) {
		// Copy: data may alias the read block, which is reused.
		d.carry = append([]byte(nil), data[cut:]...)
	}
	return string(data[:cut])
}
