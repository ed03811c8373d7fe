// Package framing turns a raw byte stream into CR/LF delimited lines without
// copying line bodies.
//
// A Buffer of capacity C is backed by a 2C byte region. Unread input lives in
// [start, end) with end-start <= C. Before each receive, if start has moved past
// the half-point the unread tail is copied back to offset 0, so the free space
// after end is always contiguous and any line of up to C bytes can be handed
// out as a single slice. C is therefore the hard upper bound on line length:
// a full buffer with no terminator is reported as ErrBufferFull.
package framing

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// MinCapacity is the smallest accepted capacity (RFC 2812 allows 512 byte lines).
const MinCapacity = 512

var (
	ErrBadCapacity = errors.New("framing: capacity must be a power of two >= 512")
	ErrBufferFull  = errors.New("framing: line longer than read buffer")
	ErrEmptyLine   = errors.New("framing: empty line")
	ErrNullByte    = errors.New("framing: line contains null byte")
)

// NullByteError reports a skipped line that contained a NUL byte.
type NullByteError struct {
	Line []byte
}

func (e *NullByteError) Error() string {
	return fmt.Sprintf("framing: ignoring line containing null bytes: %q", e.Line)
}

func (e *NullByteError) Unwrap() error { return ErrNullByte }

// Stats counts what the buffer has seen since creation.
type Stats struct {
	BytesReceived uint64
	Lines         uint64
	EmptyLines    uint64
	NullByteLines uint64
}

// Buffer is a bounded line framer. It is not safe for concurrent use; callers
// hand it between goroutines explicitly.
type Buffer struct {
	buf   []byte
	size  int
	start int
	end   int
	stats Stats
}

// DefaultCapacity returns the VM page size, or MinCapacity if the page size is
// unusable.
func DefaultCapacity() int {
	ps := os.Getpagesize()
	if ps < MinCapacity || ps&(ps-1) != 0 {
		return MinCapacity
	}
	return ps
}

// New allocates a buffer able to hold lines of up to capacity bytes.
func New(capacity int) (*Buffer, error) {
	if capacity < MinCapacity || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrBadCapacity, capacity)
	}
	return &Buffer{
		buf:  make([]byte, 2*capacity),
		size: capacity,
	}, nil
}

// Capacity is the maximum line length in bytes, terminator included.
func (b *Buffer) Capacity() int { return b.size }

// Buffered is the number of unread bytes.
func (b *Buffer) Buffered() int { return b.end - b.start }

func (b *Buffer) Stats() Stats { return b.stats }

// Reset drops all unread input.
func (b *Buffer) Reset() {
	b.start, b.end = 0, 0
}

// compact keeps [end, start+size) inside the region. It moves bytes, so it must
// only run while no line slice is in use.
func (b *Buffer) compact() {
	if b.start == b.end {
		b.start, b.end = 0, 0
		return
	}
	if b.start > b.size {
		n := copy(b.buf, b.buf[b.start:b.end])
		b.start, b.end = 0, n
	}
}

// Fill performs a single Read into the free space after the unread input.
//
// open is false when the peer closed the connection or the read failed; err
// carries the failure (nil for an orderly close). ErrBufferFull is returned
// when the buffer already holds capacity bytes without a terminator, which
// means no progress is possible.
//
// Slices returned by Next are invalid once Fill is called.
func (b *Buffer) Fill(r io.Reader) (open bool, err error) {
	if b.end-b.start == b.size {
		return false, fmt.Errorf("%w (the read buffer holds %d bytes)", ErrBufferFull, b.size)
	}
	b.compact()

	for {
		n, err := r.Read(b.buf[b.end : b.start+b.size])
		if n > 0 {
			b.end += n
			b.stats.BytesReceived += uint64(n)
			return true, nil
		}
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, syscall.EINTR):
			continue
		case errors.Is(err, io.EOF):
			return false, nil
		default:
			return false, err
		}
	}
}

// Next returns the next complete line without its terminator.
//
// It returns (nil, nil) when no terminator has been received yet. Empty lines
// and lines containing NUL bytes are consumed and reported as ErrEmptyLine or
// a *NullByteError respectively; the caller should skip them and call Next
// again. The returned slice aliases the buffer and is valid until the next
// Fill.
func (b *Buffer) Next() ([]byte, error) {
	hasNull := false
	for cur := b.start; cur < b.end; cur++ {
		switch b.buf[cur] {
		case '\r', '\n':
			line := b.buf[b.start:cur:cur]
			b.start = cur + 1

			if hasNull {
				b.stats.NullByteLines++
				return nil, &NullByteError{Line: line}
			}
			if len(line) == 0 {
				b.stats.EmptyLines++
				return nil, ErrEmptyLine
			}
			b.stats.Lines++
			return line, nil
		case 0:
			hasNull = true
		}
	}
	return nil, nil
}
