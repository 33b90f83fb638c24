package fetch

import (
	"bytes"
	"io"
	"sync"

	"github.com/pkg/errors"

	"imgbench/model"
)

var errPayloadClosed = errors.Wrap(model.ErrIO, "payload closed")

// Payload is the materialized result of a fetch: readable once in order,
// released by Close.
type Payload interface {
	io.Reader
	// Len is the number of bytes the payload holds in total.
	Len() int
	Close() error
}

// Buffered is implemented by payloads that already hold all their bytes.
type Buffered interface {
	Bytes() []byte
}

// Result carries exactly one of Payload and Err.
type Result struct {
	Payload Payload
	Err     error
}

type streamPayload struct {
	mu     sync.Mutex
	r      *bytes.Reader
	size   int
	closed bool
}

func newStreamPayload(data []byte) *streamPayload {
	return &streamPayload{r: bytes.NewReader(data), size: len(data)}
}

func (p *streamPayload) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errPayloadClosed
	}

	return p.r.Read(b)
}

func (p *streamPayload) Len() int { return p.size }

func (p *streamPayload) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.r = nil

	return nil
}

// slicePayload backs both the copied buffer and the zero-copy view.
type slicePayload struct {
	mu     sync.Mutex
	data   []byte
	off    int
	size   int
	closed bool
}

func newSlicePayload(data []byte) *slicePayload {
	return &slicePayload{data: data, size: len(data)}
}

func (p *slicePayload) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errPayloadClosed
	}

	if p.off >= len(p.data) {
		return 0, io.EOF
	}

	n := copy(b, p.data[p.off:])
	p.off += n

	return n, nil
}

// Bytes returns the whole slice regardless of how much was read.
func (p *slicePayload) Bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.data
}

func (p *slicePayload) Len() int { return p.size }

// Close drops the reference so the buffer can be reclaimed.
func (p *slicePayload) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.data = nil

	return nil
}
