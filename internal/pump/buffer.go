// Package pump holds the plumbing shared by the device transports: a bounded
// receive buffer, the goroutine that fills it, a modem-signal poller and the
// event channel that feeds a link.
package pump

import (
	"errors"
	"sync"
)

// ErrClosed is returned by PutWait once the buffer has been closed.
var ErrClosed = errors.New("pump: buffer closed")

// Buffer is a bounded FIFO of received bytes. A capacity of zero or less
// means unbounded.
type Buffer struct {
	mu       sync.Mutex
	space    *sync.Cond
	data     []byte
	capacity int
	closed   bool
}

// NewBuffer returns an empty buffer holding at most capacity bytes.
func NewBuffer(capacity int) *Buffer {
	b := &Buffer{capacity: capacity}
	b.space = sync.NewCond(&b.mu)
	return b
}

func (b *Buffer) free() int {
	if b.capacity <= 0 {
		return int(^uint(0) >> 1)
	}
	return max(b.capacity-len(b.data), 0)
}

// Put appends as much of p as fits and returns the number of bytes taken.
func (b *Buffer) Put(p []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}
	n := min(len(p), b.free())
	b.data = append(b.data, p[:n]...)
	return n
}

// PutWait appends all of p, waiting for Take to make room when the buffer is
// full. It returns ErrClosed if the buffer is closed first.
func (b *Buffer) PutWait(p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(p) > 0 {
		if b.closed {
			return ErrClosed
		}
		n := min(len(p), b.free())
		if n == 0 {
			b.space.Wait()
			continue
		}
		b.data = append(b.data, p[:n]...)
		p = p[n:]
	}
	return nil
}

// Take removes and returns up to max bytes. A negative max takes everything.
func (b *Buffer) Take(max int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if max < 0 || max > len(b.data) {
		max = len(b.data)
	}
	if max == 0 {
		return nil
	}
	out := make([]byte, max)
	copy(out, b.data)
	b.data = b.data[:copy(b.data, b.data[max:])]
	b.space.Broadcast()
	return out
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Clear drops every buffered byte.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = b.data[:0]
	b.space.Broadcast()
}

// SetCapacity changes the bound. Bytes already buffered beyond the new bound
// are kept until taken.
func (b *Buffer) SetCapacity(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.capacity = n
	b.space.Broadcast()
}

// Capacity returns the current bound.
func (b *Buffer) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// Close wakes every waiting PutWait and rejects further input.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.space.Broadcast()
}

// Reopen clears the buffer and accepts input again.
func (b *Buffer) Reopen() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = false
	b.data = b.data[:0]
}
