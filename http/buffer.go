package http

// Buffer is the caller-owned storage a response is received and parsed
// into. All views exposed by a Response alias this storage directly; the
// engine never copies response bytes anywhere else.
//
// A Buffer carries a generation counter. Every request that borrows the
// Buffer bumps the generation, which invalidates any Response still
// holding views into it: accessing a stale Response fails its assertion
// rather than silently reading repurposed bytes. At most one call may
// borrow a Buffer at a time.
type Buffer struct {
	data []byte
	gen  uint64
}

// NewBuffer allocates a response buffer with the given capacity. The
// capacity bounds the largest response (headers plus body) the buffer can
// receive; a larger response fails with KindBufferOverflow.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// WrapBuffer wraps caller-provided storage, e.g. a stack or pool-backed
// array, without allocating.
func WrapBuffer(p []byte) *Buffer {
	return &Buffer{data: p}
}

// Cap returns the buffer capacity in bytes.
func (b *Buffer) Cap() int { return len(b.data) }

// Generation returns the current generation counter. It advances each time
// a request borrows the buffer.
func (b *Buffer) Generation() uint64 { return b.gen }

// borrow hands the storage to a new call, invalidating views of all
// previous generations.
func (b *Buffer) borrow() ([]byte, uint64) {
	b.gen++
	return b.data, b.gen
}
