package relay

import "sync"

// DefaultBufferSize is the default replay capacity in bytes.
const DefaultBufferSize = 10000

// ReplayBuffer keeps the most recent bytes of output for catching up
// clients that connect mid-stream. When a write pushes it over capacity
// exactly the excess is dropped from the front.
//
// All methods are safe for concurrent use.
type ReplayBuffer struct {
	mu       sync.RWMutex
	data     []byte
	capacity int
}

// NewReplayBuffer creates a buffer holding at most capacity bytes.
// Non-positive capacities fall back to DefaultBufferSize.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &ReplayBuffer{
		data:     make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Write appends p, discarding the oldest bytes beyond capacity.
func (b *ReplayBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if n >= b.capacity {
		b.data = append(b.data[:0], p[n-b.capacity:]...)
		return n, nil
	}

	if excess := len(b.data) + n - b.capacity; excess > 0 {
		kept := copy(b.data, b.data[excess:])
		b.data = b.data[:kept]
	}
	b.data = append(b.data, p...)
	return n, nil
}

// Bytes returns a copy of the buffered contents.
func (b *ReplayBuffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.data) == 0 {
		return nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Len returns the number of buffered bytes.
func (b *ReplayBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Cap returns the configured capacity.
func (b *ReplayBuffer) Cap() int {
	return b.capacity
}

// Reset discards all buffered bytes.
func (b *ReplayBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = b.data[:0]
}
