package utils

import (
	"sync"

	"github.com/valyala/bytebufferpool"
)

// BufferPool hands out reusable byte buffers for prompt rendering.
// bytebufferpool calibrates its default buffer size from observed usage,
// which suits prompts that stay within a narrow size band.
type BufferPool struct {
	pool *bytebufferpool.Pool
}

var (
	globalPool     *BufferPool
	globalPoolOnce sync.Once
)

// NewBufferPool creates a new buffer pool
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: &bytebufferpool.Pool{},
	}
}

// Get retrieves a buffer from the pool
func (bp *BufferPool) Get() *bytebufferpool.ByteBuffer {
	return bp.pool.Get()
}

// Put returns a buffer to the pool
func (bp *BufferPool) Put(buf *bytebufferpool.ByteBuffer) {
	bp.pool.Put(buf)
}

// Render runs fn against a pooled buffer and returns a copy of what it wrote.
func (bp *BufferPool) Render(fn func(buf *bytebufferpool.ByteBuffer) error) (string, error) {
	buf := bp.Get()
	defer bp.Put(buf)

	if err := fn(buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Global returns the process-wide buffer pool
func Global() *BufferPool {
	globalPoolOnce.Do(func() {
		globalPool = NewBufferPool()
	})
	return globalPool
}
