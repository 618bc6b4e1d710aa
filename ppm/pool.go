package ppm

import (
	"sync"
	"sync/atomic"
)

// MemoryLimitExceededError reports a pixel buffer that the pool refused to
// hand out, either because it would push the bytes held by live images past
// the limit or because the requested size is negative.
type MemoryLimitExceededError struct {
	Requested int64
	Current   int64
	Limit     int64
}

func (e *MemoryLimitExceededError) Error() string {
	return "ppm: memory limit exceeded"
}

// BufferPool hands out zeroed pixel buffers and recycles them after
// Image.Release. It supports a configurable memory limit so that a header
// declaring huge dimensions fails before any pixel is read.
type BufferPool struct {
	pools       []*sync.Pool
	memoryUsed  int64 // atomic: bytes currently handed out
	memoryLimit int64 // atomic: maximum bytes (0 = unlimited)
	allocCount  int64 // atomic
	hitCount    int64 // atomic
	missCount   int64 // atomic
}

// bufferSizes are the discrete capacities of pooled buffers. Larger buffers
// are allocated directly and left to the garbage collector on Put.
var bufferSizes = []int{
	4 << 10,   // 4 KB
	64 << 10,  // 64 KB
	256 << 10, // 256 KB
	1 << 20,   // 1 MB
	4 << 20,   // 4 MB
	16 << 20,  // 16 MB
}

var globalBufferPool = NewBufferPool()

// NewBufferPool returns a pool that hands out pixel buffers of any size.
func NewBufferPool() *BufferPool {
	return NewBufferPoolWithLimit(0)
}

// NewBufferPoolWithLimit returns a pool that refuses pixel buffers once the
// images holding them would exceed limit bytes. 0 disables the check.
func NewBufferPoolWithLimit(limit int64) *BufferPool {
	p := &BufferPool{
		pools:       make([]*sync.Pool, len(bufferSizes)),
		memoryLimit: limit,
	}
	for i, size := range bufferSizes {
		p.pools[i] = &sync.Pool{
			New: func() any {
				return make([]byte, size)
			},
		}
	}
	return p
}

// SetMemoryLimit changes the byte budget for live pixel buffers and returns
// the old one. Buffers already handed out are not affected.
func (p *BufferPool) SetMemoryLimit(limit int64) int64 {
	return atomic.SwapInt64(&p.memoryLimit, limit)
}

// MemoryLimit returns the byte budget for live pixel buffers, or 0.
func (p *BufferPool) MemoryLimit() int64 {
	return atomic.LoadInt64(&p.memoryLimit)
}

// MemoryUsed returns the bytes held by images not yet released.
func (p *BufferPool) MemoryUsed() int64 {
	return atomic.LoadInt64(&p.memoryUsed)
}

// Stats counts buffer requests, requests served from a size class, and
// requests too large for any class.
func (p *BufferPool) Stats() (allocs, hits, misses int64) {
	return atomic.LoadInt64(&p.allocCount),
		atomic.LoadInt64(&p.hitCount),
		atomic.LoadInt64(&p.missCount)
}

// poolIndex returns the smallest size class holding size bytes, or -1.
func poolIndex(size int) int {
	for i, s := range bufferSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// reserve accounts for n bytes, failing if the limit would be exceeded.
func (p *BufferPool) reserve(n int64) bool {
	for {
		current := atomic.LoadInt64(&p.memoryUsed)
		limit := atomic.LoadInt64(&p.memoryLimit)
		if limit > 0 && current+n > limit {
			return false
		}
		if atomic.CompareAndSwapInt64(&p.memoryUsed, current, current+n) {
			return true
		}
	}
}

// Get returns a zeroed buffer of exactly size bytes, or nil if size is
// negative or the buffer would exceed the memory limit.
func (p *BufferPool) Get(size int) []byte {
	if size < 0 {
		return nil
	}
	atomic.AddInt64(&p.allocCount, 1)

	idx := poolIndex(size)
	if idx < 0 {
		if !p.reserve(int64(size)) {
			return nil
		}
		atomic.AddInt64(&p.missCount, 1)
		return make([]byte, size)
	}

	if !p.reserve(int64(bufferSizes[idx])) {
		return nil
	}
	buf := p.pools[idx].Get().([]byte)
	atomic.AddInt64(&p.hitCount, 1)
	buf = buf[:size]
	clear(buf)
	return buf
}

// GetWithError is Get with the refusal reported as a MemoryLimitExceededError.
func (p *BufferPool) GetWithError(size int) ([]byte, error) {
	buf := p.Get(size)
	if buf == nil {
		return nil, &MemoryLimitExceededError{
			Requested: int64(size),
			Current:   atomic.LoadInt64(&p.memoryUsed),
			Limit:     atomic.LoadInt64(&p.memoryLimit),
		}
	}
	return buf, nil
}

// Put takes back a pixel buffer from Get. Class-sized buffers are recycled;
// larger ones are only released from the memory accounting.
func (p *BufferPool) Put(buf []byte) {
	if buf == nil {
		return
	}
	bufCap := cap(buf)
	idx := poolIndex(bufCap)
	if idx >= 0 && bufCap == bufferSizes[idx] {
		atomic.AddInt64(&p.memoryUsed, -int64(bufCap))
		p.pools[idx].Put(buf[:bufCap])
		return
	}
	// Directly allocated; accounted at its requested length.
	atomic.AddInt64(&p.memoryUsed, -int64(len(buf)))
}

// SetGlobalMemoryLimit bounds the pixel memory of images created by Decode
// and NewImage and returns the old bound. 0 removes the bound.
func SetGlobalMemoryLimit(limit int64) int64 {
	return globalBufferPool.SetMemoryLimit(limit)
}

// GlobalMemoryUsed returns the bytes held by unreleased images.
func GlobalMemoryUsed() int64 {
	return globalBufferPool.MemoryUsed()
}

// GlobalPoolStats returns the counters of the pool behind Decode and NewImage.
func GlobalPoolStats() (allocs, hits, misses int64) {
	return globalBufferPool.Stats()
}
