package output

import "sync"

// bufferPool recycles the per-record float32 slices of one file.
type bufferPool struct {
	pool sync.Pool
	size int
}

func newBufferPool(size int) *bufferPool {
	return &bufferPool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]float32, size)
			},
		},
	}
}

func (p *bufferPool) Get() []float32 {
	return p.pool.Get().([]float32)
}

func (p *bufferPool) Put(b []float32) {
	if len(b) == p.size {
		for i := range b {
			b[i] = 0
		}
		p.pool.Put(b)
	}
}
