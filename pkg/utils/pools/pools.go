// Package pools recycles scratch buffers between requests.
package pools

import "sync"

// Float64SlicePool is a pool of float64 slices with a minimum capacity
type Float64SlicePool struct {
	pool sync.Pool
	size int
}

// NewFloat64SlicePool creates a new Float64SlicePool
func NewFloat64SlicePool(size int) *Float64SlicePool {
	return &Float64SlicePool{
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, size)
				return &s
			},
		},
		size: size,
	}
}

// Get retrieves an empty float64 slice from the pool
func (p *Float64SlicePool) Get() []float64 {
	return (*p.pool.Get().(*[]float64))[:0]
}

// Put returns a float64 slice to the pool. Slices smaller than the pool
// size are left to the GC.
func (p *Float64SlicePool) Put(f []float64) {
	if cap(f) >= p.size {
		f = f[:0]
		p.pool.Put(&f)
	}
}
