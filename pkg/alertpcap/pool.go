package alertpcap

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Initial capacity of a pooled payload slice
var initialPayloadSize = unix.Getpagesize()

// memPool wraps a standard sync.Pool for backlog payload slices to minimize
// allocations on the (hot) backlog append path
type memPool struct {
	sync.Pool
}

func newMemPool() *memPool {
	return &memPool{
		Pool: sync.Pool{
			New: func() any {
				return make([]byte, 0, initialPayloadSize)
			},
		},
	}
}

// Get retrieves a payload slice of the requested length (already performing
// the type assertion)
func (p *memPool) Get(size int) []byte {
	elem := p.Pool.Get().([]byte)
	if cap(elem) < size {
		elem = make([]byte, 0, size)
	}
	return elem[:size]
}

// Put returns a payload slice to the pool
func (p *memPool) Put(elem []byte) {
	if elem == nil {
		return
	}

	// nolint:staticcheck
	p.Pool.Put(elem[:0])
}
