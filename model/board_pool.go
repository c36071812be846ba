package model

import "sync"

// BoardToPool returns a board to the pool for reuse. A nil pool or board is
// ignored so callers need not check whether pooling is enabled.
func BoardToPool(board *Board, pool *BoardPool) {
	if pool == nil || board == nil {
		return
	}

	pool.Put(board)
}

// BoardPool recycles the previous generation's board as the storage for the
// next one
type BoardPool struct {
	pool sync.Pool
}

func NewBoardPool() *BoardPool {
	return &BoardPool{
		pool: sync.Pool{
			New: func() interface{} {
				return &Board{}
			},
		},
	}
}

// Get retrieves an all-dead board with the same dimensions as like. The
// returned board never shares cells with like.
func (p *BoardPool) Get(like *Board) *Board {
	b := p.pool.Get().(*Board)
	if b == like {
		// like was handed back while still in use; never alias it
		b = &Board{}
	}
	b.Reset(like.width, like.height)
	return b
}

// Put hands a board back to the pool. The caller must not use it afterwards.
func (p *BoardPool) Put(b *Board) {
	p.pool.Put(b)
}
