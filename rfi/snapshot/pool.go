package snapshot

import (
	"sync"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// gridPool reuses snapshot storage between chunks.
type gridPool struct {
	pool sync.Pool
}

func newGridPool() *gridPool {
	return &gridPool{
		pool: sync.Pool{
			New: func() any {
				return new([]float64)
			},
		},
	}
}

// clone returns a compact copy of g backed by pooled storage.
func (p *gridPool) clone(g core.Grid) core.Grid {
	buf := p.pool.Get().(*[]float64)
	*buf = core.EnsureLen(*buf, g.Nfreq*g.Nt)
	out := core.Grid{Nfreq: g.Nfreq, Nt: g.Nt, Stride: g.Nt, Data: *buf}
	out.CopyFrom(g)
	return out
}

// put returns the storage of a grid obtained from clone.
func (p *gridPool) put(g core.Grid) {
	if g.Data == nil {
		return
	}
	buf := g.Data[:0]
	p.pool.Put(&buf)
}
