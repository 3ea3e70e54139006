package traveltime

import (
	"sync"

	"github.com/alitto/pond"
)

// SessionPool recycles Sessions for one model's reference tables: a
// borrowed Session is rebound to the requested depth rather than
// reallocated, amortising the branch-shortening work of NewDepthCorrection
// across repeated queries at commonly-requested depths (spec.md 4.L, 5).
type SessionPool struct {
	ref *AllBrnRef

	mu   sync.Mutex
	free []*Session
}

func NewSessionPool(ref *AllBrnRef) *SessionPool {
	return &SessionPool{ref: ref}
}

// Borrow returns a Session bound to depthKm, reusing a free Session from
// the pool if one is available.
func (p *SessionPool) Borrow(depthKm float64) *Session {
	p.mu.Lock()
	n := len(p.free)
	if n > 0 {
		sess := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		sess.reset(depthKm)
		return sess
	}
	p.mu.Unlock()
	return newSession(p.ref, depthKm)
}

// Return releases a Session back to the pool for reuse.
func (p *SessionPool) Return(sess *Session) {
	if sess == nil {
		return
	}
	p.mu.Lock()
	p.free = append(p.free, sess)
	p.mu.Unlock()
}

// BatchQuery runs a slice of requests against a model concurrently,
// bounded by workers (an alitto/pond worker pool shared with model
// building, per spec.md 5's fixed-size worker budget), returning results
// in the same order as the requests.
func BatchQuery(workers *pond.WorkerPool, pool *SessionPool, reqs []QueryRequest) [][]TTime {
	out := make([][]TTime, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		i, req := i, req
		wg.Add(1)
		workers.Submit(func() {
			defer wg.Done()
			sess := pool.Borrow(req.DepthKm)
			defer pool.Return(sess)
			out[i] = sess.getTT(req)
		})
	}
	wg.Wait()
	return out
}
