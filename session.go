package traveltime

import (
	"fmt"
	"sync"
)

// Session pairs a model's immutable reference tables with the volatile
// state for one source depth, and serves queries against it (spec.md 3,
// 4.H, 4.L). A Session is not safe for concurrent use; the Pool hands out
// one per caller and reclaims it afterwards.
type Session struct {
	ref *AllBrnRef
	vol *AllBrnVol
}

// newSession builds the volatile depth-corrected state for a session,
// per spec.md 4.H. A depth outside [0, 800] sets badDepth rather than
// failing outright (spec.md 7: "fatal for the session").
func newSession(ref *AllBrnRef, depthKm float64) *Session {
	return &Session{ref: ref, vol: NewDepthCorrection(ref, depthKm)}
}

// getTT runs the full arrival pipeline for one query against this
// session's depth-corrected state (spec.md 4.I). Returns an empty list,
// never an error, if the session's depth was out of range — per spec.md 7,
// query-time failures shape the result, they never abort it.
func (s *Session) getTT(req QueryRequest) []TTime {
	if s.vol.BadDepth {
		return nil
	}
	return GenerateArrivals(s.vol, req)
}

// reset rebinds this session to a new source depth in place, letting the
// Pool recycle sessions across requests against the same model. The
// depth-corrected state is kept when the depth is unchanged and rebuilt
// by NewDepthCorrection otherwise.
func (s *Session) reset(depthKm float64) {
	if s.vol != nil && s.vol.DepthKm == depthKm {
		return
	}
	s.vol = NewDepthCorrection(s.ref, depthKm)
}

// Engine ties a Registry to session lifecycle: Query opens a session for
// one model+depth, runs the query, and returns the session to its pool.
type Engine struct {
	reg   *Registry
	mu    sync.Mutex
	pools map[string]*SessionPool
}

func NewEngine(reg *Registry) *Engine {
	return &Engine{reg: reg, pools: make(map[string]*SessionPool)}
}

// Query is the single-shot entry point: look up (or build) the model,
// borrow a session at the requested depth, run the query, return the
// session to its pool.
func (e *Engine) Query(modelName string, req QueryRequest) ([]TTime, error) {
	ref, err := e.reg.Get(modelName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, err)
	}
	pool := e.poolFor(modelName, ref)
	sess := pool.Borrow(req.DepthKm)
	defer pool.Return(sess)
	return sess.getTT(req), nil
}

// BatchQuery runs a batch of requests against one model on the Registry's
// shared worker pool.
func (e *Engine) BatchQuery(modelName string, reqs []QueryRequest) ([][]TTime, error) {
	ref, err := e.reg.Get(modelName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, err)
	}
	pool := e.poolFor(modelName, ref)
	return BatchQuery(e.reg.Workers(), pool, reqs), nil
}

func (e *Engine) poolFor(modelName string, ref *AllBrnRef) *SessionPool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pools[modelName]; ok {
		return p
	}
	p := NewSessionPool(ref)
	e.pools[modelName] = p
	return p
}
