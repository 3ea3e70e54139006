package traveltime

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/alitto/pond"

	"github.com/usgs/neic-traveltime-sub004/decode"
)

// EngineConfig is the process-wide configuration a Registry is built from:
// where to find radial models and the shared auxiliary data files
// (spec.md 9 — replaces the teacher's module-level global state with an
// explicit struct).
type EngineConfig struct {
	ModelPath   string            `yaml:"modelPath"`
	ModelFiles  map[string]string `yaml:"models"`
	GroupsFile  string            `yaml:"groupsFile"`
	StatsFile   string            `yaml:"statsFile"`
	EllipFile   string            `yaml:"ellipFile"`
	TopoFile    string            `yaml:"topoFile"`
	CacheDir    string            `yaml:"cacheDir"`
	WorkerCount int               `yaml:"workers"`
}

// Registry owns the process-wide model cache behind a read/write lock and
// the shared, immutable auxiliary data loaded once at startup
// (spec.md 4.L, 9).
type Registry struct {
	cfg  EngineConfig
	aux  *AuxData
	pool *pond.WorkerPool

	mu   sync.RWMutex
	refs map[string]*AllBrnRef
}

// NewRegistry constructs a Registry and loads the shared auxiliary data
// (phase groups, statistics, ellipticity tables, topography) eagerly, since
// every model build needs them.
func NewRegistry(cfg EngineConfig) (*Registry, error) {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	aux, err := loadAuxData(cfg)
	if err != nil {
		return nil, err
	}
	return &Registry{
		cfg:  cfg,
		aux:  aux,
		pool: pond.New(cfg.WorkerCount, 0, pond.MinWorkers(cfg.WorkerCount)),
		refs: make(map[string]*AllBrnRef),
	}, nil
}

// Close releases the worker pool. Safe to call once, at process shutdown.
func (r *Registry) Close() {
	r.pool.StopAndWait()
}

// Workers exposes the Registry's bounded worker pool for callers that want
// to run batch queries on the same budget as model warm-up (spec.md 5).
func (r *Registry) Workers() *pond.WorkerPool {
	return r.pool
}

// Warm builds (or reuses) the reference tables for each named model
// concurrently, bounded by the Registry's worker pool, so a caller can
// preload every model it expects to serve before accepting queries.
func (r *Registry) Warm(names ...string) error {
	var wg sync.WaitGroup
	errs := make([]error, len(names))
	for i, name := range names {
		i, name := i, name
		wg.Add(1)
		r.pool.Submit(func() {
			defer wg.Done()
			if _, err := r.Get(name); err != nil {
				errs[i] = err
			}
		})
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Get returns the cached reference tables for a model, building them on
// first use.
func (r *Registry) Get(name string) (*AllBrnRef, error) {
	r.mu.RLock()
	ref, ok := r.refs[name]
	r.mu.RUnlock()
	if ok {
		return ref, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.refs[name]; ok {
		return ref, nil
	}

	path, ok := r.cfg.ModelFiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	ref, err := buildAllBrnRef(name, path, r.aux, r.cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	r.refs[name] = ref
	return ref, nil
}

// buildAllBrnRef runs the full per-model pipeline once: read the text
// model, flatten it, sample both wave types adaptively, merge the grids,
// integrate tau/x, and assemble the standard branch set (spec.md 4.A-4.E).
func buildAllBrnRef(name, path string, aux *AuxData, cacheDir string) (*AllBrnRef, error) {
	src, err := decode.OpenSource(path, "", true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelRead, err)
	}
	defer src.Close()

	hdr, rows, err := decode.ReadModel(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelRead, err)
	}

	rawRows := make([]RawModelRow, len(rows))
	for i, row := range rows {
		rawRows[i] = RawModelRow{
			R: row.R, Rho: row.Rho, Vpv: row.Vpv, Vph: row.Vph,
			Vsv: row.Vsv, Vsh: row.Vsh, Eta: row.Eta, QMu: row.QMu, QKappa: row.QKappa,
		}
	}
	model, err := NewRadialModel(hdr.Name, rawRows, hdr.RUpperMantle, hdr.RMoho, hdr.RConrad)
	if err != nil {
		return nil, err
	}

	pCrit := ComputeCriticalSlownesses(model, WaveP)
	sCrit := ComputeCriticalSlownesses(model, WaveS)
	allCrit := append(append([]CriticalSlowness(nil), pCrit...), sCrit...)

	pSamples := SampleWaveType(model, WaveP, pCrit)
	sSamples := SampleWaveType(model, WaveS, sCrit)
	merged := MergeSlownessLists(pSamples, sSamples, allCrit)

	imP := Integrate(model, WaveP, merged)
	imS := Integrate(model, WaveS, merged)

	pCMB := shellBoundarySlowness(model, WaveP, CoreMantleBoundary)
	pICB := shellBoundarySlowness(model, WaveP, InnerCoreBoundary)

	cacheURI, hash := branchCacheLocation(cacheDir, name, len(merged))
	if branches := tryLoadBranchCache(cacheURI, hash); branches != nil {
		return &AllBrnRef{
			Model: model, IntegratedP: imP, IntegratedS: imS,
			Branches: branches, PCMB: pCMB, PICB: pICB, Aux: aux,
		}, nil
	}

	var branches []*Branch
	for _, spec := range StandardBranchSpecs() {
		if br := BuildBranch(spec, imP, imS, pCMB, pICB); br != nil {
			branches = append(branches, br)
		}
	}

	saveBranchCache(cacheURI, hash, branches)

	return &AllBrnRef{
		Model: model, IntegratedP: imP, IntegratedS: imS,
		Branches: branches, PCMB: pCMB, PICB: pICB, Aux: aux,
	}, nil
}

// branchCacheLocation derives the cache array URI and content hash for a
// model from the registry's configured cache directory; cacheDir == ""
// disables the cache (branchCacheLocation returns an empty uri and every
// caller treats an empty uri as "skip").
func branchCacheLocation(cacheDir, name string, sampleCount int) (uri, hash string) {
	if cacheDir == "" {
		return "", ""
	}
	return filepath.Join(cacheDir, name+".brn.tdb"), ContentHash(name, sampleCount)
}

// tryLoadBranchCache opens and validates a branch-table cache, returning
// nil (not an error) on any miss so the caller always falls back to a full
// rebuild from the text model (spec.md 9's serialisation fast-path is
// strictly an optimisation, never a second source of truth).
func tryLoadBranchCache(uri, hash string) []*Branch {
	if uri == "" {
		return nil
	}
	ctx, err := newCacheContext()
	if err != nil {
		return nil
	}
	defer ctx.Free()
	w := NewBranchCacheWriter(ctx)
	array, err := w.Open(uri, hash)
	if err != nil {
		return nil
	}
	branches, err := w.ReadBranches(array)
	if err != nil || len(branches) == 0 {
		return nil
	}
	return branches
}

// saveBranchCache persists a freshly built branch table so the next Get on
// this model can skip straight to tryLoadBranchCache. Best-effort: a
// failure to write the cache never fails model construction, since the
// text model remains the canonical source.
func saveBranchCache(uri, hash string, branches []*Branch) {
	if uri == "" || len(branches) == 0 {
		return
	}
	ctx, err := newCacheContext()
	if err != nil {
		return
	}
	defer ctx.Free()
	w := NewBranchCacheWriter(ctx)
	_ = w.Write(uri, hash, branches)
}

// shellBoundarySlowness returns slow(r) for a wave type at the radius of a
// named discontinuity, used as the pCMB/pICB bounds the branch builder
// needs (spec.md 4.E).
func shellBoundarySlowness(m *RadialModel, wave WaveType, name ShellName) float64 {
	for _, sh := range m.Shells {
		if sh.IsDisc && sh.Name == name {
			return slownessAtRadius(m, wave, sh.RBot)
		}
	}
	return 0
}

// loadAuxData reads the shared phase-group, statistics, ellipticity and
// topography files once, per spec.md 4.J.
func loadAuxData(cfg EngineConfig) (*AuxData, error) {
	aux := &AuxData{}

	if cfg.GroupsFile != "" {
		groups, err := readGroupsFile(cfg.GroupsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrGroupsRead, err)
		}
		aux.Groups = groups
	}
	if cfg.StatsFile != "" {
		stats, err := readStatsFile(cfg.StatsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTtStatsRead, err)
		}
		aux.Stats = stats
	}
	if cfg.EllipFile != "" {
		ellip, err := readEllipFile(cfg.EllipFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrEllipRead, err)
		}
		aux.Ellip = ellip
	}
	if cfg.TopoFile != "" && aux.Ellip != nil {
		topo, err := readTopoFile(cfg.TopoFile, aux.Ellip)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTopoRead, err)
		}
		aux.Topo = topo
	}
	return aux, nil
}
