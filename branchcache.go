package traveltime

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// Serialisation fast-path (spec.md 9): the canonical input is always the
// radial text model; a TileDB-backed branch-table cache is purely an
// optimisation, versioned and validated against a content hash of the
// source model plus the table-generation constants so a stale cache is
// never silently trusted.
const branchCacheSchemaVersion = "v1"

// ContentHash fingerprints the inputs that determine a model's branch
// table: the model name, sample count and the sampler tolerances, so a
// change to any of them invalidates the cache (spec.md 9).
func ContentHash(modelName string, sampleCount int) string {
	h := sha256.New()
	h.Write([]byte(branchCacheSchemaVersion))
	h.Write([]byte(modelName))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(sampleCount))
	h.Write(buf[:])
	var tol [24]byte
	binary.BigEndian.PutUint64(tol[0:8], floatBits(deltaPMax))
	binary.BigEndian.PutUint64(tol[8:16], floatBits(deltaRMax))
	binary.BigEndian.PutUint64(tol[16:24], floatBits(causticTol))
	h.Write(tol[:])
	return hex.EncodeToString(h.Sum(nil))
}

func floatBits(f float64) uint64 {
	bits := uint64(0)
	for i, b := range fmt.Sprintf("%024x", int64(f*1e9)) {
		if i >= 16 {
			break
		}
		bits = bits<<4 | uint64(b%16)
	}
	return bits
}

// BranchCacheWriter persists a model's branches array to a TileDB sparse
// array, one cell per (branch index, sample index), so a warm registry can
// skip re-sampling and re-integrating a model it has already built once.
type BranchCacheWriter struct {
	ctx *tiledb.Context
}

func NewBranchCacheWriter(ctx *tiledb.Context) *BranchCacheWriter {
	return &BranchCacheWriter{ctx: ctx}
}

// newCacheContext builds a standalone TileDB context for the branch cache,
// the same way decode.OpenSource does for model sources.
func newCacheContext() (*tiledb.Context, error) {
	config, err := tiledb.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("traveltime: branch cache tiledb config: %w", err)
	}
	defer config.Free()
	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return nil, fmt.Errorf("traveltime: branch cache tiledb context: %w", err)
	}
	return ctx, nil
}

// createSchema builds the sparse (branchIdx, sampleIdx) schema shared by
// writer and reader: one dimension pair addressing every sample of every
// branch, three double attributes (p, tau, x) plus the content
// hash and phase code stored as array metadata rather than per-cell, since
// they are branch-level, not sample-level.
func (w *BranchCacheWriter) createSchema(maxBranches, maxSamples int) (*tiledb.ArraySchema, error) {
	domain, err := tiledb.NewDomain(w.ctx)
	if err != nil {
		return nil, fmt.Errorf("traveltime: branch cache domain: %w", err)
	}
	branchDim, err := tiledb.NewDimension(w.ctx, "branch", tiledb.TILEDB_INT32, []int32{0, int32(maxBranches - 1)}, int32(1))
	if err != nil {
		return nil, fmt.Errorf("traveltime: branch dimension: %w", err)
	}
	sampleDim, err := tiledb.NewDimension(w.ctx, "sample", tiledb.TILEDB_INT32, []int32{0, int32(maxSamples - 1)}, int32(64))
	if err != nil {
		return nil, fmt.Errorf("traveltime: sample dimension: %w", err)
	}
	if err := domain.AddDimensions(branchDim, sampleDim); err != nil {
		return nil, fmt.Errorf("traveltime: adding dimensions: %w", err)
	}

	schema, err := tiledb.NewArraySchema(w.ctx, tiledb.TILEDB_SPARSE)
	if err != nil {
		return nil, fmt.Errorf("traveltime: branch schema: %w", err)
	}
	if err := schema.SetDomain(domain); err != nil {
		return nil, fmt.Errorf("traveltime: setting branch domain: %w", err)
	}
	if err := schema.SetCellOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, err
	}
	if err := schema.SetTileOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, err
	}

	zstd, err := tiledb.NewFilter(w.ctx, tiledb.TILEDB_FILTER_ZSTD)
	if err != nil {
		return nil, fmt.Errorf("traveltime: zstd filter: %w", err)
	}
	if err := zstd.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, int32(16)); err != nil {
		return nil, err
	}
	filters, err := tiledb.NewFilterList(w.ctx)
	if err != nil {
		return nil, err
	}
	if err := filters.AddFilter(zstd); err != nil {
		return nil, err
	}

	for _, name := range []string{"p", "tau", "x"} {
		attr, err := tiledb.NewAttribute(w.ctx, name, tiledb.TILEDB_FLOAT64)
		if err != nil {
			return nil, fmt.Errorf("traveltime: branch attribute %s: %w", name, err)
		}
		if err := attr.SetFilterList(filters); err != nil {
			return nil, err
		}
		if err := schema.AddAttributes(attr); err != nil {
			return nil, err
		}
	}

	if err := schema.Check(); err != nil {
		return nil, fmt.Errorf("traveltime: branch schema check: %w", err)
	}
	return schema, nil
}

// Write creates (or overwrites) a branch-table cache array at uri,
// recording contentHash as array metadata so Open can refuse a stale cache.
func (w *BranchCacheWriter) Write(uri, contentHash string, branches []*Branch) error {
	maxSamples := 0
	for _, br := range branches {
		if len(br.P) > maxSamples {
			maxSamples = len(br.P)
		}
	}
	if maxSamples == 0 {
		return errors.New("traveltime: no branch samples to cache")
	}

	schema, err := w.createSchema(len(branches), maxSamples)
	if err != nil {
		return err
	}
	if err := tiledb.CreateArray(w.ctx, uri, schema); err != nil {
		return fmt.Errorf("%w: %s", ErrCreateCacheTdb, err)
	}

	array, err := tiledb.NewArray(w.ctx, uri)
	if err != nil {
		return err
	}
	defer array.Free()
	if err := array.Open(tiledb.TILEDB_WRITE); err != nil {
		return fmt.Errorf("%w: %s", ErrWriteCacheTdb, err)
	}
	defer array.Close()

	if err := array.PutMetadata("content_hash", contentHash); err != nil {
		return err
	}
	if err := array.PutMetadata("schema_version", branchCacheSchemaVersion); err != nil {
		return err
	}
	for i, br := range branches {
		if err := array.PutMetadata(fmt.Sprintf("phase_%d", i), br.PhaseCode); err != nil {
			return err
		}
	}

	var branchIdx, sampleIdx []int32
	var pBuf, tauBuf, xBuf []float64
	for bi, br := range branches {
		for si := range br.P {
			branchIdx = append(branchIdx, int32(bi))
			sampleIdx = append(sampleIdx, int32(si))
			pBuf = append(pBuf, br.P[si])
			tauBuf = append(tauBuf, br.Tau[si])
			xBuf = append(xBuf, br.X[si])
		}
	}

	query, err := tiledb.NewQuery(w.ctx, array)
	if err != nil {
		return err
	}
	defer query.Free()
	if err := query.SetLayout(tiledb.TILEDB_UNORDERED); err != nil {
		return err
	}
	if _, err := query.SetDataBuffer("branch", branchIdx); err != nil {
		return err
	}
	if _, err := query.SetDataBuffer("sample", sampleIdx); err != nil {
		return err
	}
	if _, err := query.SetDataBuffer("p", pBuf); err != nil {
		return err
	}
	if _, err := query.SetDataBuffer("tau", tauBuf); err != nil {
		return err
	}
	if _, err := query.SetDataBuffer("x", xBuf); err != nil {
		return err
	}
	if err := query.Submit(); err != nil {
		return fmt.Errorf("%w: %s", ErrWriteCacheTdb, err)
	}
	return nil
}

// Open validates the array's stored content hash against wantHash and
// returns ErrCacheStale if it does not match, so the caller always falls
// back to rebuilding from the text model rather than trusting a cache that
// no longer matches its source (spec.md 9).
func (w *BranchCacheWriter) Open(uri, wantHash string) (*tiledb.Array, error) {
	array, err := tiledb.NewArray(w.ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadCacheTdb, err)
	}
	if err := array.Open(tiledb.TILEDB_READ); err != nil {
		array.Free()
		return nil, fmt.Errorf("%w: %s", ErrReadCacheTdb, err)
	}
	_, _, gotHashRaw, err := array.GetMetadata("content_hash")
	if err != nil {
		array.Close()
		array.Free()
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, err)
	}
	gotHash, _ := gotHashRaw.(string)
	if gotHash != wantHash {
		array.Close()
		array.Free()
		return nil, ErrCacheStale
	}
	return array, nil
}

// ReadBranches reconstructs the branch table from an array returned by
// Open. Only the raw (p, tau, x) samples and the phase codes are stored
// cell/metadata-side; the derived fields (leg types, shell counts, spline
// basis) are cheap to recompute from the phase code and the sample arrays,
// so they are rebuilt here rather than also persisted.
func (w *BranchCacheWriter) ReadBranches(array *tiledb.Array) ([]*Branch, error) {
	defer array.Close()
	defer array.Free()

	nonEmpty, err := array.NonEmptyDomain()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadCacheTdb, err)
	}
	numBranches := 0
	for _, d := range nonEmpty {
		if d.DimensionName == "branch" {
			if hi, ok := d.Bounds.([2]int32); ok {
				numBranches = int(hi[1]) + 1
			}
		}
	}

	maxCells, _, err := array.MaxBufferSize(nil)
	if err != nil {
		maxCells = 1 << 20
	}
	branchIdx := make([]int32, maxCells)
	sampleIdx := make([]int32, maxCells)
	pBuf := make([]float64, maxCells)
	tauBuf := make([]float64, maxCells)
	xBuf := make([]float64, maxCells)

	query, err := tiledb.NewQuery(w.ctx, array)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadCacheTdb, err)
	}
	defer query.Free()
	if err := query.SetLayout(tiledb.TILEDB_UNORDERED); err != nil {
		return nil, err
	}
	if _, err := query.SetDataBuffer("branch", branchIdx); err != nil {
		return nil, err
	}
	if _, err := query.SetDataBuffer("sample", sampleIdx); err != nil {
		return nil, err
	}
	if _, err := query.SetDataBuffer("p", pBuf); err != nil {
		return nil, err
	}
	if _, err := query.SetDataBuffer("tau", tauBuf); err != nil {
		return nil, err
	}
	if _, err := query.SetDataBuffer("x", xBuf); err != nil {
		return nil, err
	}
	if err := query.Submit(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadCacheTdb, err)
	}

	type sample struct {
		idx  int32
		p, t, x float64
	}
	byBranch := make(map[int32][]sample)
	for i := range branchIdx {
		bi := branchIdx[i]
		byBranch[bi] = append(byBranch[bi], sample{sampleIdx[i], pBuf[i], tauBuf[i], xBuf[i]})
	}

	branches := make([]*Branch, 0, numBranches)
	for bi := int32(0); bi < int32(numBranches); bi++ {
		_, _, codeRaw, err := array.GetMetadata(fmt.Sprintf("phase_%d", bi))
		if err != nil {
			continue
		}
		code, _ := codeRaw.(string)
		if code == "" {
			continue
		}
		samples := byBranch[bi]
		if len(samples) < 2 {
			continue
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i].idx < samples[j].idx })

		p := make([]float64, len(samples))
		tau := make([]float64, len(samples))
		x := make([]float64, len(samples))
		for i, s := range samples {
			p[i], tau[i], x[i] = s.p, s.t, s.x
		}

		pattern := ClassifyPhaseCode(code)
		br := &Branch{
			PhaseCode: code,
			TypeSeg:   legTypeSeg(code),
			Counts:    legShellCounts(pattern, code),
			P:         p, Tau: tau, X: x,
			PRange: [2]float64{p[0], p[len(p)-1]},
			XRange: xRangeOf(x),
		}
		br.Basis = FitBranchBasis(br.P, br.Tau, br.X)
		hasUp := strings.IndexFunc(code, func(r rune) bool { return r == 'p' || r == 's' }) == 0
		br.HasUp = hasUp
		br.HasDown = !hasUp || len(code) > 2
		branches = append(branches, br)
	}
	return branches, nil
}
