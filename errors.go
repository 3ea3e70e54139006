package traveltime

import (
	"errors"
)

// Model build errors. These are fatal: they propagate out of the
// table-generation pipeline and abort the build.
var ErrModelRead = errors.New("error reading model file")
var ErrModelMalformed = errors.New("model file malformed")
var ErrIntegrationDegenerate = errors.New("zero-thickness interval with unequal slownesses")
var ErrRadiusOutOfShell = errors.New("radius outside of shell bounds")
var ErrIllegalInterval = errors.New("illegal interval: z1 == z2 with slow1 != slow2")
var ErrRayDoesNotBottom = errors.New("ray parameter exceeds both layer endpoint slownesses")

// Query-time errors. These never abort a query; they shape the result.
var ErrDepthOutOfRange = errors.New("source depth out of range")
var ErrDistanceOutOfRange = errors.New("distance out of range")
var ErrRayDoesNotReach = errors.New("ray does not reach requested distance")
var ErrPhaseNotFound = errors.New("phase not found in auxiliary tables")
var ErrMissingGeographic = errors.New("geographic coordinates required but missing")

// Cache / auxiliary-data errors.
var ErrCacheStale = errors.New("cached branch table content hash does not match model")
var ErrCacheMiss = errors.New("no cached branch table for model")
var ErrCreateCacheTdb = errors.New("error creating branch-table TileDB array")
var ErrWriteCacheTdb = errors.New("error writing branch-table TileDB array")
var ErrReadCacheTdb = errors.New("error reading branch-table TileDB array")
var ErrCreateSchemaTdb = errors.New("error creating TileDB schema")
var ErrCreateAttributeTdb = errors.New("error creating TileDB attribute")
var ErrCreateFilterTdb = errors.New("error creating TileDB filter")

// Auxiliary data load errors.
var ErrGroupsRead = errors.New("error reading phase-group file")
var ErrTtStatsRead = errors.New("error reading travel-time statistics file")
var ErrEllipRead = errors.New("error reading ellipticity file")
var ErrTopoRead = errors.New("error reading topography grid")

// Session/pool errors.
var ErrNoSession = errors.New("no session available from pool")
var ErrUnknownModel = errors.New("unknown model name")
