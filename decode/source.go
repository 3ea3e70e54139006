package decode

import (
	"fmt"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// Source is an opened data file (model, phase-group, statistics,
// ellipticity or topography) staged for streamed or in-memory reading via
// TileDB's virtual filesystem, which gives uniform access to local disk,
// S3/GCS object stores and HDFS without the decoders needing to know which.
type Source struct {
	URI string

	config  *tiledb.Config
	ctx     *tiledb.Context
	vfs     *tiledb.VFS
	handler *tiledb.VFSfh
	Stream
}

// OpenSource opens uri for reading through TileDB's VFS layer. configURI, if
// non-empty, points at a tiledb config file (credentials, S3 endpoint,
// etc.); otherwise a generic config is used. Auxiliary files are small
// enough to always read fully into memory.
func OpenSource(uri, configURI string, inMemory bool) (*Source, error) {
	var (
		config *tiledb.Config
		err    error
	)
	if configURI == "" {
		config, err = tiledb.NewConfig()
	} else {
		config, err = tiledb.LoadConfig(configURI)
	}
	if err != nil {
		return nil, fmt.Errorf("decode: loading tiledb config: %w", err)
	}

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return nil, fmt.Errorf("decode: creating tiledb context: %w", err)
	}

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("decode: creating tiledb vfs: %w", err)
	}

	handler, err := vfs.Open(uri, tiledb.TILEDB_VFS_READ)
	if err != nil {
		return nil, fmt.Errorf("decode: opening %s: %w", uri, err)
	}

	filesize, err := vfs.FileSize(uri)
	if err != nil {
		return nil, fmt.Errorf("decode: sizing %s: %w", uri, err)
	}

	stream, err := GenericStream(handler, filesize, inMemory)
	if err != nil {
		return nil, fmt.Errorf("decode: reading %s: %w", uri, err)
	}

	return &Source{URI: uri, config: config, ctx: ctx, vfs: vfs, handler: handler, Stream: stream}, nil
}

// Close releases the underlying TileDB handles.
func (s *Source) Close() {
	if s.handler != nil {
		s.handler.Close()
	}
	if s.vfs != nil {
		s.vfs.Free()
	}
	if s.ctx != nil {
		s.ctx.Free()
	}
	if s.config != nil {
		s.config.Free()
	}
}
