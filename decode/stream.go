package decode

import (
	"bytes"
	"encoding/binary"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// Stream caters for a generic reader type so that model, group, statistics,
// ellipticity and topography files can be read uniformly whether they sit
// on local disk, an object store, or an in-memory byte buffer. All the
// decoders in this package need is Read and Seek.
type Stream interface {
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
}

// GenericStream wraps a TileDB virtual-filesystem file handle, either
// leaving it as a streaming Stream or slurping it fully into an in-memory
// byte reader when the caller knows the file is small enough to cache
// (the auxiliary data files read once at Registry warm-up).
func GenericStream(stream *tiledb.VFSfh, size uint64, inMem bool) (Stream, error) {
	if !inMem {
		return stream, nil
	}
	buffer := make([]byte, size)
	if err := binary.Read(stream, binary.BigEndian, &buffer); err != nil {
		return nil, err
	}
	return bytes.NewReader(buffer), nil
}
