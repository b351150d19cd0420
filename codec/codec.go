// Package codec centralizes weight-blob compression.
//
// Checkpoint artifacts are self-describing: the manifest records the codec
// name alongside its blobs, and the loader selects the codec by name. If
// you change codecs, blobs written by older codecs may no longer decode.
package codec

// Codec compresses and decompresses weight blobs.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode compresses src into a new buffer.
	Encode(src []byte) ([]byte, error)
	// Decode decompresses src into a new buffer.
	Decode(src []byte) ([]byte, error)
	// Name returns the stable, unique name of the codec.
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "raw":
		return Raw{}, true
	case "lz4":
		return LZ4{}, true
	case "zstd":
		return NewZstd(), true
	default:
		return nil, false
	}
}

// Default is the codec used when none is configured. Raw keeps load cost
// proportional to blob size with no decompression CPU overhead, which
// suits memory-constrained edge targets.
var Default Codec = Raw{}

// Raw is the identity codec.
type Raw struct{}

// Encode returns a copy of src.
func (Raw) Encode(src []byte) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

// Decode returns a copy of src.
func (Raw) Decode(src []byte) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

// Name returns the unique name of the codec ("raw").
func (Raw) Name() string { return "raw" }
