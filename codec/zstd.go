package codec

import (
	"github.com/klauspost/compress/zstd"
)

// Zstd compresses blobs with zstandard. A single encoder/decoder pair is
// shared; both are safe for concurrent use via EncodeAll/DecodeAll.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd creates a zstd codec at the default compression level.
func NewZstd() *Zstd {
	// Errors are impossible with no options beyond the level.
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	dec, _ := zstd.NewReader(nil)
	return &Zstd{enc: enc, dec: dec}
}

// Encode compresses src into a new buffer.
func (z *Zstd) Encode(src []byte) ([]byte, error) {
	return z.enc.EncodeAll(src, nil), nil
}

// Decode decompresses src into a new buffer.
func (z *Zstd) Decode(src []byte) ([]byte, error) {
	return z.dec.DecodeAll(src, nil)
}

// Name returns the unique name of the codec ("zstd").
func (z *Zstd) Name() string { return "zstd" }
