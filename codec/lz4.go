package codec

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 compresses blobs using the lz4 frame format. Framing makes blobs
// self-terminating, so no uncompressed-size bookkeeping is needed.
type LZ4 struct{}

// Encode compresses src into a new buffer.
func (LZ4) Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)

	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode decompresses src into a new buffer.
func (LZ4) Decode(src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	return io.ReadAll(r)
}

// Name returns the unique name of the codec ("lz4").
func (LZ4) Name() string { return "lz4" }
