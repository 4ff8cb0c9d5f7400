package akatsuki

import (
	"bytes"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const compressedSuffix = ".zst"

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func compress(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithZeroFrames(true))
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	return enc.EncodeAll(b, make([]byte, 0, len(b))), nil
}

func decompress(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return dec.DecodeAll(b, nil)
}

// isCompressed reports whether a payload looks like it was compressed on
// the way in; both the name suffix and the frame magic have to match
func isCompressed(name string, b []byte) bool {
	return strings.HasSuffix(name, compressedSuffix) && bytes.HasPrefix(b, zstdMagic)
}
