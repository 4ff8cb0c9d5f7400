package raster

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
)

// Encode writes m to w in the given format. Lossy formats are refused with
// ErrLossyFormat, as are BMP and QOI unless m is opaque.
func Encode(w io.Writer, m image.Image, format string) error {
	switch format {
	case PNG:
		e := png.Encoder{CompressionLevel: png.BestCompression}
		return e.Encode(w, m)
	case BMP, QOI:
		if !Opaque(m) {
			return fmt.Errorf("%w: %s does not keep alpha", ErrLossyFormat, format)
		}
		if format == BMP {
			return bmp.Encode(w, m)
		}
		return qoi.Encode(w, m)
	case GIF, JPEG:
		return fmt.Errorf("%w: %s", ErrLossyFormat, format)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
