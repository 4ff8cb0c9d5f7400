/*
Package plane renders the low order bit plane of an image.

Each channel of each pixel is reduced to its two least significant bits and
stretched back to the full 0-255 range, so regions carrying embedded data
show up as noise while untouched regions keep whatever structure the low
bits of the cover had. Alpha is included as a grey level in the output
rather than as transparency.
*/
package plane

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/bodgit/akatsuki/raster"
	"github.com/ericpauley/go-quantize/quantize"
)

const (
	lowMask = 0x03
	scale   = 0xff / lowMask

	maxColors = 256
)

func stretch(c uint8) uint8 {
	return c & lowMask * scale
}

// Render returns a new image holding the stretched low bit plane of m. The
// red, green and blue channels map directly; the alpha plane is mixed into
// each of them so that data hidden only in alpha is still visible.
func Render(m *image.NRGBA) *image.NRGBA {
	b := m.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := m.NRGBAAt(x, y)
			a := stretch(c.A)
			out.SetNRGBA(x, y, color.NRGBA{
				R: stretch(c.R)>>1 + a>>1,
				G: stretch(c.G)>>1 + a>>1,
				B: stretch(c.B)>>1 + a>>1,
				A: 0xff,
			})
		}
	}
	return out
}

// Supported reports whether a plane can be written in format. The plane is
// always opaque so BMP and QOI are fine here as well as GIF and PNG.
func Supported(format string) bool {
	switch format {
	case raster.GIF, raster.PNG, raster.BMP, raster.QOI:
		return true
	}
	return false
}

// Encode writes the plane m to w. GIF is allowed here as the plane is only
// for looking at; the image is reduced to a single palette of at most 256
// colors first.
func Encode(w io.Writer, m image.Image, format string) error {
	if format != raster.GIF {
		return raster.Encode(w, m, format)
	}

	b := m.Bounds()

	pm, _ := m.(*image.Paletted)
	if pm == nil || len(pm.Palette) > maxColors {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, maxColors), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	return gif.Encode(w, pm, &gif.Options{NumColors: len(pm.Palette)})
}
