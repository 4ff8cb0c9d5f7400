package raster

import (
	"image"
	"image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	_ "github.com/xfmoulet/qoi" // register QOI decoder
	_ "golang.org/x/image/bmp"  // register BMP decoder
)

// flat reports whether m can be used as-is
func flat(m *image.NRGBA) bool {
	return m.Rect.Min == (image.Point{}) && m.Stride == 4*m.Rect.Dx() && len(m.Pix) == m.Stride*m.Rect.Dy()
}

// Flatten returns m as an *image.NRGBA with its origin at (0, 0) and no row
// padding. If m already satisfies this it is returned unchanged, otherwise
// a converted copy is returned.
func Flatten(m image.Image) *image.NRGBA {
	if nm, ok := m.(*image.NRGBA); ok && flat(nm) {
		return nm
	}

	b := m.Bounds()
	dup := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dup, dup.Bounds(), m, b.Min, draw.Src)

	return dup
}

// Decode reads an image in any registered format from r and returns it as
// a flattened *image.NRGBA along with the format name.
func Decode(r io.Reader) (*image.NRGBA, string, error) {
	m, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	return Flatten(m), format, nil
}

// DecodeFile is like Decode but reads from the named file
func DecodeFile(file string) (*image.NRGBA, string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	return Decode(f)
}
