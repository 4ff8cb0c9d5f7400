/*
Package raster loads images into a flat pixel buffer and writes them back
out again.

Any format registered with the image package can be decoded, which includes
PNG, GIF, JPEG, BMP and QOI. Decoded images are converted to a
non-premultiplied RGBA image with its origin at (0, 0) and no padding
between rows so that its Pix slice holds exactly 4 bytes per pixel in
row-major order.

PNG is the only format that keeps every channel of every pixel so it is
the only format data can be hidden in. BMP and QOI can also be encoded but
only keep an alpha of 255, so they are refused for anything that is not
opaque.
*/
package raster

import (
	"errors"
	"image"
	"path/filepath"
	"strings"
)

// Supported format names, as returned by image.Decode
const (
	PNG  = "png"
	BMP  = "bmp"
	QOI  = "qoi"
	GIF  = "gif"
	JPEG = "jpeg"
)

var (
	// ErrLossyFormat is returned when asked to encode to a format that
	// would not preserve every pixel exactly
	ErrLossyFormat = errors.New("raster: format is not lossless")

	// ErrUnknownFormat is returned for an unrecognised format name
	ErrUnknownFormat = errors.New("raster: unknown format")
)

var extensions = map[string]string{
	".png":  PNG,
	".bmp":  BMP,
	".qoi":  QOI,
	".gif":  GIF,
	".jpg":  JPEG,
	".jpeg": JPEG,
}

// FormatFromPath returns the format implied by the extension of path. An
// unrecognised or missing extension returns PNG.
func FormatFromPath(path string) string {
	if f, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return PNG
}

// IsImage reports whether path has the extension of a decodable format
func IsImage(path string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Lossless reports whether format keeps every pixel of any image exactly,
// including partially transparent ones
func Lossless(format string) bool {
	return format == PNG
}

// Opaque reports whether every pixel of m has an alpha of 255
func Opaque(m image.Image) bool {
	if o, ok := m.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := m.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
