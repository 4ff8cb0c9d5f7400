package plane

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/bodgit/akatsuki/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.SetNRGBA(0, 0, color.NRGBA{R: 0xfc, G: 0xfd, B: 0xfe, A: 0xfc})
	m.SetNRGBA(1, 0, color.NRGBA{R: 0x03, G: 0x00, B: 0x00, A: 0xff})

	p := Render(m)
	assert.Equal(t, color.NRGBA{R: 0, G: 42, B: 85, A: 0xff}, p.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 254, G: 127, B: 127, A: 0xff}, p.NRGBAAt(1, 0))

	// Source is untouched
	assert.Equal(t, color.NRGBA{R: 0xfc, G: 0xfd, B: 0xfe, A: 0xfc}, m.NRGBAAt(0, 0))
}

func TestEncodeGIF(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			m.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: uint8(x ^ y), A: 0xff})
		}
	}

	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, Render(m), raster.GIF))

	g, err := gif.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, m.Bounds(), g.Bounds())
}

func TestEncodePNG(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	p := Render(m)

	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, p, raster.PNG))

	got, _, err := raster.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, p.Pix, got.Pix)

	assert.Error(t, Encode(new(bytes.Buffer), p, raster.JPEG))
}

func TestEncodeOpaqueFormats(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 9, 7))
	for i := range m.Pix {
		m.Pix[i] = uint8(i * 7)
	}
	p := Render(m)

	for _, format := range []string{raster.BMP, raster.QOI} {
		assert.True(t, Supported(format))

		b := new(bytes.Buffer)
		require.NoError(t, Encode(b, p, format))

		got, decoded, err := raster.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, format, decoded)
		assert.Equal(t, p.Pix, got.Pix, format)
	}

	assert.False(t, Supported(raster.JPEG))
	assert.False(t, Supported("tiff"))
}
