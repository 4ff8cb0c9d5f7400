/*
Package akatsuki is a library for hiding files inside images.

A file is stored two bits at a time in the low order bits of each red,
green, blue and alpha channel of an image, so every pixel carries one byte.
The first 128 pixels hold a header recording the size and name of the file
which makes extraction self-describing. Images are only written as PNG
since every other supported format either recompresses the pixels or drops
the alpha channel, destroying the hidden data.

Nothing is encrypted and no attempt is made to resist statistical analysis.
*/
package akatsuki

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"math"

	"github.com/bodgit/akatsuki/bitstream"
	"github.com/bodgit/akatsuki/catalog"
	"github.com/bodgit/akatsuki/config"
	"github.com/bodgit/akatsuki/header"
	"github.com/bodgit/akatsuki/lsb"
	"github.com/bodgit/akatsuki/raster"
)

// ErrPayloadTooLarge is matched by any *PayloadTooLargeError
var ErrPayloadTooLarge = errors.New("payload too large for image")

// PayloadTooLargeError is returned when a payload does not fit in an image.
// Capacity can be zero or negative for images smaller than the header.
type PayloadTooLargeError struct {
	Size     int
	Capacity int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("%s: %d bytes, maximum is %d bytes", ErrPayloadTooLarge, e.Size, e.Capacity)
}

// Is allows errors.Is(err, ErrPayloadTooLarge) to match
func (e *PayloadTooLargeError) Is(target error) bool {
	return target == ErrPayloadTooLarge
}

// Akatsuki performs file based operations, optionally recording them in a
// catalog.
type Akatsuki struct {
	catalog    *catalog.Catalog
	logger     *log.Logger
	compress   bool
	decompress bool
	format     string
	workers    int
}

// Catalog records every injection in c
func Catalog(c *catalog.Catalog) func(*Akatsuki) error {
	return func(a *Akatsuki) error {
		a.catalog = c
		return nil
	}
}

// Compress sets whether payloads are compressed before being injected
func Compress(compress bool) func(*Akatsuki) error {
	return func(a *Akatsuki) error {
		a.compress = compress
		return nil
	}
}

// Decompress sets whether compressed payloads are decompressed when
// extracted. It is enabled by default.
func Decompress(decompress bool) func(*Akatsuki) error {
	return func(a *Akatsuki) error {
		a.decompress = decompress
		return nil
	}
}

// Format sets the output format used when the output filename has no
// recognised image extension
func Format(format string) func(*Akatsuki) error {
	return func(a *Akatsuki) error {
		if !raster.Lossless(format) {
			return fmt.Errorf("%w: %s", raster.ErrLossyFormat, format)
		}
		a.format = format
		return nil
	}
}

// Workers sets how many images are scanned concurrently
func Workers(n int) func(*Akatsuki) error {
	return func(a *Akatsuki) error {
		if n < 1 {
			return errors.New("at least one worker is required")
		}
		a.workers = n
		return nil
	}
}

// New returns an Akatsuki logging to logger
func New(logger *log.Logger, options ...func(*Akatsuki) error) (*Akatsuki, error) {
	a := &Akatsuki{
		logger:     logger,
		decompress: true,
		format:     raster.PNG,
		workers:    config.DefaultWorkers,
	}

	if a.logger == nil {
		a.logger = log.New(io.Discard, "", 0)
	}

	for _, option := range options {
		if err := option(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// MaximumPayloadSize returns how many bytes can be hidden in m
func MaximumPayloadSize(m image.Image) int {
	b := m.Bounds()
	return b.Dx()*b.Dy() - header.Size
}

func checkCapacity(m image.Image, size int) error {
	capacity := MaximumPayloadSize(m)
	if size > capacity || int64(size) > math.MaxUint32 {
		return &PayloadTooLargeError{
			Size:     size,
			Capacity: capacity,
		}
	}
	return nil
}

// Inject returns a copy of m with secret and its name hidden inside. m is
// not modified.
func Inject(m image.Image, secret []byte, name string) (*image.NRGBA, error) {
	if err := checkCapacity(m, len(secret)); err != nil {
		return nil, err
	}

	b, err := header.New(name, uint32(len(secret))).MarshalBinary()
	if err != nil {
		return nil, err
	}

	nm := raster.Flatten(m)
	pix, err := lsb.Embed(nm.Pix, bitstream.NewEncoder(b, secret))
	if err != nil {
		return nil, err
	}

	return &image.NRGBA{
		Pix:    pix,
		Stride: nm.Stride,
		Rect:   nm.Rect,
	}, nil
}

// ReadHeader returns the header hidden in m. The declared size is checked
// against the capacity of m; a header claiming more data than m can hold
// returns an error wrapping header.ErrInvalid.
func ReadHeader(m image.Image) (*header.Header, error) {
	return readHeader(raster.Flatten(m))
}

func readHeader(m *image.NRGBA) (*header.Header, error) {
	h, err := lsb.ReadHeader(m.Pix)
	if err != nil {
		return nil, err
	}

	if capacity := MaximumPayloadSize(m); int64(h.Size) > int64(capacity) {
		return nil, fmt.Errorf("%w: declared size %d exceeds capacity %d", header.ErrInvalid, h.Size, capacity)
	}

	return h, nil
}

// Extract returns the header and payload hidden in m
func Extract(m image.Image) (*header.Header, []byte, error) {
	nm := raster.Flatten(m)

	h, err := readHeader(nm)
	if err != nil {
		return nil, nil, err
	}

	b, err := lsb.ReadPayload(nm.Pix, int(h.Size))
	if err != nil {
		return nil, nil, err
	}

	return h, b, nil
}

// Report describes an image and what is hidden in it
type Report struct {
	Width    int
	Height   int
	Capacity int
	Name     string
	Size     int
}

// Info returns a report on m without extracting the payload
func Info(m image.Image) (*Report, error) {
	h, err := ReadHeader(m)
	if err != nil {
		return nil, err
	}

	name, err := h.FileName()
	if err != nil {
		return nil, err
	}

	b := m.Bounds()

	return &Report{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Capacity: MaximumPayloadSize(m),
		Name:     name,
		Size:     int(h.Size),
	}, nil
}
