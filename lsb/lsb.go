/*
Package lsb reads and writes 2-bit symbols in the low order bits of pixel
channels.

Pixels are passed as a flat, row-major slice of 8-bit channel values with
four channels per pixel in R, G, B, A order, which is the layout of the Pix
field of an image.NRGBA with no padding between rows. Every channel holds
one symbol so each pixel carries exactly one byte.
*/
package lsb

import (
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/akatsuki/bitstream"
	"github.com/bodgit/akatsuki/header"
)

const (
	// Channels is the number of channels per pixel
	Channels = 4

	lowMask  = 0x03
	highMask = 0xfc
)

// ErrPixelAlignment is returned when the pixel slice does not hold a whole
// number of pixels
var ErrPixelAlignment = errors.New("lsb: pixel data is not a multiple of 4 channels")

// Embed returns a copy of pix with the low two bits of each channel replaced
// by successive symbols read from r. Once r returns io.EOF the remaining
// channels are copied unmodified. pix is never written to.
func Embed(pix []uint8, r bitstream.SymbolReader) ([]uint8, error) {
	if len(pix)%Channels != 0 {
		return nil, ErrPixelAlignment
	}

	out := make([]uint8, len(pix))
	copy(out, pix)

	for i := range out {
		s, err := r.ReadSymbol()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		out[i] = out[i]&highMask | uint8(s)&lowMask
	}

	return out, nil
}

// Reader is a bitstream.SymbolReader yielding the low two bits of each
// channel in pix.
type Reader struct {
	pix []uint8
	off int
}

// NewReader returns a Reader over pix
func NewReader(pix []uint8) *Reader {
	return &Reader{pix: pix}
}

// ReadSymbol implements the bitstream.SymbolReader interface.
func (r *Reader) ReadSymbol() (bitstream.Symbol, error) {
	if r.off >= len(r.pix) {
		return 0, io.EOF
	}
	s := bitstream.Symbol(r.pix[r.off] & lowMask)
	r.off++
	return s, nil
}

// ReadHeader decodes the header stored in the first header.Size pixels
func ReadHeader(pix []uint8) (*header.Header, error) {
	if len(pix)%Channels != 0 {
		return nil, ErrPixelAlignment
	}
	if len(pix) < header.Size*Channels {
		return nil, header.ErrInvalid
	}

	b, err := bitstream.Decode(NewReader(pix[:header.Size*Channels]), header.Size)
	if err != nil {
		return nil, err
	}

	h := new(header.Header)
	if err := h.UnmarshalBinary(b); err != nil {
		return nil, err
	}

	return h, nil
}

// ReadPayload decodes size bytes from the pixels following the header. If
// there are not enough pixels the error wraps bitstream.ErrTruncated.
func ReadPayload(pix []uint8, size int) ([]byte, error) {
	if len(pix)%Channels != 0 {
		return nil, ErrPixelAlignment
	}

	skip := header.Size * Channels
	if skip > len(pix) {
		skip = len(pix)
	}

	// Each remaining pixel holds one byte
	if available := (len(pix) - skip) / Channels; size > available {
		return nil, fmt.Errorf("%w: %d bytes requested, %d available", bitstream.ErrTruncated, size, available)
	}

	return bitstream.Decode(NewReader(pix[skip:]), size)
}
