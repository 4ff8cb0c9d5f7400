/*
Package bitstream splits bytes into 2-bit symbols and reassembles them.

Each byte becomes exactly four symbols, taken from the least significant
pair of bits to the most significant pair: bits 0-1 first, then 2-3, 4-5
and finally 6-7.
*/
package bitstream

import (
	"errors"
	"fmt"
	"io"
)

const (
	// SymbolsPerByte is the number of 2-bit symbols needed for one byte
	SymbolsPerByte = 4

	symbolBits = 2
	symbolMask = 0x03
)

// ErrTruncated is returned when a symbol stream ends before the requested
// number of bytes could be reassembled.
var ErrTruncated = errors.New("bitstream: truncated symbol stream")

var errNegativeCount = errors.New("bitstream: negative byte count")

// Symbol is a 2-bit value in the range 0-3.
type Symbol uint8

// SymbolReader is the interface that wraps the ReadSymbol method.
//
// ReadSymbol returns the next symbol in the stream, or io.EOF once the
// stream is exhausted.
type SymbolReader interface {
	ReadSymbol() (Symbol, error)
}

// Encoder is a SymbolReader yielding the symbols of one or more byte
// slices in order. It is single pass.
type Encoder struct {
	chunks [][]byte
	length int

	// Current byte and how many of its symbols have been read
	b     byte
	shift uint
	ready bool
}

// NewEncoder returns an Encoder over the concatenation of chunks. The
// slices are not copied and must not be modified while the Encoder is
// in use.
func NewEncoder(chunks ...[]byte) *Encoder {
	e := &Encoder{}
	for _, c := range chunks {
		if len(c) == 0 {
			continue
		}
		e.chunks = append(e.chunks, c)
		e.length += len(c) * SymbolsPerByte
	}
	return e
}

// Len returns the total number of symbols the Encoder produces.
func (e *Encoder) Len() int {
	return e.length
}

// ReadSymbol implements the SymbolReader interface.
func (e *Encoder) ReadSymbol() (Symbol, error) {
	if !e.ready {
		for len(e.chunks) > 0 && len(e.chunks[0]) == 0 {
			e.chunks = e.chunks[1:]
		}
		if len(e.chunks) == 0 {
			return 0, io.EOF
		}
		e.b, e.chunks[0] = e.chunks[0][0], e.chunks[0][1:]
		e.shift, e.ready = 0, true
	}

	s := Symbol(e.b >> e.shift & symbolMask)
	e.shift += symbolBits
	if e.shift == SymbolsPerByte*symbolBits {
		e.ready = false
	}
	return s, nil
}

// Symbols returns all of the symbols for b in one slice.
func Symbols(b []byte) []Symbol {
	s := make([]Symbol, 0, len(b)*SymbolsPerByte)
	for _, c := range b {
		for i := 0; i < SymbolsPerByte; i++ {
			s = append(s, Symbol(c&symbolMask))
			c >>= symbolBits
		}
	}
	return s
}

// Decode reads exactly count*SymbolsPerByte symbols from r and reassembles
// them into count bytes. If r is exhausted early the error wraps
// ErrTruncated.
func Decode(r SymbolReader, count int) ([]byte, error) {
	if count < 0 {
		return nil, errNegativeCount
	}

	b := make([]byte, count)
	for i := range b {
		var c byte
		for j := uint(0); j < SymbolsPerByte; j++ {
			s, err := r.ReadSymbol()
			if err != nil {
				if err == io.EOF {
					return nil, fmt.Errorf("%w: recovered %d of %d bytes", ErrTruncated, i, count)
				}
				return nil, err
			}
			c |= byte(s&symbolMask) << (j * symbolBits)
		}
		b[i] = c
	}
	return b, nil
}

type sliceReader []Symbol

func (s *sliceReader) ReadSymbol() (Symbol, error) {
	if len(*s) == 0 {
		return 0, io.EOF
	}
	c := (*s)[0]
	*s = (*s)[1:]
	return c, nil
}

// NewSliceReader returns a SymbolReader over s.
func NewSliceReader(s []Symbol) SymbolReader {
	r := sliceReader(s)
	return &r
}
