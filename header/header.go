/*
Package header implements the fixed size record stored ahead of the payload
in an image.

The record is always 128 bytes. The first 4 bytes hold the payload size as
a little-endian unsigned 32-bit integer, the remaining 124 bytes hold the
payload name. Names longer than 124 bytes are truncated, shorter names are
padded with zero bytes which are removed again when the record is decoded.
*/
package header

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// Size is the length in bytes of an encoded header
	Size = 128

	sizeLength = 4

	// NameSize is the maximum length in bytes of a stored name
	NameSize = Size - sizeLength
)

var (
	// ErrInvalid is returned when a header cannot be read or describes
	// something impossible
	ErrInvalid = errors.New("header: invalid header")

	// ErrNameDecode is returned when the stored name is not valid UTF-8
	ErrNameDecode = errors.New("header: name is not valid text")
)

// Header describes the payload hidden in an image. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Header struct {
	Size uint32
	Name []byte
}

// Truncate shortens name to at most n bytes without splitting a UTF-8
// encoded rune
func Truncate(name string, n int) string {
	if len(name) <= n {
		return name
	}
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}

// New returns a Header for a payload of size bytes called name. The name
// is truncated to NameSize bytes.
func New(name string, size uint32) *Header {
	return &Header{
		Size: size,
		Name: []byte(Truncate(name, NameSize)),
	}
}

// FileName returns the stored name as a string
func (h *Header) FileName() (string, error) {
	if !utf8.Valid(h.Name) {
		return "", ErrNameDecode
	}
	return string(h.Name), nil
}

// MarshalBinary encodes the header into binary form and returns the result
func (h *Header) MarshalBinary() ([]byte, error) {
	if len(h.Name) > NameSize {
		return nil, fmt.Errorf("name longer than %d bytes", NameSize)
	}

	b := make([]byte, Size)
	binary.LittleEndian.PutUint32(b[:sizeLength], h.Size)
	copy(b[sizeLength:], h.Name)

	return b, nil
}

// UnmarshalBinary decodes the header from binary form
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) != Size {
		return fmt.Errorf("%w: %d bytes, expected %d", ErrInvalid, len(b), Size)
	}

	h.Size = binary.LittleEndian.Uint32(b[:sizeLength])
	h.Name = append([]byte(nil), bytes.TrimRight(b[sizeLength:], "\x00")...)

	return nil
}
