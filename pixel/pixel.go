/*
Package pixel implements the pixel formats used by texture chunks.

Each format is identified by the sub-type byte of its chunk and decodes to
non-premultiplied 8-bit RGBA. Packed formats are read as little-endian 16-bit
words with the red channel in the most significant bits:

	RGBA4444  RRRRGGGG BBBBAAAA
	RGBA5551  RRRRRGGG GGBBBBBA
	RGB565    RRRRRGGG GGGBBBBB
	LA88      LLLLLLLL AAAAAAAA

Sub-8-bit channels are widened either by bit replication, so that the maximum
channel value maps to 0xff, or by a plain left shift which reproduces the
output of older extraction tools. The shift mode also copies their alpha
quirks: a set RGBA5551 alpha bit becomes 0x80 and L8 pixels take their
luminance as alpha.
*/
package pixel

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPixelFormat is returned for an unknown format byte.
	ErrUnsupportedPixelFormat = errors.New("pixel: unsupported pixel format")
	// ErrSizeMismatch is returned when the raw data length does not match
	// the pixel count.
	ErrSizeMismatch = errors.New("pixel: raw data size mismatch")
)

// Format is the pixel format discriminant stored in a texture chunk.
type Format uint8

// Known formats.
const (
	RGBA8888         Format = 0
	RGBA8888Alt      Format = 1
	RGBA4444         Format = 2
	RGBA5551         Format = 3
	RGB565           Format = 4
	LuminanceAlpha88 Format = 6
	Luminance8       Format = 10
)

// Expansion selects how sub-8-bit channels are widened.
type Expansion int

const (
	// ExpandReplicate copies the high bits into the vacated low bits.
	ExpandReplicate Expansion = iota
	// ExpandShift shifts left and leaves the low bits zero, matching older
	// extraction tools including their alpha handling.
	ExpandShift
)

func (e Expansion) String() string {
	switch e {
	case ExpandReplicate:
		return "replicate"
	case ExpandShift:
		return "shift"
	}
	return fmt.Sprintf("Expansion(%d)", int(e))
}

// ParseExpansion returns the Expansion named s.
func ParseExpansion(s string) (Expansion, error) {
	switch s {
	case "", "replicate":
		return ExpandReplicate, nil
	case "shift":
		return ExpandShift, nil
	}
	return 0, fmt.Errorf("pixel: unknown expansion %q", s)
}

type layout struct {
	name   string
	bpp    int
	decode func(dst, src []byte, t *tables)
}

var layouts = map[Format]*layout{
	RGBA8888:         {"RGBA8888", 4, decodeRGBA8888},
	RGBA8888Alt:      {"RGBA8888", 4, decodeRGBA8888},
	RGBA4444:         {"RGBA4444", 2, decodeRGBA4444},
	RGBA5551:         {"RGBA5551", 2, decodeRGBA5551},
	RGB565:           {"RGB565", 2, decodeRGB565},
	LuminanceAlpha88: {"LA88", 2, decodeLA88},
	Luminance8:       {"L8", 1, decodeL8},
}

func (f Format) String() string {
	if l, ok := layouts[f]; ok {
		return l.name
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Supported reports whether f is a known format.
func (f Format) Supported() bool {
	_, ok := layouts[f]
	return ok
}

// BytesPerPixel returns the raw size of one pixel in format f.
func (f Format) BytesPerPixel() (int, error) {
	l, ok := layouts[f]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedPixelFormat, uint8(f))
	}
	return l.bpp, nil
}

// Decode converts n pixels of raw data in format f to RGBA8, returning a
// new buffer of n*4 bytes.
func Decode(f Format, raw []byte, n int, e Expansion) ([]byte, error) {
	l, ok := layouts[f]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPixelFormat, uint8(f))
	}
	if n < 0 || len(raw) != n*l.bpp {
		return nil, fmt.Errorf("%w: %d bytes for %d %s pixels", ErrSizeMismatch, len(raw), n, l.name)
	}
	dst := make([]byte, n*4)
	l.decode(dst, raw, tablesFor(e))
	return dst, nil
}

// DecodeInto converts raw data in format f into dst, which must hold
// exactly four bytes for every raw pixel.
func DecodeInto(dst []byte, f Format, raw []byte, e Expansion) error {
	l, ok := layouts[f]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnsupportedPixelFormat, uint8(f))
	}
	if len(raw)%l.bpp != 0 || len(dst) != len(raw)/l.bpp*4 {
		return fmt.Errorf("%w: %d bytes into %d byte buffer as %s", ErrSizeMismatch, len(raw), len(dst), l.name)
	}
	l.decode(dst, raw, tablesFor(e))
	return nil
}
