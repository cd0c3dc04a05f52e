/*
Package texture implements a decoder for texture containers, the "_tex.sc"
files holding one or more packed sprite atlases.

Once any compression has been removed a container is a sequence of tagged
blocks, each a one byte tag followed by a little-endian 32-bit payload size.
A zero tag ends the container. Texture blocks carry a five byte header, the
pixel format, width and height, followed by the raw pixels:

	tag     u8
	size    u32   5 + len(pixels)
	format  u8
	width   u16
	height  u16
	pixels  [width * height * bytes per pixel]

Pixels of tags 27 and 28 are stored as a sequence of 32 by 32 blocks rather
than scanlines. Blocks with any other tag are skipped.

A chunk whose declared size disagrees with its dimensions, or whose pixel
format is unknown, is reported and skipped without affecting the chunks that
follow it.
*/
package texture

import (
	"errors"
	"fmt"
	"image"

	"github.com/bodgit/scextract/pixel"
)

const (
	// TagEnd terminates a container.
	TagEnd = 0x00

	headerSize = 5
	blockSize  = 32
)

// ErrChunkSizeMismatch is returned when a chunk's declared payload size does
// not match its dimensions and pixel format.
var ErrChunkSizeMismatch = errors.New("texture: chunk size mismatch")

// IsTextureTag reports whether blocks with the given tag hold texture data.
func IsTextureTag(tag uint8) bool {
	switch tag {
	case 0x01, 0x18, 0x1b, 0x1c:
		return true
	}
	return false
}

func isBlocked(tag uint8) bool {
	return tag == 0x1b || tag == 0x1c
}

// Options control pixel decoding.
type Options struct {
	Expansion pixel.Expansion
}

// Config describes a texture chunk header.
type Config struct {
	// Index is the ordinal of the chunk amongst all texture chunks in the
	// container, including chunks that failed to decode.
	Index  int
	Tag    uint8
	Offset int
	Size   int
	Format pixel.Format
	Width  int
	Height int
}

// Chunk is a decoded texture chunk.
type Chunk struct {
	Config
	Image *image.NRGBA
}

// ChunkError records why a single chunk could not be decoded.
type ChunkError struct {
	Index  int
	Tag    uint8
	Offset int
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("texture: chunk %d (tag %d) at offset %d: %v", e.Index, e.Tag, e.Offset, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Container holds the chunks decoded from a texture container in file order
// along with any chunks that were skipped.
type Container struct {
	Chunks []*Chunk
	Errors []*ChunkError
}

// Decode decodes every texture chunk in b. Per-chunk failures are collected
// in the returned Container; an error is only returned if b is truncated.
func Decode(b []byte, opts Options) (*Container, error) {
	d := newDecoder(b, opts, false)
	if err := d.decode(); err != nil {
		return nil, err
	}
	return &d.container, nil
}

// DecodeConfig returns the header of every texture chunk in b without
// decoding any pixels.
func DecodeConfig(b []byte) ([]Config, error) {
	d := newDecoder(b, Options{}, true)
	if err := d.decode(); err != nil {
		return nil, err
	}
	return d.configs, nil
}
