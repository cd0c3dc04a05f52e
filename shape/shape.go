/*
Package shape implements a parser for the shape description file that
accompanies a texture container.

The file starts with a header of six 16-bit counts, five reserved bytes and
an export table, followed by tagged blocks in the same framing as a texture
container. Texture blocks declare the format and dimensions of each atlas in
order. Shape blocks (tag 0x12) hold a shape identifier and a list of region
sub-blocks (tag 0x16), each mapping a polygon on an atlas onto a polygon in
the shape's own coordinate space:

	sheet   u8
	n       u8
	dest    n * (x i32, y i32)   twips, 1/20 of a pixel
	source  n * (u u16, v u16)   normalised to the atlas, 0xffff = far edge

Source points are scaled to the declared atlas dimensions and rounded to the
nearest pixel.
*/
package shape

import (
	"image"

	"github.com/bodgit/scextract/pixel"
)

const (
	tagEnd    = 0x00
	tagShape  = 0x12
	tagRegion = 0x16

	// TwipsPerPixel converts destination coordinates to pixels.
	TwipsPerPixel = 20

	maxUV = 0xffff
)

// Point is a position in either atlas or destination pixel space.
type Point struct {
	X, Y float64
}

// Part maps a polygon on one atlas onto a polygon of the shape. Source and
// Dest always have the same number of points.
type Part struct {
	// Texture is the index of the atlas, in container order.
	Texture int
	// Sheet is the declared size of the atlas that Source is expressed in.
	// A zero Sheet means Source is normalised to [0, 1].
	Sheet  image.Point
	Source []Point
	Dest   []Point
}

// Shape is a group of parts composited in order onto one sprite.
type Shape struct {
	ID    uint16
	Parts []Part
}

// Texture is an atlas descriptor.
type Texture struct {
	Tag    uint8
	Format pixel.Format
	Width  int
	Height int
}

// Export names an exported symbol.
type Export struct {
	ID   uint16
	Name string
}

// Counts holds the object counts from the file header.
type Counts struct {
	Shapes          int
	MovieClips      int
	Textures        int
	TextFields      int
	Matrices        int
	ColorTransforms int
}

// File is a parsed shape description file.
type File struct {
	Counts   Counts
	Exports  []Export
	Textures []Texture
	// Shapes are in order of first appearance.
	Shapes []*Shape
}

// Shape returns the shape with the given identifier.
func (f *File) Shape(id uint16) (*Shape, bool) {
	for _, s := range f.Shapes {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}
