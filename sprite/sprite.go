/*
Package sprite cuts individual sprites out of decoded texture atlases.

Each part of a shape maps a polygon in its destination space back onto a
polygon of an atlas. The sprite canvas covers the bounding box of every
part's destination polygon, rounded outwards to whole pixels, and starts
fully transparent. For each part an affine transform from destination to
atlas space is fitted to the polygon vertices; every canvas pixel whose
centre falls inside the part's destination polygon is then filled with the
nearest atlas pixel. Parts are drawn in order and later parts replace
earlier ones.

Atlases are supplied by the caller through the Atlases interface so that
they can come from memory, from previously written image files or from any
other source.
*/
package sprite

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrMissingAtlas is returned when a part references an atlas that
	// was not supplied.
	ErrMissingAtlas = errors.New("sprite: missing atlas")
	// ErrDegenerateQuad is returned when a destination polygon has no
	// area.
	ErrDegenerateQuad = errors.New("sprite: degenerate destination polygon")
	// ErrInconsistentQuad is returned when the vertices of a part cannot
	// be related by a single affine transform.
	ErrInconsistentQuad = errors.New("sprite: polygon vertices are not affine")
	// ErrEmptyShape is returned for a shape without parts.
	ErrEmptyShape = errors.New("sprite: shape has no parts")
	// ErrCanvasTooLarge is returned when a shape's bounding box covers
	// more than MaxCanvasPixels.
	ErrCanvasTooLarge = errors.New("sprite: canvas too large")
)

// MaxCanvasPixels bounds the size of a single sprite, 8192 by 8192. Packed
// atlases are at most 4096 pixels square so a genuine sprite never comes
// close.
const MaxCanvasPixels = 8192 * 8192

// MissingAtlasError identifies the atlas that could not be found.
type MissingAtlasError struct {
	Index int
	Err   error
}

func (e *MissingAtlasError) Error() string {
	if e.Err != nil && !errors.Is(e.Err, ErrMissingAtlas) {
		return fmt.Sprintf("sprite: missing atlas %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("sprite: missing atlas %d", e.Index)
}

// Is reports whether target is ErrMissingAtlas.
func (e *MissingAtlasError) Is(target error) bool {
	return target == ErrMissingAtlas
}

func (e *MissingAtlasError) Unwrap() error {
	return e.Err
}

// Atlases looks up a decoded atlas by its index in the texture container.
// Implementations should return an error matching ErrMissingAtlas when the
// index is unknown; any other error means the atlas exists but could not be
// read. Implementations must be safe for concurrent use if passed to CutAll.
type Atlases interface {
	Atlas(index int) (*image.NRGBA, error)
}

// AtlasMap is an in-memory set of atlases.
type AtlasMap map[int]*image.NRGBA

// Atlas implements Atlases.
func (m AtlasMap) Atlas(index int) (*image.NRGBA, error) {
	if a, ok := m[index]; ok && a != nil {
		return a, nil
	}
	return nil, ErrMissingAtlas
}

// AtlasFunc adapts a function to the Atlases interface.
type AtlasFunc func(index int) (*image.NRGBA, error)

// Atlas implements Atlases.
func (f AtlasFunc) Atlas(index int) (*image.NRGBA, error) {
	return f(index)
}

// Sprite is a shape rendered onto its own canvas.
type Sprite struct {
	ID uint16
	// Origin is the position of the canvas' top left pixel in the
	// shape's destination space.
	Origin image.Point
	Image  *image.NRGBA
}
