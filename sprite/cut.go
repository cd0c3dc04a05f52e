package sprite

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/bodgit/scextract/shape"
	"golang.org/x/sync/errgroup"
)

// bounds returns the destination bounding box of every part, rounded
// outwards to whole pixels.
func bounds(s *shape.Shape) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range s.Parts {
		for _, pt := range p.Dest {
			minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
			minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
		}
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// scaleSource maps a part's source polygon onto the supplied atlas, which
// may be smaller or larger than the atlas the shape was authored against.
func scaleSource(p shape.Part, atlas *image.NRGBA) []shape.Point {
	w, h := atlas.Rect.Dx(), atlas.Rect.Dy()

	var sx, sy float64
	switch {
	case p.Sheet.X == 0 || p.Sheet.Y == 0:
		sx, sy = float64(w), float64(h)
	case p.Sheet.X == w && p.Sheet.Y == h:
		return p.Source
	default:
		sx, sy = float64(w)/float64(p.Sheet.X), float64(h)/float64(p.Sheet.Y)
	}

	src := make([]shape.Point, len(p.Source))
	for i, pt := range p.Source {
		src[i] = shape.Point{X: pt.X * sx, Y: pt.Y * sy}
	}
	return src
}

// Cut renders shape s using atlases from src.
func Cut(s *shape.Shape, src Atlases) (*Sprite, error) {
	if len(s.Parts) == 0 {
		return nil, ErrEmptyShape
	}

	for i, p := range s.Parts {
		if signedArea(p.Dest) == 0 {
			return nil, fmt.Errorf("part %d: %w", i, ErrDegenerateQuad)
		}
	}

	r := bounds(s)
	if n := int64(r.Dx()) * int64(r.Dy()); n > MaxCanvasPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasTooLarge, r.Dx(), r.Dy())
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))

	for i, p := range s.Parts {
		atlas, err := src.Atlas(p.Texture)
		switch {
		case errors.Is(err, ErrMissingAtlas):
			return nil, &MissingAtlasError{Index: p.Texture, Err: err}
		case err != nil:
			return nil, fmt.Errorf("part %d: atlas %d: %w", i, p.Texture, err)
		}
		if err := drawPart(canvas, r.Min, p, atlas); err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
	}

	return &Sprite{
		ID:     s.ID,
		Origin: r.Min,
		Image:  canvas,
	}, nil
}

func drawPart(canvas *image.NRGBA, origin image.Point, p shape.Part, atlas *image.NRGBA) error {
	m, err := solve(p.Dest, scaleSource(p, atlas))
	if err != nil {
		return err
	}

	// Restrict the scan to the part's own bounding box
	pr := bounds(&shape.Shape{Parts: []shape.Part{p}}).Sub(origin).Intersect(canvas.Rect)
	ar := atlas.Rect

	for y := pr.Min.Y; y < pr.Max.Y; y++ {
		dy := float64(y+origin.Y) + 0.5
		for x := pr.Min.X; x < pr.Max.X; x++ {
			dx := float64(x+origin.X) + 0.5
			if !inside(p.Dest, dx, dy) {
				continue
			}

			fx, fy := apply(m, dx, dy)
			sx, sy := int(math.Floor(fx)), int(math.Floor(fy))
			if !(image.Point{sx + ar.Min.X, sy + ar.Min.Y}).In(ar) {
				continue
			}

			si := atlas.PixOffset(sx+ar.Min.X, sy+ar.Min.Y)
			di := canvas.PixOffset(x, y)
			copy(canvas.Pix[di:di+4], atlas.Pix[si:si+4])
		}
	}

	return nil
}

// Result is the outcome of cutting one shape.
type Result struct {
	Shape  *shape.Shape
	Sprite *Sprite
	Err    error
}

// cut calls Cut, turning a panic into an error so that one bad shape
// cannot take down its siblings.
func cut(s *shape.Shape, src Atlases) (sp *Sprite, err error) {
	defer func() {
		if r := recover(); r != nil {
			sp, err = nil, fmt.Errorf("sprite: shape %d: %v", s.ID, r)
		}
	}()
	return Cut(s, src)
}

// CutAll cuts every shape, running up to workers at once. A failure cutting
// one shape is recorded in its Result and does not affect the others.
// Results are returned in the same order as shapes.
func CutAll(ctx context.Context, shapes []*shape.Shape, src Atlases, workers int) ([]Result, error) {
	results := make([]Result, len(shapes))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, s := range shapes {
		i, s := i, s
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sp, err := cut(s, src)
			results[i] = Result{Shape: s, Sprite: sp, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Wait cancels gctx, so check the caller's context
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
