package sprite

import (
	"math"

	"github.com/bodgit/scextract/shape"
	"golang.org/x/image/math/f64"
)

// Source points are whole pixels and destination points are twips, so a
// fitted transform should reproduce every vertex to well within a pixel.
const consistencyTolerance = 1.0

func apply(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// signedArea returns twice the signed area of the polygon p.
func signedArea(p []shape.Point) float64 {
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum
}

func cross(o, a, b shape.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (b.X-o.X)*(a.Y-o.Y)
}

// solve returns the affine transform mapping each dst vertex onto the
// matching src vertex. The transform is fitted to the triangle of vertices
// with the largest area and checked against the remaining vertices.
func solve(dst, src []shape.Point) (f64.Aff3, error) {
	if len(dst) < 3 || len(dst) != len(src) {
		return f64.Aff3{}, ErrDegenerateQuad
	}

	bi, bj, best := 0, 0, 0.0
	for i := 1; i < len(dst); i++ {
		for j := i + 1; j < len(dst); j++ {
			if a := math.Abs(cross(dst[0], dst[i], dst[j])); a > best {
				bi, bj, best = i, j, a
			}
		}
	}
	if best < 1e-9 {
		return f64.Aff3{}, ErrDegenerateQuad
	}

	d0, d1, d2 := dst[0], dst[bi], dst[bj]
	s0, s1, s2 := src[0], src[bi], src[bj]

	ux, uy := d1.X-d0.X, d1.Y-d0.Y
	vx, vy := d2.X-d0.X, d2.Y-d0.Y
	sux, suy := s1.X-s0.X, s1.Y-s0.Y
	svx, svy := s2.X-s0.X, s2.Y-s0.Y

	det := ux*vy - vx*uy

	a := (sux*vy - svx*uy) / det
	b := (svx*ux - sux*vx) / det
	d := (suy*vy - svy*uy) / det
	e := (svy*ux - suy*vx) / det

	m := f64.Aff3{
		a, b, s0.X - a*d0.X - b*d0.Y,
		d, e, s0.Y - d*d0.X - e*d0.Y,
	}

	for i := range dst {
		x, y := apply(m, dst[i].X, dst[i].Y)
		if math.Abs(x-src[i].X) > consistencyTolerance || math.Abs(y-src[i].Y) > consistencyTolerance {
			return f64.Aff3{}, ErrInconsistentQuad
		}
	}

	return m, nil
}

// inside reports whether (x, y) lies within the polygon p using the even-odd
// rule. Points exactly on a left or top edge count as inside.
func inside(p []shape.Point, x, y float64) bool {
	in := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		pi, pj := p[i], p[j]
		if (pi.Y > y) != (pj.Y > y) {
			if x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
				in = !in
			}
		}
	}
	return in
}
