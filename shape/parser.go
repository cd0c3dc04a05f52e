package shape

import (
	"fmt"
	"image"
	"math"

	"github.com/bodgit/scextract/bytestream"
	"github.com/bodgit/scextract/pixel"
	"github.com/bodgit/scextract/texture"
)

const reservedSize = 5

type parser struct {
	r    *bytestream.Reader
	file File
	byID map[uint16]*Shape
}

// Parse parses a shape description file.
func Parse(b []byte) (*File, error) {
	p := parser{
		r:    bytestream.NewReader(b),
		byID: make(map[uint16]*Shape),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return &p.file, nil
}

func (p *parser) parse() error {
	if err := p.readHeader(); err != nil {
		return err
	}
	if err := p.readExports(); err != nil {
		return err
	}

	for p.r.Len() > 0 {
		tag, err := p.r.ReadUint8()
		if err != nil {
			return err
		}
		if tag == tagEnd {
			return nil
		}

		size, err := p.r.ReadUint32()
		if err != nil {
			return err
		}
		if int64(size) > int64(p.r.Len()) {
			return fmt.Errorf("%w: block tag %d declares %d bytes", bytestream.ErrUnexpectedEnd, tag, size)
		}
		end := p.r.Offset() + int(size)

		switch {
		case texture.IsTextureTag(tag):
			if err := p.readTexture(tag); err != nil {
				return err
			}
			if err := p.seekEnd(end); err != nil {
				return err
			}
		case tag == tagShape:
			if err := p.readShape(); err != nil {
				return err
			}
			if err := p.seekEnd(end); err != nil {
				return err
			}
		default:
			if err := p.r.Seek(end); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *parser) readHeader() error {
	counts := []*int{
		&p.file.Counts.Shapes,
		&p.file.Counts.MovieClips,
		&p.file.Counts.Textures,
		&p.file.Counts.TextFields,
		&p.file.Counts.Matrices,
		&p.file.Counts.ColorTransforms,
	}
	for _, c := range counts {
		v, err := p.r.ReadUint16()
		if err != nil {
			return err
		}
		*c = int(v)
	}
	return p.r.Skip(reservedSize)
}

func (p *parser) readExports() error {
	n, err := p.r.ReadUint16()
	if err != nil {
		return err
	}

	p.file.Exports = make([]Export, n)
	for i := range p.file.Exports {
		if p.file.Exports[i].ID, err = p.r.ReadUint16(); err != nil {
			return err
		}
	}
	for i := range p.file.Exports {
		if p.file.Exports[i].Name, err = p.r.ReadString(1); err != nil {
			return err
		}
	}

	return nil
}

func (p *parser) readTexture(tag uint8) error {
	format, err := p.r.ReadUint8()
	if err != nil {
		return err
	}
	width, err := p.r.ReadUint16()
	if err != nil {
		return err
	}
	height, err := p.r.ReadUint16()
	if err != nil {
		return err
	}

	p.file.Textures = append(p.file.Textures, Texture{
		Tag:    tag,
		Format: pixel.Format(format),
		Width:  int(width),
		Height: int(height),
	})

	return nil
}

func (p *parser) readShape() error {
	id, err := p.r.ReadUint16()
	if err != nil {
		return err
	}
	// Region and point totals, the sub-blocks are authoritative
	if err := p.r.Skip(4); err != nil {
		return err
	}

	s, ok := p.byID[id]
	if !ok {
		s = &Shape{ID: id}
		p.byID[id] = s
		p.file.Shapes = append(p.file.Shapes, s)
	}

	for {
		tag, err := p.r.ReadUint8()
		if err != nil {
			return err
		}
		size, err := p.r.ReadUint32()
		if err != nil {
			return err
		}
		if tag == tagEnd {
			return nil
		}
		if int64(size) > int64(p.r.Len()) {
			return fmt.Errorf("%w: shape %d sub-block tag %d declares %d bytes", bytestream.ErrUnexpectedEnd, id, tag, size)
		}
		end := p.r.Offset() + int(size)

		if tag == tagRegion {
			part, err := p.readRegion()
			if err != nil {
				return fmt.Errorf("shape %d: %w", id, err)
			}
			if len(part.Dest) > 0 {
				s.Parts = append(s.Parts, part)
			}
		}

		if err := p.seekEnd(end); err != nil {
			return fmt.Errorf("shape %d: %w", id, err)
		}
	}
}

// seekEnd moves to the end of the current block, which must not have been
// read past.
func (p *parser) seekEnd(end int) error {
	if p.r.Offset() > end {
		return fmt.Errorf("%w: block overrun by %d bytes", bytestream.ErrUnexpectedEnd, p.r.Offset()-end)
	}
	return p.r.Seek(end)
}

func (p *parser) readRegion() (Part, error) {
	sheet, err := p.r.ReadUint8()
	if err != nil {
		return Part{}, err
	}
	n, err := p.r.ReadUint8()
	if err != nil {
		return Part{}, err
	}
	if n == 0 {
		return Part{}, nil
	}

	part := Part{
		Texture: int(sheet),
		Source:  make([]Point, n),
		Dest:    make([]Point, n),
	}

	for i := range part.Dest {
		x, err := p.r.ReadInt32()
		if err != nil {
			return Part{}, err
		}
		y, err := p.r.ReadInt32()
		if err != nil {
			return Part{}, err
		}
		part.Dest[i] = Point{
			X: float64(x) / TwipsPerPixel,
			Y: float64(y) / TwipsPerPixel,
		}
	}

	var sw, sh float64 = 1, 1
	round := func(v float64) float64 { return v }
	if int(sheet) < len(p.file.Textures) {
		t := p.file.Textures[sheet]
		part.Sheet = image.Pt(t.Width, t.Height)
		sw, sh = float64(t.Width), float64(t.Height)
		round = math.Round
	}

	for i := range part.Source {
		u, err := p.r.ReadUint16()
		if err != nil {
			return Part{}, err
		}
		v, err := p.r.ReadUint16()
		if err != nil {
			return Part{}, err
		}
		part.Source[i] = Point{
			X: round(float64(u) * sw / maxUV),
			Y: round(float64(v) * sh / maxUV),
		}
	}

	return part, nil
}
