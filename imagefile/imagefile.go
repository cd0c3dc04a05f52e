/*
Package imagefile writes decoded images to disk and reads them back.

PNG is the default format. BMP and TIFF are also supported. Images can
optionally be reduced to a palette of a given number of colors using median
cut quantization before they are encoded, which trades accuracy for much
smaller files.
*/
package imagefile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/tiff"
)

// Format is an output image format.
type Format int

const (
	PNG Format = iota
	BMP
	TIFF
)

// MaxColors is the largest palette that can be requested.
const MaxColors = 256

var (
	// ErrUnknownFormat is returned for an unrecognised format name.
	ErrUnknownFormat = errors.New("imagefile: unknown format")
	// ErrTooManyColors is returned when more than MaxColors are requested.
	ErrTooManyColors = errors.New("imagefile: too many colors")
)

var formats = map[Format]struct {
	name    string
	encoder imgio.Encoder
}{
	PNG: {"png", imgio.PNGEncoder()},
	BMP: {"bmp", imgio.BMPEncoder()},
	TIFF: {"tiff", func(w io.Writer, m image.Image) error {
		return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}},
}

// ParseFormat returns the Format with the given name. An empty name is
// PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) String() string {
	if v, ok := formats[f]; ok {
		return v.name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension for f including the leading dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// Options controls how images are written.
type Options struct {
	Format Format
	// Colors, if non-zero, is the size of the palette the image is
	// reduced to.
	Colors int
}

// Quantize reduces m to a palette of at most n colors.
func Quantize(m image.Image, n int) (*image.Paletted, error) {
	if n < 1 || n > MaxColors {
		return nil, fmt.Errorf("%w: %d", ErrTooManyColors, n)
	}

	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}

	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	return pm, nil
}

// Encode writes m to w according to opts.
func Encode(w io.Writer, m image.Image, opts Options) error {
	f, ok := formats[opts.Format]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownFormat, opts.Format)
	}

	if opts.Colors > 0 {
		pm, err := Quantize(m, opts.Colors)
		if err != nil {
			return err
		}
		m = pm
	}

	return f.encoder(w, m)
}

// Save writes m to the file at path, creating or truncating it.
func Save(path string, m image.Image, opts Options) error {
	if _, ok := formats[opts.Format]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownFormat, opts.Format)
	}

	return imgio.Save(path, m, func(w io.Writer, m image.Image) error {
		return Encode(w, m, opts)
	})
}

// Open reads the image at path and returns it as non-premultiplied RGBA
// with its top left corner at the origin.
func Open(path string) (*image.NRGBA, error) {
	m, err := imgio.Open(path)
	if err != nil {
		return nil, err
	}

	return ToNRGBA(m), nil
}

// ToNRGBA converts m to non-premultiplied RGBA with its top left corner at
// the origin, returning m unchanged when it already is.
func ToNRGBA(m image.Image) *image.NRGBA {
	if n, ok := m.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}

	b := m.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Rect, m, b.Min, draw.Src)

	return n
}
