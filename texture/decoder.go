package texture

import (
	"fmt"
	"image"

	"github.com/bodgit/scextract/bytestream"
	"github.com/bodgit/scextract/pixel"
)

type decoder struct {
	r          *bytestream.Reader
	opts       Options
	configOnly bool

	index     int
	configs   []Config
	container Container
}

func newDecoder(b []byte, opts Options, configOnly bool) *decoder {
	return &decoder{
		r:          bytestream.NewReader(b),
		opts:       opts,
		configOnly: configOnly,
	}
}

func (d *decoder) decode() error {
	for d.r.Len() > 0 {
		offset := d.r.Offset()

		tag, err := d.r.ReadUint8()
		if err != nil {
			return err
		}
		if tag == TagEnd {
			return nil
		}

		size, err := d.r.ReadUint32()
		if err != nil {
			return err
		}
		if int64(size) > int64(d.r.Len()) {
			return fmt.Errorf("%w: block tag %d at offset %d declares %d bytes", bytestream.ErrUnexpectedEnd, tag, offset, size)
		}
		end := d.r.Offset() + int(size)

		if !IsTextureTag(tag) {
			if err := d.r.Seek(end); err != nil {
				return err
			}
			continue
		}

		cfg := Config{
			Index:  d.index,
			Tag:    tag,
			Offset: offset,
			Size:   int(size),
		}
		d.index++

		if err := d.readChunk(&cfg); err != nil {
			d.container.Errors = append(d.container.Errors, &ChunkError{
				Index:  cfg.Index,
				Tag:    tag,
				Offset: offset,
				Err:    err,
			})
		}

		// Always resynchronise on the declared size
		if err := d.r.Seek(end); err != nil {
			return err
		}
	}

	return nil
}

func (d *decoder) readChunk(cfg *Config) error {
	if err := d.readChunkHeader(cfg); err != nil {
		return err
	}

	if d.configOnly {
		d.configs = append(d.configs, *cfg)
		return nil
	}

	m, err := d.readPixelData(cfg)
	if err != nil {
		return err
	}

	d.container.Chunks = append(d.container.Chunks, &Chunk{
		Config: *cfg,
		Image:  m,
	})

	return nil
}

func (d *decoder) readChunkHeader(cfg *Config) error {
	if cfg.Size < headerSize {
		return fmt.Errorf("%w: %d byte payload is shorter than the chunk header", ErrChunkSizeMismatch, cfg.Size)
	}

	format, err := d.r.ReadUint8()
	if err != nil {
		return err
	}
	width, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	height, err := d.r.ReadUint16()
	if err != nil {
		return err
	}

	cfg.Format = pixel.Format(format)
	cfg.Width = int(width)
	cfg.Height = int(height)

	return nil
}

func (d *decoder) readPixelData(cfg *Config) (*image.NRGBA, error) {
	bpp, err := cfg.Format.BytesPerPixel()
	if err != nil {
		return nil, err
	}

	length := cfg.Size - headerSize
	if want := cfg.Width * cfg.Height * bpp; length != want {
		return nil, fmt.Errorf("%w: %dx%d %s needs %d bytes, chunk holds %d", ErrChunkSizeMismatch, cfg.Width, cfg.Height, cfg.Format, want, length)
	}

	raw, err := d.r.ReadBytes(length)
	if err != nil {
		return nil, err
	}

	pix := make([]byte, cfg.Width*cfg.Height*4)
	if err := pixel.DecodeInto(pix, cfg.Format, raw, d.opts.Expansion); err != nil {
		return nil, err
	}

	if isBlocked(cfg.Tag) {
		pix = unblock(pix, cfg.Width, cfg.Height)
	}

	return &image.NRGBA{
		Pix:    pix,
		Stride: cfg.Width * 4,
		Rect:   image.Rect(0, 0, cfg.Width, cfg.Height),
	}, nil
}

// unblock rearranges pixels stored as 32 by 32 blocks into scanline order.
// Blocks on the right and bottom edges are clipped to the image.
func unblock(src []byte, width, height int) []byte {
	dst := make([]byte, len(src))
	stride := width * 4
	i := 0
	for by := 0; by < height; by += blockSize {
		for bx := 0; bx < width; bx += blockSize {
			for y := by; y < by+blockSize && y < height; y++ {
				w := blockSize
				if bx+w > width {
					w = width - bx
				}
				n := copy(dst[y*stride+bx*4:y*stride+(bx+w)*4], src[i:])
				i += n
			}
		}
	}
	return dst
}
