package scextract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bodgit/scextract/atlas"
	"github.com/bodgit/scextract/compression"
	"github.com/bodgit/scextract/imagefile"
	"github.com/bodgit/scextract/shape"
	"github.com/bodgit/scextract/sprite"
	"github.com/sirupsen/logrus"
)

// spriteName returns the output name for shape id, zero padded to width.
func spriteName(name string, id uint16, width int, ext string) string {
	return fmt.Sprintf("%s_sprite_%0*d%s", name, width, id, ext)
}

func idWidth(shapes []*shape.Shape) int {
	var top uint16
	for _, s := range shapes {
		if s.ID > top {
			top = s.ID
		}
	}
	return len(strconv.Itoa(int(top)))
}

// ProcessSc cuts every sprite described by the shape file data, read from
// the file called name. The atlases are read from the configured PNG
// directory. Shapes that cannot be cut are recorded in the result and the
// remaining shapes are still written.
func (e *Extractor) ProcessSc(ctx context.Context, name string, data []byte) (*Result, error) {
	base := filepath.Base(name)
	logger := e.logger.WithField("file", name)

	body := data
	if compression.HasHeader(data) {
		var err error
		if body, err = compression.Unwrap(data); err != nil {
			return nil, err
		}
	}

	f, err := shape.Parse(body)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"shapes":   len(f.Shapes),
		"textures": len(f.Textures),
		"exports":  len(f.Exports),
	}).Debug("parsed shape file")

	atlases := atlas.NewDir(e.opts.pngDir(), base, e.opts.Image.Format, e.cache)

	results, err := sprite.CutAll(ctx, f.Shapes, atlases, e.opts.workers())
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(e.opts.OutDir, base+"_out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	res := &Result{Path: name, Kind: Sc}
	width := idWidth(f.Shapes)

	for _, r := range results {
		id := strconv.Itoa(int(r.Shape.ID))

		if r.Err != nil {
			logger.WithField("shape", r.Shape.ID).Warn(r.Err)
			res.fail(ScopeShape, id, r.Err)
			continue
		}

		path := filepath.Join(outDir, spriteName(base, r.Shape.ID, width, e.opts.Image.Format.Ext()))
		if err := imagefile.Save(path, r.Sprite.Image, e.opts.Image); err != nil {
			return nil, err
		}
		res.Outputs = append(res.Outputs, path)

		logger.WithField("shape", r.Shape.ID).Debugf("wrote %s", path)
	}

	logger.Infof("cut %d of %d sprite(s)", len(res.Outputs), len(results))

	return res, nil
}
