package scextract

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/scextract/compression"
	"github.com/bodgit/scextract/imagefile"
	"github.com/bodgit/scextract/texture"
	"github.com/sirupsen/logrus"
)

// texName returns the output name for chunk index of the texture container
// called name.
func texName(name string, index int, ext string) string {
	return strings.TrimSuffix(name, ".sc") + strings.Repeat("_", index) + ext
}

// ProcessTex extracts every atlas in the texture container data, read from
// the file called name. Chunks that cannot be decoded are recorded in the
// result and the remaining chunks are still written.
func (e *Extractor) ProcessTex(ctx context.Context, name string, data []byte) (*Result, error) {
	logger := e.logger.WithField("file", name)

	body, err := compression.Unwrap(data)
	if err != nil {
		return nil, err
	}

	c, err := texture.Decode(body, texture.Options{Expansion: e.opts.Expansion})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.opts.OutDir, 0o755); err != nil {
		return nil, err
	}

	res := &Result{Path: name, Kind: Tex}

	for _, chunk := range c.Chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(e.opts.OutDir, texName(filepath.Base(name), chunk.Index, e.opts.Image.Format.Ext()))
		if err := imagefile.Save(path, chunk.Image, e.opts.Image); err != nil {
			return nil, err
		}
		res.Outputs = append(res.Outputs, path)

		logger.WithFields(logrus.Fields{
			"chunk":  chunk.Index,
			"format": chunk.Format.String(),
			"width":  chunk.Width,
			"height": chunk.Height,
		}).Debugf("wrote %s", path)
	}

	for _, ce := range c.Errors {
		logger.WithField("chunk", ce.Index).Warn(ce.Err)
		res.fail(ScopeChunk, strconv.Itoa(ce.Index), ce)
	}

	logger.Infof("extracted %d of %d image(s)", len(c.Chunks), len(c.Chunks)+len(c.Errors))

	return res, nil
}
