package scextract

import (
	"errors"

	"github.com/bodgit/scextract/compression"
	"github.com/bodgit/scextract/shape"
	"github.com/bodgit/scextract/table"
	"github.com/bodgit/scextract/texture"
)

// ErrNotAsset is returned by Inspect for files that are not assets.
var ErrNotAsset = errors.New("not a _tex.sc, .csv or extracted .sc file")

// Info describes the contents of an asset file without extracting it.
type Info struct {
	Kind Kind
	// Header is the container header, if the file has one.
	Header *compression.Header
	// Size is the decompressed size.
	Size int
	// Textures is set for texture containers.
	Textures []texture.Config
	// Shapes is set for shape files.
	Shapes *shape.File
	// Rows and Columns are set for tables, Columns being the header
	// row.
	Rows    int
	Columns []string
}

// Inspect decodes enough of the file called name with contents data to
// describe it.
func Inspect(name string, data []byte) (*Info, error) {
	kind, ok := Classify(name, data, false)
	if !ok {
		return nil, ErrNotAsset
	}

	info := &Info{Kind: kind}
	if h, err := compression.ReadHeader(data); err == nil {
		info.Header = h
	}

	body := data
	if kind != Sc || info.Header != nil {
		if kind != Csv || !table.IsCompressed(data) {
			var err error
			if body, err = compression.Unwrap(data); err != nil {
				return nil, err
			}
		}
	}
	info.Size = len(body)

	var err error
	switch kind {
	case Tex:
		info.Textures, err = texture.DecodeConfig(body)
	case Sc:
		info.Shapes, err = shape.Parse(body)
	case Csv:
		if table.IsCompressed(body) {
			var rows [][]string
			if rows, err = table.Decode(body); err == nil && len(rows) > 0 {
				info.Rows, info.Columns = len(rows), rows[0]
			}
		}
	}
	if err != nil {
		return nil, err
	}

	return info, nil
}
