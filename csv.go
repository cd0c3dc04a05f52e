package scextract

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bodgit/scextract/compression"
	"github.com/bodgit/scextract/table"
)

// ProcessCsv decompresses the table data, read from the file called name.
// Tables stored with back-references are resolved and written as comma
// separated values; anything else is written out as decompressed.
func (e *Extractor) ProcessCsv(ctx context.Context, name string, data []byte) (*Result, error) {
	logger := e.logger.WithField("file", name)

	body := data
	if !table.IsCompressed(data) {
		var err error
		if body, err = compression.Unwrap(data); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(e.opts.OutDir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(e.opts.OutDir, filepath.Base(name))

	if !table.IsCompressed(body) {
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return nil, err
		}
		logger.Info("extracted table")
		return &Result{Path: name, Kind: Csv, Outputs: []string{path}}, nil
	}

	rows, err := table.Decode(body)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := table.WriteCSV(f, rows); err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	logger.Infof("extracted table with %d row(s)", len(rows))

	return &Result{Path: name, Kind: Csv, Outputs: []string{path}}, nil
}
