/*
Package scextract is a library for extracting images and tables from the
asset files shipped with Supercell games.

Three kinds of file are understood. Texture containers, named "*_tex.sc",
hold one or more atlases which are written out as images. Extracted shape
files, which have no extension, describe how sprites are cut from those
atlases. Compressed ".csv" files hold tables which are written out as comma
separated values.
*/
package scextract

import (
	"io"
	"runtime"

	"github.com/bodgit/scextract/atlas"
	"github.com/bodgit/scextract/imagefile"
	"github.com/bodgit/scextract/manifest"
	"github.com/bodgit/scextract/pixel"
	"github.com/sirupsen/logrus"
)

// Options configures an Extractor.
type Options struct {
	// OutDir is where extracted files are written.
	OutDir string
	// PNGDir is where atlases for shape files are read from. It defaults
	// to OutDir so that a single run can extract texture containers and
	// then cut the sprites they hold.
	PNGDir string
	// Kind, if set, restricts extraction to that kind of file.
	Kind Kind
	// Delete removes each source file once it has been extracted without
	// any failures.
	Delete bool
	// Parallel processes files concurrently using Workers goroutines,
	// defaulting to the number of CPUs.
	Parallel bool
	Workers  int
	// DisableFilter stops files that are commonly found alongside assets
	// but are never assets themselves from being ignored.
	DisableFilter bool
	// SkipUnchanged skips sources the manifest has already seen extracted
	// cleanly. It has no effect without a manifest.
	SkipUnchanged bool
	Image         imagefile.Options
	Expansion     pixel.Expansion
	// CacheSize is the number of bytes of decoded atlases kept in memory.
	CacheSize int64
}

func (o Options) workers() int {
	switch {
	case !o.Parallel:
		return 1
	case o.Workers > 0:
		return o.Workers
	default:
		return runtime.NumCPU()
	}
}

func (o Options) pngDir() string {
	if o.PNGDir != "" {
		return o.PNGDir
	}
	return o.OutDir
}

// Extractor extracts asset files. Run must not be called concurrently on
// the same Extractor.
type Extractor struct {
	opts   Options
	db     *manifest.DB
	run    *manifest.Run
	cache  *atlas.Cache
	logger logrus.FieldLogger
}

// New returns an Extractor. The manifest db is optional.
func New(opts Options, db *manifest.DB, logger logrus.FieldLogger) (*Extractor, error) {
	cache, err := atlas.NewCache(opts.CacheSize)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	return &Extractor{
		opts:   opts,
		db:     db,
		cache:  cache,
		logger: logger,
	}, nil
}

// Close releases any resources held by the Extractor. The manifest is not
// closed.
func (e *Extractor) Close() error {
	e.cache.Close()
	return nil
}
