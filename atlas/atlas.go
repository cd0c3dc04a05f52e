/*
Package atlas finds previously extracted texture atlases on disk.

A texture container called "name_tex.sc" is extracted to "name_tex.png",
"name_tex_.png", "name_tex__.png" and so on, one underscore per chunk index.
A shape file "name" then refers to those atlases by index. Decoded atlases
are kept in a cache shared between every shape file processed in a batch
so each atlas is only read once while it remains resident.
*/
package atlas

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bodgit/scextract/imagefile"
	"github.com/bodgit/scextract/sprite"
	"github.com/dgraph-io/ristretto/v2"
)

const (
	// DefaultMaxCost is the default cache size in bytes of decoded
	// pixel data.
	DefaultMaxCost = 512 << 20

	numCounters = 10000
	bufferItems = 64
)

// Cache holds decoded atlases keyed by path. It is safe for concurrent use.
type Cache struct {
	c *ristretto.Cache[string, *image.NRGBA]
}

// NewCache returns a Cache holding up to maxCost bytes of pixel data. A
// maxCost of zero uses DefaultMaxCost.
func NewCache(maxCost int64) (*Cache, error) {
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}

	c, err := ristretto.NewCache[string, *image.NRGBA](&ristretto.Config[string, *image.NRGBA]{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &Cache{c: c}, nil
}

// Close releases the cache.
func (c *Cache) Close() {
	c.c.Close()
}

func (c *Cache) load(path string) (*image.NRGBA, error) {
	if m, ok := c.c.Get(path); ok {
		return m, nil
	}

	m, err := imagefile.Open(path)
	if err != nil {
		return nil, err
	}

	c.c.Set(path, m, int64(len(m.Pix)))
	c.c.Wait()

	return m, nil
}

// Name returns the file name of atlas index for the shape file base,
// using the extension ext.
func Name(base string, index int, ext string) string {
	return base + "_tex" + strings.Repeat("_", index) + ext
}

// Dir looks up the atlases for one shape file in a directory. It implements
// sprite.Atlases.
type Dir struct {
	dir   string
	base  string
	ext   string
	cache *Cache
}

var _ sprite.Atlases = (*Dir)(nil)

// NewDir returns a Dir that reads atlases for the shape file base from dir.
// Atlases are expected to have been written with format. The cache may be
// nil in which case every lookup reads from disk.
func NewDir(dir, base string, format imagefile.Format, cache *Cache) *Dir {
	return &Dir{
		dir:   dir,
		base:  base,
		ext:   format.Ext(),
		cache: cache,
	}
}

// Path returns the path of atlas index.
func (d *Dir) Path(index int) string {
	return filepath.Join(d.dir, Name(d.base, index, d.ext))
}

// Atlas implements sprite.Atlases. A missing file is reported as
// sprite.ErrMissingAtlas.
func (d *Dir) Atlas(index int) (*image.NRGBA, error) {
	if index < 0 {
		return nil, sprite.ErrMissingAtlas
	}

	path := d.Path(index)

	var (
		m   *image.NRGBA
		err error
	)
	if d.cache != nil {
		m, err = d.cache.load(path)
	} else {
		m, err = imagefile.Open(path)
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", sprite.ErrMissingAtlas, path)
	case err != nil:
		return nil, err
	}

	return m, nil
}
