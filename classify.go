package scextract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bodgit/scextract/compression"
	"github.com/bodgit/scextract/table"
)

// Kind is a kind of asset file.
type Kind int

const (
	// Any matches every kind when used as a filter.
	Any Kind = iota
	Tex
	Sc
	Csv
)

const texSuffix = "_tex.sc"

// Files that are often left next to extracted assets.
var filtered = map[string]struct{}{
	".DS_Store": {},
	"quickbms":  {},
}

func (k Kind) String() string {
	switch k {
	case Any:
		return "any"
	case Tex:
		return "tex"
	case Sc:
		return "sc"
	case Csv:
		return "csv"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return Any, nil
	case "tex":
		return Tex, nil
	case "sc":
		return Sc, nil
	case "csv":
		return Csv, nil
	}
	return Any, fmt.Errorf("unknown file type %q", s)
}

// Classify works out what kind of asset the file name with contents data
// is. It returns false if the file is not an asset. If filter is set,
// well-known stray files are never assets.
func Classify(name string, data []byte, filter bool) (Kind, bool) {
	base := filepath.Base(name)

	if _, ok := filtered[base]; ok && filter {
		return Any, false
	}

	switch {
	case len(data) == 0:
		return Any, false
	case filepath.Ext(base) == "":
		return Sc, true
	case strings.HasSuffix(base, texSuffix):
		return Tex, true
	case filepath.Ext(base) == ".csv" && isCompressedTable(data):
		return Csv, true
	}

	return Any, false
}

func isCompressedTable(b []byte) bool {
	return compression.IsLZMA(b) || compression.IsZstd(b) || compression.HasHeader(b) || table.IsCompressed(b)
}
