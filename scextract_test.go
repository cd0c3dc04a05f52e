package scextract

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/scextract/imagefile"
	"github.com/bodgit/scextract/manifest"
	"github.com/bodgit/scextract/sprite"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz/lzma"
)

type builder struct {
	bytes.Buffer
}

func (b *builder) le(v interface{}) {
	binary.Write(&b.Buffer, binary.LittleEndian, v)
}

func (b *builder) block(tag uint8, payload []byte) {
	b.WriteByte(tag)
	b.le(uint32(len(payload)))
	b.Write(payload)
}

// pack compresses b the way asset files are, with a container header.
func pack(t *testing.T, b []byte) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w, err := lzma.WriterConfig{SizeInHeader: true, Size: int64(len(b))}.NewWriter(buf)
	require.NoError(t, err)
	_, err = w.Write(b)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	body := buf.Bytes()

	out := new(bytes.Buffer)
	out.WriteString("SC")
	binary.Write(out, binary.BigEndian, uint32(1))
	binary.Write(out, binary.BigEndian, uint32(16))
	out.Write(make([]byte, 16))
	out.Write(body[:9])
	out.Write(body[13:])

	return out.Bytes()
}

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	green = color.NRGBA{G: 0xff, A: 0xff}
)

// texFile returns a texture container holding a 2×2 atlas of c for each
// color, with a corrupt chunk in between if broken is set.
func texFile(t *testing.T, broken bool, colors ...color.NRGBA) []byte {
	b := new(builder)
	for i, c := range colors {
		if broken && i == 1 {
			// Declares 2×2 but only carries one pixel
			p := new(builder)
			p.WriteByte(0)
			p.le([]uint16{2, 2})
			p.Write([]byte{1, 2, 3, 4})
			b.block(0x01, p.Bytes())
		}
		p := new(builder)
		p.WriteByte(0)
		p.le([]uint16{2, 2})
		for j := 0; j < 4; j++ {
			p.Write([]byte{c.R, c.G, c.B, c.A})
		}
		b.block(0x01, p.Bytes())
	}
	b.WriteByte(0)
	return pack(t, b.Bytes())
}

// scFile returns a shape file with shape 1 cut from atlas 0 and shape 2
// cut from atlas 1.
func scFile() []byte {
	b := new(builder)
	b.le([]uint16{2, 0, 1, 0, 0, 0})
	b.Write(make([]byte, 5))
	b.le(uint16(0))

	tex := new(builder)
	tex.WriteByte(0)
	tex.le([]uint16{2, 2})
	b.block(0x01, tex.Bytes())

	for _, shape := range []struct {
		id    uint16
		sheet uint8
	}{{1, 0}, {2, 1}} {
		r := new(builder)
		r.WriteByte(shape.sheet)
		r.WriteByte(4)
		r.le([][2]int32{{0, 0}, {40, 0}, {40, 40}, {0, 40}})
		r.le([][2]uint16{{0, 0}, {0xffff, 0}, {0xffff, 0xffff}, {0, 0xffff}})

		s := new(builder)
		s.le([]uint16{shape.id, 1, 4})
		s.block(0x16, r.Bytes())
		s.block(0x00, nil)

		b.block(0x12, s.Bytes())
	}

	b.WriteByte(0)
	return b.Bytes()
}

func csvFile(t *testing.T) []byte {
	b := new(builder)
	b.WriteString("SCRT")
	b.le(uint32(3))
	cell := func(s string) {
		b.WriteByte(0)
		b.le(uint16(len(s)))
		b.WriteString(s)
	}
	ref := func(column uint16, offset uint32) {
		b.WriteByte(1)
		b.le(column)
		b.le(offset)
	}
	b.le(uint16(2))
	cell("Name")
	cell("Hitpoints")
	b.le(uint16(2))
	cell("Wall")
	cell("300")
	b.le(uint16(2))
	cell("Gate")
	ref(1, 1)
	return pack(t, b.Bytes())
}

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func newExtractor(t *testing.T, opts Options, db *manifest.DB) (*Extractor, *test.Hook) {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	e, err := New(opts, db, logger)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	return e, hook
}

func TestRun(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()

	write(t, src, "ui_tex.sc", texFile(t, true, red, green))
	write(t, src, "broken_tex.sc", append([]byte("SC\x00\x00\x00\x01\x00\x00\x00\x00"), bytes.Repeat([]byte{0xff}, 32)...))
	write(t, src, "units.csv", csvFile(t))
	write(t, src, "ui", scFile())
	write(t, src, ".DS_Store", []byte{0, 0, 0, 1})
	write(t, src, "readme.txt", []byte("hello"))

	e, hook := newExtractor(t, Options{OutDir: out, Parallel: true, Workers: 4}, nil)

	report, err := e.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Processed())
	assert.ElementsMatch(t, []string{
		filepath.Join(out, "ui_tex.png"),
		filepath.Join(out, "ui_tex__.png"),
		filepath.Join(out, "units.csv"),
		filepath.Join(out, "ui_out", "ui_sprite_1.png"),
	}, report.Outputs())

	// Chunk 1 was corrupt so the second atlas is chunk 2, and the sprite
	// cut from atlas 1 has nothing to read
	failures := report.Failures()
	require.Len(t, failures, 3)
	assert.Equal(t, filepath.Join(src, "broken_tex.sc"), failures[0].Path)
	assert.Equal(t, ScopeFile, failures[0].Scope)
	assert.Equal(t, filepath.Join(src, "ui"), failures[1].Path)
	assert.Equal(t, ScopeShape, failures[1].Scope)
	assert.Equal(t, "2", failures[1].Item)
	assert.ErrorIs(t, failures[1], sprite.ErrMissingAtlas)
	assert.Equal(t, filepath.Join(src, "ui_tex.sc"), failures[2].Path)
	assert.Equal(t, ScopeChunk, failures[2].Scope)
	assert.Equal(t, "1", failures[2].Item)

	assert.Error(t, report.Err())
	assert.ErrorIs(t, report.Err(), sprite.ErrMissingAtlas)

	m, err := imagefile.Open(filepath.Join(out, "ui_tex__.png"))
	require.NoError(t, err)
	assert.Equal(t, green, m.NRGBAAt(1, 1))

	m, err = imagefile.Open(filepath.Join(out, "ui_out", "ui_sprite_1.png"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), m.Rect)
	assert.Equal(t, red, m.NRGBAAt(0, 0))

	b, err := os.ReadFile(filepath.Join(out, "units.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Name,Hitpoints\nWall,300\nGate,300\n", string(b))

	assert.NotEmpty(t, hook.AllEntries())
}

func TestRunKindFilter(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()

	write(t, src, "ui_tex.sc", texFile(t, false, red))
	write(t, src, "units.csv", csvFile(t))

	e, _ := newExtractor(t, Options{OutDir: out, Kind: Csv}, nil)

	report, err := e.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed())
	assert.Equal(t, []string{filepath.Join(out, "units.csv")}, report.Outputs())
	assert.NoError(t, report.Err())
}

func TestRunSingleFileDelete(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()

	good := write(t, src, "ui_tex.sc", texFile(t, false, red))
	partial := write(t, src, "hud_tex.sc", texFile(t, true, red, green))

	e, _ := newExtractor(t, Options{OutDir: out, Delete: true}, nil)

	report, err := e.Run(context.Background(), good)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Deleted)
	assert.NoFileExists(t, good)

	report, err = e.Run(context.Background(), partial)
	require.NoError(t, err)
	assert.False(t, report.Results[0].Deleted)
	assert.FileExists(t, partial)
}

func TestRunSkipUnchanged(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	write(t, src, "units.csv", csvFile(t))

	db, err := manifest.Open(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	defer db.Close()

	e, _ := newExtractor(t, Options{OutDir: out, SkipUnchanged: true}, db)

	report, err := e.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed())

	outputs, err := e.run.Outputs()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "units.csv")}, outputs)

	report, err = e.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed())
	assert.True(t, report.Results[0].Skipped)
}

func TestRunNoFiles(t *testing.T) {
	src := t.TempDir()
	write(t, src, "readme.txt", []byte("hello"))

	e, _ := newExtractor(t, Options{OutDir: t.TempDir()}, nil)

	_, err := e.Run(context.Background(), src)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestRunCancelled(t *testing.T) {
	src := t.TempDir()
	write(t, src, "units.csv", csvFile(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, _ := newExtractor(t, Options{OutDir: t.TempDir()}, nil)

	_, err := e.Run(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	lzmaData := []byte{0x5d, 0x00, 0x00, 0x04, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00}

	tables := []struct {
		name   string
		data   []byte
		filter bool
		kind   Kind
		ok     bool
	}{
		{"ui_tex.sc", []byte("SC"), true, Tex, true},
		{"ui", []byte{1}, true, Sc, true},
		{"units.csv", lzmaData, true, Csv, true},
		{"units.csv", []byte("SCRT"), true, Csv, true},
		{"units.csv", []byte("Name,Type\n"), true, Any, false},
		{"ui.sc", []byte("SC"), true, Any, false},
		{"ui", nil, true, Any, false},
		{".DS_Store", []byte{1}, true, Any, false},
		{"quickbms", []byte{1}, true, Any, false},
		{"quickbms", []byte{1}, false, Sc, true},
	}

	for _, table := range tables {
		kind, ok := Classify(table.name, table.data, table.filter)
		assert.Equal(t, table.ok, ok, table.name)
		assert.Equal(t, table.kind, kind, table.name)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Any, Tex, Sc, Csv} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("png")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	info, err := Inspect("ui_tex.sc", texFile(t, true, red, green))
	require.NoError(t, err)
	assert.Equal(t, Tex, info.Kind)
	require.NotNil(t, info.Header)
	assert.Equal(t, uint32(1), info.Header.Version)
	require.Len(t, info.Textures, 3)
	assert.Equal(t, 2, info.Textures[2].Index)

	info, err = Inspect("ui", scFile())
	require.NoError(t, err)
	assert.Equal(t, Sc, info.Kind)
	assert.Nil(t, info.Header)
	assert.Len(t, info.Shapes.Shapes, 2)

	info, err = Inspect("units.csv", csvFile(t))
	require.NoError(t, err)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, []string{"Name", "Hitpoints"}, info.Columns)

	_, err = Inspect("notes.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrNotAsset)
}
