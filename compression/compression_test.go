package compression

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/bodgit/scextract/bytestream"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz/lzma"
)

var payload = bytes.Repeat([]byte("Supercell asset payload "), 64)

// shortLZMA compresses b and drops the top four bytes of the header's size
// field, as the asset files do.
func shortLZMA(t *testing.T, b []byte) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w, err := lzma.WriterConfig{SizeInHeader: true, Size: int64(len(b))}.NewWriter(buf)
	require.NoError(t, err)
	_, err = w.Write(b)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	full := buf.Bytes()
	require.Equal(t, []byte{0, 0, 0, 0}, full[9:13])

	return append(append([]byte{}, full[:9]...), full[13:]...)
}

func header(version uint32, hash []byte) []byte {
	b := new(bytes.Buffer)
	b.WriteString(headerMagic)
	binary.Write(b, binary.BigEndian, version)
	if version == 4 {
		binary.Write(b, binary.BigEndian, uint32(1))
	}
	binary.Write(b, binary.BigEndian, uint32(len(hash)))
	b.Write(hash)
	return b.Bytes()
}

func TestDecompressLZMA(t *testing.T) {
	b := shortLZMA(t, payload)
	assert.True(t, IsLZMA(b))

	out, err := Decompress(b)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestUnwrapHeader(t *testing.T) {
	hash := bytes.Repeat([]byte{0xaa}, 16)
	body := shortLZMA(t, payload)

	tables := []struct {
		name    string
		version uint32
		size    int
		want    uint32
	}{
		{"v1", 1, 26, 1},
		{"v3", 3, 26, 3},
		{"v4", 4, 30, 1},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			b := append(header(table.version, hash), body...)
			require.True(t, HasHeader(b))

			h, err := ReadHeader(b)
			require.NoError(t, err)
			assert.Equal(t, table.want, h.Version)
			assert.Equal(t, hash, h.Hash)
			assert.Equal(t, table.size, h.Size)

			out, err := Unwrap(b)
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}
}

func TestUnwrapZstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()

	body := enc.EncodeAll(payload, nil)
	assert.True(t, IsZstd(body))

	for _, b := range [][]byte{body, append(header(3, []byte{1, 2}), body...)} {
		out, err := Unwrap(b)
		require.NoError(t, err)
		assert.Equal(t, payload, out)
	}
}

func TestUnwrapHeaderless(t *testing.T) {
	out, err := Unwrap(shortLZMA(t, payload))
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestUnwrapErrors(t *testing.T) {
	tables := []struct {
		name  string
		input []byte
		err   error
	}{
		{"lzham", append(header(1, nil), []byte("SCLZ\x00\x00\x00\x00")...), ErrUnsupportedCompression},
		{"short", []byte{0x5d, 0x00, 0x00}, bytestream.ErrUnexpectedEnd},
		{"garbage", bytes.Repeat([]byte{0xff}, 32), ErrCorrupt},
		{"bad zstd", append(append([]byte{}, zstdMagic...), 0, 0, 0, 0, 0), ErrCorrupt},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := Unwrap(table.input)
			assert.ErrorIs(t, err, table.err)
		})
	}
}

func TestReadHeaderErrors(t *testing.T) {
	_, err := ReadHeader([]byte{0x5d, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadHeader(header(1, []byte{1, 2, 3, 4})[:12])
	assert.ErrorIs(t, err, bytestream.ErrUnexpectedEnd)

	assert.False(t, HasHeader([]byte("S")))
}
