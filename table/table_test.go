package table

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/bodgit/scextract/bytestream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cell interface{}

type ref struct {
	column uint16
	offset uint32
}

func build(rows ...[]cell) []byte {
	b := new(bytes.Buffer)
	b.WriteString(Signature)
	binary.Write(b, binary.LittleEndian, uint32(len(rows)))
	for _, row := range rows {
		binary.Write(b, binary.LittleEndian, uint16(len(row)))
		for _, c := range row {
			switch v := c.(type) {
			case string:
				b.WriteByte(kindLiteral)
				binary.Write(b, binary.LittleEndian, uint16(len(v)))
				b.WriteString(v)
			case ref:
				b.WriteByte(kindReference)
				binary.Write(b, binary.LittleEndian, v.column)
				binary.Write(b, binary.LittleEndian, v.offset)
			}
		}
	}
	return b.Bytes()
}

func TestDecode(t *testing.T) {
	b := build(
		[]cell{"Name", "Type", "Damage"},
		[]cell{"Barbarian", "Melee", "8"},
		[]cell{"Archer", "Ranged", ref{2, 1}},
		[]cell{"Giant", ref{1, 2}, ref{2, 1}},
	)

	rows, err := Decode(b)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Name", "Type", "Damage"},
		{"Barbarian", "Melee", "8"},
		{"Archer", "Ranged", "8"},
		{"Giant", "Melee", "8"},
	}, rows)

	for _, row := range rows {
		assert.Len(t, row, len(rows[0]))
	}
}

func TestDecodeCrossColumnReference(t *testing.T) {
	b := build(
		[]cell{"a", "b"},
		[]cell{"x", ref{0, 1}},
	)

	rows, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "a"}, rows[1])
}

func TestDecodeEmpty(t *testing.T) {
	rows, err := Decode(build())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeErrors(t *testing.T) {
	tables := []struct {
		name   string
		input  []byte
		err    error
		row    int
		column int
	}{
		{
			"zero offset",
			build([]cell{"a"}, []cell{ref{0, 0}}),
			ErrDanglingBackReference,
			1, 0,
		},
		{
			"offset past start",
			build([]cell{"a"}, []cell{"b"}, []cell{ref{0, 3}}),
			ErrDanglingBackReference,
			2, 0,
		},
		{
			"column out of range",
			build([]cell{"a", "b"}, []cell{"c", ref{2, 1}}),
			ErrDanglingBackReference,
			1, 1,
		},
		{
			"header reference",
			build([]cell{ref{0, 1}}),
			ErrDanglingBackReference,
			0, 0,
		},
		{
			"short row",
			build([]cell{"a", "b"}, []cell{"c"}),
			ErrMalformedRow,
			1, 1,
		},
		{
			"long row",
			build([]cell{"a"}, []cell{"b", "c"}),
			ErrMalformedRow,
			1, 2,
		},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			rows, err := Decode(table.input)
			assert.Nil(t, rows)
			assert.ErrorIs(t, err, table.err)

			var re *RowError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, table.row, re.Row)
			assert.Equal(t, table.column, re.Column)
		})
	}
}

func TestParseUnknownKind(t *testing.T) {
	b := build([]cell{"a"})
	// Corrupt the kind byte of the only cell
	b[len(Signature)+4+2] = 7

	_, err := Parse(b)
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestParseTruncated(t *testing.T) {
	full := build([]cell{"abc", "def"}, []cell{ref{0, 1}, "g"})

	for n := len(Signature); n < len(full); n++ {
		_, err := Parse(full[:n])
		assert.ErrorIs(t, err, bytestream.ErrUnexpectedEnd, "length %d", n)
	}
}

func TestParseBadSignature(t *testing.T) {
	_, err := Parse([]byte("name,type\n"))
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.False(t, IsCompressed([]byte("SC")))
	assert.True(t, IsCompressed(build()))
}

func TestWriteCSV(t *testing.T) {
	w := new(strings.Builder)
	err := WriteCSV(w, [][]string{
		{"Name", "Text"},
		{"Hog", "Says \"hi\", loudly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Name,Text\nHog,\"Says \"\"hi\"\", loudly\"\n", w.String())
}
