package bytestream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalars(t *testing.T) {
	r := NewReader([]byte{0x01, 0x34, 0x12, 0x78, 0x56, 0x34, 0x12, 0xfe, 0xff, 0xff, 0xff, 0xff, 0xff})

	u8, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), u8)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	i16, err := r.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i16)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i32)

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 13, r.Offset())
}

func TestReadUint32BE(t *testing.T) {
	r := NewReader([]byte{0x00, 0x00, 0x00, 0x04, 0x01})

	v, err := r.ReadUint32BE()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), v)

	_, err = r.ReadUint32BE()
	assert.ErrorIs(t, err, ErrUnexpectedEnd)
	assert.Equal(t, 4, r.Offset())
}

func TestShortReadLeavesOffset(t *testing.T) {
	r := NewReader([]byte{0xaa, 0xbb, 0xcc})
	require.NoError(t, r.Skip(1))

	_, err := r.ReadUint32()
	assert.ErrorIs(t, err, ErrUnexpectedEnd)
	assert.Equal(t, 1, r.Offset())

	_, err = r.ReadBytes(3)
	assert.ErrorIs(t, err, ErrUnexpectedEnd)
	assert.Equal(t, 1, r.Offset())

	v, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xccbb), v)

	_, err = r.ReadUint8()
	assert.ErrorIs(t, err, ErrUnexpectedEnd)
}

func TestReadString(t *testing.T) {
	tests := []struct {
		name  string
		width int
		in    []byte
		want  string
		off   int
		err   error
	}{
		{"u8 prefix", 1, []byte{3, 'a', 'b', 'c', 'x'}, "abc", 4, nil},
		{"u16 prefix", 2, []byte{2, 0, 'h', 'i'}, "hi", 4, nil},
		{"u32 prefix", 4, []byte{1, 0, 0, 0, 'z'}, "z", 5, nil},
		{"empty", 1, []byte{0}, "", 1, nil},
		{"truncated payload", 1, []byte{5, 'a', 'b'}, "", 0, ErrUnexpectedEnd},
		{"truncated prefix", 2, []byte{5}, "", 0, ErrUnexpectedEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.in)
			s, err := r.ReadString(tt.width)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, s)
			}
			assert.Equal(t, tt.off, r.Offset())
		})
	}
}

func TestSeek(t *testing.T) {
	r := NewReader(make([]byte, 8))
	require.NoError(t, r.Seek(8))
	assert.Equal(t, 0, r.Len())
	assert.ErrorIs(t, r.Seek(9), ErrUnexpectedEnd)
	assert.Equal(t, 8, r.Offset())
	require.NoError(t, r.Seek(2))
	assert.Equal(t, 6, r.Len())
}

func TestReadBytesAliases(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	r := NewReader(buf)
	b, err := r.ReadBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)
	assert.Equal(t, 2, cap(b))
}
