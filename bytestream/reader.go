/*
Package bytestream implements a bounds-checked reader over an immutable byte
slice. Integers are little endian unless the method name says otherwise.

Every read either consumes exactly the requested width and advances the
offset, or fails with ErrUnexpectedEnd and leaves the offset untouched.
*/
package bytestream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnexpectedEnd is returned when fewer bytes remain than a read requires.
var ErrUnexpectedEnd = errors.New("bytestream: unexpected end of data")

// Reader is a positioned reader over a byte slice. The slice is never
// modified.
type Reader struct {
	b   []byte
	off int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

func (r *Reader) need(n int) error {
	if n < 0 || len(r.b)-r.off < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnexpectedEnd, n, r.off, len(r.b)-r.off)
	}
	return nil
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.off }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.b) - r.off }

// Size returns the length of the underlying buffer.
func (r *Reader) Size() int { return len(r.b) }

// Seek moves the read position to pos, which may equal Size.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.b) {
		return fmt.Errorf("%w: seek to %d beyond %d bytes", ErrUnexpectedEnd, pos, len(r.b))
	}
	r.off = pos
	return nil
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.b[r.off]
	r.off++
	return v, nil
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v, nil
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v, nil
}

// ReadUint32BE reads a big-endian uint32, as used by container headers.
func (r *Reader) ReadUint32BE() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v, nil
}

// ReadInt16 reads a little-endian int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadBytes returns the next n bytes. The returned slice aliases the
// underlying buffer and must not be modified.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.b[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}

// ReadString reads a string preceded by an unsigned little-endian length
// of width bytes, which must be 1, 2 or 4. Nothing is consumed unless both
// the prefix and the payload are present.
func (r *Reader) ReadString(width int) (string, error) {
	if err := r.need(width); err != nil {
		return "", err
	}

	var n int
	switch width {
	case 1:
		n = int(r.b[r.off])
	case 2:
		n = int(binary.LittleEndian.Uint16(r.b[r.off:]))
	case 4:
		n = int(binary.LittleEndian.Uint32(r.b[r.off:]))
	default:
		return "", fmt.Errorf("bytestream: invalid length prefix width %d", width)
	}

	if n < 0 || len(r.b)-r.off-width < n {
		return "", fmt.Errorf("%w: string of %d bytes at offset %d", ErrUnexpectedEnd, n, r.off)
	}

	s := string(r.b[r.off+width : r.off+width+n])
	r.off += width + n
	return s, nil
}
