/*
Package compression unwraps the containers that asset files are shipped in.

A file may start with a header:

	"SC"
	version u32 big endian
	version u32 big endian, only present when the first version is 4
	hashLength u32 big endian
	hash[hashLength]

The body that follows, or the whole file when there is no header, is one of:

  - a zstd frame, recognised by its magic number
  - an LZHAM stream starting "SCLZ", which is not supported
  - an LZMA stream whose header carries a 4 byte uncompressed size in place
    of the usual 8 bytes

The LZMA header is widened back to the standard layout before decoding.
*/
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bodgit/scextract/bytestream"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz/lzma"
)

const (
	headerMagic = "SC"
	lzhamMagic  = "SCLZ"

	// props byte plus dictionary size
	lzmaPropsSize = 5
	// lzmaPropsSize plus the truncated uncompressed size
	lzmaShortHeaderSize = lzmaPropsSize + 4
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	// ErrUnsupportedCompression is returned for compression schemes that
	// cannot be decoded.
	ErrUnsupportedCompression = errors.New("compression: unsupported compression")
	// ErrNoHeader is returned by ReadHeader when there is no container
	// header.
	ErrNoHeader = errors.New("compression: no header")
	// ErrCorrupt is returned when a compressed body cannot be decoded.
	ErrCorrupt = errors.New("compression: corrupt data")
)

var (
	zstdOnce    sync.Once
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func decoder() (*zstd.Decoder, error) {
	zstdOnce.Do(func() {
		// A nil reader gives a decoder that is only used for DecodeAll
		// which is safe for concurrent use
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdDecoder, zstdErr
}

// Header describes the optional container header.
type Header struct {
	Version uint32
	Hash    []byte
	// Size is the number of bytes the header occupies.
	Size int
}

// HasHeader reports whether b starts with a well-formed container header.
func HasHeader(b []byte) bool {
	_, err := ReadHeader(b)
	return err == nil
}

// ReadHeader parses the container header at the start of b.
func ReadHeader(b []byte) (*Header, error) {
	r := bytestream.NewReader(b)

	magic, err := r.ReadBytes(len(headerMagic))
	if err != nil {
		return nil, err
	}
	if string(magic) != headerMagic {
		return nil, ErrNoHeader
	}

	h := new(Header)
	if h.Version, err = r.ReadUint32BE(); err != nil {
		return nil, err
	}
	if h.Version == 4 {
		if h.Version, err = r.ReadUint32BE(); err != nil {
			return nil, err
		}
	}

	n, err := r.ReadUint32BE()
	if err != nil {
		return nil, err
	}
	if h.Hash, err = r.ReadBytes(int(n)); err != nil {
		return nil, err
	}
	h.Size = r.Offset()

	return h, nil
}

// IsLZMA reports whether b looks like a bare LZMA stream with the default
// properties byte.
func IsLZMA(b []byte) bool {
	return len(b) >= lzmaShortHeaderSize && b[0] == 0x5d && b[1] == 0x00
}

// IsZstd reports whether b starts with a zstd frame.
func IsZstd(b []byte) bool {
	return bytes.HasPrefix(b, zstdMagic)
}

// Unwrap strips any container header from b and decompresses the body.
func Unwrap(b []byte) ([]byte, error) {
	if h, err := ReadHeader(b); err == nil {
		b = b[h.Size:]
	}
	return Decompress(b)
}

// Decompress decodes a headerless compressed body.
func Decompress(b []byte) ([]byte, error) {
	switch {
	case IsZstd(b):
		d, err := decoder()
		if err != nil {
			return nil, err
		}
		out, err := d.DecodeAll(b, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return out, nil
	case bytes.HasPrefix(b, []byte(lzhamMagic)):
		return nil, fmt.Errorf("%w: lzham", ErrUnsupportedCompression)
	default:
		return decompressLZMA(b)
	}
}

func decompressLZMA(b []byte) ([]byte, error) {
	if len(b) < lzmaShortHeaderSize {
		return nil, fmt.Errorf("%w: lzma header needs %d bytes, have %d", bytestream.ErrUnexpectedEnd, lzmaShortHeaderSize, len(b))
	}

	// An all ones size means unknown so widen it with ones rather than
	// zeroes to keep that meaning
	pad := []byte{0, 0, 0, 0}
	if bytes.Equal(b[lzmaPropsSize:lzmaShortHeaderSize], []byte{0xff, 0xff, 0xff, 0xff}) {
		pad = []byte{0xff, 0xff, 0xff, 0xff}
	}

	r, err := lzma.NewReader(io.MultiReader(
		bytes.NewReader(b[:lzmaShortHeaderSize]),
		bytes.NewReader(pad),
		bytes.NewReader(b[lzmaShortHeaderSize:]),
	))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return out, nil
}
