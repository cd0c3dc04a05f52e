package pixel

// Channel widening tables, indexed by the raw channel value.
type tables struct {
	x1 [2]byte
	x4 [16]byte
	x5 [32]byte
	x6 [64]byte
	// lumaAlpha sets the alpha of L8 pixels to their luminance rather
	// than opaque.
	lumaAlpha bool
}

var (
	replicate = func() *tables {
		t := &tables{x1: [2]byte{0, 0xff}}
		for v := range t.x4 {
			t.x4[v] = byte(v * 17)
		}
		for v := range t.x5 {
			t.x5[v] = byte(v<<3 | v>>2)
		}
		for v := range t.x6 {
			t.x6[v] = byte(v<<2 | v>>4)
		}
		return t
	}()
	shift = func() *tables {
		t := &tables{x1: [2]byte{0, 0x80}, lumaAlpha: true}
		for v := range t.x4 {
			t.x4[v] = byte(v << 4)
		}
		for v := range t.x5 {
			t.x5[v] = byte(v << 3)
		}
		for v := range t.x6 {
			t.x6[v] = byte(v << 2)
		}
		return t
	}()
)

func tablesFor(e Expansion) *tables {
	if e == ExpandShift {
		return shift
	}
	return replicate
}

func word(b []byte, i int) uint16 {
	return uint16(b[i]) | uint16(b[i+1])<<8
}

func decodeRGBA8888(dst, src []byte, _ *tables) {
	copy(dst, src)
}

func decodeRGBA4444(dst, src []byte, t *tables) {
	for i, j := 0, 0; i < len(src); i, j = i+2, j+4 {
		p := word(src, i)
		dst[j+0] = t.x4[p>>12&0xf]
		dst[j+1] = t.x4[p>>8&0xf]
		dst[j+2] = t.x4[p>>4&0xf]
		dst[j+3] = t.x4[p&0xf]
	}
}

func decodeRGBA5551(dst, src []byte, t *tables) {
	for i, j := 0, 0; i < len(src); i, j = i+2, j+4 {
		p := word(src, i)
		dst[j+0] = t.x5[p>>11&0x1f]
		dst[j+1] = t.x5[p>>6&0x1f]
		dst[j+2] = t.x5[p>>1&0x1f]
		dst[j+3] = t.x1[p&1]
	}
}

func decodeRGB565(dst, src []byte, t *tables) {
	for i, j := 0, 0; i < len(src); i, j = i+2, j+4 {
		p := word(src, i)
		dst[j+0] = t.x5[p>>11&0x1f]
		dst[j+1] = t.x6[p>>5&0x3f]
		dst[j+2] = t.x5[p&0x1f]
		dst[j+3] = 0xff
	}
}

func decodeLA88(dst, src []byte, _ *tables) {
	for i, j := 0, 0; i < len(src); i, j = i+2, j+4 {
		l, a := src[i+1], src[i]
		dst[j+0] = l
		dst[j+1] = l
		dst[j+2] = l
		dst[j+3] = a
	}
}

func decodeL8(dst, src []byte, t *tables) {
	for i, j := 0, 0; i < len(src); i, j = i+1, j+4 {
		l := src[i]
		dst[j+0] = l
		dst[j+1] = l
		dst[j+2] = l
		dst[j+3] = 0xff
		if t.lumaAlpha {
			dst[j+3] = l
		}
	}
}
