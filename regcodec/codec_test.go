package regcodec

import (
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsigned(t *testing.T) {
	tests := []struct {
		buf    []byte
		order  ByteOrder
		expect uint32
	}{
		{[]byte{0x00}, BigEndian, 0},
		{[]byte{0xFF}, LittleEndian, 0xFF},
		{[]byte{0x12, 0x34}, BigEndian, 0x1234},
		{[]byte{0x12, 0x34}, LittleEndian, 0x3412},
		{[]byte{0x01, 0x02, 0x03}, BigEndian, 0x010203},
		{[]byte{0x01, 0x02, 0x03}, LittleEndian, 0x030201},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF}, BigEndian, 0xFFFFFFFF},
		{[]byte{0x80, 0x00, 0x00, 0x00}, BigEndian, 0x80000000},
		{[]byte{0x80, 0x00, 0x00, 0x00}, LittleEndian, 0x80},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s_%s", hex.EncodeToString(test.buf), test.order), func(t *testing.T) {
			assert.Equal(t, test.expect, Unsigned(test.buf, test.order))
		})
	}
}

func TestUnsigned_BadLength(t *testing.T) {
	assert.Panics(t, func() { Unsigned(nil, BigEndian) })
	assert.Panics(t, func() { Unsigned(make([]byte, 5), LittleEndian) })
}

func TestSigned(t *testing.T) {
	tests := []struct {
		buf    []byte
		order  ByteOrder
		width  int
		expect int32
	}{
		// full-byte widths
		{[]byte{0x80}, BigEndian, 8, -128},
		{[]byte{0x7F}, BigEndian, 8, 127},
		{[]byte{0xFF, 0x38}, BigEndian, 16, -200},
		{[]byte{0x01, 0x90}, BigEndian, 16, 400},
		{[]byte{0x38, 0xFF}, LittleEndian, 16, -200},
		// 12-bit field packed in a 2-byte container, container high bits ignored
		{[]byte{0xFF, 0xFF}, BigEndian, 12, -1},
		{[]byte{0x08, 0x00}, BigEndian, 12, -2048},
		{[]byte{0x07, 0xFF}, BigEndian, 12, 2047},
		{[]byte{0xF7, 0xFF}, BigEndian, 12, 2047},
		// 24-bit field in 3 bytes
		{[]byte{0x80, 0x00, 0x00}, BigEndian, 24, -8388608},
		{[]byte{0x7F, 0xFF, 0xFF}, BigEndian, 24, 8388607},
		{[]byte{0xFF, 0xFF, 0xFF}, BigEndian, 24, -1},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s_w%d", hex.EncodeToString(test.buf), test.width), func(t *testing.T) {
			assert.Equal(t, test.expect, Signed(test.buf, test.order, test.width))
		})
	}
}

func TestSigned_BadWidth(t *testing.T) {
	assert.Panics(t, func() { Signed([]byte{0x00}, BigEndian, 0) })
	assert.Panics(t, func() { Signed([]byte{0x00}, BigEndian, 9) })
	assert.Panics(t, func() { Signed([]byte{0x00, 0x00}, BigEndian, 33) })
}

func TestSignExtend_Boundaries(t *testing.T) {
	for _, width := range []int{8, 12, 16, 20, 24, 32} {
		t.Run(fmt.Sprintf("w%d", width), func(t *testing.T) {
			var min, max int32
			if width == 32 {
				min, max = -2147483648, 2147483647
			} else {
				min = -(int32(1) << (width - 1))
				max = int32(1)<<(width-1) - 1
			}
			assert.Equal(t, min, SignExtend(uint32(min), width))
			assert.Equal(t, max, SignExtend(uint32(max), width))
			assert.Equal(t, int32(0), SignExtend(0, width))
			assert.Equal(t, int32(-1), SignExtend(^uint32(0)>>(32-width), width))
		})
	}
}

// Round-trip: every representable value survives encode/decode at the
// declared width. Full range at 8/12 bits, boundary sweep at the wider widths.
func TestSigned_RoundTrip(t *testing.T) {
	for _, order := range []ByteOrder{LittleEndian, BigEndian} {
		for _, width := range []int{8, 12} {
			t.Run(fmt.Sprintf("%s_w%d_full", order, width), func(t *testing.T) {
				buf := make([]byte, (width+7)/8)
				min := -(int32(1) << (width - 1))
				max := int32(1)<<(width-1) - 1
				for v := min; ; v++ {
					PutSigned(buf, order, width, v)
					assert.Equal(t, v, Signed(buf, order, width))
					if v == max {
						break
					}
				}
			})
		}
		for _, width := range []int{16, 20, 24, 32} {
			t.Run(fmt.Sprintf("%s_w%d_bounds", order, width), func(t *testing.T) {
				buf := make([]byte, (width+7)/8)
				var min, max int32
				if width == 32 {
					min, max = -2147483648, 2147483647
				} else {
					min = -(int32(1) << (width - 1))
					max = int32(1)<<(width-1) - 1
				}
				for _, v := range []int32{min, min + 1, -1, 0, 1, max - 1, max} {
					PutSigned(buf, order, width, v)
					assert.Equal(t, v, Signed(buf, order, width), "value %d", v)
				}
			})
		}
	}
}

func TestUnsigned_RoundTrip(t *testing.T) {
	for _, order := range []ByteOrder{LittleEndian, BigEndian} {
		for size := 1; size <= 4; size++ {
			t.Run(fmt.Sprintf("%s_%dB", order, size), func(t *testing.T) {
				buf := make([]byte, size)
				var max uint32 = 0xFFFFFFFF
				if size < 4 {
					max = 1<<(8*size) - 1
				}
				for _, v := range []uint32{0, 1, max >> 1, max - 1, max} {
					PutUnsigned(buf, order, v)
					assert.Equal(t, v, Unsigned(buf, order))
				}
			})
		}
	}
}

func TestPutSigned_OutOfRange(t *testing.T) {
	assert.Panics(t, func() { PutSigned(make([]byte, 1), BigEndian, 8, 128) })
	assert.Panics(t, func() { PutSigned(make([]byte, 2), BigEndian, 12, -2049) })
}

func TestBitfield(t *testing.T) {
	tests := []struct {
		b      byte
		mask   byte
		shift  uint
		expect byte
	}{
		{0x00, 0x0C, 2, 0},
		{0xFF, 0x0C, 2, 3},
		{0b00000100, 0x0C, 2, 1},
		{0b00001100, 0x0C, 2, 3},
		{0b11110011, 0x0C, 2, 0},
		{0xC0, 0xC0, 6, 3},
		{0x40, 0xC0, 6, 1},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#02x_%#02x", test.b, test.mask), func(t *testing.T) {
			assert.Equal(t, test.expect, Bitfield(test.b, test.mask, test.shift))
		})
	}
}

func TestADC20(t *testing.T) {
	tests := []struct {
		msb, lsb, xlsb byte
		expect         uint32
	}{
		{0x00, 0x00, 0x00, 0},
		{0xFF, 0xFF, 0xF0, 0xFFFFF},
		{0xFF, 0xFF, 0xFF, 0xFFFFF}, // low nibble of xlsb is padding
		{0x80, 0x00, 0x00, 1 << 19},
		{0x00, 0x00, 0x10, 1},
		{0x65, 0x5A, 0xC0, 415148},
		{0x7E, 0xED, 0x00, 519888},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%02x%02x%02x", test.msb, test.lsb, test.xlsb), func(t *testing.T) {
			assert.Equal(t, test.expect, ADC20(test.msb, test.lsb, test.xlsb))
		})
	}
}

func TestADC16(t *testing.T) {
	assert.Equal(t, uint32(0), ADC16(0x00, 0x00))
	assert.Equal(t, uint32(0xFFFF), ADC16(0xFF, 0xFF))
	assert.Equal(t, uint32(1), ADC16(0x00, 0x01))
	assert.Equal(t, uint32(1<<15), ADC16(0x80, 0x00))
	assert.Equal(t, uint32(28000), ADC16(0x6D, 0x60))
}
