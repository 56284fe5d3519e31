// Package regcodec decodes raw register bytes into typed scalars and back.
// It is pure and stateless; every function here is safe for concurrent use.
//
// Length and width arguments are part of the caller's contract with the
// register map: passing a buffer of the wrong size for the target register is
// a programming error, not a runtime sensor condition, so these functions
// panic instead of returning an error.
package regcodec

import "fmt"

// ByteOrder declares how a multi-byte register value is laid out on the wire.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// Unsigned concatenates 1 to 4 bytes into an unsigned integer per the
// declared byte order.
func Unsigned(buf []byte, order ByteOrder) uint32 {
	if len(buf) < 1 || len(buf) > 4 {
		panic(fmt.Sprintf("regcodec: unsigned decode of %d bytes", len(buf)))
	}
	var v uint32
	if order == BigEndian {
		for _, b := range buf {
			v = v<<8 | uint32(b)
		}
		return v
	}
	for i := len(buf) - 1; i >= 0; i-- {
		v = v<<8 | uint32(buf[i])
	}
	return v
}

// Signed decodes a two's-complement value of the given bit width. The width
// may be narrower than the byte container (12-bit fields in 2 bytes, 24-bit
// fields in 4 bytes); higher container bits are masked off before the sign
// bit is replicated.
func Signed(buf []byte, order ByteOrder, width int) int32 {
	if width < 1 || width > 32 || width > 8*len(buf) {
		panic(fmt.Sprintf("regcodec: signed decode of %d bits from %d bytes", width, len(buf)))
	}
	return SignExtend(Unsigned(buf, order), width)
}

// SignExtend reconstructs a signed value from a raw field of the given bit
// width by replicating its top bit into the higher-order bits.
func SignExtend(v uint32, width int) int32 {
	if width < 1 || width > 32 {
		panic(fmt.Sprintf("regcodec: sign extension at width %d", width))
	}
	if width < 32 {
		v &= 1<<width - 1
		if v&(1<<(width-1)) != 0 {
			v |= ^uint32(1<<width - 1)
		}
	}
	return int32(v)
}

// PutUnsigned writes v into buf (1 to 4 bytes) per the declared byte order.
// Bits of v beyond the buffer capacity must be zero.
func PutUnsigned(buf []byte, order ByteOrder, v uint32) {
	if len(buf) < 1 || len(buf) > 4 {
		panic(fmt.Sprintf("regcodec: unsigned encode into %d bytes", len(buf)))
	}
	if len(buf) < 4 && v>>(8*len(buf)) != 0 {
		panic(fmt.Sprintf("regcodec: value %#x does not fit in %d bytes", v, len(buf)))
	}
	for i := range buf {
		shift := 8 * i
		if order == BigEndian {
			shift = 8 * (len(buf) - 1 - i)
		}
		buf[i] = byte(v >> shift)
	}
}

// PutSigned encodes v as a two's-complement field of the given bit width.
// v must be representable at that width.
func PutSigned(buf []byte, order ByteOrder, width int, v int32) {
	if width < 1 || width > 32 || width > 8*len(buf) {
		panic(fmt.Sprintf("regcodec: signed encode of %d bits into %d bytes", width, len(buf)))
	}
	if width < 32 {
		min, max := -(int32(1) << (width - 1)), int32(1)<<(width-1)-1
		if v < min || v > max {
			panic(fmt.Sprintf("regcodec: value %d out of range for %d-bit field", v, width))
		}
	}
	raw := uint32(v)
	if width < 32 {
		raw &= 1<<width - 1
	}
	PutUnsigned(buf, order, raw)
}

// Bitfield isolates a sub-byte field: the byte is masked, then shifted right.
func Bitfield(b byte, mask byte, shift uint) byte {
	return (b & mask) >> shift
}

// ADC20 reassembles a 20-bit ADC sample split across three consecutive
// registers: a full MSB, a full LSB and the top nibble of an XLSB.
func ADC20(msb, lsb, xlsb byte) uint32 {
	return uint32(msb)<<12 | uint32(lsb)<<4 | uint32(xlsb)>>4
}

// ADC16 reassembles a 16-bit ADC sample from its MSB and LSB registers.
func ADC16(msb, lsb byte) uint32 {
	return uint32(msb)<<8 | uint32(lsb)
}
