package jit

import "encoding/binary"

// Instruction encoding helpers shared by the emitters.
//
// EVEX prefix (AVX-512), four bytes:
//   62 | R X B R' 0 m m m | W v v v v 1 p p | z L'L b V' a a a
// R, X, B, R', vvvv and V' are stored inverted.

// opcode maps
const (
	map0F   = 1
	map0F38 = 2
	map0F3A = 3
)

// implied SIMD prefixes
const (
	ppNone = 0
	pp66   = 1
	ppF3   = 2
	ppF2   = 3
)

// evexOp holds the fixed fields of one EVEX opcode
type evexOp struct {
	name string
	mm   uint8
	pp   uint8
	w    uint8
	op   uint8
}

// vectorLength returns the L'L field for a register size in bits
func vectorLength(size int) uint8 {
	switch size {
	case 128:
		return 0
	case 256:
		return 1
	default:
		return 2
	}
}

func evexPrefix(e evexOp, ll, reg, vvvv, b, x, mask uint8, zero, bcast bool) []byte {
	p0 := e.mm & 0x03
	if reg&8 == 0 {
		p0 |= 0x80 // R
	}
	if x&1 == 0 {
		p0 |= 0x40 // X
	}
	if b&8 == 0 {
		p0 |= 0x20 // B
	}
	if reg&16 == 0 {
		p0 |= 0x10 // R'
	}

	p1 := e.w<<7 | (^vvvv&0x0F)<<3 | 0x04 | e.pp&0x03

	p2 := (ll&0x03)<<5 | mask&0x07
	if zero {
		p2 |= 0x80 // z
	}
	if bcast {
		p2 |= 0x10 // b
	}
	if vvvv&16 == 0 {
		p2 |= 0x08 // V'
	}

	return []byte{0x62, p0, p1, p2}
}

// evexRR encodes "op reg, vvvv, rm" with all three operands in vector
// registers. Pass vvvv=0 when the opcode has no second source.
func evexRR(e evexOp, ll, reg, vvvv, rm, mask uint8, zero bool) []byte {
	out := evexPrefix(e, ll, reg, vvvv, rm, rm>>4, mask, zero, false)
	return append(out, e.op, modrmReg(reg, rm))
}

// evexRM encodes "op reg, vvvv, [base + disp]"
func evexRM(e evexOp, ll, reg, vvvv uint8, mem RegExp, mask uint8, zero, bcast bool) []byte {
	base := mem.Base.Encoding
	out := evexPrefix(e, ll, reg, vvvv, base, 0, mask, zero, bcast)
	out = append(out, e.op)
	return append(out, memOperand(reg, base, mem.Disp, false)...)
}

func modrmReg(reg, rm uint8) byte {
	return 0xC0 | (reg&7)<<3 | rm&7
}

// memOperand encodes ModR/M, SIB and displacement for [base + disp].
//
// EVEX scales an 8-bit displacement by the memory operand size, so for
// EVEX instructions (disp8 == false) a non-zero displacement is always
// written as disp32. rbp/r13 cannot be encoded without a displacement and
// get an explicit zero disp8, which is zero under any scale.
func memOperand(reg, base uint8, disp int32, disp8 bool) []byte {
	var mod uint8
	switch {
	case disp == 0 && base&7 != 5:
		mod = 0
	case disp == 0:
		mod = 1
	case disp8 && disp >= -128 && disp <= 127:
		mod = 1
	default:
		mod = 2
	}

	out := []byte{mod<<6 | (reg&7)<<3 | base&7}
	if base&7 == 4 {
		out = append(out, 0x24) // SIB for rsp/r12: no index, base only
	}
	switch mod {
	case 1:
		out = append(out, byte(int8(disp)))
	case 2:
		out = binary.LittleEndian.AppendUint32(out, uint32(disp))
	}
	return out
}

// rex builds a REX prefix; w selects 64-bit operand size
func rex(w bool, reg, base uint8) byte {
	r := byte(0x40)
	if w {
		r |= 0x08
	}
	if reg&8 != 0 {
		r |= 0x04
	}
	if base&8 != 0 {
		r |= 0x01
	}
	return r
}

// vex encodes a VEX prefix, using the two-byte form when possible.
// Only map 0F is used by the emitters here.
func vex(l, pp, reg, vvvv, rm uint8, w bool) []byte {
	if rm&8 == 0 && !w {
		b := byte(0x80)
		if reg&8 != 0 {
			b = 0
		}
		return []byte{0xC5, b | (^vvvv&0x0F)<<3 | (l&1)<<2 | pp&3}
	}
	b1 := byte(0x40 | 0x01) // ~X, map 0F
	if reg&8 == 0 {
		b1 |= 0x80
	}
	if rm&8 == 0 {
		b1 |= 0x20
	}
	b2 := (^vvvv&0x0F)<<3 | (l&1)<<2 | pp&3
	if w {
		b2 |= 0x80
	}
	return []byte{0xC4, b1, b2}
}
