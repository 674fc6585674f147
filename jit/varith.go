package jit

import "fmt"

// VADDPS / VSUBPS / VMULPS / VMINPS / VMAXPS - packed float32 arithmetic
//
// These combine a loaded operand with a partial result:
//   dst{k} = src1 OP src2         (merge masking, inactive lanes keep dst)
//
// The second source can be a register, a full memory vector, or a single
// float32 replicated to every lane through EVEX embedded broadcast.
//
//   VADDPS zmm1{k1}{z}, zmm2, zmm3/m512/m32bcst   EVEX.512.0F.W0 58 /r
//   VMULPS                                        EVEX.512.0F.W0 59 /r
//   VSUBPS                                        EVEX.512.0F.W0 5C /r
//   VMINPS                                        EVEX.512.0F.W0 5D /r
//   VMAXPS                                        EVEX.512.0F.W0 5F /r

// PackedOp selects one of the packed float32 arithmetic instructions
type PackedOp int

const (
	PackedAdd PackedOp = iota
	PackedSub
	PackedMul
	PackedMin
	PackedMax
	numPackedOps
)

var packedOps = [numPackedOps]evexOp{
	PackedAdd: {name: "vaddps", mm: map0F, pp: ppNone, w: 0, op: 0x58},
	PackedSub: {name: "vsubps", mm: map0F, pp: ppNone, w: 0, op: 0x5C},
	PackedMul: {name: "vmulps", mm: map0F, pp: ppNone, w: 0, op: 0x59},
	PackedMin: {name: "vminps", mm: map0F, pp: ppNone, w: 0, op: 0x5D},
	PackedMax: {name: "vmaxps", mm: map0F, pp: ppNone, w: 0, op: 0x5F},
}

func (op PackedOp) valid() bool {
	return op >= 0 && op < numPackedOps
}

func (op PackedOp) String() string {
	if !op.valid() {
		return fmt.Sprintf("PackedOp(%d)", int(op))
	}
	return packedOps[op].name
}

// VPackedPS emits dst{mask} = src1 OP src2 with all operands in registers
func (g *Generator) VPackedPS(op PackedOp, dst, src1, src2 Vec, mask Opmask) {
	if !op.valid() {
		g.fail(op.String(), CategoryOperand, fmt.Errorf("%w: unknown packed operation", ErrInvalidOperand))
		return
	}
	e := packedOps[op]
	if !g.checkVecs(e.name, dst, src1, src2) || !g.checkSameSize(e.name, dst, src1, src2) || !g.checkMask(e.name, mask) {
		return
	}
	aaa, _ := maskBits(mask, false)
	text := fmt.Sprintf("%s %s%s, %s, %s", e.name, dst, maskSuffix(mask, false), src1, src2)
	g.emit(text, evexRR(e, vectorLength(dst.Size), dst.Encoding, src1.Encoding, src2.Encoding, aaa, false))
}

// VPackedPSMem emits dst{mask} = src1 OP [src2]. With bcast set, the
// single float32 at [src2] is used for every lane ({1toN}).
func (g *Generator) VPackedPSMem(op PackedOp, dst, src1 Vec, src2 RegExp, mask Opmask, bcast bool) {
	if !op.valid() {
		g.fail(op.String(), CategoryOperand, fmt.Errorf("%w: unknown packed operation", ErrInvalidOperand))
		return
	}
	e := packedOps[op]
	if !g.checkVecs(e.name, dst, src1) || !g.checkSameSize(e.name, dst, src1) ||
		!g.checkMem(e.name, src2) || !g.checkMask(e.name, mask) {
		return
	}
	aaa, _ := maskBits(mask, false)
	var operand string
	if bcast {
		operand = fmt.Sprintf("dword %s{1to%d}", src2, dst.Lanes())
	} else {
		operand = fmt.Sprintf("%s %s", memSize(dst.Size/8), src2)
	}
	text := fmt.Sprintf("%s %s%s, %s, %s", e.name, dst, maskSuffix(mask, false), src1, operand)
	g.emit(text, evexRM(e, vectorLength(dst.Size), dst.Encoding, src1.Encoding, src2, aaa, false, bcast))
}

// VAddPS emits dst{mask} = src1 + src2
func (g *Generator) VAddPS(dst, src1, src2 Vec, mask Opmask) {
	g.VPackedPS(PackedAdd, dst, src1, src2, mask)
}
