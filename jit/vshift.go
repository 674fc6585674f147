package jit

import "fmt"

// VPSLLD - shift dword lanes left by an immediate
//
// bfloat16 is the upper half of a float32, so a zero-extended bf16 lane
// shifted left by 16 is the float32 value.
//
//   VPSLLD zmm1{k}{z}, zmm2/m512, imm8   EVEX.512.66.0F.W0 72 /6 ib
//
// The destination goes in EVEX.vvvv and ModR/M.reg holds the /6 opcode
// extension.

var opVpslld = evexOp{name: "vpslld", mm: map0F, pp: pp66, w: 0, op: 0x72}

// VPSllD emits dst{mask} = src << imm for every dword lane
func (g *Generator) VPSllD(dst, src Vec, imm uint8, mask Opmask, zero bool) {
	if !g.checkVecs("vpslld", dst, src) || !g.checkSameSize("vpslld", dst, src) || !g.checkMask("vpslld", mask) {
		return
	}
	aaa, z := maskBits(mask, zero)
	text := fmt.Sprintf("vpslld %s%s, %s, %d", dst, maskSuffix(mask, z), src, imm)
	bs := evexRR(opVpslld, vectorLength(dst.Size), 6, dst.Encoding, src.Encoding, aaa, z)
	g.emit(text, append(bs, imm))
}
