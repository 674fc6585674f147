package jit

import "fmt"

// Broadcasts - replicate one element to every lane
//
//   VBROADCASTSS zmm1{k}{z}, xmm2/m32   EVEX.512.66.0F38.W0 18 /r  (AVX512F)
//   VPBROADCASTB xmm1{k}{z}, m8         EVEX.128.66.0F38.W0 78 /r  (AVX512BW+VL)
//   VPBROADCASTW xmm1{k}{z}, m16        EVEX.128.66.0F38.W0 79 /r  (AVX512BW+VL)
//
// The byte and word forms are how a single narrow element is loaded
// without touching its neighbours in memory.

var (
	opVbroadcastss = evexOp{name: "vbroadcastss", mm: map0F38, pp: pp66, w: 0, op: 0x18}
	opVpbroadcastb = evexOp{name: "vpbroadcastb", mm: map0F38, pp: pp66, w: 0, op: 0x78}
	opVpbroadcastw = evexOp{name: "vpbroadcastw", mm: map0F38, pp: pp66, w: 0, op: 0x79}
)

// VBroadcastSS replicates float32 lane 0 of src to every lane of dst
func (g *Generator) VBroadcastSS(dst, src Vec, mask Opmask, zero bool) {
	if !g.checkVecs("vbroadcastss", dst, src) || !g.checkMask("vbroadcastss", mask) {
		return
	}
	aaa, z := maskBits(mask, zero)
	text := fmt.Sprintf("vbroadcastss %s%s, %s", dst, maskSuffix(mask, z), src.AsXmm())
	g.emit(text, evexRR(opVbroadcastss, vectorLength(dst.Size), dst.Encoding, 0, src.Encoding, aaa, z))
}

// VBroadcastSSMem replicates the float32 at src to every lane of dst
func (g *Generator) VBroadcastSSMem(dst Vec, src RegExp, mask Opmask, zero bool) {
	g.broadcastMem(opVbroadcastss, 4, dst, src, mask, zero)
}

// VPBroadcastBMem replicates the byte at src to every byte of dst
func (g *Generator) VPBroadcastBMem(dst Vec, src RegExp, mask Opmask, zero bool) {
	g.broadcastMem(opVpbroadcastb, 1, dst, src, mask, zero)
}

// VPBroadcastWMem replicates the word at src to every word of dst
func (g *Generator) VPBroadcastWMem(dst Vec, src RegExp, mask Opmask, zero bool) {
	g.broadcastMem(opVpbroadcastw, 2, dst, src, mask, zero)
}

func (g *Generator) broadcastMem(e evexOp, width int, dst Vec, src RegExp, mask Opmask, zero bool) {
	if !g.checkVecs(e.name, dst) || !g.checkMem(e.name, src) || !g.checkMask(e.name, mask) {
		return
	}
	aaa, z := maskBits(mask, zero)
	text := fmt.Sprintf("%s %s%s, %s %s", e.name, dst, maskSuffix(mask, z), memSize(width), src)
	g.emit(text, evexRM(e, vectorLength(dst.Size), dst.Encoding, 0, src, aaa, z, false))
}
