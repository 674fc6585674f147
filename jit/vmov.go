package jit

import "fmt"

// VMOVUPS / VMOVD - unaligned vector loads and stores
//
// Used by host kernels to bring partial results in and out of vector
// registers, and by the post-op injector to load single scalars.
//
//   VMOVUPS zmm1{k1}{z}, m512   EVEX.512.0F.W0 10 /r
//   VMOVUPS m512{k1}, zmm1      EVEX.512.0F.W0 11 /r
//   VMOVD   xmm1, m32           EVEX.128.66.0F.W0 6E /r
//
// Masked loads suppress faults on inactive lanes, so a tail load may end
// right before an unmapped page.

var (
	opVmovupsLoad  = evexOp{name: "vmovups", mm: map0F, pp: ppNone, w: 0, op: 0x10}
	opVmovupsStore = evexOp{name: "vmovups", mm: map0F, pp: ppNone, w: 0, op: 0x11}
	opVmovd        = evexOp{name: "vmovd", mm: map0F, pp: pp66, w: 0, op: 0x6E}
)

// VMovupsLoad loads a full vector: dst{mask}{z} = [src]
func (g *Generator) VMovupsLoad(dst Vec, src RegExp, mask Opmask, zero bool) {
	if !g.checkVecs("vmovups", dst) || !g.checkMem("vmovups", src) || !g.checkMask("vmovups", mask) {
		return
	}
	aaa, z := maskBits(mask, zero)
	text := fmt.Sprintf("vmovups %s%s, %s %s", dst, maskSuffix(mask, z), memSize(dst.Size/8), src)
	g.emit(text, evexRM(opVmovupsLoad, vectorLength(dst.Size), dst.Encoding, 0, src, aaa, z, false))
}

// VMovupsStore stores a full vector: [dst]{mask} = src
func (g *Generator) VMovupsStore(dst RegExp, src Vec, mask Opmask) {
	if !g.checkVecs("vmovups", src) || !g.checkMem("vmovups", dst) || !g.checkMask("vmovups", mask) {
		return
	}
	aaa, _ := maskBits(mask, false)
	text := fmt.Sprintf("vmovups %s %s%s, %s", memSize(src.Size/8), dst, maskSuffix(mask, false), src)
	g.emit(text, evexRM(opVmovupsStore, vectorLength(src.Size), src.Encoding, 0, dst, aaa, false, false))
}

// VMovdLoad loads one dword into lane 0 of dst and zeroes the other lanes
func (g *Generator) VMovdLoad(dst Vec, src RegExp) {
	if !g.checkVecs("vmovd", dst) || !g.checkMem("vmovd", src) {
		return
	}
	x := dst.AsXmm()
	text := fmt.Sprintf("vmovd %s, dword %s", x, src)
	g.emit(text, evexRM(opVmovd, 0, x.Encoding, 0, src, 0, false, false))
}
