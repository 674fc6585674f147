package jit

import "fmt"

// Widening loads and conversions to float32
//
// The injector brings narrow operands up to the float32 lanes the host
// kernel computes in:
//   int32    VCVTDQ2PS zmm1{k}{z}, zmm2/m512/m32bcst  EVEX.512.0F.W0 5B /r
//   float16  VCVTPH2PS zmm1{k}{z}, ymm2/m256          EVEX.512.66.0F38.W0 13 /r
//   int8     VPMOVSXBD zmm1{k}{z}, xmm2/m128          EVEX.512.66.0F38.WIG 21 /r
//   uint8    VPMOVZXBD zmm1{k}{z}, xmm2/m128          EVEX.512.66.0F38.WIG 31 /r
//   16-bit   VPMOVZXWD zmm1{k}{z}, ymm2/m256          EVEX.512.66.0F38.WIG 33 /r
//
// The 128-bit forms (AVX512VL) work on the low lanes only and are used
// when a single broadcast element is widened before replication.

var (
	opVcvtdq2ps = evexOp{name: "vcvtdq2ps", mm: map0F, pp: ppNone, w: 0, op: 0x5B}
	opVcvtph2ps = evexOp{name: "vcvtph2ps", mm: map0F38, pp: pp66, w: 0, op: 0x13}
	opVpmovsxbd = evexOp{name: "vpmovsxbd", mm: map0F38, pp: pp66, w: 0, op: 0x21}
	opVpmovzxbd = evexOp{name: "vpmovzxbd", mm: map0F38, pp: pp66, w: 0, op: 0x31}
	opVpmovzxwd = evexOp{name: "vpmovzxwd", mm: map0F38, pp: pp66, w: 0, op: 0x33}
)

func (g *Generator) convertRR(e evexOp, ratio int, dst, src Vec, mask Opmask, zero bool) {
	if !g.checkVecs(e.name, dst, src) || !g.checkMask(e.name, mask) {
		return
	}
	aaa, z := maskBits(mask, zero)
	// the listing names the part of src the instruction actually reads
	view := src
	if ratio > 1 {
		bits := max(dst.Size/ratio, 128)
		view = Vec{Register{Name: regName(bits, src.Index()), Size: bits, Encoding: src.Encoding}}
	}
	text := fmt.Sprintf("%s %s%s, %s", e.name, dst, maskSuffix(mask, z), view)
	g.emit(text, evexRR(e, vectorLength(dst.Size), dst.Encoding, 0, src.Encoding, aaa, z))
}

func (g *Generator) convertRM(e evexOp, ratio int, dst Vec, src RegExp, mask Opmask, zero, bcast bool) {
	if !g.checkVecs(e.name, dst) || !g.checkMem(e.name, src) || !g.checkMask(e.name, mask) {
		return
	}
	aaa, z := maskBits(mask, zero)
	var operand string
	if bcast {
		operand = fmt.Sprintf("dword %s{1to%d}", src, dst.Lanes())
	} else {
		operand = fmt.Sprintf("%s %s", memSize(dst.Size/8/ratio), src)
	}
	text := fmt.Sprintf("%s %s%s, %s", e.name, dst, maskSuffix(mask, z), operand)
	g.emit(text, evexRM(e, vectorLength(dst.Size), dst.Encoding, 0, src, aaa, z, bcast))
}

func regName(size, index int) string {
	switch size {
	case 128:
		return fmt.Sprintf("xmm%d", index)
	case 256:
		return fmt.Sprintf("ymm%d", index)
	default:
		return fmt.Sprintf("zmm%d", index)
	}
}

// VCvtDQ2PS converts int32 lanes of src to float32
func (g *Generator) VCvtDQ2PS(dst, src Vec, mask Opmask, zero bool) {
	if !g.checkVecs("vcvtdq2ps", dst, src) || !g.checkSameSize("vcvtdq2ps", dst, src) {
		return
	}
	g.convertRR(opVcvtdq2ps, 1, dst, src, mask, zero)
}

// VCvtDQ2PSMem converts int32 values loaded from src to float32.
// With bcast set, one int32 is converted and used for every lane.
func (g *Generator) VCvtDQ2PSMem(dst Vec, src RegExp, mask Opmask, zero, bcast bool) {
	g.convertRM(opVcvtdq2ps, 1, dst, src, mask, zero, bcast)
}

// VCvtPH2PS converts float16 values in the low half of src to float32
func (g *Generator) VCvtPH2PS(dst, src Vec, mask Opmask, zero bool) {
	g.convertRR(opVcvtph2ps, 2, dst, src, mask, zero)
}

// VCvtPH2PSMem loads float16 values from src and converts them to float32
func (g *Generator) VCvtPH2PSMem(dst Vec, src RegExp, mask Opmask, zero bool) {
	g.convertRM(opVcvtph2ps, 2, dst, src, mask, zero, false)
}

// VPMovSXBD sign-extends bytes from the low quarter of src to int32 lanes
func (g *Generator) VPMovSXBD(dst, src Vec, mask Opmask, zero bool) {
	g.convertRR(opVpmovsxbd, 4, dst, src, mask, zero)
}

// VPMovSXBDMem sign-extends bytes loaded from src to int32 lanes
func (g *Generator) VPMovSXBDMem(dst Vec, src RegExp, mask Opmask, zero bool) {
	g.convertRM(opVpmovsxbd, 4, dst, src, mask, zero, false)
}

// VPMovZXBD zero-extends bytes from the low quarter of src to int32 lanes
func (g *Generator) VPMovZXBD(dst, src Vec, mask Opmask, zero bool) {
	g.convertRR(opVpmovzxbd, 4, dst, src, mask, zero)
}

// VPMovZXBDMem zero-extends bytes loaded from src to int32 lanes
func (g *Generator) VPMovZXBDMem(dst Vec, src RegExp, mask Opmask, zero bool) {
	g.convertRM(opVpmovzxbd, 4, dst, src, mask, zero, false)
}

// VPMovZXWD zero-extends words from the low half of src to int32 lanes
func (g *Generator) VPMovZXWD(dst, src Vec, mask Opmask, zero bool) {
	g.convertRR(opVpmovzxwd, 2, dst, src, mask, zero)
}

// VPMovZXWDMem zero-extends words loaded from src to int32 lanes
func (g *Generator) VPMovZXWDMem(dst Vec, src RegExp, mask Opmask, zero bool) {
	g.convertRM(opVpmovzxwd, 2, dst, src, mask, zero, false)
}
