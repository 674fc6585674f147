package injector

import "github.com/xyproto/postop/jit"

// Load paths: how an operand of each data type ends up as float32 lanes
//
// Vector loads read one element per active lane. With a mask, inactive
// lanes are neither read (fault suppression) nor kept (zeroing), and the
// final combine merges, so inactive destination lanes keep their value.
//
// Broadcast loads read exactly one element. Narrow elements are loaded
// alone, widened and converted to float32, and only then replicated.
// The load itself is never masked; the mask applies to the combine.
//
// f32 needs no scratch: the operand is folded into the arithmetic
// instruction, as a full vector or through embedded broadcast.

// loader emits the load of src into tmp (float32 lanes) for a non-f32
// type. tmp is a zmm; its xmm view is used for single-element work.
type loader func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, mask jit.Opmask)

type loadPath struct {
	vector         loader
	broadcast      loader
	vectorNeeds    jit.Features
	broadcastNeeds jit.Features
	folded         bool // f32: the combine reads memory directly
}

func (p loadPath) supported() bool {
	return p.folded || (p.vector != nil && p.broadcast != nil)
}

var loadPaths = [...]loadPath{
	Undef: {},
	F32: {
		folded:         true,
		vectorNeeds:    jit.AVX512F,
		broadcastNeeds: jit.AVX512F,
	},
	S32: {
		vector: func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, mask jit.Opmask) {
			g.VCvtDQ2PSMem(tmp, src, mask, true, false)
		},
		broadcast: func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, _ jit.Opmask) {
			tx := tmp.AsXmm()
			g.VMovdLoad(tx, src)
			g.VCvtDQ2PS(tx, tx, jit.NoMask, false)
			g.VBroadcastSS(tmp, tx, jit.NoMask, false)
		},
		vectorNeeds:    jit.AVX512F,
		broadcastNeeds: jit.AVX512F | jit.AVX512VL,
	},
	S8: {
		vector: func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, mask jit.Opmask) {
			g.VPMovSXBDMem(tmp, src, mask, true)
			g.VCvtDQ2PS(tmp, tmp, jit.NoMask, false)
		},
		broadcast: func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, _ jit.Opmask) {
			tx := tmp.AsXmm()
			g.VPBroadcastBMem(tx, src, jit.NoMask, false)
			g.VPMovSXBD(tx, tx, jit.NoMask, false)
			g.VCvtDQ2PS(tx, tx, jit.NoMask, false)
			g.VBroadcastSS(tmp, tx, jit.NoMask, false)
		},
		vectorNeeds:    jit.AVX512F,
		broadcastNeeds: jit.AVX512F | jit.AVX512BW | jit.AVX512VL,
	},
	U8: {
		vector: func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, mask jit.Opmask) {
			g.VPMovZXBDMem(tmp, src, mask, true)
			g.VCvtDQ2PS(tmp, tmp, jit.NoMask, false)
		},
		broadcast: func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, _ jit.Opmask) {
			tx := tmp.AsXmm()
			g.VPBroadcastBMem(tx, src, jit.NoMask, false)
			g.VPMovZXBD(tx, tx, jit.NoMask, false)
			g.VCvtDQ2PS(tx, tx, jit.NoMask, false)
			g.VBroadcastSS(tmp, tx, jit.NoMask, false)
		},
		vectorNeeds:    jit.AVX512F,
		broadcastNeeds: jit.AVX512F | jit.AVX512BW | jit.AVX512VL,
	},
	BF16: {
		vector: func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, mask jit.Opmask) {
			g.VPMovZXWDMem(tmp, src, mask, true)
			g.VPSllD(tmp, tmp, 16, jit.NoMask, false)
		},
		broadcast: func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, _ jit.Opmask) {
			tx := tmp.AsXmm()
			g.VPBroadcastWMem(tx, src, jit.NoMask, false)
			g.VPSllD(tx, tx, 16, jit.NoMask, false)
			g.VBroadcastSS(tmp, tx, jit.NoMask, false)
		},
		vectorNeeds:    jit.AVX512F,
		broadcastNeeds: jit.AVX512F | jit.AVX512BW | jit.AVX512VL,
	},
	F16: {
		vector: func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, mask jit.Opmask) {
			g.VCvtPH2PSMem(tmp, src, mask, true)
		},
		broadcast: func(g *jit.Generator, tmp jit.Vec, src jit.RegExp, _ jit.Opmask) {
			tx := tmp.AsXmm()
			g.VPBroadcastWMem(tx, src, jit.NoMask, false)
			g.VCvtPH2PS(tx, tx, jit.NoMask, false)
			g.VBroadcastSS(tmp, tx, jit.NoMask, false)
		},
		vectorNeeds:    jit.AVX512F,
		broadcastNeeds: jit.AVX512F | jit.AVX512BW | jit.AVX512VL,
	},
	// No float32 path yet: f64 needs a narrowing conversion and the
	// 4-bit types need nibble unpacking.
	F64: {},
	S4:  {},
	U4:  {},
}

// Adding a DataType without a loadPaths entry does not compile
var (
	_ [int(numDataTypes) - len(loadPaths)]struct{}
	_ [len(loadPaths) - int(numDataTypes)]struct{}
)

// Supported reports whether ComputeVector can load operands of type dt
func Supported(dt DataType) bool {
	return dt.valid() && loadPaths[dt].supported()
}

// RequiredFeatures returns the ISA extensions the code emitted for dt
// relies on, or 0 if dt has no load path.
func RequiredFeatures(dt DataType, broadcast bool) jit.Features {
	if !Supported(dt) {
		return 0
	}
	if broadcast {
		return loadPaths[dt].broadcastNeeds
	}
	return loadPaths[dt].vectorNeeds
}
