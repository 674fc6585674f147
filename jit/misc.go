package jit

// VZeroUpper zeros the upper bits of all vector registers. Kernels that
// touched zmm registers emit it before returning to avoid AVX-SSE
// transition penalties in the caller.
//
//	VZEROUPPER   VEX.128.0F.WIG 77
func (g *Generator) VZeroUpper() {
	g.emit("vzeroupper", []byte{0xC5, 0xF8, 0x77})
}

// Ret emits a near return
func (g *Generator) Ret() {
	g.emit("ret", []byte{0xC3})
}
