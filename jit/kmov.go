package jit

import "fmt"

// KMOVW - move a 16-bit lane mask into a k register
//
// One bit per float32 lane of a zmm register. Host kernels use this to
// program the tail mask before the injector emits masked operations.
//
//   KMOVW k1, r32   VEX.L0.0F.W0 92 /r

// KMovWFromGP copies the low 16 bits of src into mask register dst
func (g *Generator) KMovWFromGP(dst Opmask, src Reg32) {
	if !dst.IsMask() {
		g.fail("kmovw", CategoryRegister, fmt.Errorf("%w: %s is not one of k1-k7", ErrInvalidRegister, dst))
		return
	}
	if !g.checkGPR("kmovw", src.Register, 32) {
		return
	}
	text := fmt.Sprintf("kmovw %s, %s", dst, src)
	bs := vex(0, ppNone, dst.Encoding, 0, src.Encoding, false)
	g.emit(text, append(bs, 0x92, modrmReg(dst.Encoding, src.Encoding)))
}

// SetMask loads an immediate lane mask through a 32-bit scratch register:
//
//	mov tmp, bits
//	kmovw dst, tmp
func (g *Generator) SetMask(dst Opmask, tmp Reg32, bits uint16) {
	g.MovImm32(tmp, uint32(bits))
	g.KMovWFromGP(dst, tmp)
}

// TailMask returns the lane mask selecting the first n of 16 lanes
func TailMask(n int) uint16 {
	if n <= 0 {
		return 0
	}
	if n >= 16 {
		return 0xFFFF
	}
	return uint16(1)<<uint(n) - 1
}
