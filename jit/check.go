package jit

import (
	"fmt"
	"strings"
)

// Operand checks run before any byte of an instruction is produced.
// A failed check records the error on the generator and the emitter
// returns without writing.

func (g *Generator) checkVecs(inst string, vs ...Vec) bool {
	for _, v := range vs {
		if !v.IsVector() {
			g.fail(inst, CategoryRegister, fmt.Errorf("%w: %s is not a vector register", ErrInvalidRegister, v))
			return false
		}
	}
	return true
}

func (g *Generator) checkSameSize(inst string, vs ...Vec) bool {
	for _, v := range vs[1:] {
		if v.Size != vs[0].Size {
			g.fail(inst, CategoryOperand, fmt.Errorf("%w: %s and %s differ in width", ErrInvalidOperand, vs[0], v))
			return false
		}
	}
	return true
}

func (g *Generator) checkMem(inst string, m RegExp) bool {
	if !m.Valid() {
		g.fail(inst, CategoryOperand, fmt.Errorf("%w: memory operand %s needs a 64-bit base register", ErrInvalidOperand, m))
		return false
	}
	return true
}

func (g *Generator) checkMask(inst string, m Opmask) bool {
	if m == NoMask || m.IsMask() {
		return true
	}
	g.fail(inst, CategoryRegister, fmt.Errorf("%w: %s cannot be used as a write mask", ErrInvalidRegister, m))
	return false
}

func (g *Generator) checkGPR(inst string, r Register, size int) bool {
	if !r.Valid() || r.Size != size || strings.HasPrefix(r.Name, "k") {
		g.fail(inst, CategoryRegister, fmt.Errorf("%w: %s is not a %d-bit general purpose register", ErrInvalidRegister, r, size))
		return false
	}
	return true
}

// maskSuffix renders {k1} / {k1}{z} for listings
func maskSuffix(m Opmask, zero bool) string {
	if m == NoMask {
		return ""
	}
	if zero {
		return "{" + m.Name + "}{z}"
	}
	return "{" + m.Name + "}"
}

// maskBits returns the aaa field and the effective zeroing flag.
// Zeroing without a mask is not encodable, so it is dropped.
func maskBits(m Opmask, zero bool) (uint8, bool) {
	if m == NoMask {
		return 0, false
	}
	return m.Encoding & 7, zero
}

// memSize names a memory operand of n bytes for listings
func memSize(n int) string {
	switch n {
	case 1:
		return "byte"
	case 2:
		return "word"
	case 4:
		return "dword"
	case 8:
		return "qword"
	case 16:
		return "xmmword"
	case 32:
		return "ymmword"
	default:
		return "zmmword"
	}
}
