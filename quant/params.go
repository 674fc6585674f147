package quant

import (
	"fmt"

	"github.com/xyproto/postop/injector"
)

// Bits is the storage width of quantized weights
type Bits int

const (
	Bits4 Bits = iota
	Bits8
	// NoQuant keeps the tensor in its original type
	NoQuant
)

func (b Bits) String() string {
	switch b {
	case Bits4:
		return "q4"
	case Bits8:
		return "q8"
	case NoQuant:
		return "none"
	default:
		return fmt.Sprintf("Bits(%d)", int(b))
	}
}

// Alg is the quantization scheme
type Alg int

const (
	Sym Alg = iota
	Asym
)

func (a Alg) String() string {
	if a == Asym {
		return "asym"
	}
	return "sym"
}

// Params is how one tensor is quantized
type Params struct {
	Bits        Bits
	Alg         Alg
	GroupSize   int
	ScaleType   injector.DataType
	ComputeType injector.DataType
}

// DefaultParams is q4_0: 4-bit symmetric, one float32 scale per 32 values
func DefaultParams() Params {
	return Params{
		Bits:        Bits4,
		Alg:         Sym,
		GroupSize:   32,
		ScaleType:   injector.F32,
		ComputeType: injector.F32,
	}
}

// NonQuantized marks a tensor that stays as it is
func NonQuantized() Params {
	return Params{Bits: NoQuant}
}

// Quantized reports whether p changes the tensor at all
func (p Params) Quantized() bool {
	return p.Bits != NoQuant
}

func (p Params) String() string {
	if !p.Quantized() {
		return "not quantized"
	}
	return fmt.Sprintf("%s %s group=%d scale=%s compute=%s", p.Bits, p.Alg, p.GroupSize, p.ScaleType, p.ComputeType)
}
