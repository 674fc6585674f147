package jit

import (
	"strings"

	"golang.org/x/sys/cpu"
)

// Features is a set of x86 ISA extensions an emitted sequence relies on
type Features uint32

const (
	AVX512F Features = 1 << iota
	AVX512BW
	AVX512VL
	AVX512DQ
)

var featureNames = []struct {
	f    Features
	name string
}{
	{AVX512F, "avx512f"},
	{AVX512BW, "avx512bw"},
	{AVX512VL, "avx512vl"},
	{AVX512DQ, "avx512dq"},
}

// Has reports whether every feature in req is present in f
func (f Features) Has(req Features) bool {
	return f&req == req
}

// Missing returns the features of req that f lacks
func (f Features) Missing(req Features) Features {
	return req &^ f
}

func (f Features) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range featureNames {
		if f&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "+")
}

// HostFeatures detects the AVX-512 extensions of the running CPU.
// x/sys/cpu also checks that the OS saves the AVX-512 register state.
func HostFeatures() Features {
	var f Features
	if cpu.X86.HasAVX512F {
		f |= AVX512F
	}
	if cpu.X86.HasAVX512BW {
		f |= AVX512BW
	}
	if cpu.X86.HasAVX512VL {
		f |= AVX512VL
	}
	if cpu.X86.HasAVX512DQ {
		f |= AVX512DQ
	}
	return f
}
