package jit

import (
	"fmt"
	"sort"
	"strings"
)

// Register definitions for x86-64.
//
// Registers are handed to emitters as small value tokens. The generator
// never allocates a register on its own: whoever builds the kernel picks
// which registers to use and lends them to the emitters by value.

type Register struct {
	Name     string
	Size     int   // Size in bits
	Encoding uint8 // Encoding for instruction generation
}

// Valid reports whether r names a real register
func (r Register) Valid() bool {
	return r.Name != ""
}

func (r Register) String() string {
	if r.Name == "" {
		return "<none>"
	}
	return r.Name
}

// x86_64 registers
var x86_64Registers = buildRegisterTable()

func buildRegisterTable() map[string]Register {
	regs := map[string]Register{
		// 64-bit general purpose registers
		"rax": {Name: "rax", Size: 64, Encoding: 0},
		"rcx": {Name: "rcx", Size: 64, Encoding: 1},
		"rdx": {Name: "rdx", Size: 64, Encoding: 2},
		"rbx": {Name: "rbx", Size: 64, Encoding: 3},
		"rsp": {Name: "rsp", Size: 64, Encoding: 4},
		"rbp": {Name: "rbp", Size: 64, Encoding: 5},
		"rsi": {Name: "rsi", Size: 64, Encoding: 6},
		"rdi": {Name: "rdi", Size: 64, Encoding: 7},
		"r8":  {Name: "r8", Size: 64, Encoding: 8},
		"r9":  {Name: "r9", Size: 64, Encoding: 9},
		"r10": {Name: "r10", Size: 64, Encoding: 10},
		"r11": {Name: "r11", Size: 64, Encoding: 11},
		"r12": {Name: "r12", Size: 64, Encoding: 12},
		"r13": {Name: "r13", Size: 64, Encoding: 13},
		"r14": {Name: "r14", Size: 64, Encoding: 14},
		"r15": {Name: "r15", Size: 64, Encoding: 15},

		// 32-bit registers
		"eax":  {Name: "eax", Size: 32, Encoding: 0},
		"ecx":  {Name: "ecx", Size: 32, Encoding: 1},
		"edx":  {Name: "edx", Size: 32, Encoding: 2},
		"ebx":  {Name: "ebx", Size: 32, Encoding: 3},
		"esp":  {Name: "esp", Size: 32, Encoding: 4},
		"ebp":  {Name: "ebp", Size: 32, Encoding: 5},
		"esi":  {Name: "esi", Size: 32, Encoding: 6},
		"edi":  {Name: "edi", Size: 32, Encoding: 7},
		"r8d":  {Name: "r8d", Size: 32, Encoding: 8},
		"r9d":  {Name: "r9d", Size: 32, Encoding: 9},
		"r10d": {Name: "r10d", Size: 32, Encoding: 10},
		"r11d": {Name: "r11d", Size: 32, Encoding: 11},
		"r12d": {Name: "r12d", Size: 32, Encoding: 12},
		"r13d": {Name: "r13d", Size: 32, Encoding: 13},
		"r14d": {Name: "r14d", Size: 32, Encoding: 14},
		"r15d": {Name: "r15d", Size: 32, Encoding: 15},

		// AVX-512 mask registers (k0-k7)
		"k0": {Name: "k0", Size: 64, Encoding: 0},
		"k1": {Name: "k1", Size: 64, Encoding: 1},
		"k2": {Name: "k2", Size: 64, Encoding: 2},
		"k3": {Name: "k3", Size: 64, Encoding: 3},
		"k4": {Name: "k4", Size: 64, Encoding: 4},
		"k5": {Name: "k5", Size: 64, Encoding: 5},
		"k6": {Name: "k6", Size: 64, Encoding: 6},
		"k7": {Name: "k7", Size: 64, Encoding: 7},
	}

	// AVX-512 gives all 32 vector registers an xmm, ymm and zmm view
	for i := 0; i < 32; i++ {
		for _, v := range []struct {
			prefix string
			size   int
		}{{"xmm", 128}, {"ymm", 256}, {"zmm", 512}} {
			name := fmt.Sprintf("%s%d", v.prefix, i)
			regs[name] = Register{Name: name, Size: v.size, Encoding: uint8(i)}
		}
	}
	return regs
}

// GetRegister looks up a register by its assembler name
func GetRegister(name string) (Register, bool) {
	r, ok := x86_64Registers[strings.ToLower(name)]
	return r, ok
}

// RegisterNames returns every register name of the given size
func RegisterNames(size int) []string {
	var names []string
	for name, r := range x86_64Registers {
		if r.Size == size && !strings.HasPrefix(name, "k") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Vec is a vector register (xmm, ymm or zmm view)
type Vec struct{ Register }

// Reg64 is a 64-bit general purpose register
type Reg64 struct{ Register }

// Reg32 is a 32-bit general purpose register
type Reg32 struct{ Register }

// Opmask is an AVX-512 mask register. The zero value means "no mask",
// which is also what k0 means in the aaa field of an EVEX prefix.
type Opmask struct{ Register }

// NoMask disables masking for an instruction
var NoMask = Opmask{}

func lookup(name string) Register {
	r, _ := GetRegister(name)
	return r
}

// Zmm returns the 512-bit view of vector register i (0-31)
func Zmm(i int) Vec { return Vec{lookup(fmt.Sprintf("zmm%d", i))} }

// Ymm returns the 256-bit view of vector register i (0-31)
func Ymm(i int) Vec { return Vec{lookup(fmt.Sprintf("ymm%d", i))} }

// Xmm returns the 128-bit view of vector register i (0-31)
func Xmm(i int) Vec { return Vec{lookup(fmt.Sprintf("xmm%d", i))} }

// K returns mask register k<i>
func K(i int) Opmask { return Opmask{lookup(fmt.Sprintf("k%d", i))} }

// GPR returns the 64-bit general purpose register with the given name
func GPR(name string) Reg64 {
	r := lookup(name)
	if r.Size != 64 || strings.HasPrefix(r.Name, "k") {
		return Reg64{}
	}
	return Reg64{r}
}

// GPR32 returns the 32-bit general purpose register with the given name
func GPR32(name string) Reg32 {
	r := lookup(name)
	if r.Size != 32 {
		return Reg32{}
	}
	return Reg32{r}
}

// Common 64-bit registers
var (
	RAX = GPR("rax")
	RCX = GPR("rcx")
	RDX = GPR("rdx")
	RBX = GPR("rbx")
	RSP = GPR("rsp")
	RBP = GPR("rbp")
	RSI = GPR("rsi")
	RDI = GPR("rdi")
	R8  = GPR("r8")
	R9  = GPR("r9")
	R10 = GPR("r10")
	R11 = GPR("r11")
)

// IsVector reports whether v is a valid vector register
func (v Vec) IsVector() bool {
	return v.Valid() && (v.Size == 128 || v.Size == 256 || v.Size == 512)
}

// Index returns the physical vector register number (0-31)
func (v Vec) Index() int { return int(v.Encoding) }

// AsXmm returns the 128-bit view of the same physical register
func (v Vec) AsXmm() Vec { return Xmm(v.Index()) }

// AsYmm returns the 256-bit view of the same physical register
func (v Vec) AsYmm() Vec { return Ymm(v.Index()) }

// AsZmm returns the 512-bit view of the same physical register
func (v Vec) AsZmm() Vec { return Zmm(v.Index()) }

// Lanes returns the number of 32-bit lanes in v
func (v Vec) Lanes() int { return v.Size / 32 }

// IsMask reports whether m is one of k1-k7. k0 cannot predicate an
// instruction, so it is not accepted as a mask.
func (m Opmask) IsMask() bool {
	return m.Valid() && strings.HasPrefix(m.Name, "k") && m.Encoding != 0
}

// IsGPR reports whether r is one of the sixteen 64-bit general purpose registers
func (r Reg64) IsGPR() bool {
	return r.Valid() && r.Size == 64 && !strings.HasPrefix(r.Name, "k")
}

// Dword returns the 32-bit view of r
func (r Reg64) Dword() Reg32 {
	if !r.Valid() {
		return Reg32{}
	}
	return Reg32{lookup(dwordNames[r.Encoding&15])}
}

var dwordNames = [16]string{
	"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi",
	"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d",
}

// RegExp is a memory reference [base + displacement]. It never owns the
// memory it points at.
type RegExp struct {
	Base Reg64
	Disp int32
}

// Ptr builds [base + disp]
func Ptr(base Reg64, disp int32) RegExp {
	return RegExp{Base: base, Disp: disp}
}

// Add returns the same reference moved by delta bytes
func (e RegExp) Add(delta int32) RegExp {
	return RegExp{Base: e.Base, Disp: e.Disp + delta}
}

// Valid reports whether e has a usable base register
func (e RegExp) Valid() bool {
	return e.Base.IsGPR()
}

func (e RegExp) String() string {
	switch {
	case e.Disp == 0:
		return fmt.Sprintf("[%s]", e.Base)
	case e.Disp < 0:
		return fmt.Sprintf("[%s - %d]", e.Base, -int64(e.Disp))
	default:
		return fmt.Sprintf("[%s + %d]", e.Base, e.Disp)
	}
}
