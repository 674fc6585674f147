// Package kernel builds the small host kernel used to exercise the
// post-op injector: it loads 16 float32 partial results, fuses one binary
// post-op and stores the result back.
//
// The kernel takes a pointer to an Args block in RDI:
//
//	mov rax, [rdi]            ; destination pointer
//	vmovups zmm1, [rax]
//	mov ecx, lanes            ; only for a partial mask
//	kmovw k1, ecx
//	...                       ; operand address, see Spec.Address
//	...                       ; fused post-op
//	vmovups [rax], zmm1
//	vzeroupper
//	ret
package kernel

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/xyproto/postop/injector"
	"github.com/xyproto/postop/jit"
)

// Lanes is the number of float32 lanes in one zmm register
const Lanes = 16

// Args is the argument block a kernel reads. Inline holds the operand
// for direct and base-offset addressing.
type Args struct {
	Dst     uintptr
	Operand uintptr
	_       [48]byte
	Inline  [64]byte
}

// Offsets into Args used by the generated code
const (
	ArgDst     = int32(unsafe.Offsetof(Args{}.Dst))
	ArgOperand = int32(unsafe.Offsetof(Args{}.Operand))
	ArgInline  = int32(unsafe.Offsetof(Args{}.Inline))
)

// Register assignment of the host kernel
var (
	dstPtr  = jit.RAX
	argPtr  = jit.RDI
	addrReg = jit.RSI
	maskTmp = jit.GPR32("ecx")
	acc     = jit.Zmm(1)
	mask    = jit.K(1)
)

// Spec describes one kernel
type Spec struct {
	Op        injector.OpKind
	DataType  injector.DataType
	Broadcast bool
	// Active is the number of leading lanes the post-op applies to.
	// 0 and 16 both mean all lanes, without a mask, unless Masked is set.
	Active int
	// Masked always programs k1 with the first Active lanes, so Active 0
	// masks every lane off
	Masked bool
	// Address selects how the operand is found:
	//   direct       [rdi + ArgInline]
	//   static       Static, baked into the code
	//   param-slot   the pointer stored in Args.Operand
	//   base-offset  rdi + ArgInline, computed into a register
	Address injector.AddressKind
	Static  uintptr
	// Scratch is the zmm index lent to the injector, 2 if zero
	Scratch int
	Trace   io.Writer
}

func (s Spec) String() string {
	str := fmt.Sprintf("%s %s", s.Op, s.DataType)
	if s.Broadcast {
		str += " broadcast"
	}
	if s.masked() {
		str += fmt.Sprintf(" lanes=%d", s.Active)
	}
	return str + " " + s.Address.String()
}

func (s Spec) masked() bool {
	return s.Masked || (s.Active > 0 && s.Active < Lanes)
}

// Required returns the CPU features the kernel needs to run
func (s Spec) Required() jit.Features {
	return jit.AVX512F | injector.RequiredFeatures(s.DataType, s.Broadcast)
}

func (s Spec) attr() (injector.Attr, jit.RegExp, error) {
	attr := injector.Attr{Op: s.Op, DataType: s.DataType}
	src := jit.Ptr(addrReg, 0)
	switch s.Address {
	case injector.AddrDirect:
		attr.Address = injector.DirectAddress()
		src = jit.Ptr(argPtr, ArgInline)
	case injector.AddrStatic:
		attr.Address = injector.StaticAddress(s.Static)
	case injector.AddrParamSlot:
		attr.Address = injector.ParamSlot(argPtr, ArgOperand)
	case injector.AddrBaseOffset:
		attr.Address = injector.BaseOffset(argPtr, ArgInline)
	default:
		return attr, src, fmt.Errorf("%w: %s", injector.ErrInvalidAddress, s.Address)
	}
	return attr, src, nil
}

// Kernel is a finished kernel
type Kernel struct {
	Spec    Spec
	Code    []byte
	Listing []jit.Instruction
}

// Build generates the kernel described by s
func Build(s Spec) (*Kernel, error) {
	if s.Active < 0 || s.Active > Lanes {
		return nil, fmt.Errorf("active lanes must be between 0 and %d, got %d", Lanes, s.Active)
	}
	attr, src, err := s.attr()
	if err != nil {
		return nil, err
	}
	scratch := s.Scratch
	if scratch == 0 {
		scratch = 2
	}

	g := jit.NewX86()
	if s.Trace != nil {
		g.SetTrace(s.Trace)
	}
	inj := injector.New()
	if err := inj.Initialize(g); err != nil {
		return nil, err
	}
	if err := inj.ConfigureScratch(jit.Zmm(scratch)); err != nil {
		return nil, err
	}

	g.MovLoad(dstPtr, jit.Ptr(argPtr, ArgDst))
	g.VMovupsLoad(acc, jit.Ptr(dstPtr, 0), jit.NoMask, false)
	if s.masked() {
		g.SetMask(mask, maskTmp, jit.TailMask(s.Active))
		if err := inj.ConfigureMask(mask); err != nil {
			return nil, err
		}
	}
	if err := inj.ResolveAddress(addrReg, attr); err != nil {
		return nil, fmt.Errorf("resolve operand address: %w", err)
	}
	if err := inj.ComputeVector(acc, src, attr, s.DataType, s.masked(), s.Broadcast); err != nil {
		return nil, fmt.Errorf("%s: %w", s, err)
	}
	g.VMovupsStore(jit.Ptr(dstPtr, 0), acc, jit.NoMask)
	g.VZeroUpper()
	g.Ret()

	code, err := g.Commit()
	if err != nil {
		return nil, err
	}
	return &Kernel{Spec: s, Code: code, Listing: g.Listing()}, nil
}
