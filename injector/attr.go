package injector

import (
	"fmt"
	"strings"

	"github.com/xyproto/postop/internal/engine"
	"github.com/xyproto/postop/jit"
)

// OpKind is the elementwise operator of a fused post-op
type OpKind int

const (
	OpAdd OpKind = iota
	OpSub
	OpMul
	OpMin
	OpMax
	numOpKinds
)

var opKinds = [...]struct {
	name   string
	packed jit.PackedOp
}{
	OpAdd: {"add", jit.PackedAdd},
	OpSub: {"sub", jit.PackedSub},
	OpMul: {"mul", jit.PackedMul},
	OpMin: {"min", jit.PackedMin},
	OpMax: {"max", jit.PackedMax},
}

var (
	_ [int(numOpKinds) - len(opKinds)]struct{}
	_ [len(opKinds) - int(numOpKinds)]struct{}
)

func (k OpKind) valid() bool {
	return k >= 0 && k < numOpKinds
}

func (k OpKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
	return opKinds[k].name
}

// ParseOpKind parses an operator name: add, sub, mul, min or max
func ParseOpKind(s string) (OpKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	candidates := make([]string, 0, numOpKinds)
	for k := OpKind(0); k < numOpKinds; k++ {
		if opKinds[k].name == name {
			return k, nil
		}
		candidates = append(candidates, opKinds[k].name)
	}
	return OpAdd, fmt.Errorf("%w: %q%s", ErrUnsupportedOp, s, engine.DidYouMean(name, candidates))
}

// AddressKind says where the second operand's base address comes from
type AddressKind int

const (
	// AddrDirect: the host passes the final memory operand itself
	AddrDirect AddressKind = iota
	// AddrStatic: the address is known while generating code
	AddrStatic
	// AddrParamSlot: the address is a pointer stored at [Base + Offset]
	// when the kernel runs, typically a slot of the kernel's parameter table
	AddrParamSlot
	// AddrBaseOffset: the address is Base + Offset
	AddrBaseOffset
)

func (k AddressKind) String() string {
	if k < 0 || int(k) >= len(addressKindNames) {
		return fmt.Sprintf("AddressKind(%d)", int(k))
	}
	return addressKindNames[k]
}

var addressKindNames = []string{"direct", "static", "param-slot", "base-offset"}

// ParseAddressKind parses direct, static, param-slot or base-offset
func ParseAddressKind(s string) (AddressKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range addressKindNames {
		if n == name {
			return AddressKind(i), nil
		}
	}
	return AddrDirect, fmt.Errorf("%w: unknown address kind %q%s", ErrInvalidAddress, s, engine.DidYouMean(name, addressKindNames))
}

// Address locates the second operand. Nothing is bounds checked.
type Address struct {
	Kind   AddressKind
	Static uintptr
	Base   jit.Reg64
	Offset int32
}

// DirectAddress is used when the host already has a memory operand
func DirectAddress() Address {
	return Address{Kind: AddrDirect}
}

// StaticAddress is a pointer fixed at code generation time
func StaticAddress(p uintptr) Address {
	return Address{Kind: AddrStatic, Static: p}
}

// ParamSlot reads the operand pointer from [base + slot] at run time
func ParamSlot(base jit.Reg64, slot int32) Address {
	return Address{Kind: AddrParamSlot, Base: base, Offset: slot}
}

// BaseOffset computes the operand pointer as base + offset
func BaseOffset(base jit.Reg64, offset int32) Address {
	return Address{Kind: AddrBaseOffset, Base: base, Offset: offset}
}

func (a Address) String() string {
	switch a.Kind {
	case AddrDirect:
		return "direct"
	case AddrStatic:
		return fmt.Sprintf("static 0x%x", a.Static)
	case AddrParamSlot:
		return "param " + jit.Ptr(a.Base, a.Offset).String()
	case AddrBaseOffset:
		return "offset " + jit.Ptr(a.Base, a.Offset).String()
	default:
		return a.Kind.String()
	}
}

// Attr describes one fused binary post-op. A zero DataType means the
// element type is given per call to ComputeVector.
type Attr struct {
	Op       OpKind
	DataType DataType
	Address  Address
}

func (a Attr) String() string {
	return fmt.Sprintf("%s %s (%s)", a.Op, a.DataType, a.Address)
}
