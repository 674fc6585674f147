// Package injector emits fused elementwise binary post-ops (bias add and
// similar) into an AVX-512 kernel while the kernel is being generated.
//
// The host kernel generator owns the jit.Generator and every register.
// It lends the injector a destination zmm, a memory operand, a mask
// register and, for operands that are not float32, a scratch zmm. The
// injector only emits instructions that use what it was handed.
package injector

import (
	"fmt"

	"github.com/xyproto/postop/jit"
)

// BinaryInjector is bound to one generator. Like the generator it is not
// safe for concurrent use; parallel kernel builds use one of each per
// worker.
type BinaryInjector struct {
	gen *jit.Generator
	cfg config
}

// config is the state that persists between calls until reconfigured
type config struct {
	mask       jit.Opmask
	maskSet    bool
	scratch    jit.Vec
	scratchSet bool
}

// New returns an injector that still has to be bound with Initialize
func New() *BinaryInjector {
	return &BinaryInjector{}
}

// Initialize binds the injector to gen. It can only be called once.
func (inj *BinaryInjector) Initialize(gen *jit.Generator) error {
	if gen == nil {
		return ErrNilGenerator
	}
	if inj.gen != nil {
		return ErrAlreadyInitialized
	}
	inj.gen = gen
	return nil
}

// Initialized reports whether Initialize has been called
func (inj *BinaryInjector) Initialized() bool {
	return inj.gen != nil
}

// ConfigureMask selects the mask register used by masked ComputeVector
// calls from now on. Nothing is emitted, and the host stays responsible
// for what the register holds when the kernel runs.
func (inj *BinaryInjector) ConfigureMask(mask jit.Opmask) error {
	if inj.gen == nil {
		return ErrNotInitialized
	}
	if !mask.IsMask() {
		return fmt.Errorf("%w: %s cannot be used as a lane mask, use k1-k7", ErrInvalidRegister, mask)
	}
	inj.cfg.mask = mask
	inj.cfg.maskSet = true
	return nil
}

// Mask returns the configured mask register, if any
func (inj *BinaryInjector) Mask() (jit.Opmask, bool) {
	return inj.cfg.mask, inj.cfg.maskSet
}

// ConfigureScratch lends the injector a zmm register it may overwrite
// while widening non-float32 operands. Nothing is emitted.
func (inj *BinaryInjector) ConfigureScratch(v jit.Vec) error {
	if inj.gen == nil {
		return ErrNotInitialized
	}
	if !v.IsVector() || v.Size != 512 {
		return fmt.Errorf("%w: scratch %s must be a zmm register", ErrInvalidRegister, v)
	}
	inj.cfg.scratch = v
	inj.cfg.scratchSet = true
	return nil
}

// ResolveAddress loads the base address of the operand described by attr
// into reg:
//
//	direct       nothing is emitted
//	static       mov reg, imm64
//	param slot   mov reg, [base + slot]
//	base offset  lea reg, [base + offset]
//
// Vector registers, mask registers and flags are left alone.
func (inj *BinaryInjector) ResolveAddress(reg jit.Reg64, attr Attr) error {
	if inj.gen == nil {
		return ErrNotInitialized
	}
	if err := inj.gen.Err(); err != nil {
		return err
	}
	addr := attr.Address
	if addr.Kind == AddrDirect {
		return nil
	}
	if !reg.IsGPR() || reg == jit.RSP {
		return fmt.Errorf("%w: %s cannot hold the operand address", ErrInvalidRegister, reg)
	}
	switch addr.Kind {
	case AddrStatic:
		if addr.Static == 0 {
			return fmt.Errorf("%w: static address is nil", ErrInvalidAddress)
		}
		inj.gen.MovImm64(reg, uint64(addr.Static))
	case AddrParamSlot, AddrBaseOffset:
		if !addr.Base.IsGPR() {
			return fmt.Errorf("%w: %s has no base register", ErrInvalidAddress, addr)
		}
		if addr.Kind == AddrParamSlot {
			inj.gen.MovLoad(reg, jit.Ptr(addr.Base, addr.Offset))
		} else {
			inj.gen.Lea(reg, jit.Ptr(addr.Base, addr.Offset))
		}
	default:
		return fmt.Errorf("%w: unknown address kind %s", ErrInvalidAddress, addr.Kind)
	}
	return inj.gen.Err()
}

// ComputeVector emits dst = dst OP operand, where the operand is read
// from src as elements of type dt and converted to float32.
//
// With broadcast, only the element at src is read and used for every
// lane. With enableMask, lanes outside the configured mask are neither
// loaded nor changed. The same arguments always produce the same bytes.
//
// All arguments are checked before anything is emitted.
func (inj *BinaryInjector) ComputeVector(dst jit.Vec, src jit.RegExp, attr Attr, dt DataType, enableMask, broadcast bool) error {
	if inj.gen == nil {
		return ErrNotInitialized
	}
	if err := inj.gen.Err(); err != nil {
		return err
	}
	if !attr.Op.valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedOp, attr.Op)
	}
	if attr.DataType != Undef && attr.DataType != dt {
		return fmt.Errorf("%w: attribute has %s, call has %s", ErrDataTypeMismatch, attr.DataType, dt)
	}
	if !Supported(dt) {
		return fmt.Errorf("%w: %s has no float32 load path", ErrUnsupportedDataType, dt)
	}
	if !dst.IsVector() || dst.Size != 512 {
		return fmt.Errorf("%w: destination %s must be a zmm register", ErrInvalidRegister, dst)
	}
	if !src.Valid() {
		return fmt.Errorf("%w: memory operand %s has no base register", ErrInvalidAddress, src)
	}
	mask := jit.NoMask
	if enableMask {
		if !inj.cfg.maskSet {
			return ErrMaskNotConfigured
		}
		mask = inj.cfg.mask
	}
	path := loadPaths[dt]
	op := opKinds[attr.Op].packed

	if path.folded {
		inj.gen.VPackedPSMem(op, dst, dst, src, mask, broadcast)
		return inj.gen.Err()
	}

	if !inj.cfg.scratchSet {
		return fmt.Errorf("%w: %s operands are widened in a scratch register", ErrNoScratch, dt)
	}
	tmp := inj.cfg.scratch
	if tmp.Index() == dst.Index() {
		return fmt.Errorf("%w: scratch %s is also the destination", ErrInvalidRegister, tmp)
	}
	if broadcast {
		path.broadcast(inj.gen, tmp, src, mask)
	} else {
		path.vector(inj.gen, tmp, src, mask)
	}
	inj.gen.VPackedPS(op, dst, dst, tmp, mask)
	return inj.gen.Err()
}

// Add is ComputeVector with the operator fixed to addition
func (inj *BinaryInjector) Add(dst jit.Vec, src jit.RegExp, dt DataType, enableMask, broadcast bool) error {
	return inj.ComputeVector(dst, src, Attr{Op: OpAdd, DataType: dt}, dt, enableMask, broadcast)
}
