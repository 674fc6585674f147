package kernel

import (
	"fmt"
	"unsafe"

	"github.com/xyproto/postop/jit"
)

// Exec runs the kernel once on args. args must not live on the Go heap
// if the kernel dereferences pointers stored in it; allocate it with
// NewArgs.
func (k *Kernel) Exec(args *Args) error {
	if missing := jit.HostFeatures().Missing(k.Spec.Required()); missing != 0 {
		return fmt.Errorf("cpu lacks %s", missing)
	}
	exe, err := jit.NewExecutable(k.Code)
	if err != nil {
		return err
	}
	defer exe.Close()
	return exe.Call(unsafe.Pointer(args))
}

// Buffers holds kernel arguments and data outside the Go heap
type Buffers struct {
	Arena   *jit.Arena
	Args    *Args
	Dst     []float32
	Operand []byte
}

// NewArgs allocates an argument block, a 16-lane destination and an
// operand buffer of operandBytes. With atGuard set the operand buffer
// ends right before an unmapped page.
func NewArgs(operandBytes int, atGuard bool) (*Buffers, error) {
	arena, err := jit.NewArena(4096 + operandBytes)
	if err != nil {
		return nil, err
	}
	b := &Buffers{Arena: arena}
	args, err := jit.ArenaSlice[Args](arena, 1)
	if err != nil {
		arena.Close()
		return nil, err
	}
	b.Args = &args[0]
	if b.Dst, err = jit.ArenaSlice[float32](arena, Lanes); err != nil {
		arena.Close()
		return nil, err
	}
	if atGuard {
		b.Operand, err = jit.ArenaTail[byte](arena, operandBytes)
	} else {
		b.Operand, err = jit.ArenaSlice[byte](arena, operandBytes)
	}
	if err != nil {
		arena.Close()
		return nil, err
	}
	b.Args.Dst = jit.Addr(b.Dst)
	b.Args.Operand = jit.Addr(b.Operand)
	if len(b.Operand) == 0 && atGuard {
		// an empty operand points straight at the unmapped page
		b.Args.Operand = arena.GuardAddr()
	}
	return b, nil
}

// Close releases the arena
func (b *Buffers) Close() error {
	return b.Arena.Close()
}
