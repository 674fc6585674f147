//go:build amd64 && (linux || darwin || freebsd)

package jit

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Executable is generated code mapped into executable memory.
//
// The code is called with one pointer argument in RDI and must return
// with RET. It may clobber every register except RSP and RBP.
type Executable struct {
	mem []byte
}

// callJIT is implemented in call_amd64.s
//
//go:noescape
func callJIT(code uintptr, arg unsafe.Pointer)

// NewExecutable copies code into a fresh mapping and makes it executable
func NewExecutable(code []byte) (*Executable, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: empty code buffer", ErrInvalidOperand)
	}
	size := pageAlign(len(code))
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	copy(mem, code)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("mprotect: %w", err)
	}
	return &Executable{mem: mem}, nil
}

// Call runs the code with arg in RDI. arg should point to memory that
// the Go garbage collector does not move, such as an Arena.
func (e *Executable) Call(arg unsafe.Pointer) error {
	if e.mem == nil {
		return ErrClosed
	}
	callJIT(uintptr(unsafe.Pointer(&e.mem[0])), arg)
	return nil
}

// Close unmaps the code
func (e *Executable) Close() error {
	if e.mem == nil {
		return nil
	}
	err := unix.Munmap(e.mem)
	e.mem = nil
	return err
}

// Arena is memory outside the Go heap for kernel operands. The last page
// is mapped PROT_NONE, so a kernel reading past an allocation made with
// ArenaTail faults instead of silently reading garbage.
type Arena struct {
	mem    []byte
	usable int
	off    int
	tail   int
}

// NewArena maps at least size usable bytes followed by a guard page
func NewArena(size int) (*Arena, error) {
	usable := pageAlign(size)
	mem, err := unix.Mmap(-1, 0, usable+os.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap arena: %w", err)
	}
	if err := unix.Mprotect(mem[usable:], unix.PROT_NONE); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("mprotect guard page: %w", err)
	}
	return &Arena{mem: mem, usable: usable, tail: usable}, nil
}

// alloc returns n bytes aligned to 64 from the front of the arena
func (a *Arena) alloc(n int) (unsafe.Pointer, error) {
	start := (a.off + 63) &^ 63
	if start+n > a.tail {
		return nil, fmt.Errorf("arena exhausted: need %d bytes, %d left", n, a.tail-start)
	}
	a.off = start + n
	return unsafe.Pointer(&a.mem[start]), nil
}

// allocTail returns n bytes that end exactly at the guard page
func (a *Arena) allocTail(n int) (unsafe.Pointer, error) {
	start := a.tail - n
	if start < a.off {
		return nil, fmt.Errorf("arena exhausted: need %d tail bytes", n)
	}
	a.tail = start
	return unsafe.Pointer(&a.mem[start]), nil
}

// GuardAddr returns the address of the first byte of the guard page
func (a *Arena) GuardAddr() uintptr {
	return uintptr(unsafe.Pointer(&a.mem[a.usable]))
}

// Close unmaps the arena. Slices handed out by it must not be used after.
func (a *Arena) Close() error {
	if a.mem == nil {
		return nil
	}
	err := unix.Munmap(a.mem)
	a.mem = nil
	return err
}

// ArenaSlice allocates n zeroed values of T from the arena
func ArenaSlice[T any](a *Arena, n int) ([]T, error) {
	var zero T
	p, err := a.alloc(n * int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(p), n), nil
}

// ArenaTail allocates n values of T placed directly before the guard page
func ArenaTail[T any](a *Arena, n int) ([]T, error) {
	var zero T
	p, err := a.allocTail(n * int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(p), n), nil
}

// Addr returns the address of the first element of s
func Addr[T any](s []T) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(s)))
}

func pageAlign(n int) int {
	page := os.Getpagesize()
	return (n + page - 1) &^ (page - 1)
}

// CanExecute reports whether this process can run generated code
func CanExecute() bool {
	return true
}
