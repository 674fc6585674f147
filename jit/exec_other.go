//go:build !(amd64 && (linux || darwin || freebsd))

package jit

import "unsafe"

// Executable is generated code mapped into executable memory.
// Running code is only supported on amd64 unix systems.
type Executable struct{}

// NewExecutable always fails on this platform
func NewExecutable(code []byte) (*Executable, error) {
	return nil, ErrExecUnsupported
}

// Call always fails on this platform
func (e *Executable) Call(arg unsafe.Pointer) error { return ErrExecUnsupported }

// Close is a no-op on this platform
func (e *Executable) Close() error { return nil }

// Arena is memory outside the Go heap for kernel operands
type Arena struct{}

// NewArena always fails on this platform
func NewArena(size int) (*Arena, error) {
	return nil, ErrExecUnsupported
}

// Close is a no-op on this platform
func (a *Arena) Close() error { return nil }

// GuardAddr returns 0 on this platform
func (a *Arena) GuardAddr() uintptr { return 0 }

// ArenaSlice always fails on this platform
func ArenaSlice[T any](a *Arena, n int) ([]T, error) {
	return nil, ErrExecUnsupported
}

// ArenaTail always fails on this platform
func ArenaTail[T any](a *Arena, n int) ([]T, error) {
	return nil, ErrExecUnsupported
}

// Addr returns the address of the first element of s
func Addr[T any](s []T) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(s)))
}

// CanExecute reports whether this process can run generated code
func CanExecute() bool {
	return false
}
