package jit

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRegister = errors.New("invalid register")
	ErrInvalidOperand  = errors.New("invalid operand")
	ErrCommitted       = errors.New("code buffer already committed")
	ErrUnsupportedArch = errors.New("unsupported target architecture")
	ErrExecUnsupported = errors.New("executing generated code is not supported on this platform")
	ErrClosed          = errors.New("executable code already unmapped")
)

// ErrorLevel indicates the severity of an error
type ErrorLevel int

const (
	LevelWarning ErrorLevel = iota
	LevelError
	LevelFatal
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal error"
	default:
		return "unknown"
	}
}

// ErrorCategory classifies the type of error
type ErrorCategory int

const (
	CategoryRegister ErrorCategory = iota
	CategoryOperand
	CategoryBuffer
	CategoryTarget
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryRegister:
		return "register"
	case CategoryOperand:
		return "operand"
	case CategoryBuffer:
		return "buffer"
	case CategoryTarget:
		return "target"
	default:
		return "unknown"
	}
}

// CodegenError is a failure while emitting one instruction. Once a
// generator has recorded one, the buffer is considered corrupt and the
// kernel build has to be abandoned.
type CodegenError struct {
	Level    ErrorLevel
	Category ErrorCategory
	Inst     string // mnemonic of the instruction being emitted
	Offset   int    // buffer offset where the instruction would have started
	Err      error
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d: %v", e.Level, e.Inst, e.Offset, e.Err)
}

func (e *CodegenError) Unwrap() error {
	return e.Err
}
