package injector

import "errors"

// Every failure is reported before the failing call appends anything to
// the generator, except errors recorded by the generator itself while
// emitting. Those leave the kernel unusable and the build must be dropped.
var (
	ErrNilGenerator        = errors.New("nil code generator")
	ErrNotInitialized      = errors.New("binary injector used before Initialize")
	ErrAlreadyInitialized  = errors.New("binary injector is already initialized")
	ErrMaskNotConfigured   = errors.New("masked operation requested before ConfigureMask")
	ErrUnsupportedDataType = errors.New("unsupported data type")
	ErrDataTypeMismatch    = errors.New("data type does not match the operation attribute")
	ErrUnsupportedOp       = errors.New("unsupported binary operation")
	ErrInvalidAddress      = errors.New("invalid operand address")
	ErrInvalidRegister     = errors.New("invalid register")
	ErrNoScratch           = errors.New("no scratch vector register configured")
)
