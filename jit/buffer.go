package jit

import (
	"bytes"
	"fmt"
	"io"
)

// codeBuffer wraps bytes.Buffer with explicit lifecycle management.
// It tracks whether the buffer has been committed and refuses writes
// after that, so finished kernels cannot be appended to by accident.
type codeBuffer struct {
	buf       bytes.Buffer
	committed bool   // True once commit() is called
	name      string // For debugging
	trace     io.Writer
}

func newCodeBuffer(name string) *codeBuffer {
	return &codeBuffer{name: name}
}

// write appends bs and echoes the bytes to the trace writer, if any.
// Panics if the buffer is committed; callers check first.
func (cb *codeBuffer) write(bs []byte) {
	if cb.committed {
		panic(fmt.Sprintf("codeBuffer(%s): cannot write to committed buffer", cb.name))
	}
	cb.buf.Write(bs)
	if cb.trace != nil {
		for _, b := range bs {
			fmt.Fprintf(cb.trace, " %02x", b)
		}
	}
}

func (cb *codeBuffer) bytes() []byte {
	return cb.buf.Bytes()
}

func (cb *codeBuffer) len() int {
	return cb.buf.Len()
}

func (cb *codeBuffer) commit() {
	if cb.trace != nil {
		fmt.Fprintf(cb.trace, "codeBuffer(%s): committed with %d bytes\n", cb.name, cb.buf.Len())
	}
	cb.committed = true
}

func (cb *codeBuffer) reset() {
	cb.buf.Reset()
	cb.committed = false
}
