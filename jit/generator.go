package jit

import (
	"fmt"
	"io"
	"strings"

	"github.com/xyproto/postop/internal/engine"
)

// Instruction is one emitted machine instruction, kept for listings
type Instruction struct {
	Offset int
	Text   string
	Bytes  []byte
}

func (ins Instruction) String() string {
	hex := make([]string, len(ins.Bytes))
	for i, b := range ins.Bytes {
		hex[i] = fmt.Sprintf("%02x", b)
	}
	return fmt.Sprintf("%04x  %-33s %s", ins.Offset, strings.Join(hex, " "), ins.Text)
}

// Generator is a code generation context: it owns one growing instruction
// buffer and provides the primitive emitters. It is not safe for
// concurrent use; generate kernels in parallel with one Generator each.
type Generator struct {
	arch    engine.Arch
	buf     *codeBuffer
	listing []Instruction
	trace   io.Writer
	err     error
}

// New creates a generator for the given architecture.
// Only x86_64 (AVX-512) is supported.
func New(arch engine.Arch) (*Generator, error) {
	if arch != engine.ArchX86_64 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedArch, arch)
	}
	return &Generator{
		arch: arch,
		buf:  newCodeBuffer("text"),
	}, nil
}

// NewX86 creates an x86_64 generator
func NewX86() *Generator {
	g, _ := New(engine.ArchX86_64)
	return g
}

// SetTrace makes the generator print every instruction and its bytes to w.
// A nil writer turns tracing off.
func (g *Generator) SetTrace(w io.Writer) {
	g.trace = w
	g.buf.trace = w
}

// Arch returns the target architecture
func (g *Generator) Arch() engine.Arch {
	return g.arch
}

// Len returns the number of bytes emitted so far
func (g *Generator) Len() int {
	return g.buf.len()
}

// Bytes returns a copy of the emitted code
func (g *Generator) Bytes() []byte {
	return append([]byte(nil), g.buf.bytes()...)
}

// Listing returns the instructions emitted so far
func (g *Generator) Listing() []Instruction {
	return append([]Instruction(nil), g.listing...)
}

// Err returns the first emission error, if any. After an error the
// generator refuses to emit anything else.
func (g *Generator) Err() error {
	return g.err
}

// Commit finishes the kernel and returns its code. No instruction can be
// appended afterwards.
func (g *Generator) Commit() ([]byte, error) {
	if g.err != nil {
		return nil, g.err
	}
	if !g.buf.committed {
		g.buf.commit()
	}
	return g.Bytes(), nil
}

// Reset discards all emitted code and any recorded error
func (g *Generator) Reset() {
	g.buf.reset()
	g.listing = nil
	g.err = nil
}

// emit appends one complete instruction. Instructions are never split:
// either all bytes are written or, after an earlier failure, none are.
func (g *Generator) emit(text string, bs []byte) {
	if g.err != nil {
		return
	}
	if g.buf.committed {
		g.fail(text, CategoryBuffer, ErrCommitted)
		return
	}
	if g.trace != nil {
		fmt.Fprintf(g.trace, "%s:", text)
	}
	offset := g.buf.len()
	g.buf.write(bs)
	if g.trace != nil {
		fmt.Fprintln(g.trace)
	}
	g.listing = append(g.listing, Instruction{
		Offset: offset,
		Text:   text,
		Bytes:  append([]byte(nil), bs...),
	})
}

func (g *Generator) fail(inst string, category ErrorCategory, err error) {
	if g.err != nil {
		return
	}
	g.err = &CodegenError{
		Level:    LevelFatal,
		Category: category,
		Inst:     inst,
		Offset:   g.buf.len(),
		Err:      err,
	}
	if g.trace != nil {
		fmt.Fprintf(g.trace, "%v\n", g.err)
	}
}
