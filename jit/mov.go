package jit

import (
	"encoding/binary"
	"fmt"
)

// General purpose register moves used for address materialization
//
//   MOV r64, imm64      REX.W B8+rd io
//   MOV r32, imm32      B8+rd id
//   MOV r64, [mem]      REX.W 8B /r
//   LEA r64, [mem]      REX.W 8D /r
//
// None of these write the flags register.

// MovImm64 emits mov dst, imm
func (g *Generator) MovImm64(dst Reg64, imm uint64) {
	if !g.checkGPR("mov", dst.Register, 64) {
		return
	}
	text := fmt.Sprintf("mov %s, 0x%x", dst, imm)
	bs := []byte{rex(true, 0, dst.Encoding), 0xB8 + dst.Encoding&7}
	g.emit(text, binary.LittleEndian.AppendUint64(bs, imm))
}

// MovImm32 emits mov dst, imm (zero-extends into the 64-bit register)
func (g *Generator) MovImm32(dst Reg32, imm uint32) {
	if !g.checkGPR("mov", dst.Register, 32) {
		return
	}
	text := fmt.Sprintf("mov %s, 0x%x", dst, imm)
	var bs []byte
	if dst.Encoding&8 != 0 {
		bs = append(bs, 0x41) // REX.B
	}
	bs = append(bs, 0xB8+dst.Encoding&7)
	g.emit(text, binary.LittleEndian.AppendUint32(bs, imm))
}

// MovLoad emits mov dst, qword [src]
func (g *Generator) MovLoad(dst Reg64, src RegExp) {
	if !g.checkGPR("mov", dst.Register, 64) || !g.checkMem("mov", src) {
		return
	}
	text := fmt.Sprintf("mov %s, qword %s", dst, src)
	bs := []byte{rex(true, dst.Encoding, src.Base.Encoding), 0x8B}
	g.emit(text, append(bs, memOperand(dst.Encoding, src.Base.Encoding, src.Disp, true)...))
}

// Lea emits lea dst, [src]
func (g *Generator) Lea(dst Reg64, src RegExp) {
	if !g.checkGPR("lea", dst.Register, 64) || !g.checkMem("lea", src) {
		return
	}
	text := fmt.Sprintf("lea %s, %s", dst, src)
	bs := []byte{rex(true, dst.Encoding, src.Base.Encoding), 0x8D}
	g.emit(text, append(bs, memOperand(dst.Encoding, src.Base.Encoding, src.Disp, true)...))
}
