package jit

import (
	"bytes"
	"testing"
)

func TestEncodings(t *testing.T) {
	tests := []struct {
		name string
		emit func(g *Generator)
		want []byte
	}{
		{
			"vaddps zmm0, zmm1, zmm2",
			func(g *Generator) { g.VAddPS(Zmm(0), Zmm(1), Zmm(2), NoMask) },
			[]byte{0x62, 0xF1, 0x74, 0x48, 0x58, 0xC2},
		},
		{
			"vaddps zmm1{k1}, zmm1, zmm3",
			func(g *Generator) { g.VAddPS(Zmm(1), Zmm(1), Zmm(3), K(1)) },
			[]byte{0x62, 0xF1, 0x74, 0x49, 0x58, 0xCB},
		},
		{
			"vaddps zmm20, zmm20, zmm31",
			func(g *Generator) { g.VAddPS(Zmm(20), Zmm(20), Zmm(31), NoMask) },
			[]byte{0x62, 0x81, 0x5C, 0x40, 0x58, 0xE7},
		},
		{
			"vaddps zmm1{k1}, zmm1, dword [rsi]{1to16}",
			func(g *Generator) { g.VPackedPSMem(PackedAdd, Zmm(1), Zmm(1), Ptr(RSI, 0), K(1), true) },
			[]byte{0x62, 0xF1, 0x74, 0x59, 0x58, 0x0E},
		},
		{
			"vmulps zmm1, zmm1, zmmword [rsi]",
			func(g *Generator) { g.VPackedPSMem(PackedMul, Zmm(1), Zmm(1), Ptr(RSI, 0), NoMask, false) },
			[]byte{0x62, 0xF1, 0x74, 0x48, 0x59, 0x0E},
		},
		{
			"vmovups zmm1, [rax]",
			func(g *Generator) { g.VMovupsLoad(Zmm(1), Ptr(RAX, 0), NoMask, false) },
			[]byte{0x62, 0xF1, 0x7C, 0x48, 0x10, 0x08},
		},
		{
			"vmovups [rax], zmm1",
			func(g *Generator) { g.VMovupsStore(Ptr(RAX, 0), Zmm(1), NoMask) },
			[]byte{0x62, 0xF1, 0x7C, 0x48, 0x11, 0x08},
		},
		{
			"vmovups zmm17, [r12 + 64]",
			func(g *Generator) { g.VMovupsLoad(Zmm(17), Ptr(GPR("r12"), 64), NoMask, false) },
			[]byte{0x62, 0xC1, 0x7C, 0x48, 0x10, 0x8C, 0x24, 0x40, 0x00, 0x00, 0x00},
		},
		{
			"vcvtph2ps zmm2{k1}{z}, ymmword [rsi]",
			func(g *Generator) { g.VCvtPH2PSMem(Zmm(2), Ptr(RSI, 0), K(1), true) },
			[]byte{0x62, 0xF2, 0x7D, 0xC9, 0x13, 0x16},
		},
		{
			"vcvtdq2ps zmm3{k1}{z}, zmmword [rsi]",
			func(g *Generator) { g.VCvtDQ2PSMem(Zmm(3), Ptr(RSI, 0), K(1), true, false) },
			[]byte{0x62, 0xF1, 0x7C, 0xC9, 0x5B, 0x1E},
		},
		{
			"vpmovsxbd zmm3{k1}{z}, xmmword [rsi]",
			func(g *Generator) { g.VPMovSXBDMem(Zmm(3), Ptr(RSI, 0), K(1), true) },
			[]byte{0x62, 0xF2, 0x7D, 0xC9, 0x21, 0x1E},
		},
		{
			"vpslld zmm2, zmm2, 16",
			func(g *Generator) { g.VPSllD(Zmm(2), Zmm(2), 16, NoMask, false) },
			[]byte{0x62, 0xF1, 0x6D, 0x48, 0x72, 0xF2, 0x10},
		},
		{
			"vbroadcastss zmm3, xmm3",
			func(g *Generator) { g.VBroadcastSS(Zmm(3), Xmm(3), NoMask, false) },
			[]byte{0x62, 0xF2, 0x7D, 0x48, 0x18, 0xDB},
		},
		{
			"vpbroadcastb xmm3, byte [rsi]",
			func(g *Generator) { g.VPBroadcastBMem(Xmm(3), Ptr(RSI, 0), NoMask, false) },
			[]byte{0x62, 0xF2, 0x7D, 0x08, 0x78, 0x1E},
		},
		{
			"vmovd xmm3, dword [rsi]",
			func(g *Generator) { g.VMovdLoad(Zmm(3), Ptr(RSI, 0)) },
			[]byte{0x62, 0xF1, 0x7D, 0x08, 0x6E, 0x1E},
		},
		{
			"kmovw k1, ecx",
			func(g *Generator) { g.KMovWFromGP(K(1), GPR32("ecx")) },
			[]byte{0xC5, 0xF8, 0x92, 0xC9},
		},
		{
			"kmovw k2, r8d",
			func(g *Generator) { g.KMovWFromGP(K(2), GPR32("r8d")) },
			[]byte{0xC4, 0xC1, 0x78, 0x92, 0xD0},
		},
		{
			"mov rsi, imm64",
			func(g *Generator) { g.MovImm64(RSI, 0x1122334455667788) },
			[]byte{0x48, 0xBE, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11},
		},
		{
			"mov r9, 1",
			func(g *Generator) { g.MovImm64(R9, 1) },
			[]byte{0x49, 0xB9, 0x01, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			"mov ecx, 0xff",
			func(g *Generator) { g.MovImm32(GPR32("ecx"), 0xFF) },
			[]byte{0xB9, 0xFF, 0x00, 0x00, 0x00},
		},
		{
			"mov rsi, [rdi + 8]",
			func(g *Generator) { g.MovLoad(RSI, Ptr(RDI, 8)) },
			[]byte{0x48, 0x8B, 0x77, 0x08},
		},
		{
			"mov rax, [rsp]",
			func(g *Generator) { g.MovLoad(RAX, Ptr(RSP, 0)) },
			[]byte{0x48, 0x8B, 0x04, 0x24},
		},
		{
			"mov rax, [rbp]",
			func(g *Generator) { g.MovLoad(RAX, Ptr(RBP, 0)) },
			[]byte{0x48, 0x8B, 0x45, 0x00},
		},
		{
			"lea rsi, [rdi + 256]",
			func(g *Generator) { g.Lea(RSI, Ptr(RDI, 256)) },
			[]byte{0x48, 0x8D, 0xB7, 0x00, 0x01, 0x00, 0x00},
		},
		{
			"vzeroupper",
			func(g *Generator) { g.VZeroUpper() },
			[]byte{0xC5, 0xF8, 0x77},
		},
		{
			"ret",
			func(g *Generator) { g.Ret() },
			[]byte{0xC3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewX86()
			tt.emit(g)
			if err := g.Err(); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := g.Bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("Expected % x, got % x", tt.want, got)
			}
		})
	}
}

func TestMemOperandDisplacements(t *testing.T) {
	// EVEX never uses a compressed disp8 for non-zero displacements
	if got := memOperand(1, 6, 8, false); !bytes.Equal(got, []byte{0x8E, 0x08, 0, 0, 0}) {
		t.Errorf("Expected disp32 form, got % x", got)
	}
	// legacy encodings use disp8 when it fits
	if got := memOperand(1, 6, -8, true); !bytes.Equal(got, []byte{0x4E, 0xF8}) {
		t.Errorf("Expected disp8 form, got % x", got)
	}
	// r13 needs an explicit zero displacement
	if got := memOperand(0, 13, 0, false); !bytes.Equal(got, []byte{0x45, 0x00}) {
		t.Errorf("Expected mod=01 disp8 0 for r13, got % x", got)
	}
}

func TestTailMask(t *testing.T) {
	tests := []struct {
		n    int
		want uint16
	}{
		{0, 0},
		{2, 0x0003},
		{12, 0x0FFF},
		{16, 0xFFFF},
		{20, 0xFFFF},
	}
	for _, tt := range tests {
		if got := TailMask(tt.n); got != tt.want {
			t.Errorf("TailMask(%d): expected %#04x, got %#04x", tt.n, tt.want, got)
		}
	}
}
