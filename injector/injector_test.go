package injector

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xyproto/postop/jit"
)

func newBound(t *testing.T) (*BinaryInjector, *jit.Generator) {
	t.Helper()
	g := jit.NewX86()
	inj := New()
	if err := inj.Initialize(g); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := inj.ConfigureScratch(jit.Zmm(2)); err != nil {
		t.Fatalf("ConfigureScratch: %v", err)
	}
	return inj, g
}

func TestInitialize(t *testing.T) {
	inj := New()
	if inj.Initialized() {
		t.Error("Expected a new injector to be unbound")
	}
	if err := inj.Add(jit.Zmm(1), jit.Ptr(jit.RSI, 0), F32, false, false); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
	if err := inj.ResolveAddress(jit.RSI, Attr{Address: ParamSlot(jit.RDI, 8)}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
	if err := inj.ConfigureMask(jit.K(1)); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
	if err := inj.Initialize(nil); !errors.Is(err, ErrNilGenerator) {
		t.Errorf("Expected ErrNilGenerator, got %v", err)
	}
	if err := inj.Initialize(jit.NewX86()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := inj.Initialize(jit.NewX86()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestConfigureMaskEmitsNothing(t *testing.T) {
	inj, g := newBound(t)
	if _, ok := inj.Mask(); ok {
		t.Error("Expected no mask before ConfigureMask")
	}
	if err := inj.ConfigureMask(jit.K(0)); !errors.Is(err, ErrInvalidRegister) {
		t.Errorf("Expected k0 to be rejected, got %v", err)
	}
	if err := inj.ConfigureMask(jit.K(3)); err != nil {
		t.Fatal(err)
	}
	if m, ok := inj.Mask(); !ok || m != jit.K(3) {
		t.Errorf("Expected k3, got %s", m)
	}
	if g.Len() != 0 {
		t.Errorf("Expected no bytes, got % x", g.Bytes())
	}
}

func TestComputeVectorEncodings(t *testing.T) {
	src := jit.Ptr(jit.RSI, 0)
	tests := []struct {
		name      string
		dt        DataType
		op        OpKind
		masked    bool
		broadcast bool
		want      []byte
	}{
		{
			"f32", F32, OpAdd, false, false,
			[]byte{0x62, 0xF1, 0x74, 0x48, 0x58, 0x0E},
		},
		{
			"f32 masked broadcast", F32, OpAdd, true, true,
			[]byte{0x62, 0xF1, 0x74, 0x59, 0x58, 0x0E},
		},
		{
			"f32 mul", F32, OpMul, false, false,
			[]byte{0x62, 0xF1, 0x74, 0x48, 0x59, 0x0E},
		},
		{
			"bf16 masked", BF16, OpAdd, true, false,
			[]byte{
				0x62, 0xF2, 0x7D, 0xC9, 0x33, 0x16, // vpmovzxwd zmm2{k1}{z}, [rsi]
				0x62, 0xF1, 0x6D, 0x48, 0x72, 0xF2, 0x10, // vpslld zmm2, zmm2, 16
				0x62, 0xF1, 0x74, 0x49, 0x58, 0xCA, // vaddps zmm1{k1}, zmm1, zmm2
			},
		},
		{
			"s8 broadcast", S8, OpAdd, false, true,
			[]byte{
				0x62, 0xF2, 0x7D, 0x08, 0x78, 0x16, // vpbroadcastb xmm2, [rsi]
				0x62, 0xF2, 0x7D, 0x08, 0x21, 0xD2, // vpmovsxbd xmm2, xmm2
				0x62, 0xF1, 0x7C, 0x08, 0x5B, 0xD2, // vcvtdq2ps xmm2, xmm2
				0x62, 0xF2, 0x7D, 0x48, 0x18, 0xD2, // vbroadcastss zmm2, xmm2
				0x62, 0xF1, 0x74, 0x48, 0x58, 0xCA, // vaddps zmm1, zmm1, zmm2
			},
		},
		{
			"f16 masked", F16, OpAdd, true, false,
			[]byte{
				0x62, 0xF2, 0x7D, 0xC9, 0x13, 0x16, // vcvtph2ps zmm2{k1}{z}, [rsi]
				0x62, 0xF1, 0x74, 0x49, 0x58, 0xCA,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inj, g := newBound(t)
			if err := inj.ConfigureMask(jit.K(1)); err != nil {
				t.Fatal(err)
			}
			attr := Attr{Op: tt.op, DataType: tt.dt}
			if err := inj.ComputeVector(jit.Zmm(1), src, attr, tt.dt, tt.masked, tt.broadcast); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := g.Bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("Expected\n% x\ngot\n% x", tt.want, got)
			}
		})
	}
}

func TestBroadcastLoadsOneElement(t *testing.T) {
	// the only memory access of a broadcast is the single-element load
	wantLoad := map[DataType]string{
		F32:  "dword [rsi]{1to16}",
		S32:  "vmovd xmm2, dword [rsi]",
		S8:   "vpbroadcastb xmm2, byte [rsi]",
		U8:   "vpbroadcastb xmm2, byte [rsi]",
		BF16: "vpbroadcastw xmm2, word [rsi]",
		F16:  "vpbroadcastw xmm2, word [rsi]",
	}
	for dt, want := range wantLoad {
		inj, g := newBound(t)
		if err := inj.Add(jit.Zmm(1), jit.Ptr(jit.RSI, 0), dt, false, true); err != nil {
			t.Fatalf("%s: %v", dt, err)
		}
		var memory []string
		for _, ins := range g.Listing() {
			if strings.Contains(ins.Text, "[") {
				memory = append(memory, ins.Text)
			}
		}
		if len(memory) != 1 || !strings.Contains(memory[0], want) {
			t.Errorf("%s: expected one load %q, got %q", dt, want, memory)
		}
	}
}

func TestDeterminism(t *testing.T) {
	for _, dt := range DataTypes() {
		if !Supported(dt) {
			continue
		}
		for _, bcast := range []bool{false, true} {
			var outputs [2][]byte
			for i := range outputs {
				inj, g := newBound(t)
				inj.ConfigureMask(jit.K(2))
				if err := inj.Add(jit.Zmm(5), jit.Ptr(jit.R9, 128), dt, true, bcast); err != nil {
					t.Fatalf("%s: %v", dt, err)
				}
				outputs[i] = g.Bytes()
			}
			if !bytes.Equal(outputs[0], outputs[1]) {
				t.Errorf("%s broadcast=%v: output differs between runs", dt, bcast)
			}
		}
	}
}

func TestFailureLeavesBufferUnchanged(t *testing.T) {
	src := jit.Ptr(jit.RSI, 0)
	tests := []struct {
		name string
		call func(inj *BinaryInjector) error
		want error
	}{
		{"f64", func(inj *BinaryInjector) error { return inj.Add(jit.Zmm(1), src, F64, false, false) }, ErrUnsupportedDataType},
		{"s4", func(inj *BinaryInjector) error { return inj.Add(jit.Zmm(1), src, S4, false, true) }, ErrUnsupportedDataType},
		{"undef", func(inj *BinaryInjector) error { return inj.Add(jit.Zmm(1), src, Undef, false, false) }, ErrUnsupportedDataType},
		{"out of range type", func(inj *BinaryInjector) error { return inj.Add(jit.Zmm(1), src, DataType(42), false, false) }, ErrUnsupportedDataType},
		{"mask not configured", func(inj *BinaryInjector) error { return inj.Add(jit.Zmm(1), src, F32, true, false) }, ErrMaskNotConfigured},
		{"ymm destination", func(inj *BinaryInjector) error { return inj.Add(jit.Ymm(1), src, F32, false, false) }, ErrInvalidRegister},
		{"scratch is destination", func(inj *BinaryInjector) error { return inj.Add(jit.Zmm(2), src, U8, false, false) }, ErrInvalidRegister},
		{"no base register", func(inj *BinaryInjector) error { return inj.Add(jit.Zmm(1), jit.RegExp{}, F32, false, false) }, ErrInvalidAddress},
		{"unknown op", func(inj *BinaryInjector) error {
			return inj.ComputeVector(jit.Zmm(1), src, Attr{Op: OpKind(9)}, F32, false, false)
		}, ErrUnsupportedOp},
		{"type mismatch", func(inj *BinaryInjector) error {
			return inj.ComputeVector(jit.Zmm(1), src, Attr{DataType: BF16}, F32, false, false)
		}, ErrDataTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inj, g := newBound(t)
			g.VZeroUpper()
			before := g.Bytes()
			err := tt.call(inj)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if got := g.Bytes(); !bytes.Equal(got, before) {
				t.Errorf("Expected buffer to stay % x, got % x", before, got)
			}
			if g.Err() != nil {
				t.Errorf("Expected the generator to stay usable, got %v", g.Err())
			}
		})
	}
}

func TestNoScratch(t *testing.T) {
	g := jit.NewX86()
	inj := New()
	inj.Initialize(g)
	if err := inj.Add(jit.Zmm(1), jit.Ptr(jit.RSI, 0), F32, false, false); err != nil {
		t.Errorf("Expected f32 to work without scratch, got %v", err)
	}
	n := g.Len()
	if err := inj.Add(jit.Zmm(1), jit.Ptr(jit.RSI, 0), BF16, false, false); !errors.Is(err, ErrNoScratch) {
		t.Errorf("Expected ErrNoScratch, got %v", err)
	}
	if g.Len() != n {
		t.Error("Expected no bytes from the failed call")
	}
	if err := inj.ConfigureScratch(jit.Ymm(3)); !errors.Is(err, ErrInvalidRegister) {
		t.Errorf("Expected ymm scratch to be rejected, got %v", err)
	}
}

func TestResolveAddress(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want []byte
	}{
		{"direct", DirectAddress(), nil},
		{"static", StaticAddress(0x1000), []byte{0x48, 0xBE, 0x00, 0x10, 0, 0, 0, 0, 0, 0}},
		{"param slot", ParamSlot(jit.RDI, 8), []byte{0x48, 0x8B, 0x77, 0x08}},
		{"base offset", BaseOffset(jit.RDI, 16), []byte{0x48, 0x8D, 0x77, 0x10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inj, g := newBound(t)
			if err := inj.ResolveAddress(jit.RSI, Attr{Address: tt.addr}); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := g.Bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("Expected % x, got % x", tt.want, got)
			}
			// only general purpose moves, no vector or mask register
			for _, ins := range g.Listing() {
				if !strings.HasPrefix(ins.Text, "mov ") && !strings.HasPrefix(ins.Text, "lea ") {
					t.Errorf("Unexpected instruction %q", ins.Text)
				}
				if strings.Contains(ins.Text, "mm") || strings.Contains(ins.Text, "k1") {
					t.Errorf("Instruction %q touches a vector or mask register", ins.Text)
				}
			}
		})
	}
}

func TestResolveAddressErrors(t *testing.T) {
	tests := []struct {
		name string
		reg  jit.Reg64
		addr Address
		want error
	}{
		{"rsp destination", jit.RSP, ParamSlot(jit.RDI, 8), ErrInvalidRegister},
		{"mask as destination", jit.Reg64{Register: jit.K(1).Register}, ParamSlot(jit.RDI, 8), ErrInvalidRegister},
		{"nil static", jit.RSI, StaticAddress(0), ErrInvalidAddress},
		{"slot without base", jit.RSI, Address{Kind: AddrParamSlot, Offset: 8}, ErrInvalidAddress},
		{"unknown kind", jit.RSI, Address{Kind: AddressKind(7)}, ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inj, g := newBound(t)
			if err := inj.ResolveAddress(tt.reg, Attr{Address: tt.addr}); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if g.Len() != 0 {
				t.Errorf("Expected no bytes, got % x", g.Bytes())
			}
		})
	}
}

func TestRequiredFeatures(t *testing.T) {
	if got := RequiredFeatures(F32, true); got != jit.AVX512F {
		t.Errorf("Expected avx512f, got %s", got)
	}
	if got := RequiredFeatures(BF16, false); got != jit.AVX512F {
		t.Errorf("Expected avx512f, got %s", got)
	}
	if got := RequiredFeatures(U8, true); !got.Has(jit.AVX512BW | jit.AVX512VL) {
		t.Errorf("Expected avx512bw and avx512vl, got %s", got)
	}
	if got := RequiredFeatures(F64, false); got != 0 {
		t.Errorf("Expected no features for an unsupported type, got %s", got)
	}
}

func TestParse(t *testing.T) {
	for _, dt := range DataTypes() {
		got, err := ParseDataType(dt.String())
		if err != nil || got != dt {
			t.Errorf("ParseDataType(%q): expected %s, got %s (%v)", dt.String(), dt, got, err)
		}
	}
	if got, err := ParseDataType("bfloat16"); err != nil || got != BF16 {
		t.Errorf("Expected bf16 alias, got %s (%v)", got, err)
	}
	_, err := ParseDataType("bf61")
	if !errors.Is(err, ErrUnsupportedDataType) || !strings.Contains(err.Error(), "did you mean") {
		t.Errorf("Expected a suggestion, got %v", err)
	}
	if got, err := ParseOpKind("MAX"); err != nil || got != OpMax {
		t.Errorf("Expected max, got %s (%v)", got, err)
	}
	if _, err := ParseOpKind("div"); !errors.Is(err, ErrUnsupportedOp) {
		t.Errorf("Expected ErrUnsupportedOp, got %v", err)
	}
}
