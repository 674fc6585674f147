package quant

import (
	"errors"
	"strings"
	"testing"

	"github.com/xyproto/postop/injector"
	"github.com/xyproto/postop/jit"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	if r != DefaultRegistry() {
		t.Error("Expected the default registry to be built once")
	}
	names := r.Names()
	if strings.Join(names, ",") != "chatglm,chatglm1,llama" {
		t.Errorf("Expected chatglm,chatglm1,llama, got %v", names)
	}
	if _, err := r.Policy("LLaMA", DefaultParams()); err != nil {
		t.Errorf("Expected case-insensitive lookup, got %v", err)
	}
	_, err := r.Policy("lama", DefaultParams())
	if !errors.Is(err, ErrUnknownArch) {
		t.Fatalf("Expected ErrUnknownArch, got %v", err)
	}
	if !strings.Contains(err.Error(), "llama") {
		t.Errorf("Expected a suggestion in %q", err)
	}
}

func TestNewRegistryDuplicate(t *testing.T) {
	f := func(global Params) LayerPolicy { return llamaPolicy{global} }
	_, err := NewRegistry(map[string]Factory{"llama": f, "LLAMA": f})
	if !errors.Is(err, ErrDuplicateArch) {
		t.Errorf("Expected ErrDuplicateArch, got %v", err)
	}
}

func TestLayerConfig(t *testing.T) {
	global := Params{Bits: Bits8, Alg: Asym, GroupSize: 128, ScaleType: injector.BF16, ComputeType: injector.S8}
	tests := []struct {
		arch  string
		name  string
		shape []int64
		want  Params
	}{
		{"llama", "tok_embeddings.weight", []int64{4096, 32000}, DefaultParams()},
		{"llama", "layers.0.attention.wq.weight", []int64{4096, 4096}, global},
		{"llama", "layers.0.attention_norm.weight", []int64{4096}, NonQuantized()},
		{"llama", "layers.0.feed_forward.w1.bias", []int64{4096, 11008}, NonQuantized()},
		{"chatglm", ChatGLMEmbedding, []int64{4096, 130528}, DefaultParams()},
		{"chatglm", "transformer.layers.0.attention.query_key_value.weight", []int64{4096, 12288}, global},
		{"chatglm", "transformer.layers.0.attention.query_key_value.bias", []int64{12288}, NonQuantized()},
		// chatglm matches the embedding table by its exact name only
		{"chatglm", "other_embedding.weight", []int64{10, 10}, global},
		{"chatglm1", ChatGLMEmbedding, []int64{4096, 130528}, DefaultParams()},
		{"chatglm1", "other_embedding.weight", []int64{10, 10}, global},
		{"ChatGLM1", "transformer.final_layernorm.weight", []int64{4096}, NonQuantized()},
	}
	for _, tt := range tests {
		p, err := DefaultRegistry().Policy(tt.arch, global)
		if err != nil {
			t.Fatal(err)
		}
		if got := p.LayerConfig(tt.name, tt.shape, injector.F32); got != tt.want {
			t.Errorf("%s %s: expected %s, got %s", tt.arch, tt.name, tt.want, got)
		}
	}
}

func TestPostOpFor(t *testing.T) {
	addr := injector.ParamSlot(jit.RDI, 16)
	attr, ok := PostOpFor("transformer.layers.0.mlp.dense_h_to_4h.bias", []int64{16384}, injector.BF16, addr)
	if !ok {
		t.Fatal("Expected the bias to be fused")
	}
	if attr.Op != injector.OpAdd || attr.DataType != injector.BF16 || attr.Address != addr {
		t.Errorf("Unexpected attribute %s", attr)
	}
	if _, ok := PostOpFor("layers.0.attention.wq.weight", []int64{4096}, injector.F32, addr); ok {
		t.Error("Expected a weight not to be fused")
	}
	if _, ok := PostOpFor("x.bias", []int64{4, 4}, injector.F32, addr); ok {
		t.Error("Expected a 2-D bias not to be fused")
	}
	if _, ok := PostOpFor("x.bias", []int64{4}, injector.F64, addr); ok {
		t.Error("Expected an f64 bias not to be fused")
	}
}
