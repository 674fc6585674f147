// Package quant decides, per model architecture, how each weight tensor
// is quantized and which tensors feed a fused post-op.
package quant

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/xyproto/postop/injector"
	"github.com/xyproto/postop/internal/engine"
)

var (
	ErrUnknownArch   = errors.New("unknown model architecture")
	ErrDuplicateArch = errors.New("model architecture registered twice")
)

// LayerPolicy picks the quantization parameters of one tensor from its
// name, its shape and its element type
type LayerPolicy interface {
	LayerConfig(name string, shape []int64, dt injector.DataType) Params
}

// Factory creates a policy around the global (command line or config
// file) quantization parameters
type Factory func(global Params) LayerPolicy

// Registry maps architecture names to policies. It is filled when it is
// created and only read afterwards, so it can be shared freely.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds a registry from a fixed set of factories
func NewRegistry(factories map[string]Factory) (*Registry, error) {
	r := &Registry{factories: make(map[string]Factory, len(factories))}
	for name, f := range factories {
		key := strings.ToLower(name)
		if _, ok := r.factories[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateArch, key)
		}
		r.factories[key] = f
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	chatglm := func(global Params) LayerPolicy { return chatglmPolicy{global: global} }
	r, err := NewRegistry(map[string]Factory{
		"llama":   func(global Params) LayerPolicy { return llamaPolicy{global: global} },
		"chatglm": chatglm,
		// model files of the first chatglm generation use this name
		"chatglm1": chatglm,
	})
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultRegistry returns the registry of built-in architectures
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Names returns the registered architectures, sorted
func (r *Registry) Names() []string {
	names := lo.Keys(r.factories)
	slices.Sort(names)
	return names
}

// Policy returns the policy for arch using global as the default
// parameters for quantized layers
func (r *Registry) Policy(arch string, global Params) (LayerPolicy, error) {
	key := strings.ToLower(strings.TrimSpace(arch))
	f, ok := r.factories[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q%s", ErrUnknownArch, arch, engine.DidYouMean(key, r.Names()))
	}
	return f(global), nil
}
