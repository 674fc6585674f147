package quant

import (
	"strings"

	"github.com/xyproto/postop/injector"
)

// PostOpFor tells whether tensor name is a bias that a matmul kernel
// should fuse as an add post-op, and if so returns the attribute for it.
// Only 1-D tensors whose type the injector can load qualify.
func PostOpFor(name string, shape []int64, dt injector.DataType, addr injector.Address) (injector.Attr, bool) {
	if !strings.HasSuffix(name, ".bias") || len(shape) != 1 || !injector.Supported(dt) {
		return injector.Attr{}, false
	}
	return injector.Attr{Op: injector.OpAdd, DataType: dt, Address: addr}, true
}
