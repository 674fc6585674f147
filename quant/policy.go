package quant

import (
	"strings"

	"github.com/xyproto/postop/injector"
)

// Both built-in architectures quantize 2-D weight matrices with the
// global parameters. The token embedding table always uses q4_0, since
// rows are fetched from it one at a time.

type llamaPolicy struct {
	global Params
}

func (p llamaPolicy) LayerConfig(name string, shape []int64, _ injector.DataType) Params {
	if strings.Contains(name, "embedding") {
		return DefaultParams()
	}
	return matrixConfig(p.global, name, shape)
}

// ChatGLMEmbedding is the name of the chatglm token embedding table
const ChatGLMEmbedding = "transformer.word_embeddings.weight"

type chatglmPolicy struct {
	global Params
}

func (p chatglmPolicy) LayerConfig(name string, shape []int64, _ injector.DataType) Params {
	if name == ChatGLMEmbedding {
		return DefaultParams()
	}
	return matrixConfig(p.global, name, shape)
}

func matrixConfig(global Params, name string, shape []int64) Params {
	if strings.HasSuffix(name, "weight") && len(shape) == 2 {
		return global
	}
	return NonQuantized()
}
