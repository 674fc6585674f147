package injector

import (
	"fmt"
	"strings"

	"github.com/xyproto/postop/internal/engine"
)

// DataType is the in-memory element type of the second operand
type DataType int

const (
	Undef DataType = iota
	F32
	S32
	S8
	U8
	BF16
	F16
	F64
	S4
	U4
	numDataTypes
)

var dataTypeInfo = [...]struct {
	name string
	bits int
}{
	Undef: {"undef", 0},
	F32:   {"f32", 32},
	S32:   {"s32", 32},
	S8:    {"s8", 8},
	U8:    {"u8", 8},
	BF16:  {"bf16", 16},
	F16:   {"f16", 16},
	F64:   {"f64", 64},
	S4:    {"s4", 4},
	U4:    {"u4", 4},
}

var (
	_ [int(numDataTypes) - len(dataTypeInfo)]struct{}
	_ [len(dataTypeInfo) - int(numDataTypes)]struct{}
)

func (dt DataType) valid() bool {
	return dt >= 0 && dt < numDataTypes
}

func (dt DataType) String() string {
	if !dt.valid() {
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
	return dataTypeInfo[dt].name
}

// Bits returns the width of one element in bits, or 0 for Undef
func (dt DataType) Bits() int {
	if !dt.valid() {
		return 0
	}
	return dataTypeInfo[dt].bits
}

// DataTypes returns every known data type except Undef
func DataTypes() []DataType {
	types := make([]DataType, 0, numDataTypes-1)
	for dt := Undef + 1; dt < numDataTypes; dt++ {
		types = append(types, dt)
	}
	return types
}

// ParseDataType parses a data type name such as "bf16" or "u8".
// "fp32", "float" and similar aliases are accepted.
func ParseDataType(s string) (DataType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := dataTypeAliases[name]; ok {
		return alias, nil
	}
	candidates := make([]string, 0, numDataTypes)
	for dt := Undef + 1; dt < numDataTypes; dt++ {
		if dataTypeInfo[dt].name == name {
			return dt, nil
		}
		candidates = append(candidates, dataTypeInfo[dt].name)
	}
	return Undef, fmt.Errorf("%w: %q%s", ErrUnsupportedDataType, s, engine.DidYouMean(name, candidates))
}

var dataTypeAliases = map[string]DataType{
	"fp32":     F32,
	"float":    F32,
	"float32":  F32,
	"int32":    S32,
	"int8":     S8,
	"uint8":    U8,
	"bfloat16": BF16,
	"fp16":     F16,
	"float16":  F16,
	"half":     F16,
	"fp64":     F64,
	"double":   F64,
}
