// Package render is the marshaling bridge between the typed scene model and
// the rendering engine: it flattens a scene into a positional argument list,
// reconstructs the engine's native handles from that list, and assembles the
// positional gradient list for the adjoint pass.
package render

import (
	"fmt"

	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// Kind discriminates the variants of an Arg. Meaning in the flattened list
// is still positional, but every slot carries its own discriminant so the
// reconstructor can type-check instead of guessing.
type Kind int

const (
	// KindEmpty marks absent optional data in a flattened list, and marks
	// "no gradient" in a backward list. It occupies a slot either way:
	// optional data is never signaled by shortening the list.
	KindEmpty Kind = iota
	KindInt
	KindFloat
	KindBool
	KindInts
	KindTensor
	KindTag
)

// String returns the kind name for error messages.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindInts:
		return "ints"
	case KindTensor:
		return "tensor"
	case KindTag:
		return "tag"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Arg is one slot of a flattened argument list or of a backward gradient
// list. Only the field selected by Kind is meaningful.
type Arg struct {
	Kind   Kind
	Int    int
	Float  float32
	Bool   bool
	Ints   []int32
	Tensor tensor.Tensor
	Tag    int32
}

// NoGradient is the marker returned in backward slots that carry no
// gradient: counts, indices, flags, tags, and absent optional buffers.
var NoGradient = Arg{Kind: KindEmpty}

// EmptyArg returns the empty marker for absent optional data.
func EmptyArg() Arg { return Arg{Kind: KindEmpty} }

// IntArg wraps a plain integer (counts, indices).
func IntArg(v int) Arg { return Arg{Kind: KindInt, Int: v} }

// FloatArg wraps a scalar (clip-near, pdf normalization).
func FloatArg(v float32) Arg { return Arg{Kind: KindFloat, Float: v} }

// BoolArg wraps a flag.
func BoolArg(v bool) Arg { return Arg{Kind: KindBool, Bool: v} }

// IntsArg wraps an integer buffer (index buffers, resolution pairs).
func IntsArg(v []int32) Arg { return Arg{Kind: KindInts, Ints: v} }

// TensorArg wraps a float tensor.
func TensorArg(t tensor.Tensor) Arg { return Arg{Kind: KindTensor, Tensor: t} }

// TagArg wraps a closed-enumeration tag (camera type, sampler, channel).
func TagArg(v int32) Arg { return Arg{Kind: KindTag, Tag: v} }

// IsEmpty reports whether the slot is a marker.
func (a Arg) IsEmpty() bool { return a.Kind == KindEmpty }

// String renders the slot compactly for -dump-args and test failures.
func (a Arg) String() string {
	switch a.Kind {
	case KindEmpty:
		return "-"
	case KindInt:
		return fmt.Sprintf("int(%d)", a.Int)
	case KindFloat:
		return fmt.Sprintf("float(%g)", a.Float)
	case KindBool:
		return fmt.Sprintf("bool(%t)", a.Bool)
	case KindInts:
		return fmt.Sprintf("ints[%d]", len(a.Ints))
	case KindTensor:
		return a.Tensor.String()
	case KindTag:
		return fmt.Sprintf("tag(%d)", a.Tag)
	}
	return fmt.Sprintf("arg(kind=%d)", int(a.Kind))
}
