package network

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type activationType string

const (
	leakyReLUType activationType = "leakyrelu"
	linearType    activationType = "linear"
)

// DefaultLeak is the slope of the negative half of ReLU()
const DefaultLeak = 0.01

// Activation is a non-linearity applied element-wise to the output of
// a Layer. Activations cache the input of their last forward pass,
// which is needed to compute Backward.
//
// The set of Activations is closed; use ReLU, NewLeakyReLU, Identity
// or NewLinear to construct one.
type Activation interface {
	// Forward applies the activation to x and caches x
	Forward(x *mat.Dense) *mat.Dense

	// Backward returns the gradient with respect to the input of the
	// last Forward call, given the gradient with respect to its output
	Backward(grad *mat.Dense) *mat.Dense

	// Clone returns a copy of the Activation with the same
	// configuration and an empty cache
	Clone() Activation

	fmt.Stringer

	activationType() activationType
	param() float64
}

// leakyReLU is the leaky rectifier max(leak*x, x)
type leakyReLU struct {
	leak  float64
	input *mat.Dense
}

// NewLeakyReLU returns a leaky ReLU activation with negative slope leak
func NewLeakyReLU(leak float64) Activation {
	return &leakyReLU{leak: leak}
}

// ReLU returns a leaky ReLU activation with the default leak
func ReLU() Activation {
	return NewLeakyReLU(DefaultLeak)
}

func (l *leakyReLU) Forward(x *mat.Dense) *mat.Dense {
	l.input = x

	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Max(l.leak*v, v)
	}, x)
	return out
}

func (l *leakyReLU) Backward(grad *mat.Dense) *mat.Dense {
	checkCache("leakyrelu", l.input, grad)

	r, c := grad.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, g float64) float64 {
		if l.input.At(i, j) >= 0 {
			return g
		}
		return l.leak * g
	}, grad)
	return out
}

func (l *leakyReLU) Clone() Activation {
	return NewLeakyReLU(l.leak)
}

func (l *leakyReLU) String() string {
	return fmt.Sprintf("LeakyReLU(%v)", l.leak)
}

func (l *leakyReLU) activationType() activationType { return leakyReLUType }
func (l *leakyReLU) param() float64                 { return l.leak }

// linear scales its input by a constant
type linear struct {
	scale float64
	input *mat.Dense
}

// NewLinear returns a linear activation scale*x
func NewLinear(scale float64) Activation {
	return &linear{scale: scale}
}

// Identity returns a linear activation with unit scale
func Identity() Activation {
	return NewLinear(1.0)
}

func (l *linear) Forward(x *mat.Dense) *mat.Dense {
	l.input = x

	var out mat.Dense
	out.Scale(l.scale, x)
	return &out
}

func (l *linear) Backward(grad *mat.Dense) *mat.Dense {
	checkCache("linear", l.input, grad)

	var out mat.Dense
	out.Scale(l.scale, grad)
	return &out
}

func (l *linear) Clone() Activation {
	return NewLinear(l.scale)
}

func (l *linear) String() string {
	return fmt.Sprintf("Linear(%v)", l.scale)
}

func (l *linear) activationType() activationType { return linearType }
func (l *linear) param() float64                 { return l.scale }

// newActivation rebuilds an Activation from its type and parameter
func newActivation(t activationType, p float64) (Activation, error) {
	switch t {
	case leakyReLUType:
		return NewLeakyReLU(p), nil
	case linearType:
		return NewLinear(p), nil
	}
	return nil, fmt.Errorf("newActivation: illegal Activation type %q", t)
}

// checkCache panics if Backward is called without a previous Forward
// or with a gradient whose shape differs from the cached input
func checkCache(name string, input, grad *mat.Dense) {
	if input == nil {
		panic(fmt.Sprintf("%v: backward called before forward", name))
	}
	r, c := input.Dims()
	gr, gc := grad.Dims()
	if r != gr || c != gc {
		panic(fmt.Sprintf("%v: invalid gradient shape \n\twant(%v, %v) "+
			"\n\thave(%v, %v)", name, r, c, gr, gc))
	}
}
