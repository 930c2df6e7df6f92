package network

import (
	"fmt"

	"github.com/samuelfneumann/deepq/initwfn"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Layer implements a fully connected layer of a feed forward neural
// network, computing x·W + b for a batch x of shape (N, in). Weights
// have shape (in, out) and biases have shape (out).
//
// The input of the last Forward call is cached until the next Backward
// call, which consumes it. Layer shapes never change after
// construction.
type Layer struct {
	weights *mat.Dense
	biases  *mat.VecDense
	input   *mat.Dense
}

// NewLayer returns a new Layer with in inputs and out outputs. Weights
// are drawn from a standard normal distribution using src, and biases
// are initialized to 0. If src is nil, the global source is used.
func NewLayer(in, out int, src rand.Source) (*Layer, error) {
	return NewLayerInit(in, out, initwfn.InitWFn{Type: initwfn.Normal}, src)
}

// NewLayerInit is like NewLayer but draws weights using init
func NewLayerInit(in, out int, init initwfn.InitWFn,
	src rand.Source) (*Layer, error) {
	if in < 1 || out < 1 {
		return nil, fmt.Errorf("newLayer: layer sizes must be positive "+
			"\n\twant(>0, >0) \n\thave(%v, %v)", in, out)
	}
	if err := init.Validate(); err != nil {
		return nil, fmt.Errorf("newLayer: %w", err)
	}

	return &Layer{
		weights: mat.NewDense(in, out, init.Weights(in, out, src)),
		biases:  mat.NewVecDense(out, nil),
	}, nil
}

// NewLayerFrom returns a new Layer whose parameters are copies of
// weights and biases. The number of columns of weights must equal the
// length of biases.
func NewLayerFrom(weights mat.Matrix, biases mat.Vector) (*Layer, error) {
	_, c := weights.Dims()
	if c != biases.Len() {
		return nil, fmt.Errorf("newLayerFrom: invalid bias length "+
			"\n\twant(%v) \n\thave(%v)", c, biases.Len())
	}

	return &Layer{
		weights: mat.DenseCopyOf(weights),
		biases:  mat.VecDenseCopyOf(biases),
	}, nil
}

// In returns the number of inputs to the layer
func (l *Layer) In() int {
	r, _ := l.weights.Dims()
	return r
}

// Out returns the number of outputs of the layer
func (l *Layer) Out() int {
	_, c := l.weights.Dims()
	return c
}

// Weights returns a copy of the layer's weights
func (l *Layer) Weights() *mat.Dense {
	return mat.DenseCopyOf(l.weights)
}

// Biases returns a copy of the layer's biases
func (l *Layer) Biases() *mat.VecDense {
	return mat.VecDenseCopyOf(l.biases)
}

// Forward computes the output of the layer on a batch of inputs with
// one sample per row. The input is cached for the next Backward call.
func (l *Layer) Forward(x *mat.Dense) *mat.Dense {
	n, in := x.Dims()
	if in != l.In() {
		panic(fmt.Sprintf("forward: invalid input width \n\twant(%v) "+
			"\n\thave(%v)", l.In(), in))
	}
	l.input = mat.DenseCopyOf(x)

	out := mat.NewDense(n, l.Out(), nil)
	out.Mul(x, l.weights)

	biases := l.biases.RawVector().Data
	for i := 0; i < n; i++ {
		floats.Add(out.RawRowView(i), biases)
	}
	return out
}

// Backward backpropagates grad, the gradient of the loss with respect
// to the output of the last Forward call, through the layer. The
// gradient with respect to the layer's input is returned, then the
// weights and biases are updated in place by gradient descent with
// step size learningRate.
//
// Backward must be called at most once per call to Forward, and never
// before Forward has been called. Violating this panics.
func (l *Layer) Backward(grad *mat.Dense, learningRate float64) *mat.Dense {
	weightGrad, biasGrad, inputGrad := l.gradients(grad)

	l.weights.Apply(func(i, j int, w float64) float64 {
		return w - learningRate*weightGrad.At(i, j)
	}, l.weights)
	floats.AddScaled(l.biases.RawVector().Data, -learningRate, biasGrad)

	l.input = nil
	return inputGrad
}

// gradients computes the weight, bias, and input gradients for the
// cached input without changing any parameters
func (l *Layer) gradients(grad *mat.Dense) (*mat.Dense, []float64,
	*mat.Dense) {
	if l.input == nil {
		panic("backward: no cached input, Forward must be called before " +
			"Backward")
	}
	n, out := grad.Dims()
	if r, _ := l.input.Dims(); n != r || out != l.Out() {
		panic(fmt.Sprintf("backward: invalid gradient shape \n\twant(%v, %v)"+
			" \n\thave(%v, %v)", r, l.Out(), n, out))
	}

	weightGrad := mat.NewDense(l.In(), out, nil)
	weightGrad.Mul(l.input.T(), grad)

	biasGrad := make([]float64, out)
	for i := 0; i < n; i++ {
		floats.Add(biasGrad, grad.RawRowView(i))
	}

	inputGrad := mat.NewDense(n, l.In(), nil)
	inputGrad.Mul(grad, l.weights.T())

	return weightGrad, biasGrad, inputGrad
}

// Set copies the values of the parameters of other into l. The two
// layers must have the same shape.
func (l *Layer) Set(other *Layer) error {
	if l.In() != other.In() || l.Out() != other.Out() {
		return fmt.Errorf("set: incompatible layer shapes \n\twant(%v, %v)"+
			" \n\thave(%v, %v)", l.In(), l.Out(), other.In(), other.Out())
	}
	l.weights.Copy(other.weights)
	l.biases.CopyVec(other.biases)
	return nil
}

// Clone returns a deep copy of the layer. The clone owns its own
// parameters and starts with an empty cache.
func (l *Layer) Clone() *Layer {
	return &Layer{
		weights: mat.DenseCopyOf(l.weights),
		biases:  mat.VecDenseCopyOf(l.biases),
	}
}

func (l *Layer) String() string {
	return fmt.Sprintf("Layer(%v, %v)", l.In(), l.Out())
}
