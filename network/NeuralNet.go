// Package network implements feed forward neural networks built from
// fully connected layers and element-wise activations. Networks are
// trained by explicit backpropagation and in-place gradient descent.
package network

import (
	"fmt"

	"github.com/samuelfneumann/deepq/initwfn"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// pair is a single Layer followed by its Activation
type pair struct {
	layer      *Layer
	activation Activation
}

// NeuralNet is an ordered composition of (Layer, Activation) pairs.
// The output width of each layer equals the input width of the next.
// A NeuralNet owns all of its layers; use Clone to obtain an
// independent copy.
//
// The zero value is an empty network ready to use.
type NeuralNet struct {
	layers []pair
}

// New returns a new, empty NeuralNet
func New() *NeuralNet {
	return &NeuralNet{layers: make([]pair, 0)}
}

// NewMLP returns a multi-layered perceptron with features inputs.
// The i-th layer has layerSizes[i] outputs and is followed by
// activations[i], so that the network's output width is the last
// element of layerSizes. Weights are drawn from a standard normal
// distribution.
func NewMLP(features int, layerSizes []int, activations []Activation,
	seed uint64) (*NeuralNet, error) {
	return NewMLPInit(features, layerSizes, activations,
		initwfn.InitWFn{Type: initwfn.Normal}, seed)
}

// NewMLPInit is like NewMLP but draws the weights of each layer using
// init
func NewMLPInit(features int, layerSizes []int, activations []Activation,
	init initwfn.InitWFn, seed uint64) (*NeuralNet, error) {
	if len(layerSizes) != len(activations) {
		return nil, fmt.Errorf("newMLP: invalid number of activations "+
			"\n\twant(%v) \n\thave(%v)", len(layerSizes), len(activations))
	}

	src := rand.NewSource(seed)
	net := New()
	in := features
	for i, out := range layerSizes {
		layer, err := NewLayerInit(in, out, init, src)
		if err != nil {
			return nil, fmt.Errorf("newMLP: layer %v: %w", i, err)
		}
		if err := net.Add(layer, activations[i]); err != nil {
			return nil, fmt.Errorf("newMLP: %w", err)
		}
		in = out
	}
	return net, nil
}

// Add appends a layer and the activation applied to its output. The
// layer's input width must match the output width of the current last
// layer, and the layer must not already be in the network.
//
// The network stores a copy of activation, so a single Activation may
// be passed for many layers.
func (n *NeuralNet) Add(layer *Layer, activation Activation) error {
	if layer == nil || activation == nil {
		return fmt.Errorf("add: layer and activation must be non-nil")
	}
	if n.Len() > 0 && n.OutputSize() != layer.In() {
		return fmt.Errorf("add: invalid layer input width \n\twant(%v) "+
			"\n\thave(%v)", n.OutputSize(), layer.In())
	}
	for i, p := range n.layers {
		if p.layer == layer {
			return fmt.Errorf("add: layer already added at index %v", i)
		}
	}

	n.layers = append(n.layers, pair{layer, activation.Clone()})
	return nil
}

// Len returns the number of (Layer, Activation) pairs in the network
func (n *NeuralNet) Len() int {
	return len(n.layers)
}

// Layer returns the i-th layer of the network. The returned layer is
// owned by the network.
func (n *NeuralNet) Layer(i int) *Layer {
	return n.layers[i].layer
}

// Activation returns the activation following the i-th layer
func (n *NeuralNet) Activation(i int) Activation {
	return n.layers[i].activation
}

// InputSize returns the number of features the network takes as
// input, or 0 if the network is empty
func (n *NeuralNet) InputSize() int {
	if n.Len() == 0 {
		return 0
	}
	return n.layers[0].layer.In()
}

// OutputSize returns the width of the network's output, or 0 if the
// network is empty
func (n *NeuralNet) OutputSize() int {
	if n.Len() == 0 {
		return 0
	}
	return n.layers[n.Len()-1].layer.Out()
}

// Validate returns an error if the network is empty or the widths of
// consecutive layers do not match
func (n *NeuralNet) Validate() error {
	if n.Len() == 0 {
		return fmt.Errorf("validate: network has no layers")
	}
	for i := 1; i < n.Len(); i++ {
		prev, next := n.layers[i-1].layer, n.layers[i].layer
		if prev.Out() != next.In() {
			return fmt.Errorf("validate: layer %v input width does not "+
				"match layer %v output width \n\twant(%v) \n\thave(%v)",
				i, i-1, prev.Out(), next.In())
		}
	}
	return nil
}

// Forward computes the network's output on a batch of inputs, one
// sample per row
func (n *NeuralNet) Forward(x *mat.Dense) *mat.Dense {
	data := x
	for _, p := range n.layers {
		data = p.activation.Forward(p.layer.Forward(data))
	}
	return data
}

// Backward backpropagates grad, the gradient of the loss with respect
// to the output of the last Forward call, through the network in
// reverse order. Each layer is updated in place by gradient descent
// with step size learningRate. The gradient with respect to the
// network's input is returned.
func (n *NeuralNet) Backward(grad *mat.Dense, learningRate float64) *mat.Dense {
	gradient := grad
	for i := n.Len() - 1; i >= 0; i-- {
		p := n.layers[i]
		gradient = p.layer.Backward(p.activation.Backward(gradient),
			learningRate)
	}
	return gradient
}

// Predict returns the network's output for a single input
func (n *NeuralNet) Predict(input []float64) []float64 {
	x := mat.NewDense(1, len(input), append([]float64(nil), input...))
	out := n.Forward(x)
	return append([]float64(nil), out.RawRowView(0)...)
}

// Clone returns a deep copy of the network. No parameter storage is
// shared between the network and its clone.
func (n *NeuralNet) Clone() *NeuralNet {
	layers := make([]pair, len(n.layers))
	for i, p := range n.layers {
		layers[i] = pair{p.layer.Clone(), p.activation.Clone()}
	}
	return &NeuralNet{layers: layers}
}

// Set copies the parameter values of other into n, layer by layer.
// Both networks must have the same architecture.
func (n *NeuralNet) Set(other *NeuralNet) error {
	if n.Len() != other.Len() {
		return fmt.Errorf("set: invalid number of layers \n\twant(%v) "+
			"\n\thave(%v)", n.Len(), other.Len())
	}
	for i := range n.layers {
		if err := n.layers[i].layer.Set(other.layers[i].layer); err != nil {
			return fmt.Errorf("set: layer %v: %w", i, err)
		}
	}
	return nil
}

func (n *NeuralNet) String() string {
	str := "NeuralNet["
	for i, p := range n.layers {
		if i > 0 {
			str += " -> "
		}
		str += fmt.Sprintf("%v %v", p.layer, p.activation)
	}
	return str + "]"
}
