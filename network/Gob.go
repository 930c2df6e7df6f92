package network

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// layerRecord is the serialized form of a single (Layer, Activation)
// pair
type layerRecord struct {
	In, Out    int
	Weights    []float64
	Biases     []float64
	Activation activationType
	Param      float64
}

// GobEncode implements the gob.GobEncoder interface
func (n *NeuralNet) GobEncode() ([]byte, error) {
	records := make([]layerRecord, n.Len())
	for i, p := range n.layers {
		weights := p.layer.Weights()
		records[i] = layerRecord{
			In:         p.layer.In(),
			Out:        p.layer.Out(),
			Weights:    weights.RawMatrix().Data,
			Biases:     p.layer.Biases().RawVector().Data,
			Activation: p.activation.activationType(),
			Param:      p.activation.param(),
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(records); err != nil {
		return nil, fmt.Errorf("gobEncode: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (n *NeuralNet) GobDecode(encoded []byte) error {
	var records []layerRecord
	dec := gob.NewDecoder(bytes.NewReader(encoded))
	if err := dec.Decode(&records); err != nil {
		return fmt.Errorf("gobDecode: %w", err)
	}

	net := New()
	for i, r := range records {
		if r.In < 1 || r.Out < 1 || len(r.Weights) != r.In*r.Out ||
			len(r.Biases) != r.Out {
			return fmt.Errorf("gobDecode: layer %v: corrupt parameters", i)
		}
		layer, err := NewLayerFrom(mat.NewDense(r.In, r.Out, r.Weights),
			mat.NewVecDense(r.Out, r.Biases))
		if err != nil {
			return fmt.Errorf("gobDecode: layer %v: %w", i, err)
		}
		act, err := newActivation(r.Activation, r.Param)
		if err != nil {
			return fmt.Errorf("gobDecode: layer %v: %w", i, err)
		}
		if err := net.Add(layer, act); err != nil {
			return fmt.Errorf("gobDecode: %w", err)
		}
	}

	*n = *net
	return nil
}

// Save writes the network's architecture and parameters to filename
func (n *NeuralNet) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %w", err)
	}

	if err := gob.NewEncoder(file).Encode(n); err != nil {
		file.Close()
		return fmt.Errorf("save: could not encode network: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("save: could not close file: %w", err)
	}
	return nil
}

// Load reads a network previously written with Save
func Load(filename string) (*NeuralNet, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("load: could not open file: %w", err)
	}
	defer file.Close()

	net := New()
	if err := gob.NewDecoder(file).Decode(net); err != nil {
		return nil, fmt.Errorf("load: could not decode network: %w", err)
	}
	return net, nil
}
