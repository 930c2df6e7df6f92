// Package initwfn implements weight initialization algorithms which
// can be JSON serialized into configuration files.
package initwfn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Type describes different types of InitWFn that are available.
type Type string

// Available InitWFn types
const (
	Normal  Type = "Normal"
	GlorotU Type = "GlorotU"
	GlorotN Type = "GlorotN"
	HeU     Type = "HeU"
	HeN     Type = "HeN"
	Zeroes  Type = "Zeroes"
)

// InitWFn describes a weight initialization algorithm for a fully
// connected layer with fanIn inputs and fanOut outputs:
//
//	Normal	N(0, gain²)
//	GlorotU	U(-a, a), a = gain * sqrt(6 / (fanIn + fanOut))
//	GlorotN	N(0, σ²), σ = gain * sqrt(2 / (fanIn + fanOut))
//	HeU		U(-a, a), a = gain * sqrt(6 / fanIn)
//	HeN		N(0, σ²), σ = gain * sqrt(2 / fanIn)
//	Zeroes	0
//
// The zero value draws weights from a standard normal distribution.
type InitWFn struct {
	Type
	Gain float64 // 0 means 1
}

// New returns a new InitWFn
func New(t Type, gain float64) (InitWFn, error) {
	init := InitWFn{Type: t, Gain: gain}
	if err := init.Validate(); err != nil {
		return InitWFn{}, fmt.Errorf("new: %w", err)
	}
	return init, nil
}

// Validate returns an error if the InitWFn is not a known algorithm
func (i InitWFn) Validate() error {
	switch i.Type {
	case "", Normal, GlorotU, GlorotN, HeU, HeN, Zeroes:
	default:
		return fmt.Errorf("validate: no such initialization type %v", i.Type)
	}

	if i.Gain < 0 {
		return fmt.Errorf("validate: gain must be non-negative "+
			"\n\twant(>=0) \n\thave(%v)", i.Gain)
	}
	return nil
}

// Weights returns fanIn*fanOut weights drawn using src. If src is nil,
// the global source is used.
func (i InitWFn) Weights(fanIn, fanOut int, src rand.Source) []float64 {
	weights := make([]float64, fanIn*fanOut)
	if i.Type == Zeroes {
		return weights
	}

	gain := i.Gain
	if gain == 0 {
		gain = 1
	}

	var dist interface{ Rand() float64 }
	switch i.Type {
	case "", Normal:
		dist = distuv.Normal{Mu: 0, Sigma: gain, Src: src}

	case GlorotU:
		a := gain * math.Sqrt(6/float64(fanIn+fanOut))
		dist = distuv.Uniform{Min: -a, Max: a, Src: src}

	case GlorotN:
		sigma := gain * math.Sqrt(2/float64(fanIn+fanOut))
		dist = distuv.Normal{Mu: 0, Sigma: sigma, Src: src}

	case HeU:
		a := gain * math.Sqrt(6/float64(fanIn))
		dist = distuv.Uniform{Min: -a, Max: a, Src: src}

	case HeN:
		sigma := gain * math.Sqrt(2/float64(fanIn))
		dist = distuv.Normal{Mu: 0, Sigma: sigma, Src: src}

	default:
		panic(fmt.Sprintf("weights: no such initialization type %v", i.Type))
	}

	for j := range weights {
		weights[j] = dist.Rand()
	}
	return weights
}

// String implements the fmt.Stringer interface
func (i InitWFn) String() string {
	t := i.Type
	if t == "" {
		t = Normal
	}
	return fmt.Sprintf("{%v InitWFn: Gain %v}", t, i.Gain)
}
