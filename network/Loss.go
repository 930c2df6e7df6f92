package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Loss is a loss function together with its derivative with respect
// to the predictions
type Loss interface {
	// Loss returns the loss of predictions yPred against yTrue
	Loss(yTrue, yPred mat.Matrix) float64

	// Derivative returns the gradient of Loss with respect to yPred
	Derivative(yTrue, yPred mat.Matrix) *mat.Dense
}

// MSE is the mean squared error, averaged over every element
type MSE struct{}

// Loss implements the Loss interface
func (MSE) Loss(yTrue, yPred mat.Matrix) float64 {
	diff := difference(yTrue, yPred)
	r, c := diff.Dims()

	diff.MulElem(diff, diff)
	return mat.Sum(diff) / float64(r*c)
}

// Derivative implements the Loss interface
func (MSE) Derivative(yTrue, yPred mat.Matrix) *mat.Dense {
	diff := difference(yTrue, yPred)
	r, c := diff.Dims()

	diff.Scale(2/float64(r*c), diff)
	return diff
}

func (MSE) String() string {
	return "MSE"
}

// difference returns yPred - yTrue
func difference(yTrue, yPred mat.Matrix) *mat.Dense {
	r, c := yTrue.Dims()
	pr, pc := yPred.Dims()
	if r != pr || c != pc {
		panic(fmt.Sprintf("loss: prediction and target shapes differ "+
			"\n\twant(%v, %v) \n\thave(%v, %v)", r, c, pr, pc))
	}

	diff := mat.NewDense(r, c, nil)
	diff.Sub(yPred, yTrue)
	return diff
}
