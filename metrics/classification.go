package metrics

import (
	"math"

	"github.com/bayesgo/metatree/pkg/errors"
)

// Accuracy returns the fraction of predictions matching the labels.
// Labels are compared as exact float values (class codes).
func Accuracy(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// LogLoss returns the mean negative log-likelihood of the true labels
// under the predicted class probabilities. probs[i] holds one row per
// sample with one column per class; yTrue holds integer class codes.
// Probabilities are clipped to [eps, 1-eps] to keep the loss finite.
func LogLoss(yTrue []float64, probs [][]float64, eps float64) (float64, error) {
	const op = "LogLoss"
	if len(yTrue) == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, op)
	}
	if len(probs) != len(yTrue) {
		return 0, errors.NewDimensionError(op, len(yTrue), len(probs), 0)
	}
	if eps <= 0 {
		eps = 1e-15
	}
	var sum float64
	for i, row := range yTrue {
		c := int(row)
		if c < 0 || c >= len(probs[i]) {
			return 0, errors.NewDataFormatErrorf(op, "label %v out of range for %d classes", row, len(probs[i]))
		}
		p := probs[i][c]
		if p < eps {
			p = eps
		} else if p > 1-eps {
			p = 1 - eps
		}
		sum -= math.Log(p)
	}
	return sum / float64(len(yTrue)), nil
}
