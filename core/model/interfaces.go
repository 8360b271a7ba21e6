package model

import (
	"gonum.org/v1/gonum/mat"
)

// Transformer is a fit-once feature transform: Fit learns statistics
// from a training batch, Transform applies them to later batches.
type Transformer interface {
	// Fit learns the transform's statistics from x.
	Fit(x mat.Matrix) error

	// Transform applies the fitted statistics to x.
	Transform(x mat.Matrix) (*mat.Dense, error)

	// FitTransform fits on x and returns the transformed copy.
	FitTransform(x mat.Matrix) (*mat.Dense, error)
}

// InvertibleTransformer is a Transformer whose output can be mapped
// back to the original feature space.
type InvertibleTransformer interface {
	Transformer

	// InverseTransform undoes the fitted transform.
	InverseTransform(x mat.Matrix) (*mat.Dense, error)
}

// Predictor maps the rows of a design matrix to point predictions,
// one per row.
type Predictor interface {
	Predict(x mat.Matrix) []float64
}
