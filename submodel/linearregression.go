package submodel

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/bayesgo/metatree/pkg/errors"
)

// LinearRegression is a Bayesian linear regression model with a conjugate
// normal-inverse-gamma prior. A constant term is appended to the explanatory
// variables, so the coefficient vector has dimContinuous+1 entries. The
// posterior predictive at a point is a location-scale Student's t.
type LinearRegression struct {
	degree int // dimContinuous + 1

	h0Mu     *mat.VecDense
	h0Lambda *mat.SymDense
	h0Alpha  float64
	h0Beta   float64

	// Derived prior quantities, fixed at construction.
	h0LogDetLambda float64
	lamMu0         *mat.VecDense // Lambda_0 * mu_0
	mu0LamMu0      float64       // mu_0^T Lambda_0 mu_0

	// Cumulative sufficient statistics.
	totalN float64
	xtX    *mat.SymDense
	xty    *mat.VecDense
	yty    float64

	hnMu     *mat.VecDense
	hnLambda *mat.SymDense
	hnAlpha  float64
	hnBeta   float64
	hnChol   mat.Cholesky

	// Predictive fixed by CalcPredDist.
	predReady bool
	predMu    float64
	predSigma float64
	predNu    float64
}

// NewLinearRegression creates a LinearRegression sub-model over
// dimContinuous explanatory variables. h0Mu may be nil (zero mean) and
// h0Lambda may be nil (identity precision); otherwise both must have
// dimension dimContinuous+1 to cover the constant term.
func NewLinearRegression(dimContinuous int, h0Mu []float64, h0Lambda mat.Symmetric, h0Alpha, h0Beta float64) (*LinearRegression, error) {
	if dimContinuous < 0 {
		return nil, errors.NewParameterFormatError("dim_continuous", "must be non-negative", dimContinuous)
	}
	if err := checkPositive("h0_alpha", h0Alpha); err != nil {
		return nil, err
	}
	if err := checkPositive("h0_beta", h0Beta); err != nil {
		return nil, err
	}
	degree := dimContinuous + 1

	mu := mat.NewVecDense(degree, nil)
	if h0Mu != nil {
		if len(h0Mu) != degree {
			return nil, errors.NewDimensionError("linearregression", degree, len(h0Mu), 1)
		}
		mu = mat.NewVecDense(degree, append([]float64(nil), h0Mu...))
	}

	lambda := mat.NewSymDense(degree, nil)
	if h0Lambda != nil {
		if h0Lambda.SymmetricDim() != degree {
			return nil, errors.NewDimensionError("linearregression", degree, h0Lambda.SymmetricDim(), 1)
		}
		lambda.CopySym(h0Lambda)
	} else {
		for i := 0; i < degree; i++ {
			lambda.SetSym(i, i, 1)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(lambda); !ok {
		return nil, errors.Wrap(errors.ErrSingularMatrix, "h0_lambda_mat must be positive definite")
	}

	m := &LinearRegression{
		degree:         degree,
		h0Mu:           mu,
		h0Lambda:       lambda,
		h0Alpha:        h0Alpha,
		h0Beta:         h0Beta,
		h0LogDetLambda: chol.LogDet(),
		xtX:            mat.NewSymDense(degree, nil),
		xty:            mat.NewVecDense(degree, nil),
	}
	m.lamMu0 = mat.NewVecDense(degree, nil)
	m.lamMu0.MulVec(lambda, mu)
	m.mu0LamMu0 = mat.Dot(mu, m.lamMu0)
	if err := m.recalcHnParams(); err != nil {
		return nil, err
	}
	return m, nil
}

// Family implements SubModel.
func (m *LinearRegression) Family() Family { return FamilyLinearRegression }

// Degree returns the coefficient dimension including the constant term.
func (m *LinearRegression) Degree() int { return m.degree }

// HnMu returns a copy of the posterior coefficient mean.
func (m *LinearRegression) HnMu() []float64 {
	out := make([]float64, m.degree)
	copy(out, m.hnMu.RawVector().Data)
	return out
}

// HnParams returns the posterior shape and rate (alpha, beta).
func (m *LinearRegression) HnParams() (float64, float64) { return m.hnAlpha, m.hnBeta }

// CheckTarget implements SubModel.
func (m *LinearRegression) CheckTarget(y []float64) error {
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewDataFormatErrorf("linearregression", "targets must be finite reals, got %g", v)
		}
	}
	return nil
}

// UpdatePosterior implements SubModel. x must have one row per target and
// dimContinuous columns; the constant term is appended internally.
func (m *LinearRegression) UpdatePosterior(x mat.Matrix, y []float64) error {
	if err := m.CheckTarget(y); err != nil {
		return err
	}
	if err := checkRows("linearregression", x, len(y)); err != nil {
		return err
	}
	_, cols := x.Dims()
	if cols != m.degree-1 {
		return errors.NewDimensionError("linearregression", m.degree-1, cols, 1)
	}

	xv := mat.NewVecDense(m.degree, nil)
	for i, yi := range y {
		for j := 0; j < cols; j++ {
			xv.SetVec(j, x.At(i, j))
		}
		xv.SetVec(m.degree-1, 1)
		m.xtX.SymRankOne(m.xtX, 1, xv)
		m.xty.AddScaledVec(m.xty, yi, xv)
		m.yty += yi * yi
		m.totalN++
	}
	return m.recalcHnParams()
}

// recalcHnParams derives the posterior from the cumulative sufficient
// statistics.
func (m *LinearRegression) recalcHnParams() error {
	m.hnLambda = mat.NewSymDense(m.degree, nil)
	m.hnLambda.AddSym(m.h0Lambda, m.xtX)
	if ok := m.hnChol.Factorize(m.hnLambda); !ok {
		return errors.Wrap(errors.ErrSingularMatrix, "posterior precision is not positive definite")
	}

	b := mat.NewVecDense(m.degree, nil)
	b.AddVec(m.lamMu0, m.xty)
	m.hnMu = mat.NewVecDense(m.degree, nil)
	if err := m.hnChol.SolveVecTo(m.hnMu, b); err != nil {
		return errors.Wrap(err, "solving for the posterior coefficient mean")
	}

	m.hnAlpha = m.h0Alpha + m.totalN/2
	// mu_n^T Lambda_n mu_n equals mu_n^T b because Lambda_n mu_n = b.
	m.hnBeta = m.h0Beta + (m.yty+m.mu0LamMu0-mat.Dot(m.hnMu, b))/2
	m.predReady = false
	return nil
}

// LogMarginalLikelihood implements SubModel.
func (m *LinearRegression) LogMarginalLikelihood() float64 {
	return -m.totalN/2*math.Log(2*math.Pi) +
		0.5*(m.h0LogDetLambda-m.hnChol.LogDet()) +
		lgamma(m.hnAlpha) - lgamma(m.h0Alpha) +
		m.h0Alpha*math.Log(m.h0Beta) - m.hnAlpha*math.Log(m.hnBeta)
}

// ResetHnParams implements SubModel.
func (m *LinearRegression) ResetHnParams() {
	m.totalN = 0
	m.xtX = mat.NewSymDense(m.degree, nil)
	m.xty = mat.NewVecDense(m.degree, nil)
	m.yty = 0
	// The prior precision is positive definite, so this cannot fail.
	_ = m.recalcHnParams()
}

// CalcPredDist implements SubModel. x holds the continuous explanatory
// variables of one sample.
func (m *LinearRegression) CalcPredDist(x []float64) error {
	if len(x) != m.degree-1 {
		return errors.NewDimensionError("linearregression.CalcPredDist", m.degree-1, len(x), 1)
	}
	xv := mat.NewVecDense(m.degree, nil)
	for j, v := range x {
		xv.SetVec(j, v)
	}
	xv.SetVec(m.degree-1, 1)

	tmp := mat.NewVecDense(m.degree, nil)
	if err := m.hnChol.SolveVecTo(tmp, xv); err != nil {
		return errors.Wrap(err, "solving for the predictive scale")
	}
	quad := mat.Dot(xv, tmp)

	m.predMu = mat.Dot(xv, m.hnMu)
	m.predSigma = math.Sqrt(m.hnBeta / m.hnAlpha * (1 + quad))
	m.predNu = 2 * m.hnAlpha
	m.predReady = true
	return nil
}

func (m *LinearRegression) checkPredReady(method string) error {
	if !m.predReady {
		return errors.NewDataFormatError("linearregression."+method, "CalcPredDist must be called before reading the predictive")
	}
	return nil
}

// PredMean implements SubModel.
func (m *LinearRegression) PredMean() (float64, error) {
	if err := m.checkPredReady("PredMean"); err != nil {
		return 0, err
	}
	return m.predMu, nil
}

// PredVar implements SubModel. The variance is infinite when the predictive
// t distribution has at most 2 degrees of freedom.
func (m *LinearRegression) PredVar() (float64, error) {
	if err := m.checkPredReady("PredVar"); err != nil {
		return 0, err
	}
	if m.predNu <= 2 {
		return math.Inf(1), nil
	}
	return m.predSigma * m.predSigma * m.predNu / (m.predNu - 2), nil
}

// PredDensity implements SubModel. It returns zero when no predictive has
// been fixed yet.
func (m *LinearRegression) PredDensity(y float64) float64 {
	if !m.predReady {
		return 0
	}
	t := distuv.StudentsT{Mu: m.predMu, Sigma: m.predSigma, Nu: m.predNu}
	return t.Prob(y)
}

// Clone implements SubModel.
func (m *LinearRegression) Clone() SubModel {
	mu := make([]float64, m.degree)
	copy(mu, m.h0Mu.RawVector().Data)
	c, err := NewLinearRegression(m.degree-1, mu, m.h0Lambda, m.h0Alpha, m.h0Beta)
	if err != nil {
		// The hyperparameters were validated at construction.
		panic(err)
	}
	return c
}

// Copy implements SubModel.
func (m *LinearRegression) Copy() SubModel {
	c := &LinearRegression{
		degree:         m.degree,
		h0Mu:           mat.VecDenseCopyOf(m.h0Mu),
		h0Lambda:       mat.NewSymDense(m.degree, nil),
		h0Alpha:        m.h0Alpha,
		h0Beta:         m.h0Beta,
		h0LogDetLambda: m.h0LogDetLambda,
		lamMu0:         mat.VecDenseCopyOf(m.lamMu0),
		mu0LamMu0:      m.mu0LamMu0,
		totalN:         m.totalN,
		xtX:            mat.NewSymDense(m.degree, nil),
		xty:            mat.VecDenseCopyOf(m.xty),
		yty:            m.yty,
	}
	c.h0Lambda.CopySym(m.h0Lambda)
	c.xtX.CopySym(m.xtX)
	// Rebuilding from the sufficient statistics restores hn and the factor.
	if err := c.recalcHnParams(); err != nil {
		panic(err)
	}
	c.predReady = m.predReady
	c.predMu = m.predMu
	c.predSigma = m.predSigma
	c.predNu = m.predNu
	return c
}

var _ SubModel = (*LinearRegression)(nil)
