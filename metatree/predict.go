package metatree

import (
	"gonum.org/v1/gonum/mat"

	mterrors "github.com/bayesgo/metatree/pkg/errors"
	"github.com/bayesgo/metatree/submodel"
)

// Loss selects the Bayes risk criterion of a prediction.
type Loss string

const (
	// LossDefault resolves to LossSquared for regression families and
	// Loss01 for classification families.
	LossDefault Loss = ""
	// LossSquared predicts the posterior mean. Regression families only.
	LossSquared Loss = "squared"
	// Loss01 predicts the most probable class. Classification families
	// only.
	Loss01 Loss = "0-1"
	// LossKL returns the whole predictive class distribution, via
	// MakePredictionKL. Classification families only.
	LossKL Loss = "KL"
)

// resolveLoss applies the family default.
func (m *LearnModel) resolveLoss(loss Loss) Loss {
	if loss != LossDefault {
		return loss
	}
	if m.subModel.Family().IsClassification() {
		return Loss01
	}
	return LossSquared
}

// calcPredDistRecursion routes the prediction batch through the tree and
// records, per node, the routed rows and their positions within the parent's
// row list.
func (m *LearnModel) calcPredDistRecursion(node *Node, s *sample, rows []int) {
	node.pRows = rows
	node.pChildPos = nil
	if node.leaf {
		return
	}
	childRows := make([][]int, len(node.children))
	node.pChildPos = make([][]int, len(node.children))
	for j, r := range rows {
		i := m.childIndex(node, s, r)
		childRows[i] = append(childRows[i], r)
		node.pChildPos[i] = append(node.pChildPos[i], j)
	}
	for i, cr := range childRows {
		if len(cr) > 0 {
			m.calcPredDistRecursion(node.children[i], s, cr)
		}
	}
}

// CalcPredDist fixes the prediction batch: it routes every sample through
// every meta-tree and caches the routing for the prediction methods.
func (m *LearnModel) CalcPredDist(xContinuous mat.Matrix, xCategorical [][]int) error {
	if !m.IsFitted() {
		return mterrors.NewNotFittedError("metatree.LearnModel", "CalcPredDist")
	}
	s, err := m.checkSample(xContinuous, xCategorical, nil, false)
	if err != nil {
		return err
	}
	m.pN = s.n
	m.pXC = s.xc
	rows := s.allRows()
	for _, root := range m.hnMetatreeList {
		m.calcPredDistRecursion(root, s, rows)
	}
	return nil
}

// nodePredDist fixes the node sub-model's predictive distribution at the
// given prediction row. Only feature-dependent families need it.
func (m *LearnModel) nodePredDist(node *Node, row int) error {
	if !node.subModel.Family().UsesFeatures() {
		return nil
	}
	return node.subModel.CalcPredDist(m.pXC.RawRowView(row))
}

// predictMeanRecursion returns the mixed posterior-mean prediction for the
// rows routed to node, aligned with node.pRows.
func (m *LearnModel) predictMeanRecursion(node *Node) ([]float64, error) {
	out := make([]float64, len(node.pRows))
	for j, row := range node.pRows {
		if err := m.nodePredDist(node, row); err != nil {
			return nil, err
		}
		mean, err := node.subModel.PredMean()
		if err != nil {
			return nil, err
		}
		out[j] = mean
	}
	if node.leaf {
		return out, nil
	}
	for i, child := range node.children {
		if len(node.pChildPos[i]) == 0 {
			continue
		}
		childVals, err := m.predictMeanRecursion(child)
		if err != nil {
			return nil, err
		}
		for jj, pos := range node.pChildPos[i] {
			out[pos] = (1-node.hG)*out[pos] + node.hG*childVals[jj]
		}
	}
	return out, nil
}

// predictKLRecursion returns the mixed class distribution per routed row.
func (m *LearnModel) predictKLRecursion(node *Node) [][]float64 {
	base := node.subModel.(submodel.ClassProbEstimator).ClassProbs()
	out := make([][]float64, len(node.pRows))
	for j := range out {
		out[j] = append([]float64(nil), base...)
	}
	if node.leaf {
		return out
	}
	for i, child := range node.children {
		if len(node.pChildPos[i]) == 0 {
			continue
		}
		childVals := m.predictKLRecursion(child)
		for jj, pos := range node.pChildPos[i] {
			for c := range out[pos] {
				out[pos][c] = (1-node.hG)*out[pos][c] + node.hG*childVals[jj][c]
			}
		}
	}
	return out
}

// classDistMatrix mixes the per-tree class distributions into one
// pN-by-numClasses matrix.
func (m *LearnModel) classDistMatrix() *mat.Dense {
	degree := m.subModel.(submodel.ClassProbEstimator).NumClasses()
	out := mat.NewDense(m.pN, degree, nil)
	for i, root := range m.hnMetatreeList {
		p := m.hnMetatreeProbVec[i]
		vals := m.predictKLRecursion(root)
		for j, row := range root.pRows {
			for c := 0; c < degree; c++ {
				out.Set(row, c, out.At(row, c)+p*vals[j][c])
			}
		}
	}
	return out
}

// MakePrediction predicts the batch fixed by CalcPredDist. LossSquared
// returns posterior means, Loss01 the most probable class labels. For the
// whole class distribution use MakePredictionKL.
func (m *LearnModel) MakePrediction(loss Loss) ([]float64, error) {
	const op = "metatree.MakePrediction"
	if m.pN == 0 {
		return nil, mterrors.NewNotFittedError("metatree.LearnModel", "MakePrediction")
	}
	switch m.resolveLoss(loss) {
	case LossSquared:
		if m.subModel.Family().IsClassification() {
			return nil, mterrors.NewCriteriaError(op, string(LossSquared), []string{string(Loss01), string(LossKL)})
		}
		out := make([]float64, m.pN)
		for i, root := range m.hnMetatreeList {
			vals, err := m.predictMeanRecursion(root)
			if err != nil {
				return nil, err
			}
			for j, row := range root.pRows {
				out[row] += m.hnMetatreeProbVec[i] * vals[j]
			}
		}
		return out, nil
	case Loss01:
		if !m.subModel.Family().IsClassification() {
			return nil, mterrors.NewCriteriaError(op, string(Loss01), []string{string(LossSquared)})
		}
		dist := m.classDistMatrix()
		out := make([]float64, m.pN)
		_, degree := dist.Dims()
		for row := 0; row < m.pN; row++ {
			best := 0
			for c := 1; c < degree; c++ {
				if dist.At(row, c) > dist.At(row, best) {
					best = c
				}
			}
			out[row] = float64(best)
		}
		return out, nil
	default:
		return nil, mterrors.NewCriteriaError(op, string(loss), []string{string(LossSquared), string(Loss01)})
	}
}

// MakePredictionKL returns the predictive class distribution of the batch
// fixed by CalcPredDist as a pN-by-numClasses matrix. Classification
// families only.
func (m *LearnModel) MakePredictionKL() (*mat.Dense, error) {
	if m.pN == 0 {
		return nil, mterrors.NewNotFittedError("metatree.LearnModel", "MakePredictionKL")
	}
	if !m.subModel.Family().IsClassification() {
		return nil, mterrors.NewCriteriaError("metatree.MakePredictionKL", string(LossKL), []string{string(LossSquared)})
	}
	return m.classDistMatrix(), nil
}

// predVarRecursion returns the mean and variance of the mixed predictive
// distribution per routed row, by the law of total variance.
func (m *LearnModel) predVarRecursion(node *Node) (means, vars []float64, err error) {
	n := len(node.pRows)
	means = make([]float64, n)
	vars = make([]float64, n)
	for j, row := range node.pRows {
		if err := m.nodePredDist(node, row); err != nil {
			return nil, nil, err
		}
		mean, err := node.subModel.PredMean()
		if err != nil {
			return nil, nil, err
		}
		v, err := node.subModel.PredVar()
		if err != nil {
			return nil, nil, err
		}
		means[j] = mean
		vars[j] = v
	}
	if node.leaf {
		return means, vars, nil
	}
	childMeans := make([]float64, n)
	childVars := make([]float64, n)
	for i, child := range node.children {
		if len(node.pChildPos[i]) == 0 {
			continue
		}
		cm, cv, err := m.predVarRecursion(child)
		if err != nil {
			return nil, nil, err
		}
		for jj, pos := range node.pChildPos[i] {
			childMeans[pos] = cm[jj]
			childVars[pos] = cv[jj]
		}
	}
	for j := 0; j < n; j++ {
		mix := (1-node.hG)*means[j] + node.hG*childMeans[j]
		d0 := mix - means[j]
		d1 := mix - childMeans[j]
		vars[j] = (1-node.hG)*(d0*d0+vars[j]) + node.hG*(d1*d1+childVars[j])
		means[j] = mix
	}
	return means, vars, nil
}

// CalcPredVar returns the variance of the predictive distribution per
// sample of the batch fixed by CalcPredDist. Only the normal and linear
// regression families have a tractable predictive variance.
func (m *LearnModel) CalcPredVar() ([]float64, error) {
	if m.pN == 0 {
		return nil, mterrors.NewNotFittedError("metatree.LearnModel", "CalcPredVar")
	}
	family := m.subModel.Family()
	if family != submodel.FamilyNormal && family != submodel.FamilyLinearRegression {
		return nil, mterrors.NewParameterFormatError("SubModel",
			"CalcPredVar requires the normal or linearregression family", string(family))
	}
	numTrees := len(m.hnMetatreeList)
	means := make([][]float64, numTrees)
	vars := make([][]float64, numTrees)
	for i, root := range m.hnMetatreeList {
		tm, tv, err := m.predVarRecursion(root)
		if err != nil {
			return nil, err
		}
		means[i] = make([]float64, m.pN)
		vars[i] = make([]float64, m.pN)
		for j, row := range root.pRows {
			means[i][row] = tm[j]
			vars[i][row] = tv[j]
		}
	}
	mixMeans := make([]float64, m.pN)
	for i := 0; i < numTrees; i++ {
		for row := 0; row < m.pN; row++ {
			mixMeans[row] += m.hnMetatreeProbVec[i] * means[i][row]
		}
	}
	out := make([]float64, m.pN)
	for i := 0; i < numTrees; i++ {
		for row := 0; row < m.pN; row++ {
			d := means[i][row] - mixMeans[row]
			out[row] += m.hnMetatreeProbVec[i] * (d*d + vars[i][row])
		}
	}
	return out, nil
}

// predDensityRecursion returns the mixed predictive density per routed row,
// with ys aligned to node.pRows.
func (m *LearnModel) predDensityRecursion(node *Node, ys []float64) ([]float64, error) {
	out := make([]float64, len(node.pRows))
	for j, row := range node.pRows {
		if err := m.nodePredDist(node, row); err != nil {
			return nil, err
		}
		out[j] = node.subModel.PredDensity(ys[j])
	}
	if node.leaf {
		return out, nil
	}
	for i, child := range node.children {
		if len(node.pChildPos[i]) == 0 {
			continue
		}
		childYs := make([]float64, len(node.pChildPos[i]))
		for jj, pos := range node.pChildPos[i] {
			childYs[jj] = ys[pos]
		}
		childVals, err := m.predDensityRecursion(child, childYs)
		if err != nil {
			return nil, err
		}
		for jj, pos := range node.pChildPos[i] {
			out[pos] = (1-node.hG)*out[pos] + node.hG*childVals[jj]
		}
	}
	return out, nil
}

// calcPredDensityAt evaluates the ensemble's predictive density with one y
// value per prediction row.
func (m *LearnModel) calcPredDensityAt(ys []float64) ([]float64, error) {
	out := make([]float64, m.pN)
	for i, root := range m.hnMetatreeList {
		treeYs := make([]float64, len(root.pRows))
		for j, row := range root.pRows {
			treeYs[j] = ys[row]
		}
		vals, err := m.predDensityRecursion(root, treeYs)
		if err != nil {
			return nil, err
		}
		for j, row := range root.pRows {
			out[row] += m.hnMetatreeProbVec[i] * vals[j]
		}
	}
	return out, nil
}

// CalcPredDensity evaluates the predictive density of the batch fixed by
// CalcPredDist. y must hold one target per sample, or a single value that is
// broadcast; when the batch holds a single sample, y may instead be a grid
// of values evaluated against it.
func (m *LearnModel) CalcPredDensity(y []float64) ([]float64, error) {
	const op = "metatree.CalcPredDensity"
	if m.pN == 0 {
		return nil, mterrors.NewNotFittedError("metatree.LearnModel", "CalcPredDensity")
	}
	if err := m.subModel.CheckTarget(y); err != nil {
		return nil, err
	}
	switch {
	case len(y) == m.pN:
		return m.calcPredDensityAt(y)
	case len(y) == 1:
		ys := make([]float64, m.pN)
		for i := range ys {
			ys[i] = y[0]
		}
		return m.calcPredDensityAt(ys)
	case m.pN == 1:
		out := make([]float64, len(y))
		for i, yv := range y {
			vals, err := m.calcPredDensityAt([]float64{yv})
			if err != nil {
				return nil, err
			}
			out[i] = vals[0]
		}
		return out, nil
	default:
		return nil, mterrors.NewDataFormatErrorf(op,
			"y must have size 1 or %d, got %d", m.pN, len(y))
	}
}

// PredAndUpdate predicts a batch and then folds it into the posterior with
// the given_MT update, for sequential use.
func (m *LearnModel) PredAndUpdate(xContinuous mat.Matrix, xCategorical [][]int, y []float64, loss Loss) ([]float64, error) {
	if err := m.CalcPredDist(xContinuous, xCategorical); err != nil {
		return nil, err
	}
	pred, err := m.MakePrediction(loss)
	if err != nil {
		return nil, err
	}
	if err := m.UpdatePosterior(xContinuous, xCategorical, y, AlgGivenMT, nil); err != nil {
		return nil, err
	}
	return pred, nil
}

// Fit resets the hyperparameters and learns the ensemble from scratch.
func (m *LearnModel) Fit(xContinuous mat.Matrix, xCategorical [][]int, y []float64, alg AlgType, opts *UpdateOptions) error {
	m.ResetHnParams()
	return m.UpdatePosterior(xContinuous, xCategorical, y, alg, opts)
}

// Predict fixes the batch and predicts it under the family's default loss.
func (m *LearnModel) Predict(xContinuous mat.Matrix, xCategorical [][]int) ([]float64, error) {
	if err := m.CalcPredDist(xContinuous, xCategorical); err != nil {
		return nil, err
	}
	return m.MakePrediction(LossDefault)
}

// PredictProba fixes the batch and returns the predictive class
// distribution. Classification families only.
func (m *LearnModel) PredictProba(xContinuous mat.Matrix, xCategorical [][]int) (*mat.Dense, error) {
	if err := m.CalcPredDist(xContinuous, xCategorical); err != nil {
		return nil, err
	}
	return m.MakePredictionKL()
}
