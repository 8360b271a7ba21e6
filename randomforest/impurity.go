package randomforest

// impurityAcc accumulates the statistics needed to score a node.
type impurityAcc struct {
	n      float64
	sum    float64
	sumSq  float64
	counts []float64 // class counts, nil for regression
}

func (a *impurityAcc) clone() *impurityAcc {
	c := &impurityAcc{n: a.n, sum: a.sum, sumSq: a.sumSq}
	if a.counts != nil {
		c.counts = append([]float64(nil), a.counts...)
	}
	return c
}

// impurityFunc scores nodes; lower total scores over the children mean a
// better split. The score is weighted by the node size so scores of sibling
// nodes can be added directly.
type impurityFunc interface {
	newAcc() *impurityAcc
	add(a *impurityAcc, y float64)
	sub(a *impurityAcc, y float64)
	score(a *impurityAcc) float64
}

// varianceImpurity scores a node by its sum of squared errors, giving
// variance-reduction splits for regression.
type varianceImpurity struct{}

func (varianceImpurity) newAcc() *impurityAcc { return &impurityAcc{} }

func (varianceImpurity) add(a *impurityAcc, y float64) {
	a.n++
	a.sum += y
	a.sumSq += y * y
}

func (varianceImpurity) sub(a *impurityAcc, y float64) {
	a.n--
	a.sum -= y
	a.sumSq -= y * y
}

func (varianceImpurity) score(a *impurityAcc) float64 {
	if a.n == 0 {
		return 0
	}
	return a.sumSq - a.sum*a.sum/a.n
}

// giniImpurity scores a node by n * gini, giving gini-gain splits for
// classification.
type giniImpurity struct {
	numClasses int
}

func (g giniImpurity) newAcc() *impurityAcc {
	return &impurityAcc{counts: make([]float64, g.numClasses)}
}

func (giniImpurity) add(a *impurityAcc, y float64) {
	a.n++
	a.counts[int(y)]++
}

func (giniImpurity) sub(a *impurityAcc, y float64) {
	a.n--
	a.counts[int(y)]--
}

func (giniImpurity) score(a *impurityAcc) float64 {
	if a.n == 0 {
		return 0
	}
	sumSq := 0.0
	for _, c := range a.counts {
		sumSq += c * c
	}
	return a.n - sumSq/a.n
}
