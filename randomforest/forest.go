package randomforest

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/bayesgo/metatree/core/model"
	"github.com/bayesgo/metatree/pkg/errors"
	"github.com/bayesgo/metatree/pkg/log"
)

var _ model.Predictor = (*Forest)(nil)

// Task selects the split criterion of the forest.
type Task string

// Supported tasks.
const (
	TaskRegression     Task = "regression"
	TaskClassification Task = "classification"
)

// Params configures forest training.
type Params struct {
	NumTrees       int  // number of bootstrap trees
	MaxDepth       int  // maximum tree depth, 0 for a root-only tree
	MinSamplesLeaf int  // minimum rows per leaf, defaults to 1
	MaxFeatures    int  // features considered per split, 0 means all
	Task           Task // regression or classification
	NumClasses     int  // required for classification
}

// Forest is a collection of bootstrap CART trees.
type Forest struct {
	Trees []*Tree
	task  Task
}

// Train fits a forest to x and y. The caller provides the random source so
// training stays reproducible within a larger pipeline.
func Train(x mat.Matrix, y []float64, params Params, rng *rand.Rand) (*Forest, error) {
	rows, _ := x.Dims()
	if rows == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	if rows != len(y) {
		return nil, errors.NewDimensionError("randomforest.Train", rows, len(y), 0)
	}
	if params.NumTrees < 1 {
		return nil, errors.NewParameterFormatError("num_trees", "must be at least 1", params.NumTrees)
	}
	if params.MinSamplesLeaf < 1 {
		params.MinSamplesLeaf = 1
	}

	var impurity impurityFunc
	switch params.Task {
	case TaskRegression:
		impurity = varianceImpurity{}
	case TaskClassification:
		if params.NumClasses < 2 {
			return nil, errors.NewParameterFormatError("num_classes", "must be at least 2 for classification", params.NumClasses)
		}
		impurity = giniImpurity{numClasses: params.NumClasses}
	default:
		return nil, errors.NewCriteriaError("randomforest.Train", string(params.Task),
			[]string{string(TaskRegression), string(TaskClassification)})
	}

	logger := log.GetLoggerWithName("randomforest.trainer")
	logger.Debug("Training forest",
		log.SamplesKey, rows,
		"num_trees", params.NumTrees,
		"max_depth", params.MaxDepth,
	)

	forest := &Forest{task: params.Task, Trees: make([]*Tree, 0, params.NumTrees)}
	for i := 0; i < params.NumTrees; i++ {
		indices := make([]int, rows)
		for j := range indices {
			indices[j] = rng.Intn(rows)
		}
		b := &builder{
			x:        x,
			y:        y,
			params:   params,
			impurity: impurity,
			rng:      rng,
			tree:     &Tree{},
		}
		b.build(indices, 0)
		forest.Trees = append(forest.Trees, b.tree)
	}
	return forest, nil
}

// Predict returns one prediction per row: the tree-mean for regression and
// the majority vote for classification.
func (f *Forest) Predict(x mat.Matrix) []float64 {
	rows, cols := x.Dims()
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			row[j] = x.At(i, j)
		}
		if f.task == TaskClassification {
			votes := map[float64]int{}
			for _, t := range f.Trees {
				votes[t.PredictRow(row)]++
			}
			bestClass, bestVotes := 0.0, -1
			for class, n := range votes {
				if n > bestVotes || (n == bestVotes && class < bestClass) {
					bestClass, bestVotes = class, n
				}
			}
			out[i] = bestClass
		} else {
			total := 0.0
			for _, t := range f.Trees {
				total += t.PredictRow(row)
			}
			out[i] = total / float64(len(f.Trees))
		}
	}
	return out
}

// builder grows one tree recursively.
type builder struct {
	x        mat.Matrix
	y        []float64
	params   Params
	impurity impurityFunc
	rng      *rand.Rand
	tree     *Tree
}

// build grows the subtree over the given rows and returns its node id.
func (b *builder) build(indices []int, depth int) int {
	node := b.tree.addLeaf(b.leafValue(indices))
	if b.params.MaxDepth <= 0 || depth >= b.params.MaxDepth || len(indices) < 2*b.params.MinSamplesLeaf {
		return node
	}

	best, found := b.bestSplit(indices)
	if !found {
		return node
	}

	left := b.build(best.left, depth+1)
	right := b.build(best.right, depth+1)
	b.tree.setSplit(node, best.feature, best.threshold, left, right)
	return node
}

func (b *builder) bestSplit(indices []int) (splitCandidate, bool) {
	_, numFeatures := b.x.Dims()
	features := make([]int, numFeatures)
	for i := range features {
		features[i] = i
	}
	if b.params.MaxFeatures > 0 && b.params.MaxFeatures < numFeatures {
		b.rng.Shuffle(numFeatures, func(i, j int) {
			features[i], features[j] = features[j], features[i]
		})
		features = features[:b.params.MaxFeatures]
	}

	var best splitCandidate
	found := false
	for _, feature := range features {
		cand, ok := scanSplit(b.x, b.y, indices, feature, b.impurity)
		if !ok || cand.gain <= 0 {
			continue
		}
		if len(cand.left) < b.params.MinSamplesLeaf || len(cand.right) < b.params.MinSamplesLeaf {
			continue
		}
		if !found || cand.gain > best.gain {
			best = cand
			found = true
		}
	}
	return best, found
}

func (b *builder) leafValue(indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	if b.params.Task == TaskClassification {
		counts := make([]int, b.params.NumClasses)
		for _, i := range indices {
			counts[int(b.y[i])]++
		}
		bestClass, bestCount := 0, -1
		for class, n := range counts {
			if n > bestCount {
				bestClass, bestCount = class, n
			}
		}
		return float64(bestClass)
	}
	total := 0.0
	for _, i := range indices {
		total += b.y[i]
	}
	return total / float64(len(indices))
}
