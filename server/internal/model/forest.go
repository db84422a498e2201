package model

import (
	"errors"
	"fmt"
	"math"
)

// leaf marks a missing child in the array tree encoding.
const leaf = -1

type forestParams struct {
	Trees []treeParams `json:"trees"`
}

// treeParams is a fitted decision tree in parallel-array form. Node i is a
// leaf when ChildrenLeft[i] == -1; otherwise samples with
// x[Feature[i]] <= Threshold[i] go left. Value[i] holds per-class weights.
type treeParams struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

type tree struct {
	left, right []int
	feature     []int
	threshold   []float64
	proba       [][]float64 // normalized leaf distributions; nil for split nodes
}

// Forest is a random forest classifier: the mean of its trees' leaf
// distributions.
type Forest struct {
	trees     []tree
	classes   []int
	nFeatures int
}

func newForest(p forestParams, classes []int, nf int) (*Forest, error) {
	if len(p.Trees) == 0 {
		return nil, errors.New("random_forest: no trees")
	}
	f := &Forest{
		trees:     make([]tree, 0, len(p.Trees)),
		classes:   append([]int(nil), classes...),
		nFeatures: nf,
	}
	for i, tp := range p.Trees {
		t, err := newTree(tp, len(classes), nf)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		f.trees = append(f.trees, t)
	}
	return f, nil
}

func newTree(p treeParams, nClasses, nf int) (tree, error) {
	n := len(p.ChildrenLeft)
	if n == 0 {
		return tree{}, errors.New("no nodes")
	}
	if len(p.ChildrenRight) != n || len(p.Feature) != n || len(p.Threshold) != n || len(p.Value) != n {
		return tree{}, fmt.Errorf("node arrays differ in length: left=%d right=%d feature=%d threshold=%d value=%d",
			n, len(p.ChildrenRight), len(p.Feature), len(p.Threshold), len(p.Value))
	}

	t := tree{
		left:      p.ChildrenLeft,
		right:     p.ChildrenRight,
		feature:   p.Feature,
		threshold: p.Threshold,
		proba:     make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		l, r := p.ChildrenLeft[i], p.ChildrenRight[i]
		if l == leaf || r == leaf {
			if l != r {
				return tree{}, fmt.Errorf("node %d: only one child set", i)
			}
			dist, err := normalize(p.Value[i], nClasses)
			if err != nil {
				return tree{}, fmt.Errorf("node %d: %w", i, err)
			}
			t.proba[i] = dist
			continue
		}
		// Children always follow their parent, so traversal terminates.
		if l <= i || l >= n || r <= i || r >= n {
			return tree{}, fmt.Errorf("node %d: children (%d, %d) out of range", i, l, r)
		}
		if p.Feature[i] < 0 || p.Feature[i] >= nf {
			return tree{}, fmt.Errorf("node %d: feature %d out of range [0, %d)", i, p.Feature[i], nf)
		}
		if math.IsNaN(p.Threshold[i]) {
			return tree{}, fmt.Errorf("node %d: threshold is NaN", i)
		}
	}
	return t, nil
}

func normalize(v []float64, nClasses int) ([]float64, error) {
	if len(v) != nClasses {
		return nil, fmt.Errorf("value has %d entries, want %d", len(v), nClasses)
	}
	var sum float64
	for _, w := range v {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("value %v is not a finite non-negative weight", w)
		}
		sum += w
	}
	if sum == 0 {
		return nil, errors.New("leaf has zero total weight")
	}
	out := make([]float64, len(v))
	for i, w := range v {
		out[i] = w / sum
	}
	return out, nil
}

// leafProba walks the tree for x and returns the reached leaf's distribution.
func (t *tree) leafProba(x []float64) []float64 {
	node := 0
	for t.proba[node] == nil {
		if x[t.feature[node]] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.proba[node]
}

// PredictProba averages the leaf distributions of all trees.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if err := checkInput("RandomForestClassifier", f.nFeatures, x); err != nil {
		return nil, err
	}
	out := make([]float64, len(f.classes))
	for i := range f.trees {
		for c, p := range f.trees[i].leafProba(x) {
			out[c] += p
		}
	}
	n := float64(len(f.trees))
	for c := range out {
		out[c] /= n
	}
	return out, nil
}

// Predict returns the class with the highest mean probability. Ties resolve
// to the earliest class.
func (f *Forest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.classes[best], nil
}
