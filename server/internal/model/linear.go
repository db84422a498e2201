package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// linearParams is the coefficient block shared by the linear kinds.
type linearParams struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// linear holds a weight vector and bias for binary decision functions.
type linear struct {
	w       *mat.VecDense
	b       float64
	classes [2]int
}

func newLinear(p linearParams, classes []int, nf int) (linear, error) {
	if len(classes) != 2 {
		return linear{}, fmt.Errorf("binary model needs 2 classes, got %d", len(classes))
	}
	if len(p.Coef) != nf {
		return linear{}, fmt.Errorf("coef has %d entries, want %d", len(p.Coef), nf)
	}
	for _, c := range p.Coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return linear{}, errors.New("coef contains NaN or infinity")
		}
	}
	if math.IsNaN(p.Intercept) || math.IsInf(p.Intercept, 0) {
		return linear{}, errors.New("intercept is NaN or infinity")
	}
	w := make([]float64, nf)
	copy(w, p.Coef)
	return linear{
		w:       mat.NewVecDense(nf, w),
		b:       p.Intercept,
		classes: [2]int{classes[0], classes[1]},
	}, nil
}

// decision returns w·x + b.
func (l linear) decision(x []float64) float64 {
	return mat.Dot(l.w, mat.NewVecDense(len(x), x)) + l.b
}

// Logistic is a binary logistic regression classifier.
type Logistic struct {
	linear
}

func newLogistic(p linearParams, classes []int, nf int) (*Logistic, error) {
	l, err := newLinear(p, classes, nf)
	if err != nil {
		return nil, err
	}
	return &Logistic{linear: l}, nil
}

// PredictProba returns [P(classes[0]), P(classes[1])].
func (m *Logistic) PredictProba(x []float64) ([]float64, error) {
	if err := checkInput("LogisticRegression", m.w.Len(), x); err != nil {
		return nil, err
	}
	p1 := sigmoid(m.decision(x))
	return []float64{1 - p1, p1}, nil
}

// Predict returns classes[1] when its probability exceeds one half.
func (m *Logistic) Predict(x []float64) (int, error) {
	proba, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if proba[1] > 0.5 {
		return m.classes[1], nil
	}
	return m.classes[0], nil
}

// LinearSVC is a linear support vector classifier. It has no probability
// estimates.
type LinearSVC struct {
	linear
}

func newLinearSVC(p linearParams, classes []int, nf int) (*LinearSVC, error) {
	l, err := newLinear(p, classes, nf)
	if err != nil {
		return nil, err
	}
	return &LinearSVC{linear: l}, nil
}

// Predict returns classes[1] for a positive decision value.
func (m *LinearSVC) Predict(x []float64) (int, error) {
	if err := checkInput("LinearSVC", m.w.Len(), x); err != nil {
		return 0, err
	}
	if m.decision(x) > 0 {
		return m.classes[1], nil
	}
	return m.classes[0], nil
}

// sigmoid is the numerically stable logistic function.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
