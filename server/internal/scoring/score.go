package scoring

import (
	"context"
	"fmt"

	"github.com/creditlens/creditlens/server/internal/model"
)

// LabelHighRisk is the classifier label for a likely defaulter.
const LabelHighRisk = 1

// Credit scores and ratings assigned per label.
const (
	ScorePoor      = 300
	ScoreVeryGood  = 740
	RatingPoor     = "Poor"
	RatingVeryGood = "Very Good"
)

// Result is the outcome of scoring one feature vector.
type Result struct {
	Prediction int `json:"prediction"`

	// Probabilities is nil when the classifier cannot estimate them, and
	// then encodes as JSON null.
	Probabilities []float64 `json:"probabilities"`

	CreditScore int    `json:"credit_score"`
	Rating      string `json:"rating"`
}

// Rate maps a classifier label to a credit score and rating. Only the
// high-risk label is treated as poor; every other label is very good.
func Rate(label int) (int, string) {
	if label == LabelHighRisk {
		return ScorePoor, RatingPoor
	}
	return ScoreVeryGood, RatingVeryGood
}

// Scorer runs a loaded classifier. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	clf model.Classifier
}

// NewScorer returns a Scorer backed by clf.
func NewScorer(clf model.Classifier) *Scorer {
	return &Scorer{clf: clf}
}

// HasProbabilities reports whether results will carry probabilities.
func (s *Scorer) HasProbabilities() bool {
	_, ok := s.clf.(model.ProbabilityClassifier)
	return ok
}

// Score classifies fv. A classifier error or panic is returned unchanged,
// message intact.
func (s *Scorer) Score(ctx context.Context, fv FeatureVector) (res Result, err error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("%v", r)
		}
	}()

	x := fv.Vector()
	label, err := s.clf.Predict(x)
	if err != nil {
		return Result{}, err
	}

	var proba []float64
	if pc, ok := s.clf.(model.ProbabilityClassifier); ok {
		if proba, err = pc.PredictProba(x); err != nil {
			return Result{}, err
		}
	}

	score, rating := Rate(label)
	return Result{
		Prediction:    label,
		Probabilities: proba,
		CreditScore:   score,
		Rating:        rating,
	}, nil
}
