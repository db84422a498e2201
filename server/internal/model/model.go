package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Artifact kinds.
const (
	KindLogisticRegression = "logistic_regression"
	KindRandomForest       = "random_forest"
	KindLinearSVC          = "linear_svc"
)

// Classifier maps one feature vector to a class label.
type Classifier interface {
	Predict(x []float64) (int, error)
}

// ProbabilityClassifier is a Classifier that can also estimate class
// probabilities. Probabilities are ordered like Info.Classes.
type ProbabilityClassifier interface {
	Classifier
	PredictProba(x []float64) ([]float64, error)
}

// ErrNonFinite is returned when an input vector contains NaN or ±Inf.
var ErrNonFinite = errors.New("input X contains NaN or infinity")

// Info describes a loaded artifact.
type Info struct {
	Kind             string   `json:"kind"`
	Name             string   `json:"name,omitempty"`
	FeatureNames     []string `json:"feature_names,omitempty"`
	NumFeatures      int      `json:"n_features"`
	Classes          []int    `json:"classes"`
	HasProbabilities bool     `json:"has_probabilities"`
}

// Artifact is a deserialized, validated classifier.
type Artifact struct {
	Info       Info
	Classifier Classifier
}

// document is the on-disk JSON layout.
type document struct {
	Kind         string   `json:"kind"`
	Name         string   `json:"name"`
	FeatureNames []string `json:"feature_names"`
	NumFeatures  int      `json:"n_features"`
	Classes      []int    `json:"classes"`

	LogisticRegression *linearParams `json:"logistic_regression"`
	LinearSVC          *linearParams `json:"linear_svc"`
	RandomForest       *forestParams `json:"random_forest"`
}

// Load reads the artifact at path.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read %q: %w", path, err)
	}
	art, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("model: %q: %w", path, err)
	}
	return art, nil
}

// Parse decodes and validates an artifact document.
func Parse(data []byte) (*Artifact, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(doc.Classes) < 2 {
		return nil, fmt.Errorf("classes: need at least 2, got %d", len(doc.Classes))
	}
	seen := make(map[int]bool, len(doc.Classes))
	for _, c := range doc.Classes {
		if seen[c] {
			return nil, fmt.Errorf("classes: duplicate label %d", c)
		}
		seen[c] = true
	}

	nf, err := doc.numFeatures()
	if err != nil {
		return nil, err
	}

	var clf Classifier
	switch doc.Kind {
	case KindLogisticRegression:
		if doc.LogisticRegression == nil {
			return nil, fmt.Errorf("kind %s: missing %q section", doc.Kind, KindLogisticRegression)
		}
		clf, err = newLogistic(*doc.LogisticRegression, doc.Classes, nf)
	case KindLinearSVC:
		if doc.LinearSVC == nil {
			return nil, fmt.Errorf("kind %s: missing %q section", doc.Kind, KindLinearSVC)
		}
		clf, err = newLinearSVC(*doc.LinearSVC, doc.Classes, nf)
	case KindRandomForest:
		if doc.RandomForest == nil {
			return nil, fmt.Errorf("kind %s: missing %q section", doc.Kind, KindRandomForest)
		}
		clf, err = newForest(*doc.RandomForest, doc.Classes, nf)
	case "":
		return nil, errors.New("kind: missing")
	default:
		return nil, fmt.Errorf("kind %q unknown: want %s|%s|%s",
			doc.Kind, KindLogisticRegression, KindRandomForest, KindLinearSVC)
	}
	if err != nil {
		return nil, fmt.Errorf("kind %s: %w", doc.Kind, err)
	}

	_, proba := clf.(ProbabilityClassifier)
	return &Artifact{
		Info: Info{
			Kind:             doc.Kind,
			Name:             doc.Name,
			FeatureNames:     doc.FeatureNames,
			NumFeatures:      nf,
			Classes:          append([]int(nil), doc.Classes...),
			HasProbabilities: proba,
		},
		Classifier: clf,
	}, nil
}

// numFeatures resolves the expected input width from feature_names,
// n_features or the linear coefficients, and checks they agree.
func (d *document) numFeatures() (int, error) {
	n := len(d.FeatureNames)
	if d.NumFeatures != 0 {
		if d.NumFeatures < 0 {
			return 0, fmt.Errorf("n_features %d must be positive", d.NumFeatures)
		}
		if n != 0 && n != d.NumFeatures {
			return 0, fmt.Errorf("n_features %d does not match %d feature_names", d.NumFeatures, n)
		}
		n = d.NumFeatures
	}
	if n == 0 {
		switch {
		case d.Kind == KindLogisticRegression && d.LogisticRegression != nil:
			n = len(d.LogisticRegression.Coef)
		case d.Kind == KindLinearSVC && d.LinearSVC != nil:
			n = len(d.LinearSVC.Coef)
		}
	}
	if n == 0 {
		return 0, errors.New("feature count unknown: set feature_names or n_features")
	}
	return n, nil
}

// checkInput validates the shape and values of x for an estimator.
func checkInput(estimator string, want int, x []float64) error {
	if len(x) != want {
		return fmt.Errorf("X has %d features, but %s is expecting %d features as input",
			len(x), estimator, want)
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	return nil
}
