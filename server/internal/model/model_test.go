package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const logisticDoc = `{
  "kind": "logistic_regression",
  "name": "test-lr",
  "feature_names": ["a", "b"],
  "classes": [0, 1],
  "logistic_regression": {"coef": [1, -1], "intercept": 0}
}`

const svcDoc = `{
  "kind": "linear_svc",
  "classes": [0, 1],
  "linear_svc": {"coef": [2, 0, -1], "intercept": -0.5}
}`

// Two trees over one feature: a stump and a constant leaf.
const forestDoc = `{
  "kind": "random_forest",
  "n_features": 1,
  "classes": [0, 1],
  "random_forest": {"trees": [
    {"children_left": [1, -1, -1], "children_right": [2, -1, -1],
     "feature": [0, -2, -2], "threshold": [0.5, -2, -2],
     "value": [[3, 5], [3, 1], [0, 4]]},
    {"children_left": [-1], "children_right": [-1],
     "feature": [-2], "threshold": [-2], "value": [[1, 1]]}
  ]}
}`

func mustParse(t *testing.T, doc string) *Artifact {
	t.Helper()
	art, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return art
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// --- logistic regression ---

func TestLogistic_PredictAndProba(t *testing.T) {
	art := mustParse(t, logisticDoc)
	if art.Info.Kind != KindLogisticRegression {
		t.Errorf("kind: got %q, want %q", art.Info.Kind, KindLogisticRegression)
	}
	if !art.Info.HasProbabilities {
		t.Error("HasProbabilities: got false, want true")
	}
	if art.Info.NumFeatures != 2 {
		t.Errorf("NumFeatures: got %d, want 2", art.Info.NumFeatures)
	}

	pc, ok := art.Classifier.(ProbabilityClassifier)
	if !ok {
		t.Fatal("logistic regression does not implement ProbabilityClassifier")
	}

	proba, err := pc.PredictProba([]float64{2, 0})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	want1 := 1 / (1 + math.Exp(-2))
	if !approx(proba[1], want1) || !approx(proba[0], 1-want1) {
		t.Errorf("proba: got %v, want [%v %v]", proba, 1-want1, want1)
	}

	cases := []struct {
		x    []float64
		want int
	}{
		{[]float64{2, 0}, 1},
		{[]float64{0, 2}, 0},
		{[]float64{1, 1}, 0}, // exactly 0.5 is not above the cut
	}
	for _, tc := range cases {
		got, err := pc.Predict(tc.x)
		if err != nil {
			t.Fatalf("Predict(%v): %v", tc.x, err)
		}
		if got != tc.want {
			t.Errorf("Predict(%v): got %d, want %d", tc.x, got, tc.want)
		}
	}
}

func TestLogistic_WrongFeatureCount(t *testing.T) {
	art := mustParse(t, logisticDoc)
	_, err := art.Classifier.Predict([]float64{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for 3 features, got nil")
	}
	want := "X has 3 features, but LogisticRegression is expecting 2 features as input"
	if err.Error() != want {
		t.Errorf("error: got %q, want %q", err.Error(), want)
	}
}

func TestLogistic_NonFiniteInput(t *testing.T) {
	art := mustParse(t, logisticDoc)
	_, err := art.Classifier.Predict([]float64{math.NaN(), 0})
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("error: got %v, want ErrNonFinite", err)
	}
}

func TestSigmoid_Stable(t *testing.T) {
	if got := sigmoid(-1000); got != 0 {
		t.Errorf("sigmoid(-1000): got %v, want 0", got)
	}
	if got := sigmoid(1000); got != 1 {
		t.Errorf("sigmoid(1000): got %v, want 1", got)
	}
	if got := sigmoid(0); got != 0.5 {
		t.Errorf("sigmoid(0): got %v, want 0.5", got)
	}
}

// --- linear svc ---

func TestLinearSVC_NoProbabilities(t *testing.T) {
	art := mustParse(t, svcDoc)
	if art.Info.HasProbabilities {
		t.Error("HasProbabilities: got true, want false")
	}
	if _, ok := art.Classifier.(ProbabilityClassifier); ok {
		t.Error("linear svc must not implement ProbabilityClassifier")
	}
	if art.Info.NumFeatures != 3 {
		t.Errorf("NumFeatures from coef: got %d, want 3", art.Info.NumFeatures)
	}

	got, err := art.Classifier.Predict([]float64{1, 0, 0}) // 2 - 0.5 > 0
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != 1 {
		t.Errorf("Predict positive side: got %d, want 1", got)
	}
	got, _ = art.Classifier.Predict([]float64{0, 0, 1}) // -1 - 0.5 < 0
	if got != 0 {
		t.Errorf("Predict negative side: got %d, want 0", got)
	}
}

// --- random forest ---

func TestForest_MeanOfTrees(t *testing.T) {
	art := mustParse(t, forestDoc)
	pc := art.Classifier.(ProbabilityClassifier)

	proba, err := pc.PredictProba([]float64{0})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if !approx(proba[0], 0.625) || !approx(proba[1], 0.375) {
		t.Errorf("left proba: got %v, want [0.625 0.375]", proba)
	}
	if got, _ := pc.Predict([]float64{0}); got != 0 {
		t.Errorf("left Predict: got %d, want 0", got)
	}

	proba, _ = pc.PredictProba([]float64{1})
	if !approx(proba[0], 0.25) || !approx(proba[1], 0.75) {
		t.Errorf("right proba: got %v, want [0.25 0.75]", proba)
	}
	if got, _ := pc.Predict([]float64{1}); got != 1 {
		t.Errorf("right Predict: got %d, want 1", got)
	}
}

func TestForest_ThresholdGoesLeft(t *testing.T) {
	art := mustParse(t, forestDoc)
	if got, _ := art.Classifier.Predict([]float64{0.5}); got != 0 {
		t.Errorf("Predict at threshold: got %d, want 0", got)
	}
}

func TestForest_WrongFeatureCount(t *testing.T) {
	art := mustParse(t, forestDoc)
	_, err := art.Classifier.Predict(nil)
	if err == nil || !strings.Contains(err.Error(), "RandomForestClassifier is expecting 1 features") {
		t.Errorf("error: got %v, want feature count message", err)
	}
}

// --- validation ---

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name, doc, want string
	}{
		{"not json", `{`, "decode artifact"},
		{"missing kind", `{"classes":[0,1],"n_features":1}`, "kind: missing"},
		{"unknown kind", `{"kind":"xgboost","classes":[0,1],"n_features":1}`, `kind "xgboost" unknown`},
		{"one class", `{"kind":"linear_svc","classes":[1],"linear_svc":{"coef":[1]}}`, "need at least 2"},
		{"duplicate class", `{"kind":"linear_svc","classes":[1,1],"linear_svc":{"coef":[1]}}`, "duplicate label"},
		{"missing section", `{"kind":"logistic_regression","classes":[0,1],"n_features":2}`, "missing"},
		{"coef mismatch", `{"kind":"logistic_regression","classes":[0,1],"feature_names":["a"],
			"logistic_regression":{"coef":[1,2]}}`, "coef has 2 entries, want 1"},
		{"names vs n_features", `{"kind":"linear_svc","classes":[0,1],"feature_names":["a"],"n_features":2,
			"linear_svc":{"coef":[1,2]}}`, "does not match"},
		{"forest no width", `{"kind":"random_forest","classes":[0,1],"random_forest":{"trees":[]}}`, "feature count unknown"},
		{"forest no trees", `{"kind":"random_forest","classes":[0,1],"n_features":1,"random_forest":{"trees":[]}}`, "no trees"},
		{"forest ragged", `{"kind":"random_forest","classes":[0,1],"n_features":1,"random_forest":{"trees":[
			{"children_left":[-1],"children_right":[-1,-1],"feature":[0],"threshold":[0],"value":[[1,1]]}]}}`, "differ in length"},
		{"forest back edge", `{"kind":"random_forest","classes":[0,1],"n_features":1,"random_forest":{"trees":[
			{"children_left":[0,-1],"children_right":[1,-1],"feature":[0,0],"threshold":[0,0],"value":[[1,1],[1,1]]}]}}`, "out of range"},
		{"forest bad feature", `{"kind":"random_forest","classes":[0,1],"n_features":1,"random_forest":{"trees":[
			{"children_left":[1,-1,-1],"children_right":[2,-1,-1],"feature":[3,0,0],"threshold":[0,0,0],
			 "value":[[1,1],[1,0],[0,1]]}]}}`, "feature 3 out of range"},
		{"forest empty leaf", `{"kind":"random_forest","classes":[0,1],"n_features":1,"random_forest":{"trees":[
			{"children_left":[-1],"children_right":[-1],"feature":[0],"threshold":[0],"value":[[0,0]]}]}}`, "zero total weight"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error: got %q, want substring %q", err.Error(), tc.want)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(p, []byte(logisticDoc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	art, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if art.Info.Name != "test-lr" {
		t.Errorf("name: got %q, want test-lr", art.Info.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing artifact, got nil")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error: got %v, want wrapped os.ErrNotExist", err)
	}
}
