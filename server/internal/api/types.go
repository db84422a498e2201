package api

import (
	"github.com/creditlens/creditlens/server/internal/scoring"
)

// PredictResponse is the payload for a successful POST /predict.
type PredictResponse = scoring.Result

// ValidationResponse is the 422 payload for POST /predict.
type ValidationResponse struct {
	Detail []scoring.FieldError `json:"detail"`
}

// HealthResponse is the payload for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ModelResponse is the payload for GET /api/v1/model.
type ModelResponse struct {
	Kind             string   `json:"kind"`
	Name             string   `json:"name,omitempty"`
	FeatureNames     []string `json:"feature_names"`
	NumFeatures      int      `json:"n_features"`
	Classes          []int    `json:"classes"`
	HasProbabilities bool     `json:"has_probabilities"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
