// Package scoring turns a validated feature vector into a credit decision.
//
// features.go defines FeatureVector, the 15-field request record, and its
// strict JSON decoding: every field is required, integer fields reject
// fractional values, and non-numeric values are rejected. Violations are
// reported as a *ValidationError before any model code runs.
//
// score.go maps the classifier label to a credit score and rating
// (1 → 300 "Poor", anything else → 740 "Very Good") and provides Scorer,
// which calls Predict and, when the classifier supports it, PredictProba.
package scoring
