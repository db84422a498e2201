// Package model deserializes the pre-trained credit classifier artifact.
//
// The artifact is a JSON document with a "kind" discriminator:
//
//	logistic_regression   linear model with a sigmoid link; has probabilities
//	random_forest         array-encoded decision trees; has probabilities
//	linear_svc            linear decision function; label only
//
// Load(path) reads and validates the document once at startup and returns an
// Artifact whose Classifier is immutable and safe for concurrent use. Callers
// detect probability support by asserting ProbabilityClassifier.
package model
