// Package metrics exposes Prometheus instrumentation for the scoring service.
//
// New() builds a private registry holding:
//
//	creditlens_predictions_total{rating}          successful predictions
//	creditlens_prediction_failures_total{stage}   validation | scoring failures
//	creditlens_prediction_duration_seconds        request latency histogram
//	creditlens_model_info{kind,name}              constant 1 for the loaded artifact
//
// plus the Go runtime and process collectors. Handler() serves the registry
// in the text exposition format. All methods are no-ops on a nil *Metrics so
// callers can disable instrumentation by passing nil.
package metrics
