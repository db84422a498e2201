// Package config loads the scoring service configuration from the `server:`
// and `log:` sections of config.yaml (a `reporter:` key is ignored).
//
// Config fields:
//   - Host              listen address (default 0.0.0.0)
//   - HTTPPort          port for POST /predict and friends (default 8000)
//   - GRPCPort          port for the gRPC ScoringService; 0 disables it
//   - ShutdownTimeout   grace period for in-flight requests (default 10s)
//   - Model.Path        classifier artifact (default Credit_Scoring_Model.json)
//   - Auth.Mode         "apikey" or "none"
//   - Auth.KeyEnv       environment variable holding the expected API key
//   - Auth.Header       gRPC metadata/HTTP header name (default "x-api-key")
//   - Metrics.Enabled   serve GET /metrics (default true)
//
// Load(path) applies defaults before unmarshalling, then validates.
// Default() returns the same defaults for running without a file.
package config
