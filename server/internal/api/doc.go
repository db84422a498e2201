// Package api implements the HTTP surface of the credit scoring service.
//
// New(scorer, opts) returns an http.Handler that serves:
//
//	POST /predict         score one feature vector
//	GET  /healthz         liveness, {"status":"ok"}
//	GET  /api/v1/model    metadata of the loaded artifact
//
// /predict responds with:
//   - 200 and {prediction, probabilities, credit_score, rating}
//   - 422 and {"detail": [{loc, msg, type}, ...]} when the body is not a
//     complete, well-typed feature vector; the classifier is not called
//   - 400 and {"detail": "<message>"} when the classifier fails
//
// Every response is JSON and carries an X-Request-ID header, taken from the
// request when present and generated otherwise. Non-matching methods get 405.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
