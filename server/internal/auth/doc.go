// Package auth enforces optional API key authentication on the scoring service.
//
// APIKeyInterceptor(mode, header, key) returns a gRPC UnaryServerInterceptor
// that validates the API key from the named gRPC metadata header.
// APIKeyMiddleware(mode, header, key, next) does the same for HTTP requests
// and answers 401 {"detail":"invalid api key"} on failure.
//
// When mode != "apikey" or key == "", all calls pass through (useful for local
// development with auth disabled). Keys are compared in constant time.
package auth
