// Package rpc exposes the scoring operation over gRPC.
//
// The service is creditlens.v1.ScoringService with one unary method,
// Predict. Messages are JSON documents carried by a codec registered under
// the "json" content-subtype, so no generated protobuf code is required:
// the request is the same object accepted by POST /predict and the reply is
// the same result document.
//
// Status mapping:
//
//	validation failure → codes.InvalidArgument ("validation failed: ...")
//	classifier failure → codes.InvalidArgument (classifier message)
//
// NewServer registers the service together with the standard
// grpc.health.v1 health service. Client is a small typed caller used by
// operators and tests.
package rpc
