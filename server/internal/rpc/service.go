package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/creditlens/creditlens/server/internal/metrics"
	"github.com/creditlens/creditlens/server/internal/scoring"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "creditlens.v1.ScoringService"

const predictMethod = "/" + ServiceName + "/Predict"

// ScoringServiceServer is the server API for ScoringService.
type ScoringServiceServer interface {
	Predict(ctx context.Context, req json.RawMessage) (*scoring.Result, error)
}

// Service implements ScoringServiceServer on top of a Scorer.
type Service struct {
	scorer  *scoring.Scorer
	metrics *metrics.Metrics
}

// New creates a Service. m may be nil.
func New(scorer *scoring.Scorer, m *metrics.Metrics) *Service {
	return &Service{scorer: scorer, metrics: m}
}

// Predict decodes req as a feature vector and scores it.
// Authentication is enforced by the gRPC server interceptor before this is called.
func (s *Service) Predict(ctx context.Context, req json.RawMessage) (*scoring.Result, error) {
	start := time.Now()

	fv, err := scoring.Decode(req)
	if err != nil {
		s.metrics.ObserveFailure(metrics.StageValidation, time.Since(start))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.scorer.Score(ctx, fv)
	if err != nil {
		s.metrics.ObserveFailure(metrics.StageScoring, time.Since(start))
		slog.Warn("rpc: scoring failed", "err", err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.metrics.ObservePrediction(res.Rating, time.Since(start))
	slog.Debug("rpc: scored", "prediction", res.Prediction, "rating", res.Rating)
	return &res, nil
}

// Register adds srv to s under ServiceName.
func Register(s *grpc.Server, srv ScoringServiceServer) {
	s.RegisterService(&scoringServiceDesc, srv)
}

// NewServer builds a gRPC server exposing svc and a health service that
// reports ServiceName as SERVING.
func NewServer(svc ScoringServiceServer, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(opts...)
	Register(s, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s, hs
}

var scoringServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScoringServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Predict", Handler: predictHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func predictHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(json.RawMessage)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoringServiceServer).Predict(ctx, *in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: predictMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScoringServiceServer).Predict(ctx, *req.(*json.RawMessage))
	}
	return interceptor(ctx, in, info, handler)
}
