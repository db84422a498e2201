package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"github.com/creditlens/creditlens/server/internal/scoring"
)

// Client calls a remote ScoringService.
type Client struct {
	conn   *grpc.ClientConn
	header string
	key    string
}

// Dial connects to target. Transport security defaults to insecure; pass
// grpc.WithTransportCredentials to override.
func Dial(ctx context.Context, target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.DialContext(ctx, target, opts...) //nolint:staticcheck
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// WithAPIKey sends key in the header metadata entry on every call.
func (c *Client) WithAPIKey(header, key string) *Client {
	c.header, c.key = header, key
	return c
}

// Predict scores fv remotely.
func (c *Client) Predict(ctx context.Context, fv scoring.FeatureVector) (*scoring.Result, error) {
	body, err := json.Marshal(fv)
	if err != nil {
		return nil, fmt.Errorf("rpc: encode request: %w", err)
	}
	return c.PredictRaw(ctx, body)
}

// PredictRaw sends body unchanged as the request document.
func (c *Client) PredictRaw(ctx context.Context, body []byte) (*scoring.Result, error) {
	if c.key != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, c.header, c.key)
	}
	var res scoring.Result
	if err := c.conn.Invoke(ctx, predictMethod, json.RawMessage(body), &res, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health returns the serving status of ScoringService.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
