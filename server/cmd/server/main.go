package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/creditlens/creditlens/pkg/logging"
	"github.com/creditlens/creditlens/server/internal/api"
	"github.com/creditlens/creditlens/server/internal/auth"
	"github.com/creditlens/creditlens/server/internal/config"
	"github.com/creditlens/creditlens/server/internal/metrics"
	"github.com/creditlens/creditlens/server/internal/model"
	"github.com/creditlens/creditlens/server/internal/rpc"
	"github.com/creditlens/creditlens/server/internal/scoring"
)

func main() {
	configPath := flag.String("config", "", "path to config file; defaults apply when empty")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before config resolution")
	modelPath := flag.String("model", "", "override server.model.path")
	flag.Parse()

	// Bootstrap logger until the configured one is known.
	slog.SetDefault(logging.New(os.Stdout, logging.Config{}))

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load env file", "path", *envFile, "err", err)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
	}
	if *modelPath != "" {
		cfg.Server.Model.Path = *modelPath
	}
	logging.Setup(os.Stdout, cfg.Log)

	slog.Info("creditlens-server starting",
		"config", *configPath,
		"http_addr", cfg.Server.HTTPAddr(),
		"grpc_port", cfg.Server.GRPCPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"model_path", cfg.Server.Model.Path,
	)

	// The artifact is loaded once; without it the service does not start.
	art, err := model.Load(cfg.Server.Model.Path)
	if err != nil {
		slog.Error("failed to load model artifact", "err", err)
		os.Exit(1)
	}
	slog.Info("model loaded",
		"kind", art.Info.Kind,
		"name", art.Info.Name,
		"n_features", art.Info.NumFeatures,
		"has_probabilities", art.Info.HasProbabilities,
	)
	if art.Info.NumFeatures != scoring.NumFeatures {
		slog.Warn("model feature count differs from request schema; predictions will fail",
			"model", art.Info.NumFeatures, "schema", scoring.NumFeatures)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var m *metrics.Metrics
	if cfg.Server.Metrics.Enabled {
		m = metrics.New()
		m.SetModelInfo(art.Info.Kind, art.Info.Name)
	}
	scorer := scoring.NewScorer(art.Classifier)
	header, key := cfg.Server.Auth.EffectiveHeader(), cfg.Server.Auth.Key()
	if cfg.Server.Auth.Mode == auth.ModeAPIKey && key == "" {
		slog.Warn("auth mode is apikey but the key variable is empty; requests are not authenticated",
			"key_env", cfg.Server.Auth.KeyEnv)
	}

	// Optional gRPC listener with the API key interceptor.
	var (
		grpcSrv    *grpc.Server
		grpcHealth *health.Server
	)
	if cfg.Server.GRPCPort > 0 {
		grpcSrv, grpcHealth = rpc.NewServer(rpc.New(scorer, m),
			grpc.UnaryInterceptor(auth.APIKeyInterceptor(cfg.Server.Auth.Mode, header, key)),
		)
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr())
		if err != nil {
			slog.Error("failed to listen on gRPC port", "port", cfg.Server.GRPCPort, "err", err)
			os.Exit(1)
		}
		go func() {
			slog.Info("gRPC scoring service listening", "addr", cfg.Server.GRPCAddr())
			if err := grpcSrv.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "err", err)
			}
		}()
	}

	// HTTP: scoring API behind auth; health and metrics open.
	handler := api.New(scorer, api.Options{Info: art.Info, Metrics: m})
	httpMux := http.NewServeMux()
	httpMux.Handle("/healthz", handler)
	if m != nil {
		httpMux.Handle("/metrics", m.Handler())
	}
	httpMux.Handle("/", auth.APIKeyMiddleware(cfg.Server.Auth.Mode, header, key, handler))

	httpSrv := &http.Server{
		Addr:    cfg.Server.HTTPAddr(),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Server.HTTPAddr())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("creditlens-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if grpcSrv != nil {
		// Health checks report NOT_SERVING while in-flight calls drain.
		grpcHealth.Shutdown()
		grpcSrv.GracefulStop()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "err", err)
	}
}
