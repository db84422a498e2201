package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/creditlens/creditlens/pkg/logging"
)

// Default values for the server configuration.
const (
	DefaultHost            = "0.0.0.0"
	DefaultHTTPPort        = 8000
	DefaultShutdownTimeout = 10 * time.Second
	DefaultModelPath       = "Credit_Scoring_Model.json"
	DefaultAuthHeader      = "x-api-key"
)

// Config holds the server-side configuration parsed from config.yaml.
type Config struct {
	Server ServerConfig   `yaml:"server"`
	Log    logging.Config `yaml:"log"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// Host is the interface the listeners bind to (default 0.0.0.0).
	Host string `yaml:"host"`

	// HTTPPort is the port the scoring API listens on (default 8000).
	HTTPPort int `yaml:"http_port"`

	// GRPCPort is the port the gRPC ScoringService listens on. 0 disables it.
	GRPCPort int `yaml:"grpc_port"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Model locates the classifier artifact loaded at startup.
	Model ModelConfig `yaml:"model"`

	// Auth configures how the server authenticates incoming gRPC and REST clients.
	Auth AuthConfig `yaml:"auth"`

	// Metrics controls the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// ModelConfig locates the classifier artifact.
type ModelConfig struct {
	// Path is resolved relative to the working directory.
	Path string `yaml:"path"`
}

// AuthConfig guards /predict, /api/v1/model and the gRPC service with a
// shared key. /healthz and /metrics stay open.
type AuthConfig struct {
	Mode string `yaml:"mode"` // apikey | none

	// KeyEnv names the environment variable (or .env entry) holding the key.
	// The key itself never lives in the config file.
	KeyEnv string `yaml:"key_env"`

	// Header carries the key on both transports. Empty means x-api-key.
	Header string `yaml:"header"`
}

// Key looks the key up in the environment; surrounding whitespace from a
// .env file is ignored.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(a.KeyEnv))
}

// EffectiveHeader returns the lowercased header name, falling back to
// DefaultAuthHeader. gRPC only matches lowercase metadata keys.
func (a AuthConfig) EffectiveHeader() string {
	if h := strings.TrimSpace(a.Header); h != "" {
		return strings.ToLower(h)
	}
	return DefaultAuthHeader
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled exposes GET /metrics on the HTTP listener.
	Enabled bool `yaml:"enabled"`
}

// HTTPAddr returns the host:port of the HTTP listener.
func (s ServerConfig) HTTPAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.HTTPPort))
}

// GRPCAddr returns the host:port of the gRPC listener.
func (s ServerConfig) GRPCAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.GRPCPort))
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			HTTPPort:        DefaultHTTPPort,
			ShutdownTimeout: DefaultShutdownTimeout,
			Model:           ModelConfig{Path: DefaultModelPath},
			Auth:            AuthConfig{Mode: "none"},
			Metrics:         MetricsConfig{Enabled: true},
		},
		Log: logging.Config{Level: "info", Format: logging.FormatJSON},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort < 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", cfg.Server.GRPCPort)
	}
	if cfg.Server.GRPCPort != 0 && cfg.Server.GRPCPort == cfg.Server.HTTPPort {
		return fmt.Errorf("server.grpc_port and server.http_port must differ (both %d)", cfg.Server.HTTPPort)
	}
	if cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	if cfg.Server.Model.Path == "" {
		return fmt.Errorf("server.model.path is required")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Auth.Mode == "apikey" && cfg.Server.Auth.KeyEnv == "" {
		return fmt.Errorf("server.auth.key_env is required when mode is apikey")
	}
	if !logging.ValidFormat(cfg.Log.Format) {
		return fmt.Errorf("log.format %q unknown: want json|text", cfg.Log.Format)
	}
	return nil
}
