package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/creditlens/creditlens/pkg/logging"
	"github.com/creditlens/creditlens/reporter/internal/config"
	"github.com/creditlens/creditlens/reporter/internal/report"
)

func main() {
	configPath := flag.String("config", "", "path to config file; defaults apply when empty")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before config resolution")
	dataPath := flag.String("data", "", "override reporter.data_path")
	outDir := flag.String("out", "", "override reporter.output_dir")
	noPlots := flag.Bool("no-plots", false, "print console sections only")
	watch := flag.Bool("watch", false, "re-run whenever the data or config file changes")
	flag.Parse()

	// The report owns stdout; logs go to stderr.
	slog.SetDefault(logging.New(os.Stderr, logging.Config{Format: logging.FormatText}))

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load env file", "path", *envFile, "err", err)
	}

	// Flags win over the file, including after a hot reload.
	override := func(cfg *config.Config) error {
		if *dataPath != "" {
			cfg.Reporter.DataPath = *dataPath
		}
		if *outDir != "" {
			cfg.Reporter.OutputDir = *outDir
		}
		if *noPlots {
			cfg.Reporter.Plots = false
		}
		return config.Validate(cfg)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
	}
	if err := override(cfg); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logging.Setup(os.Stderr, cfg.Log)

	slog.Info("creditlens-reporter starting",
		"config", *configPath,
		"data_path", cfg.Reporter.DataPath,
		"output_dir", cfg.Reporter.OutputDir,
		"plots", cfg.Reporter.Plots,
		"watch", *watch,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		mu      sync.Mutex
		current = cfg
	)
	runOnce := func() error {
		mu.Lock()
		rc := current.Reporter
		mu.Unlock()
		return report.New(rc, os.Stdout, slog.Default()).Run(ctx)
	}

	if !*watch {
		if err := runOnce(); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	// Watch mode: one pending rerun at most; runs never overlap.
	rerun := make(chan struct{}, 1)
	trigger := func() {
		select {
		case rerun <- struct{}{}:
		default:
		}
	}

	go func() {
		if err := config.WatchFile(ctx, cfg.Reporter.DataPath, func() {
			slog.Info("data file changed", "path", cfg.Reporter.DataPath)
			trigger()
		}); err != nil {
			slog.Error("data watcher stopped", "err", err)
		}
	}()
	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				if err := override(updated); err != nil {
					slog.Error("reloaded config rejected, keeping previous", "err", err)
					return
				}
				if updated.Reporter.DataPath != cfg.Reporter.DataPath {
					slog.Warn("data_path changes take effect on restart",
						"watching", cfg.Reporter.DataPath, "configured", updated.Reporter.DataPath)
					updated.Reporter.DataPath = cfg.Reporter.DataPath
				}
				mu.Lock()
				current = updated
				mu.Unlock()
				trigger()
			}); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	trigger()
	for {
		select {
		case <-ctx.Done():
			slog.Info("creditlens-reporter shutting down")
			return
		case <-rerun:
			if err := runOnce(); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("report failed", "err", err)
			}
		}
	}
}
