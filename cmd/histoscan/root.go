package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"histoscan/internal/config"
	"histoscan/internal/manager"
	"histoscan/internal/registry"
)

// rootFlags are the persistent flags shared by every subcommand. Flags win
// over environment, which wins over the config file.
type rootFlags struct {
	configPath string
	addr       string
	modelPath  string
	logLevel   string
	degraded   bool
}

// buildRootCmd constructs the command tree. getenv is os.Getenv outside tests.
func buildRootCmd(getenv func(string) string) *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "histoscan",
		Short:         "Tissue image classification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	root.PersistentFlags().StringVar(&f.addr, "addr", "", "HTTP listen address (defaults HISTOSCAN_ADDR, PORT or :5000)")
	root.PersistentFlags().StringVar(&f.modelPath, "model-path", "", "Model artifact path, tried before the default locations (defaults MODEL_PATH)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults HISTOSCAN_LOG_LEVEL or info)")
	root.PersistentFlags().BoolVar(&f.degraded, "degraded", false, "Return synthetic results when the model cannot serve")

	root.AddCommand(
		newServeCmd(f, getenv),
		newCheckModelCmd(f, getenv),
		newMemoryCmd(f, getenv),
	)
	return root
}

// resolveConfig merges config file, environment and explicitly set flags.
func resolveConfig(cmd *cobra.Command, f *rootFlags, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv(getenv)
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = f.addr
	}
	if flags.Changed("model-path") {
		cfg.ModelPath = f.modelPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flags.Changed("degraded") {
		cfg.DegradedMode = f.degraded
	}
	return cfg.WithDefaults(), nil
}

// newLogger builds the process logger at the configured level.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "histoscan").Logger()
}

// newManager wires a Manager from resolved configuration.
func newManager(cfg config.Config, log zerolog.Logger) *manager.Manager {
	return manager.NewWithConfig(manager.ManagerConfig{
		Candidates:                registry.Candidates(cfg.ModelPath, cfg.ModelCandidates),
		ImageSize:                 cfg.ImageSize,
		MaxImagePixels:            cfg.MaxImagePixels,
		ORTLibPath:                cfg.ORTLibPath,
		Threads:                   cfg.Threads,
		ProcPath:                  cfg.ProcPath,
		LoadThresholdPercent:      cfg.MemoryThresholdPercent,
		AdmissionThresholdPercent: cfg.AdmissionThresholdPercent,
		DegradedMode:              cfg.DegradedMode,
		HealthLoadsModel:          cfg.HealthLoadsModel,
		Logger:                    &log,
	})
}

var stderr io.Writer = os.Stderr
