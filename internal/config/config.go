package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Rounds         int    `env:"SIM_ROUNDS" envDefault:"5"`
	TrialsPerRound int    `env:"SIM_TRIALS_PER_ROUND" envDefault:"50000"`
	Workers        int    `env:"SIM_WORKERS" envDefault:"0"` // 0 = one per CPU
	Seed           uint64 `env:"SIM_SEED" envDefault:"0"`    // 0 = random

	HistogramFile string `env:"SIM_HISTOGRAM_FILE" envDefault:"solitaire.txt"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"simulator.db"`

	MergeAttempts int           `env:"SIM_MERGE_ATTEMPTS" envDefault:"3"`
	MergeBackoff  time.Duration `env:"SIM_MERGE_BACKOFF" envDefault:"200ms"`
	MergeTimeout  time.Duration `env:"SIM_MERGE_TIMEOUT" envDefault:"30s"`

	Addr         string `env:"BACKEND_ADDR"`
	AppEnv       string `env:"APP_ENV" envDefault:"development"`
	TracesExport string `env:"OTEL_TRACES_EXPORTER" envDefault:"none"`
}

// LoadFromEnv parses the environment and validates the result. Unparseable
// values and out-of-range settings are reported together.
func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AppEnv = strings.TrimSpace(cfg.AppEnv)
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// BACKEND_ADDR is optional if PORT is set by the hosting environment.
	if cfg.Addr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			if strings.Contains(port, ":") {
				cfg.Addr = port
			} else {
				cfg.Addr = ":" + port
			}
		}
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the simulation settings. It is rerun after command-line
// flags override values loaded from the environment.
func (c Config) Validate() error {
	var invalid []string
	if c.Rounds <= 0 {
		invalid = append(invalid, fmt.Sprintf("SIM_ROUNDS=%d (must be > 0)", c.Rounds))
	}
	if c.TrialsPerRound <= 0 {
		invalid = append(invalid, fmt.Sprintf("SIM_TRIALS_PER_ROUND=%d (must be > 0)", c.TrialsPerRound))
	}
	if c.Workers < 0 {
		invalid = append(invalid, fmt.Sprintf("SIM_WORKERS=%d (must be >= 0)", c.Workers))
	}
	if c.MergeAttempts <= 0 {
		invalid = append(invalid, fmt.Sprintf("SIM_MERGE_ATTEMPTS=%d (must be > 0)", c.MergeAttempts))
	}
	if c.MergeBackoff < 0 {
		invalid = append(invalid, fmt.Sprintf("SIM_MERGE_BACKOFF=%s (must be >= 0)", c.MergeBackoff))
	}
	if c.MergeTimeout <= 0 {
		invalid = append(invalid, fmt.Sprintf("SIM_MERGE_TIMEOUT=%s (must be > 0)", c.MergeTimeout))
	}
	if strings.TrimSpace(c.HistogramFile) == "" {
		invalid = append(invalid, "SIM_HISTOGRAM_FILE (must not be empty)")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		invalid = append(invalid, "DATABASE_PATH (must not be empty)")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("missing/invalid env: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// EffectiveWorkers resolves Workers=0 to the number of CPUs.
func (c Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
