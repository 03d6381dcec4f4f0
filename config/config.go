// Package config loads the runtime configuration: built-in defaults, an
// optional YAML file, then BILLWORKS_* environment overrides, clamped to
// sane bounds.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"billworks/compose"
)

type Config struct {
	// MaxWorkers caps the batch pool. 0 means size from available memory.
	MaxWorkers int `yaml:"maxWorkers"`

	// MaxRetries bounds re-attempts per task after the first failure.
	MaxRetries int `yaml:"maxRetries"`

	RetryBaseDelaySeconds float64 `yaml:"retryBaseDelaySeconds"`
	PerTaskTimeoutSeconds float64 `yaml:"perTaskTimeoutSeconds"`

	// PerTaskMemoryBudgetMB is the empirical per-task memory cost used to
	// size the worker pool against available system memory.
	PerTaskMemoryBudgetMB int `yaml:"perTaskMemoryBudgetMB"`

	// EnginePriorityOrder overrides the default render chain order.
	EnginePriorityOrder []string `yaml:"enginePriorityOrder"`

	OutputRoot string `yaml:"outputRoot"`

	DeductionRates      compose.DeductionRates  `yaml:"deductionRates"`
	PenaltyBandSchedule compose.PenaltySchedule `yaml:"penaltyBandSchedule"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxWorkers:            0,
		MaxRetries:            3,
		RetryBaseDelaySeconds: 1,
		PerTaskTimeoutSeconds: 120,
		PerTaskMemoryBudgetMB: 256,
		OutputRoot:            "output",
		DeductionRates:        compose.DefaultDeductionRates(),
		PenaltyBandSchedule:   compose.DefaultPenaltySchedule(),
	}
}

// Load builds the effective configuration. path may be empty (no file).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	cfg.clamp()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.MaxWorkers = envInt("BILLWORKS_MAX_WORKERS", cfg.MaxWorkers)
	cfg.MaxRetries = envInt("BILLWORKS_MAX_RETRIES", cfg.MaxRetries)
	cfg.RetryBaseDelaySeconds = envFloat("BILLWORKS_RETRY_BASE_DELAY_SECONDS", cfg.RetryBaseDelaySeconds)
	cfg.PerTaskTimeoutSeconds = envFloat("BILLWORKS_PER_TASK_TIMEOUT_SECONDS", cfg.PerTaskTimeoutSeconds)
	cfg.PerTaskMemoryBudgetMB = envInt("BILLWORKS_PER_TASK_MEMORY_BUDGET_MB", cfg.PerTaskMemoryBudgetMB)
	cfg.OutputRoot = envOr("BILLWORKS_OUTPUT_ROOT", cfg.OutputRoot)
	if v := os.Getenv("BILLWORKS_ENGINE_PRIORITY"); v != "" {
		var order []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				order = append(order, name)
			}
		}
		cfg.EnginePriorityOrder = order
	}
}

func (c *Config) clamp() {
	if c.MaxWorkers < 0 {
		c.MaxWorkers = 0
	}
	if c.MaxWorkers > 64 {
		c.MaxWorkers = 64
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxRetries > 10 {
		c.MaxRetries = 10
	}
	if c.RetryBaseDelaySeconds <= 0 {
		c.RetryBaseDelaySeconds = 1
	}
	if c.PerTaskTimeoutSeconds <= 0 {
		c.PerTaskTimeoutSeconds = 120
	}
	if c.PerTaskMemoryBudgetMB <= 0 {
		c.PerTaskMemoryBudgetMB = 256
	}
	if c.OutputRoot == "" {
		c.OutputRoot = "output"
	}
	if len(c.PenaltyBandSchedule.Bands) == 0 {
		c.PenaltyBandSchedule = compose.DefaultPenaltySchedule()
	}
}

// RetryBaseDelay returns the backoff base as a duration.
func (c Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelaySeconds * float64(time.Second))
}

// PerTaskTimeout returns the per-attempt timeout as a duration.
func (c Config) PerTaskTimeout() time.Duration {
	return time.Duration(c.PerTaskTimeoutSeconds * float64(time.Second))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
