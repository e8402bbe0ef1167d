// Package config holds runtime settings for the simulation server and the
// gameplay rules the engine enforces. Values start from Default, are overlaid
// from an optional YAML file, and finally from CORESIM_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Rules are the gameplay constants.
type Rules struct {
	BoostMultiplier    float64       `yaml:"boost_multiplier"`
	BoostDuration      time.Duration `yaml:"boost_duration"`
	BuildBoostFactor   float64       `yaml:"build_boost_factor"` // Build time multiplier while boosted
	CatchUpCap         time.Duration `yaml:"catch_up_cap"`       // Max elapsed time accrued per colony per tick
	BuildingQueueLimit int           `yaml:"building_queue_limit"`
	ResearchQueueLimit int           `yaml:"research_queue_limit"`
	LogCap             int           `yaml:"log_cap"`
	ReportCap          int           `yaml:"report_cap"`
	MaxCombatRounds    int           `yaml:"max_combat_rounds"`
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		BoostMultiplier:    15,
		BoostDuration:      24 * time.Hour,
		BuildBoostFactor:   0.25,
		CatchUpCap:         12 * time.Hour,
		BuildingQueueLimit: 2,
		ResearchQueueLimit: 1,
		LogCap:             100,
		ReportCap:          100,
		MaxCombatRounds:    6,
	}
}

// Config is the full runtime configuration.
type Config struct {
	DBPath        string        `yaml:"db_path"`
	Port          int           `yaml:"port"`
	AdminKey      string        `yaml:"admin_key"`
	Seed          uint64        `yaml:"seed"` // 0 uses a crypto-backed random source
	GalaxySeed    int64         `yaml:"galaxy_seed"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	AutosaveTicks int           `yaml:"autosave_ticks"`
	RateLimit     float64       `yaml:"rate_limit"` // Requests per second per client
	RateBurst     int           `yaml:"rate_burst"`
	Rules         Rules         `yaml:"rules"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:        "data/coresim.db",
		Port:          8080,
		GalaxySeed:    42,
		TickInterval:  time.Second,
		AutosaveTicks: 60,
		RateLimit:     10,
		RateBurst:     20,
		Rules:         DefaultRules(),
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// FromEnv loads the file named by CORESIM_CONFIG, if set.
func FromEnv() (Config, error) {
	return Load(os.Getenv("CORESIM_CONFIG"))
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("CORESIM_DB"); ok && v != "" {
		c.DBPath = v
	}
	if v, ok := lookup("CORESIM_ADMIN_KEY"); ok {
		c.AdminKey = v
	}
	if v, ok := lookup("CORESIM_PORT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CORESIM_PORT: %w", err)
		}
		c.Port = n
	}
	if v, ok := lookup("CORESIM_SEED"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CORESIM_SEED: %w", err)
		}
		c.Seed = n
	}
	if v, ok := lookup("CORESIM_TICK_MS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CORESIM_TICK_MS: %w", err)
		}
		c.TickInterval = time.Duration(n) * time.Millisecond
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("port out of range: %d", c.Port)
	case c.Rules.CatchUpCap <= 0:
		return fmt.Errorf("catch-up cap must be positive")
	case c.Rules.MaxCombatRounds <= 0:
		return fmt.Errorf("max combat rounds must be positive")
	}
	return nil
}
