package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"churnlens/domain/core"
	"churnlens/domain/risk"
	"churnlens/domain/segment"
	"churnlens/internal/errors"
	"churnlens/internal/ingest"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Paths      PathConfig
	Pipeline   PipelineConfig
	Server     ServerConfig
	Thresholds Thresholds
}

// PathConfig holds file system paths
type PathConfig struct {
	Input      string
	OutputDir  string
	ConfigFile string
}

// PipelineConfig holds run behaviour settings
type PipelineConfig struct {
	DomainPolicy        ingest.DomainPolicy `yaml:"domain_policy"`
	MaxScoringErrorRate float64             `yaml:"max_scoring_error_rate"`
	Workers             int                 `yaml:"workers"`
	MinInsightSupport   int                 `yaml:"min_insight_support"`
	Workbook            bool                `yaml:"workbook"`
}

// ServerConfig holds settings for the read-only JSON feed
type ServerConfig struct {
	Port    string
	GinMode string
}

// Thresholds are the business rules: segmentation cutoffs, risk weights and
// tiers, and load-time value domains.
type Thresholds struct {
	Scales segment.Scales `yaml:"scales"`
	Risk   RiskConfig     `yaml:"risk"`
	Bounds ingest.Bounds  `yaml:"bounds"`
}

// RiskConfig holds scorer weights and tier cutoffs
type RiskConfig struct {
	Weights risk.Weights  `yaml:"weights"`
	Tiers   segment.Scale `yaml:"tiers"`
}

// configFile mirrors the YAML schema of a thresholds file. Sections left out
// keep their defaults.
type configFile struct {
	Thresholds `yaml:",inline"`
	Pipeline   PipelineConfig `yaml:"pipeline"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Paths: PathConfig{OutputDir: "./out"},
		Pipeline: PipelineConfig{
			DomainPolicy:        ingest.PolicyReject,
			MaxScoringErrorRate: 0.05,
			MinInsightSupport:   20,
			Workbook:            true,
		},
		Server: ServerConfig{Port: "8080", GinMode: "release"},
		Thresholds: Thresholds{
			Scales: segment.DefaultScales(),
			Risk:   RiskConfig{Weights: risk.DefaultWeights(), Tiers: risk.DefaultTiers()},
			Bounds: ingest.DefaultBounds(),
		},
	}
}

// Load resolves configuration in priority order: defaults -> YAML file -> env.
// The YAML file is named by CHURN_CONFIG.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile is Load with an explicit YAML file that takes precedence over
// CHURN_CONFIG
func LoadWithFile(path string) (*Config, error) {
	config := Default()

	config.Paths = loadPathConfig(config.Paths)
	if path != "" {
		config.Paths.ConfigFile = path
	}
	if config.Paths.ConfigFile != "" {
		if err := config.ApplyFile(config.Paths.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := applyPipelineEnv(&config.Pipeline); err != nil {
		return nil, errors.Wrap(err, "failed to load pipeline configuration")
	}
	config.Server = loadServerConfig(config.Server)

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// ApplyFile overlays a YAML thresholds file
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(errors.ConfigInvalid(err.Error()), "read config %s", path)
	}
	if err := c.ApplyYAML(data); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	c.Paths.ConfigFile = path
	return nil
}

// ApplyYAML overlays YAML content. Unknown keys are rejected so a misspelt
// threshold does not silently fall back to its default.
func (c *Config) ApplyYAML(data []byte) error {
	file := configFile{Thresholds: c.Thresholds, Pipeline: c.Pipeline}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.ConfigInvalid(err.Error())
	}
	c.Thresholds = file.Thresholds
	c.Pipeline = file.Pipeline
	return nil
}

// Validate checks thresholds and run settings
func (c *Config) Validate() error {
	if err := c.Thresholds.Scales.Validate(); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if err := c.Thresholds.Risk.Weights.Validate(c.Thresholds.Risk.Tiers); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if err := c.Thresholds.Bounds.Validate(); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if _, err := ingest.ParseDomainPolicy(string(c.Pipeline.DomainPolicy)); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if r := c.Pipeline.MaxScoringErrorRate; r < 0 || r > 1 {
		return errors.ConfigInvalid(fmt.Sprintf("max scoring error rate %v is outside [0, 1]", r))
	}
	if c.Pipeline.Workers < 0 {
		return errors.ConfigInvalid("workers must not be negative")
	}
	return nil
}

// Hash fingerprints every setting that changes output content. Paths, worker
// count and server settings are excluded.
func (c *Config) Hash() core.ConfigHash {
	t := c.Thresholds
	settings := map[string]interface{}{
		"scales.balance":               t.Scales.Balance,
		"scales.tenure":                t.Scales.Tenure,
		"scales.credit":                t.Scales.Credit,
		"scales.age":                   t.Scales.Age,
		"risk.weights":                 t.Risk.Weights,
		"risk.tiers":                   t.Risk.Tiers,
		"bounds":                       t.Bounds,
		"pipeline.domain_policy":       c.Pipeline.DomainPolicy,
		"pipeline.max_error_rate":      c.Pipeline.MaxScoringErrorRate,
		"pipeline.min_insight_support": c.Pipeline.MinInsightSupport,
		"pipeline.workbook":            c.Pipeline.Workbook,
	}
	return core.ComputeConfigHash(settings)
}

func loadPathConfig(defaults PathConfig) PathConfig {
	return PathConfig{
		Input:      getEnvOrDefault("CHURN_INPUT", defaults.Input),
		OutputDir:  getEnvOrDefault("CHURN_OUTPUT_DIR", defaults.OutputDir),
		ConfigFile: getEnvOrDefault("CHURN_CONFIG", defaults.ConfigFile),
	}
}

func applyPipelineEnv(p *PipelineConfig) error {
	if v := os.Getenv("CHURN_DOMAIN_POLICY"); v != "" {
		policy, err := ingest.ParseDomainPolicy(v)
		if err != nil {
			return errors.ConfigInvalid(err.Error())
		}
		p.DomainPolicy = policy
	}
	p.MaxScoringErrorRate = getEnvFloatOrDefault("CHURN_MAX_SCORING_ERROR_RATE", p.MaxScoringErrorRate)
	p.Workers = getEnvIntOrDefault("CHURN_WORKERS", p.Workers)
	p.Workbook = getEnvBoolOrDefault("CHURN_WORKBOOK", p.Workbook)
	return nil
}

func loadServerConfig(defaults ServerConfig) ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("CHURN_SERVE_PORT", defaults.Port),
		GinMode: getEnvOrDefault("GIN_MODE", defaults.GinMode),
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
