package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "stylusguard/internal/errors"
	"stylusguard/internal/model"
)

// Duration wraps time.Duration so YAML can carry values like "5s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config tunes one analysis run. Invalid configuration fails the whole
// call before any analysis work starts.
type Config struct {
	EnabledCategories []model.Category `yaml:"enabled_categories"`
	GasCostThreshold  uint64           `yaml:"gas_cost_threshold"`
	SeverityFloor     model.Severity   `yaml:"severity_floor"`
	Timeout           Duration         `yaml:"timeout"` // per-detector budget
	FallbackOpCost    uint64           `yaml:"fallback_op_cost"`
	CarbonPerUnit     float64          `yaml:"carbon_per_unit"`
	EnergyPerUnit     float64          `yaml:"energy_per_unit"`
	Dialect           string           `yaml:"dialect"`
}

// Default enables every category with no severity floor.
func Default() Config {
	return Config{
		EnabledCategories: []model.Category{
			model.CategorySecurity,
			model.CategoryPerformance,
			model.CategoryQuality,
		},
		GasCostThreshold: 100000,
		Timeout:          Duration(10 * time.Second),
		FallbackOpCost:   200,
		CarbonPerUnit:    0.0000002,
		EnergyPerUnit:    0.000001,
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &apperrors.ConfigurationError{Field: "yaml", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot honor.
func (c Config) Validate() error {
	if len(c.EnabledCategories) == 0 {
		return &apperrors.ConfigurationError{Field: "enabled_categories", Reason: "at least one category required"}
	}
	for _, cat := range c.EnabledCategories {
		switch cat {
		case model.CategorySecurity, model.CategoryPerformance, model.CategoryQuality:
		default:
			return &apperrors.ConfigurationError{Field: "enabled_categories", Reason: fmt.Sprintf("unknown category %q", cat)}
		}
	}
	if c.SeverityFloor != "" && !c.SeverityFloor.Valid() {
		return &apperrors.ConfigurationError{Field: "severity_floor", Reason: fmt.Sprintf("unknown severity %q", c.SeverityFloor)}
	}
	if c.Timeout < 0 {
		return &apperrors.ConfigurationError{Field: "timeout", Reason: "must not be negative"}
	}
	if c.CarbonPerUnit < 0 || c.EnergyPerUnit < 0 {
		return &apperrors.ConfigurationError{Field: "coefficients", Reason: "must not be negative"}
	}
	return nil
}
