package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stylusguard/internal/errors"
	"stylusguard/internal/model"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.EnabledCategories, 3, "All categories enabled by default")
	assert.Empty(t, cfg.SeverityFloor, "No severity floor by default")
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
enabled_categories: [security]
severity_floor: medium
gas_cost_threshold: 50000
timeout: 2s
`))
	require.NoError(t, err)
	assert.Equal(t, []model.Category{model.CategorySecurity}, cfg.EnabledCategories)
	assert.Equal(t, model.SeverityMedium, cfg.SeverityFloor)
	assert.Equal(t, uint64(50000), cfg.GasCostThreshold)
	assert.Equal(t, 2*time.Second, cfg.Timeout.Std())
	assert.Equal(t, uint64(200), cfg.FallbackOpCost, "Unset fields keep their defaults")
}

func TestParseRejectsUnknownCategory(t *testing.T) {
	_, err := Parse([]byte(`enabled_categories: [styling]`))
	require.Error(t, err)
	var cfgErr *apperrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr, "Invalid configuration must fail fast, not degrade")
	assert.Equal(t, "enabled_categories", cfgErr.Field)
}

func TestParseRejectsUnknownSeverityFloor(t *testing.T) {
	_, err := Parse([]byte(`severity_floor: catastrophic`))
	var cfgErr *apperrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "severity_floor", cfgErr.Field)
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte(`timeout: soon`))
	require.Error(t, err)
}

func TestValidateRejectsEmptyCategories(t *testing.T) {
	cfg := Default()
	cfg.EnabledCategories = nil
	require.Error(t, cfg.Validate())
}
