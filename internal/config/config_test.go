package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWardPopulations(t *testing.T) {
	populations, err := parseWardPopulations("Ward 184:12000, Ward 12:8000")
	require.NoError(t, err)
	assert.Equal(t, 12000, populations["Ward 184"])
	assert.Equal(t, 8000, populations["Ward 12"])
}

func TestParseWardPopulationsEmpty(t *testing.T) {
	populations, err := parseWardPopulations("  ")
	require.NoError(t, err)
	assert.Empty(t, populations)
}

func TestParseWardPopulationsInvalid(t *testing.T) {
	_, err := parseWardPopulations("Ward 184=12000")
	assert.Error(t, err)

	_, err = parseWardPopulations("Ward 184:-5")
	assert.Error(t, err)
}

func TestPopulationForFallsBackToDefault(t *testing.T) {
	cfg := VitalityConfig{
		DefaultWardPopulation: 10000,
		WardPopulations:       map[string]int{"Ward 184": 12000},
	}
	assert.Equal(t, 12000, cfg.PopulationFor("Ward 184"))
	assert.Equal(t, 10000, cfg.PopulationFor("Ward 9"))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, float64(10), cfg.Vitality.LocalThreshold)
	assert.Equal(t, float64(25), cfg.Vitality.StateThreshold)
	assert.Equal(t, float64(50), cfg.Vitality.NationalThreshold)
	assert.Equal(t, 10000, cfg.Vitality.DefaultWardPopulation)
}
