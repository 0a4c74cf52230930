package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegions(t *testing.T, dir string, regions *RegionsConfig) {
	t.Helper()
	data, err := json.Marshal(regions)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "regions.json"), data, 0o644))
}

func TestNew_OverrideTakesPrecedence(t *testing.T) {
	t.Setenv(DataDirEnv, "/tmp/from-env")

	override := t.TempDir()
	cfg, err := New(override)
	require.NoError(t, err)
	assert.Equal(t, override, cfg.DataDir)
}

func TestNew_EnvironmentVariable(t *testing.T) {
	envDir := t.TempDir()
	t.Setenv(DataDirEnv, envDir)

	cfg, err := New("")
	require.NoError(t, err)
	assert.Equal(t, envDir, cfg.DataDir)
}

func TestNew_DefaultDataDir(t *testing.T) {
	t.Setenv(DataDirEnv, "")

	cfg, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "regulation-data", filepath.Base(cfg.DataDir))
}

func TestLoadRegions_MissingFile(t *testing.T) {
	cfg, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = cfg.LoadRegions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regions.json not found")
}

func TestRegionAndRegulationLookup(t *testing.T) {
	dataDir := t.TempDir()
	writeRegions(t, dataDir, DefaultRegions())

	cfg, err := New(dataDir)
	require.NoError(t, err)

	region, err := cfg.Region("eu")
	require.NoError(t, err)
	require.NotNil(t, region)
	assert.Equal(t, "European Union", region.Name)

	reg, err := cfg.Regulation("eu", "gdpr")
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.NotEmpty(t, reg.Sources)

	missing, err := cfg.Regulation("eu", "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missingRegion, err := cfg.Region("atlantis")
	require.NoError(t, err)
	assert.Nil(t, missingRegion)
}

func TestRegulationName(t *testing.T) {
	assert.Equal(t, "General Data Protection Regulation", RegulationName("gdpr"))
	assert.Equal(t, "Lei Geral de Proteção de Dados", RegulationName("lgpd"))
	assert.Equal(t, "PIPEDA", RegulationName("pipeda"))
}

func TestDefaultRegions_CoversSeedRegulations(t *testing.T) {
	regions := DefaultRegions()
	require.Len(t, regions.Regions, 3)

	total := 0
	for _, region := range regions.Regions {
		assert.NotEmpty(t, region.ID)
		assert.NotEmpty(t, region.Name)
		for _, reg := range region.Regulations {
			assert.NotEmpty(t, reg.Sources, "regulation %s has no sources", reg.ID)
			total++
		}
	}
	assert.Equal(t, 6, total)
}
