package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsGoodRMSAboveMaxRMS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GoodRMS = cfg.MaxRMS + 1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDefaultDepthOutsideRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultDepth = cfg.MaxDepth + 1
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresXXLMinPhaseCountWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.XXLEnable = true
	cfg.XXLMinPhaseCount = 1
	assert.Error(t, cfg.Validate())
}

func TestReadConfigOverlaysDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autoloc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("minScore: 42\nxxlEnable: false\n"), 0o644))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42.0, cfg.MinScore)
	assert.Equal(t, DefaultConfig().MaxRMS, cfg.MaxRMS, "fields absent from the file keep their default")
}

func TestReadConfigRejectsInvalidOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autoloc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("minPhaseCount: 1\n"), 0o644))

	_, err := ReadConfig(path)
	assert.Error(t, err)
}
