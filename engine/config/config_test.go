package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	g := Default()
	require.NoError(t, g.Validate())
	assert.True(t, g.Shadows.Enabled)
	assert.Equal(t, DefaultAtlasSize, g.Shadows.AtlasSize)
	assert.Equal(t, 6, g.Bloom.IterationCount)
	assert.InDelta(t, 2.2, g.Gamma.Gamma, 1e-6)
	assert.False(t, g.SSAO.Enabled)
}

func TestLoadYAMLMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gfx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ssao:
  enabled: true
  radius: 0.75
bloom:
  enabled: true
  iteration_count: 3
dof:
  quality: high
`), 0o644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.True(t, g.SSAO.Enabled)
	assert.InDelta(t, 0.75, g.SSAO.Radius, 1e-6)
	assert.Equal(t, 64, g.SSAO.KernelSize, "absent keys keep their defaults")
	assert.True(t, g.Bloom.Enabled)
	assert.Equal(t, 3, g.Bloom.IterationCount)
	assert.InDelta(t, 1, g.Bloom.Threshold, 1e-6)
	assert.Equal(t, DoFQualityHigh, g.DoF.Quality)
	assert.True(t, g.Tonemap.Enabled)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gfx.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[tonemap]
method = "aces"

[gamma]
gamma = 2.4

[shadows]
atlas_size = 2048
`), 0o644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TonemapACES, g.Tonemap.Method)
	assert.True(t, g.Tonemap.Enabled)
	assert.InDelta(t, 2.4, g.Gamma.Gamma, 1e-6)
	assert.Equal(t, 2048, g.Shadows.AtlasSize)
	assert.True(t, g.Shadows.Enabled)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	ini := filepath.Join(dir, "gfx.ini")
	require.NoError(t, os.WriteFile(ini, []byte("a=1"), 0o644))
	_, err = Load(ini)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("gamma:\n  gamma: 0\n"), 0o644))
	_, err = Load(bad)
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = Parse("toml", []byte("[dof]\nquality = \"ultra\"\n"))
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := Default()
	g.Bloom.Enabled = true
	g.DoF.Quality = DoFQualityLow

	for _, name := range []string{"gfx.yaml", "gfx.toml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, g))
		got, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, g, got, name)
	}
	assert.True(t, errors.Is(Save(filepath.Join(dir, "gfx.json"), g), ErrUnsupportedFormat))
}

func TestDoFQualityRadiusScale(t *testing.T) {
	assert.InDelta(t, 2.0, DoFQualityLow.RadiusScale(), 1e-6)
	assert.InDelta(t, 0.7, DoFQualityNormal.RadiusScale(), 1e-6)
	assert.InDelta(t, 0.2, DoFQualityHigh.RadiusScale(), 1e-6)
	assert.InDelta(t, 0.7, DoFQuality("").RadiusScale(), 1e-6)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gfx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fxaa:\n  enabled: false\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan GraphicSettings, 8)
	require.NoError(t, Watch(ctx, path, func(g GraphicSettings) { got <- g }, WithDebounce(20*time.Millisecond)))

	require.NoError(t, os.WriteFile(path, []byte("fxaa:\n  enabled: true\n"), 0o644))

	select {
	case g := <-got:
		assert.True(t, g.FXAA.Enabled)
	case <-time.After(5 * time.Second):
		t.Fatal("settings were not reloaded")
	}
}

func TestWatchSkipsInvalidFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gfx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fxaa:\n  enabled: false\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan GraphicSettings, 8)
	require.NoError(t, Watch(ctx, path, func(g GraphicSettings) { got <- g }, WithDebounce(20*time.Millisecond)))

	require.NoError(t, os.WriteFile(path, []byte("gamma:\n  gamma: -1\n"), 0o644))
	select {
	case <-got:
		t.Fatal("invalid settings were delivered")
	case <-time.After(300 * time.Millisecond):
	}
}
