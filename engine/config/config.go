// Package config holds the graphic settings that switch render path stages on and off and tune
// them, plus loading them from YAML or TOML files and watching those files for changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned by Load for file extensions other than .yaml, .yml and .toml.
	ErrUnsupportedFormat = errors.New("config: unsupported format")
	// ErrInvalidValue is returned when a loaded setting is out of range.
	ErrInvalidValue = errors.New("config: invalid value")
)

// DoFQuality selects the depth of field sampling density.
type DoFQuality string

const (
	DoFQualityLow    DoFQuality = "low"
	DoFQualityNormal DoFQuality = "normal"
	DoFQualityHigh   DoFQuality = "high"
)

// RadiusScale returns the sample step of the depth of field kernel. Smaller steps take more
// samples. Unknown qualities use the normal step.
func (q DoFQuality) RadiusScale() float32 {
	switch q {
	case DoFQualityLow:
		return 2.0
	case DoFQualityHigh:
		return 0.2
	}
	return 0.7
}

// TonemapMethod selects the tone mapping curve.
type TonemapMethod string

const (
	TonemapReinhard TonemapMethod = "reinhard"
	TonemapACES     TonemapMethod = "aces"
)

// SSAOSettings tunes screen space ambient occlusion.
type SSAOSettings struct {
	Enabled    bool    `yaml:"enabled" toml:"enabled"`
	Radius     float32 `yaml:"radius" toml:"radius"`
	Spread     float32 `yaml:"spread" toml:"spread"`
	Bias       float32 `yaml:"bias" toml:"bias"`
	KernelSize int     `yaml:"kernel_size" toml:"kernel_size"`
}

// BloomSettings tunes the bloom mip chain.
type BloomSettings struct {
	Enabled        bool    `yaml:"enabled" toml:"enabled"`
	Intensity      float32 `yaml:"intensity" toml:"intensity"`
	Threshold      float32 `yaml:"threshold" toml:"threshold"`
	IterationCount int     `yaml:"iteration_count" toml:"iteration_count"`
}

// DoFSettings tunes depth of field.
type DoFSettings struct {
	Enabled    bool       `yaml:"enabled" toml:"enabled"`
	FocusPoint float32    `yaml:"focus_point" toml:"focus_point"`
	FocusScale float32    `yaml:"focus_scale" toml:"focus_scale"`
	Quality    DoFQuality `yaml:"quality" toml:"quality"`
}

// TonemapSettings selects the tone mapping curve.
type TonemapSettings struct {
	Enabled bool          `yaml:"enabled" toml:"enabled"`
	Method  TonemapMethod `yaml:"method" toml:"method"`
}

// FXAASettings toggles anti-aliasing.
type FXAASettings struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// GammaSettings tunes the final gamma correction.
type GammaSettings struct {
	Enabled bool    `yaml:"enabled" toml:"enabled"`
	Gamma   float32 `yaml:"gamma" toml:"gamma"`
}

// ShadowSettings toggles shadow rendering and sizes the shadow atlas layers.
type ShadowSettings struct {
	Enabled   bool `yaml:"enabled" toml:"enabled"`
	AtlasSize int  `yaml:"atlas_size" toml:"atlas_size"`
}

// GraphicSettings is every tunable of the scene render path.
type GraphicSettings struct {
	SSAO    SSAOSettings    `yaml:"ssao" toml:"ssao"`
	Bloom   BloomSettings   `yaml:"bloom" toml:"bloom"`
	DoF     DoFSettings     `yaml:"dof" toml:"dof"`
	Tonemap TonemapSettings `yaml:"tonemap" toml:"tonemap"`
	FXAA    FXAASettings    `yaml:"fxaa" toml:"fxaa"`
	Gamma   GammaSettings   `yaml:"gamma" toml:"gamma"`
	Shadows ShadowSettings  `yaml:"shadows" toml:"shadows"`
}

// DefaultAtlasSize is the width and height of one shadow atlas layer.
const DefaultAtlasSize = 4096

// Default returns the engine defaults: shadows, tone mapping and gamma on, the rest off.
func Default() GraphicSettings {
	return GraphicSettings{
		SSAO: SSAOSettings{
			Radius:     0.5,
			Spread:     1,
			Bias:       0.025,
			KernelSize: 64,
		},
		Bloom: BloomSettings{
			Intensity:      1,
			Threshold:      1,
			IterationCount: 6,
		},
		DoF: DoFSettings{
			FocusPoint: 10,
			FocusScale: 5,
			Quality:    DoFQualityNormal,
		},
		Tonemap: TonemapSettings{Enabled: true, Method: TonemapReinhard},
		Gamma:   GammaSettings{Enabled: true, Gamma: 2.2},
		Shadows: ShadowSettings{Enabled: true, AtlasSize: DefaultAtlasSize},
	}
}

// Validate reports the first out of range setting.
//
// Returns:
//   - error: a wrapped ErrInvalidValue, or nil
func (g GraphicSettings) Validate() error {
	switch {
	case g.SSAO.KernelSize < 1 || g.SSAO.KernelSize > 64:
		return fmt.Errorf("ssao kernel_size %d outside [1, 64]: %w", g.SSAO.KernelSize, ErrInvalidValue)
	case g.SSAO.Radius < 0:
		return fmt.Errorf("ssao radius %v: %w", g.SSAO.Radius, ErrInvalidValue)
	case g.Bloom.IterationCount < 0:
		return fmt.Errorf("bloom iteration_count %d: %w", g.Bloom.IterationCount, ErrInvalidValue)
	case g.Gamma.Gamma <= 0:
		return fmt.Errorf("gamma %v: %w", g.Gamma.Gamma, ErrInvalidValue)
	case g.Shadows.AtlasSize <= 0:
		return fmt.Errorf("shadow atlas_size %d: %w", g.Shadows.AtlasSize, ErrInvalidValue)
	}
	switch g.DoF.Quality {
	case DoFQualityLow, DoFQualityNormal, DoFQualityHigh:
	default:
		return fmt.Errorf("dof quality %q: %w", g.DoF.Quality, ErrInvalidValue)
	}
	switch g.Tonemap.Method {
	case TonemapReinhard, TonemapACES:
	default:
		return fmt.Errorf("tonemap method %q: %w", g.Tonemap.Method, ErrInvalidValue)
	}
	return nil
}

// Load reads graphic settings from a YAML or TOML file. Keys missing from the file keep their
// Default values.
//
// Parameters:
//   - path: a .yaml, .yml or .toml file
//
// Returns:
//   - GraphicSettings: the merged settings
//   - error: ErrUnsupportedFormat, a read or decode error, or ErrInvalidValue
func Load(path string) (GraphicSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GraphicSettings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(filepath.Ext(path), data)
}

// Parse decodes settings in the format named by ext over Default.
//
// Parameters:
//   - ext: the file extension, with or without the leading dot
//   - data: the encoded settings
//
// Returns:
//   - GraphicSettings: the merged settings
//   - error: ErrUnsupportedFormat, a decode error, or ErrInvalidValue
func Parse(ext string, data []byte) (GraphicSettings, error) {
	g := Default()
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &g); err != nil {
			return GraphicSettings{}, fmt.Errorf("config: decode yaml: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &g); err != nil {
			return GraphicSettings{}, fmt.Errorf("config: decode toml: %w", err)
		}
	default:
		return GraphicSettings{}, fmt.Errorf("config: %q: %w", ext, ErrUnsupportedFormat)
	}
	if err := g.Validate(); err != nil {
		return GraphicSettings{}, err
	}
	return g, nil
}

// Save writes settings to path in the format its extension names.
//
// Returns:
//   - error: ErrUnsupportedFormat, or an encode or write error
func Save(path string, g GraphicSettings) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(g)
	case ".toml":
		data, err = toml.Marshal(g)
	default:
		return fmt.Errorf("config: %q: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
