package environment

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
)

// ErrNoCubeMap is returned by Sky.Init when no cube map is set.
var ErrNoCubeMap = errors.New("sky has no cube map")

// DefaultIrradianceSize is the face size of the irradiance map a sky builds on Init.
const DefaultIrradianceSize = 8

// skyVolumeSize makes the sky environment contain every job.
const skyVolumeSize float32 = 1e9

// irradianceSamples bounds the source texels read per face and axis during convolution.
const irradianceSamples = 16

type skyImpl struct {
	mu             *sync.Mutex
	cubeMap        *texture.CubeMap
	mat            material.Material
	draw           bool
	exposure       float32
	intensity      float32
	rotation       float32
	irradianceSize int
	initiated      bool
	waitingForInit bool
	env            Volume
}

// Sky draws a cube map behind the scene and lights jobs no environment volume contains.
//
// Its GPU side setup runs as a deferred render task: the render path calls MarkInitQueued when
// it queues the task and the task calls Init. ReadyToRender stays false until Init has run, so
// the sky pass never samples a half built map.
type Sky interface {
	// CubeMap returns the sky texture.
	CubeMap() *texture.CubeMap

	// SetCubeMap replaces the sky texture. The sky must be initialized again.
	SetCubeMap(c *texture.CubeMap)

	// Material returns the skybox material: the sky vertex and fragment shaders with culling
	// off and a LessEqual depth test.
	Material() material.Material

	// DrawSky reports whether the sky pass draws the sky.
	DrawSky() bool

	// SetDrawSky enables or disables drawing. Lighting from the sky is unaffected.
	SetDrawSky(v bool)

	// Exposure returns the exposure the sky is drawn with.
	Exposure() float32

	// SetExposure sets the exposure.
	SetExposure(v float32)

	// Intensity returns the IBL intensity of the sky environment.
	Intensity() float32

	// SetIntensity sets the IBL intensity.
	SetIntensity(v float32)

	// NeedsInit reports whether Init has neither run nor been queued.
	NeedsInit() bool

	// MarkInitQueued records that an Init task is pending.
	MarkInitQueued()

	// WaitingForInit reports whether an Init task is pending.
	WaitingForInit() bool

	// Initiated reports whether Init has completed.
	Initiated() bool

	// Init builds the irradiance map from the cube map and the sky environment.
	//
	// Returns:
	//   - error: ErrNoCubeMap when no cube map is set
	Init() error

	// ReadyToRender reports whether the sky pass may draw the sky this frame.
	ReadyToRender() bool

	// Environment returns the environment covering the whole scene with the sky's lighting,
	// or nil before Init.
	Environment() Volume
}

var _ Sky = &skyImpl{}

// NewSky creates a sky with unit exposure and intensity that draws once initialized.
//
// Parameters:
//   - options: variadic list of SkyBuilderOption functions
//
// Returns:
//   - Sky: the new sky
func NewSky(options ...SkyBuilderOption) Sky {
	s := &skyImpl{
		mu:             &sync.Mutex{},
		draw:           true,
		exposure:       1,
		intensity:      1,
		irradianceSize: DefaultIrradianceSize,
	}
	for _, option := range options {
		option(s)
	}

	rs := material.DefaultRenderState()
	rs.CullMode = gputypes.CullModeNone
	rs.DepthFunc = gputypes.CompareFunctionLessEqual
	s.mat = material.NewMaterial(
		material.WithName("sky"),
		material.WithType(material.MaterialTypeCustom),
		material.WithShaders(builtin.Get(builtin.SkyboxVertex), builtin.Get(builtin.SkyboxFragment)),
		material.WithRenderState(rs),
		material.WithCubeMap(s.cubeMap),
	)
	if err := s.mat.Init(); err != nil {
		panic(fmt.Sprintf("environment: sky material: %v", err))
	}
	return s
}

func (s *skyImpl) CubeMap() *texture.CubeMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cubeMap
}

func (s *skyImpl) SetCubeMap(c *texture.CubeMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cubeMap = c
	s.mat.SetCubeMap(c)
	s.initiated = false
	s.waitingForInit = false
	s.env = nil
}

func (s *skyImpl) Material() material.Material {
	return s.mat
}

func (s *skyImpl) DrawSky() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draw
}

func (s *skyImpl) SetDrawSky(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draw = v
}

func (s *skyImpl) Exposure() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exposure
}

func (s *skyImpl) SetExposure(v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exposure = v
	if s.env != nil {
		s.env.SetExposure(v)
	}
}

func (s *skyImpl) Intensity() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intensity
}

func (s *skyImpl) SetIntensity(v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intensity = v
	if s.env != nil {
		s.env.SetIntensity(v)
	}
}

func (s *skyImpl) NeedsInit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.initiated && !s.waitingForInit && s.cubeMap != nil
}

func (s *skyImpl) MarkInitQueued() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitingForInit = true
}

func (s *skyImpl) WaitingForInit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitingForInit
}

func (s *skyImpl) Initiated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initiated
}

func (s *skyImpl) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitingForInit = false
	if s.cubeMap == nil {
		return ErrNoCubeMap
	}
	irr := ComputeIrradiance(s.cubeMap, s.irradianceSize)
	s.env = NewVolume(
		WithName("sky"),
		WithSize([3]float32{skyVolumeSize, skyVolumeSize, skyVolumeSize}),
		WithIntensity(s.intensity),
		WithExposure(s.exposure),
		WithRotation(s.rotation),
		WithIBL(IBL{Irradiance: irr}),
	)
	s.initiated = true
	return nil
}

func (s *skyImpl) ReadyToRender() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draw && s.initiated && s.cubeMap != nil
}

func (s *skyImpl) Environment() Volume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env
}

// ComputeIrradiance convolves a cube map with a cosine lobe into a new cube map of the given
// face size. A uniform source of colour c produces c everywhere.
//
// Parameters:
//   - src: the radiance cube map, with pixels
//   - size: face size of the result
//
// Returns:
//   - *texture.CubeMap: the irradiance map, or nil when src has no pixels
func ComputeIrradiance(src *texture.CubeMap, size int) *texture.CubeMap {
	if src == nil || src.Face(texture.CubeFacePosX) == nil || size <= 0 {
		return nil
	}
	type tap struct {
		dir    [3]float32
		weight float32
		color  [3]float32
	}
	step := max(src.Width/irradianceSamples, 1)
	taps := make([]tap, 0, 6*irradianceSamples*irradianceSamples)
	for f := texture.CubeFacePosX; f <= texture.CubeFaceNegZ; f++ {
		data := src.Face(f)
		for y := step / 2; y < src.Height; y += step {
			for x := step / 2; x < src.Width; x += step {
				d := texture.CubeDirection(f, (float32(x)+0.5)/float32(src.Width), (float32(y)+0.5)/float32(src.Height))
				l := common.Length3(d)
				i := (y*src.Width + x) * 4
				taps = append(taps, tap{
					dir:    common.Scale3(d, 1/l),
					weight: 1 / (l * l * l),
					color:  [3]float32{data[i], data[i+1], data[i+2]},
				})
			}
		}
	}

	settings := src.Settings
	settings.GenerateMipMap = false
	out := texture.NewCubeMap(src.Name+"_irradiance", size, settings)
	for f := texture.CubeFacePosX; f <= texture.CubeFaceNegZ; f++ {
		px := make([]float32, size*size*4)
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				n := common.Normalize3(texture.CubeDirection(f, (float32(x)+0.5)/float32(size), (float32(y)+0.5)/float32(size)))
				var sum [3]float32
				var total float32
				for _, t := range taps {
					w := math32.Max(common.Dot3(n, t.dir), 0) * t.weight
					if w == 0 {
						continue
					}
					sum = common.Add3(sum, common.Scale3(t.color, w))
					total += w
				}
				i := (y*size + x) * 4
				if total > 0 {
					px[i], px[i+1], px[i+2] = sum[0]/total, sum[1]/total, sum[2]/total
				}
				px[i+3] = 1
			}
		}
		// sizes match by construction
		_ = out.SetFace(f, px)
	}
	return out
}
