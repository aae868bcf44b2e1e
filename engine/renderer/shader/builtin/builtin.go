// Package builtin is the engine's shader library. Every shader ships as a WGSL source for GPU
// devices and as a Go kernel for the software device; both read the same uniform and parameter
// names and the same texture slots.
//
// Vertex stage uniforms live in a `Uniforms` struct at @group(0) @binding(0), fragment stage
// uniforms at @group(0) @binding(1). Texture slot i binds its texture at @group(1) @binding(2i)
// and its sampler at @binding(2i+1).
package builtin

import (
	"embed"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
)

//go:embed assets/*.wgsl assets/chunks/*.wgsl
var assets embed.FS

// chunkNames are the shared WGSL chunks under assets/chunks, registered with every library shader.
var chunkNames = []string{"surface", "material", "lighting"}

// Shader names accepted by Get.
const (
	DefaultVertex  = "default_vertex"
	FullQuadVertex = "full_quad_vertex"
	SkyboxVertex   = "skybox_vertex"

	GBufferFragment           = "gbuffer_fragment"
	ForwardFragment           = "forward_fragment"
	UnlitFragment             = "unlit_fragment"
	ForwardPreProcessFragment = "forward_preprocess_fragment"
	OrthoDepthFragment        = "ortho_depth_fragment"
	PerspDepthFragment        = "persp_depth_fragment"

	DeferredLightingFragment = "deferred_lighting_fragment"
	LightingMergeFragment    = "lighting_merge_fragment"
	SSAOFragment             = "ssao_fragment"
	AverageBlurFragment      = "average_blur_fragment"
	SkyboxFragment           = "skybox_fragment"

	BloomDownsampleFragment  = "bloom_downsample_fragment"
	BloomUpsampleFragment    = "bloom_upsample_fragment"
	DoFFragment              = "dof_fragment"
	TonemapFragment          = "tonemap_fragment"
	FXAAFragment             = "fxaa_fragment"
	GammaFragment            = "gamma_fragment"
	GammaTonemapFXAAFragment = "gamma_tonemap_fxaa_fragment"
	CopyFragment             = "copy_fragment"
)

// Custom parameter names read by the built-in kernels.
const (
	ParamAOInUse       = "aoInUse"
	ParamScreenSize    = "screenSize"
	ParamRadius        = "radius"
	ParamBias          = "bias"
	ParamSpread        = "spread"
	ParamKernelSize    = "kernelSize"
	ParamProjection    = "projection"
	ParamInvProjection = "invProjection"
	ParamNoiseScale    = "noiseScale"
	ParamBlurAxis      = "blurAxis"
	ParamBlurAmount    = "blurAmount"
	ParamPassIndex     = "passIndex"
	ParamThreshold     = "threshold"
	ParamFilterRadius  = "filterRadius"
	ParamIntensity     = "intensity"
	ParamFocusPoint    = "focusPoint"
	ParamFocusScale    = "focusScale"
	ParamBlurSize      = "blurSize"
	ParamRadiusScale   = "radiusScale"
	ParamTonemapMethod = "tonemapMethod"
	ParamGamma         = "gamma"

	ParamEnableGammaCorrection = "enableGammaCorrection"
	ParamEnableTonemapping     = "enableTonemapping"
	ParamEnableFXAA            = "enableFxaa"
)

// G-buffer colour attachment order written by GBufferFragment.
const (
	GBufferPosition = iota
	GBufferNormal
	GBufferColor
	GBufferEmissive
	GBufferLinearDepth
	GBufferMetallicRoughness
	GBufferIBL

	GBufferAttachmentCount
)

// Texture slots read by the screen-space kernels.
const (
	// SlotSource is the input image of every post-process and blur kernel.
	SlotSource = 0
	// SlotDepthInput is the linear depth read by DoF.
	SlotDepthInput = 1

	// Deferred lighting inputs.
	SlotGBufferPosition          = 0
	SlotGBufferNormal            = 1
	SlotGBufferColor             = 2
	SlotGBufferMetallicRoughness = 3

	// Lighting merge inputs.
	SlotLighting = 0
	SlotEmissive = 1
	SlotIBL      = 2
	SlotAO       = 3
	SlotCoverage = 4

	// SSAO inputs.
	SlotSSAONormal = 0
	SlotSSAODepth  = 1
	SlotSSAONoise  = 2
	SlotSSAOKernel = 3

	// SlotForwardAO is the ambient occlusion read by the forward kernel.
	SlotForwardAO = 5
)

// Tonemap methods accepted by ParamTonemapMethod.
const (
	TonemapReinhard int32 = iota
	TonemapACES
)

// entry describes one library shader.
type entry struct {
	stage    shader.ShaderType
	vertex   shader.VertexKernel
	fragment shader.FragmentKernel
	uniforms []shader.Uniform
	params   map[string]any
}

var library = map[string]entry{
	DefaultVertex: {
		stage:    shader.ShaderTypeVertex,
		vertex:   defaultVertex,
		uniforms: []shader.Uniform{shader.UniformProjectModelView, shader.UniformModel, shader.UniformInvTransModel, shader.UniformView},
	},
	FullQuadVertex: {
		stage:  shader.ShaderTypeVertex,
		vertex: fullQuadVertex,
	},
	SkyboxVertex: {
		stage:    shader.ShaderTypeVertex,
		vertex:   skyboxVertex,
		uniforms: []shader.Uniform{shader.UniformProjectViewNoTranslation},
	},
	GBufferFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: gbufferFragment,
		uniforms: materialUniforms(shader.UniformCamData),
	},
	ForwardFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: forwardFragment,
		uniforms: materialUniforms(shader.UniformCamData, shader.UniformLightData),
		params:   map[string]any{ParamAOInUse: false, ParamScreenSize: [2]float32{1, 1}},
	},
	UnlitFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: unlitFragment,
		uniforms: []shader.Uniform{shader.UniformColor, shader.UniformColorAlpha, shader.UniformDiffuseTextureInUse, shader.UniformUseAlphaMask, shader.UniformAlphaMaskThreshold},
	},
	ForwardPreProcessFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: forwardPreProcessFragment,
	},
	OrthoDepthFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: orthoDepthFragment,
	},
	PerspDepthFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: perspDepthFragment,
		uniforms: []shader.Uniform{shader.UniformCamData},
	},
	DeferredLightingFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: deferredLightingFragment,
		uniforms: []shader.Uniform{shader.UniformCamData, shader.UniformLightData},
	},
	LightingMergeFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: lightingMergeFragment,
		params:   map[string]any{ParamAOInUse: false},
	},
	SSAOFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: ssaoFragment,
		params: map[string]any{
			ParamRadius:        float32(0.5),
			ParamBias:          float32(0.025),
			ParamSpread:        float32(1),
			ParamKernelSize:    int32(64),
			ParamProjection:    [16]float32{},
			ParamInvProjection: [16]float32{},
			ParamNoiseScale:    [2]float32{1, 1},
		},
	},
	AverageBlurFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: averageBlurFragment,
		params:   map[string]any{ParamBlurAxis: [2]float32{1, 0}, ParamBlurAmount: int32(2)},
	},
	SkyboxFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: skyboxFragment,
		uniforms: []shader.Uniform{shader.UniformExposure},
	},
	BloomDownsampleFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: bloomDownsampleFragment,
		params:   map[string]any{ParamPassIndex: int32(0), ParamThreshold: float32(1)},
	},
	BloomUpsampleFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: bloomUpsampleFragment,
		params:   map[string]any{ParamFilterRadius: float32(1), ParamIntensity: float32(1)},
	},
	DoFFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: dofFragment,
		params: map[string]any{
			ParamFocusPoint:  float32(10),
			ParamFocusScale:  float32(5),
			ParamBlurSize:    float32(5),
			ParamRadiusScale: float32(0.7),
		},
	},
	TonemapFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: tonemapFragment,
		params:   map[string]any{ParamTonemapMethod: TonemapReinhard},
	},
	FXAAFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: fxaaFragment,
		params:   map[string]any{ParamScreenSize: [2]float32{1, 1}},
	},
	GammaFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: gammaFragment,
		params:   map[string]any{ParamGamma: float32(2.2)},
	},
	GammaTonemapFXAAFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: gammaTonemapFXAAFragment,
		params: map[string]any{
			ParamScreenSize:            [2]float32{1, 1},
			ParamGamma:                 float32(2.2),
			ParamTonemapMethod:         TonemapReinhard,
			ParamEnableGammaCorrection: true,
			ParamEnableTonemapping:     true,
			ParamEnableFXAA:            true,
		},
	},
	CopyFragment: {
		stage:    shader.ShaderTypeFragment,
		fragment: copyFragment,
	},
}

// materialUniforms lists the material built-ins plus extra.
func materialUniforms(extra ...shader.Uniform) []shader.Uniform {
	out := []shader.Uniform{
		shader.UniformColor,
		shader.UniformColorAlpha,
		shader.UniformDiffuseTextureInUse,
		shader.UniformEmissiveColor,
		shader.UniformEmissiveTextureInUse,
		shader.UniformMetallic,
		shader.UniformRoughness,
		shader.UniformMetallicRoughnessTextureInUse,
		shader.UniformNormalMapInUse,
		shader.UniformUseAlphaMask,
		shader.UniformAlphaMaskThreshold,
		shader.UniformUseIBL,
		shader.UniformIBLIntensity,
		shader.UniformIBLIrradiance,
		shader.UniformIBLRotation,
		shader.UniformIBLMaxReflectionLod,
	}
	return append(out, extra...)
}

// Get returns a new instance of a library shader with its default parameters set. Each call
// returns an independent shader so callers can set parameters without affecting each other.
// Unknown names panic.
//
// Parameters:
//   - name: one of the shader name constants
//
// Returns:
//   - shader.Shader: the shader
func Get(name string) shader.Shader {
	e, ok := library[name]
	if !ok {
		panic(fmt.Sprintf("builtin: unknown shader %q", name))
	}
	src, err := assets.ReadFile("assets/" + name + ".wgsl")
	if err != nil {
		panic(fmt.Sprintf("builtin: missing source for %q: %v", name, err))
	}

	pp := shader.NewPreProcessor()
	for _, c := range chunkNames {
		chunk, err := assets.ReadFile("assets/chunks/" + c + ".wgsl")
		if err != nil {
			panic(fmt.Sprintf("builtin: missing chunk %q: %v", c, err))
		}
		pp.RegisterChunk(c, string(chunk))
	}

	opts := []shader.ShaderBuilderOption{
		shader.WithPreProcessor(pp),
		shader.WithSource(string(src)),
		shader.WithUniforms(e.uniforms...),
	}
	if e.vertex != nil {
		opts = append(opts, shader.WithVertexKernel(e.vertex))
	}
	if e.fragment != nil {
		opts = append(opts, shader.WithFragmentKernel(e.fragment))
	}
	for k, v := range e.params {
		opts = append(opts, shader.WithParameter(k, v))
	}
	return shader.NewShader(name, e.stage, opts...)
}

// Names returns every library shader name in sorted order.
func Names() []string {
	names := make([]string, 0, len(library))
	for n := range library {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
