package shader

import (
	"encoding/binary"
	"math"
)

// Uniform enumerates the built-in values the renderer feeds to every program that declares them.
type Uniform int

const (
	// UniformProjectModelView is projection * view * model.
	UniformProjectModelView Uniform = iota
	// UniformModel is the model (world) matrix.
	UniformModel
	// UniformInvTransModel is the inverse transpose of the model matrix, for normals.
	UniformInvTransModel
	// UniformView is the camera view matrix.
	UniformView
	// UniformProjectViewNoTranslation is projection * view with the view translation removed, for skyboxes.
	UniformProjectViewNoTranslation
	// UniformCamData carries camera position, direction and far plane.
	UniformCamData
	// UniformLightData carries the active light list.
	UniformLightData
	// UniformColor is the material colour with alpha in w.
	UniformColor
	// UniformColorAlpha is the material alpha alone.
	UniformColorAlpha
	// UniformDiffuseTextureInUse is 1 when a diffuse texture is bound.
	UniformDiffuseTextureInUse
	// UniformEmissiveColor is the emissive colour.
	UniformEmissiveColor
	// UniformEmissiveTextureInUse is 1 when an emissive texture is bound.
	UniformEmissiveTextureInUse
	// UniformMetallic is the metallic factor.
	UniformMetallic
	// UniformRoughness is the roughness factor.
	UniformRoughness
	// UniformMetallicRoughnessTextureInUse is 1 when a metallic-roughness texture is bound.
	UniformMetallicRoughnessTextureInUse
	// UniformNormalMapInUse is 1 when a normal map is bound.
	UniformNormalMapInUse
	// UniformUseAlphaMask is 1 for alpha-mask materials.
	UniformUseAlphaMask
	// UniformAlphaMaskThreshold is the alpha cutoff of alpha-mask materials.
	UniformAlphaMaskThreshold
	// UniformFrameCount is the number of frames rendered so far.
	UniformFrameCount
	// UniformElapsedTime is seconds since the renderer started.
	UniformElapsedTime
	// UniformExposure is the environment exposure.
	UniformExposure
	// UniformUseIBL is 1 when an environment is assigned to the draw.
	UniformUseIBL
	// UniformIBLIntensity scales image based lighting.
	UniformIBLIntensity
	// UniformIBLIrradiance binds the irradiance, specular and BRDF LUT textures to their slots.
	UniformIBLIrradiance
	// UniformIBLRotation rotates environment lookups.
	UniformIBLRotation
	// UniformIBLMaxReflectionLod is the highest mip of the specular map.
	UniformIBLMaxReflectionLod

	uniformCount
)

var uniformNames = [uniformCount]string{
	UniformProjectModelView:              "projectViewModel",
	UniformModel:                         "model",
	UniformInvTransModel:                 "invTransModel",
	UniformView:                          "view",
	UniformProjectViewNoTranslation:      "projectViewNoTr",
	UniformCamData:                       "camData",
	UniformLightData:                     "lightData",
	UniformColor:                         "color",
	UniformColorAlpha:                    "colorAlpha",
	UniformDiffuseTextureInUse:           "diffuseTextureInUse",
	UniformEmissiveColor:                 "emissiveColor",
	UniformEmissiveTextureInUse:          "emissiveTextureInUse",
	UniformMetallic:                      "metallic",
	UniformRoughness:                     "roughness",
	UniformMetallicRoughnessTextureInUse: "metallicRoughnessTextureInUse",
	UniformNormalMapInUse:                "normalMapInUse",
	UniformUseAlphaMask:                  "useAlphaMask",
	UniformAlphaMaskThreshold:            "alphaMaskThreshold",
	UniformFrameCount:                    "frameCount",
	UniformElapsedTime:                   "elapsedTime",
	UniformExposure:                      "exposure",
	UniformUseIBL:                        "useIbl",
	UniformIBLIntensity:                  "iblIntensity",
	UniformIBLIrradiance:                 "iblIrradiance",
	UniformIBLRotation:                   "iblRotation",
	UniformIBLMaxReflectionLod:           "iblMaxReflectionLod",
}

// Name returns the identifier the uniform has inside shader sources.
func (u Uniform) Name() string {
	if u < 0 || u >= uniformCount {
		return ""
	}
	return uniformNames[u]
}

// AllUniforms returns every built-in uniform in declaration order.
func AllUniforms() []Uniform {
	out := make([]Uniform, uniformCount)
	for i := range out {
		out[i] = Uniform(i)
	}
	return out
}

// MaxLights is the largest light list a single draw receives.
const MaxLights = 16

// Fixed texture slots used by materials and the renderer.
const (
	SlotDiffuse           = 0
	SlotEmissive          = 1
	SlotMetallicRoughness = 4
	SlotCubeMap           = 6
	SlotIBLIrradiance     = 7
	SlotShadowAtlas       = 8
	SlotNormalMap         = 9
	SlotIBLSpecular       = 15
	SlotIBLBRDFLut        = 16
)

// LightKind is the light type as seen by shaders.
type LightKind int32

const (
	// LightKindDirectional is an infinitely distant light.
	LightKindDirectional LightKind = iota
	// LightKindPoint radiates in every direction from a position.
	LightKindPoint
	// LightKindSpot is a cone.
	LightKindSpot
)

// LightEntry is one light as seen by shaders.
type LightEntry struct {
	Kind           LightKind
	Color          [3]float32
	Intensity      float32
	Position       [3]float32
	Radius         float32
	Direction      [3]float32
	OuterCos       float32
	InnerCos       float32
	CastShadow     bool
	ShadowBias     float32
	ProjView       [16]float32
	AtlasCoord     [2]float32
	AtlasScale     float32
	AtlasLayer     int32
	PCFSamples     int32
	PCFRadius      float32
	BleedReduction float32
	ShadowFar      float32
}

// LightData is the value fed to UniformLightData.
type LightData struct {
	Count  int32
	Lights [MaxLights]LightEntry
}

// LightEntrySize is the std140 size of one packed LightEntry in bytes.
const LightEntrySize = 6*16 + 64

// Marshal packs the light list to match the WGSL LightData struct
// (MaxLights entries of six vec4 and one mat4, followed by a vec4<i32> count).
//
// Returns:
//   - []byte: MaxLights*LightEntrySize + 16 bytes ready for GPU upload
func (d *LightData) Marshal() []byte {
	buf := make([]byte, MaxLights*LightEntrySize+16)
	put := func(off int, v float32) { binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v)) }
	for i := 0; i < MaxLights; i++ {
		l := &d.Lights[i]
		o := i * LightEntrySize
		put(o+0, l.Color[0])
		put(o+4, l.Color[1])
		put(o+8, l.Color[2])
		put(o+12, l.Intensity)
		put(o+16, l.Position[0])
		put(o+20, l.Position[1])
		put(o+24, l.Position[2])
		put(o+28, l.Radius)
		put(o+32, l.Direction[0])
		put(o+36, l.Direction[1])
		put(o+40, l.Direction[2])
		put(o+44, float32(l.Kind))
		put(o+48, l.OuterCos)
		put(o+52, l.InnerCos)
		put(o+56, boolFloat(l.CastShadow))
		put(o+60, l.ShadowBias)
		put(o+64, l.AtlasCoord[0])
		put(o+68, l.AtlasCoord[1])
		put(o+72, float32(l.AtlasLayer))
		put(o+76, l.AtlasScale)
		put(o+80, float32(l.PCFSamples))
		put(o+84, l.PCFRadius)
		put(o+88, l.BleedReduction)
		put(o+92, l.ShadowFar)
		for j, v := range l.ProjView {
			put(o+96+j*4, v)
		}
	}
	binary.LittleEndian.PutUint32(buf[MaxLights*LightEntrySize:], uint32(d.Count))
	return buf
}

// CameraData is the value fed to UniformCamData.
type CameraData struct {
	Position  [3]float32
	Direction [3]float32
	Far       float32
}

// Marshal packs the camera data as two vec4 (position, far) and (direction, 0).
func (c CameraData) Marshal() []byte {
	buf := make([]byte, 32)
	vals := [8]float32{c.Position[0], c.Position[1], c.Position[2], c.Far, c.Direction[0], c.Direction[1], c.Direction[2], 0}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
