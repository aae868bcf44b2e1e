package shader

// Kernels are the CPU counterparts of shader entry points. A device without a GPU runs them
// per vertex and per fragment; GPU devices ignore them and compile Source instead.

// MaxVaryings is the number of floats interpolated from vertices to fragments.
const MaxVaryings = 16

// MaxColorOutputs is the number of colour attachments a fragment kernel can write.
const MaxColorOutputs = 8

// Varying offsets written by the built-in vertex kernels.
const (
	VaryingWorldPos   = 0  // xyz
	VaryingNormal     = 3  // xyz, world space
	VaryingUV         = 6  // xy
	VaryingViewDepth  = 8  // positive distance along the view direction
	VaryingViewNormal = 9  // xyz, view space
	VaryingDirection  = 12 // xyz, sky lookup direction
	VaryingNDCDepth   = 15 // clip z / w
)

// Varyings are the per-vertex outputs interpolated across a primitive.
type Varyings [MaxVaryings]float32

// Vec3 reads three consecutive varyings.
func (v *Varyings) Vec3(at int) [3]float32 {
	return [3]float32{v[at], v[at+1], v[at+2]}
}

// SetVec3 writes three consecutive varyings.
func (v *Varyings) SetVec3(at int, x [3]float32) {
	v[at], v[at+1], v[at+2] = x[0], x[1], x[2]
}

// VertexIn is one mesh vertex as seen by a vertex kernel.
type VertexIn struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// FragmentOut holds one colour per attachment.
type FragmentOut [MaxColorOutputs][4]float32

// Bindings gives kernels read access to the uniforms and textures bound to the running program.
// Unset values read as zero.
type Bindings interface {
	Float(name string) float32
	Int(name string) int32
	Bool(name string) bool
	Vec2(name string) [2]float32
	Vec3(name string) [3]float32
	Vec4(name string) [4]float32
	Mat4(name string) [16]float32
	Value(name string) (any, bool)

	// Sample filters the texture bound to slot at uv using its sampler settings.
	Sample(slot int, uv [2]float32) [4]float32
	// SampleLayer samples one layer of an array texture.
	SampleLayer(slot int, uv [2]float32, layer int) [4]float32
	// SampleCube samples a cube map by direction.
	SampleCube(slot int, dir [3]float32) [4]float32
	// TextureSize returns the size of the texture bound to slot, or zero when empty.
	TextureSize(slot int) (int, int)
	// Bound reports whether a texture is bound to slot.
	Bound(slot int) bool
}

// VertexKernel transforms one vertex into clip space and fills the varyings.
type VertexKernel func(b Bindings, in VertexIn) (clip [4]float32, out Varyings)

// FragmentKernel shades one fragment. Returning keep == false discards it.
// fragCoord is the pixel centre in framebuffer coordinates.
type FragmentKernel func(b Bindings, in *Varyings, fragCoord [2]float32) (out FragmentOut, keep bool)

// LightDataOf reads UniformLightData from b, returning an empty list when it is missing.
func LightDataOf(b Bindings) *LightData {
	if v, ok := b.Value(UniformLightData.Name()); ok {
		if ld, ok := v.(*LightData); ok {
			return ld
		}
		if ld, ok := v.(LightData); ok {
			return &ld
		}
	}
	return &LightData{}
}

// CameraDataOf reads UniformCamData from b.
func CameraDataOf(b Bindings) CameraData {
	if v, ok := b.Value(UniformCamData.Name()); ok {
		if cd, ok := v.(CameraData); ok {
			return cd
		}
	}
	return CameraData{}
}
