package wgpu_backend

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHalfFloatRoundTrip(t *testing.T) {
	for _, f := range []float32{0, 1, -1, 0.5, 0.25, 2, 1024, 65504, -0.125} {
		assert.Equal(t, f, halfToFloat32(float32ToHalf(f)), "value %v", f)
	}
	assert.InDelta(t, 0.1, halfToFloat32(float32ToHalf(0.1)), 1e-3)
	assert.InDelta(t, 6e-5, halfToFloat32(float32ToHalf(6e-5)), 1e-6, "subnormal")

	assert.Equal(t, uint16(0x3c00), float32ToHalf(1))
	assert.Equal(t, uint16(0x7c00), float32ToHalf(1e6), "overflow saturates to infinity")
	assert.True(t, math.IsInf(float64(halfToFloat32(0x7c00)), 1))
	assert.True(t, math.IsNaN(float64(halfToFloat32(float32ToHalf(float32(math.NaN()))))))
	assert.Equal(t, uint16(0), float32ToHalf(1e-10))
}

func TestNativeFormat(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, nativeFormat(gputypes.TextureFormatRGBA32Float))
	assert.Equal(t, wgpu.TextureFormatR16Float, nativeFormat(gputypes.TextureFormatR32Float))
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, nativeFormat(gputypes.TextureFormatRGBA8Unorm))
	assert.Equal(t, wgpu.TextureFormatDepth32Float, nativeFormat(gputypes.TextureFormatDepth24Plus))
	assert.Equal(t, wgpu.TextureFormatDepth32Float, nativeFormat(gputypes.TextureFormatDepth32Float))
	assert.True(t, isDepthFormat(nativeFormat(gputypes.TextureFormatDepth16Unorm)))
}

func TestTexelEncodingRoundTrip(t *testing.T) {
	rgba := []float32{0, 0.5, 1, 1, 0.25, 0.75, 0, 0.5}
	for _, f := range []wgpu.TextureFormat{
		wgpu.TextureFormatRGBA8Unorm,
		wgpu.TextureFormatBGRA8Unorm,
		wgpu.TextureFormatRGBA16Float,
	} {
		bpt, _ := texelSize(f)
		data := encodeTexels(f, rgba)
		require.Len(t, data, 2*bpt)
		got := decodeTexels(f, data, 2, 1, 2*bpt)
		for i := range rgba {
			assert.InDelta(t, rgba[i], got[i], 1.0/255, "format %v channel %d", f, i)
		}
	}

	data := encodeTexels(wgpu.TextureFormatBGRA8Unorm, []float32{1, 0, 0, 1})
	assert.Equal(t, []byte{0, 0, 255, 255}, data, "red is stored in the third byte")
}

func TestDecodeTexelsFillsMissingChannels(t *testing.T) {
	data := encodeTexels(wgpu.TextureFormatR16Float, []float32{0.5, 9, 9, 9})
	assert.Len(t, data, 2)
	assert.Equal(t, []float32{0.5, 0, 0, 1}, decodeTexels(wgpu.TextureFormatR16Float, data, 1, 1, 2))

	depth := make([]byte, 4)
	binary.LittleEndian.PutUint32(depth, math.Float32bits(0.75))
	assert.Equal(t, []float32{0.75, 0.75, 0.75, 1}, decodeTexels(wgpu.TextureFormatDepth32Float, depth, 1, 1, 4))
}

func TestDecodeTexelsHonoursRowPitch(t *testing.T) {
	row := make([]byte, copyRowAlign)
	rows := append(append([]byte(nil), row...), row...)
	rows[copyRowAlign] = 255
	got := decodeTexels(wgpu.TextureFormatRGBA8Unorm, rows, 1, 2, copyRowAlign)
	assert.Equal(t, float32(0), got[0])
	assert.Equal(t, float32(1), got[4], "second row starts after the padded pitch")
}

func TestEncodeUniform(t *testing.T) {
	f32 := func(b []byte, i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])) }

	b := encodeUniform("f32", float32(2.5))
	require.Len(t, b, 4)
	assert.Equal(t, float32(2.5), f32(b, 0))

	b = encodeUniform("i32", int32(-3))
	assert.Equal(t, int32(-3), int32(binary.LittleEndian.Uint32(b)))

	b = encodeUniform("i32", true)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b))

	b = encodeUniform("f32", int32(4))
	assert.Equal(t, float32(4), f32(b, 0), "integers are converted for float members")

	b = encodeUniform("vec4<f32>", [3]float32{1, 2, 3})
	require.Len(t, b, 16)
	assert.Equal(t, float32(1), f32(b, 3), "w defaults to 1")

	m := [16]float32{}
	m[12] = 7
	b = encodeUniform("mat4x4<f32>", m)
	require.Len(t, b, 64)
	assert.Equal(t, float32(7), f32(b, 12))

	cam := shader.CameraData{Position: [3]float32{1, 2, 3}, Far: 50}
	assert.Equal(t, cam.Marshal(), encodeUniform("CameraData", cam))
	lights := &shader.LightData{Count: 1}
	assert.Equal(t, lights.Marshal(), encodeUniform("LightData", lights))

	assert.Nil(t, encodeUniform("f32", "nope"))
}

func TestBuildLocationsSharesNamesAcrossStages(t *testing.T) {
	vs := &uniformBlock{binding: vertexUniformBinding, layout: shader.UniformLayout{
		Members: []shader.UniformMember{{Name: "model", Type: "mat4x4<f32>", Size: 64}, {Name: "time", Type: "f32", Offset: 64, Size: 4}},
		Size:    80,
	}}
	fs := &uniformBlock{binding: fragmentUniformBinding, layout: shader.UniformLayout{
		Members: []shader.UniformMember{{Name: "color", Type: "vec4<f32>", Size: 16}, {Name: "time", Type: "f32", Offset: 16, Size: 4}},
		Size:    32,
	}}
	locations, refs := buildLocations([]*uniformBlock{vs, fs})
	require.Len(t, refs, 3)
	assert.Len(t, refs[locations["time"]], 2)
	assert.Len(t, refs[locations["color"]], 1)
	assert.Equal(t, 1, refs[locations["color"]][0].block)
}

func TestSetUniformWritesEveryStage(t *testing.T) {
	vs := &uniformBlock{layout: shader.UniformLayout{
		Members: []shader.UniformMember{{Name: "time", Type: "f32", Offset: 4, Size: 4}},
		Size:    16,
	}}
	fs := &uniformBlock{layout: shader.UniformLayout{
		Members: []shader.UniformMember{{Name: "time", Type: "f32", Offset: 0, Size: 4}, {Name: "tint", Type: "vec3<f32>", Offset: 16, Size: 12}},
		Size:    32,
	}}
	vs.data, fs.data = make([]byte, 16), make([]byte, 32)
	p := &wgpuProgram{blocks: []*uniformBlock{vs, fs}}
	p.locations, p.refs = buildLocations(p.blocks)
	d := &wgpuDevice{program: p}

	d.SetUniform(p.locations["time"], float32(3))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(vs.data[4:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(fs.data[0:])))

	d.SetUniform(p.locations["tint"], [4]float32{1, 1, 1, 9})
	assert.Len(t, fs.data, 32, "values larger than the member are truncated")
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(fs.data[24:])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(fs.data[28:]))

	d.SetUniform(-1, float32(1))
	d.SetUniform(99, float32(1))
}

func TestMergeTextureBindings(t *testing.T) {
	got := mergeTextureBindings(
		[]shader.TextureBinding{{Slot: 1, Name: "a"}},
		[]shader.TextureBinding{{Slot: 1, Name: "b"}, {Slot: 6, Dimension: shader.TextureDimensionCube}},
	)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, 6, got[1].Slot)

	entries := textureLayoutEntries(got)
	require.Len(t, entries, 4)
	assert.Equal(t, uint32(12), entries[2].Binding)
	assert.Equal(t, uint32(13), entries[3].Binding)
	assert.Equal(t, wgpu.TextureViewDimensionCube, entries[2].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entries[3].Sampler.Type)
}

func TestSampleableRejectsUnusableTextures(t *testing.T) {
	d := &wgpuDevice{}
	color := &wgpuTexture{format: wgpu.TextureFormatRGBA8Unorm, width: 4, height: 4, layers: 1, samples: 1}
	cube := &wgpuTexture{format: wgpu.TextureFormatRGBA8Unorm, width: 4, height: 4, layers: 6, samples: 1}
	depth := &wgpuTexture{format: wgpu.TextureFormatDepth32Float, width: 4, height: 4, layers: 1, samples: 1}

	assert.True(t, d.sampleable(color, 1, shader.TextureDimension2D))
	assert.False(t, d.sampleable(color, 1, shader.TextureDimensionCube))
	assert.True(t, d.sampleable(cube, 2, shader.TextureDimensionCube))
	assert.False(t, d.sampleable(depth, 3, shader.TextureDimension2D))
	assert.True(t, d.sampleable(depth, 3, shader.TextureDimensionDepth2D))
	assert.False(t, d.sampleable(nil, 0, shader.TextureDimension2D))

	d.targets.attached = map[renderer.TextureID]bool{1: true}
	assert.False(t, d.sampleable(color, 1, shader.TextureDimension2D), "a texture cannot be read while it is rendered to")
}

func TestClampViewport(t *testing.T) {
	x, y, w, h, ok := clampViewport([4]int{-2, 3, 10, 100}, 6, 8)
	require.True(t, ok)
	assert.Equal(t, [4]int{0, 3, 6, 5}, [4]int{x, y, w, h})

	_, _, _, _, ok = clampViewport([4]int{8, 0, 4, 4}, 6, 8)
	assert.False(t, ok)
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), alignUp(0, uniformAlign))
	assert.Equal(t, uint64(256), alignUp(1, uniformAlign))
	assert.Equal(t, uint64(512), alignUp(257, uniformAlign))
}

func TestUniformFootprintAlignsEveryBlock(t *testing.T) {
	p := &wgpuProgram{blocks: []*uniformBlock{{data: make([]byte, 16)}, {data: make([]byte, 300)}}}
	assert.Equal(t, uint64(256+512), uniformFootprint(p))
}

func TestPushUniformsRejectsBlocksLargerThanRing(t *testing.T) {
	var buf bytes.Buffer
	logger.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer logger.SetLogger(nil)

	p := &wgpuProgram{name: "huge", blocks: []*uniformBlock{{data: make([]byte, uniformRingSize+1)}}}
	d := &wgpuDevice{program: p, ringOffset: 512}

	offsets, ok := d.pushUniforms(p)
	assert.False(t, ok)
	assert.Nil(t, offsets)
	assert.Equal(t, uint64(512), d.ringOffset, "the ring is left untouched")
	assert.Contains(t, buf.String(), "uniform blocks exceed the ring")
	assert.Contains(t, buf.String(), "program=huge")
}

func TestPipelineStateConversions(t *testing.T) {
	assert.Nil(t, blendState(material.BlendNone))
	assert.Nil(t, blendState(material.BlendAlphaMask))
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, blendState(material.BlendAlpha).Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOne, blendState(material.BlendOneToOne).Color.DstFactor)

	assert.Equal(t, wgpu.CompareFunctionLess, compareFunction(gputypes.CompareFunctionUndefined))
	assert.Equal(t, wgpu.CompareFunctionLessEqual, compareFunction(gputypes.CompareFunctionLessEqual))
	assert.Equal(t, wgpu.CullModeNone, cullMode(gputypes.CullModeNone))
	assert.Equal(t, wgpu.PrimitiveTopologyLineStrip, primitiveTopology(gputypes.PrimitiveTopologyLineStrip))
	assert.True(t, isStrip(gputypes.PrimitiveTopologyTriangleStrip))
	assert.False(t, isStrip(gputypes.PrimitiveTopologyTriangleList))
}

func TestDeviceBuilderOptions(t *testing.T) {
	cfg := deviceConfig{width: 1, height: 1, sampleCount: MSAAOff}
	for _, opt := range []DeviceBuilderOption{
		WithWindowSize(640, 480),
		WithPresentMode(PresentModeVSync),
		WithMSAA(MSAA4x),
		WithForceFallbackAdapter(true),
	} {
		opt(&cfg)
	}
	assert.Equal(t, 640, cfg.width)
	assert.Equal(t, 480, cfg.height)
	assert.Equal(t, PresentModeVSync, cfg.presentMode)
	assert.Equal(t, MSAA4x, cfg.sampleCount)
	assert.True(t, cfg.forceFallbackAdapter)

	WithMSAA(8)(&cfg)
	assert.Equal(t, MSAAOff, cfg.sampleCount)
	WithWindowSize(0, 10)(&cfg)
	assert.Equal(t, 640, cfg.width, "non-positive sizes are ignored")

	assert.Equal(t, wgpu.PresentModeFifo, nativePresentMode(PresentModeVSync))
	assert.Equal(t, wgpu.PresentModeMailbox, nativePresentMode(PresentModeTripleBuffered))
	assert.Equal(t, wgpu.PresentModeImmediate, nativePresentMode(PresentModeUncapped))
}
