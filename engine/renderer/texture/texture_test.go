package texture

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTargetReconstructIsIdempotent(t *testing.T) {
	rt := NewRenderTarget("rt", 64, 32, DefaultSettings())
	gen := rt.Generation()

	assert.False(t, rt.ReconstructIfNeeded(64, 32))
	assert.Equal(t, gen, rt.Generation())

	assert.True(t, rt.ReconstructIfNeeded(128, 32))
	assert.Equal(t, gen+1, rt.Generation())
	assert.False(t, rt.ReconstructIfNeeded(128, 32))
	assert.Equal(t, gen+1, rt.Generation())
}

func TestFramebufferReconstructIsIdempotent(t *testing.T) {
	fb := NewFramebuffer("main")
	fb.Init(FramebufferSettings{UseDefaultDepth: true})
	assert.Equal(t, 1024, fb.Width())
	assert.Equal(t, 1024, fb.Height())
	require.NotNil(t, fb.DepthTexture())
	depth := fb.DepthTexture()

	gen := fb.Generation()
	assert.False(t, fb.ReconstructIfNeeded(1024, 1024))
	assert.Equal(t, gen, fb.Generation())

	assert.True(t, fb.ReconstructIfNeeded(640, 480))
	assert.Same(t, depth, fb.DepthTexture())
	assert.Equal(t, 640, fb.DepthTexture().Width)
	assert.False(t, fb.ReconstructIfNeeded(640, 480))
}

func TestSetAttachmentReturnsOldAndResizes(t *testing.T) {
	fb := NewFramebuffer("gbuffer")
	fb.Init(FramebufferSettings{Width: 8, Height: 8})
	a := NewRenderTarget("a", 32, 16, DefaultSettings())
	b := NewRenderTarget("b", 32, 16, DefaultSettings())

	assert.Nil(t, fb.SetAttachment(ColorAttachment1, a))
	assert.Equal(t, 32, fb.Width())
	assert.Same(t, a, fb.SetAttachment(ColorAttachment1, b))
	assert.Equal(t, []Attachment{ColorAttachment1}, fb.ColorAttachments())
	assert.Same(t, b, fb.DetachAttachment(ColorAttachment1))
	assert.Empty(t, fb.ColorAttachments())
	assert.Panics(t, func() { fb.SetAttachment(DepthAttachment, a) })
}

func TestSetPixelsValidatesSize(t *testing.T) {
	tex := NewTexture("t", 2, 2, DefaultSettings())
	err := tex.SetPixels(2, 2, make([]float32, 15))
	assert.ErrorIs(t, err, ErrInvalidSize)
	require.NoError(t, tex.SetPixels(2, 2, make([]float32, 16)))
}

func TestFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(1, 0, color.NRGBA{R: 255, A: 255})
	tex, err := FromImage("img", img, DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 2, tex.Width)
	assert.InDeltaSlice(t, []float32{1, 0, 0, 1}, tex.Pixels[4:8], 1e-6)

	_, err = FromImage("empty", image.NewRGBA(image.Rectangle{}), DefaultSettings())
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestCubeMapFaces(t *testing.T) {
	c := NewCubeMap("sky", 1, Settings{Format: gputypes.TextureFormatRGBA16Float})
	assert.Equal(t, 6, c.Settings.LayerCount())
	require.NoError(t, c.SetFace(CubeFaceNegY, []float32{0.1, 0.2, 0.3, 1}))
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3, 1}, c.Pixels[12:16], 1e-6)
	assert.ErrorIs(t, c.SetFace(CubeFacePosX, []float32{1}), ErrInvalidSize)
}

func TestCubeFaceUVRoundTrip(t *testing.T) {
	dirs := [][3]float32{{1, 0.2, -0.3}, {-1, 0.5, 0.5}, {0.1, 1, 0.4}, {0.3, -1, -0.2}, {-0.6, 0.1, 1}, {0.25, -0.5, -1}}
	for i, d := range dirs {
		face, u, v := CubeFaceUV(d)
		assert.Equal(t, CubeFace(i), face)
		back := CubeDirection(face, u, v)
		assert.InDeltaSlice(t, d[:], back[:], 1e-5)
	}
}

func TestCubeMapSampleNearest(t *testing.T) {
	c := NewCubeMap("sky", 2, DefaultSettings())
	for f := CubeFacePosX; f <= CubeFaceNegZ; f++ {
		px := make([]float32, 2*2*4)
		for i := 0; i < len(px); i += 4 {
			px[i] = float32(f)
			px[i+3] = 1
		}
		require.NoError(t, c.SetFace(f, px))
	}
	assert.Equal(t, float32(CubeFaceNegY), c.SampleNearest([3]float32{0, -3, 0.1})[0])
	assert.Equal(t, float32(CubeFacePosZ), c.SampleNearest([3]float32{0.2, 0.1, 5})[0])
	assert.Nil(t, NewCubeMap("empty", 2, DefaultSettings()).Face(CubeFacePosX))
}
