// Package texture describes GPU images independent of any backend: sampled textures, pass-owned
// render targets, depth textures, cube maps and the framebuffers that group them.
//
// Every type carries a generation counter. A renderer compares it against the generation it last
// uploaded and only touches device storage when the two differ.
package texture

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// ErrInvalidSize is returned when pixel data does not match the declared texture size.
var ErrInvalidSize = errors.New("texture: invalid size")

// Settings controls the storage format and sampling of a texture.
type Settings struct {
	// Format is the storage format. Backends pick the closest format they support.
	Format gputypes.TextureFormat
	// MinFilter and MagFilter select nearest or linear filtering.
	MinFilter, MagFilter gputypes.FilterMode
	// WrapS and WrapT select clamp or repeat addressing along u and v.
	WrapS, WrapT gputypes.AddressMode
	// GenerateMipMap requests a mip chain for sampled textures.
	GenerateMipMap bool
	// Layers is the array layer count; 0 and 1 both mean a plain 2D texture.
	Layers int
}

// DefaultSettings returns linear-filtered, edge-clamped RGBA8 settings.
func DefaultSettings() Settings {
	return Settings{
		Format:    gputypes.TextureFormatRGBA8Unorm,
		MinFilter: gputypes.FilterModeLinear,
		MagFilter: gputypes.FilterModeLinear,
		WrapS:     gputypes.AddressModeClampToEdge,
		WrapT:     gputypes.AddressModeClampToEdge,
		Layers:    1,
	}
}

// LayerCount returns the number of array layers, at least 1.
func (s Settings) LayerCount() int {
	if s.Layers < 1 {
		return 1
	}
	return s.Layers
}

// Texture is a sampled 2D image. Pixels, when present, hold RGBA float data in row-major order,
// layer after layer, and are uploaded the next time the texture is bound.
type Texture struct {
	Name       string
	Width      int
	Height     int
	Settings   Settings
	Pixels     []float32
	generation uint64
}

// NewTexture creates a texture description without pixel data.
//
// Parameters:
//   - name: a debug name
//   - width, height: size in pixels
//   - settings: format and sampling
//
// Returns:
//   - *Texture: the texture
func NewTexture(name string, width, height int, settings Settings) *Texture {
	return &Texture{Name: name, Width: width, Height: height, Settings: settings, generation: 1}
}

// FromImage converts an image into an RGBA texture with values in [0, 1].
//
// Parameters:
//   - name: a debug name
//   - img: the source image
//   - settings: format and sampling
//
// Returns:
//   - *Texture: the texture holding the converted pixels
//   - error: ErrInvalidSize when the image is empty
func FromImage(name string, img image.Image, settings Settings) (*Texture, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("texture %q from image %v: %w", name, b, ErrInvalidSize)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(rgba, image.Point{}, img, b, draw.Src, nil)

	pixels := make([]float32, len(rgba.Pix))
	for i, v := range rgba.Pix {
		pixels[i] = float32(v) / 255
	}
	t := NewTexture(name, b.Dx(), b.Dy(), settings)
	t.Pixels = pixels
	return t, nil
}

// Generation returns the change counter of the texture.
func (t *Texture) Generation() uint64 {
	return t.generation
}

// SetPixels replaces the pixel data, resizing the texture.
//
// Parameters:
//   - width, height: the new size
//   - rgba: width*height*layers*4 floats
//
// Returns:
//   - error: ErrInvalidSize when the slice length does not match
func (t *Texture) SetPixels(width, height int, rgba []float32) error {
	want := width * height * t.Settings.LayerCount() * 4
	if width <= 0 || height <= 0 || len(rgba) != want {
		return fmt.Errorf("texture %q: %dx%d needs %d floats, got %d: %w", t.Name, width, height, want, len(rgba), ErrInvalidSize)
	}
	t.Width, t.Height = width, height
	t.Pixels = rgba
	t.generation++
	return nil
}

// Invalidate forces a re-upload on the next bind.
func (t *Texture) Invalidate() {
	t.generation++
}

// RenderTarget is a texture whose contents are produced by a pass. The pass owns it and resizes
// it through ReconstructIfNeeded.
type RenderTarget struct {
	Texture
}

// NewRenderTarget creates a render target of the given size.
func NewRenderTarget(name string, width, height int, settings Settings) *RenderTarget {
	return &RenderTarget{Texture: Texture{Name: name, Width: width, Height: height, Settings: settings, generation: 1}}
}

// ReconstructIfNeeded resizes the target when the size differs from the current one.
// Calling it with unchanged dimensions does nothing.
//
// Parameters:
//   - width, height: the requested size
//
// Returns:
//   - bool: true when storage was invalidated
func (rt *RenderTarget) ReconstructIfNeeded(width, height int) bool {
	if rt.Width == width && rt.Height == height {
		return false
	}
	rt.Width, rt.Height = width, height
	rt.Pixels = nil
	rt.generation++
	return true
}

// Reconstruct replaces size and settings unconditionally.
func (rt *RenderTarget) Reconstruct(width, height int, settings Settings) {
	rt.Width, rt.Height = width, height
	rt.Settings = settings
	rt.Pixels = nil
	rt.generation++
}

// DepthTexture is depth (and optionally stencil) storage attached to a framebuffer.
type DepthTexture struct {
	Texture
}

// NewDepthTexture creates a depth texture. Stencil selects Depth24PlusStencil8 over Depth32Float.
func NewDepthTexture(name string, width, height int, stencil bool) *DepthTexture {
	s := Settings{
		Format:    gputypes.TextureFormatDepth32Float,
		MinFilter: gputypes.FilterModeNearest,
		MagFilter: gputypes.FilterModeNearest,
		WrapS:     gputypes.AddressModeClampToEdge,
		WrapT:     gputypes.AddressModeClampToEdge,
		Layers:    1,
	}
	if stencil {
		s.Format = gputypes.TextureFormatDepth24PlusStencil8
	}
	return &DepthTexture{Texture: Texture{Name: name, Width: width, Height: height, Settings: s, generation: 1}}
}

// ReconstructIfNeeded resizes the depth storage when the size changed.
func (d *DepthTexture) ReconstructIfNeeded(width, height int) bool {
	if d.Width == width && d.Height == height {
		return false
	}
	d.Width, d.Height = width, height
	d.generation++
	return true
}

// CubeFace indexes the six faces of a cube map in +X, -X, +Y, -Y, +Z, -Z order.
type CubeFace int

const (
	// CubeFacePosX is the +X face.
	CubeFacePosX CubeFace = iota
	// CubeFaceNegX is the -X face.
	CubeFaceNegX
	// CubeFacePosY is the +Y face.
	CubeFacePosY
	// CubeFaceNegY is the -Y face.
	CubeFaceNegY
	// CubeFacePosZ is the +Z face.
	CubeFacePosZ
	// CubeFaceNegZ is the -Z face.
	CubeFaceNegZ
)

// CubeMap is a six layer texture sampled by direction.
type CubeMap struct {
	Texture
}

// NewCubeMap creates a cube map with square faces of the given size.
func NewCubeMap(name string, size int, settings Settings) *CubeMap {
	settings.Layers = 6
	return &CubeMap{Texture: Texture{Name: name, Width: size, Height: size, Settings: settings, generation: 1}}
}

// SetFace copies one face of RGBA float data into the cube map, allocating storage on first use.
//
// Returns:
//   - error: ErrInvalidSize when the face data has the wrong length
func (c *CubeMap) SetFace(face CubeFace, rgba []float32) error {
	faceLen := c.Width * c.Height * 4
	if len(rgba) != faceLen || face < CubeFacePosX || face > CubeFaceNegZ {
		return fmt.Errorf("cubemap %q face %d: need %d floats, got %d: %w", c.Name, face, faceLen, len(rgba), ErrInvalidSize)
	}
	if len(c.Pixels) != faceLen*6 {
		c.Pixels = make([]float32, faceLen*6)
	}
	copy(c.Pixels[int(face)*faceLen:], rgba)
	c.generation++
	return nil
}
