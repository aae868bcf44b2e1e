package soft_backend

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
)

// softTexture is float RGBA storage, layer after layer. Depth formats keep depth in the red
// channel.
type softTexture struct {
	settings texture.Settings
	width    int
	height   int
	layers   int
	data     []float32
}

func newSoftTexture(settings texture.Settings, width, height int) *softTexture {
	width, height = max(width, 1), max(height, 1)
	layers := settings.LayerCount()
	return &softTexture{
		settings: settings,
		width:    width,
		height:   height,
		layers:   layers,
		data:     make([]float32, width*height*4*layers),
	}
}

func (t *softTexture) layerLen() int {
	return t.width * t.height * 4
}

func (t *softTexture) layer(l int) []float32 {
	l = min(max(l, 0), t.layers-1)
	n := t.layerLen()
	return t.data[l*n : (l+1)*n]
}

func (t *softTexture) isDepth() bool {
	return t.settings.Format.HasDepth()
}

// clamps reports whether stored values are limited to [0, 1].
func (t *softTexture) clamps() bool {
	switch t.settings.Format {
	case gputypes.TextureFormatR8Unorm,
		gputypes.TextureFormatRG8Unorm,
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatBGRA8UnormSrgb:
		return true
	}
	return false
}

func (t *softTexture) fill(c [4]float32) {
	if t.clamps() {
		c = clamp4(c)
	}
	for i := 0; i < len(t.data); i += 4 {
		t.data[i], t.data[i+1], t.data[i+2], t.data[i+3] = c[0], c[1], c[2], c[3]
	}
}

func (t *softTexture) fillLayer(l int, c [4]float32) {
	if t.clamps() {
		c = clamp4(c)
	}
	px := t.layer(l)
	for i := 0; i < len(px); i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = c[0], c[1], c[2], c[3]
	}
}

func (t *softTexture) texel(layer []float32, x, y int) [4]float32 {
	i := (y*t.width + x) * 4
	return [4]float32{layer[i], layer[i+1], layer[i+2], layer[i+3]}
}

// sample filters one layer at uv with the texture's mag filter and wrap modes.
func (t *softTexture) sample(uv [2]float32, l int) [4]float32 {
	px := t.layer(l)
	if t.settings.MagFilter != gputypes.FilterModeLinear {
		x := wrap(int(math32.Floor(uv[0]*float32(t.width))), t.width, t.settings.WrapS)
		y := wrap(int(math32.Floor(uv[1]*float32(t.height))), t.height, t.settings.WrapT)
		return t.texel(px, x, y)
	}

	fx := uv[0]*float32(t.width) - 0.5
	fy := uv[1]*float32(t.height) - 0.5
	x0f, y0f := math32.Floor(fx), math32.Floor(fy)
	tx, ty := fx-x0f, fy-y0f
	x0, y0 := int(x0f), int(y0f)
	xa, xb := wrap(x0, t.width, t.settings.WrapS), wrap(x0+1, t.width, t.settings.WrapS)
	ya, yb := wrap(y0, t.height, t.settings.WrapT), wrap(y0+1, t.height, t.settings.WrapT)

	c00, c10 := t.texel(px, xa, ya), t.texel(px, xb, ya)
	c01, c11 := t.texel(px, xa, yb), t.texel(px, xb, yb)
	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*tx
		bottom := c01[i] + (c11[i]-c01[i])*tx
		out[i] = top + (bottom-top)*ty
	}
	return out
}

func wrap(i, n int, mode gputypes.AddressMode) int {
	switch mode {
	case gputypes.AddressModeRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case gputypes.AddressModeMirrorRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	}
	return min(max(i, 0), n-1)
}

func clamp4(c [4]float32) [4]float32 {
	for i := range c {
		c[i] = min(max(c[i], 0), 1)
	}
	return c
}
