package renderer

import (
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"golang.org/x/image/draw"
)

func (r *renderer) Snapshot(rt *texture.RenderTarget, width, height int) (*image.RGBA, error) {
	if rt == nil {
		return nil, fmt.Errorf("snapshot: %w", texture.ErrInvalidSize)
	}
	id := r.ensureTexture(&rt.Texture)
	w, h, px := r.device.ReadTexture(id, 0)
	if w <= 0 || h <= 0 || len(px) < w*h*4 {
		return nil, fmt.Errorf("snapshot %q: %w", rt.Name, texture.ErrInvalidSize)
	}

	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range w * h * 4 {
		src.Pix[i] = quantize(px[i])
	}
	if width <= 0 {
		width = w
	}
	if height <= 0 {
		height = h
	}
	if width == w && height == h {
		return src, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

func quantize(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
