package wgpu_backend

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

type viewKey struct {
	dim   wgpu.TextureViewDimension
	layer int
}

// wgpuTexture is a device texture with lazily created views.
type wgpuTexture struct {
	settings texture.Settings
	format   wgpu.TextureFormat
	width    int
	height   int
	layers   int
	samples  uint32
	texture  *wgpu.Texture
	views    map[viewKey]*wgpu.TextureView
}

// nativeFormat picks the device format for a texture format. 32 bit float colour formats are
// stored as 16 bit floats so they stay filterable and blendable without optional features, and
// every depth format is stored as Depth32Float so it can be read back.
func nativeFormat(f gputypes.TextureFormat) wgpu.TextureFormat {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return wgpu.TextureFormatR8Unorm
	case gputypes.TextureFormatRG8Unorm:
		return wgpu.TextureFormatRG8Unorm
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case gputypes.TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return wgpu.TextureFormatBGRA8UnormSrgb
	case gputypes.TextureFormatR16Float, gputypes.TextureFormatR32Float:
		return wgpu.TextureFormatR16Float
	case gputypes.TextureFormatRG16Float, gputypes.TextureFormatRG32Float:
		return wgpu.TextureFormatRG16Float
	case gputypes.TextureFormatRGBA16Float, gputypes.TextureFormatRGBA32Float:
		return wgpu.TextureFormatRGBA16Float
	}
	if f.HasDepth() {
		return wgpu.TextureFormatDepth32Float
	}
	return wgpu.TextureFormatRGBA8Unorm
}

func isDepthFormat(f wgpu.TextureFormat) bool {
	return f == wgpu.TextureFormatDepth32Float
}

// texelSize returns the bytes per texel and the channel count of a native format.
func texelSize(f wgpu.TextureFormat) (bytes, channels int) {
	switch f {
	case wgpu.TextureFormatR8Unorm:
		return 1, 1
	case wgpu.TextureFormatRG8Unorm:
		return 2, 2
	case wgpu.TextureFormatR16Float:
		return 2, 1
	case wgpu.TextureFormatRG16Float:
		return 4, 2
	case wgpu.TextureFormatRGBA16Float:
		return 8, 4
	case wgpu.TextureFormatDepth32Float:
		return 4, 1
	}
	return 4, 4
}

// encodeTexels converts RGBA floats to the byte layout of a native format.
func encodeTexels(f wgpu.TextureFormat, rgba []float32) []byte {
	bpt, ch := texelSize(f)
	n := len(rgba) / 4
	out := make([]byte, n*bpt)
	for i := range n {
		px := rgba[i*4 : i*4+4]
		o := out[i*bpt:]
		switch f {
		case wgpu.TextureFormatR16Float, wgpu.TextureFormatRG16Float, wgpu.TextureFormatRGBA16Float:
			for c := range ch {
				binary.LittleEndian.PutUint16(o[c*2:], float32ToHalf(px[c]))
			}
		case wgpu.TextureFormatDepth32Float:
			binary.LittleEndian.PutUint32(o, math.Float32bits(px[0]))
		case wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb:
			o[0], o[1], o[2], o[3] = unorm8(px[2]), unorm8(px[1]), unorm8(px[0]), unorm8(px[3])
		default:
			for c := range ch {
				o[c] = unorm8(px[c])
			}
		}
	}
	return out
}

// decodeTexels converts rows of a native format back to RGBA floats. Missing colour channels
// read as 0 and a missing alpha as 1; depth is replicated into rgb.
func decodeTexels(f wgpu.TextureFormat, data []byte, width, height, rowPitch int) []float32 {
	bpt, ch := texelSize(f)
	out := make([]float32, width*height*4)
	for y := range height {
		row := data[y*rowPitch:]
		for x := range width {
			in := row[x*bpt:]
			px := out[(y*width+x)*4 : (y*width+x)*4+4]
			px[3] = 1
			switch f {
			case wgpu.TextureFormatR16Float, wgpu.TextureFormatRG16Float, wgpu.TextureFormatRGBA16Float:
				for c := range ch {
					px[c] = halfToFloat32(binary.LittleEndian.Uint16(in[c*2:]))
				}
			case wgpu.TextureFormatDepth32Float:
				d := math.Float32frombits(binary.LittleEndian.Uint32(in))
				px[0], px[1], px[2] = d, d, d
			case wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb:
				px[0], px[1], px[2], px[3] = float32(in[2])/255, float32(in[1])/255, float32(in[0])/255, float32(in[3])/255
			default:
				for c := range ch {
					px[c] = float32(in[c]) / 255
				}
			}
		}
	}
	return out
}

func unorm8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// float32ToHalf converts to IEEE 754 binary16, rounding half up.
func float32ToHalf(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & 0x8000
	exp := int32(b>>23&0xff) - 127 + 15
	mant := b & 0x7fffff
	switch {
	case b&0x7fffffff == 0:
		return sign
	case b&0x7f800000 == 0x7f800000:
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp >= 0x1f:
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		h := uint16(mant >> shift)
		if mant>>(shift-1)&1 != 0 {
			h++
		}
		return sign | h
	}
	h := sign | uint16(exp)<<10 | uint16(mant>>13)
	if mant&0x1000 != 0 {
		h++
	}
	return h
}

func halfToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)
	switch exp {
	case 0:
		f := float32(mant) / (1 << 24)
		if sign != 0 {
			f = -f
		}
		return f
	case 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	}
	return math.Float32frombits(sign | (exp+112)<<23 | mant<<13)
}

func (d *wgpuDevice) newTexture(label string, settings texture.Settings, width, height int, samples uint32) (*wgpuTexture, error) {
	return d.newTextureFormat(label, settings, nativeFormat(settings.Format), width, height, samples)
}

func (d *wgpuDevice) newTextureFormat(label string, settings texture.Settings, format wgpu.TextureFormat, width, height int, samples uint32) (*wgpuTexture, error) {
	t := &wgpuTexture{
		settings: settings,
		format:   format,
		width:    max(width, 1),
		height:   max(height, 1),
		layers:   settings.LayerCount(),
		samples:  max(samples, 1),
		views:    make(map[viewKey]*wgpu.TextureView),
	}
	usage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc
	if t.samples == 1 {
		usage |= wgpu.TextureUsageTextureBinding
		if !isDepthFormat(t.format) {
			usage |= wgpu.TextureUsageCopyDst
		}
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(t.width),
			Height:             uint32(t.height),
			DepthOrArrayLayers: uint32(t.layers),
		},
		MipLevelCount: 1,
		SampleCount:   t.samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        t.format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: create texture %q: %w", label, err)
	}
	t.texture = tex
	return t, nil
}

// view returns a view of one layer for attachment (layer >= 0), or of the whole texture with
// the given dimension for sampling (layer < 0).
func (t *wgpuTexture) view(dim wgpu.TextureViewDimension, layer int) (*wgpu.TextureView, error) {
	key := viewKey{dim: dim, layer: layer}
	if v, ok := t.views[key]; ok {
		return v, nil
	}
	desc := &wgpu.TextureViewDescriptor{
		Format:          t.format,
		Dimension:       dim,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: uint32(t.layers),
		Aspect:          wgpu.TextureAspectAll,
	}
	if layer >= 0 {
		desc.BaseArrayLayer = uint32(min(layer, t.layers-1))
		desc.ArrayLayerCount = 1
	} else if dim == wgpu.TextureViewDimension2D {
		desc.ArrayLayerCount = 1
	}
	v, err := t.texture.CreateView(desc)
	if err != nil {
		return nil, err
	}
	t.views[key] = v
	return v, nil
}

func (t *wgpuTexture) release() {
	for k, v := range t.views {
		v.Release()
		delete(t.views, k)
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

func (d *wgpuDevice) CreateTexture(settings texture.Settings, width, height int) renderer.TextureID {
	t, err := d.newTexture(fmt.Sprintf("texture %d", d.next+1), settings, width, height, 1)
	if err != nil {
		logger.Logger().Error("texture allocation failed", "error", err)
		return 0
	}
	id := renderer.TextureID(d.id())
	d.textures[id] = t
	return id
}

func (d *wgpuDevice) DeleteTexture(id renderer.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	d.endPass()
	d.dropTextureGroups()
	t.release()
	delete(d.textures, id)
	for i, s := range d.slots {
		if s == id {
			d.slots[i] = 0
		}
	}
}

func (d *wgpuDevice) WriteTexture(id renderer.TextureID, width, height int, rgba []float32) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	if t.width != width || t.height != height {
		logger.Logger().Warn("texture write size mismatch", "texture", id,
			"want", [2]int{t.width, t.height}, "got", [2]int{width, height})
		return
	}
	if isDepthFormat(t.format) {
		logger.Logger().Debug("depth textures cannot be written", "texture", id)
		return
	}
	layers := min(len(rgba)/(width*height*4), t.layers)
	if layers == 0 {
		return
	}
	bpt, _ := texelSize(t.format)
	data := encodeTexels(t.format, rgba[:width*height*4*layers])
	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width * bpt),
			RowsPerImage: uint32(height),
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: uint32(layers),
		},
	)
}

// ReadTexture submits the recorded work, copies one layer into a mappable buffer and waits for
// the device.
func (d *wgpuDevice) ReadTexture(id renderer.TextureID, layer int) (int, int, []float32) {
	t, ok := d.textures[id]
	if !ok || t.samples > 1 {
		return 0, 0, nil
	}
	layer = min(max(layer, 0), t.layers-1)
	bpt, _ := texelSize(t.format)
	rowPitch := (t.width*bpt + copyRowAlign - 1) / copyRowAlign * copyRowAlign
	size := uint64(rowPitch * t.height)

	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		logger.Logger().Error("readback buffer allocation failed", "error", err)
		return 0, 0, nil
	}
	defer buf.Release()

	aspect := wgpu.TextureAspectAll
	if isDepthFormat(t.format) {
		aspect = wgpu.TextureAspectDepthOnly
	}
	enc := d.encoderFor()
	d.endPass()
	enc.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{Z: uint32(layer)},
			Aspect:   aspect,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: buf,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(rowPitch),
				RowsPerImage: uint32(t.height),
			},
		},
		&wgpu.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1},
	)
	d.submit()

	var status wgpu.BufferMapAsyncStatus
	if err := buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	}); err != nil {
		logger.Logger().Error("readback map failed", "error", err)
		return 0, 0, nil
	}
	d.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		logger.Logger().Error("readback map failed", "status", status)
		return 0, 0, nil
	}
	data := buf.GetMappedRange(0, uint(size))
	out := decodeTexels(t.format, data, t.width, t.height, rowPitch)
	buf.Unmap()
	return t.width, t.height, out
}

func (d *wgpuDevice) BindTexture(slot int, id renderer.TextureID) {
	if slot < 0 || slot >= len(d.slots) {
		return
	}
	d.slots[slot] = id
}

// CopyTexture copies the first layer of src into dst when their sizes and formats match.
func (d *wgpuDevice) CopyTexture(src, dst renderer.TextureID) {
	s, okS := d.textures[src]
	t, okT := d.textures[dst]
	if !okS || !okT || s.width != t.width || s.height != t.height || s.format != t.format {
		return
	}
	enc := d.encoderFor()
	d.endPass()
	enc.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: s.texture, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyTexture{Texture: t.texture, Aspect: wgpu.TextureAspectAll},
		&wgpu.Extent3D{Width: uint32(s.width), Height: uint32(s.height), DepthOrArrayLayers: 1},
	)
}

type samplerKey struct {
	min, mag gputypes.FilterMode
	wrapS    gputypes.AddressMode
	wrapT    gputypes.AddressMode
}

func filterMode(f gputypes.FilterMode) wgpu.FilterMode {
	if f == gputypes.FilterModeNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func addressMode(m gputypes.AddressMode) wgpu.AddressMode {
	switch m {
	case gputypes.AddressModeRepeat:
		return wgpu.AddressModeRepeat
	case gputypes.AddressModeMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	}
	return wgpu.AddressModeClampToEdge
}

func (d *wgpuDevice) sampler(s texture.Settings) (*wgpu.Sampler, error) {
	key := samplerKey{min: s.MinFilter, mag: s.MagFilter, wrapS: s.WrapS, wrapT: s.WrapT}
	if smp, ok := d.samplers[key]; ok {
		return smp, nil
	}
	smp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "sampler",
		AddressModeU:  addressMode(s.WrapS),
		AddressModeV:  addressMode(s.WrapT),
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filterMode(s.MagFilter),
		MinFilter:     filterMode(s.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: create sampler: %w", err)
	}
	d.samplers[key] = smp
	return smp, nil
}

func viewDimension(dim shader.TextureDimension) wgpu.TextureViewDimension {
	switch dim {
	case shader.TextureDimension2DArray:
		return wgpu.TextureViewDimension2DArray
	case shader.TextureDimensionCube:
		return wgpu.TextureViewDimensionCube
	}
	return wgpu.TextureViewDimension2D
}

// dummy returns a transparent black texture to stand in for an unbound slot of the given
// dimension.
func (d *wgpuDevice) dummy(dim shader.TextureDimension) (*wgpuTexture, error) {
	if t, ok := d.dummies[dim]; ok {
		return t, nil
	}
	s := texture.DefaultSettings()
	switch dim {
	case shader.TextureDimensionCube:
		s.Layers = 6
	case shader.TextureDimension2DArray:
		s.Layers = 2
	case shader.TextureDimensionDepth2D:
		s.Format = gputypes.TextureFormatDepth32Float
	}
	t, err := d.newTexture("unbound", s, 1, 1, 1)
	if err != nil {
		return nil, err
	}
	d.dummies[dim] = t
	if isDepthFormat(t.format) {
		return t, nil
	}
	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: t.texture, Aspect: wgpu.TextureAspectAll},
		make([]byte, 4*t.layers),
		&wgpu.TextureDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: uint32(t.layers)},
	)
	return t, nil
}
