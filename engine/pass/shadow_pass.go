package pass

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/renderjob"
	"github.com/gogpu/gputypes"
)

const (
	// DefaultShadowAtlasSize is the width and height of one atlas layer.
	DefaultShadowAtlasSize = 4096
	// MaxShadowAtlasLayers bounds the atlas array.
	MaxShadowAtlasLayers = 256
)

// ShadowParams configures the shadow pass.
type ShadowParams struct {
	// Lights are the lights of the frame. Only enabled, shadow casting lights with a ready shadow
	// camera are drawn.
	Lights []light.Light
	// Casters are the shadow casting jobs. The pass culls its own copy per light.
	Casters []renderjob.RenderJob
	// AtlasSize is the layer size in texels. Zero uses DefaultShadowAtlasSize.
	AtlasSize int
}

// atlasKey identifies one light's claim on the atlas.
type atlasKey struct {
	light      light.Light
	lightType  light.LightType
	resolution int
}

// shadowDraw is one viewport of one atlas layer.
type shadowDraw struct {
	light light.Light
	face  int
	p     light.AtlasPlacement
}

// shelf is a row of equally tall regions within a page.
type shelf struct {
	y, height, cursor int
}

// atlasPage is a group of layers packed together, one layer for spot and directional lights and
// six for point lights.
type atlasPage struct {
	layer   int
	layers  int
	shelves []shelf
}

type shadowPass struct {
	r           renderer.Renderer
	params      ShadowParams
	atlas       *texture.RenderTarget
	framebuffer *texture.Framebuffer

	keys      []atlasKey
	atlasSize int
	layers    int
	placed    int
	draws     [][]shadowDraw
	scratch   []renderjob.RenderJob
	rebuilds  int
}

// ShadowPass renders the depth of shadow casters from every shadow casting light into regions of
// a layered atlas. Regions are packed on shelves and only repacked when the set of lights, their
// types or their resolutions change.
type ShadowPass interface {
	Pass
	Params() ShadowParams
	SetParams(p ShadowParams)

	// ShadowAtlas returns the atlas, or nil when no light holds a region.
	ShadowAtlas() *texture.RenderTarget
}

var _ ShadowPass = &shadowPass{}

// NewShadowPass creates a shadow pass drawing through r.
func NewShadowPass(r renderer.Renderer) ShadowPass {
	return &shadowPass{
		r:           r,
		framebuffer: texture.NewFramebuffer("shadow_atlas"),
	}
}

func (p *shadowPass) Params() ShadowParams {
	return p.params
}

func (p *shadowPass) SetParams(params ShadowParams) {
	p.params = params
}

func (p *shadowPass) ShadowAtlas() *texture.RenderTarget {
	if p.placed == 0 {
		return nil
	}
	return p.atlas
}

// shadowLights returns the lights the pass draws this frame.
func shadowLights(lights []light.Light) []light.Light {
	out := light.ShadowCasting(lights)
	return slices.DeleteFunc(out, func(l light.Light) bool { return !l.ShadowReady() })
}

func (p *shadowPass) PreRender() {
	p.r.SetShadowAtlas(nil)

	size := p.params.AtlasSize
	if size <= 0 {
		size = DefaultShadowAtlasSize
	}
	lights := shadowLights(p.params.Lights)
	keys := make([]atlasKey, len(lights))
	for i, l := range lights {
		keys[i] = atlasKey{light: l, lightType: l.Type(), resolution: l.ShadowResolution()}
	}
	if size != p.atlasSize || !slices.Equal(keys, p.keys) {
		p.rebuild(keys, size)
	}
}

// rebuild repacks every light into the atlas and reallocates it.
func (p *shadowPass) rebuild(keys []atlasKey, size int) {
	for _, k := range p.keys {
		k.light.ClearAtlasPlacement()
	}
	p.keys, p.atlasSize = keys, size
	p.rebuilds++

	var pages []*atlasPage
	next, placed := 0, 0
	for _, k := range keys {
		res := k.resolution
		if res <= 0 {
			res = light.DefaultShadowResolution
		}
		res = min(res, size)
		layers := light.LayerCount(k.lightType)

		var x, y int
		var page *atlasPage
		for _, pg := range pages {
			if pg.layers != layers {
				continue
			}
			var ok bool
			if x, y, ok = pg.insert(res, size); ok {
				page = pg
				break
			}
		}
		if page == nil {
			if next+layers > MaxShadowAtlasLayers {
				k.light.ClearAtlasPlacement()
				logger.Logger().Warn("shadow atlas full, light rendered unshadowed",
					"light", k.lightType.String(), "resolution", res)
				continue
			}
			page = &atlasPage{layer: next, layers: layers}
			next += layers
			pages = append(pages, page)
			x, y, _ = page.insert(res, size)
		}
		k.light.SetAtlasPlacement(light.AtlasPlacement{Layer: page.layer, X: x, Y: y, Resolution: res})
		placed++
	}

	p.layers, p.placed = next, placed
	if placed == 0 {
		p.draws = nil
		return
	}
	settings := targetSettings(gputypes.TextureFormatR32Float, gputypes.FilterModeNearest)
	settings.Layers = max(next, 1)
	if p.atlas == nil {
		p.atlas = texture.NewRenderTarget("shadow_atlas", size, size, settings)
	} else {
		fitTarget(p.atlas, size, size, settings)
	}
	if !p.framebuffer.Initialized() {
		p.framebuffer.Init(texture.FramebufferSettings{Width: size, Height: size, UseDefaultDepth: true})
	}
	p.framebuffer.ReconstructIfNeeded(size, size)

	p.draws = make([][]shadowDraw, next)
	for _, k := range keys {
		pl, ok := k.light.AtlasPlacement()
		if !ok {
			continue
		}
		for face := range light.LayerCount(k.lightType) {
			p.draws[pl.Layer+face] = append(p.draws[pl.Layer+face], shadowDraw{light: k.light, face: face, p: pl})
		}
	}
	logger.Logger().Debug("shadow atlas packed", "size", size, "layers", next, "lights", placed)
}

// insert claims a res x res region on the first shelf that fits, opening a shelf when none does.
//
// Returns:
//   - int, int: the region's top left corner
//   - bool: false when the page is full
func (pg *atlasPage) insert(res, size int) (int, int, bool) {
	for i := range pg.shelves {
		s := &pg.shelves[i]
		if res <= s.height && s.cursor+res <= size {
			x := s.cursor
			s.cursor += res
			return x, s.y, true
		}
	}
	y := 0
	if n := len(pg.shelves); n > 0 {
		last := pg.shelves[n-1]
		y = last.y + last.height
	}
	if y+res > size {
		return 0, 0, false
	}
	pg.shelves = append(pg.shelves, shelf{y: y, height: res, cursor: res})
	return 0, y, true
}

func (p *shadowPass) Render() {
	if p.placed == 0 {
		return
	}
	p.r.EnableDepthTest(true)
	for layer, draws := range p.draws {
		if len(draws) == 0 {
			continue
		}
		p.framebuffer.SetAttachmentLayer(texture.ColorAttachment0, p.atlas, layer)
		p.r.SetFramebuffer(p.framebuffer, true, [4]float32{1, 1, 1, 1})
		for _, d := range draws {
			p.drawLight(d)
		}
	}
}

// drawLight renders the casters visible to one light, or one cube face of a point light, into its
// region of the bound layer.
func (p *shadowPass) drawLight(d shadowDraw) {
	cam := d.light.ShadowCamera()
	if d.light.Type() == light.LightTypePoint {
		pos := d.light.Position()
		basis := common.CubeFaceBasis[d.face]
		cam.LookAt(common.Add3(pos, basis[0]), basis[1])
	}
	p.r.SetViewport(d.p.X, d.p.Y, d.p.Resolution, d.p.Resolution)

	p.scratch = append(p.scratch[:0], p.params.Casters...)
	if renderjob.CullRenderJobsFlag(p.scratch, cam) == 0 {
		return
	}
	mat := d.light.ShadowMaterial()
	for i := range p.scratch {
		job := &p.scratch[i]
		if !job.Visible {
			continue
		}
		p.renderCaster(job, mat, cam)
	}
}

func (p *shadowPass) renderCaster(job *renderjob.RenderJob, mat material.Material, cam camera.Camera) {
	rs := job.Material.RenderState()
	rs.BlendFunction = material.BlendNone
	rs.DepthTestEnabled = true
	mat.SetRenderState(rs)
	p.r.SetOverrideMaterial(mat)
	p.r.Render(job, cam, nil)
}

func (p *shadowPass) PostRender() {
	p.r.SetOverrideMaterial(nil)
	if p.atlas != nil {
		p.framebuffer.SetAttachmentLayer(texture.ColorAttachment0, p.atlas, 0)
	}
}
