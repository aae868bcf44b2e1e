package soft_backend

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
)

const (
	// minW is the smallest clip w a vertex may have after near plane clipping.
	minW = 1e-6
	// depthEpsilon absorbs rounding in z/w for geometry placed exactly on the near or far plane.
	depthEpsilon = 1e-5
)

type clipVertex struct {
	pos  [4]float32
	vary shader.Varyings
}

// screenVertex holds window coordinates and varyings divided by w.
type screenVertex struct {
	x, y, z float32
	invW    float32
	vary    shader.Varyings
}

// drawTarget is the resolved state of the bound framebuffer for one draw.
type drawTarget struct {
	colors   [texture.MaxColorAttachments]*softTexture
	colorPx  [texture.MaxColorAttachments][]float32
	depth    *softTexture
	depthPx  []float32
	bounds   [4]int // x0, y0, x1, y1, exclusive max
	viewport [4]float32
}

func (d *softDevice) target() (drawTarget, bool) {
	var t drawTarget
	f := d.bound()
	w, h := -1, -1
	fit := func(tex *softTexture) {
		if w < 0 || tex.width < w {
			w = tex.width
		}
		if h < 0 || tex.height < h {
			h = tex.height
		}
	}
	for i, a := range f.colors {
		if tex := d.textures[a.tex]; tex != nil {
			t.colors[i] = tex
			t.colorPx[i] = tex.layer(a.layer)
			fit(tex)
		}
	}
	if tex := d.textures[f.depth.tex]; tex != nil {
		t.depth = tex
		t.depthPx = tex.layer(f.depth.layer)
		fit(tex)
	}
	if w <= 0 || h <= 0 {
		return t, false
	}

	vx, vy, vw, vh := d.viewport[0], d.viewport[1], d.viewport[2], d.viewport[3]
	t.bounds = [4]int{max(vx, 0), max(vy, 0), min(vx+vw, w), min(vy+vh, h)}
	t.viewport = [4]float32{float32(vx), float32(vy), float32(vw), float32(vh)}
	return t, t.bounds[0] < t.bounds[2] && t.bounds[1] < t.bounds[3]
}

func (d *softDevice) DrawMesh(id renderer.MeshID, topology gputypes.PrimitiveTopology) {
	m, ok := d.meshes[id]
	if !ok || d.program == nil {
		return
	}
	t, ok := d.target()
	if !ok {
		return
	}
	b := bindings{d: d, p: d.program}

	verts := make([]clipVertex, len(m.vertices))
	for i, v := range m.vertices {
		pos, vary := d.program.vertex(b, shader.VertexIn{Position: v.Position, Normal: v.Normal, UV: v.UV})
		verts[i] = clipVertex{pos: pos, vary: vary}
	}
	at := func(i int) (clipVertex, bool) {
		if i >= len(m.indices) || int(m.indices[i]) >= len(verts) {
			return clipVertex{}, false
		}
		return verts[m.indices[i]], true
	}

	n := len(m.indices)
	switch topology {
	case gputypes.PrimitiveTopologyTriangleList, gputypes.PrimitiveTopologyTriangleStrip:
		strip := topology == gputypes.PrimitiveTopologyTriangleStrip
		step := 3
		if strip {
			step = 1
		}
		for i := 0; i+2 < n; i += step {
			a, okA := at(i)
			c1, okB := at(i + 1)
			c2, okC := at(i + 2)
			if !okA || !okB || !okC {
				continue
			}
			if strip && i%2 == 1 {
				c1, a = a, c1
			}
			d.drawTriangle(&t, b, a, c1, c2)
		}
	case gputypes.PrimitiveTopologyLineList, gputypes.PrimitiveTopologyLineStrip:
		step := 2
		if topology == gputypes.PrimitiveTopologyLineStrip {
			step = 1
		}
		for i := 0; i+1 < n; i += step {
			a, okA := at(i)
			c, okB := at(i + 1)
			if okA && okB {
				d.drawLine(&t, b, a, c)
			}
		}
	case gputypes.PrimitiveTopologyPointList:
		for i := range n {
			if v, ok := at(i); ok && v.pos[3] > minW && v.pos[2] >= 0 {
				s := t.toScreen(v)
				vary := s.vary
				for k := range vary {
					vary[k] /= s.invW
				}
				d.shade(&t, b, int(math32.Floor(s.x)), int(math32.Floor(s.y)), s.z, &vary)
			}
		}
	}
}

func (t *drawTarget) toScreen(v clipVertex) screenVertex {
	invW := 1 / v.pos[3]
	nx, ny, nz := v.pos[0]*invW, v.pos[1]*invW, v.pos[2]*invW
	s := screenVertex{
		x:    t.viewport[0] + (nx*0.5+0.5)*t.viewport[2],
		y:    t.viewport[1] + (0.5-ny*0.5)*t.viewport[3],
		z:    nz,
		invW: invW,
	}
	for i := range s.vary {
		s.vary[i] = v.vary[i] * invW
	}
	return s
}

// clipNear clips a polygon against the z >= 0 clip plane.
func clipNear(poly []clipVertex) []clipVertex {
	out := make([]clipVertex, 0, len(poly)+2)
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		da, db := a.pos[2], b.pos[2]
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			out = append(out, lerpClip(a, b, da/(da-db)))
		}
	}
	return out
}

func lerpClip(a, b clipVertex, t float32) clipVertex {
	var v clipVertex
	for i := range v.pos {
		v.pos[i] = a.pos[i] + (b.pos[i]-a.pos[i])*t
	}
	for i := range v.vary {
		v.vary[i] = a.vary[i] + (b.vary[i]-a.vary[i])*t
	}
	return v
}

func (d *softDevice) drawTriangle(t *drawTarget, b bindings, v0, v1, v2 clipVertex) {
	poly := []clipVertex{v0, v1, v2}
	if v0.pos[2] < 0 || v1.pos[2] < 0 || v2.pos[2] < 0 {
		poly = clipNear(poly)
	}
	for i := 1; i+1 < len(poly); i++ {
		d.rasterTriangle(t, b, poly[0], poly[i], poly[i+1])
	}
}

func edge(a, b *screenVertex, px, py float32) float32 {
	return (px-a.x)*(b.y-a.y) - (py-a.y)*(b.x-a.x)
}

// owns breaks ties for pixel centres exactly on an edge, so a pixel on an edge shared by two
// triangles is shaded once.
func owns(a, b *screenVertex) bool {
	dy := b.y - a.y
	return dy > 0 || (dy == 0 && b.x < a.x)
}

func inside(e float32, a, b *screenVertex) bool {
	return e > 0 || (e == 0 && owns(a, b))
}

func (d *softDevice) rasterTriangle(t *drawTarget, b bindings, c0, c1, c2 clipVertex) {
	if c0.pos[3] <= minW || c1.pos[3] <= minW || c2.pos[3] <= minW {
		return
	}
	s0, s1, s2 := t.toScreen(c0), t.toScreen(c1), t.toScreen(c2)

	// edge is positive for counter-clockwise winding in NDC, the front face.
	area := edge(&s0, &s1, s2.x, s2.y)
	if area == 0 {
		return
	}
	front := area > 0
	switch d.cullMode {
	case gputypes.CullModeBack:
		if !front {
			return
		}
	case gputypes.CullModeFront:
		if front {
			return
		}
	}
	if area < 0 {
		s1, s2 = s2, s1
		area = -area
	}
	d.triangles++

	x0 := max(int(math32.Floor(min(s0.x, s1.x, s2.x))), t.bounds[0])
	x1 := min(int(math32.Ceil(max(s0.x, s1.x, s2.x))), t.bounds[2]-1)
	y0 := max(int(math32.Floor(min(s0.y, s1.y, s2.y))), t.bounds[1])
	y1 := min(int(math32.Ceil(max(s0.y, s1.y, s2.y))), t.bounds[3]-1)

	var vary shader.Varyings
	for py := y0; py <= y1; py++ {
		cy := float32(py) + 0.5
		for px := x0; px <= x1; px++ {
			cx := float32(px) + 0.5
			e0 := edge(&s1, &s2, cx, cy)
			e1 := edge(&s2, &s0, cx, cy)
			e2 := edge(&s0, &s1, cx, cy)
			if !inside(e0, &s1, &s2) || !inside(e1, &s2, &s0) || !inside(e2, &s0, &s1) {
				continue
			}
			w0, w1, w2 := e0/area, e1/area, e2/area
			z := w0*s0.z + w1*s1.z + w2*s2.z
			invW := w0*s0.invW + w1*s1.invW + w2*s2.invW
			for i := range vary {
				vary[i] = (w0*s0.vary[i] + w1*s1.vary[i] + w2*s2.vary[i]) / invW
			}
			d.shade(t, b, px, py, z, &vary)
		}
	}
}

func (d *softDevice) drawLine(t *drawTarget, b bindings, c0, c1 clipVertex) {
	if c0.pos[2] < 0 || c1.pos[2] < 0 {
		poly := clipNear([]clipVertex{c0, c1})
		if len(poly) < 2 {
			return
		}
		c0, c1 = poly[0], poly[1]
	}
	if c0.pos[3] <= minW || c1.pos[3] <= minW {
		return
	}
	s0, s1 := t.toScreen(c0), t.toScreen(c1)
	steps := int(math32.Ceil(max(math32.Abs(s1.x-s0.x), math32.Abs(s1.y-s0.y))))
	steps = max(steps, 1)

	var vary shader.Varyings
	for i := 0; i <= steps; i++ {
		f := float32(i) / float32(steps)
		x := s0.x + (s1.x-s0.x)*f
		y := s0.y + (s1.y-s0.y)*f
		z := s0.z + (s1.z-s0.z)*f
		invW := s0.invW + (s1.invW-s0.invW)*f
		for k := range vary {
			vary[k] = (s0.vary[k] + (s1.vary[k]-s0.vary[k])*f) / invW
		}
		d.shade(t, b, int(math32.Floor(x)), int(math32.Floor(y)), z, &vary)
	}
}

// shade runs the depth test and the fragment kernel for one pixel and blends the outputs into
// every colour attachment.
func (d *softDevice) shade(t *drawTarget, b bindings, px, py int, z float32, vary *shader.Varyings) {
	if px < t.bounds[0] || px >= t.bounds[2] || py < t.bounds[1] || py >= t.bounds[3] {
		return
	}
	if z < -depthEpsilon || z > 1+depthEpsilon {
		return
	}
	z = min(max(z, 0), 1)
	testDepth := d.depthTest && t.depth != nil
	var di int
	if testDepth {
		di = (py*t.depth.width + px) * 4
		if !compare(d.depthFunc, z, t.depthPx[di]) {
			return
		}
	}

	out, keep := d.program.fragment(b, vary, [2]float32{float32(px) + 0.5, float32(py) + 0.5})
	d.fragments++
	if !keep {
		return
	}
	if testDepth {
		t.depthPx[di] = z
	}
	for k, tex := range t.colors {
		if tex == nil {
			continue
		}
		i := (py*tex.width + px) * 4
		buf := t.colorPx[k]
		dst := [4]float32{buf[i], buf[i+1], buf[i+2], buf[i+3]}
		c := blend(d.blend, out[k], dst)
		if tex.clamps() {
			c = clamp4(c)
		}
		buf[i], buf[i+1], buf[i+2], buf[i+3] = c[0], c[1], c[2], c[3]
	}
}

func compare(fn gputypes.CompareFunction, z, stored float32) bool {
	switch fn {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionEqual:
		return z == stored
	case gputypes.CompareFunctionLessEqual:
		return z <= stored
	case gputypes.CompareFunctionGreater:
		return z > stored
	case gputypes.CompareFunctionNotEqual:
		return z != stored
	case gputypes.CompareFunctionGreaterEqual:
		return z >= stored
	case gputypes.CompareFunctionAlways:
		return true
	}
	return z < stored
}

func blend(fn material.BlendFunction, src, dst [4]float32) [4]float32 {
	switch fn {
	case material.BlendAlpha:
		a := src[3]
		return [4]float32{
			src[0]*a + dst[0]*(1-a),
			src[1]*a + dst[1]*(1-a),
			src[2]*a + dst[2]*(1-a),
			a + dst[3]*(1-a),
		}
	case material.BlendOneToOne:
		return [4]float32{src[0] + dst[0], src[1] + dst[1], src[2] + dst[2], src[3] + dst[3]}
	}
	return src
}
