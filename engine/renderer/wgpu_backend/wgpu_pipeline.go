package wgpu_backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

// pipelineKey identifies a render pipeline by everything baked into it: the program, the fixed
// function state and the formats of the pass it draws into.
type pipelineKey struct {
	program    renderer.ProgramID
	topology   gputypes.PrimitiveTopology
	cullMode   gputypes.CullMode
	depthTest  bool
	depthFunc  gputypes.CompareFunction
	blend      material.BlendFunction
	colors     [texture.MaxColorAttachments]wgpu.TextureFormat
	colorCount int
	depth      wgpu.TextureFormat
	hasDepth   bool
	samples    uint32
}

// vertexLayout matches model.Vertex: position, normal and uv at locations 0, 1 and 2.
var vertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: model.VertexStride,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	},
}

func primitiveTopology(t gputypes.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	case gputypes.PrimitiveTopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case gputypes.PrimitiveTopologyLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case gputypes.PrimitiveTopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func isStrip(t gputypes.PrimitiveTopology) bool {
	return t == gputypes.PrimitiveTopologyLineStrip || t == gputypes.PrimitiveTopologyTriangleStrip
}

func cullMode(c gputypes.CullMode) wgpu.CullMode {
	switch c {
	case gputypes.CullModeFront:
		return wgpu.CullModeFront
	case gputypes.CullModeBack:
		return wgpu.CullModeBack
	}
	return wgpu.CullModeNone
}

// compareFunction converts a depth function. An unset function compares Less.
func compareFunction(f gputypes.CompareFunction) wgpu.CompareFunction {
	switch f {
	case gputypes.CompareFunctionNever:
		return wgpu.CompareFunctionNever
	case gputypes.CompareFunctionEqual:
		return wgpu.CompareFunctionEqual
	case gputypes.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gputypes.CompareFunctionGreater:
		return wgpu.CompareFunctionGreater
	case gputypes.CompareFunctionNotEqual:
		return wgpu.CompareFunctionNotEqual
	case gputypes.CompareFunctionGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	case gputypes.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways
	}
	return wgpu.CompareFunctionLess
}

// blendState returns the colour blend of a blend function, or nil when colours are written as is.
func blendState(fn material.BlendFunction) *wgpu.BlendState {
	switch fn {
	case material.BlendAlpha:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case material.BlendOneToOne:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}
	return nil
}

func (d *wgpuDevice) pipelineKey(p *wgpuProgram, topology gputypes.PrimitiveTopology) pipelineKey {
	k := pipelineKey{
		program:   p.id,
		topology:  topology,
		cullMode:  d.state.cullMode,
		depthTest: d.state.depthTest,
		depthFunc: d.state.depthFunc,
		blend:     d.state.blend,
		depth:     d.targets.depthFmt,
		hasDepth:  d.targets.depth != nil,
		samples:   d.targets.samples,
	}
	for i, c := range d.targets.colors {
		k.colors[i] = c.format
	}
	k.colorCount = len(d.targets.colors)
	return k
}

// pipeline returns the render pipeline for the current program, state and pass, creating it on
// first use.
func (d *wgpuDevice) pipeline(p *wgpuProgram, topology gputypes.PrimitiveTopology) (*wgpu.RenderPipeline, error) {
	key := d.pipelineKey(p, topology)
	if pl, ok := d.pipelines[key]; ok {
		return pl, nil
	}

	targets := make([]wgpu.ColorTargetState, key.colorCount)
	for i := range targets {
		targets[i] = wgpu.ColorTargetState{
			Format:    key.colors[i],
			Blend:     blendState(key.blend),
			WriteMask: wgpu.ColorWriteMaskAll,
		}
	}

	primitive := wgpu.PrimitiveState{
		Topology:  primitiveTopology(topology),
		FrontFace: wgpu.FrontFaceCCW,
		CullMode:  cullMode(key.cullMode),
	}
	if isStrip(topology) {
		primitive.StripIndexFormat = wgpu.IndexFormatUint32
	}

	var depthStencil *wgpu.DepthStencilState
	if key.hasDepth {
		depthCompare := compareFunction(key.depthFunc)
		if !key.depthTest {
			depthCompare = wgpu.CompareFunctionAlways
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:            key.depth,
			DepthWriteEnabled: key.depthTest,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.name + " Render Pipeline",
		Layout: p.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     p.vertex,
			EntryPoint: p.vsEntry,
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.fragment,
			EntryPoint: p.fsEntry,
			Targets:    targets,
		},
		Primitive: primitive,
		Multisample: wgpu.MultisampleState{
			Count: key.samples,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: create pipeline for %s: %w", p.name, err)
	}
	d.pipelines[key] = created
	return created, nil
}

// clampViewport fits the viewport into a target of the given size. ok is false when nothing of it
// is left.
func clampViewport(vp [4]int, width, height int) (x, y, w, h int, ok bool) {
	x0, y0 := max(vp[0], 0), max(vp[1], 0)
	x1, y1 := min(vp[0]+vp[2], width), min(vp[1]+vp[3], height)
	if x1 <= x0 || y1 <= y0 {
		return 0, 0, 0, 0, false
	}
	return x0, y0, x1 - x0, y1 - y0, true
}

// DrawMesh records a draw of a mesh into the pass of the bound framebuffer.
func (d *wgpuDevice) DrawMesh(id renderer.MeshID, topology gputypes.PrimitiveTopology) {
	p := d.program
	m, ok := d.meshes[id]
	if p == nil || !ok || m.vertex == nil {
		return
	}
	offsets, ok := d.pushUniforms(p)
	if !ok {
		return
	}
	if err := d.ensurePass(); err != nil {
		logger.Logger().Warn("draw skipped", "framebuffer", d.framebuffer, "error", err)
		return
	}
	x, y, w, h, ok := clampViewport(d.viewport, d.targets.width, d.targets.height)
	if !ok {
		return
	}
	pl, err := d.pipeline(p, topology)
	if err != nil {
		logger.Logger().Error("pipeline creation failed", "program", p.name, "error", err)
		return
	}
	tg, err := d.textureGroup(p)
	if err != nil {
		logger.Logger().Error("texture bind group creation failed", "program", p.name, "error", err)
		return
	}

	d.pass.SetPipeline(pl)
	d.pass.SetBindGroup(0, p.uniformGroup, offsets)
	if tg != nil {
		d.pass.SetBindGroup(1, tg, nil)
	}
	d.pass.SetViewport(float32(x), float32(y), float32(w), float32(h), 0, 1)
	d.pass.SetScissorRect(uint32(x), uint32(y), uint32(w), uint32(h))
	d.pass.SetVertexBuffer(0, m.vertex, 0, wgpu.WholeSize)
	if m.index != nil {
		d.pass.SetIndexBuffer(m.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		d.pass.DrawIndexed(m.indexCount, 1, 0, 0, 0)
		return
	}
	d.pass.Draw(m.vertexCount, 1, 0, 0)
}
