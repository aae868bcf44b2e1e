package renderer

import (
	"errors"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/renderjob"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTexture struct {
	w, h int
	px   []float32
}

// mockDevice records the calls a renderer makes.
type mockDevice struct {
	next uint32

	compiles  int
	failLinks map[string]bool
	missing   map[string]bool
	locNames  map[int32]string
	locs      map[string]int32
	values    map[string]any
	badSets   int

	stateCalls int
	useCalls   int
	draws      []gputypes.PrimitiveTopology
	uploads    int

	textures map[TextureID]*mockTexture
	creates  int
	writes   int
	bound    map[int]TextureID
	attaches int
	binds    []FramebufferID
	viewport [4]int
	clears   int
	copies   int
	flushes  int
}

func newMockDevice() *mockDevice {
	return &mockDevice{
		failLinks: map[string]bool{},
		missing:   map[string]bool{},
		locNames:  map[int32]string{},
		locs:      map[string]int32{},
		values:    map[string]any{},
		textures:  map[TextureID]*mockTexture{},
		bound:     map[int]TextureID{},
	}
}

func (d *mockDevice) id() uint32 {
	d.next++
	return d.next
}

func (d *mockDevice) CompileProgram(vs, fs shader.Shader) (ProgramID, string, error) {
	d.compiles++
	if d.failLinks[vs.Key()+"+"+fs.Key()] {
		return 0, "error: unresolved symbol", errors.New("link failed")
	}
	return ProgramID(d.id()), "", nil
}

func (d *mockDevice) DeleteProgram(ProgramID) {}
func (d *mockDevice) UseProgram(ProgramID) { d.useCalls++ }

func (d *mockDevice) UniformLocation(_ ProgramID, name string) int32 {
	if d.missing[name] {
		return -1
	}
	if loc, ok := d.locs[name]; ok {
		return loc
	}
	loc := int32(len(d.locs))
	d.locs[name] = loc
	d.locNames[loc] = name
	return loc
}

func (d *mockDevice) SetUniform(location int32, value any) {
	name, ok := d.locNames[location]
	if !ok {
		d.badSets++
		return
	}
	d.values[name] = value
}

func (d *mockDevice) SetCullMode(gputypes.CullMode) { d.stateCalls++ }
func (d *mockDevice) SetDepthTest(bool) { d.stateCalls++ }
func (d *mockDevice) SetDepthFunc(gputypes.CompareFunction) { d.stateCalls++ }
func (d *mockDevice) SetBlendFunction(material.BlendFunction) { d.stateCalls++ }
func (d *mockDevice) SetLineWidth(float32) { d.stateCalls++ }
func (d *mockDevice) DeleteFramebuffer(FramebufferID) {}
func (d *mockDevice) DeleteMesh(MeshID) {}
func (d *mockDevice) Resize(int, int) {}
func (d *mockDevice) Flush() { d.flushes++ }
func (d *mockDevice) Clear(ClearBits, [4]float32) { d.clears++ }
func (d *mockDevice) CopyTexture(TextureID, TextureID) { d.copies++ }
func (d *mockDevice) CreateFramebuffer() FramebufferID { return FramebufferID(d.id()) }
func (d *mockDevice) BindFramebuffer(fb FramebufferID) { d.binds = append(d.binds, fb) }
func (d *mockDevice) SetViewport(x, y, w, h int) { d.viewport = [4]int{x, y, w, h} }
func (d *mockDevice) BindTexture(slot int, id TextureID) { d.bound[slot] = id }
func (d *mockDevice) UploadMesh(*model.Mesh) MeshID { d.uploads++; return MeshID(d.id()) }
func (d *mockDevice) DrawMesh(_ MeshID, t gputypes.PrimitiveTopology) { d.draws = append(d.draws, t) }

func (d *mockDevice) AttachTexture(FramebufferID, texture.Attachment, TextureID, int) {
	d.attaches++
}

func (d *mockDevice) CreateTexture(s texture.Settings, w, h int) TextureID {
	d.creates++
	id := TextureID(d.id())
	d.textures[id] = &mockTexture{w: w, h: h, px: make([]float32, w*h*4*s.LayerCount())}
	return id
}

func (d *mockDevice) DeleteTexture(id TextureID) {
	delete(d.textures, id)
}

func (d *mockDevice) WriteTexture(id TextureID, _, _ int, rgba []float32) {
	d.writes++
	copy(d.textures[id].px, rgba)
}

func (d *mockDevice) ReadTexture(id TextureID, _ int) (int, int, []float32) {
	t, ok := d.textures[id]
	if !ok {
		return 0, 0, nil
	}
	return t.w, t.h, t.px[:t.w*t.h*4]
}

func newTestRenderer(t *testing.T) (*renderer, *mockDevice) {
	t.Helper()
	dev := newMockDevice()
	r, err := NewRenderer(dev, WithWindowSize(200, 100))
	require.NoError(t, err)
	dev.stateCalls = 0
	return r.(*renderer), dev
}

func cubeJob(mat material.Material) *renderjob.RenderJob {
	m := model.NewCube(1)
	return &renderjob.RenderJob{
		Mesh:           m,
		Material:       mat,
		WorldTransform: common.ComposeTRS([3]float32{0, 0, -5}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1}),
		BoundingBox:    m.AABB(),
		ReceiveShadow:  true,
		Visible:        true,
	}
}

func TestNewRendererRequiresDevice(t *testing.T) {
	_, err := NewRenderer(nil)
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestSetRenderStateIssuesOnlyChanges(t *testing.T) {
	r, dev := newTestRenderer(t)

	r.SetRenderState(material.DefaultRenderState())
	assert.Zero(t, dev.stateCalls, "the device already holds the default state")

	rs := material.DefaultRenderState()
	rs.CullMode = gputypes.CullModeNone
	rs.BlendFunction = material.BlendAlpha
	r.SetRenderState(rs)
	assert.Equal(t, 2, dev.stateCalls)

	r.SetRenderState(rs)
	r.EnableDepthTest(true)
	assert.Equal(t, 2, dev.stateCalls)

	r.EnableDepthTest(false)
	r.SetDepthTestFunc(gputypes.CompareFunctionLessEqual)
	assert.Equal(t, 4, dev.stateCalls)
	assert.Equal(t, 4, r.Stats().StateChanges)
	assert.False(t, r.RenderState().DepthTestEnabled)
	assert.Equal(t, material.BlendAlpha, r.RenderState().BlendFunction)
}

func TestCreateProgramCachesByShaderKeys(t *testing.T) {
	r, dev := newTestRenderer(t)
	vs, fs := builtin.Get(builtin.DefaultVertex), builtin.Get(builtin.ForwardFragment)

	p, err := r.CreateProgram(vs, fs)
	require.NoError(t, err)
	again, err := r.CreateProgram(vs.Copy(), fs.Copy())
	require.NoError(t, err)

	assert.Same(t, p, again)
	assert.Equal(t, 1, dev.compiles)
	assert.Equal(t, builtin.DefaultVertex+"+"+builtin.ForwardFragment, p.Tag())
	assert.Same(t, p, r.Program(p.Tag()))
	assert.Equal(t, int32(3), dev.values["s_texture3"])
	assert.Equal(t, int32(TextureSlotCount-1), dev.values["s_texture19"])

	r.BindProgram(p)
	assert.Equal(t, 1, dev.useCalls, "binding the current program does nothing")
}

func TestFailedLinkIsCachedAndSkipsDraws(t *testing.T) {
	r, dev := newTestRenderer(t)
	vs, fs := builtin.Get(builtin.DefaultVertex), builtin.Get(builtin.UnlitFragment)
	dev.failLinks[vs.Key()+"+"+fs.Key()] = true

	p, err := r.CreateProgram(vs, fs)
	require.ErrorIs(t, err, ErrProgramLink)
	assert.Contains(t, p.Log(), "unresolved symbol")
	_, err = r.CreateProgram(vs, fs)
	require.ErrorIs(t, err, ErrProgramLink)
	assert.Equal(t, 1, dev.compiles)

	mat := material.NewMaterial(material.WithType(material.MaterialTypeUnlit), material.WithShaders(vs, fs))
	r.Render(cubeJob(mat), camera.NewCamera(), nil)
	assert.Empty(t, dev.draws)
	assert.Equal(t, 1, r.Stats().SkippedDraws)
	assert.Equal(t, 1, dev.compiles)
}

func TestRenderFeedsUniforms(t *testing.T) {
	r, dev := newTestRenderer(t)
	dev.missing["model"] = true

	mat := material.NewMaterial(material.WithColor([3]float32{0.2, 0.4, 0.6}), material.WithAlpha(0.5))
	require.NoError(t, mat.Init())
	mat.FragmentShader().SetParameter("tint", float32(2))

	cam := camera.NewCamera()
	job := cubeJob(mat)
	r.Render(job, cam, nil)
	r.Render(job, nil, nil)

	require.Len(t, dev.draws, 2)
	assert.Equal(t, gputypes.PrimitiveTopologyTriangleList, dev.draws[0])
	assert.Equal(t, 1, dev.uploads, "an unchanged mesh is uploaded once")
	assert.Zero(t, dev.badSets, "uniforms without a location are never set")
	assert.NotContains(t, dev.values, "model")

	want := common.MulMat4(common.MulMat4(cam.Projection(), cam.View()), job.WorldTransform)
	assert.Equal(t, want, dev.values["projectViewModel"])
	assert.Equal(t, [4]float32{0.2, 0.4, 0.6, 0.5}, dev.values["color"])
	assert.Equal(t, float32(2), dev.values["tint"])
	assert.Equal(t, cam.Data(), dev.values["camData"], "a nil camera keeps the previous one")
	assert.Equal(t, false, dev.values["useIbl"])
	assert.Equal(t, float32(1), dev.values["exposure"])
	assert.Equal(t, 2, r.Stats().DrawCalls)
}

func TestRenderBindsEnvironmentAndMaterialTextures(t *testing.T) {
	r, dev := newTestRenderer(t)
	diffuse := texture.NewTexture("albedo", 2, 2, texture.DefaultSettings())
	diffuse.Pixels = make([]float32, 2*2*4)
	mat := material.NewMaterial(material.WithDiffuseTexture(diffuse))

	job := cubeJob(mat)
	job.EnvironmentVolume = environment.NewVolume(
		environment.WithIntensity(0.7),
		environment.WithIBL(environment.IBL{Irradiance: texture.NewCubeMap("irr", 2, texture.DefaultSettings())}),
	)
	r.Render(job, camera.NewCamera(), nil)

	assert.NotZero(t, dev.bound[shader.SlotDiffuse])
	assert.NotZero(t, dev.bound[shader.SlotIBLIrradiance])
	assert.Equal(t, true, dev.values["useIbl"])
	assert.Equal(t, float32(0.7), dev.values["iblIntensity"])
	assert.Equal(t, int32(shader.SlotIBLIrradiance), dev.values["iblIrradiance"])

	job.EnvironmentVolume = nil
	r.Render(job, nil, nil)
	assert.Zero(t, dev.bound[shader.SlotIBLIrradiance])
	assert.Equal(t, false, dev.values["useIbl"])
}

func TestOverrideMaterialReplacesJobMaterial(t *testing.T) {
	r, dev := newTestRenderer(t)
	override := material.NewMaterial(material.WithType(material.MaterialTypeUnlit), material.WithColor([3]float32{1, 0, 0}))
	r.SetOverrideMaterial(override)

	r.Render(cubeJob(material.NewMaterial(material.WithColor([3]float32{0, 1, 0}))), camera.NewCamera(), nil)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, dev.values["color"])
	assert.Same(t, override, r.OverrideMaterial())

	assert.Panics(t, func() { r.Render(&renderjob.RenderJob{}, nil, nil) })
}

func TestSetTextureUploadsOnChange(t *testing.T) {
	r, dev := newTestRenderer(t)
	tex := texture.NewTexture("t", 2, 2, texture.DefaultSettings())
	tex.Pixels = make([]float32, 2*2*4)

	r.SetTexture(0, tex)
	r.SetTexture(0, tex)
	assert.Equal(t, 1, dev.creates)
	assert.Equal(t, 1, dev.writes)
	assert.Equal(t, 1, r.Stats().TextureBinds)

	tex.Invalidate()
	r.SetTexture(0, tex)
	assert.Equal(t, 1, dev.creates, "same size reuses the storage")
	assert.Equal(t, 2, dev.writes)

	require.NoError(t, tex.SetPixels(4, 4, make([]float32, 4*4*4)))
	r.SetTexture(0, tex)
	assert.Equal(t, 2, dev.creates)
	assert.Equal(t, 2, r.Stats().TextureBinds, "the new storage is rebound")

	r.SetTexture(0, nil)
	assert.Zero(t, dev.bound[0])
	assert.Panics(t, func() { r.SetTexture(TextureSlotCount, tex) })
}

func TestSetFramebufferSyncsAttachments(t *testing.T) {
	r, dev := newTestRenderer(t)
	fb := texture.NewFramebuffer("gbuffer")
	fb.Init(texture.FramebufferSettings{Width: 4, Height: 4, UseDefaultDepth: true})
	rt := texture.NewRenderTarget("color", 4, 4, texture.DefaultSettings())
	fb.SetAttachment(texture.ColorAttachment0, rt)

	r.SetFramebuffer(fb, true, [4]float32{})
	assert.Equal(t, 2, dev.attaches)
	assert.Equal(t, [4]int{0, 0, 4, 4}, dev.viewport)
	assert.Equal(t, 1, dev.clears)

	r.SetFramebuffer(fb, false, [4]float32{})
	assert.Equal(t, 2, dev.attaches)
	assert.Len(t, dev.binds, 1)

	rt.ReconstructIfNeeded(8, 8)
	r.SetFramebuffer(fb, false, [4]float32{})
	assert.Equal(t, 3, dev.attaches, "resized storage is re-attached")

	prev := r.SwapFramebuffer(nil)
	assert.Same(t, fb, prev)
	assert.Nil(t, r.Framebuffer())
	assert.Equal(t, DefaultFramebuffer, dev.binds[len(dev.binds)-1])
	assert.Equal(t, [4]int{0, 0, 200, 100}, dev.viewport)
}

func TestCopyFrameBufferSkipsMismatchedSizes(t *testing.T) {
	r, dev := newTestRenderer(t)
	src := texture.NewFramebuffer("src")
	src.Init(texture.FramebufferSettings{Width: 4, Height: 4, UseDefaultDepth: true})
	src.SetAttachment(texture.ColorAttachment0, texture.NewRenderTarget("a", 4, 4, texture.DefaultSettings()))
	src.SetAttachment(texture.ColorAttachment1, texture.NewRenderTarget("b", 4, 4, texture.DefaultSettings()))
	dst := texture.NewFramebuffer("dst")
	dst.Init(texture.FramebufferSettings{Width: 4, Height: 4, UseDefaultDepth: true})
	dst.SetAttachment(texture.ColorAttachment0, texture.NewRenderTarget("c", 4, 4, texture.DefaultSettings()))
	dst.SetAttachment(texture.ColorAttachment1, texture.NewRenderTarget("d", 2, 2, texture.DefaultSettings()))

	r.CopyFrameBuffer(src, dst, ClearColorBit|ClearDepthBit)
	assert.Equal(t, 2, dev.copies, "colour 0 and depth copy, colour 1 differs in size")
}

func TestSetCameraLensFitsViewport(t *testing.T) {
	r, _ := newTestRenderer(t)

	persp := camera.NewCamera()
	r.SetCameraLens(persp)
	assert.InDelta(t, 2, persp.Aspect(), 1e-6)

	ortho := camera.NewCamera(camera.WithOrthoLens(-1, 1, -1, 1, 0.1, 10))
	r.SetCameraLens(ortho)
	l, rt, b, top := ortho.OrthoBounds()
	assert.Equal(t, [4]float32{-100, 100, -50, 50}, [4]float32{l, rt, b, top})
}

func TestRenderTasksRunOnBeginFrame(t *testing.T) {
	r, dev := newTestRenderer(t)
	var (
		order []string
		mu    sync.Mutex
		wg    sync.WaitGroup
		got   error
	)
	boom := errors.New("boom")

	r.AddRenderTask(RenderTask{Name: "first", Run: func(Renderer) error {
		order = append(order, "first")
		return nil
	}})
	r.AddRenderTask(RenderTask{Name: "second", Run: func(Renderer) error {
		order = append(order, "second")
		return boom
	}, Done: func(err error) { got = err }})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.AddRenderTask(RenderTask{Name: "bg", Run: func(Renderer) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, "bg")
				return nil
			}})
		}()
	}
	wg.Wait()
	assert.Equal(t, 6, r.PendingRenderTasks())

	r.BeginFrame()
	require.Len(t, order, 6)
	assert.Equal(t, []string{"first", "second"}, order[:2])
	assert.ErrorIs(t, got, boom)
	assert.Zero(t, r.PendingRenderTasks())
	assert.Equal(t, uint32(1), r.FrameCount())

	r.EndFrame()
	assert.Equal(t, 1, dev.flushes)
}

func TestSnapshotScalesTarget(t *testing.T) {
	r, dev := newTestRenderer(t)
	rt := texture.NewRenderTarget("out", 2, 2, texture.DefaultSettings())
	r.SetTexture(0, &rt.Texture)
	px := dev.textures[dev.bound[0]].px
	for i := 0; i < len(px); i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = 1, 0.5, -1, 2
	}

	img, err := r.Snapshot(rt, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, []uint8{255, 128, 0, 255}, img.Pix[:4])

	img, err = r.Snapshot(rt, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dy())
	assert.Equal(t, []uint8{255, 128, 0, 255}, img.Pix[len(img.Pix)-4:])

	_, err = r.Snapshot(nil, 1, 1)
	assert.ErrorIs(t, err, texture.ErrInvalidSize)
}
