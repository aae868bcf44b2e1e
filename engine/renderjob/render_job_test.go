package renderjob

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/entity"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placed creates an entity with a unit cube at p, registered in tree.
func placed(tree node.Tree, name string, p [3]float32, opts ...entity.EntityBuilderOption) entity.Entity {
	opts = append([]entity.EntityBuilderOption{entity.WithName(name), entity.WithMesh(model.NewCube(1))}, opts...)
	e := entity.NewEntity(opts...)
	id := tree.New()
	tree.SetTranslation(id, p, common.TSWorld)
	e.SetNodeID(id)
	return e
}

func names(jobs []RenderJob) []string {
	out := make([]string, len(jobs))
	for i := range jobs {
		out[i] = jobs[i].Entity.Name()
	}
	return out
}

func readyVolume(p [3]float32, size float32) environment.Volume {
	return environment.NewVolume(
		environment.WithPosition(p),
		environment.WithSize([3]float32{size, size, size}),
		environment.WithIBL(environment.IBL{Irradiance: texture.NewCubeMap("irr", 1, texture.DefaultSettings())}),
	)
}

func TestCreateRenderJobsMaterialPrecedence(t *testing.T) {
	tree := node.NewTree()
	meshMat := material.NewMaterial(material.WithName("mesh"))
	listMat := material.NewMaterial(material.WithName("list"))
	singleMat := material.NewMaterial(material.WithName("single"))

	root := model.NewMesh("root", nil, nil, model.WithSubMeshes(
		model.NewMesh("a", model.NewCube(1).Vertices, model.NewCube(1).Indices, model.WithMaterial(meshMat)),
		model.NewMesh("b", model.NewCube(1).Vertices, model.NewCube(1).Indices),
	))

	withList := placed(tree, "list", [3]float32{}, entity.WithMesh(root), entity.WithMaterials(nil, nil, listMat))
	jobs := CreateRenderJobs([]entity.Entity{withList}, tree)
	require.Len(t, jobs, 2, "the empty root mesh is not drawn but keeps list index 0")
	assert.Equal(t, "mesh", jobs[0].Material.Name(), "a nil list entry falls through to the mesh material")
	assert.Equal(t, "list", jobs[1].Material.Name())

	withSingle := placed(tree, "single", [3]float32{}, entity.WithMesh(root), entity.WithMaterial(singleMat), entity.WithMaterials(listMat, listMat))
	for _, j := range CreateRenderJobs([]entity.Entity{withSingle}, tree) {
		assert.Equal(t, "single", j.Material.Name())
	}

	bare := placed(tree, "bare", [3]float32{})
	jobs = CreateRenderJobs([]entity.Entity{bare}, tree)
	require.Len(t, jobs, 1)
	assert.Same(t, DefaultMaterial(), jobs[0].Material)
	assert.True(t, jobs[0].Material.Initialized())
}

func TestCreateRenderJobsSkipsInvisibleAndMeshless(t *testing.T) {
	tree := node.NewTree()
	hidden := placed(tree, "hidden", [3]float32{}, entity.WithVisible(false))
	meshless := entity.NewEntity(entity.WithName("empty"))
	shown := placed(tree, "shown", [3]float32{4, 0, 0}, entity.WithShadows(false, true))

	jobs := CreateRenderJobs([]entity.Entity{hidden, meshless, shown, nil}, tree)
	require.Len(t, jobs, 1)
	j := jobs[0]
	assert.Equal(t, "shown", j.Entity.Name())
	assert.False(t, j.ShadowCaster)
	assert.True(t, j.ReceiveShadow)
	assert.True(t, j.Visible)
	assert.True(t, j.Deferred)
	assert.Equal(t, [3]float32{4, 0, 0}, j.Position())
	assert.InDeltaSlice(t, []float32{3.5, -0.5, -0.5}, j.BoundingBox.Min[:], 1e-6)
	assert.InDeltaSlice(t, []float32{4.5, 0.5, 0.5}, j.BoundingBox.Max[:], 1e-6)
}

func TestCullRenderJobs(t *testing.T) {
	tree := node.NewTree()
	cam := camera.NewCamera(camera.WithLens(common.DegToRad(90), 1, 0.1, 50))
	inside := placed(tree, "inside", [3]float32{0, 0, -10})
	straddle := placed(tree, "straddle", [3]float32{10, 0, -10})
	behind := placed(tree, "behind", [3]float32{0, 0, 10})
	far := placed(tree, "far", [3]float32{0, 0, -80})

	jobs := CreateRenderJobs([]entity.Entity{behind, inside, far, straddle}, tree)
	kept := CullRenderJobs(jobs, cam)
	assert.Equal(t, []string{"inside", "straddle"}, names(kept))

	jobs = CreateRenderJobs([]entity.Entity{behind, inside, far, straddle}, tree)
	assert.Equal(t, 2, CullRenderJobsFlag(jobs, cam))
	require.Len(t, jobs, 4)
	assert.False(t, jobs[0].Visible)
	assert.True(t, jobs[1].Visible)
	assert.False(t, jobs[2].Visible)
	assert.True(t, jobs[3].Visible)
}

func TestCullRenderJobsParallelMatchesSerial(t *testing.T) {
	tree := node.NewTree()
	cam := camera.NewCamera(camera.WithLens(common.DegToRad(60), 1, 0.1, 100))
	var ents []entity.Entity
	for i := 0; i < 3*ParallelChunkSize+17; i++ {
		x := float32(i%40) - 20
		z := -float32(i % 120)
		ents = append(ents, placed(tree, "e", [3]float32{x * 2, 0, z}))
	}

	serial := CullRenderJobs(CreateRenderJobs(ents, tree), cam)

	pool := worker.NewDynamicWorkerPool(4, 64, time.Second)
	defer pool.Stop()
	parallel := CullRenderJobsParallel(pool, CreateRenderJobs(ents, tree), cam)

	require.Equal(t, len(serial), len(parallel))
	for i := range serial {
		assert.Equal(t, serial[i].BoundingBox, parallel[i].BoundingBox)
	}
	assert.Less(t, len(serial), len(ents))
}

func TestAssignEnvironmentNearestCentreAndTies(t *testing.T) {
	tree := node.NewTree()
	job := CreateRenderJobs([]entity.Entity{placed(tree, "j", [3]float32{1, 0, 0})}, tree)

	big := readyVolume([3]float32{0, 0, 0}, 20)
	big.SetSequence(1)
	near := readyVolume([3]float32{2, 0, 0}, 6)
	near.SetSequence(2)
	notReady := environment.NewVolume(environment.WithPosition([3]float32{1, 0, 0}))
	fallback := readyVolume([3]float32{100, 0, 0}, 1)

	AssignEnvironment(job, []environment.Volume{notReady, big, near}, fallback)
	assert.Same(t, big, job[0].EnvironmentVolume, "equal distance goes to the older volume")

	near.SetPosition([3]float32{1.5, 0, 0})
	for range 3 {
		AssignEnvironment(job, []environment.Volume{near, big}, fallback)
		assert.Same(t, near, job[0].EnvironmentVolume, "the nearest centre wins regardless of order")
	}

	outside := CreateRenderJobs([]entity.Entity{placed(tree, "o", [3]float32{50, 0, 0})}, tree)
	AssignEnvironment(outside, []environment.Volume{big, near}, fallback)
	assert.Same(t, fallback, outside[0].EnvironmentVolume)
}

func TestSeparateDeferredForwardIsStablePartition(t *testing.T) {
	tree := node.NewTree()
	forward := material.NewMaterial(material.WithType(material.MaterialTypePBR))
	glass := material.NewMaterial(material.WithBlendFunction(material.BlendAlpha))
	ents := []entity.Entity{
		placed(tree, "d1", [3]float32{}),
		placed(tree, "t1", [3]float32{}, entity.WithMaterial(glass)),
		placed(tree, "f1", [3]float32{}, entity.WithMaterial(forward)),
		placed(tree, "d2", [3]float32{}),
		placed(tree, "t2", [3]float32{}, entity.WithMaterial(glass)),
		placed(tree, "f2", [3]float32{}, entity.WithMaterial(forward)),
	}
	jobs := CreateRenderJobs(ents, tree)
	deferred, fwd, translucent := SeparateDeferredForward(jobs)

	assert.Equal(t, []string{"d1", "d2"}, names(deferred))
	assert.Equal(t, []string{"f1", "f2"}, names(fwd))
	assert.Equal(t, []string{"t1", "t2"}, names(translucent))
	assert.Equal(t, len(jobs), len(deferred)+len(fwd)+len(translucent))
	for _, j := range translucent {
		assert.Equal(t, material.BlendAlpha, j.Material.RenderState().BlendFunction)
	}

	assert.Panics(t, func() { SeparateDeferredForward([]RenderJob{{}}) })
}

func TestSortLights(t *testing.T) {
	tree := node.NewTree()
	job := CreateRenderJobs([]entity.Entity{placed(tree, "j", [3]float32{0, 0, -5})}, tree)[0]

	farPoint := light.NewLight(light.LightTypePoint, light.WithPosition(20, 0, 0))
	nearPoint := light.NewLight(light.LightTypePoint, light.WithPosition(0, 0, -3))
	spot := light.NewLight(light.LightTypeSpot, light.WithDirection(0, 0, -1))
	sun := light.NewLight(light.LightTypeDirectional)
	off := light.NewLight(light.LightTypeDirectional, light.WithEnabled(false))

	got := SortLights(&job, []light.Light{farPoint, nearPoint, off, spot, sun})
	assert.Equal(t, []light.Light{sun, nearPoint, spot}, got)
}

func TestStableSortByDistanceToCamera(t *testing.T) {
	tree := node.NewTree()
	ents := []entity.Entity{
		placed(tree, "near", [3]float32{0, 0, -2}),
		placed(tree, "far", [3]float32{0, 0, -9}),
		placed(tree, "mid-a", [3]float32{3, 0, -4}),
		placed(tree, "mid-b", [3]float32{-3, 0, -4}),
	}
	jobs := CreateRenderJobs(ents, tree)
	StableSortByDistanceToCamera(jobs, camera.NewCamera())
	assert.Equal(t, []string{"far", "mid-a", "mid-b", "near"}, names(jobs))

	jobs = CreateRenderJobs(ents, tree)
	StableSortByDistanceToCamera(jobs, camera.NewCamera(camera.WithOrthoLens(-1, 1, -1, 1, 0.1, 10)))
	assert.Equal(t, []string{"far", "mid-a", "mid-b", "near"}, names(jobs))
}

func TestSortByMaterialPriorityAndShadowCasters(t *testing.T) {
	tree := node.NewTree()
	high := material.NewMaterial(material.WithPriority(5))
	ents := []entity.Entity{
		placed(tree, "a", [3]float32{}),
		placed(tree, "b", [3]float32{}, entity.WithMaterial(high), entity.WithShadows(false, true)),
		placed(tree, "c", [3]float32{}),
	}
	jobs := CreateRenderJobs(ents, tree)
	SortByMaterialPriority(jobs)
	assert.Equal(t, []string{"b", "a", "c"}, names(jobs))
	assert.Equal(t, []string{"a", "c"}, names(ShadowCasters(jobs)))
	assert.Len(t, BoundingBoxes(jobs), 3)
}
