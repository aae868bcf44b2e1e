// Package environment holds the image based lighting sources of a scene: box shaped environment
// volumes that light the entities inside them, and the sky.
package environment

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// DefaultVolumeSize is the edge length of a new environment volume.
const DefaultVolumeSize float32 = 8

// IBL is the set of maps image based lighting samples.
type IBL struct {
	// Irradiance is the diffuse convolution of the environment.
	Irradiance *texture.CubeMap
	// Specular is the pre-filtered reflection map, mip i holding roughness i/MaxReflectionLod.
	Specular *texture.CubeMap
	// BRDFLut is the split sum lookup indexed by (n.v, roughness).
	BRDFLut *texture.Texture
	// MaxReflectionLod is the highest mip of Specular.
	MaxReflectionLod float32
}

// Ready reports whether the diffuse map is present. Specular and the LUT are optional.
func (i IBL) Ready() bool {
	return i.Irradiance != nil
}

type volumeImpl struct {
	mu       *sync.Mutex
	name     string
	position [3]float32
	offset   [3]float32
	size     [3]float32
	rotation float32
	intens   float32
	exposure float32
	ibl      IBL
	seq      uint64
	tree     node.Tree
	nodeID   node.NodeID
}

// Volume is an axis aligned box that lights the render jobs whose bounds centre falls inside it.
// When volumes overlap the nearest centre wins, ties going to the volume created first.
type Volume interface {
	// Name returns the volume name.
	Name() string

	// Position returns the world centre of the volume: the bound node's world translation, or
	// the stored position, plus the offset.
	//
	// Returns:
	//   - [3]float32: the centre
	Position() [3]float32

	// SetPosition sets the stored position used when no node is bound.
	SetPosition(p [3]float32)

	// PositionOffset returns the offset added to the position.
	PositionOffset() [3]float32

	// SetPositionOffset sets the offset added to the position.
	SetPositionOffset(o [3]float32)

	// Size returns the full edge lengths of the box.
	Size() [3]float32

	// SetSize sets the full edge lengths of the box.
	SetSize(s [3]float32)

	// Intensity returns the IBL intensity multiplier.
	Intensity() float32

	// SetIntensity sets the IBL intensity multiplier.
	SetIntensity(v float32)

	// Exposure returns the exposure applied when the environment is drawn as a sky.
	Exposure() float32

	// SetExposure sets the exposure.
	SetExposure(v float32)

	// Rotation returns the rotation about +Y in radians applied to environment lookups.
	Rotation() float32

	// SetRotation sets the rotation about +Y in radians.
	SetRotation(radians float32)

	// RotationMatrix returns the lookup rotation as a matrix.
	RotationMatrix() [16]float32

	// IBL returns the lighting maps.
	IBL() IBL

	// SetIBL replaces the lighting maps.
	SetIBL(ibl IBL)

	// Sequence returns the creation order assigned by the scene.
	Sequence() uint64

	// SetSequence sets the creation order. Scenes assign it when the volume is added.
	SetSequence(seq uint64)

	// SetNode makes the volume follow a node of the scene tree.
	//
	// Parameters:
	//   - tree: the tree holding the node
	//   - id: the node to follow
	SetNode(tree node.Tree, id node.NodeID)

	// AABB returns the world box of the volume.
	//
	// Returns:
	//   - common.AABB: the box
	AABB() common.AABB

	// Contains reports whether p lies inside the box, faces included.
	//
	// Parameters:
	//   - p: a world point
	//
	// Returns:
	//   - bool: true if inside
	Contains(p [3]float32) bool

	// ReadyToRender reports whether the volume has lighting maps to bind.
	ReadyToRender() bool
}

var _ Volume = &volumeImpl{}

// NewVolume creates an environment volume at the origin with DefaultVolumeSize edges, unit
// intensity and exposure, and the given options applied.
//
// Parameters:
//   - options: variadic list of VolumeBuilderOption functions
//
// Returns:
//   - Volume: the new volume
func NewVolume(options ...VolumeBuilderOption) Volume {
	v := &volumeImpl{
		mu:       &sync.Mutex{},
		size:     [3]float32{DefaultVolumeSize, DefaultVolumeSize, DefaultVolumeSize},
		intens:   1,
		exposure: 1,
	}
	for _, option := range options {
		option(v)
	}
	return v
}

func (v *volumeImpl) Name() string {
	return v.name
}

func (v *volumeImpl) Position() [3]float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.center()
}

// center returns the world centre. Caller must hold the mutex.
func (v *volumeImpl) center() [3]float32 {
	p := v.position
	if v.tree != nil && !v.nodeID.IsZero() && v.tree.Valid(v.nodeID) {
		p = common.Translation(v.tree.World(v.nodeID))
	}
	return common.Add3(p, v.offset)
}

func (v *volumeImpl) SetPosition(p [3]float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.position = p
}

func (v *volumeImpl) PositionOffset() [3]float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offset
}

func (v *volumeImpl) SetPositionOffset(o [3]float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.offset = o
}

func (v *volumeImpl) Size() [3]float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

func (v *volumeImpl) SetSize(s [3]float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size = s
}

func (v *volumeImpl) Intensity() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.intens
}

func (v *volumeImpl) SetIntensity(i float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.intens = i
}

func (v *volumeImpl) Exposure() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.exposure
}

func (v *volumeImpl) SetExposure(e float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.exposure = e
}

func (v *volumeImpl) Rotation() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rotation
}

func (v *volumeImpl) SetRotation(radians float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rotation = radians
}

func (v *volumeImpl) RotationMatrix() [16]float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return common.QuatToMat4(common.QuatFromAxisAngle([3]float32{0, 1, 0}, v.rotation))
}

func (v *volumeImpl) IBL() IBL {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ibl
}

func (v *volumeImpl) SetIBL(ibl IBL) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ibl = ibl
}

func (v *volumeImpl) Sequence() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seq
}

func (v *volumeImpl) SetSequence(seq uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq = seq
}

func (v *volumeImpl) SetNode(tree node.Tree, id node.NodeID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tree, v.nodeID = tree, id
}

func (v *volumeImpl) AABB() common.AABB {
	v.mu.Lock()
	defer v.mu.Unlock()
	return common.NewAABB(v.center(), v.size)
}

func (v *volumeImpl) Contains(p [3]float32) bool {
	return v.AABB().Contains(p)
}

func (v *volumeImpl) ReadyToRender() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ibl.Ready()
}
