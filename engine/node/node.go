// Package node implements the transform hierarchy. Nodes live in an arena owned by a Tree and
// refer to each other by NodeID, so parent links never own their targets.
package node

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
)

// NodeID is a stable handle to a node in a Tree. The generation detects handles to removed nodes.
// The zero NodeID is never valid.
type NodeID struct {
	index      uint32
	generation uint32
}

// IsZero reports whether id is the zero handle.
func (id NodeID) IsZero() bool {
	return id.generation == 0
}

// String formats the handle for logs.
func (id NodeID) String() string {
	return fmt.Sprintf("node(%d:%d)", id.index, id.generation)
}

// Tree owns every node of a scene and computes their world transforms on demand.
type Tree interface {
	// New allocates a root node with an identity transform.
	New() NodeID

	// Remove frees a node. Its children are orphaned with their world transforms preserved.
	Remove(id NodeID)

	// Valid reports whether id refers to a live node.
	Valid(id NodeID) bool

	// Len returns the number of live nodes.
	Len() int

	// AddChild attaches child under parent. The child must not have a parent already.
	//
	// Parameters:
	//   - parent: the new parent
	//   - child: the node to attach
	//   - preserveTransform: keep the child's world transform unchanged
	AddChild(parent, child NodeID, preserveTransform bool)

	// Orphan detaches child from its parent, optionally keeping its world transform.
	Orphan(child NodeID, preserveTransform bool)

	// Parent returns the parent of id and whether it has one.
	Parent(id NodeID) (NodeID, bool)

	// Children returns a copy of the child list of id.
	Children(id NodeID) []NodeID

	// SetTranslation sets the translation expressed in the given space.
	SetTranslation(id NodeID, v [3]float32, space common.TransformationSpace)

	// Translation returns the translation in the given space.
	Translation(id NodeID, space common.TransformationSpace) [3]float32

	// SetOrientation sets the orientation expressed in the given space.
	SetOrientation(id NodeID, q [4]float32, space common.TransformationSpace)

	// Orientation returns the orientation in the given space.
	Orientation(id NodeID, space common.TransformationSpace) [4]float32

	// SetScale sets the local scale.
	SetScale(id NodeID, s [3]float32)

	// Scale returns the local scale.
	Scale(id NodeID) [3]float32

	// Translate moves the node. TSLocal moves along the node's own axes.
	Translate(id NodeID, v [3]float32, space common.TransformationSpace)

	// Rotate applies q after (TSWorld) or before (TSLocal) the current orientation.
	Rotate(id NodeID, q [4]float32, space common.TransformationSpace)

	// SetTransform decomposes m into the node's translation, orientation and scale.
	SetTransform(id NodeID, m [16]float32, space common.TransformationSpace)

	// Local returns translation * rotation * scale.
	Local(id NodeID) [16]float32

	// World returns the parent world transform times the local transform.
	World(id NodeID) [16]float32

	// SetInheritScale toggles whether the parent's scale is applied to id.
	SetInheritScale(id NodeID, v bool)

	// SetInheritScaleDeep sets the inherit scale flag on id and its whole subtree.
	SetInheritScaleDeep(id NodeID, v bool)

	// InheritScale returns the inherit scale flag of id.
	InheritScale(id NodeID) bool
}

var _ Tree = &treeImpl{}

type record struct {
	generation   uint32
	alive        bool
	parent       NodeID
	children     []NodeID
	translation  [3]float32
	orientation  [4]float32
	scale        [3]float32
	inheritScale bool
	// dirty invalidates parentCache
	dirty       bool
	parentCache [16]float32
}

type treeImpl struct {
	mu    *sync.Mutex
	nodes []record
	free  []uint32
	live  int
}

// NewTree creates an empty node arena.
//
// Parameters:
//   - options: functional options applied to the tree
//
// Returns:
//   - Tree: the new tree
func NewTree(options ...TreeBuilderOption) Tree {
	t := &treeImpl{
		mu:    &sync.Mutex{},
		nodes: make([]record, 0, 64),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *treeImpl) New() NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.nodes))
		t.nodes = append(t.nodes, record{})
	}
	r := &t.nodes[idx]
	gen := r.generation + 1
	*r = record{
		generation:   gen,
		alive:        true,
		orientation:  common.QuatIdentity(),
		scale:        [3]float32{1, 1, 1},
		inheritScale: true,
		dirty:        true,
		children:     r.children[:0],
	}
	t.live++
	return NodeID{index: idx, generation: gen}
}

func (t *treeImpl) Remove(id NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.get(id)
	for len(r.children) > 0 {
		t.orphan(r.children[len(r.children)-1], true)
	}
	if !r.parent.IsZero() {
		t.orphan(id, false)
	}
	r.alive = false
	t.free = append(t.free, id.index)
	t.live--
}

func (t *treeImpl) Valid(id NodeID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.valid(id)
}

func (t *treeImpl) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

func (t *treeImpl) AddChild(parent, child NodeID, preserveTransform bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if parent == child {
		panic(fmt.Sprintf("node: %s can not parent itself", child))
	}
	p := t.get(parent)
	c := t.get(child)
	if !c.parent.IsZero() {
		panic(fmt.Sprintf("node: %s already has parent %s", child, c.parent))
	}

	var ts [16]float32
	if preserveTransform {
		ts = t.world(child)
	}

	p.children = append(p.children, child)
	c.parent = parent
	c.dirty = true
	t.setChildrenDirty(child)

	if preserveTransform {
		t.setTransform(child, ts, common.TSWorld, true)
	}
}

func (t *treeImpl) Orphan(child NodeID, preserveTransform bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orphan(child, preserveTransform)
}

func (t *treeImpl) Parent(id NodeID) (NodeID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.get(id).parent
	return p, !p.IsZero()
}

func (t *treeImpl) Children(id NodeID) []NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]NodeID(nil), t.get(id).children...)
}

func (t *treeImpl) SetTranslation(id NodeID, v [3]float32, space common.TransformationSpace) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.get(id)
	if space == common.TSWorld && !r.parent.IsZero() {
		ps := t.parentTransform(id)
		inv := common.InverseMat4(ps)
		r.translation = common.TransformPoint(inv, v)
	} else {
		r.translation = v
	}
	t.setChildrenDirty(id)
}

func (t *treeImpl) Translation(id NodeID, space common.TransformationSpace) [3]float32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if space == common.TSWorld {
		return common.Translation(t.world(id))
	}
	return t.get(id).translation
}

func (t *treeImpl) SetOrientation(id NodeID, q [4]float32, space common.TransformationSpace) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.get(id)
	if space == common.TSWorld && !r.parent.IsZero() {
		ps := t.parentTransform(id)
		_, pq, _ := common.DecomposeTRS(ps)
		inv := [4]float32{-pq[0], -pq[1], -pq[2], pq[3]}
		r.orientation = common.QuatMul(inv, q)
	} else {
		r.orientation = q
	}
	t.setChildrenDirty(id)
}

func (t *treeImpl) Orientation(id NodeID, space common.TransformationSpace) [4]float32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if space == common.TSWorld {
		_, q, _ := common.DecomposeTRS(t.world(id))
		return q
	}
	return t.get(id).orientation
}

func (t *treeImpl) SetScale(id NodeID, s [3]float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(id).scale = s
	t.setChildrenDirty(id)
}

func (t *treeImpl) Scale(id NodeID) [3]float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(id).scale
}

func (t *treeImpl) Translate(id NodeID, v [3]float32, space common.TransformationSpace) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.get(id)
	if space == common.TSLocal {
		v = common.TransformDirection(common.QuatToMat4(r.orientation), v)
	}
	r.translation = common.Add3(r.translation, v)
	t.setChildrenDirty(id)
}

func (t *treeImpl) Rotate(id NodeID, q [4]float32, space common.TransformationSpace) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.get(id)
	if space == common.TSLocal {
		r.orientation = common.QuatMul(r.orientation, q)
	} else {
		r.orientation = common.QuatMul(q, r.orientation)
	}
	t.setChildrenDirty(id)
}

func (t *treeImpl) SetTransform(id NodeID, m [16]float32, space common.TransformationSpace) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setTransform(id, m, space, true)
}

func (t *treeImpl) Local(id NodeID) [16]float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.local(id)
}

func (t *treeImpl) World(id NodeID) [16]float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.world(id)
}

func (t *treeImpl) SetInheritScale(id NodeID, v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.get(id)
	r.inheritScale = v
	r.dirty = true
	t.setChildrenDirty(id)
}

func (t *treeImpl) SetInheritScaleDeep(id NodeID, v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setInheritScaleDeep(id, v)
}

func (t *treeImpl) InheritScale(id NodeID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(id).inheritScale
}
