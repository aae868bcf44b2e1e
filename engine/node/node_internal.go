package node

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/chewxy/math32"
)

// The helpers below assume t.mu is held.

func (t *treeImpl) valid(id NodeID) bool {
	if id.IsZero() || int(id.index) >= len(t.nodes) {
		return false
	}
	r := &t.nodes[id.index]
	return r.alive && r.generation == id.generation
}

func (t *treeImpl) get(id NodeID) *record {
	if !t.valid(id) {
		panic(fmt.Sprintf("node: stale or invalid handle %s", id))
	}
	return &t.nodes[id.index]
}

func (t *treeImpl) local(id NodeID) [16]float32 {
	r := t.get(id)
	return common.ComposeTRS(r.translation, r.orientation, r.scale)
}

func (t *treeImpl) world(id NodeID) [16]float32 {
	local := t.local(id)
	if t.get(id).parent.IsZero() {
		return local
	}
	ps := t.parentTransform(id)
	return common.MulMat4(ps, local)
}

// parentTransform returns the cached parent world matrix, recomputing it when dirty.
func (t *treeImpl) parentTransform(id NodeID) [16]float32 {
	r := t.get(id)
	if r.parent.IsZero() {
		return common.IdentityMat4()
	}
	if !r.dirty {
		return r.parentCache
	}

	ps := t.world(r.parent)
	if !r.inheritScale {
		for c := 0; c < 3; c++ {
			col := ps[c*4 : c*4+3]
			l := math32.Sqrt(col[0]*col[0] + col[1]*col[1] + col[2]*col[2])
			if l > 0 {
				col[0], col[1], col[2] = col[0]/l, col[1]/l, col[2]/l
			}
		}
	}

	// re-fetch: world may not grow the slice, but keep the pointer fresh anyway
	r = &t.nodes[id.index]
	r.parentCache = ps
	r.dirty = false
	return ps
}

func (t *treeImpl) setChildrenDirty(id NodeID) {
	for _, c := range t.get(id).children {
		t.nodes[c.index].dirty = true
		t.setChildrenDirty(c)
	}
}

func (t *treeImpl) setTransform(id NodeID, m [16]float32, space common.TransformationSpace, withScale bool) {
	r := t.get(id)
	ts := m
	if space == common.TSWorld && !r.parent.IsZero() {
		ps := t.parentTransform(id)
		ts = common.MulMat4(common.InverseMat4(ps), m)
	}
	tr, q, s := common.DecomposeTRS(ts)
	r = t.get(id)
	r.translation = tr
	r.orientation = q
	if withScale {
		r.scale = s
	}
	t.setChildrenDirty(id)
}

func (t *treeImpl) orphan(child NodeID, preserveTransform bool) {
	c := t.get(child)
	if c.parent.IsZero() {
		return
	}

	var ts [16]float32
	if preserveTransform {
		ts = t.world(child)
	}

	p := t.get(c.parent)
	for i, id := range p.children {
		if id == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}

	c = t.get(child)
	c.parent = NodeID{}
	c.dirty = true
	t.setChildrenDirty(child)

	if preserveTransform {
		t.setTransform(child, ts, common.TSWorld, true)
	}
}

func (t *treeImpl) setInheritScaleDeep(id NodeID, v bool) {
	r := t.get(id)
	r.inheritScale = v
	r.dirty = true
	for _, c := range r.children {
		t.setInheritScaleDeep(c, v)
	}
}
