package light

import "github.com/Carmen-Shannon/oxy-render/common"

// AffectsAABB tests a world box against the light's reach. Directional lights reach
// everything. Point lights test their radius sphere. Spot lights test the frustum of their
// shadow camera, which spans the outer cone out to the radius. The pose setters keep that
// camera current.
func (l *lightImpl) AffectsAABB(box common.AABB) bool {
	if !box.Valid() {
		return false
	}
	switch l.lightType {
	case LightTypePoint:
		return box.IntersectsSphere(l.position, l.radius)
	case LightTypeSpot:
		return l.shadowCamera.Frustum().ClassifyAABB(box) != common.Outside
	}
	return true
}

// Enabled filters lights down to the enabled ones, keeping their order.
//
// Parameters:
//   - lights: the lights to filter
//
// Returns:
//   - []Light: the enabled lights
func Enabled(lights []Light) []Light {
	out := make([]Light, 0, len(lights))
	for _, l := range lights {
		if l != nil && l.Enabled() {
			out = append(out, l)
		}
	}
	return out
}

// ShadowCasting returns the enabled lights that cast shadows, keeping their order.
func ShadowCasting(lights []Light) []Light {
	out := make([]Light, 0, len(lights))
	for _, l := range lights {
		if l != nil && l.Enabled() && l.CastsShadows() {
			out = append(out, l)
		}
	}
	return out
}
