package material

import "github.com/gogpu/gputypes"

// BlendFunction selects how fragment colour combines with the framebuffer.
type BlendFunction int

const (
	// BlendNone writes the fragment colour as is.
	BlendNone BlendFunction = iota
	// BlendAlpha blends with SRC_ALPHA, ONE_MINUS_SRC_ALPHA.
	BlendAlpha
	// BlendOneToOne adds the fragment colour to the framebuffer.
	BlendOneToOne
	// BlendAlphaMask discards fragments below the alpha mask threshold and writes the rest unblended.
	BlendAlphaMask
)

// String returns the blend function name.
func (b BlendFunction) String() string {
	switch b {
	case BlendNone:
		return "none"
	case BlendAlpha:
		return "alpha"
	case BlendOneToOne:
		return "one_to_one"
	case BlendAlphaMask:
		return "alpha_mask"
	default:
		return "unknown"
	}
}

// RenderState is the fixed function state a draw requests. The renderer diffs it against the
// last applied state and only issues device calls for fields that changed.
type RenderState struct {
	CullMode           gputypes.CullMode
	DepthTestEnabled   bool
	DepthFunc          gputypes.CompareFunction
	BlendFunction      BlendFunction
	AlphaMaskThreshold float32
	LineWidth          float32
	DrawType           gputypes.PrimitiveTopology
	// Priority orders draws; higher values draw first.
	Priority int
}

// DefaultRenderState returns back face culling, a Less depth test, no blending, a line width of 1
// and triangle lists.
func DefaultRenderState() RenderState {
	return RenderState{
		CullMode:           gputypes.CullModeBack,
		DepthTestEnabled:   true,
		DepthFunc:          gputypes.CompareFunctionLess,
		BlendFunction:      BlendNone,
		AlphaMaskThreshold: 0.5,
		LineWidth:          1,
		DrawType:           gputypes.PrimitiveTopologyTriangleList,
	}
}

// IsTwoSided reports whether neither face is culled.
func (rs RenderState) IsTwoSided() bool {
	return rs.CullMode == gputypes.CullModeNone
}
