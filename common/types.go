// Package common contains math, geometry and small shared value types used throughout this engine.
// They are not interface-wrapped structs, just plain structs that express commonly used data-types.
package common

// Intersection is the result of a containment test between two volumes.
type Intersection int

const (
	// Outside means the tested volume is entirely outside.
	Outside Intersection = iota
	// Intersect means the tested volume straddles at least one boundary.
	Intersect
	// Inside means the tested volume is entirely inside.
	Inside
)

// String returns the lowercase name of the intersection result.
func (i Intersection) String() string {
	switch i {
	case Outside:
		return "outside"
	case Intersect:
		return "intersect"
	case Inside:
		return "inside"
	}
	return "unknown"
}

// TransformationSpace selects which frame a transform operation is expressed in.
type TransformationSpace int

const (
	// TSLocal applies the change relative to the node's parent.
	TSLocal TransformationSpace = iota
	// TSWorld applies the change in world coordinates.
	TSWorld
)
