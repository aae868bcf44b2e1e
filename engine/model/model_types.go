package model

// Vertex is one mesh vertex.
type Vertex struct {
	// Position is the vertex position in model space.
	Position [3]float32

	// Normal is the vertex normal in model space.
	Normal [3]float32

	// UV is the texture coordinate, with the origin at the top left of the image.
	UV [2]float32
}
