package renderer

// Stats counts the device work of one frame.
type Stats struct {
	// DrawCalls is the number of meshes drawn.
	DrawCalls        int
	// StateChanges is the number of fixed function state calls issued.
	StateChanges     int
	ProgramBinds     int
	FramebufferBinds int
	TextureBinds     int
	// SkippedDraws counts draws dropped because their program could not be linked.
	SkippedDraws     int
}
