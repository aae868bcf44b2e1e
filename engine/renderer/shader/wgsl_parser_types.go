package shader

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField is a single struct member extracted from WGSL source.
type parsedField struct {
	name      string
	typeName  string
	isBuiltin bool
}

// parsedStruct is a WGSL struct block extracted from source.
type parsedStruct struct {
	name   string
	fields []parsedField
}

// UniformMember is one member of a program's uniform block.
type UniformMember struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// UniformLayout is the byte layout of the `Uniforms` struct a WGSL program binds at group 0.
type UniformLayout struct {
	Members []UniformMember
	Size    uint64
}

// Member looks a member up by name.
func (l UniformLayout) Member(name string) (UniformMember, bool) {
	for _, m := range l.Members {
		if m.Name == name {
			return m, true
		}
	}
	return UniformMember{}, false
}

// TextureDimension is the view dimension of a sampled texture binding.
type TextureDimension int

const (
	// TextureDimension2D is texture_2d.
	TextureDimension2D TextureDimension = iota
	// TextureDimension2DArray is texture_2d_array.
	TextureDimension2DArray
	// TextureDimensionCube is texture_cube.
	TextureDimensionCube
	// TextureDimensionDepth2D is texture_depth_2d.
	TextureDimensionDepth2D
)

// TextureBinding is a texture slot declared by a program.
type TextureBinding struct {
	Slot      int
	Name      string
	Dimension TextureDimension
}
