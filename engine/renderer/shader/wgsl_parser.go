package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// UniformStructName is the WGSL struct every program uses for its uniform block.
const UniformStructName = "Uniforms"

// TextureGroup is the bind group that holds texture and sampler pairs. Slot i uses binding 2*i
// for the texture and 2*i+1 for its sampler.
const TextureGroup = 1

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct member: optional attributes, name, colon, type
	fieldRegex = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)

	// textureVarRegex matches texture declarations in the texture group
	textureVarRegex = regexp.MustCompile(`@group\(\s*1\s*\)\s*@binding\(\s*(\d+)\s*\)\s*var\s+(\w+)\s*:\s*(texture_[\w]+)`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
)

// ParseUniformLayout computes the byte layout of the Uniforms struct in a WGSL source, following
// WGSL uniform address space alignment. Nested structs declared in the same source are resolved.
//
// Parameters:
//   - source: WGSL source code
//
// Returns:
//   - UniformLayout: member offsets and the padded struct size
//   - bool: false when the source has no resolvable Uniforms struct
func ParseUniformLayout(source string) (UniformLayout, bool) {
	structs := parseStructBlocks(stripComments(source))
	known := computeStructSizes(structs)

	for _, ps := range structs {
		if ps.name != UniformStructName {
			continue
		}
		var layout UniformLayout
		offset, maxAlign := uint64(0), uint64(16)
		for _, f := range ps.fields {
			if f.isBuiltin {
				continue
			}
			fl, ok := resolveTypeLayout(f.typeName, known)
			if !ok {
				return UniformLayout{}, false
			}
			offset = roundUpAlign(fl.align, offset)
			layout.Members = append(layout.Members, UniformMember{Name: f.name, Type: f.typeName, Offset: offset, Size: fl.size})
			offset += fl.size
			maxAlign = max(maxAlign, fl.align)
		}
		layout.Size = roundUpAlign(maxAlign, offset)
		return layout, true
	}
	return UniformLayout{}, false
}

// ParseTextureBindings lists the texture slots a WGSL source declares in TextureGroup, sorted by slot.
func ParseTextureBindings(source string) []TextureBinding {
	var out []TextureBinding
	for _, m := range textureVarRegex.FindAllStringSubmatch(stripComments(source), -1) {
		binding, err := strconv.Atoi(m[1])
		if err != nil || binding%2 != 0 {
			continue
		}
		tb := TextureBinding{Slot: binding / 2, Name: m[2]}
		switch {
		case strings.HasPrefix(m[3], "texture_depth_2d"):
			tb.Dimension = TextureDimensionDepth2D
		case strings.HasPrefix(m[3], "texture_2d_array"):
			tb.Dimension = TextureDimension2DArray
		case strings.HasPrefix(m[3], "texture_cube"):
			tb.Dimension = TextureDimensionCube
		default:
			tb.Dimension = TextureDimension2D
		}
		out = append(out, tb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// parseEntryPoint extracts the entry point function name for the given shader type
// from WGSL source. Returns an empty string if no matching entry point annotation is found.
func parseEntryPoint(source string, shaderType ShaderType) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source.
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{name: match[1], fields: parseStructFields(match[2])})
	}
	return structs
}

// parseStructFields splits a struct body into members.
func parseStructFields(body string) []parsedField {
	parts := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(part)
		if fm == nil {
			continue
		}
		fields = append(fields, parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			isBuiltin: builtinRegex.MatchString(part),
		})
	}
	return fields
}
