// pre_processor.go implements the WGSL pre-processor. It expands `//@oxy:include <chunk>` lines
// with registered WGSL chunks, once per chunk, and emits `const` declarations for shader defines,
// either at the `//@oxy:defines` marker or at the top of the source.
package shader

import (
	"fmt"
	"sort"
	"strings"
)

const (
	includeDirective = "//@oxy:include"
	definesDirective = "//@oxy:defines"
	maxIncludeDepth  = 8
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// chunks maps include names to WGSL source.
	chunks map[string]string
}

// PreProcessor expands include directives and applies defines to raw WGSL source.
type PreProcessor interface {
	// Process expands every include directive and inserts one `const NAME = value;` line per define,
	// sorted by name so equal define sets produce equal sources.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//   - defines: define names mapped to WGSL constant expressions, may be nil
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an include names an unregistered chunk or is malformed
	Process(source string, defines map[string]string) (string, error)

	// RegisterChunk adds or replaces an includable WGSL chunk.
	//
	// Parameters:
	//   - name: the name used after the include directive
	//   - source: the WGSL text to insert
	RegisterChunk(name, source string)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's shared WGSL chunks registered:
// light_data, camera_data, full_quad and vertex_io.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		chunks: map[string]string{
			"light_data":  GPULightDataSource,
			"camera_data": GPUCameraDataSource,
			"full_quad":   GPUFullQuadSource,
			"vertex_io":   GPUVertexIOSource,
		},
	}
}

func (p *preProcessor) RegisterChunk(name, source string) {
	p.chunks[name] = source
}

func (p *preProcessor) Process(source string, defines map[string]string) (string, error) {
	included := make(map[string]bool)
	out, definesPlaced, err := p.expand(source, defines, included, 0)
	if err != nil {
		return "", err
	}
	if !definesPlaced && len(defines) > 0 {
		out = append(defineLines(defines), out...)
	}
	return strings.Join(out, "\n"), nil
}

// expand replaces directives in source. Chunks may include other chunks; each chunk is emitted
// at most once per Process call.
func (p *preProcessor) expand(source string, defines map[string]string, included map[string]bool, depth int) ([]string, bool, error) {
	if depth > maxIncludeDepth {
		return nil, false, fmt.Errorf("includes nested deeper than %d", maxIncludeDepth)
	}
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	definesPlaced := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, includeDirective):
			args := strings.Fields(strings.TrimPrefix(trimmed, includeDirective))
			if len(args) != 1 {
				return nil, false, fmt.Errorf("line %d: include expects exactly one chunk name, got %d", i+1, len(args))
			}
			chunk, ok := p.chunks[args[0]]
			if !ok {
				return nil, false, fmt.Errorf("line %d: unknown include chunk %q", i+1, args[0])
			}
			if included[args[0]] {
				continue
			}
			included[args[0]] = true
			nested, placed, err := p.expand(strings.TrimRight(chunk, "\n"), defines, included, depth+1)
			if err != nil {
				return nil, false, fmt.Errorf("chunk %q: %w", args[0], err)
			}
			out = append(out, nested...)
			definesPlaced = definesPlaced || placed
		case trimmed == definesDirective:
			if !definesPlaced {
				out = append(out, defineLines(defines)...)
				definesPlaced = true
			}
		default:
			out = append(out, line)
		}
	}
	return out, definesPlaced, nil
}

// defineLines renders the defines as WGSL constants in name order.
func defineLines(defines map[string]string) []string {
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("const %s = %s;", name, defines[name]))
	}
	return lines
}
