package softgl

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/taigrr/volshade/pkg/gpu"
)

var (
	versionRe = regexp.MustCompile(`^#version\s+300\s+es\s*$`)
	mainRe    = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(void)?\s*\)`)
	uniformRe = regexp.MustCompile(`^uniform\s+(?:(?:highp|mediump|lowp)\s+)?(\w+)\s+(\w+)\s*;$`)
	ioRe      = regexp.MustCompile(`^(?:layout\s*\([^)]*\)\s*)?(?:(flat|smooth)\s+)?(in|out)\s+(?:(?:highp|mediump|lowp)\s+)?(\w+)\s+(\w+)\s*;$`)
)

// glslTypes are the declaration types the front-end accepts.
var glslTypes = map[string]bool{
	"bool": true, "int": true, "float": true,
	"vec2": true, "vec3": true, "vec4": true,
	"ivec2": true, "ivec3": true, "ivec4": true,
	"mat3": true, "mat4": true,
	"sampler2D": true, "sampler3D": true,
}

// variable is a declared uniform or stage input/output.
type variable struct {
	Type string
	Name string
	Flat bool
	Line int
}

// iface is the interface of one compiled stage.
type iface struct {
	uniforms []variable
	inputs   []variable
	outputs  []variable
	// active holds uniform names referenced outside their declaration.
	active map[string]bool
}

// compileGLSL checks src for one stage and extracts its interface. The
// returned log uses the "ERROR: 0:<line>: <msg>" form of GLSL compilers.
func compileGLSL(stage gpu.Enum, src string) (*iface, string) {
	var diag diagnostics
	lines := strings.Split(stripComments(src), "\n")

	first := -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			first = i
			break
		}
	}
	if first < 0 || !versionRe.MatchString(strings.TrimSpace(lines[first])) {
		diag.add(max(first, 0)+1, "'' : version directive must be '#version 300 es' on the first line")
	}

	out := &iface{active: make(map[string]bool)}
	declared := make(map[string]int)

	for i, raw := range lines {
		l := strings.TrimSpace(raw)
		lineNo := i + 1

		if m := uniformRe.FindStringSubmatch(l); m != nil {
			v := variable{Type: m[1], Name: m[2], Line: lineNo}
			if !glslTypes[v.Type] {
				diag.add(lineNo, fmt.Sprintf("'%s' : unknown type", v.Type))
				continue
			}
			if prev, ok := declared[v.Name]; ok {
				diag.add(lineNo, fmt.Sprintf("'%s' : redefinition (first declared on line %d)", v.Name, prev))
				continue
			}
			declared[v.Name] = lineNo
			out.uniforms = append(out.uniforms, v)
			continue
		}

		if m := ioRe.FindStringSubmatch(l); m != nil {
			v := variable{Flat: m[1] == "flat", Type: m[3], Name: m[4], Line: lineNo}
			if !glslTypes[v.Type] || strings.HasPrefix(v.Type, "sampler") {
				diag.add(lineNo, fmt.Sprintf("'%s' : invalid type for a stage %s", v.Type, m[2]))
				continue
			}
			if m[2] == "in" {
				out.inputs = append(out.inputs, v)
			} else {
				out.outputs = append(out.outputs, v)
			}
		}
	}

	body := strings.Join(lines, "\n")
	if !mainRe.MatchString(body) {
		diag.add(len(lines), "'main' : function not defined")
	}
	if line, ok := balanced(lines); !ok {
		diag.add(line, "'' : unbalanced braces or parentheses")
	}
	if stage == gpu.FragmentShader && len(out.outputs) == 0 {
		diag.add(len(lines), "'' : fragment shader declares no output")
	}

	for _, u := range out.uniforms {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(u.Name) + `\b`)
		if len(re.FindAllStringIndex(body, -1)) > 1 {
			out.active[u.Name] = true
		}
	}

	if diag.empty() {
		return out, ""
	}
	return nil, diag.String()
}

// linkStages matches the vertex outputs against the fragment inputs and
// merges the active uniforms. Locations are assigned in name order.
func linkStages(vs, fs *iface) ([]variable, string) {
	var diag diagnostics

	outs := make(map[string]variable, len(vs.outputs))
	for _, o := range vs.outputs {
		outs[o.Name] = o
	}
	for _, in := range fs.inputs {
		o, ok := outs[in.Name]
		switch {
		case !ok:
			diag.addLink(fmt.Sprintf("fragment input '%s' has no matching vertex output", in.Name))
		case o.Type != in.Type:
			diag.addLink(fmt.Sprintf("type mismatch for varying '%s': %s vs %s", in.Name, o.Type, in.Type))
		case o.Flat != in.Flat:
			diag.addLink(fmt.Sprintf("interpolation mismatch for varying '%s'", in.Name))
		}
	}

	merged := make(map[string]variable)
	for _, st := range []*iface{vs, fs} {
		for _, u := range st.uniforms {
			if prev, ok := merged[u.Name]; ok && prev.Type != u.Type {
				diag.addLink(fmt.Sprintf("uniform '%s' declared as %s and %s", u.Name, prev.Type, u.Type))
				continue
			}
			if st.active[u.Name] {
				merged[u.Name] = u
			}
		}
	}

	if !diag.empty() {
		return nil, diag.String()
	}

	active := make([]variable, 0, len(merged))
	for _, u := range merged {
		active = append(active, u)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Name < active[j].Name })
	return active, ""
}

// stripComments blanks // and /* */ comments, keeping newlines so line
// numbers survive.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case strings.HasPrefix(src[i:], "/*"):
			i += 2
			for i < len(src) && !strings.HasPrefix(src[i:], "*/") {
				if src[i] == '\n' {
					b.WriteByte('\n')
				}
				i++
			}
			i++ // skip '/'
		default:
			b.WriteByte(src[i])
		}
	}
	return b.String()
}

// balanced reports whether braces and parentheses nest, and the line of the
// first offence otherwise.
func balanced(lines []string) (int, bool) {
	var stack []byte
	pair := map[byte]byte{'}': '{', ')': '('}
	for i, l := range lines {
		for j := 0; j < len(l); j++ {
			switch ch := l[j]; ch {
			case '{', '(':
				stack = append(stack, ch)
			case '}', ')':
				if len(stack) == 0 || stack[len(stack)-1] != pair[ch] {
					return i + 1, false
				}
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) > 0 {
		return len(lines), false
	}
	return 0, true
}

type diagnostics struct {
	lines []string
}

func (d *diagnostics) add(line int, msg string) {
	d.lines = append(d.lines, fmt.Sprintf("ERROR: 0:%d: %s", line, msg))
}

func (d *diagnostics) addLink(msg string) {
	d.lines = append(d.lines, "error: "+msg)
}

func (d *diagnostics) empty() bool {
	return len(d.lines) == 0
}

func (d *diagnostics) String() string {
	return strings.Join(d.lines, "\n") + "\n"
}
