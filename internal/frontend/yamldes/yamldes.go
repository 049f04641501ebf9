// Package yamldes reads level descriptions written as YAML:
//
//	levels:
//	  - name: oracle
//	    flags: [noteleport]
//	    init: {style: solidfill, fill: " "}
//	    body:
//	      - map: |
//	          ----
//	          |..|
//	          ----
//	      - room:
//	          name: centre
//	          contents:
//	            - monster: {id: oracle, pos: [2, 1]}
//	      - chance:
//	          percent: 40
//	          then:
//	            - fountain
//	      - wallify
//
// Each body entry is a bare statement name or a one-key mapping from the
// statement name to its arguments. Statement lines come from the YAML nodes.
package yamldes

import (
	"context"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/levcomp/internal/diag"
	"github.com/cory-johannsen/levcomp/internal/frontend"
)

// Parser compiles YAML level files.
type Parser struct {
	names frontend.Resolver
}

// New returns a Parser resolving catalog names through names, which may be
// nil.
func New(names frontend.Resolver) *Parser {
	return &Parser{names: names}
}

// file is the per-parse state.
type file struct {
	dc     *diag.Context
	levels frontend.Levels
	names  frontend.Resolver
	env    *frontend.Env
}

var yamlLine = regexp.MustCompile(`line (\d+):\s*(.*)`)

// Parse compiles every level in src.
//
// Postcondition: returns non-nil only on run abort or when ctx is done.
func (p *Parser) Parse(ctx context.Context, dc *diag.Context, src []byte, levels frontend.Levels) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		msg, line := err.Error(), 1
		if m := yamlLine.FindStringSubmatch(msg); m != nil {
			line, _ = strconv.Atoi(m[1])
			msg = m[2]
		}
		dc.At(line)
		return dc.Errorf(diag.AtToken, "syntax error: %s", msg)
	}
	f := &file{dc: dc, levels: levels, names: p.names}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return f.errorf(1, "no levels declared")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return f.errorf(root.Line, "expected a mapping with a levels list")
	}
	var list *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if key.Value != "levels" {
			if err := f.errorf(key.Line, "unknown top-level key '%s'", key.Value); err != nil {
				return err
			}
			continue
		}
		list = val
	}
	if list == nil || list.Kind != yaml.SequenceNode || len(list.Content) == 0 {
		return f.errorf(root.Line, "no levels declared")
	}
	for _, lvl := range list.Content {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.level(lvl); err != nil {
			return err
		}
	}
	return nil
}

func (f *file) errorf(line int, format string, args ...any) error {
	f.dc.BeginDecl(line)
	return f.dc.Errorf(diag.AtDeclaration, format, args...)
}

// level compiles one entry of the levels list.
func (f *file) level(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return f.errorf(n.Line, "level must be a mapping")
	}
	var (
		name               string
		flags, setup, body *yaml.Node
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "name":
			name = val.Value
		case "flags":
			flags = val
		case "init":
			setup = val
		case "body":
			body = val
		default:
			if err := f.errorf(key.Line, "unknown level key '%s'", key.Value); err != nil {
				return err
			}
		}
	}

	b, err := f.levels.Begin(name, n.Line)
	if err != nil {
		return err
	}
	f.env = frontend.NewEnv(b, f.names)
	defer func() { f.env = nil }()

	if flags != nil {
		v, err := f.value(flags)
		if err != nil {
			return err
		}
		if err := f.env.Apply(frontend.Statement{Op: "flags", Line: flags.Line, Args: map[string]any{"flags": v}}); err != nil {
			return err
		}
	}
	if setup != nil {
		st, err := f.args(frontend.Statement{Op: "init", Line: setup.Line}, setup)
		if err != nil {
			return err
		}
		if err := f.env.Apply(st); err != nil {
			return err
		}
	}
	if body != nil {
		if err := f.body(body); err != nil {
			return err
		}
	}
	return f.levels.End()
}

// body applies a list of statements.
func (f *file) body(seq *yaml.Node) error {
	if seq.Kind != yaml.SequenceNode {
		if seq.Tag == "!!null" {
			return nil
		}
		return f.errorf(seq.Line, "expected a list of statements")
	}
	for _, item := range seq.Content {
		if err := f.statement(item); err != nil {
			return err
		}
	}
	return nil
}

func (f *file) statement(item *yaml.Node) error {
	switch item.Kind {
	case yaml.ScalarNode:
		return f.env.Apply(frontend.Statement{Op: item.Value, Line: item.Line})
	case yaml.MappingNode:
		if len(item.Content) != 2 {
			return f.errorf(item.Line, "statement must be a mapping with a single key")
		}
	default:
		return f.errorf(item.Line, "statement must be a name or a single-key mapping")
	}

	key, val := item.Content[0], item.Content[1]
	st := frontend.Statement{Op: key.Value, Line: key.Line}
	switch {
	case val.Kind == yaml.ScalarNode && val.Tag == "!!null":
	case val.Kind == yaml.ScalarNode:
		arg, ok := frontend.PositionalArg(st.Op)
		if !ok {
			return f.errorf(key.Line, "%s expects a mapping of arguments", st.Op)
		}
		st.Args = map[string]any{arg: val.Value}
		st.TextLine = textLine(val)
	case val.Kind == yaml.MappingNode:
		var err error
		if st, err = f.args(st, val); err != nil {
			return err
		}
	default:
		return f.errorf(key.Line, "%s expects a mapping of arguments", st.Op)
	}
	return f.env.Apply(st)
}

// args decodes an argument mapping into st. The nested statement lists
// contents, then and else become the statement's blocks.
func (f *file) args(st frontend.Statement, m *yaml.Node) (frontend.Statement, error) {
	if m.Kind != yaml.MappingNode {
		return st, f.errorf(m.Line, "%s expects a mapping of arguments", st.Op)
	}
	st.Args = make(map[string]any, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i], m.Content[i+1]
		switch key.Value {
		case "contents", "then":
			st.Then = f.block(val)
			continue
		case "else":
			st.Else = f.block(val)
			continue
		case "map":
			st.TextLine = textLine(val)
		}
		v, err := f.value(val)
		if err != nil {
			return st, err
		}
		st.Args[key.Value] = v
	}
	return st, nil
}

func (f *file) block(seq *yaml.Node) func() error {
	return func() error { return f.body(seq) }
}

// value decodes a YAML node into plain Go values.
func (f *file) value(n *yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, f.errorf(n.Line, "%v", err)
	}
	return v, nil
}

// textLine is the first line of a scalar's text. Block scalars start on the
// line after their indicator.
func textLine(n *yaml.Node) int {
	if n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
		return n.Line + 1
	}
	return n.Line
}
