package binfmt

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/levcomp/internal/level/catalog"
	"github.com/cory-johannsen/levcomp/internal/level/ir"
)

// Names looks up catalog entries by index. *catalog.Catalog satisfies it.
type Names interface {
	Entry(k catalog.Kind, i int) (catalog.Entry, bool)
	Len(k catalog.Kind) int
}

// Dump renders a decoded level as a YAML document: the header, the level
// init record, and one entry per opcode with its payload fields flattened.
// Map grids are shown as rows of map characters. When names is non-nil,
// monster, object and trap ids are annotated with their catalog entry.
func Dump(file string, lvl *Level, names Names) *yaml.Node {
	doc := mapping()
	add(doc, "file", scalar(file))
	h := lvl.Header
	add(doc, "version", scalar(fmt.Sprintf("%d.%d.%d", h.Major, h.Minor, h.Patch)))
	add(doc, "features", features(h.Features))
	add(doc, "init", fields(reflect.ValueOf(lvl.Init)))

	ops := &yaml.Node{Kind: yaml.SequenceNode}
	for _, op := range lvl.Ops {
		entry := mapping()
		add(entry, "op", scalar(op.Kind.String()))
		switch pl := op.Payload.(type) {
		case nil:
		case *ir.Map:
			add(entry, "args", grid(pl))
		default:
			add(entry, "args", fields(reflect.ValueOf(pl).Elem()))
		}
		if names != nil {
			if k, id, ok := catalogRef(op.Payload); ok && id != ir.Random {
				add(entry, "catalog", entryNode(names, k, id))
			}
		}
		ops.Content = append(ops.Content, entry)
	}
	add(doc, "ops", ops)
	return doc
}

// catalogRef returns the catalog id an opcode payload refers to.
func catalogRef(payload any) (catalog.Kind, int, bool) {
	switch pl := payload.(type) {
	case *ir.Monster:
		return catalog.Monsters, int(pl.ID), true
	case *ir.Object:
		return catalog.Objects, int(pl.ID), true
	case *ir.Trap:
		return catalog.Traps, int(pl.Type), true
	}
	return 0, 0, false
}

func entryNode(names Names, k catalog.Kind, id int) *yaml.Node {
	e, ok := names.Entry(k, id)
	if !ok {
		return scalar(fmt.Sprintf("no %s %d in a catalog of %d", k, id, names.Len(k)))
	}
	n := mapping()
	add(n, "name", scalar(e.Name))
	if e.Class != "" {
		add(n, "class", scalar(e.Class))
	}
	return n
}

func mapping() *yaml.Node { return &yaml.Node{Kind: yaml.MappingNode} }

func scalar(v any) *yaml.Node {
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(v)}
	}
	return n
}

func add(m *yaml.Node, key string, val *yaml.Node) {
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, val)
}

func features(bits uint32) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, f := range []struct {
		bit  uint32
		name string
	}{
		{FeatureNamedStrings, "named_strings"},
		{FeatureControlFlow, "control_flow"},
		{FeatureContainers, "containers"},
	} {
		if bits&f.bit != 0 {
			seq.Content = append(seq.Content, scalar(f.name))
		}
	}
	return seq
}

// fields flattens a struct into a mapping keyed by snake_case field names.
// Embedded structs are inlined and Coord values are written as [x, y].
func fields(v reflect.Value) *yaml.Node {
	m := mapping()
	var walk func(v reflect.Value)
	walk = func(v reflect.Value) {
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			fv := v.Field(i)
			if f.Anonymous && fv.Kind() == reflect.Struct {
				walk(fv)
				continue
			}
			add(m, snake(f.Name), value(fv))
		}
	}
	walk(v)
	return m
}

func value(v reflect.Value) *yaml.Node {
	switch x := v.Interface().(type) {
	case ir.Coord:
		return pair(int(x.X), int(x.Y))
	case ir.Area:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, n := range []int8{x.X1, x.Y1, x.X2, x.Y2} {
			seq.Content = append(seq.Content, scalar(n))
		}
		return seq
	}
	if v.Kind() == reflect.Struct {
		return fields(v)
	}
	return scalar(v.Interface())
}

func pair(x, y int) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle, Content: []*yaml.Node{scalar(x), scalar(y)}}
}

func grid(m *ir.Map) *yaml.Node {
	n := mapping()
	add(n, "halign", scalar(m.HAlign))
	add(n, "valign", scalar(m.VAlign))
	if m.Grid == nil {
		return n
	}
	add(n, "size", pair(m.Grid.Width, m.Grid.Height))
	if len(m.Grid.Rows) == 0 {
		return n
	}
	var sb strings.Builder
	for _, row := range m.Grid.Rows {
		for _, t := range row {
			c := t.Char()
			if c == 0 {
				c = '?'
			}
			sb.WriteByte(c)
		}
		sb.WriteByte('\n')
	}
	rows := scalar(sb.String())
	rows.Style = yaml.LiteralStyle
	add(n, "rows", rows)
	return n
}

// snake converts a Go field name such as "HAlign", "ID" or "ExcludeInLevel"
// to "h_align", "id" and "exclude_in_level".
func snake(name string) string {
	rs := []rune(name)
	var sb strings.Builder
	for i, r := range rs {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := rs[i-1] >= 'a' && rs[i-1] <= 'z'
			nextLower := i+1 < len(rs) && rs[i+1] >= 'a' && rs[i+1] <= 'z'
			if prevLower || nextLower {
				sb.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
