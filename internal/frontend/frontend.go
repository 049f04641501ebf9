// Package frontend is the shared layer between level description parsers and
// the IR builder. A parser turns its surface syntax into Statements; Env
// decodes each Statement's arguments and drives the builder.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/cory-johannsen/levcomp/internal/diag"
	"github.com/cory-johannsen/levcomp/internal/level/builder"
	"github.com/cory-johannsen/levcomp/internal/level/catalog"
)

// Resolver maps monster, object and trap names to catalog indices.
// *catalog.Catalog satisfies it.
type Resolver interface {
	Lookup(k catalog.Kind, name string) (int, bool)
}

// Levels is the per-level lifecycle a parser drives. The compiler driver
// implements it.
type Levels interface {
	// Begin starts the level name declared at line and returns the builder
	// for its opcodes.
	Begin(name string, line int) (*builder.Builder, error)
	// End validates, encodes and releases the current level.
	End() error
}

// Parser compiles one source file. Syntax and semantic problems are reported
// on dc; the returned error is non-nil only when the run must stop.
type Parser interface {
	Parse(ctx context.Context, dc *diag.Context, src []byte, levels Levels) error
}

// Statement is one operation of a level body in parser-neutral form.
type Statement struct {
	Op   string
	Line int
	// TextLine is the line a map's text starts on. Zero means Line.
	TextLine int
	Args     map[string]any
	// Then runs the nested block of rooms, containers and chance blocks.
	Then func() error
	// Else runs the alternative block of a chance statement.
	Else func() error
}

// Env applies statements to the builder of one level.
type Env struct {
	b          *builder.Builder
	names      Resolver
	hook       mapstructure.DecodeHookFunc
	containers int
}

// NewEnv returns an Env driving b. names may be nil, in which case only
// numeric ids resolve.
//
// Precondition: b must be non-nil.
func NewEnv(b *builder.Builder, names Resolver) *Env {
	e := &Env{b: b, names: names}
	e.hook = mapstructure.ComposeDecodeHookFunc(
		rangeHook,
		e.referenceHook,
		namedValueHook,
		coordHook,
		areaHook,
		terrainHook,
	)
	return e
}

// Builder returns the builder statements are applied to.
func (e *Env) Builder() *builder.Builder { return e.b }

// Apply runs one statement. Unknown operations and malformed arguments are
// reported on the level's context.
//
// Postcondition: returns non-nil only when the run must stop.
func (e *Env) Apply(st Statement) error {
	ctx := e.b.Context()
	ctx.BeginDecl(st.Line)
	h, ok := handlers[st.Op]
	if !ok {
		return ctx.Errorf(diag.AtDeclaration, "unknown statement '%s'", st.Op)
	}
	return h(e, st)
}

// decode fills out from st.Args. ok is false when the arguments were
// rejected; err is non-nil only on run abort.
func (e *Env) decode(st Statement, out any) (ok bool, err error) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       e.hook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "des",
		Result:           out,
	})
	if err != nil {
		return false, e.b.Context().Errorf(diag.AtDeclaration, "%s: %v", st.Op, err)
	}
	if err := dec.Decode(st.Args); err != nil {
		return false, e.b.Context().Errorf(diag.AtDeclaration, "%s: %s", st.Op, strings.Join(argErrors(err), "; "))
	}
	return true, nil
}

// argErrors rewrites decoder errors in terms of argument names.
func argErrors(err error) []string {
	switch x := err.(type) {
	case *mapstructure.DecodeError:
		return []string{argError(x)}
	case interface{ Unwrap() []error }:
		var out []string
		for _, e := range x.Unwrap() {
			out = append(out, argErrors(e)...)
		}
		return out
	case interface{ Unwrap() error }:
		return argErrors(x.Unwrap())
	}
	return []string{err.Error()}
}

func argError(de *mapstructure.DecodeError) string {
	name := de.Name()
	nested := name != "" && !strings.Contains(name, "struct {")
	label := "arguments"
	if nested {
		label = "'" + name + "'"
	}

	inner := de.Unwrap()
	if keys, ok := strings.CutPrefix(inner.Error(), "has invalid keys: "); ok {
		if nested {
			keys = name + "." + strings.ReplaceAll(keys, ", ", ", "+name+".")
		}
		return "unknown argument(s) " + keys
	}
	if got, ok := strings.CutPrefix(inner.Error(), "expected a map or struct, got "); ok {
		return fmt.Sprintf("%s: want a table, got %s", label, kindWord(strings.Trim(got, `"`)))
	}
	var ute *mapstructure.UnconvertibleTypeError
	if errors.As(inner, &ute) {
		return fmt.Sprintf("%s: want %s, got %s", label, kindName(ute.Expected.Type()), kindName(reflect.TypeOf(ute.Value)))
	}
	var pe *mapstructure.ParseError
	if errors.As(inner, &pe) {
		return fmt.Sprintf("%s: invalid %s '%v'", label, kindName(pe.Expected.Type()), pe.Value)
	}
	return fmt.Sprintf("%s: %v", label, inner)
}

// kindName describes t the way level sources spell values.
func kindName(t reflect.Type) string {
	if t == nil {
		return "nothing"
	}
	return kindWord(t.Kind().String())
}

func kindWord(kind string) string {
	switch kind {
	case "struct", "map":
		return "a table"
	case "slice", "array":
		return "a list"
	case "string":
		return "a string"
	case "bool":
		return "a boolean"
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64",
		"float32", "float64":
		return "a number"
	}
	return kind
}

// appended runs add and reports whether it grew the program.
func (e *Env) appended(add func() error) (bool, error) {
	n := e.b.Program().Len()
	if err := add(); err != nil {
		return false, err
	}
	return e.b.Program().Len() > n, nil
}

// nested runs block and then closer at the statement's line.
func (e *Env) nested(st Statement, block func() error, closer func() error) error {
	if block != nil {
		if err := block(); err != nil {
			return err
		}
	}
	e.b.Context().BeginDecl(st.Line)
	return closer()
}

// Ops returns the statement names Apply understands.
func Ops() []string {
	ops := make([]string, 0, len(handlers))
	for op := range handlers {
		ops = append(ops, op)
	}
	return ops
}

// positional names the argument a statement written with a bare scalar
// fills, as in des.message("hello") or "- message: hello".
var positional = map[string]string{
	"map":             "map",
	"message":         "text",
	"random_objects":  "classes",
	"random_monsters": "classes",
	"engraving":       "text",
}

// PositionalArg returns the argument a bare scalar value of op fills.
func PositionalArg(op string) (string, bool) {
	key, ok := positional[op]
	return key, ok
}

func has(args map[string]any, key string) bool {
	_, ok := args[key]
	return ok
}
