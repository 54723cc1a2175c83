package gram_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/gram"
	"github.com/stewi1014/avtape/schema"
)

func dump(t *testing.T, sym gram.Symbol) string {
	t.Helper()
	var sb strings.Builder
	td.Require(t).CmpNoError(gram.Dump(&sb, sym))
	return sb.String()
}

var schemas = []string{
	`"null"`,
	`"boolean"`,
	`"double"`,
	`{"type": "fixed", "name": "F", "size": 8}`,
	`{"type": "enum", "name": "E", "symbols": ["A", "B"]}`,
	`{"type": "array", "items": {"type": "map", "values": "bytes"}}`,
	`["null", "string", {"type": "array", "items": "long"}]`,
	`{"type": "record", "name": "R", "fields": [
		{"name": "a", "type": "int"},
		{"name": "b", "type": ["null", {"type": "record", "name": "S", "fields": [{"name": "c", "type": "float"}]}]},
		{"name": "d", "type": {"type": "map", "values": "float"}}
	]}`,
}

func TestReflexivity(t *testing.T) {
	for _, desc := range schemas {
		t.Run(desc, func(t *testing.T) {
			s := schema.MustParse(desc)
			simple := dump(t, gram.GenerateSimple(s))

			same, err := gram.Generate(s, s)
			td.Require(t).CmpNoError(err)
			if diff := cmp.Diff(simple, dump(t, same)); diff != "" {
				t.Errorf("same schema (-simple +resolved):\n%v", diff)
			}

			resolved, err := gram.Generate(s, schema.MustParse(desc))
			td.Require(t).CmpNoError(err)
			if diff := cmp.Diff(simple, dump(t, resolved)); diff != "" {
				t.Errorf("equal schema (-simple +resolved):\n%v", diff)
			}
		})
	}
}

func TestSimpleRecord(t *testing.T) {
	s := schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}, {"name": "b", "type": "string"}]}`)
	seq, ok := gram.GenerateSimple(s).Start().(*gram.Sequence)
	td.Require(t).True(ok)
	td.Require(t).Len(seq.Production, 3)

	// Processed from the end.
	td.Cmp(t, seq.Production[0], gram.String)
	td.Cmp(t, seq.Production[1], gram.Int)
	order, ok := seq.Production[2].(*gram.FieldOrderAction)
	td.Require(t).True(ok)
	td.Cmp(t, order.NoReorder, true)
	td.Cmp(t, order.String(), "field-order[a b]")
}

func TestResolvedRecord(t *testing.T) {
	w := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "a", "type": "int"},
		{"name": "gone", "type": "string"}
	]}`)
	r := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "flag", "type": "boolean", "default": true},
		{"name": "a", "type": "long"}
	]}`)

	root, err := gram.Generate(w, r)
	td.Require(t).CmpNoError(err)
	seq := root.Start().(*gram.Sequence)
	td.Require(t).Len(seq.Production, 6)

	p := seq.Production
	order := p[5].(*gram.FieldOrderAction)
	td.Cmp(t, order.String(), "field-order[a flag]")
	td.Cmp(t, order.NoReorder, false)

	td.Cmp(t, p[4], td.Struct(&gram.ResolvingAction{Writer: gram.Int, Reader: gram.Long}, nil))
	td.Cmp(t, p[3], td.Isa(&gram.SkipAction{}))
	td.Cmp(t, p[2], td.Struct(&gram.DefaultStartAction{Contents: []byte{1}}, nil))
	td.Cmp(t, p[1], gram.Boolean)
	td.Cmp(t, p[0], gram.DefaultEnd)
}

func TestBadDefault(t *testing.T) {
	w := schema.MustParse(`{"type": "record", "name": "R", "fields": []}`)
	testCases := []struct {
		desc  string
		field string
	}{
		{desc: "string for int", field: `{"name": "n", "type": "int", "default": "one"}`},
		{desc: "fractional int", field: `{"name": "n", "type": "int", "default": 1.9}`},
		{desc: "fixed too long", field: `{"name": "f", "type": {"type": "fixed", "name": "F", "size": 2}, "default": "abcdef"}`},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			r := schema.MustParse(`{"type": "record", "name": "R", "fields": [` + tC.field + `]}`)
			_, err := gram.Generate(w, r)
			td.Cmp(t, errors.Is(err, encio.ErrBadType), true, "got %v", err)
		})
	}
}

func TestEnumAdjust(t *testing.T) {
	w := schema.MustParse(`{"type": "enum", "name": "E", "symbols": ["A", "B", "C"]}`)
	r := schema.MustParse(`{"type": "enum", "name": "E", "symbols": ["C", "A"]}`)
	root, err := gram.Generate(w, r)
	td.Require(t).CmpNoError(err)

	seq := root.Start().(*gram.Sequence)
	td.Cmp(t, seq.Production[1], gram.Enum)
	adj := seq.Production[0].(*gram.EnumAdjustAction)

	testCases := []struct {
		desc    string
		ordinal int
		reader  int
		message string
		ok      bool
	}{
		{desc: "A", ordinal: 0, reader: 1, ok: true},
		{desc: "B", ordinal: 1, message: "no match for B", ok: true},
		{desc: "C", ordinal: 2, reader: 0, ok: true},
		{desc: "out of range", ordinal: 3},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			n, msg, ok := adj.Adjust(tC.ordinal)
			td.Cmp(t, ok, tC.ok)
			td.Cmp(t, n, tC.reader)
			td.Cmp(t, msg, tC.message)
		})
	}
}

func TestUnions(t *testing.T) {
	t.Run("reader union", func(t *testing.T) {
		root, err := gram.Generate(schema.MustParse(`"int"`), schema.MustParse(`["null", "long"]`))
		td.Require(t).CmpNoError(err)
		seq := root.Start().(*gram.Sequence)
		td.Cmp(t, seq.Production[1], gram.Union)
		td.Cmp(t, seq.Production[0], td.Struct(&gram.UnionAdjustAction{ReaderIndex: 1}, nil))
	})

	t.Run("writer union", func(t *testing.T) {
		root, err := gram.Generate(schema.MustParse(`["null", "int"]`), schema.MustParse(`["int", "null"]`))
		td.Require(t).CmpNoError(err)
		seq := root.Start().(*gram.Sequence)
		td.Cmp(t, seq.Production[1], gram.WriterUnion)
		alt := seq.Production[0].(*gram.Alternative)
		td.Cmp(t, alt.Labels, []string{"null", "int"})
		td.Cmp(t, alt.FindLabel("int"), 1)
		td.Cmp(t, alt.FindLabel("long"), -1)
		_, ok := alt.Symbol(2)
		td.Cmp(t, ok, false)
	})
}

// chain returns depth mutually recursive records, R0 -> R1 -> ... -> R0.
func chain(depth int, extra string) string {
	var sb strings.Builder
	for i := 0; i < depth; i++ {
		fmt.Fprintf(&sb, `{"type": "record", "name": "R%d", "fields": [{"name": "v", "type": "int"}%v, {"name": "next", "type": ["null", `, i, extra)
	}
	sb.WriteString(`"R0"`)
	for i := 0; i < depth; i++ {
		sb.WriteString(`]}]}`)
	}
	return sb.String()
}

func TestRecursion(t *testing.T) {
	for _, depth := range []int{1, 5} {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			w := schema.MustParse(chain(depth, ""))
			r := schema.MustParse(chain(depth, `, {"name": "d", "type": "boolean", "default": false}`))

			simple := dump(t, gram.GenerateSimple(w))
			td.Cmp(t, strings.Count(simple, "-> #1"), 1)

			root, err := gram.Generate(w, r)
			td.Require(t).CmpNoError(err)
			resolved := dump(t, root)
			td.Cmp(t, strings.Count(resolved, "-> #1"), 1)
			td.Cmp(t, strings.Count(resolved, "field-order"), depth)
		})
	}
}

type handler struct {
	actions []string
}

func (h *handler) DoAction(input gram.Symbol, top gram.ImplicitAction) (gram.Symbol, error) {
	h.actions = append(h.actions, top.String())
	switch t := top.(type) {
	case *gram.FieldOrderAction:
		if input == gram.FieldAction {
			return t, nil
		}
	case *gram.ResolvingAction:
		return t.Writer, nil
	}
	return nil, nil
}

func TestParser(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		p := gram.NewParser(gram.GenerateSimple(schema.MustParse(`{"type": "array", "items": "int"}`)), new(handler))
		for _, in := range []gram.Symbol{gram.ArrayStart, gram.Int, gram.Int, gram.ArrayEnd} {
			got, err := p.Advance(in)
			td.CmpNoError(t, err)
			td.Cmp(t, got, in)
		}
		td.Cmp(t, p.Depth(), 1)

		// The root repeats.
		got, err := p.Advance(gram.ArrayStart)
		td.CmpNoError(t, err)
		td.Cmp(t, got, gram.ArrayStart)
	})

	t.Run("map", func(t *testing.T) {
		p := gram.NewParser(gram.GenerateSimple(schema.MustParse(`{"type": "map", "values": "boolean"}`)), new(handler))
		for _, in := range []gram.Symbol{gram.MapStart, gram.String, gram.Boolean, gram.MapEnd} {
			got, err := p.Advance(in)
			td.CmpNoError(t, err)
			td.Cmp(t, got, in)
		}
	})

	t.Run("promotion", func(t *testing.T) {
		root, err := gram.Generate(schema.MustParse(`"int"`), schema.MustParse(`"double"`))
		td.Require(t).CmpNoError(err)
		p := gram.NewParser(root, new(handler))
		got, err := p.Advance(gram.Double)
		td.CmpNoError(t, err)
		td.Cmp(t, got, gram.Int)
	})

	t.Run("trailing skip", func(t *testing.T) {
		root, err := gram.Generate(
			schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}, {"name": "b", "type": "string"}]}`),
			schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}]}`),
		)
		td.Require(t).CmpNoError(err)
		h := new(handler)
		p := gram.NewParser(root, h)

		got, err := p.Advance(gram.FieldAction)
		td.CmpNoError(t, err)
		td.Cmp(t, got, td.Isa(&gram.FieldOrderAction{}))
		got, err = p.Advance(gram.Int)
		td.CmpNoError(t, err)
		td.Cmp(t, got, gram.Int)

		td.CmpNoError(t, p.ProcessTrailingImplicitActions())
		td.Cmp(t, h.actions, []string{"field-order[a]", "skip(string)"})
		td.Cmp(t, p.Depth(), 1)
	})

	t.Run("mismatch", func(t *testing.T) {
		p := gram.NewParser(gram.GenerateSimple(schema.MustParse(`"string"`)), new(handler))
		_, err := p.Advance(gram.Long)
		td.Cmp(t, errors.Is(err, encio.ErrBadType), true)
	})

	t.Run("pop and push", func(t *testing.T) {
		p := gram.NewParser(gram.GenerateSimple(schema.MustParse(`["null", "int"]`)), new(handler))
		_, err := p.Advance(gram.Union)
		td.Require(t).CmpNoError(err)
		alt, ok := p.PopSymbol().(*gram.Alternative)
		td.Require(t).True(ok)
		branch, _ := alt.Symbol(1)
		p.PushSymbol(branch)
		td.Cmp(t, p.TopSymbol(), gram.Int)
		p.Reset()
		td.Cmp(t, p.Depth(), 1)
		td.Cmp(t, p.PopSymbol(), nil)
	})
}
