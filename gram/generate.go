package gram

import (
	"fmt"

	"github.com/stewi1014/avtape/resolve"
	"github.com/stewi1014/avtape/schema"
	"github.com/stewi1014/avtape/wire"
)

// Generate returns the grammar reading data written with writer as reader.
func Generate(writer, reader *schema.Schema) (*Root, error) {
	start, err := NewGenerator().Generate(resolve.Resolve(writer, reader))
	if err != nil {
		return nil, err
	}
	return NewRoot(start), nil
}

// GenerateSimple returns the grammar of a single schema, for writing or for reading without resolution.
func GenerateSimple(s *schema.Schema) *Root {
	return NewRoot(NewGenerator().Simple(s))
}

// NewGenerator returns a Generator with an empty memo.
func NewGenerator() *Generator {
	return &Generator{seen: make(map[interface{}]*Sequence)}
}

// Generator turns resolution actions and schemas into grammars.
// Records are memoized by the identity of their *resolve.RecordAdjust or *schema.Schema,
// so recursive records give cyclic grammars.
// A Generator is not safe for concurrent use.
type Generator struct {
	seen map[interface{}]*Sequence
}

// Generate returns the symbol implementing the action.
func (g *Generator) Generate(action resolve.Action) (Symbol, error) {
	switch a := action.(type) {
	case *resolve.DoNothing:
		return g.Simple(a.Writer()), nil

	case *resolve.Error:
		return &ErrorAction{Message: a.Message()}, nil

	case *resolve.Skip:
		return &SkipAction{Symbol: g.Simple(a.Writer()), Schema: a.Writer()}, nil

	case *resolve.Promote:
		return &ResolvingAction{Writer: g.Simple(a.Writer()), Reader: g.Simple(a.Reader())}, nil

	case *resolve.ReaderUnion:
		s, err := g.Generate(a.Actual)
		if err != nil {
			return nil, err
		}
		return Seq(&UnionAdjustAction{ReaderIndex: a.FirstMatch, Symbol: s}, Union), nil

	case *resolve.Container:
		es, err := g.Generate(a.Elem)
		if err != nil {
			return nil, err
		}
		if a.Writer().Type() == schema.Map {
			return Seq(Repeat(MapEnd, es, String), MapStart), nil
		}
		return Seq(Repeat(ArrayEnd, es), ArrayStart), nil

	case *resolve.WriterUnion:
		if a.UnionEquiv {
			return g.Simple(a.Reader()), nil
		}
		branches := a.Writer().Branches()
		symbols := make([]Symbol, len(a.Branches))
		labels := make([]string, len(a.Branches))
		for i, ba := range a.Branches {
			s, err := g.Generate(ba)
			if err != nil {
				return nil, err
			}
			symbols[i] = s
			labels[i] = branches[i].FullName()
		}
		return Seq(Alt(symbols, labels), WriterUnion), nil

	case *resolve.EnumAdjust:
		adj := &EnumAdjustAction{
			ReaderSize:    len(a.Reader().Symbols()),
			Adjustments:   a.Adjustments,
			Messages:      make([]string, len(a.Adjustments)),
			NoAdjustments: a.NoAdjustments,
		}
		for i := range a.Adjustments {
			adj.Messages[i] = a.Message(i)
		}
		return Seq(adj, Enum), nil

	case *resolve.RecordAdjust:
		if seq, ok := g.seen[a]; ok {
			return seq, nil
		}

		defaults := a.Defaults()
		count := 1 + len(a.FieldActions) + 3*len(defaults)
		production := make([]Symbol, count)
		seq := Seq(production...)
		// The placeholder is memoized before its children are generated; recursive references get it as is.
		g.seen[a] = seq

		count--
		production[count] = NewFieldOrder(a.ReaderOrder)
		for _, fa := range a.FieldActions {
			s, err := g.Generate(fa)
			if err != nil {
				return nil, err
			}
			count--
			production[count] = s
		}
		for _, rf := range defaults {
			def, _ := rf.Default()
			contents, err := wire.EncodeDefault(rf.Schema(), def)
			if err != nil {
				return nil, fmt.Errorf("default of %v.%v: %w", a.Reader().FullName(), rf.Name(), err)
			}
			production[count-1] = &DefaultStartAction{Contents: contents}
			production[count-2] = g.Simple(rf.Schema())
			production[count-3] = DefaultEnd
			count -= 3
		}
		return seq, nil
	}
	panic(fmt.Sprintf("gram: unknown action %T", action))
}

// Simple returns the symbol reading or writing s as is.
func (g *Generator) Simple(s *schema.Schema) Symbol {
	switch s.Type() {
	case schema.Null:
		return Null
	case schema.Boolean:
		return Boolean
	case schema.Int:
		return Int
	case schema.Long:
		return Long
	case schema.Float:
		return Float
	case schema.Double:
		return Double
	case schema.Bytes:
		return Bytes
	case schema.String:
		return String

	case schema.Fixed:
		return Seq(&IntCheckAction{Size: s.Size()}, Fixed)

	case schema.Enum:
		return Seq(&EnumAdjustAction{ReaderSize: len(s.Symbols()), NoAdjustments: true}, Enum)

	case schema.Array:
		return Seq(Repeat(ArrayEnd, g.Simple(s.Items())), ArrayStart)

	case schema.Map:
		return Seq(Repeat(MapEnd, g.Simple(s.Values()), String), MapStart)

	case schema.Union:
		branches := s.Branches()
		symbols := make([]Symbol, len(branches))
		labels := make([]string, len(branches))
		for i, b := range branches {
			symbols[i] = g.Simple(b)
			labels[i] = b.FullName()
		}
		return Seq(Alt(symbols, labels), Union)

	case schema.Record:
		if seq, ok := g.seen[s]; ok {
			return seq
		}
		fields := s.Fields()
		production := make([]Symbol, len(fields)+1)
		seq := Seq(production...)
		g.seen[s] = seq

		i := len(production) - 1
		// The field order is declared even though it is unchanged; readers ask for it regardless.
		production[i] = NewFieldOrder(fields)
		for _, f := range fields {
			i--
			production[i] = g.Simple(f.Schema())
		}
		return seq
	}
	panic(fmt.Sprintf("gram: unknown schema type %v", s.Type()))
}
