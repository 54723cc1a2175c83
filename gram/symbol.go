package gram

import (
	"fmt"
	"strings"

	"github.com/stewi1014/avtape/schema"
)

// Kind classifies symbols for the parser.
type Kind uint8

// Symbol kinds.
const (
	KindTerminal Kind = iota
	KindRoot
	KindSequence
	KindRepeater
	KindAlternative
	KindImplicitAction
	KindExplicitAction
)

// Symbol is a node of a grammar. The set of symbols is closed; it is one of
// *Terminal, *Root, *Sequence, *Repeater, *Alternative, or one of the action types below.
type Symbol interface {
	Kind() Kind
	String() string
	symbol()
}

// ImplicitAction is an action the parser hands to its ActionHandler when it reaches it.
// Trailing actions are also run once the value before them has been read.
type ImplicitAction interface {
	Symbol
	Trailing() bool
}

// Terminal is a primitive token.
type Terminal struct {
	name string
}

func (*Terminal) Kind() Kind       { return KindTerminal }
func (t *Terminal) String() string { return t.name }
func (*Terminal) symbol()          {}

// Terminals. Symbols are compared by identity, so these are the only instances.
var (
	Null       = &Terminal{"null"}
	Boolean    = &Terminal{"boolean"}
	Int        = &Terminal{"int"}
	Long       = &Terminal{"long"}
	Float      = &Terminal{"float"}
	Double     = &Terminal{"double"}
	String     = &Terminal{"string"}
	Bytes      = &Terminal{"bytes"}
	Fixed      = &Terminal{"fixed"}
	Enum       = &Terminal{"enum"}
	Union      = &Terminal{"union"}
	ArrayStart = &Terminal{"array-start"}
	ArrayEnd   = &Terminal{"array-end"}
	MapStart   = &Terminal{"map-start"}
	MapEnd     = &Terminal{"map-end"}

	// FieldAction is the input used to ask for a record's field order.
	FieldAction = &Terminal{"field-action"}
)

// Root is the start symbol of a grammar. Its production repeats the grammar after each value.
type Root struct {
	Production []Symbol
}

// NewRoot returns a root for the grammar starting at start.
func NewRoot(start Symbol) *Root {
	r := new(Root)
	r.Production = []Symbol{r, start}
	return r
}

func (*Root) Kind() Kind     { return KindRoot }
func (*Root) String() string { return "root" }
func (*Root) symbol()        {}

// Start returns the grammar's start symbol.
func (r *Root) Start() Symbol { return r.Production[1] }

// Sequence is an ordered production. The parser pushes it onto its stack as is,
// so the last element of Production is processed first.
type Sequence struct {
	Production []Symbol
}

// Seq returns a sequence of the given symbols. Like Production, symbols are given in reverse processing order.
func Seq(production ...Symbol) *Sequence {
	return &Sequence{Production: production}
}

func (*Sequence) Kind() Kind       { return KindSequence }
func (s *Sequence) String() string { return fmt.Sprintf("seq(%d)", len(s.Production)) }
func (*Sequence) symbol()          {}

// Repeater is the body of an array or map. It repeats until End is asked for.
type Repeater struct {
	End Symbol
	// Production holds the Repeater itself followed by the body, in reverse processing order.
	Production []Symbol
}

// Repeat returns a repeater of body, which is given in reverse processing order.
func Repeat(end Symbol, body ...Symbol) *Repeater {
	r := &Repeater{End: end}
	r.Production = append([]Symbol{r}, body...)
	return r
}

func (*Repeater) Kind() Kind       { return KindRepeater }
func (r *Repeater) String() string { return "repeat(" + r.End.String() + ")" }
func (*Repeater) symbol()          {}

// Body returns the repeated symbols.
func (r *Repeater) Body() []Symbol { return r.Production[1:] }

// Alternative is the choice of a union branch.
type Alternative struct {
	Symbols []Symbol
	Labels  []string
}

// Alt returns an alternative over symbols, labelled by the branches' full names.
func Alt(symbols []Symbol, labels []string) *Alternative {
	return &Alternative{Symbols: symbols, Labels: labels}
}

func (*Alternative) Kind() Kind { return KindAlternative }
func (a *Alternative) String() string {
	return "alt(" + strings.Join(a.Labels, "|") + ")"
}
func (*Alternative) symbol() {}

// Symbol returns the symbol of branch i.
func (a *Alternative) Symbol(i int) (Symbol, bool) {
	if i < 0 || i >= len(a.Symbols) {
		return nil, false
	}
	return a.Symbols[i], true
}

// FindLabel returns the index of the branch with the given label, or -1.
func (a *Alternative) FindLabel(label string) int {
	for i, l := range a.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

type implicit struct{}

func (implicit) Kind() Kind     { return KindImplicitAction }
func (implicit) Trailing() bool { return false }
func (implicit) symbol()        {}

type explicit struct{}

func (explicit) Kind() Kind { return KindExplicitAction }
func (explicit) symbol()    {}

// FieldOrderAction starts a record and declares the order its reader fields are decoded in.
type FieldOrderAction struct {
	implicit
	Fields []*schema.Field
	// NoReorder is set when the fields are decoded in reader declaration order.
	NoReorder bool
}

// NewFieldOrder returns a FieldOrderAction for fields.
func NewFieldOrder(fields []*schema.Field) *FieldOrderAction {
	a := &FieldOrderAction{Fields: fields, NoReorder: true}
	for i, f := range fields {
		if f.Pos() != i {
			a.NoReorder = false
		}
	}
	return a
}

func (a *FieldOrderAction) String() string {
	names := make([]string, len(a.Fields))
	for i, f := range a.Fields {
		names[i] = f.Name()
	}
	return "field-order[" + strings.Join(names, " ") + "]"
}

// ResolvingAction reads a Writer symbol where the reader asks for Reader.
type ResolvingAction struct {
	implicit
	Writer, Reader Symbol
}

func (a *ResolvingAction) String() string {
	return "resolve(" + a.Writer.String() + "->" + a.Reader.String() + ")"
}

// SkipAction discards a writer value the reader does not use.
type SkipAction struct {
	Symbol Symbol
	Schema *schema.Schema
}

func (*SkipAction) Kind() Kind       { return KindImplicitAction }
func (*SkipAction) Trailing() bool   { return true }
func (*SkipAction) symbol()          {}
func (a *SkipAction) String() string { return "skip(" + a.Schema.FullName() + ")" }

// WriterUnionAction reads the writer's union index and replaces the Alternative below it with the chosen branch.
type WriterUnionAction struct {
	implicit
	name string
}

func (a *WriterUnionAction) String() string { return a.name }

// ErrorAction fails decoding when reached.
type ErrorAction struct {
	implicit
	Message string
}

func (a *ErrorAction) String() string { return "error(" + a.Message + ")" }

// DefaultStartAction switches decoding to Contents, the encoded default of a reader field.
type DefaultStartAction struct {
	implicit
	Contents []byte
}

func (a *DefaultStartAction) String() string { return fmt.Sprintf("default-start(%x)", a.Contents) }

// DefaultEndAction switches decoding back from a default.
type DefaultEndAction struct {
	name string
}

func (*DefaultEndAction) Kind() Kind       { return KindImplicitAction }
func (*DefaultEndAction) Trailing() bool   { return true }
func (*DefaultEndAction) symbol()          {}
func (a *DefaultEndAction) String() string { return a.name }

// Action singletons.
var (
	WriterUnion = &WriterUnionAction{name: "writer-union"}
	DefaultEnd  = &DefaultEndAction{name: "default-end"}
)

// EnumAdjustAction maps the ordinal read after Enum.
type EnumAdjustAction struct {
	explicit
	// ReaderSize is the number of reader symbols.
	ReaderSize int
	// Adjustments holds the reader ordinal for each writer ordinal; negative entries fail with the matching Messages entry.
	Adjustments []int
	Messages    []string
	// NoAdjustments is set when ordinals are read as is.
	NoAdjustments bool
}

func (a *EnumAdjustAction) String() string {
	if a.NoAdjustments {
		return fmt.Sprintf("enum-adjust(%d)", a.ReaderSize)
	}
	return fmt.Sprintf("enum-adjust(%d %v)", a.ReaderSize, a.Adjustments)
}

// Adjust returns the reader ordinal of writer ordinal n.
func (a *EnumAdjustAction) Adjust(n int) (int, string, bool) {
	if a.NoAdjustments {
		return n, "", n >= 0 && n < a.ReaderSize
	}
	if n < 0 || n >= len(a.Adjustments) {
		return 0, "", false
	}
	if a.Adjustments[n] < 0 {
		return 0, a.Messages[n], true
	}
	return a.Adjustments[n], "", true
}

// IntCheckAction checks the size of a fixed value.
type IntCheckAction struct {
	explicit
	Size int
}

func (a *IntCheckAction) String() string { return fmt.Sprintf("size(%d)", a.Size) }

// UnionAdjustAction is the reader branch chosen for a non-union writer.
type UnionAdjustAction struct {
	explicit
	ReaderIndex int
	Symbol      Symbol
}

func (a *UnionAdjustAction) String() string {
	return fmt.Sprintf("union-adjust(%d %v)", a.ReaderIndex, a.Symbol)
}
