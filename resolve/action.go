// Package resolve plans how data written with one schema is read with another.
//
// Resolve walks a writer schema and a reader schema together and returns an Action tree
// describing, position by position, what the decoder must do: read as is, promote,
// skip, re-index an enum or union, reorder record fields, inject defaults, or fail.
// Failures found while planning are kept in the tree as Error actions, so that they only
// surface when data actually exercises them.
package resolve

import (
	"fmt"

	"github.com/stewi1014/avtape/schema"
)

// Action is the resolution of a writer schema against a reader schema.
// The set of actions is closed; it is one of
// *DoNothing, *Promote, *Skip, *Error, *Container, *WriterUnion, *ReaderUnion, *EnumAdjust or *RecordAdjust.
type Action interface {
	// Writer returns the writer schema this action resolves.
	Writer() *schema.Schema
	// Reader returns the reader schema this action resolves. It is nil for Skip.
	Reader() *schema.Schema

	fmt.Stringer
	action()
}

type pair struct {
	writer, reader *schema.Schema
}

func (p pair) Writer() *schema.Schema { return p.writer }
func (p pair) Reader() *schema.Schema { return p.reader }
func (pair) action()                  {}

// DoNothing is returned when writer and reader are the same at this position.
type DoNothing struct{ pair }

func (a *DoNothing) String() string { return "DoNothing(" + a.writer.FullName() + ")" }

// Promote widens a writer value to the reader's type.
// Legal promotions are int to long, float or double; long to float or double; float to double;
// and string to bytes or bytes to string.
type Promote struct{ pair }

func (a *Promote) String() string {
	return "Promote(" + a.writer.FullName() + " -> " + a.reader.FullName() + ")"
}

// Skip consumes a writer value the reader has no use for.
type Skip struct{ pair }

func (a *Skip) String() string { return "Skip(" + a.writer.FullName() + ")" }

// ErrorKind is the reason a resolution failed.
type ErrorKind uint8

// Error kinds.
const (
	IncompatibleTypes ErrorKind = iota
	NamesDontMatch
	SizesDontMatch
	MissingRequiredField
	NoMatchingBranch
)

var errorKindNames = [...]string{
	IncompatibleTypes:    "incompatible types",
	NamesDontMatch:       "names don't match",
	SizesDontMatch:       "sizes don't match",
	MissingRequiredField: "missing required field",
	NoMatchingBranch:     "no matching branch",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Error is a resolution that cannot succeed.
type Error struct {
	pair
	Kind ErrorKind
	// Field is the reader field without a writer counterpart or default, for MissingRequiredField.
	Field string
}

// Message describes the failure the way it is reported at decode time.
func (a *Error) Message() string {
	msg := "found " + a.writer.FullName() + ", expecting " + a.reader.FullName()
	if a.Kind == MissingRequiredField {
		msg += ", missing required field " + a.Field
	}
	return msg
}

func (a *Error) String() string { return "Error(" + a.Message() + ")" }

// Container resolves two arrays or two maps.
type Container struct {
	pair
	Elem Action
}

func (a *Container) String() string {
	return "Container(" + a.writer.Type().String() + ", " + a.Elem.String() + ")"
}

// WriterUnion resolves a writer union; the writer's branch index is read from the data.
type WriterUnion struct {
	pair
	// Branches holds the resolution of each writer branch against the whole reader.
	Branches []Action
	// UnionEquiv is set when the reader is a union structurally identical to the writer,
	// in which case the reader's own grammar is used as is.
	UnionEquiv bool
}

func (a *WriterUnion) String() string {
	return fmt.Sprintf("WriterUnion(%v, equiv=%v)", a.Branches, a.UnionEquiv)
}

// ReaderUnion resolves a non-union writer against a reader union.
type ReaderUnion struct {
	pair
	// FirstMatch is the reader branch the writer resolves to.
	FirstMatch int
	// Actual resolves the writer against that branch.
	Actual Action
}

func (a *ReaderUnion) String() string {
	return fmt.Sprintf("ReaderUnion(%v, %v)", a.FirstMatch, a.Actual)
}

// NoMatch is the adjustment of a writer enum symbol unknown to the reader.
const NoMatch = -1

// EnumAdjust maps writer enum ordinals to reader enum ordinals.
type EnumAdjust struct {
	pair
	// Adjustments holds the reader ordinal for each writer ordinal, or NoMatch.
	Adjustments []int
	// NoAdjustments is set when every ordinal maps to itself.
	NoAdjustments bool
}

// Message returns the error reported when the writer ordinal i has no reader ordinal, or "".
func (a *EnumAdjust) Message(i int) string {
	if a.Adjustments[i] >= 0 {
		return ""
	}
	return "no match for " + a.writer.Symbols()[i]
}

func (a *EnumAdjust) String() string { return fmt.Sprintf("EnumAdjust(%v)", a.Adjustments) }

// RecordAdjust resolves two records.
// A RecordAdjust is shared by every position resolving the same writer and reader records,
// so recursive records give a cyclic Action graph.
type RecordAdjust struct {
	pair
	// FieldActions holds an action for every writer field, in writer order.
	FieldActions []Action
	// ReaderOrder is the order reader fields are decoded in: fields matched by a writer field
	// in writer order, followed by reader-only fields that are filled from their defaults.
	ReaderOrder []*schema.Field
	// FirstDefault is the index in ReaderOrder of the first defaulted field.
	FirstDefault int
}

func (a *RecordAdjust) String() string {
	return "RecordAdjust(" + a.writer.FullName() + " -> " + a.reader.FullName() + ")"
}

// Defaults returns the reader fields filled from defaults.
func (a *RecordAdjust) Defaults() []*schema.Field {
	return a.ReaderOrder[a.FirstDefault:]
}
