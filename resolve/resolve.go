package resolve

import (
	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/schema"
)

// Resolve returns the action that reads data written with writer as reader.
// It is pure and terminates on recursive schemas; record pairs are memoized for the duration of the call.
func Resolve(writer, reader *schema.Schema) Action {
	r := resolver{seen: make(map[pair]Action)}
	return r.resolve(writer, reader)
}

// Check returns an ErrIncompatible error if the root of the action is an Error.
// Errors nested deeper are left to decode time.
func Check(a Action) error {
	if e, ok := a.(*Error); ok {
		return encio.NewError(encio.ErrIncompatible, e.Message(), "resolve.Check")
	}
	return nil
}

type resolver struct {
	seen map[pair]Action
}

func (r *resolver) resolve(w, rd *schema.Schema) Action {
	p := pair{writer: w, reader: rd}
	if w == rd {
		return &DoNothing{p}
	}

	wt, rt := w.Type(), rd.Type()
	if wt == schema.Union {
		return r.writerUnion(w, rd)
	}

	if wt == rt {
		switch wt {
		case schema.Null, schema.Boolean, schema.Int, schema.Long,
			schema.Float, schema.Double, schema.Bytes, schema.String:
			return &DoNothing{p}

		case schema.Fixed:
			if !namesMatch(w, rd) {
				return &Error{pair: p, Kind: NamesDontMatch}
			}
			if w.Size() != rd.Size() {
				return &Error{pair: p, Kind: SizesDontMatch}
			}
			return &DoNothing{p}

		case schema.Array:
			return &Container{pair: p, Elem: r.resolve(w.Items(), rd.Items())}

		case schema.Map:
			return &Container{pair: p, Elem: r.resolve(w.Values(), rd.Values())}

		case schema.Enum:
			return enumAdjust(w, rd)

		case schema.Record:
			return r.recordAdjust(w, rd)
		}
	}

	if rt == schema.Union {
		return r.readerUnion(w, rd)
	}
	return promote(w, rd)
}

func namesMatch(w, r *schema.Schema) bool {
	return r.HasName(w.Name().FullName())
}

func promote(w, r *schema.Schema) Action {
	p := pair{writer: w, reader: r}
	if Promotable(w.Type(), r.Type()) {
		return &Promote{p}
	}
	return &Error{pair: p, Kind: IncompatibleTypes}
}

// Promotable returns true if values of type w can be read as type r.
func Promotable(w, r schema.Type) bool {
	switch r {
	case schema.Long:
		return w == schema.Int
	case schema.Float:
		return w == schema.Int || w == schema.Long
	case schema.Double:
		return w == schema.Int || w == schema.Long || w == schema.Float
	case schema.Bytes:
		return w == schema.String
	case schema.String:
		return w == schema.Bytes
	}
	return false
}

func enumAdjust(w, r *schema.Schema) Action {
	p := pair{writer: w, reader: r}
	if !namesMatch(w, r) {
		return &Error{pair: p, Kind: NamesDontMatch}
	}

	def := NoMatch
	if sym, ok := r.EnumDefault(); ok {
		def = r.SymbolIndex(sym)
	}

	wsyms := w.Symbols()
	a := &EnumAdjust{
		pair:          p,
		Adjustments:   make([]int, len(wsyms)),
		NoAdjustments: len(wsyms) <= len(r.Symbols()),
	}
	for i, sym := range wsyms {
		j := r.SymbolIndex(sym)
		if j < 0 {
			j = def
		}
		a.Adjustments[i] = j
		a.NoAdjustments = a.NoAdjustments && i == j
	}
	return a
}

func (r *resolver) recordAdjust(w, rd *schema.Schema) Action {
	p := pair{writer: w, reader: rd}
	if a, ok := r.seen[p]; ok {
		return a
	}

	// Reader fields the writer lacks must have defaults.
	for _, rf := range rd.Fields() {
		if writerField(w, rf) != nil {
			continue
		}
		if _, ok := rf.Default(); !ok {
			a := &Error{pair: p, Kind: MissingRequiredField, Field: rf.Name()}
			r.seen[p] = a
			return a
		}
	}

	a := &RecordAdjust{
		pair:         p,
		FieldActions: make([]Action, len(w.Fields())),
		ReaderOrder:  make([]*schema.Field, 0, len(rd.Fields())),
	}
	// Inserted before the fields are resolved so recursive references find it.
	r.seen[p] = a

	for i, wf := range w.Fields() {
		rf := readerField(rd, wf)
		if rf == nil {
			a.FieldActions[i] = &Skip{pair{writer: wf.Schema()}}
			continue
		}
		a.ReaderOrder = append(a.ReaderOrder, rf)
		a.FieldActions[i] = r.resolve(wf.Schema(), rf.Schema())
	}

	a.FirstDefault = len(a.ReaderOrder)
	for _, rf := range rd.Fields() {
		if writerField(w, rf) == nil {
			a.ReaderOrder = append(a.ReaderOrder, rf)
		}
	}
	return a
}

// readerField returns the reader field matching a writer field by name or by reader alias.
func readerField(r *schema.Schema, wf *schema.Field) *schema.Field {
	if f, ok := r.Field(wf.Name()); ok {
		return f
	}
	for _, f := range r.Fields() {
		if f.HasName(wf.Name()) {
			return f
		}
	}
	return nil
}

func writerField(w *schema.Schema, rf *schema.Field) *schema.Field {
	for _, wf := range w.Fields() {
		if rf.HasName(wf.Name()) {
			return wf
		}
	}
	return nil
}

func (r *resolver) writerUnion(w, rd *schema.Schema) Action {
	branches := w.Branches()
	a := &WriterUnion{
		pair:       pair{writer: w, reader: rd},
		Branches:   make([]Action, len(branches)),
		UnionEquiv: unionEquiv(w, rd, make(map[pair]bool)),
	}
	for i, b := range branches {
		a.Branches[i] = r.resolve(b, rd)
	}
	return a
}

func (r *resolver) readerUnion(w, rd *schema.Schema) Action {
	p := pair{writer: w, reader: rd}
	i := r.firstMatchingBranch(w, rd)
	if i < 0 {
		return &Error{pair: p, Kind: NoMatchingBranch}
	}
	return &ReaderUnion{
		pair:       p,
		FirstMatch: i,
		Actual:     r.resolve(w, rd.Branches()[i]),
	}
}

// firstMatchingBranch finds the reader branch for a non-union writer.
// A branch of the same type wins, by exact name for named types; then a record branch that resolves
// without error, preferring one with the same short name; then the first branch the writer promotes to.
func (r *resolver) firstMatchingBranch(w, rd *schema.Schema) int {
	wt := w.Type()
	structural := -1
	for j, b := range rd.Branches() {
		if b.Type() != wt {
			continue
		}
		if !wt.IsNamed() {
			return j
		}
		if b.Name().FullName() == w.Name().FullName() {
			return j
		}
		if wt == schema.Record && !hasMatchError(r.recordAdjust(w, b)) {
			if structural < 0 || w.Name().Name == b.Name().Name {
				structural = j
			}
		}
	}
	if structural >= 0 {
		return structural
	}

	for j, b := range rd.Branches() {
		if Promotable(wt, b.Type()) {
			return j
		}
	}
	return -1
}

func hasMatchError(a Action) bool {
	switch a := a.(type) {
	case *Error:
		return true
	case *RecordAdjust:
		for _, fa := range a.FieldActions {
			if _, ok := fa.(*Error); ok {
				return true
			}
		}
	}
	return false
}

// unionEquiv returns true if w and r have the same structure, names and symbols.
func unionEquiv(w, r *schema.Schema, seen map[pair]bool) bool {
	wt := w.Type()
	if wt != r.Type() {
		return false
	}
	if wt.IsNamed() && w.Name().FullName() != r.Name().FullName() {
		return false
	}

	switch wt {
	case schema.Array:
		return unionEquiv(w.Items(), r.Items(), seen)
	case schema.Map:
		return unionEquiv(w.Values(), r.Values(), seen)
	case schema.Fixed:
		return w.Size() == r.Size()
	case schema.Enum:
		ws, rs := w.Symbols(), r.Symbols()
		if len(ws) != len(rs) {
			return false
		}
		for i := range ws {
			if ws[i] != rs[i] {
				return false
			}
		}
		return true
	case schema.Union:
		wb, rb := w.Branches(), r.Branches()
		if len(wb) != len(rb) {
			return false
		}
		for i := range wb {
			if !unionEquiv(wb[i], rb[i], seen) {
				return false
			}
		}
		return true
	case schema.Record:
		p := pair{writer: w, reader: r}
		if eq, ok := seen[p]; ok {
			return eq
		}
		// Optimistic until a field disagrees.
		seen[p] = true
		wf, rf := w.Fields(), r.Fields()
		if len(wf) != len(rf) {
			seen[p] = false
			return false
		}
		for i := range wf {
			if wf[i].Name() != rf[i].Name() || !unionEquiv(wf[i].Schema(), rf[i].Schema(), seen) {
				seen[p] = false
				break
			}
		}
		return seen[p]
	}
	return true
}
