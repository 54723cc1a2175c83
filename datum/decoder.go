package datum

import (
	"fmt"

	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/gram"
	"github.com/stewi1014/avtape/schema"
	"github.com/stewi1014/avtape/wire"
)

// NewResolvingDecoder returns a decoder reading values from in through the grammar root.
func NewResolvingDecoder(root *gram.Root, in *wire.Decoder) *ResolvingDecoder {
	d := &ResolvingDecoder{in: in}
	d.parser = gram.NewParser(root, d)
	return d
}

// ResolvingDecoder reads data written with one schema as values of another.
// The caller asks for values in the reader's terms; promotions, skipped writer fields,
// reordered enums and unions, and defaults are handled underneath.
//
// Record fields are returned in writer order followed by defaulted fields, not in reader order;
// ReadFieldOrder returns the order to expect.
type ResolvingDecoder struct {
	parser *gram.Parser
	in     *wire.Decoder
	backup *wire.Decoder
}

// Reset discards any partly read value and makes d read from in.
func (d *ResolvingDecoder) Reset(in *wire.Decoder) {
	d.parser.Reset()
	d.in, d.backup = in, nil
}

// input returns the decoder values are read from, even while a default is spliced in.
func (d *ResolvingDecoder) input() *wire.Decoder {
	if d.backup != nil {
		return d.backup
	}
	return d.in
}

// DoAction implements gram.ActionHandler.
func (d *ResolvingDecoder) DoAction(input gram.Symbol, top gram.ImplicitAction) (gram.Symbol, error) {
	switch t := top.(type) {
	case *gram.FieldOrderAction:
		if input == gram.FieldAction {
			return t, nil
		}

	case *gram.ResolvingAction:
		if t.Reader != input {
			return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("found %v while looking for %v", t.Reader, input), "ResolvingDecoder")
		}
		return t.Writer, nil

	case *gram.SkipAction:
		return nil, d.in.Skip(t.Schema)

	case *gram.WriterUnionAction:
		alt, ok := d.parser.PopSymbol().(*gram.Alternative)
		if !ok {
			return nil, encio.NewError(encio.ErrBadType, "writer union without alternative", "ResolvingDecoder")
		}
		return nil, d.pushBranch(alt)

	case *gram.ErrorAction:
		return nil, encio.NewError(encio.ErrIncompatible, t.Message, "ResolvingDecoder")

	case *gram.DefaultStartAction:
		d.backup = d.in
		d.in = wire.NewBytesDecoder(t.Contents)

	case *gram.DefaultEndAction:
		d.in, d.backup = d.backup, nil

	default:
		return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("unknown action %v", top), "ResolvingDecoder")
	}
	return nil, nil
}

func (d *ResolvingDecoder) pushBranch(alt *gram.Alternative) error {
	n, err := d.in.ReadIndex()
	if err != nil {
		return err
	}
	sym, ok := alt.Symbol(n)
	if !ok {
		return encio.NewIOError(encio.ErrMalformed, nil, fmt.Sprintf("union index %v out of range for %v branches", n, len(alt.Symbols)), 0)
	}
	d.parser.PushSymbol(sym)
	return nil
}

// ReadFieldOrder starts a record and returns the reader fields in the order they will be decoded.
// Use Field.Pos to place them.
func (d *ResolvingDecoder) ReadFieldOrder() ([]*schema.Field, error) {
	sym, err := d.parser.Advance(gram.FieldAction)
	if err != nil {
		return nil, err
	}
	return sym.(*gram.FieldOrderAction).Fields, nil
}

// Drain consumes what is left of the current value, such as trailing writer fields the reader skips.
// It must be called after each value before another is read from the underlying decoder
// by anything other than d.
func (d *ResolvingDecoder) Drain() error {
	return d.parser.ProcessImplicitActions()
}

// ReadNull reads a null.
func (d *ResolvingDecoder) ReadNull() error {
	if _, err := d.parser.Advance(gram.Null); err != nil {
		return err
	}
	return d.in.ReadNull()
}

// ReadBoolean reads a boolean.
func (d *ResolvingDecoder) ReadBoolean() (bool, error) {
	if _, err := d.parser.Advance(gram.Boolean); err != nil {
		return false, err
	}
	return d.in.ReadBoolean()
}

// ReadInt reads an int.
func (d *ResolvingDecoder) ReadInt() (int32, error) {
	if _, err := d.parser.Advance(gram.Int); err != nil {
		return 0, err
	}
	return d.in.ReadInt()
}

// ReadLong reads a long, promoting a written int.
func (d *ResolvingDecoder) ReadLong() (int64, error) {
	actual, err := d.parser.Advance(gram.Long)
	if err != nil {
		return 0, err
	}
	if actual == gram.Int {
		n, err := d.in.ReadInt()
		return int64(n), err
	}
	return d.in.ReadLong()
}

// ReadFloat reads a float, promoting a written int or long.
func (d *ResolvingDecoder) ReadFloat() (float32, error) {
	actual, err := d.parser.Advance(gram.Float)
	if err != nil {
		return 0, err
	}
	switch actual {
	case gram.Int:
		n, err := d.in.ReadInt()
		return float32(n), err
	case gram.Long:
		n, err := d.in.ReadLong()
		return float32(n), err
	}
	return d.in.ReadFloat()
}

// ReadDouble reads a double, promoting a written int, long or float.
func (d *ResolvingDecoder) ReadDouble() (float64, error) {
	actual, err := d.parser.Advance(gram.Double)
	if err != nil {
		return 0, err
	}
	switch actual {
	case gram.Int:
		n, err := d.in.ReadInt()
		return float64(n), err
	case gram.Long:
		n, err := d.in.ReadLong()
		return float64(n), err
	case gram.Float:
		f, err := d.in.ReadFloat()
		return float64(f), err
	}
	return d.in.ReadDouble()
}

// ReadString reads a string, or written bytes.
func (d *ResolvingDecoder) ReadString() (string, error) {
	if _, err := d.parser.Advance(gram.String); err != nil {
		return "", err
	}
	return d.in.ReadString()
}

// ReadBytes reads bytes, or a written string.
func (d *ResolvingDecoder) ReadBytes() ([]byte, error) {
	if _, err := d.parser.Advance(gram.Bytes); err != nil {
		return nil, err
	}
	return d.in.ReadBytes()
}

// ReadFixed reads a fixed value of the grammar's size.
func (d *ResolvingDecoder) ReadFixed() ([]byte, error) {
	if _, err := d.parser.Advance(gram.Fixed); err != nil {
		return nil, err
	}
	check, ok := d.parser.PopSymbol().(*gram.IntCheckAction)
	if !ok {
		return nil, encio.NewError(encio.ErrBadType, "fixed without size", "ResolvingDecoder.ReadFixed")
	}
	return d.in.ReadFixed(check.Size)
}

// ReadEnum reads an enum and returns the reader's ordinal.
// A writer symbol the reader does not know fails with ErrIncompatible.
func (d *ResolvingDecoder) ReadEnum() (int, error) {
	if _, err := d.parser.Advance(gram.Enum); err != nil {
		return 0, err
	}
	adj, ok := d.parser.PopSymbol().(*gram.EnumAdjustAction)
	if !ok {
		return 0, encio.NewError(encio.ErrBadType, "enum without adjustment", "ResolvingDecoder.ReadEnum")
	}
	n, err := d.in.ReadEnum()
	if err != nil {
		return 0, err
	}
	r, msg, ok := adj.Adjust(n)
	switch {
	case !ok:
		return 0, encio.NewIOError(encio.ErrMalformed, nil, fmt.Sprintf("enum ordinal %v out of range", n), 0)
	case msg != "":
		return 0, encio.NewError(encio.ErrIncompatible, msg, "ResolvingDecoder.ReadEnum")
	}
	return r, nil
}

// ReadIndex reads a union index and returns the reader's branch.
func (d *ResolvingDecoder) ReadIndex() (int, error) {
	if _, err := d.parser.Advance(gram.Union); err != nil {
		return 0, err
	}
	switch top := d.parser.PopSymbol().(type) {
	case *gram.UnionAdjustAction:
		d.parser.PushSymbol(top.Symbol)
		return top.ReaderIndex, nil
	case *gram.Alternative:
		n, err := d.in.ReadIndex()
		if err != nil {
			return 0, err
		}
		sym, ok := top.Symbol(n)
		if !ok {
			return 0, encio.NewIOError(encio.ErrMalformed, nil, fmt.Sprintf("union index %v out of range for %v branches", n, len(top.Symbols)), 0)
		}
		d.parser.PushSymbol(sym)
		return n, nil
	default:
		return 0, encio.NewError(encio.ErrBadType, fmt.Sprintf("union followed by %v", top), "ResolvingDecoder.ReadIndex")
	}
}

// ReadArrayStart reads the item count of the first array block. Zero means the array is empty.
func (d *ResolvingDecoder) ReadArrayStart() (int64, error) {
	return d.blockStart(gram.ArrayStart, gram.ArrayEnd)
}

// ArrayNext reads the item count of the next array block. Zero means the array has ended.
func (d *ResolvingDecoder) ArrayNext() (int64, error) {
	return d.blockNext(gram.ArrayEnd)
}

// ReadMapStart reads the entry count of the first map block. Zero means the map is empty.
func (d *ResolvingDecoder) ReadMapStart() (int64, error) {
	return d.blockStart(gram.MapStart, gram.MapEnd)
}

// MapNext reads the entry count of the next map block. Zero means the map has ended.
func (d *ResolvingDecoder) MapNext() (int64, error) {
	return d.blockNext(gram.MapEnd)
}

func (d *ResolvingDecoder) blockStart(start, end gram.Symbol) (int64, error) {
	if _, err := d.parser.Advance(start); err != nil {
		return 0, err
	}
	n, err := d.in.ReadBlockCount()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		_, err = d.parser.Advance(end)
	}
	return n, err
}

func (d *ResolvingDecoder) blockNext(end gram.Symbol) (int64, error) {
	if err := d.parser.ProcessTrailingImplicitActions(); err != nil {
		return 0, err
	}
	n, err := d.in.ReadBlockCount()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		_, err = d.parser.Advance(end)
	}
	return n, err
}
