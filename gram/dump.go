package gram

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the grammar below sym to w, one symbol per line in processing order.
// Sequences are numbered; a sequence met again, as records are in recursive grammars, is written as a reference.
func Dump(w io.Writer, sym Symbol) error {
	d := dumper{w: w, ids: make(map[*Sequence]int)}
	d.dump(sym, 0)
	return d.err
}

type dumper struct {
	w   io.Writer
	ids map[*Sequence]int
	err error
}

func (d *dumper) line(depth int, format string, args ...interface{}) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, strings.Repeat("  ", depth)+format+"\n", args...)
}

func (d *dumper) dump(sym Symbol, depth int) {
	switch s := sym.(type) {
	case *Root:
		d.line(depth, "root")
		d.dump(s.Start(), depth+1)

	case *Sequence:
		if id, ok := d.ids[s]; ok {
			d.line(depth, "-> #%d", id)
			return
		}
		id := len(d.ids) + 1
		d.ids[s] = id
		d.line(depth, "seq #%d", id)
		for i := len(s.Production) - 1; i >= 0; i-- {
			d.dump(s.Production[i], depth+1)
		}

	case *Repeater:
		d.line(depth, "repeat until %v", s.End)
		body := s.Body()
		for i := len(body) - 1; i >= 0; i-- {
			d.dump(body[i], depth+1)
		}

	case *Alternative:
		d.line(depth, "alt")
		for i, b := range s.Symbols {
			d.line(depth+1, "%d %v:", i, s.Labels[i])
			d.dump(b, depth+2)
		}

	case *UnionAdjustAction:
		d.line(depth, "union-adjust(%d)", s.ReaderIndex)
		d.dump(s.Symbol, depth+1)

	default:
		d.line(depth, "%v", sym)
	}
}
