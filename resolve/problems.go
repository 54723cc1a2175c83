package resolve

import (
	"fmt"

	"github.com/stewi1014/avtape/schema"
)

// Problem is a place where reading data may fail.
type Problem struct {
	// Path leads from the root to the failing value: ".name" for record fields,
	// "[]" for array items, "{}" for map values and "|name" for writer union branches.
	Path    string
	Message string
}

func (p Problem) String() string {
	path := p.Path
	if path == "" {
		path = "."
	}
	return path + ": " + p.Message
}

// Problems returns every Error below a, and every writer enum symbol the reader cannot take.
// Unlike Check it looks past the root, so data written with the writer can be read
// whatever its content if and only if Problems is empty.
func Problems(a Action) []Problem {
	w := problemWalker{seen: make(map[*RecordAdjust]bool)}
	w.walk(a, "")
	return w.problems
}

type problemWalker struct {
	seen     map[*RecordAdjust]bool
	problems []Problem
}

func (w *problemWalker) add(path, message string) {
	w.problems = append(w.problems, Problem{Path: path, Message: message})
}

func (w *problemWalker) walk(a Action, path string) {
	switch a := a.(type) {
	case *Error:
		w.add(path, a.Message())

	case *EnumAdjust:
		for i := range a.Adjustments {
			if m := a.Message(i); m != "" {
				w.add(path, m)
			}
		}

	case *Container:
		if a.writer.Type() == schema.Map {
			w.walk(a.Elem, path+"{}")
		} else {
			w.walk(a.Elem, path+"[]")
		}

	case *WriterUnion:
		for i, b := range a.Branches {
			w.walk(b, fmt.Sprintf("%s|%s", path, a.writer.Branches()[i].FullName()))
		}

	case *ReaderUnion:
		w.walk(a.Actual, path)

	case *RecordAdjust:
		if w.seen[a] {
			return
		}
		w.seen[a] = true
		for i, fa := range a.FieldActions {
			w.walk(fa, path+"."+a.writer.Fields()[i].Name())
		}
	}
}
