package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type palette struct {
	Key     func(string, ...any) string
	Added   func(string, ...any) string
	Removed func(string, ...any) string
	Good    func(string, ...any) string
	Bad     func(string, ...any) string
}

// newPalette colors output written to terminals, or to anything if force is set.
func newPalette(w io.Writer, force bool) *palette {
	on := force
	if f, ok := w.(*os.File); ok && !on {
		on = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	mk := func(attrs ...color.Attribute) func(string, ...any) string {
		c := color.New(attrs...)
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintfFunc()
	}
	return &palette{
		Key:     mk(color.FgCyan),
		Added:   mk(color.FgGreen),
		Removed: mk(color.FgRed, color.CrossedOut),
		Good:    mk(color.FgGreen, color.Bold),
		Bad:     mk(color.FgRed, color.Bold),
	}
}

func (cfg *MainConfig) palette(w io.Writer) *palette {
	return newPalette(w, cfg.Color)
}
