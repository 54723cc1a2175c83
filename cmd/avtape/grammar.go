package main

import (
	"fmt"
	"io"

	"github.com/scott-cotton/cli"

	"github.com/stewi1014/avtape/gram"
	"github.com/stewi1014/avtape/schema"
)

func grammar(cfg *GrammarConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Grammar.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: grammar requires a writer schema file and optionally a reader schema file", cli.ErrUsage)
	}
	writer, err := loadSchema(cc.In, args[0])
	if err != nil {
		return err
	}
	var reader *schema.Schema
	if len(args) == 2 {
		if reader, err = loadSchema(cc.In, args[1]); err != nil {
			return err
		}
	}
	return writeGrammar(cc.Out, writer, reader)
}

// writeGrammar dumps the grammar for reading writer data as reader,
// or the plain grammar of writer when reader is nil.
func writeGrammar(w io.Writer, writer, reader *schema.Schema) error {
	var (
		root *gram.Root
		err  error
	)
	if reader == nil {
		root = gram.GenerateSimple(writer)
	} else if root, err = gram.Generate(writer, reader); err != nil {
		return err
	}
	return gram.Dump(w, root)
}
