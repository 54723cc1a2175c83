package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scott-cotton/cli"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/stewi1014/avtape/resolve"
	"github.com/stewi1014/avtape/schema"
)

// loadSchema reads a schema description from a file, or stdin if path is "-".
// Files ending in .yaml or .yml are parsed as YAML.
func loadSchema(stdin io.Reader, path string) (*schema.Schema, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var s *schema.Schema
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, err = schema.ParseYAML(data)
	default:
		s, err = schema.Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", path, err)
	}
	return s, nil
}

func schemaCanonical(cfg *CanonicalConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Canonical.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: canonical requires one schema file", cli.ErrUsage)
	}
	s, err := loadSchema(cc.In, args[0])
	if err != nil {
		return err
	}
	return writeCanonical(cc.Out, cfg.palette(cc.Out), s)
}

func writeCanonical(w io.Writer, p *palette, s *schema.Schema) error {
	_, err := fmt.Fprintf(w, "%s %016x\n%s\n", p.Key("fingerprint"), s.Fingerprint64(), s.Canonical())
	return err
}

func schemaDiff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires a writer and a reader schema file", cli.ErrUsage)
	}
	writer, err := loadSchema(cc.In, args[0])
	if err != nil {
		return err
	}
	reader, err := loadSchema(cc.In, args[1])
	if err != nil {
		return err
	}
	compatible, err := writeDiff(cc.Out, cfg.palette(cc.Out), writer, reader)
	if err != nil {
		return err
	}
	if !compatible {
		return cli.ExitCodeErr(1)
	}
	return nil
}

// writeDiff writes the difference between the canonical forms of writer and reader,
// then whether all data written with writer can be read as reader, listing what may fail if not.
func writeDiff(w io.Writer, p *palette, writer, reader *schema.Schema) (bool, error) {
	wc, rc := writer.Canonical(), reader.Canonical()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %016x\n", p.Key("writer"), writer.Fingerprint64())
	fmt.Fprintf(&b, "%s %016x\n", p.Key("reader"), reader.Fingerprint64())
	if wc == rc {
		b.WriteString("identical\n")
	} else {
		dmp := diffpatch.New()
		diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(wc, rc, false))
		for _, d := range diffs {
			switch d.Type {
			case diffpatch.DiffDelete:
				b.WriteString(p.Removed("[-%s-]", d.Text))
			case diffpatch.DiffInsert:
				b.WriteString(p.Added("{+%s+}", d.Text))
			case diffpatch.DiffEqual:
				b.WriteString(d.Text)
			}
		}
		b.WriteByte('\n')
	}

	problems := resolve.Problems(resolve.Resolve(writer, reader))
	if len(problems) == 0 {
		fmt.Fprintf(&b, "%s\n", p.Good("compatible"))
	} else {
		fmt.Fprintf(&b, "%s\n", p.Bad("incompatible"))
		for _, problem := range problems {
			fmt.Fprintf(&b, "  %v\n", problem)
		}
	}

	_, err := io.WriteString(w, b.String())
	return len(problems) == 0, err
}
