package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/scott-cotton/cli"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/stewi1014/avtape"
	"github.com/stewi1014/avtape/datum"
	"github.com/stewi1014/avtape/queue"
	"github.com/stewi1014/avtape/schema"
)

func (cfg *QueueConfig) config() *avtape.Config {
	return &avtape.Config{
		Logger:       cfg.Logger,
		QueueMaxSize: int64(cfg.MaxSize),
	}
}

// open opens an existing queue file. Only add creates queue files.
func (cfg *QueueConfig) open(path string) (*queue.QueueFile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return queue.Open(path, queue.Config{
		MaxSize: int64(cfg.MaxSize),
		Logger:  cfg.Logger,
	})
}

func queueFileArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: expected one queue file", cli.ErrUsage)
	}
	return args[0], nil
}

func queueInfo(cfg *InfoConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Info.Parse(cc, args)
	if err != nil {
		return err
	}
	path, err := queueFileArg(args)
	if err != nil {
		return err
	}
	q, err := cfg.open(path)
	if err != nil {
		return err
	}
	defer q.Close()
	return writeInfo(cc.Out, cfg.palette(cc.Out), q)
}

func writeInfo(w io.Writer, p *palette, q *queue.QueueFile) error {
	_, err := fmt.Fprintf(w, "%s %d\n%s %d\n%s %d\n%s %d\n",
		p.Key("elements "), q.Size(),
		p.Key("used     "), q.UsedBytes(),
		p.Key("file size"), q.FileSize(),
		p.Key("max size "), q.MaxSize(),
	)
	return err
}

func queueAdd(cfg *AddConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Add.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Schema == "" {
		return fmt.Errorf("%w: add requires -schema", cli.ErrUsage)
	}
	if len(args) < 1 {
		return fmt.Errorf("%w: add requires a queue file", cli.ErrUsage)
	}
	s, err := loadSchema(cc.In, cfg.Schema)
	if err != nil {
		return err
	}

	var values []interface{}
	if len(args) > 1 {
		values, err = parseValues(s, args[1:])
	} else {
		values, err = readValues(s, cc.In)
	}
	if err != nil {
		return err
	}

	q, err := avtape.OpenQueue(args[0], s, s, cfg.config())
	if err != nil {
		return err
	}
	defer q.Close()
	if err := q.AddAll(values...); err != nil {
		return err
	}
	cfg.Logger.Debug("added values",
		zap.Int("count", len(values)),
		zap.Int("size", q.Size()),
	)
	return nil
}

// parseValues decodes each argument as the JSON encoding of a value of s.
func parseValues(s *schema.Schema, args []string) ([]interface{}, error) {
	values := make([]interface{}, len(args))
	for i, arg := range args {
		v, err := datum.FromJSON(s, []byte(arg))
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// readValues decodes a stream of JSON encoded values of s.
func readValues(s *schema.Schema, r io.Reader) ([]interface{}, error) {
	var values []interface{}
	dec := json.NewDecoder(r)
	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", len(values), err)
		}
		v, err := datum.FromJSON(s, raw)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", len(values), err)
		}
		values = append(values, v)
	}
}

func queuePeek(cfg *PeekConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Peek.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Schema == "" {
		return fmt.Errorf("%w: peek requires -schema", cli.ErrUsage)
	}
	path, err := queueFileArg(args)
	if err != nil {
		return err
	}
	where, err := compileWhere(cfg.Where)
	if err != nil {
		return err
	}

	writer, err := loadSchema(cc.In, cfg.Schema)
	if err != nil {
		return err
	}
	reader := writer
	if cfg.Reader != "" {
		if reader, err = loadSchema(cc.In, cfg.Reader); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err != nil {
		return err
	}
	q, err := avtape.OpenQueue(path, writer, reader, cfg.config())
	if err != nil {
		return err
	}
	defer q.Close()

	n := cfg.N
	if n <= 0 {
		n = 1
	}
	limit := int64(cfg.Limit)
	if limit <= 0 {
		limit = math.MaxInt64
	}
	_, err = writePeek(cc.Out, cfg.palette(cc.Out), q, reader, n, limit, where)
	return err
}

// writePeek writes up to n values from the front of q as JSON lines, each prefixed with its index.
// Values where is false for are left out. It returns the number of lines written.
func writePeek(w io.Writer, p *palette, q *avtape.RecordQueue, reader *schema.Schema, n int, limit int64, where *vm.Program) (int, error) {
	values, err := q.PeekN(n, limit)
	if err != nil {
		return 0, err
	}
	written := 0
	for i, v := range values {
		if v == nil && reader.Type() != schema.Null {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", p.Key("%d", i), p.Bad("invalid")); err != nil {
				return written, err
			}
			written++
			continue
		}
		ok, err := match(where, v)
		if err != nil {
			return written, fmt.Errorf("value %d: %w", i, err)
		}
		if !ok {
			continue
		}
		j, err := datum.ToJSON(reader, v)
		if err != nil {
			return written, fmt.Errorf("value %d: %w", i, err)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", p.Key("%d", i), j); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func compileWhere(src string) (*vm.Program, error) {
	if src == "" {
		return nil, nil
	}
	program, err := expr.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: -where: %w", cli.ErrUsage, err)
	}
	return program, nil
}

// match runs where against v. Record fields are variables, and value is v itself.
func match(where *vm.Program, v interface{}) (bool, error) {
	if where == nil {
		return true, nil
	}
	plain := exprValue(v)
	env := map[string]interface{}{"value": plain}
	if m, ok := plain.(map[string]interface{}); ok {
		for k, fv := range m {
			if k != "value" {
				env[k] = fv
			}
		}
	}
	res, err := vm.Run(where, env)
	if err != nil {
		return false, err
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("-where returned %T, not bool", res)
	}
	return b, nil
}

// exprValue converts decoded values to the maps, slices and scalars expressions work on.
func exprValue(v interface{}) interface{} {
	switch v := v.(type) {
	case *datum.Record:
		fields := v.Schema().Fields()
		m := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			m[f.Name()] = exprValue(v.Get(f.Pos()))
		}
		return m
	case datum.Enum:
		return v.Symbol
	case datum.Fixed:
		return []byte(v)
	case datum.Union:
		return exprValue(v.Value)
	case map[string]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, e := range v {
			m[k] = exprValue(e)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(v))
		for i, e := range v {
			s[i] = exprValue(e)
		}
		return s
	default:
		return v
	}
}

func queueRemove(cfg *RemoveConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Remove.Parse(cc, args)
	if err != nil {
		return err
	}
	path, err := queueFileArg(args)
	if err != nil {
		return err
	}
	n := cfg.N
	if n <= 0 {
		n = 1
	}
	q, err := cfg.open(path)
	if err != nil {
		return err
	}
	defer q.Close()
	if err := q.Remove(n); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cc.Out, "removed %d, %d left\n", n, q.Size())
	return err
}

func queueClear(cfg *ClearConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Clear.Parse(cc, args)
	if err != nil {
		return err
	}
	path, err := queueFileArg(args)
	if err != nil {
		return err
	}
	q, err := cfg.open(path)
	if err != nil {
		return err
	}
	defer q.Close()
	return q.Clear()
}
