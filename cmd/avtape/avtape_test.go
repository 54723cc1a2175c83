package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"go.uber.org/zap/zaptest"

	"github.com/stewi1014/avtape"
	"github.com/stewi1014/avtape/queue"
	"github.com/stewi1014/avtape/schema"
)

const (
	userV1 = `{"type": "record", "name": "User", "fields": [
		{"name": "name", "type": "string"},
		{"name": "age", "type": "int"}
	]}`
	userV2 = `{"type": "record", "name": "User", "fields": [
		{"name": "name", "type": "string"},
		{"name": "age", "type": "long"},
		{"name": "admin", "type": "boolean", "default": false}
	]}`
)

// plain writes without color, as output to anything but a terminal is.
var plain = newPalette(new(bytes.Buffer), false)

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		desc, file, data string
	}{
		{desc: "json", file: "s.avsc", data: `{"type": "array", "items": "int"}`},
		{desc: "yaml", file: "s.yaml", data: "type: array\nitems: int\n"},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			path := filepath.Join(dir, tC.file)
			td.Require(t).CmpNoError(os.WriteFile(path, []byte(tC.data), 0o644))
			s, err := loadSchema(nil, path)
			td.Require(t).CmpNoError(err)
			td.Cmp(t, s.Canonical(), `{"type":"array","items":"int"}`)
		})
	}

	t.Run("stdin", func(t *testing.T) {
		s, err := loadSchema(strings.NewReader(`"long"`), "-")
		td.Require(t).CmpNoError(err)
		td.Cmp(t, s.Type(), schema.Long)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := loadSchema(strings.NewReader(`{"type": "nope"}`), "-")
		td.CmpError(t, err)
	})
}

func TestWriteCanonical(t *testing.T) {
	s := schema.MustParse(`{"type": "fixed", "name": "md5", "namespace": "x", "size": 16, "doc": "digest"}`)
	var out bytes.Buffer
	td.Require(t).CmpNoError(writeCanonical(&out, plain, s))
	td.Cmp(t, out.String(), fmt.Sprintf("fingerprint %016x\n%s\n", s.Fingerprint64(), s.Canonical()))
	td.Cmp(t, out.String(), td.Contains(`"name":"x.md5"`))
	td.Cmp(t, out.String(), td.Not(td.Contains("digest")))
}

func TestWriteDiff(t *testing.T) {
	testCases := []struct {
		desc           string
		writer, reader string
		compatible     bool
		contains       []string
	}{
		{
			desc:       "identical",
			writer:     userV1,
			reader:     `{"type": "record", "name": "User", "doc": "same", "fields": [{"name": "name", "type": "string"}, {"name": "age", "type": "int"}]}`,
			compatible: true,
			contains:   []string{"\nidentical\ncompatible\n"},
		},
		{
			desc:       "promoted and defaulted",
			writer:     userV1,
			reader:     userV2,
			compatible: true,
			contains:   []string{"[-", "{+", `admin`, "\ncompatible\n"},
		},
		{
			desc:       "narrowed",
			writer:     userV2,
			reader:     userV1,
			compatible: false,
			contains:   []string{"[-", "admin", "\nincompatible\n  .age: "},
		},
		{
			desc:       "different types",
			writer:     `"string"`,
			reader:     `"int"`,
			compatible: false,
			contains:   []string{"[-", "{+", "\nincompatible\n  .: "},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			writer, reader := schema.MustParse(tC.writer), schema.MustParse(tC.reader)
			var out bytes.Buffer
			compatible, err := writeDiff(&out, plain, writer, reader)
			td.Require(t).CmpNoError(err)
			td.Cmp(t, compatible, tC.compatible)
			td.Cmp(t, out.String(), td.HasPrefix(fmt.Sprintf("writer %016x\nreader %016x\n", writer.Fingerprint64(), reader.Fingerprint64())))
			for _, c := range tC.contains {
				td.Cmp(t, out.String(), td.Contains(c))
			}
		})
	}
}

func TestWriteGrammar(t *testing.T) {
	testCases := []struct {
		desc           string
		writer, reader string
		out            string
	}{
		{desc: "simple", writer: `"int"`, out: "root\n  int\n"},
		{desc: "promotion", writer: `"int"`, reader: `"double"`, out: "root\n  resolve(int->double)\n"},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			var reader *schema.Schema
			if tC.reader != "" {
				reader = schema.MustParse(tC.reader)
			}
			var out bytes.Buffer
			td.Require(t).CmpNoError(writeGrammar(&out, schema.MustParse(tC.writer), reader))
			td.Cmp(t, out.String(), tC.out)
		})
	}
}

func TestValues(t *testing.T) {
	s := schema.MustParse(userV1)

	values, err := parseValues(s, []string{`{"name":"ann","age":31}`, `{"name":"bob","age":40}`})
	td.Require(t).CmpNoError(err)
	td.Cmp(t, len(values), 2)

	_, err = parseValues(s, []string{`{"name":"ann","age":31}`, `{"name":"bob"}`})
	td.Require(t).CmpError(err)
	td.Cmp(t, err.Error(), td.HasPrefix("value 1: "))

	values, err = readValues(s, strings.NewReader("{\"name\":\"ann\",\"age\":31}\n{\n  \"name\": \"bob\",\n  \"age\": 40\n}\n"))
	td.Require(t).CmpNoError(err)
	td.Cmp(t, len(values), 2)

	values, err = readValues(s, strings.NewReader(""))
	td.CmpNoError(t, err)
	td.Cmp(t, len(values), 0)

	_, err = readValues(s, strings.NewReader(`{"name":"ann","age":31} {"name":`))
	td.CmpError(t, err)
}

// fill creates a queue file holding users ann, bob and cy, with a malformed element after bob.
func fill(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue")
	s := schema.MustParse(userV1)
	values, err := parseValues(s, []string{`{"name":"ann","age":31}`, `{"name":"bob","age":40}`})
	td.Require(t).CmpNoError(err)

	q, err := avtape.OpenQueue(path, s, s, nil)
	td.Require(t).CmpNoError(err)
	td.Require(t).CmpNoError(q.AddAll(values...))
	td.Require(t).CmpNoError(q.File().Add([]byte{0x01}))
	values, err = parseValues(s, []string{`{"name":"cy","age":1}`})
	td.Require(t).CmpNoError(err)
	td.Require(t).CmpNoError(q.Add(values[0]))
	td.Require(t).CmpNoError(q.Close())
	return path
}

func TestWritePeek(t *testing.T) {
	path := fill(t)
	writer := schema.MustParse(userV1)

	testCases := []struct {
		desc    string
		reader  string
		n       int
		limit   int64
		where   string
		out     string
		written int
	}{
		{
			desc:    "first",
			reader:  userV1,
			n:       1,
			limit:   1 << 20,
			out:     "0\t{\"name\":\"ann\",\"age\":31}\n",
			written: 1,
		},
		{
			desc:    "all",
			reader:  userV1,
			n:       10,
			limit:   1 << 20,
			out:     "0\t{\"name\":\"ann\",\"age\":31}\n1\t{\"name\":\"bob\",\"age\":40}\n2\tinvalid\n3\t{\"name\":\"cy\",\"age\":1}\n",
			written: 4,
		},
		{
			desc:    "size limited",
			reader:  userV1,
			n:       10,
			limit:   10,
			out:     "0\t{\"name\":\"ann\",\"age\":31}\n1\t{\"name\":\"bob\",\"age\":40}\n",
			written: 2,
		},
		{
			desc:    "resolved",
			reader:  userV2,
			n:       1,
			limit:   1 << 20,
			out:     "0\t{\"name\":\"ann\",\"age\":31,\"admin\":false}\n",
			written: 1,
		},
		{
			desc:    "where",
			reader:  userV1,
			n:       10,
			limit:   1 << 20,
			where:   `age > 30 && name != "ann"`,
			out:     "1\t{\"name\":\"bob\",\"age\":40}\n2\tinvalid\n",
			written: 2,
		},
		{
			desc:    "where value",
			reader:  userV2,
			n:       10,
			limit:   1 << 20,
			where:   `value.age < 10 && !admin`,
			out:     "2\tinvalid\n3\t{\"name\":\"cy\",\"age\":1,\"admin\":false}\n",
			written: 2,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			reader := schema.MustParse(tC.reader)
			q, err := avtape.OpenQueue(path, writer, reader, &avtape.Config{Logger: zaptest.NewLogger(t)})
			td.Require(t).CmpNoError(err)
			defer q.Close()

			where, err := compileWhere(tC.where)
			td.Require(t).CmpNoError(err)

			var out bytes.Buffer
			written, err := writePeek(&out, plain, q, reader, tC.n, tC.limit, where)
			td.Require(t).CmpNoError(err)
			td.Cmp(t, out.String(), tC.out)
			td.Cmp(t, written, tC.written)
			td.Cmp(t, q.Size(), 4)
		})
	}

	t.Run("where not bool", func(t *testing.T) {
		q, err := avtape.OpenQueue(path, writer, writer, nil)
		td.Require(t).CmpNoError(err)
		defer q.Close()

		where, err := compileWhere(`age + 1`)
		td.Require(t).CmpNoError(err)
		_, err = writePeek(new(bytes.Buffer), plain, q, writer, 1, 1<<20, where)
		td.CmpError(t, err)
	})

	t.Run("bad where", func(t *testing.T) {
		_, err := compileWhere(`age >`)
		td.CmpError(t, err)
	})
}

func TestWriteInfo(t *testing.T) {
	q, err := queue.Open(fill(t), queue.Config{MaxSize: 1 << 16})
	td.Require(t).CmpNoError(err)
	defer q.Close()

	var out bytes.Buffer
	td.Require(t).CmpNoError(writeInfo(&out, plain, q))
	td.Cmp(t, out.String(), fmt.Sprintf("elements  4\nused      %d\nfile size 4096\nmax size  65536\n", q.UsedBytes()))
}

func TestQueueOpenMissing(t *testing.T) {
	cfg := &QueueConfig{MainConfig: &MainConfig{}}
	path := filepath.Join(t.TempDir(), "missing")
	_, err := cfg.open(path)
	td.Cmp(t, errors.Is(err, os.ErrNotExist), true)
	_, err = os.Stat(path)
	td.Cmp(t, errors.Is(err, os.ErrNotExist), true)
}

func TestPalette(t *testing.T) {
	td.Cmp(t, plain.Bad("x"), "x")
	forced := newPalette(new(bytes.Buffer), true)
	td.Cmp(t, forced.Bad("x"), td.All(td.Contains("x"), td.Not("x")))
}
