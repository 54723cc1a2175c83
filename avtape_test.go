package avtape_test

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"go.uber.org/zap/zaptest"

	"github.com/stewi1014/avtape"
	"github.com/stewi1014/avtape/datum"
	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/schema"
)

var (
	userV1 = schema.MustParse(`{"type": "record", "name": "User", "namespace": "test", "fields": [
		{"name": "name", "type": "string"},
		{"name": "age", "type": "int"}
	]}`)
	userV2 = schema.MustParse(`{"type": "record", "name": "User", "namespace": "test", "fields": [
		{"name": "name", "type": "string"},
		{"name": "email", "type": ["null", "string"], "default": null},
		{"name": "age", "type": "long"}
	]}`)
)

func user(t *testing.T, s *schema.Schema, json string) interface{} {
	t.Helper()
	v, err := datum.FromJSON(s, []byte(json))
	td.Require(t).CmpNoError(err)
	return v
}

func toJSON(t *testing.T, s *schema.Schema, v interface{}) string {
	t.Helper()
	out, err := datum.ToJSON(s, v)
	td.Require(t).CmpNoError(err)
	return string(out)
}

func TestStream(t *testing.T) {
	var buff bytes.Buffer
	enc := avtape.NewEncoder(&buff, userV1)
	td.Cmp(t, enc.Schema(), td.Shallow(userV1))
	for _, u := range []string{`{"name":"ann","age":31}`, `{"name":"bob","age":-4}`} {
		td.Require(t).CmpNoError(enc.Encode(user(t, userV1, u)))
	}

	dec, err := avtape.NewDecoder(&buff, userV1, userV2, nil)
	td.Require(t).CmpNoError(err)
	for _, expected := range []string{`{"name":"ann","email":null,"age":31}`, `{"name":"bob","email":null,"age":-4}`} {
		v, err := dec.Decode()
		td.Require(t).CmpNoError(err)
		td.Cmp(t, toJSON(t, userV2, v), expected)
	}
	_, err = dec.Decode()
	td.Cmp(t, errors.Is(err, io.EOF), true)
}

func TestIncompatible(t *testing.T) {
	_, err := avtape.NewDecoder(&bytes.Buffer{}, schema.MustParse(`"string"`), schema.MustParse(`"int"`), nil)
	td.Cmp(t, errors.Is(err, encio.ErrIncompatible), true)

	_, err = avtape.NewDeserializer(userV1, userV2, nil)
	td.CmpNoError(t, err)
	_, err = avtape.NewDeserializer(userV2, userV1, nil)
	td.Cmp(t, errors.Is(err, encio.ErrIncompatible), true, "long is not narrowed to int")

	withoutDefault := schema.MustParse(`{"type": "record", "name": "User", "namespace": "test", "fields": [
		{"name": "name", "type": "string"},
		{"name": "id", "type": "long"}
	]}`)
	_, err = avtape.OpenQueue(filepath.Join(t.TempDir(), "queue"), userV1, withoutDefault, nil)
	td.Cmp(t, errors.Is(err, encio.ErrIncompatible), true)
}

func TestQueue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue")
	config := &avtape.Config{
		Cache:        datum.NewCache(zaptest.NewLogger(t)),
		Logger:       zaptest.NewLogger(t),
		QueueMaxSize: 1 << 16,
	}

	q, err := avtape.OpenQueue(path, userV1, userV1, config)
	td.Require(t).CmpNoError(err)
	td.CmpNoError(t, q.AddAll(user(t, userV1, `{"name":"ann","age":31}`), user(t, userV1, `{"name":"bob","age":40}`)))
	// A string with a negative length, and a valid value with a trailing byte.
	td.CmpNoError(t, q.File().AddAll([]byte{0x01}, []byte{0x02, 'x', 0x04, 0x00}))
	td.CmpNoError(t, q.Add(user(t, userV1, `{"name":"cy","age":1}`)))
	td.CmpError(t, q.Add(user(t, userV2, `{"name":"dee","age":2}`)))
	td.CmpNoError(t, q.Close())

	// Reopened by a newer version of the program.
	q, err = avtape.OpenQueue(path, userV1, userV2, config)
	td.Require(t).CmpNoError(err)
	defer q.Close()
	td.Cmp(t, q.Size(), 5)

	values, err := q.PeekN(10, 1<<10)
	td.Require(t).CmpNoError(err)
	td.Require(t).Cmp(len(values), 5)
	td.Cmp(t, toJSON(t, userV2, values[0]), `{"name":"ann","email":null,"age":31}`)
	td.Cmp(t, toJSON(t, userV2, values[1]), `{"name":"bob","email":null,"age":40}`)
	td.Cmp(t, values[2], nil)
	td.Cmp(t, values[3], nil)
	td.Cmp(t, toJSON(t, userV2, values[4]), `{"name":"cy","email":null,"age":1}`)

	td.CmpNoError(t, q.Remove(len(values)))
	td.Cmp(t, q.IsEmpty(), true)
	td.Cmp(t, config.Cache.Len(), 2)
}

func TestQueueTruncated(t *testing.T) {
	pair := schema.MustParse(`{"type": "record", "name": "Pair", "fields": [{"name": "a", "type": "int"}, {"name": "b", "type": "int"}]}`)
	q, err := avtape.OpenQueue(filepath.Join(t.TempDir(), "queue"), pair, pair, &avtape.Config{Logger: zaptest.NewLogger(t)})
	td.Require(t).CmpNoError(err)
	defer q.Close()

	// Pair{1, 2}, Pair{1} cut off before b, nothing at all, and Pair{3, 4}.
	td.Require(t).CmpNoError(q.File().AddAll([]byte{0x02, 0x04}, []byte{0x02}, []byte{}, []byte{0x06, 0x08}))

	values, err := q.PeekN(10, 1<<10)
	td.Require(t).CmpNoError(err)
	td.Require(t).Cmp(len(values), 4)
	td.Cmp(t, toJSON(t, pair, values[0]), `{"a":1,"b":2}`)
	td.Cmp(t, values[1], nil)
	td.Cmp(t, values[2], nil)
	td.Cmp(t, toJSON(t, pair, values[3]), `{"a":3,"b":4}`)

	d, err := avtape.NewDeserializer(pair, pair, nil)
	td.Require(t).CmpNoError(err)
	_, err = d.Deserialize([]byte{0x02, 0x80})
	td.Cmp(t, errors.Is(err, encio.ErrMalformed), true, "got %v", err)
}
