package queue_test

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/queue"
)

type stringCodec struct{}

func (stringCodec) Serialize(v string, w io.Writer) error {
	if v == "unwritable" {
		return errors.New("cannot serialize")
	}
	_, err := io.WriteString(w, v)
	return err
}

func (stringCodec) Deserialize(data []byte) (string, error) {
	switch string(data) {
	case "malformed":
		return "", encio.NewIOError(encio.ErrMalformed, nil, "bad element", 0)
	case "broken":
		return "", errors.New("broken deserializer")
	}
	return string(data), nil
}

func TestObjectQueue(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	file, err := queue.Open(filepath.Join(t.TempDir(), "queue"), queue.Config{Logger: zap.New(core)})
	td.Require(t).CmpNoError(err)
	q := queue.NewObjectQueue[string, string](file, stringCodec{}, stringCodec{})
	defer q.Close()

	_, err = q.Peek()
	td.Cmp(t, err, queue.ErrNoSuchElement)

	td.CmpNoError(t, q.AddAll("a", "", "malformed", "b"))
	td.CmpError(t, q.AddAll("c", "unwritable"))
	td.Cmp(t, q.Size(), 4)

	v, err := q.Peek()
	td.CmpNoError(t, err)
	td.Cmp(t, v, "a")

	values, err := q.PeekN(10, 1000)
	td.CmpNoError(t, err)
	td.Cmp(t, values, []string{"a", "", "", "b"})
	td.Cmp(t, logs.FilterMessage("skipping invalid queue element").Len(), 1)

	td.CmpNoError(t, q.Remove(len(values)))
	td.Cmp(t, q.IsEmpty(), true)

	td.CmpNoError(t, q.Add("broken"))
	_, err = q.PeekN(10, 1000)
	td.CmpError(t, err)
}
