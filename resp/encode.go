package resp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Encoder writes Values to an underlying io.Writer in RESP2 wire format.
// An Encoder is not safe for concurrent use; callers requiring ordered,
// serialized writes (as every connection in this server does) should hold
// their own lock or confine the Encoder to a single writer goroutine.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder returns an Encoder which buffers writes to w. Callers must call
// Flush after each reply (or batch of pipelined replies) to push bytes out.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Flush writes any buffered bytes to the underlying io.Writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// Encode writes v to the underlying writer. It does not Flush; call Flush
// once the caller is done writing a logical batch of replies.
func (e *Encoder) Encode(v Value) error {
	switch v.Kind {
	case SimpleStringKind:
		return e.writeLine('+', v.Str)
	case ErrorKind:
		return e.writeLine('-', v.Str)
	case IntegerKind:
		return e.writeLine(':', strconv.FormatInt(v.Int, 10))
	case BulkStringKind:
		return e.encodeBulk(v)
	case ArrayKind:
		return e.encodeArray(v)
	default:
		return fmt.Errorf("resp: cannot encode Value with unknown Kind %d", v.Kind)
	}
}

func (e *Encoder) writeLine(prefix byte, body string) error {
	if err := e.w.WriteByte(prefix); err != nil {
		return err
	}
	if _, err := e.w.WriteString(body); err != nil {
		return err
	}
	_, err := e.w.WriteString("\r\n")
	return err
}

func (e *Encoder) encodeBulk(v Value) error {
	if v.Null {
		_, err := e.w.WriteString("$-1\r\n")
		return err
	}
	if _, err := fmt.Fprintf(e.w, "$%d\r\n", len(v.Bulk)); err != nil {
		return err
	}
	if _, err := e.w.Write(v.Bulk); err != nil {
		return err
	}
	_, err := e.w.WriteString("\r\n")
	return err
}

func (e *Encoder) encodeArray(v Value) error {
	if v.Null {
		_, err := e.w.WriteString("*-1\r\n")
		return err
	}
	if _, err := fmt.Fprintf(e.w, "*%d\r\n", len(v.Array)); err != nil {
		return err
	}
	for _, el := range v.Array {
		if err := e.Encode(el); err != nil {
			return err
		}
	}
	return nil
}
