package resp

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRequest(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		in := "*2\r\n$4\r\nPING\r\n$3\r\nfoo\r\n"
		d := NewDecoder(strReader(in))
		req, err := d.ReadRequest()
		require.NoError(t, err)
		assert.Equal(t, "PING", req.Command)
		assert.Equal(t, [][]byte{[]byte("foo")}, req.Args)
	})

	t.Run("uppercases only the command", func(t *testing.T) {
		in := "*2\r\n$3\r\nget\r\n$3\r\nKEY\r\n"
		req, err := NewDecoder(strReader(in)).ReadRequest()
		require.NoError(t, err)
		assert.Equal(t, "GET", req.Command)
		assert.Equal(t, [][]byte{[]byte("KEY")}, req.Args)
	})

	t.Run("binary-safe payload", func(t *testing.T) {
		payload := []byte("has\r\nembedded\r\nCRLFs")
		in := "*2\r\n$3\r\nSET\r\n$" + strconv.Itoa(len(payload)) + "\r\n" + string(payload) + "\r\n"
		req, err := NewDecoder(strReader(in)).ReadRequest()
		require.NoError(t, err)
		assert.Equal(t, payload, req.Args[0])
	})

	t.Run("multiple requests in one read", func(t *testing.T) {
		in := "*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n"
		d := NewDecoder(strReader(in))
		for i := 0; i < 2; i++ {
			req, err := d.ReadRequest()
			require.NoError(t, err)
			assert.Equal(t, "PING", req.Command)
		}
		_, err := d.ReadRequest()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("request split across reads", func(t *testing.T) {
		pr, pw := io.Pipe()
		d := NewDecoder(pr)
		done := make(chan struct{})
		var req *Request
		var err error
		go func() {
			req, err = d.ReadRequest()
			close(done)
		}()

		chunks := []string{"*2\r\n$3\r\nSE", "T\r\n$1\r\n", "v\r\n"}
		for _, c := range chunks {
			_, werr := pw.Write([]byte(c))
			require.NoError(t, werr)
		}
		<-done
		require.NoError(t, err)
		assert.Equal(t, "SET", req.Command)
		assert.Equal(t, [][]byte{[]byte("v")}, req.Args)
	})

	t.Run("bad leading byte is a ProtocolError", func(t *testing.T) {
		_, err := NewDecoder(strReader("+OK\r\n")).ReadRequest()
		assert.IsType(t, ProtocolError{}, err)
	})

	t.Run("negative length other than -1 is a ProtocolError", func(t *testing.T) {
		_, err := NewDecoder(strReader("*1\r\n$-2\r\n")).ReadRequest()
		assert.IsType(t, ProtocolError{}, err)
	})

	t.Run("declared length exceeding remaining input is a ProtocolError", func(t *testing.T) {
		_, err := NewDecoder(strReader("*1\r\n$10\r\nshort\r\n")).ReadRequest()
		assert.IsType(t, ProtocolError{}, err)
	})

	t.Run("missing CRLF is a ProtocolError", func(t *testing.T) {
		_, err := NewDecoder(strReader("*1\r\n$3\r\nabcXX")).ReadRequest()
		assert.IsType(t, ProtocolError{}, err)
	})
}

func TestEncode(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"simple string", SimpleString("PONG"), "+PONG\r\n"},
		{"error", Error("ERR boom"), "-ERR boom\r\n"},
		{"integer", Integer(42), ":42\r\n"},
		{"bulk", BulkFromString("hello"), "$5\r\nhello\r\n"},
		{"null bulk", NullBulk(), "$-1\r\n"},
		{"null array", NullArray(), "*-1\r\n"},
		{
			"array",
			Array(BulkFromString("a"), BulkFromString("b")),
			"*2\r\n$1\r\na\r\n$1\r\nb\r\n",
		},
		{"empty array", Array(), "*0\r\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := NewEncoder(&buf)
			require.NoError(t, e.Encode(c.v))
			require.NoError(t, e.Flush())
			assert.Equal(t, c.want, buf.String())
		})
	}
}

// TestRoundTrip checks the invariant from spec.md §8: for every valid
// inbound frame f, decode(encode(decode(f))) == decode(f).
func TestRoundTrip(t *testing.T) {
	frames := []string{
		"*1\r\n$4\r\nPING\r\n",
		"*3\r\n$5\r\nRPUSH\r\n$1\r\nk\r\n$1\r\nv\r\n",
		"*2\r\n$3\r\nGET\r\n$0\r\n\r\n",
	}

	for _, f := range frames {
		v1, err := NewDecoder(strReader(f)).Decode()
		require.NoError(t, err)

		var buf bytes.Buffer
		e := NewEncoder(&buf)
		require.NoError(t, e.Encode(v1))
		require.NoError(t, e.Flush())

		v2, err := NewDecoder(strReader(buf.String())).Decode()
		require.NoError(t, err)

		assert.True(t, v1.Equal(v2), "round-trip mismatch for frame %q", f)
	}
}

func strReader(s string) *bufio.Reader {
	return bufio.NewReader(bytes.NewBufferString(s))
}
