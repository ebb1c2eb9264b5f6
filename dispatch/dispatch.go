// Package dispatch implements the command dispatcher (spec.md §4.5): a
// table-driven mapping from a parsed resp.Request to a keyspace, stream
// engine, or coordinator operation, and that operation's outcome back to a
// resp.Value reply.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mediocregopher/redikv/resp"
	"github.com/mediocregopher/redikv/store"
)

// ErrInvalidArgument is the InvalidArgument error kind from spec.md §7: a
// non-integer where one was expected, a bad timeout, and so on. Its message
// already carries the "ERR " prefix so it can be used as a reply directly.
type ErrInvalidArgument struct{ msg string }

func (e ErrInvalidArgument) Error() string { return e.msg }

func invalidArg(format string, args ...interface{}) error {
	return ErrInvalidArgument{msg: "ERR " + fmt.Sprintf(format, args...)}
}

// Dispatcher maps requests to operations on a single Keyspace.
type Dispatcher struct {
	ks *store.Keyspace
}

// New returns a Dispatcher backed by ks.
func New(ks *store.Keyspace) *Dispatcher {
	return &Dispatcher{ks: ks}
}

type handlerFunc func(ctx context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error)

var handlers = map[string]handlerFunc{
	"PING":    handlePing,
	"ECHO":    handleEcho,
	"COMMAND": handleCommand,
	"TYPE":    handleType,
	"SET":     handleSet,
	"GET":     handleGet,
	"RPUSH":   handleRPush,
	"LPUSH":   handleLPush,
	"LLEN":    handleLLen,
	"LRANGE":  handleLRange,
	"LPOP":    handleLPop,
	"BLPOP":   handleBLPop,
	"XADD":    handleXAdd,
	"FLUSHDB": handleFlushDB,
}

// Dispatch runs req against d's Keyspace and returns the reply to send back
// to the client. emit is false only for a cancelled BLPOP (the connection
// is closing), in which case no reply should be written at all.
//
// ctx governs cancellation of a suspending BLPOP; it should be tied to the
// owning connection's lifetime.
func (d *Dispatcher) Dispatch(ctx context.Context, req *resp.Request) (v resp.Value, emit bool) {
	h, ok := handlers[req.Command]
	if !ok {
		return resp.Errorf("ERR unknown command '%s'", req.Command), true
	}

	v, emit, err := h(ctx, d, req.Args)
	if err != nil {
		return errToValue(err), true
	}
	return v, emit
}

func errToValue(err error) resp.Value {
	var wt store.ErrWrongType
	var sid store.StreamIDError
	var ia ErrInvalidArgument
	switch {
	case errors.As(err, &wt):
		return resp.Error(wt.Error())
	case errors.As(err, &sid):
		return resp.Error(sid.Error())
	case errors.As(err, &ia):
		return resp.Error(ia.Error())
	default:
		return resp.Errorf("ERR %s", err.Error())
	}
}

func wrongArity(name string) error {
	return fmt.Errorf("wrong number of arguments for '%s'", strings.ToLower(name))
}

func handlePing(_ context.Context, _ *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	switch len(args) {
	case 0:
		return resp.SimpleString("PONG"), true, nil
	case 1:
		return resp.Bulk(args[0]), true, nil
	default:
		return resp.Value{}, true, wrongArity("PING")
	}
}

func handleEcho(_ context.Context, _ *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) != 1 {
		return resp.Value{}, true, wrongArity("ECHO")
	}
	return resp.Bulk(args[0]), true, nil
}

func handleCommand(_ context.Context, _ *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) > 1 {
		return resp.Value{}, true, wrongArity("COMMAND")
	}
	return resp.Array(), true, nil
}

func handleType(_ context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) != 1 {
		return resp.Value{}, true, wrongArity("TYPE")
	}
	return resp.SimpleString(d.ks.TypeOf(string(args[0]))), true, nil
}

func handleSet(_ context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) != 2 && len(args) != 4 {
		return resp.Value{}, true, wrongArity("SET")
	}

	key, val := string(args[0]), args[1]
	if len(args) == 2 {
		d.ks.SetString(key, val, 0, false)
		return resp.SimpleString("OK"), true, nil
	}

	if !strings.EqualFold(string(args[2]), "PX") {
		return resp.Value{}, true, invalidArg("syntax error")
	}
	ms, err := strconv.ParseInt(string(args[3]), 10, 64)
	if err != nil || ms < 0 {
		return resp.Value{}, true, invalidArg("value is not an integer or out of range")
	}
	d.ks.SetString(key, val, time.Duration(ms)*time.Millisecond, true)
	return resp.SimpleString("OK"), true, nil
}

func handleGet(_ context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) != 1 {
		return resp.Value{}, true, wrongArity("GET")
	}
	v, ok := d.ks.GetString(string(args[0]))
	if !ok {
		return resp.NullBulk(), true, nil
	}
	return resp.Bulk(v), true, nil
}

func handleRPush(_ context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) < 2 {
		return resp.Value{}, true, wrongArity("RPUSH")
	}
	n, err := d.ks.RPush(string(args[0]), args[1:])
	if err != nil {
		return resp.Value{}, true, err
	}
	return resp.Integer(int64(n)), true, nil
}

func handleLPush(_ context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) < 2 {
		return resp.Value{}, true, wrongArity("LPUSH")
	}
	n, err := d.ks.LPush(string(args[0]), args[1:])
	if err != nil {
		return resp.Value{}, true, err
	}
	return resp.Integer(int64(n)), true, nil
}

func handleLLen(_ context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) != 1 {
		return resp.Value{}, true, wrongArity("LLEN")
	}
	n, err := d.ks.LLen(string(args[0]))
	if err != nil {
		return resp.Value{}, true, err
	}
	return resp.Integer(int64(n)), true, nil
}

func handleLRange(_ context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) != 3 {
		return resp.Value{}, true, wrongArity("LRANGE")
	}
	start, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return resp.Value{}, true, invalidArg("value is not an integer or out of range")
	}
	stop, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.Value{}, true, invalidArg("value is not an integer or out of range")
	}

	vals, err := d.ks.LRange(string(args[0]), start, stop)
	if err != nil {
		return resp.Value{}, true, err
	}
	return bulkArray(vals), true, nil
}

func handleLPop(_ context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) != 1 && len(args) != 2 {
		return resp.Value{}, true, wrongArity("LPOP")
	}

	key := string(args[0])
	if len(args) == 1 {
		v, ok, _, err := d.ks.LPop(key, 0, false)
		if err != nil {
			return resp.Value{}, true, err
		}
		if !ok {
			return resp.NullBulk(), true, nil
		}
		return resp.Bulk(v), true, nil
	}

	count, err := strconv.Atoi(string(args[1]))
	if err != nil || count < 0 {
		return resp.Value{}, true, invalidArg("value is out of range, must be positive")
	}
	_, _, many, err := d.ks.LPop(key, count, true)
	if err != nil {
		return resp.Value{}, true, err
	}
	if many == nil {
		return resp.NullBulk(), true, nil
	}
	return bulkArray(many), true, nil
}

func handleFlushDB(_ context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) != 0 {
		return resp.Value{}, true, wrongArity("FLUSHDB")
	}
	d.ks.FlushAll()
	return resp.SimpleString("OK"), true, nil
}

func bulkArray(vals [][]byte) resp.Value {
	out := make([]resp.Value, len(vals))
	for i, v := range vals {
		out[i] = resp.Bulk(v)
	}
	return resp.Array(out...)
}
