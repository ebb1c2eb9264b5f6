package dispatch

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/mediocregopher/redikv/resp"
	"github.com/mediocregopher/redikv/store"
)

// parseBLPopTimeout implements the timeout grammar of spec.md §4.4: an
// integer "N" (N >= 0, 0 meaning wait indefinitely) in seconds, or a
// decimal "N.M" in seconds, truncated to milliseconds. A zero Duration
// result means "wait indefinitely".
func parseBLPopTimeout(s string) (time.Duration, error) {
	badTimeout := invalidArg("timeout is not a float or out of range")

	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return 0, badTimeout
		}
		return time.Duration(f*1000) * time.Millisecond, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, badTimeout
	}
	if n == 0 {
		return 0, nil
	}
	return time.Duration(n) * time.Second, nil
}

func handleBLPop(ctx context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) != 2 {
		return resp.Value{}, true, wrongArity("BLPOP")
	}

	key := string(args[0])
	timeout, err := parseBLPopTimeout(string(args[1]))
	if err != nil {
		return resp.Value{}, true, err
	}

	v, outcome, err := d.ks.BLPop(ctx, key, timeout)
	if err != nil {
		return resp.Value{}, true, err
	}

	switch outcome {
	case store.BLPopValue:
		return resp.Array(resp.BulkFromString(key), resp.Bulk(v)), true, nil
	case store.BLPopTimeout:
		return resp.NullArray(), true, nil
	default: // store.BLPopCancelled
		return resp.Value{}, false, nil
	}
}
