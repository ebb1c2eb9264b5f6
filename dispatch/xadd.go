package dispatch

import (
	"context"

	"github.com/mediocregopher/redikv/resp"
	"github.com/mediocregopher/redikv/store"
)

func handleXAdd(_ context.Context, d *Dispatcher, args [][]byte) (resp.Value, bool, error) {
	if len(args) < 4 || (len(args)-2)%2 != 0 {
		return resp.Value{}, true, wrongArity("XADD")
	}

	key, id := string(args[0]), string(args[1])
	rest := args[2:]
	fields := make([]store.Field, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		fields = append(fields, store.Field{Name: rest[i], Value: rest[i+1]})
	}

	assignedID, err := d.ks.XAdd(key, id, fields)
	if err != nil {
		return resp.Value{}, true, err
	}
	return resp.BulkFromString(assignedID), true, nil
}
