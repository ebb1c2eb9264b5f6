package mlog

import (
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/mediocregopher/redikv/mctx"
)

// NewWriterHandler returns a Handler which writes each Message to w as a
// single human-readable line:
//
//	2021-01-02T15:04:05.000Z INFO [net] listening addr="127.0.0.1:6379"
func NewWriterHandler(w io.Writer) Handler {
	var l sync.Mutex
	return func(msg Message) error {
		l.Lock()
		defer l.Unlock()

		var ns string
		if len(msg.Namespace) > 0 {
			ns = "[" + path.Join(msg.Namespace...) + "] "
		}

		var annotations string
		for _, kv := range mctx.StringPairs(msg.Ctx) {
			annotations += fmt.Sprintf(" %s=%q", kv[0], kv[1])
		}

		_, err := fmt.Fprintf(w, "%s %s %s%s%s\n",
			msg.Time.Format("2006-01-02T15:04:05.000Z07:00"),
			msg.Level.String(),
			ns,
			msg.Description,
			annotations,
		)
		return err
	}
}
