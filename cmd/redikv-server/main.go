// redikv-server is a RESP2-speaking, in-memory key/value and stream store.
// It implements a subset of the Redis wire protocol: strings with optional
// millisecond TTLs, lists with blocking pop, and append-only streams.
package main

import (
	"github.com/mediocregopher/redikv/m"
	"github.com/mediocregopher/redikv/server"
	"github.com/mediocregopher/redikv/store"
)

func main() {
	cmp := m.RootServiceComponent()
	ks := store.New()
	server.New(cmp, ks)
	m.Exec(cmp)
}
