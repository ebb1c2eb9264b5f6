// Package server implements the external connection driver (spec.md §6): a
// TCP listener accepting arbitrarily many concurrent connections, each
// serviced by its own pair of goroutines dispatching against a shared
// store.Keyspace.
//
// It is grounded on the HyperCache resp-server.go excerpt's Server/
// ClientConn/accept-loop shape, wired into this module's component tree the
// way the teacher wires its own listeners (see mnet.InstListener).
package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/mediocregopher/redikv/dispatch"
	"github.com/mediocregopher/redikv/mcmp"
	"github.com/mediocregopher/redikv/mctx"
	"github.com/mediocregopher/redikv/mlog"
	"github.com/mediocregopher/redikv/mnet"
	"github.com/mediocregopher/redikv/mrun"
	"github.com/mediocregopher/redikv/store"
)

// Server accepts RESP connections and dispatches their requests against a
// single store.Keyspace. Its lifecycle (listener bind, accept loop start,
// drain on shutdown) is registered on cmp and driven by mrun.
type Server struct {
	cmp        *mcmp.Component
	listener   *mnet.Listener
	dispatcher *dispatch.Dispatcher
	wg         sync.WaitGroup
}

// New instantiates a Server as a child of cmp. The listener is bound, and the
// accept loop started, when mrun.Init is triggered on cmp's root; both are
// torn down, waiting for in-flight connections to finish, when mrun.Shutdown
// is triggered. lOpts are forwarded to mnet.InstListener, e.g. to override
// the default listen address in tests.
func New(cmp *mcmp.Component, ks *store.Keyspace, lOpts ...mnet.ListenerOpt) *Server {
	cmp = cmp.Child("server")

	s := &Server{
		cmp:        cmp,
		dispatcher: dispatch.New(ks),
	}

	// closeOnShutdown is false here because Server's own ShutdownHook (below)
	// closes the listener itself, as the first step of draining connections;
	// mnet closing it a second, redundant time would just return an error.
	lOpts = append(lOpts, mnet.ListenerCloseOnShutdown(false))
	s.listener = mnet.InstListener(cmp, lOpts...)

	serveCmp := cmp.Child("serve")
	mrun.InitHook(serveCmp, func(context.Context) error {
		s.wg.Add(1)
		go s.acceptLoop()
		return nil
	})
	mrun.ShutdownHook(serveCmp, func(context.Context) error {
		err := s.listener.Close()
		s.wg.Wait()
		return err
	})

	return s
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	logger := mlog.From(s.cmp)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logger.Error("accept failed", mctx.Annotated("error", err.Error()))
			}
			return
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}
