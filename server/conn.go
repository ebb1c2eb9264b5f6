package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/mediocregopher/redikv/mctx"
	"github.com/mediocregopher/redikv/mlog"
	"github.com/mediocregopher/redikv/resp"
)

// handleConn services a single connection until it closes, recovering from
// any panic raised while doing so (spec.md §7: a panic in one connection's
// task must not kill other connections).
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	raddr := conn.RemoteAddr().String()
	logger := mlog.From(s.cmp)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in connection handler",
				mctx.Annotated("remoteAddr", raddr),
				mctx.Annotated("panic", fmt.Sprintf("%v", r)))
		}
		conn.Close()
		logger.Debug("connection closed", mctx.Annotated("remoteAddr", raddr))
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dec := resp.NewDecoder(conn)
	enc := resp.NewEncoder(conn)
	reqCh := make(chan *resp.Request)

	go s.readLoop(dec, reqCh, cancel, raddr, logger)

	// This is the connection's single logical task (spec.md §5): it submits
	// commands and writes replies strictly in arrival order, one at a time.
	// A blocking BLPOP suspends only this goroutine, never the reader, so a
	// client disconnecting mid-BLPOP is still observed promptly via ctx,
	// which readLoop cancels as soon as it sees the socket go away.
	for req := range reqCh {
		v, emit := s.dispatcher.Dispatch(ctx, req)
		if !emit {
			continue
		}
		if err := enc.Encode(v); err != nil {
			return
		}
		if err := enc.Flush(); err != nil {
			return
		}
	}
}

// readLoop reads requests off conn and feeds them to reqCh in order, closing
// reqCh and cancelling cancel as soon as the connection can no longer be
// read from, whether due to a clean close, an I/O error, or malformed input.
func (s *Server) readLoop(
	dec *resp.Decoder,
	reqCh chan<- *resp.Request,
	cancel context.CancelFunc,
	raddr string,
	logger *mlog.Logger,
) {
	defer close(reqCh)

	for {
		req, err := dec.ReadRequest()
		if err != nil {
			cancel()

			var protoErr resp.ProtocolError
			if errors.As(err, &protoErr) {
				logger.Warn("protocol error",
					mctx.Annotated("remoteAddr", raddr),
					mctx.Annotated("error", err.Error()))
			} else if !errors.Is(err, io.EOF) {
				logger.Debug("connection read error",
					mctx.Annotated("remoteAddr", raddr),
					mctx.Annotated("error", err.Error()))
			}
			return
		}

		reqCh <- req
	}
}
