// Package mnet extends the standard net package with extra functionality
// which is commonly useful, namely wiring a net.Listener into a Component's
// lifecycle.
package mnet

import (
	"context"
	"net"

	"github.com/mediocregopher/redikv/mcfg"
	"github.com/mediocregopher/redikv/mcmp"
	"github.com/mediocregopher/redikv/mctx"
	"github.com/mediocregopher/redikv/merr"
	"github.com/mediocregopher/redikv/mlog"
	"github.com/mediocregopher/redikv/mrun"
)

// Listener wraps a net.Listener, providing debug logging on Accept, and tying the listener's lifecycle (bind on Init, close on
// Shutdown) to a Component.
type Listener struct {
	net.Listener
	cmp *mcmp.Component
}

type listenerOpts struct {
	defaultAddr     string
	closeOnShutdown bool
}

// ListenerOpt adjusts the behavior of InstListener.
type ListenerOpt func(*listenerOpts)

// ListenerDefaultAddr sets the default address which will be listened on if
// none is configured. Defaults to ":6379".
func ListenerDefaultAddr(addr string) ListenerOpt {
	return func(o *listenerOpts) { o.defaultAddr = addr }
}

// ListenerCloseOnShutdown sets whether the Listener is closed automatically
// when the Shutdown event fires on its Component. Defaults to true.
func ListenerCloseOnShutdown(b bool) ListenerOpt {
	return func(o *listenerOpts) { o.closeOnShutdown = b }
}

// InstListener instantiates a Listener which will be bound to a TCP address
// when Init is triggered on cmp's root Component, and closed when Shutdown is
// triggered, registering "listen-addr" as a configuration parameter on a
// "net" child of cmp.
func InstListener(cmp *mcmp.Component, opts ...ListenerOpt) *Listener {
	lOpts := listenerOpts{
		defaultAddr:     ":6379",
		closeOnShutdown: true,
	}
	for _, opt := range opts {
		opt(&lOpts)
	}

	cmp = cmp.Child("net")
	l := &Listener{cmp: cmp}

	addr := mcfg.String(cmp, "listen-addr",
		mcfg.ParamDefault(lOpts.defaultAddr),
		mcfg.ParamUsage("TCP address to listen on, in [host]:port format. "+
			"If port is 0 a random one is chosen."))

	mrun.InitHook(cmp, func(context.Context) error {
		var err error
		l.Listener, err = net.Listen("tcp", *addr)
		if err != nil {
			return merr.Wrap(err, cmp.Context())
		}
		cmp.Annotate("addr", l.Listener.Addr().String())
		mlog.From(cmp).Info("listening")
		return nil
	})

	if lOpts.closeOnShutdown {
		mrun.ShutdownHook(cmp, func(context.Context) error {
			mlog.From(cmp).Info("closing listener")
			return l.Close()
		})
	}

	return l
}

// Accept wraps net.Listener.Accept, providing debug logging.
func (l *Listener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return conn, err
	}
	mlog.From(l.cmp).Debug("connection accepted",
		mctx.Annotated("remoteAddr", conn.RemoteAddr().String()))
	return conn, nil
}
