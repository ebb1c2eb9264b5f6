// Package mrun implements lifecycle hooks (Init/Shutdown) for Components.
//
// A Hook is a function which is registered against a Component via InitHook
// or ShutdownHook, and is later run when Init or Shutdown is called on the
// root of that Component's tree. This lets independently-instantiated pieces
// of a program (a listener, a keyspace, a logger) each describe their own
// startup/teardown behavior without a central piece of code needing to know
// about all of them.
package mrun

import (
	"context"
	"sync"

	"github.com/mediocregopher/redikv/mcmp"
)

// Hook is a function which can be registered to run during Init or Shutdown.
type Hook func(context.Context) error

type hookKey int

const (
	hookKeyInit hookKey = iota
	hookKeyShutdown
)

var hooksMu sync.Mutex

func registerHook(cmp *mcmp.Component, key hookKey, hook Hook) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks, _ := cmp.Value(key).([]Hook)
	cmp.SetValue(key, append(hooks, hook))
}

func hooksOf(cmp *mcmp.Component, key hookKey) []Hook {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks, _ := cmp.Value(key).([]Hook)
	return hooks
}

// InitHook registers hook to run when Init is called on cmp's root
// Component. Hooks run in the order they were registered, parents before
// children.
//
// As a convention, Init hooks should block only as long as it takes to
// ensure that whatever they set up (a listener, a config value) is ready for
// use. Long-running work belongs in a goroutine spawned by the hook, with a
// matching ShutdownHook to stop it.
func InitHook(cmp *mcmp.Component, hook Hook) {
	registerHook(cmp, hookKeyInit, hook)
}

// ShutdownHook registers hook to run when Shutdown is called on cmp's root
// Component. Hooks run in the reverse order they were registered, children
// before parents, mirroring how InitHook hooks were run.
func ShutdownHook(cmp *mcmp.Component, hook Hook) {
	registerHook(cmp, hookKeyShutdown, hook)
}

func collect(root *mcmp.Component, key hookKey) []*mcmp.Component {
	var order []*mcmp.Component
	mcmp.BreadthFirstVisit(root, func(cmp *mcmp.Component) bool {
		order = append(order, cmp)
		return true
	})
	return order
}

// Init runs every Hook registered via InitHook anywhere in root's Component
// tree, in breadth-first (parents-before-children) order. If any Hook
// returns an error, Init stops and returns that error immediately.
func Init(ctx context.Context, root *mcmp.Component) error {
	for _, cmp := range collect(root, hookKeyInit) {
		for _, hook := range hooksOf(cmp, hookKeyInit) {
			if err := hook(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Shutdown runs every Hook registered via ShutdownHook anywhere in root's
// Component tree, in reverse breadth-first (children-before-parents) order.
// Unlike Init, Shutdown runs every Hook even if some return errors, so that
// one failing teardown doesn't leave others un-run; the first error
// encountered is returned.
func Shutdown(ctx context.Context, root *mcmp.Component) error {
	order := collect(root, hookKeyShutdown)

	var firstErr error
	for i := len(order) - 1; i >= 0; i-- {
		cmp := order[i]
		hooks := hooksOf(cmp, hookKeyShutdown)
		for j := len(hooks) - 1; j >= 0; j-- {
			if err := hooks[j](ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
