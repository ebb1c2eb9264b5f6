// Package mlog is a generic logging library. Log methods come in different
// severities: Debug, Info, Warn, Error, and Fatal.
//
// Log methods take a message string and zero or more Contexts. Any
// annotations (see mctx) on those Contexts are rendered alongside the
// message.
package mlog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mediocregopher/redikv/mctx"
)

// Level describes the severity of a log message.
type Level struct {
	s string
	i int
}

// String returns the name of the Level, e.g. "INFO".
func (l Level) String() string { return l.s }

// Int returns an integer indicator of the Level's severity, with higher
// numbers being more severe.
func (l Level) Int() int { return l.i }

// The predefined Levels, from least to most severe.
var (
	DebugLevel = Level{s: "DEBUG", i: 0}
	InfoLevel  = Level{s: "INFO", i: 1}
	WarnLevel  = Level{s: "WARN", i: 2}
	ErrorLevel = Level{s: "ERROR", i: 3}
	FatalLevel = Level{s: "FATAL", i: 4}
)

// LevelFromString returns the Level matching the given (case-insensitive)
// name, or nil if no Level matches.
func LevelFromString(s string) *Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return &DebugLevel
	case "INFO":
		return &InfoLevel
	case "WARN":
		return &WarnLevel
	case "ERROR":
		return &ErrorLevel
	case "FATAL":
		return &FatalLevel
	default:
		return nil
	}
}

// Message describes a single entry to be logged.
type Message struct {
	Level
	Namespace   []string
	Description string
	Time        time.Time
	Ctx         context.Context
}

// Handler processes a Message in some way, e.g. by writing it to a file.
// Logger does not serialize calls to its Handler, so a Handler must be safe
// for concurrent use (NewWriterHandler's is).
type Handler func(Message) error

// exitFn is overridden in tests so Fatal doesn't actually kill the test
// binary.
var exitFn = os.Exit

// Logger logs Messages at or above its configured max Level to a Handler.
type Logger struct {
	l        sync.Mutex
	maxLevel Level
	handler  Handler
	ns       []string
}

// NewLogger returns a Logger which writes human-readable lines to os.Stderr
// at InfoLevel or above.
func NewLogger() *Logger {
	return &Logger{
		maxLevel: InfoLevel,
		handler:  NewWriterHandler(os.Stderr),
	}
}

// Null is a Logger which discards everything given to it.
var Null = &Logger{maxLevel: FatalLevel, handler: NewWriterHandler(io.Discard)}

// SetMaxLevel sets the minimum Level which will be passed to the Logger's
// Handler.
func (l *Logger) SetMaxLevel(lvl Level) {
	l.l.Lock()
	defer l.l.Unlock()
	l.maxLevel = lvl
}

// SetHandler sets the Handler which processed Messages will be passed to.
func (l *Logger) SetHandler(h Handler) {
	l.l.Lock()
	defer l.l.Unlock()
	l.handler = h
}

// Clone returns a copy of the Logger which can have its Handler/MaxLevel
// changed independently of the original.
func (l *Logger) Clone() *Logger {
	l.l.Lock()
	defer l.l.Unlock()
	ns := make([]string, len(l.ns))
	copy(ns, l.ns)
	return &Logger{maxLevel: l.maxLevel, handler: l.handler, ns: ns}
}

// WithNamespace returns a copy of the Logger with the given namespace
// appended to its existing one. Namespaces are rendered as a "[a/b/c]" prefix
// on log lines.
func (l *Logger) WithNamespace(ns string) *Logger {
	clone := l.Clone()
	clone.ns = append(clone.ns, ns)
	return clone
}

func (l *Logger) log(lvl Level, descr string, ctxs []context.Context) {
	l.l.Lock()
	maxLevel, handler, ns := l.maxLevel, l.handler, l.ns
	l.l.Unlock()

	if lvl.Int() < maxLevel.Int() || handler == nil {
		if lvl.Int() >= FatalLevel.Int() {
			exitFn(1)
		}
		return
	}

	ctx := context.Background()
	for _, c := range ctxs {
		if c != nil {
			ctx = mctx.MergeAnnotations(ctx, c)
		}
	}

	msg := Message{
		Level:       lvl,
		Namespace:   ns,
		Description: descr,
		Time:        time.Now(),
		Ctx:         ctx,
	}

	if err := handler(msg); err != nil {
		fmt.Fprintf(os.Stderr, "mlog: handler error: %s\n", err)
	}

	if lvl.Int() >= FatalLevel.Int() {
		exitFn(1)
	}
}

// Debug logs descr at DebugLevel.
func (l *Logger) Debug(descr string, ctxs ...context.Context) { l.log(DebugLevel, descr, ctxs) }

// Info logs descr at InfoLevel.
func (l *Logger) Info(descr string, ctxs ...context.Context) { l.log(InfoLevel, descr, ctxs) }

// Warn logs descr at WarnLevel.
func (l *Logger) Warn(descr string, ctxs ...context.Context) { l.log(WarnLevel, descr, ctxs) }

// Error logs descr at ErrorLevel.
func (l *Logger) Error(descr string, ctxs ...context.Context) { l.log(ErrorLevel, descr, ctxs) }

// Fatal logs descr at FatalLevel and then exits the process with status 1.
func (l *Logger) Fatal(descr string, ctxs ...context.Context) { l.log(FatalLevel, descr, ctxs) }
