// Package merr extends the builtin errors package with contextual
// annotations (via mctx) and embedded stack traces.
//
// As is generally recommended for go projects, errors.Is and errors.As should
// be used for equality checking against merr's Error type.
package merr

import (
	"context"
	"errors"
	"strings"

	"github.com/mediocregopher/redikv/mctx"
)

// Error wraps an error such that contextual annotations and a stack trace are
// captured alongside it.
type Error struct {
	Err        error
	Ctx        context.Context
	Stacktrace Stacktrace
}

// Error implements the error interface.
func (e Error) Error() string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(e.Err.Error()))

	pairs := mctx.StringPairs(e.Ctx)
	for _, kv := range pairs {
		sb.WriteString("\n\t* ")
		sb.WriteString(kv[0])
		sb.WriteString(": ")
		sb.WriteString(kv[1])
	}
	if line := e.Stacktrace.String(); line != "" {
		sb.WriteString("\n\t* line: ")
		sb.WriteString(line)
	}

	return sb.String()
}

// Unwrap implements the interface understood by errors.Is/errors.As.
func (e Error) Unwrap() error {
	return e.Err
}

// WrapSkip is like Wrap but also allows skipping extra stack frames when
// embedding the stack trace into the error. skip is the number of additional
// frames, beyond WrapSkip's own, to skip.
func WrapSkip(err error, skip int, ctxs ...context.Context) error {
	if err == nil {
		return nil
	}

	ctx := mergeCtxs(ctxs)

	var e Error
	if errors.As(err, &e) {
		if _, direct := err.(Error); !direct {
			e.Err = err
		}
		e.Ctx = mctx.MergeAnnotations(e.Ctx, ctx)
		return e
	}

	return Error{
		Err:        err,
		Ctx:        ctx,
		Stacktrace: newStacktrace(skip + 1),
	}
}

func mergeCtxs(ctxs []context.Context) context.Context {
	ctx := context.Background()
	for _, c := range ctxs {
		if c == nil {
			continue
		}
		ctx = mctx.MergeAnnotations(ctx, c)
	}
	return ctx
}

// Wrap returns a copy of err wrapped in an Error carrying the annotations of
// the given Contexts (if any). If err is already wrapped in an Error then the
// new annotations are merged into the existing ones instead of creating a new
// wrapper.
//
// Wrapping nil returns nil.
func Wrap(err error, ctxs ...context.Context) error {
	return WrapSkip(err, 1, ctxs...)
}

// New is a shortcut for merr.Wrap(errors.New(str), ctxs...).
func New(str string, ctxs ...context.Context) error {
	return WrapSkip(errors.New(str), 1, ctxs...)
}

// Context returns the Context embedded in err, if it was wrapped by this
// package, or context.Background() otherwise. This is mostly useful for
// threading an error's annotations into a log line.
func Context(err error) context.Context {
	var e Error
	if errors.As(err, &e) {
		return e.Ctx
	}
	return context.Background()
}
