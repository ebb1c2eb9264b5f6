// Package mctx extends the standard context package with annotation
// functionality, which is useful for logging and errors.
//
// An annotation is a key/value pair attached to a Context which is intended to
// be surfaced later, e.g. by mlog when writing a log line or by merr when
// describing an error. Annotations are ordered: later annotations shadow
// earlier ones with the same key when rendered, but the Context itself never
// drops data, so nothing is silently lost.
//
// All functions in this package are safe for concurrent use.
package mctx
