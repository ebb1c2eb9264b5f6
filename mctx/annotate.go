package mctx

import (
	"context"
	"fmt"
	"sort"
)

// Annotation is a single key/value pair attached to a Context via Annotate.
type Annotation struct {
	Key, Value interface{}
}

type annotation struct {
	Annotation
	prev *annotation
}

type annotationKey struct{}

// Annotate takes in one or more key/value pairs (kvs must have an even
// length) and returns a Context carrying them in addition to any which were
// already present on ctx.
func Annotate(ctx context.Context, kvs ...interface{}) context.Context {
	if len(kvs)%2 != 0 {
		panic("mctx.Annotate called with an odd number of arguments")
	} else if len(kvs) == 0 {
		return ctx
	}

	prev, _ := ctx.Value(annotationKey{}).(*annotation)
	for i := 0; i < len(kvs); i += 2 {
		prev = &annotation{
			Annotation: Annotation{Key: kvs[i], Value: kvs[i+1]},
			prev:       prev,
		}
	}
	return context.WithValue(ctx, annotationKey{}, prev)
}

// Annotated is a shortcut for Annotate(context.Background(), kvs...).
func Annotated(kvs ...interface{}) context.Context {
	return Annotate(context.Background(), kvs...)
}

// Annotations returns every Annotation which has been attached to ctx (and
// any Contexts merged into it), oldest first. If the same key was annotated
// more than once every occurrence is returned, in the order it was applied.
func Annotations(ctx context.Context) []Annotation {
	a, _ := ctx.Value(annotationKey{}).(*annotation)
	if a == nil {
		return nil
	}

	var out []Annotation
	for cur := a; cur != nil; cur = cur.prev {
		out = append(out, cur.Annotation)
	}

	// reverse, since we walked from newest to oldest
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// MergeAnnotations returns a Context which carries the annotations of both
// dst and src, with src's being considered more recent (and therefore
// rendered after, and taking precedence in the case of a key conflict).
func MergeAnnotations(dst, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if dst == nil {
		dst = context.Background()
	}

	srcAnnotations := Annotations(src)
	kvs := make([]interface{}, 0, len(srcAnnotations)*2)
	for _, a := range srcAnnotations {
		kvs = append(kvs, a.Key, a.Value)
	}
	return Annotate(dst, kvs...)
}

// KV returns the annotations on ctx flattened into a map, suitable for
// structured logging. If a key was annotated more than once the most recent
// value wins.
func KV(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}
	out := map[string]interface{}{}
	for _, a := range Annotations(ctx) {
		out[fmt.Sprint(a.Key)] = a.Value
	}
	return out
}

// StringPairs returns the annotations on ctx as sorted "key", "value" string
// pairs, suitable for deterministic rendering.
func StringPairs(ctx context.Context) [][2]string {
	kv := KV(ctx)
	out := make([][2]string, 0, len(kv))
	for k, v := range kv {
		out = append(out, [2]string{k, fmt.Sprint(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
