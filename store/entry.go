// Package store implements the keyspace (spec.md §4.2), the stream engine's
// XADD pipeline (spec.md §4.3), and the blocking BLPOP coordinator
// (spec.md §4.4). All three share a single mutex (the "(b) global mutex"
// discipline spec.md §5 permits) so that the push/hand-off atomicity
// invariant (§3 invariant 5) is satisfied by construction rather than by
// careful lock ordering across separate locks.
package store

import (
	"container/list"
	"time"
)

// Kind identifies the type of value stored at a key.
type Kind int

// The three value kinds a key may hold, plus KindNone for "absent".
const (
	KindNone Kind = iota
	KindString
	KindList
	KindStream
)

// String returns the resolved type name used by the TYPE command.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindStream:
		return "stream"
	default:
		return "none"
	}
}

// entry is the tagged-union value stored behind each key. Only the field(s)
// matching kind are meaningful.
type entry struct {
	kind Kind

	// KindString
	str       []byte
	hasExpiry bool
	expiresAt time.Time

	// KindList. A container/list.List gives O(1) push/pop at both ends,
	// which spec.md §3 requires; LRANGE walks it, same as a real quicklist
	// would for arbitrary-index access.
	list *list.List

	// KindStream
	stream *stream
}

func newListEntry() *entry {
	return &entry{kind: KindList, list: list.New()}
}

// expired reports whether a String entry's TTL has elapsed as of now.
func (e *entry) expired(now time.Time) bool {
	return e.kind == KindString && e.hasExpiry && !now.Before(e.expiresAt)
}
