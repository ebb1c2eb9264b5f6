package store

import (
	"container/list"
	"sync"
	"time"
)

// ErrWrongType is returned by keyspace operations when a key holds a value
// of a different kind than the operation expects (spec.md §7 TypeMismatch).
type ErrWrongType struct{}

func (ErrWrongType) Error() string {
	return "WRONGTYPE Operation against a key holding the wrong kind of value"
}

// Keyspace is the shared, mutable map from key to typed value, plus the
// per-key waiter FIFOs used by BLPOP (coordinator.go). Every exported method
// takes and releases ks.mu itself; callers never see partial state, and
// pushes hand off to waiters within the same critical section that mutates
// the list, satisfying spec.md §3 invariant 5.
type Keyspace struct {
	mu      sync.Mutex
	entries map[string]*entry
	waiters map[string]*list.List // key -> FIFO of *Waiter
}

// New returns an empty Keyspace.
func New() *Keyspace {
	return &Keyspace{
		entries: make(map[string]*entry),
		waiters: make(map[string]*list.List),
	}
}

// Now is overridden in tests to control TTL expiry deterministically.
var Now = time.Now

// getLocked returns the live entry at key, deleting and returning nil if it
// has expired. Must be called with ks.mu held.
func (ks *Keyspace) getLocked(key string) *entry {
	e, ok := ks.entries[key]
	if !ok {
		return nil
	}
	if e.expired(Now()) {
		delete(ks.entries, key)
		return nil
	}
	return e
}

// GetString returns the live string payload at key, or (nil, false) if
// absent, expired, or of another kind.
func (ks *Keyspace) GetString(key string) ([]byte, bool) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e := ks.getLocked(key)
	if e == nil || e.kind != KindString {
		return nil, false
	}
	return e.str, true
}

// SetString overwrites any prior value at key (of any kind) with a string
// value. If hasTTL is true, the value expires ttl after now; a ttl of exactly
// 0 then means the value is already expired on its first read. If hasTTL is
// false, ttl is ignored and the value never expires.
func (ks *Keyspace) SetString(key string, val []byte, ttl time.Duration, hasTTL bool) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e := &entry{kind: KindString, str: val}
	if hasTTL {
		e.hasExpiry = true
		e.expiresAt = Now().Add(ttl)
	}
	ks.entries[key] = e
}

// TypeOf resolves the type name of key, or "none" if absent/expired.
func (ks *Keyspace) TypeOf(key string) string {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e := ks.getLocked(key)
	if e == nil {
		return KindNone.String()
	}
	return e.kind.String()
}

// RPush appends vals, in order, to the list at key (creating it if absent),
// atomically handing off to any queued BLPOP waiters in the same critical
// section, and returns the list's length right after the push (counted
// before any elements are handed off). It returns ErrWrongType if key holds
// a non-list value.
func (ks *Keyspace) RPush(key string, vals [][]byte) (int, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e, err := ks.listForWriteLocked(key)
	if err != nil {
		return 0, err
	}
	for _, v := range vals {
		e.list.PushBack(v)
	}
	n := e.list.Len()
	ks.handoffLocked(key)
	return n, nil
}

// LPush prepends vals to the list at key, one at a time and in the given
// order, so the last argument ends up at position 0 (x y z yields z, y, x).
// It hands off to waiters, and counts the returned length, the same way
// RPush does.
func (ks *Keyspace) LPush(key string, vals [][]byte) (int, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e, err := ks.listForWriteLocked(key)
	if err != nil {
		return 0, err
	}
	for _, v := range vals {
		e.list.PushFront(v)
	}
	n := e.list.Len()
	ks.handoffLocked(key)
	return n, nil
}

// listForWriteLocked returns the (possibly newly created) list entry at
// key, or ErrWrongType if key holds a non-list value. Must be called with
// ks.mu held.
func (ks *Keyspace) listForWriteLocked(key string) (*entry, error) {
	e := ks.getLocked(key)
	if e == nil {
		e = newListEntry()
		ks.entries[key] = e
		return e, nil
	}
	if e.kind != KindList {
		return nil, ErrWrongType{}
	}
	return e, nil
}

func (ks *Keyspace) listLenLocked(key string) int {
	e := ks.entries[key]
	if e == nil || e.kind != KindList {
		return 0
	}
	return e.list.Len()
}

// deleteIfEmptyLocked implements the "empty-list deletion" open-question
// resolution recorded in SPEC_FULL.md: a list drained to zero elements is
// removed from the keyspace, same as a real absent key.
func (ks *Keyspace) deleteIfEmptyLocked(key string) {
	e := ks.entries[key]
	if e != nil && e.kind == KindList && e.list.Len() == 0 {
		delete(ks.entries, key)
	}
}

// LLen returns the length of the list at key, or 0 if absent. It returns
// ErrWrongType if key holds a non-list value.
func (ks *Keyspace) LLen(key string) (int, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e := ks.getLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.kind != KindList {
		return 0, ErrWrongType{}
	}
	return e.list.Len(), nil
}

// LPop removes and returns up to count elements from the head of the list
// at key. hasCount distinguishes "LPOP key" (no count: the single popped
// value is returned as popOne, or popOneOK=false) from "LPOP key count" (popMany
// is returned; a nil popMany means key is absent or its list is empty, per
// spec.md §4.2's null-bulk case, while a non-nil-but-empty popMany means key
// holds a present, non-empty list and count was 0).
func (ks *Keyspace) LPop(key string, count int, hasCount bool) (popOne []byte, popOneOK bool, popMany [][]byte, err error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e := ks.getLocked(key)
	if e != nil && e.kind != KindList {
		return nil, false, nil, ErrWrongType{}
	}

	if !hasCount {
		if e == nil || e.list.Len() == 0 {
			return nil, false, nil, nil
		}
		v := popFrontLocked(e.list)
		ks.deleteIfEmptyLocked(key)
		return v, true, nil, nil
	}

	if e == nil || e.list.Len() == 0 {
		return nil, false, nil, nil
	}

	popMany = [][]byte{}
	for i := 0; i < count && e.list.Len() > 0; i++ {
		popMany = append(popMany, popFrontLocked(e.list))
	}
	ks.deleteIfEmptyLocked(key)
	return nil, false, popMany, nil
}

// LRange returns the inclusive slice [start, stop] of the list at key, with
// Python-style negative indices (-1 is the last element), normalized and
// clamped per spec.md §4.2.
func (ks *Keyspace) LRange(key string, start, stop int) ([][]byte, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e := ks.getLocked(key)
	if e == nil {
		return [][]byte{}, nil
	}
	if e.kind != KindList {
		return nil, ErrWrongType{}
	}

	n := e.list.Len()
	start = normalizeIndex(start, n)
	stop = normalizeIndex(stop, n)
	if start < 0 {
		start = 0
	}
	if stop > n-1 {
		stop = n - 1
	}
	if start > stop || start >= n {
		return [][]byte{}, nil
	}

	out := make([][]byte, 0, stop-start+1)
	i := 0
	for el := e.list.Front(); el != nil && i <= stop; el, i = el.Next(), i+1 {
		if i >= start {
			out = append(out, el.Value.([]byte))
		}
	}
	return out, nil
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return i
}

func popFrontLocked(l *list.List) []byte {
	front := l.Front()
	l.Remove(front)
	return front.Value.([]byte)
}

// FlushAll removes every key of every kind, and drains every BLPOP waiter
// with a timeout-shaped (null-array) wake-up, per spec.md §4.2.
func (ks *Keyspace) FlushAll() {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.entries = make(map[string]*entry)
	ks.drainAllWaitersLocked()
}
