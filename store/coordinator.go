package store

import (
	"container/list"
	"context"
	"time"
)

// Waiter is a handle to a suspended BLPOP request, per spec.md §3. It is
// returned by TryPopOrWait when the target list was empty, and resolved
// exactly once, by whichever of a push hand-off, a deadline, or a
// cancellation gets there first.
type Waiter struct {
	key      string
	ch       chan []byte // buffered 1; nil received means "no item" (timeout)
	timer    *time.Timer
	elem     *list.Element
	resolved bool
}

// C returns the channel a caller should receive from to learn the outcome
// of this Waiter: a non-nil []byte is the popped value (a successful
// hand-off); nil means the deadline elapsed with no push.
func (w *Waiter) C() <-chan []byte { return w.ch }

func (ks *Keyspace) waiterQueueLocked(key string) *list.List {
	q := ks.waiters[key]
	if q == nil {
		q = list.New()
		ks.waiters[key] = q
	}
	return q
}

// removeWaiterLocked removes w from its key's FIFO, if still present, and
// drops the FIFO from the map entirely once it's empty.
func (ks *Keyspace) removeWaiterLocked(w *Waiter) {
	q := ks.waiters[w.key]
	if q == nil || w.elem == nil {
		return
	}
	q.Remove(w.elem)
	w.elem = nil
	if q.Len() == 0 {
		delete(ks.waiters, w.key)
	}
}

// TryPopOrWait implements the coordinator's try_pop_or_enqueue operation
// (spec.md §4.4): if key's list is non-empty, the head is popped and
// returned immediately (waiter is nil). Otherwise a Waiter is enqueued onto
// key's FIFO and returned; the caller should then select on its C()
// channel, and call CancelWaiter if it gives up before that channel fires
// (e.g. the connection closed).
//
// If timeout > 0, the Waiter resolves itself (with a nil, timeout outcome)
// automatically once timeout has elapsed; a timeout of exactly 0 means wait
// indefinitely, matching BLPOP's "0 seconds" convention (spec.md §4.4).
func (ks *Keyspace) TryPopOrWait(key string, timeout time.Duration) (value []byte, waiter *Waiter, err error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	e := ks.getLocked(key)
	if e != nil && e.kind != KindList {
		return nil, nil, ErrWrongType{}
	}
	if e != nil && e.list.Len() > 0 {
		v := popFrontLocked(e.list)
		ks.deleteIfEmptyLocked(key)
		return v, nil, nil
	}

	w := &Waiter{key: key, ch: make(chan []byte, 1)}
	w.elem = ks.waiterQueueLocked(key).PushBack(w)
	if timeout > 0 {
		w.timer = time.AfterFunc(timeout, func() { ks.expireWaiter(w) })
	}
	return nil, w, nil
}

// BLPopOutcome describes how a BLPop call resolved.
type BLPopOutcome int

const (
	// BLPopValue means a value was popped, either immediately or via
	// hand-off; Value holds it.
	BLPopValue BLPopOutcome = iota
	// BLPopTimeout means the deadline elapsed with no push; the caller
	// should reply with a null array.
	BLPopTimeout
	// BLPopCancelled means ctx was done before either of the above; the
	// caller must emit no reply at all (the connection is going away).
	BLPopCancelled
)

// BLPop is the full BLPOP operation: try an immediate pop, or suspend until
// a hand-off, a timeout (if timeout > 0), or ctx's cancellation, whichever
// comes first. It never holds ks.mu while suspended, satisfying spec.md
// §5's suspension-point rule.
func (ks *Keyspace) BLPop(ctx context.Context, key string, timeout time.Duration) ([]byte, BLPopOutcome, error) {
	v, w, err := ks.TryPopOrWait(key, timeout)
	if err != nil {
		return nil, 0, err
	}
	if w == nil {
		return v, BLPopValue, nil
	}

	select {
	case v := <-w.C():
		if v == nil {
			return nil, BLPopTimeout, nil
		}
		return v, BLPopValue, nil
	case <-ctx.Done():
		ks.CancelWaiter(w)
		return nil, BLPopCancelled, nil
	}
}

// expireWaiter resolves w with a timeout outcome, unless it has already
// been resolved (by a hand-off or a prior cancellation) in the meantime.
func (ks *Keyspace) expireWaiter(w *Waiter) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if w.resolved {
		return
	}
	w.resolved = true
	ks.removeWaiterLocked(w)
	w.ch <- nil
}

// CancelWaiter removes w from its FIFO, if it's still queued, and emits no
// reply for it, per spec.md §4.4 ("connection closed -> no reply emitted").
//
// If w was already resolved (by a hand-off racing a deadline or a
// disconnect) by the time this is called, any item it was handed is
// recovered from its channel and re-pushed onto the head of its list, then
// handed off again to the next waiter if one is queued, so that no item is
// ever silently dropped (spec.md §9 "cancellation races").
func (ks *Keyspace) CancelWaiter(w *Waiter) {
	ks.mu.Lock()
	if !w.resolved {
		w.resolved = true
		if w.timer != nil {
			w.timer.Stop()
		}
		ks.removeWaiterLocked(w)
		ks.mu.Unlock()
		return
	}
	ks.mu.Unlock()

	// w was already resolved by the time we got here: the resolving
	// critical section (handoffLocked or expireWaiter) fully completed,
	// including its channel send, before our Lock() above could have
	// succeeded. So if a value is waiting in the buffer, it's there now.
	select {
	case v := <-w.ch:
		if v != nil {
			ks.reenqueue(w.key, v)
		}
	default:
	}
}

// reenqueue re-pushes a recovered item onto the head of key's list and
// immediately attempts to hand it off to the next waiter, if any. It
// acquires ks.mu itself; callers must not already hold it.
func (ks *Keyspace) reenqueue(key string, v []byte) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e, err := ks.listForWriteLocked(key)
	if err != nil {
		// Can't happen in practice (key was a list a moment ago and
		// nothing else touches it while this waiter round-trips), but
		// fail safe rather than drop the item silently.
		e = newListEntry()
		ks.entries[key] = e
	}
	e.list.PushFront(v)
	ks.handoffLocked(key)
}

// handoffLocked implements the coordinator's on_push operation (spec.md
// §4.4): while key's list is non-empty and its waiter FIFO has a live head,
// atomically pop one element and deliver it to that waiter. Must be called
// with ks.mu held, as part of the same critical section that pushed onto
// the list.
func (ks *Keyspace) handoffLocked(key string) {
	for {
		q := ks.waiters[key]
		if q == nil || q.Len() == 0 {
			return
		}
		e := ks.entries[key]
		if e == nil || e.kind != KindList || e.list.Len() == 0 {
			return
		}

		front := q.Front()
		w := front.Value.(*Waiter)
		q.Remove(front)
		w.elem = nil
		if q.Len() == 0 {
			delete(ks.waiters, key)
		}
		if w.timer != nil {
			w.timer.Stop()
		}
		w.resolved = true

		v := popFrontLocked(e.list)
		ks.deleteIfEmptyLocked(key)
		w.ch <- v
	}
}

// drainAllWaitersLocked resolves every queued Waiter, across every key,
// with a timeout-shaped outcome. Used by FlushAll. Must be called with
// ks.mu held.
func (ks *Keyspace) drainAllWaitersLocked() {
	for key, q := range ks.waiters {
		for el := q.Front(); el != nil; el = el.Next() {
			w := el.Value.(*Waiter)
			if w.resolved {
				continue
			}
			w.resolved = true
			if w.timer != nil {
				w.timer.Stop()
			}
			w.elem = nil
			w.ch <- nil
		}
		delete(ks.waiters, key)
	}
}
