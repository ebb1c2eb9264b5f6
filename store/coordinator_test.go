package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediocregopher/redikv/mtest"
	"github.com/mediocregopher/redikv/mtest/massert"
)

func TestBLPopImmediate(t *testing.T) {
	ks := New()
	_, err := ks.RPush("q", [][]byte{[]byte("hello")})
	require.NoError(t, err)

	v, outcome, err := ks.BLPop(context.Background(), "q", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, BLPopValue, outcome)
	assert.Equal(t, []byte("hello"), v)
}

// TestBLPopHandoffScenario4 covers spec.md §8 scenario 4: a suspended BLPOP
// is woken by a later RPUSH on the same key, and the list ends up empty.
func TestBLPopHandoffScenario4(t *testing.T) {
	ks := New()

	resultCh := make(chan []byte, 1)
	go func() {
		v, outcome, err := ks.BLPop(context.Background(), "q", 5*time.Second)
		require.NoError(t, err)
		require.Equal(t, BLPopValue, outcome)
		resultCh <- v
	}()

	time.Sleep(50 * time.Millisecond)
	n, err := ks.RPush("q", [][]byte{[]byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	select {
	case v := <-resultCh:
		assert.Equal(t, []byte("hello"), v)
	case <-time.After(time.Second):
		t.Fatal("BLPOP was never woken")
	}

	llen, err := ks.LLen("q")
	require.NoError(t, err)
	assert.Equal(t, 0, llen)
}

// TestBLPopTimeoutScenario8 covers spec.md §8 scenario 8: BLPOP with no
// push times out with a null-array-shaped outcome after ~timeout.
func TestBLPopTimeoutScenario8(t *testing.T) {
	ks := New()
	start := time.Now()
	v, outcome, err := ks.BLPop(context.Background(), "empty", 200*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, BLPopTimeout, outcome)
	assert.Nil(t, v)
	assert.InDelta(t, 200*time.Millisecond, elapsed, float64(50*time.Millisecond))
}

func TestBLPopCancellation(t *testing.T) {
	ks := New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan BLPopOutcome, 1)
	go func() {
		_, outcome, _ := ks.BLPop(ctx, "q", 5*time.Second)
		done <- outcome
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case outcome := <-done:
		assert.Equal(t, BLPopCancelled, outcome)
	case <-time.After(time.Second):
		t.Fatal("cancellation was never observed")
	}
}

// TestFIFOWaiterFairness covers spec.md §8's named FIFO fairness invariant:
// if A suspended strictly before B on the same key, a single push wakes A,
// not B.
func TestFIFOWaiterFairness(t *testing.T) {
	ks := New()

	aCh := make(chan []byte, 1)
	bCh := make(chan []byte, 1)

	go func() {
		v, _, _ := ks.BLPop(context.Background(), "k", 5*time.Second)
		aCh <- v
	}()
	time.Sleep(30 * time.Millisecond) // ensure A enqueues strictly first

	go func() {
		v, _, _ := ks.BLPop(context.Background(), "k", 5*time.Second)
		bCh <- v
	}()
	time.Sleep(30 * time.Millisecond)

	_, err := ks.RPush("k", [][]byte{[]byte("v")})
	require.NoError(t, err)

	select {
	case v := <-aCh:
		assert.Equal(t, []byte("v"), v)
	case <-time.After(time.Second):
		t.Fatal("A was never woken")
	}

	select {
	case v := <-bCh:
		t.Fatalf("B should still be waiting, got %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestPushPopCommutativity is a Checker-driven property test (spec.md §8):
// after any interleaving of RPUSH and LPOP with no waiters involved, the
// number of popped items plus the number still in the list equals the
// number of pushed items.
func TestPushPopCommutativity(t *testing.T) {
	push := func(v string) mtest.Action {
		return mtest.Action{Applyer: pushApplyer(v)}
	}
	pop := func() mtest.Action {
		return mtest.Action{Applyer: popApplyer{}}
	}

	checker := mtest.Checker{
		Init: func() mtest.State {
			return &state{ks: New()}
		},
		Actions: func(mtest.State) []mtest.Action {
			return []mtest.Action{
				push("a"), push("b"), push("c"), pop(), pop(),
			}
		},
	}

	err := checker.Run(25, 200*time.Millisecond)
	require.NoError(t, err)
}

type pushApplyer string

func (p pushApplyer) Apply(s mtest.State) (mtest.State, error) {
	st := s.(*state)
	_, err := st.ks.RPush("k", [][]byte{[]byte(p)})
	if err != nil {
		return st, err
	}
	st.pushed = append(st.pushed, string(p))
	return st, nil
}

type popApplyer struct{}

func (popApplyer) Apply(s mtest.State) (mtest.State, error) {
	st := s.(*state)
	v, ok, _, err := st.ks.LPop("k", 0, false)
	if err != nil {
		return st, err
	}
	if ok {
		st.popped = append(st.popped, string(v))
	}

	remaining, err := st.ks.LRange("k", 0, -1)
	if err != nil {
		return st, err
	}
	if len(st.popped)+len(remaining) != len(st.pushed) {
		return st, assertErr("popped+remaining count diverged from pushed count")
	}
	return st, nil
}

type state struct {
	ks     *Keyspace
	pushed []string
	popped []string
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

// TestWaiterConservation is a concurrency smoke test for spec.md §8's
// "waiter conservation" invariant: every BLPOP that returns a value
// corresponds to exactly one hand-off, and that value is never also visible
// via LRANGE afterward.
func TestWaiterConservation(t *testing.T) {
	ks := New()
	const n = 20

	var wg sync.WaitGroup
	results := make([][]byte, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, outcome, err := ks.BLPop(context.Background(), "q", 2*time.Second)
			require.NoError(t, err)
			require.Equal(t, BLPopValue, outcome)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < n; i++ {
		_, err := ks.RPush("q", [][]byte{[]byte{byte('a' + i)}})
		require.NoError(t, err)
	}

	wg.Wait()

	seen := map[byte]int{}
	for _, v := range results {
		require.Len(t, v, 1)
		seen[v[0]]++
	}

	remaining, err := ks.LRange("q", 0, -1)
	require.NoError(t, err)

	// A single massert.All groups the two independent ways this invariant
	// can fail ("a value was delivered twice" and "a value leaked onto
	// LRANGE"); it stops at, and reports, the first of them that fails.
	massert.Fatal(t, massert.All(
		massert.Comment(massert.Len(seen, n), "every pushed value must be delivered to exactly one waiter"),
		massert.Comment(massert.Len(remaining, 0), "a handed-off value must never also be visible via LRANGE"),
	))
}
