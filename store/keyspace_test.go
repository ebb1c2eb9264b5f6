package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringTTL(t *testing.T) {
	ks := New()

	base := time.Now()
	Now = func() time.Time { return base }
	defer func() { Now = time.Now }()

	ks.SetString("k", []byte("v"), 100*time.Millisecond, true)
	v, ok := ks.GetString("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	Now = func() time.Time { return base.Add(200 * time.Millisecond) }
	_, ok = ks.GetString("k")
	assert.False(t, ok, "expired string must read as absent")

	assert.Equal(t, "none", ks.TypeOf("k"), "lazily-expired key is deleted on read")
}

func TestSetOverwritesAnyPriorKind(t *testing.T) {
	ks := New()
	_, err := ks.RPush("k", [][]byte{[]byte("a")})
	require.NoError(t, err)

	ks.SetString("k", []byte("v"), 0, false)
	assert.Equal(t, "string", ks.TypeOf("k"))
}

func TestRPushLPushAndTypeMismatch(t *testing.T) {
	ks := New()

	n, err := ks.RPush("mylist", [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	vals, err := ks.LRange("mylist", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, vals)

	ks.SetString("str", []byte("v"), 0, false)
	_, err = ks.RPush("str", [][]byte{[]byte("x")})
	assert.ErrorIs(t, err, ErrWrongType{})
}

func TestLPushOrderMatchesSpecExample(t *testing.T) {
	ks := New()
	_, err := ks.LPush("k", [][]byte{[]byte("x"), []byte("y"), []byte("z")})
	require.NoError(t, err)

	vals, err := ks.LRange("k", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("z"), []byte("y"), []byte("x")}, vals)
}

func TestLPopCountAndScenario2(t *testing.T) {
	ks := New()
	_, err := ks.RPush("mylist", [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)

	_, _, many, err := ks.LPop("mylist", 2, true)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, many)

	vals, err := ks.LRange("mylist", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("c")}, vals)
}

func TestLPopNoCountOnAbsentKey(t *testing.T) {
	ks := New()
	v, ok, _, err := ks.LPop("nope", 0, false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestLPopCountZeroReturnsEmptyArray(t *testing.T) {
	ks := New()
	_, err := ks.RPush("k", [][]byte{[]byte("a")})
	require.NoError(t, err)

	_, _, many, err := ks.LPop("k", 0, true)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{}, many)
}

func TestLRangeNegativeIndices(t *testing.T) {
	ks := New()
	_, err := ks.RPush("k", [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)

	vals, err := ks.LRange("k", -2, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("b"), []byte("c")}, vals)

	vals, err = ks.LRange("k", 5, 10)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{}, vals)
}

func TestEmptyListDeletedFromKeyspace(t *testing.T) {
	ks := New()
	_, err := ks.RPush("k", [][]byte{[]byte("a")})
	require.NoError(t, err)

	_, _, _, err = ks.LPop("k", 0, false)
	require.NoError(t, err)
	assert.Equal(t, "none", ks.TypeOf("k"))

	n, err := ks.LLen("k")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFlushAll(t *testing.T) {
	ks := New()
	ks.SetString("a", []byte("1"), 0, false)
	_, err := ks.RPush("b", [][]byte{[]byte("x")})
	require.NoError(t, err)

	ks.FlushAll()

	assert.Equal(t, "none", ks.TypeOf("a"))
	assert.Equal(t, "none", ks.TypeOf("b"))
}
