package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXAddScenario5(t *testing.T) {
	ks := New()

	id, err := ks.XAdd("s", "1-1", []Field{{Name: []byte("f"), Value: []byte("v")}})
	require.NoError(t, err)
	assert.Equal(t, "1-1", id)

	_, err = ks.XAdd("s", "1-1", []Field{{Name: []byte("f"), Value: []byte("v")}})
	assert.EqualError(t, err, errNotGreater)

	id, err = ks.XAdd("s", "1-*", []Field{{Name: []byte("g"), Value: []byte("w")}})
	require.NoError(t, err)
	assert.Equal(t, "1-2", id)

	id, err = ks.XAdd("s", "2-*", []Field{{Name: []byte("h"), Value: []byte("x")}})
	require.NoError(t, err)
	assert.Equal(t, "2-0", id)
}

func TestXAddScenario6(t *testing.T) {
	ks := New()

	id, err := ks.XAdd("t", "0-*", []Field{{Name: []byte("f"), Value: []byte("v")}})
	require.NoError(t, err)
	assert.Equal(t, "0-1", id)

	id, err = ks.XAdd("t", "0-*", []Field{{Name: []byte("f"), Value: []byte("v")}})
	require.NoError(t, err)
	assert.Equal(t, "0-2", id)

	id, err = ks.XAdd("t", "1-*", []Field{{Name: []byte("f"), Value: []byte("v")}})
	require.NoError(t, err)
	assert.Equal(t, "1-0", id)
}

func TestXAddZeroZeroRejected(t *testing.T) {
	ks := New()
	_, err := ks.XAdd("s", "0-0", nil)
	assert.EqualError(t, err, errZero)
}

func TestXAddBadFormat(t *testing.T) {
	ks := New()
	cases := []string{"", "abc", "1", "1-2-3", "1-abc", "-1-2"}
	for _, c := range cases {
		_, err := ks.XAdd("s", c, nil)
		assert.EqualError(t, err, errBadFormat, "id %q", c)
	}
}

func TestXAddWrongType(t *testing.T) {
	ks := New()
	ks.SetString("k", []byte("v"), 0, false)
	_, err := ks.XAdd("k", "1-1", nil)
	assert.ErrorIs(t, err, ErrWrongType{})
}

func TestStreamMonotonicity(t *testing.T) {
	ks := New()
	ids := []string{"1-1", "1-*", "2-*", "2-*", "5-0"}
	for _, reqID := range ids {
		_, err := ks.XAdd("s", reqID, nil)
		require.NoError(t, err)
	}

	entries := ks.StreamEntries("s")
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i-1].ID.Less(entries[i].ID),
			"entry %d (%s) must be strictly less than entry %d (%s)",
			i-1, entries[i-1].ID, i, entries[i].ID)
	}
}
