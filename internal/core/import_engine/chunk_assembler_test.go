package importengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkAssembler_SealsAtThreshold(t *testing.T) {
	// Four records of length 5 against a threshold of 12: the third append
	// brings the pending size to 15 and seals exactly three records; the
	// fourth starts a fresh pending group.
	a := newChunkAssembler(12)

	require.Nil(t, a.add("aaaaa"))
	require.Nil(t, a.add("bbbbb"))

	c := a.add("ccccc")
	require.NotNil(t, c)
	assert.Equal(t, 0, c.index)
	assert.Equal(t, []string{"aaaaa", "bbbbb", "ccccc"}, c.records)
	assert.Equal(t, 15, c.size)

	require.Nil(t, a.add("ddddd"))
	assert.Equal(t, []string{"ddddd"}, a.pending)
}

func TestChunkAssembler_FlushTrailing(t *testing.T) {
	a := newChunkAssembler(100)
	require.Nil(t, a.add("tail"))

	c := a.flush()
	require.NotNil(t, c)
	assert.Equal(t, []string{"tail"}, c.records)
	assert.Equal(t, 4, c.size)
}

func TestChunkAssembler_FlushEmpty(t *testing.T) {
	a := newChunkAssembler(10)
	assert.Nil(t, a.flush())
}

func TestChunkAssembler_ThresholdBelowRecordSize(t *testing.T) {
	// Chunks are never split mid-record: each record seals alone.
	a := newChunkAssembler(1)

	first := a.add("a long record")
	require.NotNil(t, first)
	assert.Equal(t, []string{"a long record"}, first.records)

	second := a.add("another")
	require.NotNil(t, second)
	assert.Equal(t, []string{"another"}, second.records)
}

func TestChunkAssembler_SequentialIndices(t *testing.T) {
	a := newChunkAssembler(1)
	for i := 0; i < 5; i++ {
		c := a.add("x")
		require.NotNil(t, c)
		assert.Equal(t, i, c.index)
	}
	require.Nil(t, a.flush())

	require.Nil(t, a.add(""))
	// An empty record cannot reach a positive threshold; flush still seals it.
	c := a.flush()
	require.NotNil(t, c)
	assert.Equal(t, 5, c.index)
}
