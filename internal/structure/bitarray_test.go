package structure

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBitArray(t *testing.T, bits []bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	b := NewBitArrayBuilder(&buf)
	for _, bit := range bits {
		b.Push(bit)
	}
	b.Finalize()
	return buf.Bytes()
}

func TestBitArray_RoundTrip(t *testing.T) {
	patterns := [][]bool{
		{},
		{true},
		{false, false, true},
		make([]bool, 64),
		append(make([]bool, 64), true),
	}
	// a 200-bit pattern with every third bit set
	long := make([]bool, 200)
	for i := range long {
		long[i] = i%3 == 0
	}
	patterns = append(patterns, long)

	for _, bits := range patterns {
		ba, err := ParseBitArray(buildBitArray(t, bits))
		require.NoError(t, err)
		require.Equal(t, len(bits), ba.Len())
		for i, want := range bits {
			assert.Equal(t, want, ba.Get(i), "bit %d", i)
		}
	}
}

func TestBitArray_Rank(t *testing.T) {
	bits := make([]bool, 150)
	for i := range bits {
		bits[i] = i%2 == 0
	}
	ba, err := ParseBitArray(buildBitArray(t, bits))
	require.NoError(t, err)

	var want uint64
	for i, b := range bits {
		if b {
			want++
		}
		assert.Equal(t, want, ba.Rank(i), "rank at %d", i)
	}
}

func TestBitArray_Stream(t *testing.T) {
	bits := []bool{true, false, true, true, false}
	ba, err := ParseBitArray(buildBitArray(t, bits))
	require.NoError(t, err)

	s := ba.Stream()
	var got []bool
	for {
		b, ok := s.Next()
		if !ok {
			break
		}
		got = append(got, b)
	}
	assert.Equal(t, bits, got)
}

func TestParseBitArray_Invalid(t *testing.T) {
	_, err := ParseBitArray([]byte{1, 2})
	assert.Error(t, err)

	// trailer claims 65 bits but carries one word
	b := make([]byte, 16)
	b[15] = 65
	_, err = ParseBitArray(b)
	assert.Error(t, err)
}

func TestBuildRankIndex(t *testing.T) {
	bits := make([]bool, 130)
	for i := range bits {
		bits[i] = i%5 == 0
	}
	ba, err := ParseBitArray(buildBitArray(t, bits))
	require.NoError(t, err)

	blocksBytes, sblocksBytes := BuildRankIndex(ba)
	blocks, err := ParseLogArray(blocksBytes)
	require.NoError(t, err)
	sblocks, err := ParseLogArray(sblocksBytes)
	require.NoError(t, err)

	// one cumulative count per 64-bit word
	require.Equal(t, 3, blocks.Len())
	assert.Equal(t, ba.Rank(63), blocks.Get(0))
	assert.Equal(t, ba.Rank(127), blocks.Get(1))
	assert.Equal(t, ba.Rank(129), blocks.Get(2))

	// a single partial superblock carries the grand total
	require.Equal(t, 1, sblocks.Len())
	assert.Equal(t, ba.Rank(129), sblocks.Get(0))
}
