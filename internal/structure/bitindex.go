package structure

import (
	"bytes"
	"encoding/binary"
	"math/bits"
)

// Rank acceleration for a bit-array: the blocks log-array holds the cumulative
// 1-count at the end of every 64-bit word, the sblocks log-array the
// cumulative count at the end of every superblock of 64 words. Readers that
// answer rank/select queries combine the two with a popcount inside a single
// word; this package only needs to produce them.
const sblockWords = 64

// BuildRankIndex derives the blocks and sblocks log-arrays for ba.
func BuildRankIndex(ba *BitArray) (blocks, sblocks []byte) {
	width := BitsFor(ba.count)

	var blocksBuf, sblocksBuf bytes.Buffer
	blockBuilder := NewLogArrayBuilder(&blocksBuf, width)
	sblockBuilder := NewLogArrayBuilder(&sblocksBuf, width)

	words := len(ba.data) / 8
	var total uint64
	for w := 0; w < words; w++ {
		total += uint64(bits.OnesCount64(binary.BigEndian.Uint64(ba.data[w*8:])))
		// width is derived from the total bit count, so Push cannot fail
		_ = blockBuilder.Push(total)
		if (w+1)%sblockWords == 0 {
			_ = sblockBuilder.Push(total)
		}
	}
	if words%sblockWords != 0 || words == 0 {
		_ = sblockBuilder.Push(total)
	}
	blockBuilder.Finalize()
	sblockBuilder.Finalize()
	return blocksBuf.Bytes(), sblocksBuf.Bytes()
}
