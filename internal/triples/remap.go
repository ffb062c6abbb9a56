// Package triples rewrites the grouped object columns of the triple index
// through an ordinal mapping, and rebuilds the object-to-pairs index that the
// remap invalidates.
package triples

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/standardbeagle/larchfix/internal/remap"
	"github.com/standardbeagle/larchfix/internal/structure"
)

// ConvertSpONums rewrites the nums half of an sp_o adjacency column through
// mapping. The bits half is consumed to find group boundaries but is not
// rewritten: remapping moves values within groups, never across them. Each
// rewritten group is re-sorted so the ascending group invariant holds under
// the new ordinals. The output keeps the input's element width.
func ConvertSpONums(bits, nums []byte, mapping remap.Mapping) ([]byte, error) {
	ba, err := structure.ParseBitArray(bits)
	if err != nil {
		return nil, fmt.Errorf("sp_o bits: %w", err)
	}
	la, err := structure.ParseLogArray(nums)
	if err != nil {
		return nil, fmt.Errorf("sp_o nums: %w", err)
	}
	if ba.Len() != la.Len() {
		return nil, fmt.Errorf("sp_o bits has %d entries but nums has %d", ba.Len(), la.Len())
	}

	var buf bytes.Buffer
	builder := structure.NewLogArrayBuilder(&buf, la.Width())

	bitStream := ba.Stream()
	numStream := la.Stream()
	group := make([]uint64, 0, 64)
	tally := 0
	for {
		b, ok := bitStream.Next()
		if !ok {
			break
		}
		tally++
		if !b {
			continue
		}
		// group boundary: the next tally nums form one group
		group = group[:0]
		for i := 0; i < tally; i++ {
			v, ok := numStream.Next()
			if !ok {
				return nil, fmt.Errorf("sp_o nums exhausted mid-group")
			}
			group = append(group, mapping.Apply(v))
		}
		sort.Slice(group, func(i, j int) bool { return group[i] < group[j] })
		if err := builder.PushAll(group); err != nil {
			return nil, fmt.Errorf("sp_o group does not fit input width: %w", err)
		}
		tally = 0
	}
	if tally != 0 {
		return nil, fmt.Errorf("sp_o bits end inside a group")
	}

	builder.Finalize()
	return buf.Bytes(), nil
}
