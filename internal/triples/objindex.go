package triples

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/standardbeagle/larchfix/internal/structure"
)

// ObjectIndex holds the rebuilt o_ps column: for every distinct object, in
// ascending object order, the list of sp-pair numbers that reference it.
type ObjectIndex struct {
	OPsNums            []byte
	OPsBits            []byte
	OPsBitIndexBlocks  []byte
	OPsBitIndexSblocks []byte
	// Objects is the distinct-objects log-array; only produced for child
	// layers (withObjects), base layers address objects through the idmap.
	Objects []byte
}

// BuildObjectIndex derives the o_ps column from a freshly rewritten sp_o
// column. Ordinal remapping changes which objects map to which sp pairs, so
// the column is rebuilt from scratch rather than rewritten. Pair numbers are
// 1-based group indexes of the sp_o column.
func BuildObjectIndex(spOBits, spONums []byte, withObjects bool) (*ObjectIndex, error) {
	ba, err := structure.ParseBitArray(spOBits)
	if err != nil {
		return nil, fmt.Errorf("sp_o bits: %w", err)
	}
	la, err := structure.ParseLogArray(spONums)
	if err != nil {
		return nil, fmt.Errorf("sp_o nums: %w", err)
	}
	if ba.Len() != la.Len() {
		return nil, fmt.Errorf("sp_o bits has %d entries but nums has %d", ba.Len(), la.Len())
	}

	// object -> ascending pair numbers; pairs arrive in ascending order, so
	// appending preserves the group invariant
	pairsByObject := make(map[uint64][]uint64)
	pair := uint64(1)
	var maxPair uint64
	for i := 0; i < ba.Len(); i++ {
		o := la.Get(i)
		pairsByObject[o] = append(pairsByObject[o], pair)
		maxPair = pair
		if ba.Get(i) {
			pair++
		}
	}

	objects := make([]uint64, 0, len(pairsByObject))
	for o := range pairsByObject {
		objects = append(objects, o)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i] < objects[j] })

	var numsBuf, bitsBuf bytes.Buffer
	numsBuilder := structure.NewLogArrayBuilder(&numsBuf, structure.BitsFor(maxPair))
	bitsBuilder := structure.NewBitArrayBuilder(&bitsBuf)
	for _, o := range objects {
		ps := pairsByObject[o]
		for i, p := range ps {
			// widths are derived from maxima, so Push cannot fail
			_ = numsBuilder.Push(p)
			bitsBuilder.Push(i == len(ps)-1)
		}
	}
	numsBuilder.Finalize()
	bitsBuilder.Finalize()

	out := &ObjectIndex{OPsNums: numsBuf.Bytes(), OPsBits: bitsBuf.Bytes()}
	oPsBits, err := structure.ParseBitArray(out.OPsBits)
	if err != nil {
		return nil, err
	}
	out.OPsBitIndexBlocks, out.OPsBitIndexSblocks = structure.BuildRankIndex(oPsBits)

	if withObjects {
		var objBuf bytes.Buffer
		var maxObject uint64
		if len(objects) > 0 {
			maxObject = objects[len(objects)-1]
		}
		objBuilder := structure.NewLogArrayBuilder(&objBuf, structure.BitsFor(maxObject))
		_ = objBuilder.PushAll(objects)
		objBuilder.Finalize()
		out.Objects = objBuf.Bytes()
	}
	return out, nil
}
