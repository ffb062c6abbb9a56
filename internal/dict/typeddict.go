package dict

import (
	"encoding/binary"
	"fmt"

	"github.com/standardbeagle/larchfix/internal/structure"
)

// Entries are stored in blocks of up to 8; the block-offsets log-array names
// the byte offset of every block start within the blob.
const blockSize = 8

// Dict is a read-only view over the four backing sequences of a typed
// dictionary, usually memory-mapped slices of a layer archive.
type Dict struct {
	typesPresent *structure.LogArray
	typeOffsets  *structure.LogArray
	blockOffsets *structure.LogArray
	blocks       []byte
	count        int
}

// FromParts opens a typed dictionary from its four backing byte sequences.
// Empty inputs (all four zero-length) yield an empty dictionary.
func FromParts(typesPresent, typeOffsets, blockOffsets, blocks []byte) (*Dict, error) {
	if len(typesPresent) == 0 && len(typeOffsets) == 0 && len(blockOffsets) == 0 && len(blocks) == 0 {
		return &Dict{}, nil
	}
	tp, err := structure.ParseLogArray(typesPresent)
	if err != nil {
		return nil, fmt.Errorf("types-present: %w", err)
	}
	to, err := structure.ParseLogArray(typeOffsets)
	if err != nil {
		return nil, fmt.Errorf("type-offsets: %w", err)
	}
	if tp.Len() != to.Len() {
		return nil, fmt.Errorf("types-present has %d entries, type-offsets %d", tp.Len(), to.Len())
	}
	bo, err := structure.ParseLogArray(blockOffsets)
	if err != nil {
		return nil, fmt.Errorf("block-offsets: %w", err)
	}
	d := &Dict{typesPresent: tp, typeOffsets: to, blockOffsets: bo, blocks: blocks}
	if d.count, err = d.scanCount(); err != nil {
		return nil, err
	}
	return d, nil
}

// scanCount walks the blob once to count entries and validate framing.
func (d *Dict) scanCount() (int, error) {
	n := 0
	off := 0
	for off < len(d.blocks) {
		l, sz := binary.Uvarint(d.blocks[off:])
		if sz <= 0 {
			return 0, fmt.Errorf("corrupt entry length at blob offset %d", off)
		}
		off += sz + int(l)
		if off > len(d.blocks) {
			return 0, fmt.Errorf("entry at blob offset %d overruns blob", off-sz-int(l))
		}
		n++
	}
	return n, nil
}

// NumEntries returns the entry count.
func (d *Dict) NumEntries() int { return d.count }

// typeAt returns the datatype of entry index ix using the per-type offsets.
func (d *Dict) typeAt(ix int) (Datatype, error) {
	n := d.typesPresent.Len()
	for j := n - 1; j >= 0; j-- {
		if int(d.typeOffsets.Get(j)) <= ix {
			t := Datatype(d.typesPresent.Get(j))
			if !t.Valid() {
				return 0, fmt.Errorf("entry %d has unknown datatype tag %d", ix, d.typesPresent.Get(j))
			}
			return t, nil
		}
	}
	return 0, fmt.Errorf("entry %d not covered by type-offsets", ix)
}

// Each calls fn for every entry in native order. The payload slice aliases
// the backing blob and must not be retained across the callback unless the
// backing map outlives the use.
func (d *Dict) Each(fn func(ix int, e Entry) error) error {
	off := 0
	for ix := 0; ix < d.count; ix++ {
		l, sz := binary.Uvarint(d.blocks[off:])
		payload := d.blocks[off+sz : off+sz+int(l)]
		off += sz + int(l)

		t, err := d.typeAt(ix)
		if err != nil {
			return err
		}
		if err := fn(ix, Entry{Type: t, Payload: payload}); err != nil {
			return err
		}
	}
	return nil
}
