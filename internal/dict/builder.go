package dict

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/standardbeagle/larchfix/internal/structure"
)

// Buffers receives the four serialized parts of a typed dictionary.
type Buffers struct {
	TypesPresent *bytes.Buffer
	TypeOffsets  *bytes.Buffer
	BlockOffsets *bytes.Buffer
	Blocks       *bytes.Buffer
}

// NewBuffers allocates an empty output set.
func NewBuffers() Buffers {
	return Buffers{
		TypesPresent: &bytes.Buffer{},
		TypeOffsets:  &bytes.Buffer{},
		BlockOffsets: &bytes.Buffer{},
		Blocks:       &bytes.Buffer{},
	}
}

// Builder serializes entries into a Buffers set. Entries must be added in
// strictly ascending dictionary order; equal or descending entries are
// rejected so that a dictionary can never hold duplicates.
type Builder struct {
	out Buffers

	types        []uint64
	typeStarts   []uint64
	blockOffsets []uint64
	count        int
	last         Entry
	hasLast      bool
	finalized    bool
}

func NewBuilder(out Buffers) *Builder {
	return &Builder{out: out}
}

// Add appends one entry.
func (b *Builder) Add(e Entry) error {
	if b.finalized {
		return fmt.Errorf("builder already finalized")
	}
	if !e.Type.Valid() {
		return fmt.Errorf("invalid datatype tag %d", uint8(e.Type))
	}
	if b.hasLast {
		switch c := b.last.Compare(e); {
		case c == 0:
			return fmt.Errorf("duplicate entry %q (%s)", e.Payload, e.Type)
		case c > 0:
			return fmt.Errorf("entry %q (%s) out of order", e.Payload, e.Type)
		}
	}

	if len(b.types) == 0 || Datatype(b.types[len(b.types)-1]) != e.Type {
		b.types = append(b.types, uint64(e.Type))
		b.typeStarts = append(b.typeStarts, uint64(b.count))
	}
	if b.count%blockSize == 0 {
		b.blockOffsets = append(b.blockOffsets, uint64(b.out.Blocks.Len()))
	}

	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(e.Payload)))
	b.out.Blocks.Write(lenBuf[:n])
	b.out.Blocks.Write(e.Payload)

	b.count++
	b.last = Entry{Type: e.Type, Payload: append([]byte(nil), e.Payload...)}
	b.hasLast = true
	return nil
}

// AddAll appends every entry in order.
func (b *Builder) AddAll(entries []Entry) error {
	for _, e := range entries {
		if err := b.Add(e); err != nil {
			return err
		}
	}
	return nil
}

// Finalize writes the three log-arrays describing what Add streamed into the
// blocks blob. The empty dictionary serializes to four empty sequences.
func (b *Builder) Finalize() error {
	if b.finalized {
		return fmt.Errorf("builder already finalized")
	}
	b.finalized = true
	if b.count == 0 {
		return nil
	}

	writeLogArray := func(buf *bytes.Buffer, vs []uint64) error {
		max := uint64(0)
		for _, v := range vs {
			if v > max {
				max = v
			}
		}
		la := structure.NewLogArrayBuilder(buf, structure.BitsFor(max))
		if err := la.PushAll(vs); err != nil {
			return err
		}
		la.Finalize()
		return nil
	}

	if err := writeLogArray(b.out.TypesPresent, b.types); err != nil {
		return err
	}
	if err := writeLogArray(b.out.TypeOffsets, b.typeStarts); err != nil {
		return err
	}
	return writeLogArray(b.out.BlockOffsets, b.blockOffsets)
}
