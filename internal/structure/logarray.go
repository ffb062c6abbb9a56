// Package structure implements the packed integer and bit sequences backing
// the layer files: log-arrays (variable-bit-width integer arrays), bit-arrays,
// and the rank acceleration indexes derived from bit-arrays. Readers operate
// directly on memory-mapped byte slices; builders append to in-memory buffers
// that are committed in one write by the caller.
package structure

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"
)

// A log-array is a sequence of n unsigned integers, each w bits wide, packed
// MSB-first into big-endian 64-bit words. The payload is followed by an
// 8-byte trailer: u32 element count, u8 width, three zero bytes.
const logArrayTrailerSize = 8

// MaxLogArrayWidth is the widest element a log-array can hold.
const MaxLogArrayWidth = 64

// LogArray is a read-only view over a serialized log-array.
type LogArray struct {
	data  []byte
	count uint32
	width uint8
}

// ParseLogArray validates the trailer and payload size of b.
func ParseLogArray(b []byte) (*LogArray, error) {
	if len(b) < logArrayTrailerSize {
		return nil, fmt.Errorf("log-array too short: %d bytes", len(b))
	}
	trailer := b[len(b)-logArrayTrailerSize:]
	count := binary.BigEndian.Uint32(trailer)
	width := trailer[4]
	if width == 0 || width > MaxLogArrayWidth {
		return nil, fmt.Errorf("log-array width %d out of range", width)
	}
	payload := b[:len(b)-logArrayTrailerSize]
	need := wordsFor(uint64(count) * uint64(width))
	if uint64(len(payload)) != need*8 {
		return nil, fmt.Errorf("log-array payload is %d bytes, want %d for %d entries of width %d",
			len(payload), need*8, count, width)
	}
	return &LogArray{data: payload, count: count, width: width}, nil
}

func wordsFor(bitCount uint64) uint64 {
	return (bitCount + 63) / 64
}

// Len returns the number of elements.
func (la *LogArray) Len() int { return int(la.count) }

// Width returns the element width in bits.
func (la *LogArray) Width() uint8 { return la.width }

// Get returns element i. i must be in [0, Len()).
func (la *LogArray) Get(i int) uint64 {
	w := uint64(la.width)
	bitOff := uint64(i) * w
	wordIx := bitOff / 64
	bitIx := bitOff % 64
	word := binary.BigEndian.Uint64(la.data[wordIx*8:])
	if bitIx+w <= 64 {
		return (word >> (64 - bitIx - w)) & widthMask(la.width)
	}
	overflow := bitIx + w - 64
	next := binary.BigEndian.Uint64(la.data[(wordIx+1)*8:])
	return (word<<overflow | next>>(64-overflow)) & widthMask(la.width)
}

func widthMask(width uint8) uint64 {
	if width == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// Stream returns a sequential reader over the elements.
func (la *LogArray) Stream() *LogStream {
	return &LogStream{la: la}
}

// LogStream walks a log-array front to back without materializing it.
type LogStream struct {
	la *LogArray
	i  int
}

// Next returns the next element, or ok=false when exhausted.
func (s *LogStream) Next() (v uint64, ok bool) {
	if s.i >= s.la.Len() {
		return 0, false
	}
	v = s.la.Get(s.i)
	s.i++
	return v, true
}

// BitsFor returns the width needed to represent max, at least 1.
func BitsFor(max uint64) uint8 {
	w := bits.Len64(max)
	if w == 0 {
		return 1
	}
	return uint8(w)
}

// LogArrayBuilder packs elements of a fixed width into buf and finishes with
// the length/width trailer.
type LogArrayBuilder struct {
	buf     *bytes.Buffer
	width   uint8
	count   uint32
	cur     uint64
	curBits uint
}

// NewLogArrayBuilder panics if width is out of range; widths are computed by
// the caller from known maxima.
func NewLogArrayBuilder(buf *bytes.Buffer, width uint8) *LogArrayBuilder {
	if width == 0 || width > MaxLogArrayWidth {
		panic(fmt.Sprintf("log-array width %d out of range", width))
	}
	return &LogArrayBuilder{buf: buf, width: width}
}

// Push appends v. v must fit in the builder's width.
func (b *LogArrayBuilder) Push(v uint64) error {
	if v&^widthMask(b.width) != 0 {
		return fmt.Errorf("value %d does not fit in %d bits", v, b.width)
	}
	w := uint(b.width)
	if b.curBits+w <= 64 {
		b.cur |= v << (64 - b.curBits - w)
		b.curBits += w
		if b.curBits == 64 {
			b.flushWord()
		}
	} else {
		overflow := b.curBits + w - 64
		b.cur |= v >> overflow
		b.flushWord()
		b.cur = v << (64 - overflow)
		b.curBits = overflow
	}
	b.count++
	return nil
}

// PushAll appends every value in vs.
func (b *LogArrayBuilder) PushAll(vs []uint64) error {
	for _, v := range vs {
		if err := b.Push(v); err != nil {
			return err
		}
	}
	return nil
}

func (b *LogArrayBuilder) flushWord() {
	var word [8]byte
	binary.BigEndian.PutUint64(word[:], b.cur)
	b.buf.Write(word[:])
	b.cur = 0
	b.curBits = 0
}

// Count returns the number of elements pushed so far.
func (b *LogArrayBuilder) Count() int { return int(b.count) }

// Finalize flushes the partial word and writes the trailer. The builder must
// not be used afterwards.
func (b *LogArrayBuilder) Finalize() {
	if b.curBits > 0 {
		b.flushWord()
	}
	var trailer [logArrayTrailerSize]byte
	binary.BigEndian.PutUint32(trailer[:4], b.count)
	trailer[4] = b.width
	b.buf.Write(trailer[:])
}
