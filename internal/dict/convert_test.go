package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convert(t *testing.T, in Buffers, offset uint64) (map[uint64]uint64, uint64, Buffers) {
	t.Helper()
	out := NewBuffers()
	fragment, newOffset, err := ConvertValueDict(openDict(t, in), out, offset)
	require.NoError(t, err)
	return fragment, newOffset, out
}

func TestConvert_EscapeFreePassThrough(t *testing.T) {
	in := buildDict(t, []Entry{
		StringEntry("alpha"),
		StringEntry("bravo"),
		StringEntry("charlie"),
	})
	fragment, newOffset, out := convert(t, in, 0)

	assert.Empty(t, fragment)
	assert.Equal(t, uint64(3), newOffset)
	assert.Equal(t, in.TypesPresent.Bytes(), out.TypesPresent.Bytes())
	assert.Equal(t, in.TypeOffsets.Bytes(), out.TypeOffsets.Bytes())
	assert.Equal(t, in.BlockOffsets.Bytes(), out.BlockOffsets.Bytes())
	assert.Equal(t, in.Blocks.Bytes(), out.Blocks.Bytes())
}

func TestConvert_EmptyDictionary(t *testing.T) {
	fragment, newOffset, err := ConvertValueDict(openDict(t, NewBuffers()), NewBuffers(), 7)
	require.NoError(t, err)
	assert.Empty(t, fragment)
	assert.Equal(t, uint64(7), newOffset)
}

func TestConvert_DecodeReorders(t *testing.T) {
	// escaped \n and \t swap ranks once decoded: 0x09 sorts before 0x0a
	in := buildDict(t, []Entry{
		StringEntry(`a\nb`),
		StringEntry(`a\tb`),
		StringEntry("z"),
	})
	fragment, newOffset, out := convert(t, in, 0)

	assert.Equal(t, map[uint64]uint64{0: 1, 1: 0, 2: 2}, fragment)
	assert.Equal(t, uint64(3), newOffset)
	assert.Equal(t, []Entry{
		StringEntry("a\tb"),
		StringEntry("a\nb"),
		StringEntry("z"),
	}, collectEntries(t, openDict(t, out)))
}

func TestConvert_ReorderRespectsOffset(t *testing.T) {
	in := buildDict(t, []Entry{
		StringEntry(`a\nb`),
		StringEntry(`a\tb`),
	})
	fragment, newOffset, _ := convert(t, in, 10)

	assert.Equal(t, map[uint64]uint64{10: 11, 11: 10}, fragment)
	assert.Equal(t, uint64(12), newOffset)
}

func TestConvert_FragmentIsBijectionInRange(t *testing.T) {
	// escaped forms ascend, decoded forms do not: U+0100 sorts after "A"
	// and "B" once decoded
	in := buildDict(t, []Entry{
		StringEntry(`a\x100\`),
		StringEntry(`a\x41\`),
		StringEntry(`a\x42\`),
	})
	const offset = 5
	fragment, newOffset, _ := convert(t, in, offset)

	require.Equal(t, uint64(offset+3), newOffset)
	require.Len(t, fragment, 3)
	seen := map[uint64]bool{}
	for old, now := range fragment {
		assert.GreaterOrEqual(t, old, uint64(offset))
		assert.Less(t, old, newOffset)
		assert.GreaterOrEqual(t, now, uint64(offset))
		assert.Less(t, now, newOffset)
		assert.False(t, seen[now], "new ordinal %d assigned twice", now)
		seen[now] = true
	}
	// decoded entries sort to "aA", "aB", "aĀ"
	assert.Equal(t, map[uint64]uint64{5: 7, 6: 5, 7: 6}, fragment)
}

func TestConvert_StringLikeTypesCollapseToString(t *testing.T) {
	in := buildDict(t, []Entry{
		{Type: NCName, Payload: []byte("name")},
		{Type: AnyURI, Payload: []byte("http://example.com/x")},
	})
	fragment, _, out := convert(t, in, 0)

	entries := collectEntries(t, openDict(t, out))
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, String, e.Type)
	}
	// collapsing to one group re-ranks the payloads by byte order
	assert.Equal(t, map[uint64]uint64{0: 1, 1: 0}, fragment)
	assert.Equal(t, "http://example.com/x", entries[0].StringValue())
}

func TestConvert_LangString(t *testing.T) {
	in := buildDict(t, []Entry{
		LangStringEntry(`en@hello\nworld`),
	})
	fragment, newOffset, out := convert(t, in, 0)

	assert.Empty(t, fragment)
	assert.Equal(t, uint64(1), newOffset)
	entries := collectEntries(t, openDict(t, out))
	require.Len(t, entries, 1)
	assert.Equal(t, LangString, entries[0].Type)
	assert.Equal(t, "en@hello\nworld", entries[0].StringValue())
}

func TestConvert_LangStringMissingSeparator(t *testing.T) {
	in := buildDict(t, []Entry{
		LangStringEntry("no separator here"),
	})
	_, _, err := ConvertValueDict(openDict(t, in), NewBuffers(), 0)
	assert.Error(t, err)
}

func TestConvert_NonStringPassThroughByteIdentical(t *testing.T) {
	payload := []byte{0x80, 0x00, 0x2a}
	in := buildDict(t, []Entry{
		{Type: Integer, Payload: payload},
		{Type: DateTime, Payload: []byte{0x01, 0x02}},
	})
	fragment, newOffset, out := convert(t, in, 0)

	assert.Empty(t, fragment)
	assert.Equal(t, uint64(2), newOffset)
	assert.Equal(t, in.Blocks.Bytes(), out.Blocks.Bytes())
}

func TestConvert_DuplicateAfterDecodeIsFatal(t *testing.T) {
	// an escaped newline and a literal newline collapse to the same string
	in := buildDict(t, []Entry{
		StringEntry("a\nb"),
		StringEntry(`a\nb`),
	})
	_, _, err := ConvertValueDict(openDict(t, in), NewBuffers(), 0)
	require.Error(t, err)
	var de *DuplicateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, uint64(0), de.OldFirst)
	assert.Equal(t, uint64(1), de.OldNext)
}

func TestConvert_CardinalityPreserved(t *testing.T) {
	in := buildDict(t, []Entry{
		StringEntry(`a\nb`),
		StringEntry(`a\tz`),
		StringEntry("plain"),
		{Type: Boolean, Payload: []byte{0}},
	})
	_, newOffset, out := convert(t, in, 0)
	assert.Equal(t, uint64(4), newOffset)
	assert.Equal(t, 4, openDict(t, out).NumEntries())
}

func TestConvert_UnknownEscapeSurfaces(t *testing.T) {
	in := buildDict(t, []Entry{
		StringEntry(`bad\qescape`),
	})
	_, _, err := ConvertValueDict(openDict(t, in), NewBuffers(), 0)
	assert.Error(t, err)
}
