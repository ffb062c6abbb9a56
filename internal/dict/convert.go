package dict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/larchfix/internal/escape"
)

// DuplicateError reports two distinct v10 entries that decoded to the same
// dictionary entry. The dictionary invariant (strictly ascending, no
// duplicates) would be violated, so conversion aborts.
type DuplicateError struct {
	Entry    Entry
	OldFirst uint64
	OldNext  uint64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("entries %d and %d are equal after decoding (%s %q)",
		e.OldFirst, e.OldNext, e.Entry.Type, e.Entry.Payload)
}

// ConvertValueDict streams the input dictionary, decodes string payloads, and
// writes the rebuilt dictionary into out. Entries are numbered from offset
// upward; the returned fragment maps old ordinals to new ones and is empty
// when decoding left every entry at its rank. The second return is the next
// chain offset (offset plus the entry count).
func ConvertValueDict(in *Dict, out Buffers, offset uint64) (map[uint64]uint64, uint64, error) {
	type numbered struct {
		entry Entry
		old   uint64
	}
	entries := make([]numbered, 0, in.NumEntries())
	reorder := false

	err := in.Each(func(ix int, e Entry) error {
		next, err := convertEntry(e)
		if err != nil {
			return fmt.Errorf("entry %d: %w", uint64(ix)+offset, err)
		}
		if n := len(entries); n > 0 {
			switch c := entries[n-1].entry.Compare(next); {
			case c == 0:
				return &DuplicateError{Entry: next, OldFirst: entries[n-1].old, OldNext: uint64(ix) + offset}
			case c > 0:
				reorder = true
			}
		}
		entries = append(entries, numbered{entry: next, old: uint64(ix) + offset})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	newOffset := offset + uint64(len(entries))
	fragment := make(map[uint64]uint64)
	if reorder {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].entry.Compare(entries[j].entry) < 0
		})
		for pos, ne := range entries {
			if pos > 0 && entries[pos-1].entry.Compare(ne.entry) == 0 {
				return nil, 0, &DuplicateError{Entry: ne.entry, OldFirst: entries[pos-1].old, OldNext: ne.old}
			}
			fragment[ne.old] = uint64(pos) + offset
		}
	}

	builder := NewBuilder(out)
	for _, ne := range entries {
		if err := builder.Add(ne.entry); err != nil {
			return nil, 0, err
		}
	}
	if err := builder.Finalize(); err != nil {
		return nil, 0, err
	}
	return fragment, newOffset, nil
}

// convertEntry produces the v11 form of one entry. String-like payloads are
// decoded and re-tagged as plain strings; lang-strings keep their language
// tag verbatim and decode only the value; everything else passes through
// byte-identical.
func convertEntry(e Entry) (Entry, error) {
	switch {
	case e.Type.IsStringLike():
		decoded, err := escape.Decode(e.StringValue())
		if err != nil {
			return Entry{}, err
		}
		return StringEntry(decoded), nil
	case e.Type == LangString:
		s := e.StringValue()
		pos := strings.IndexByte(s, '@')
		if pos < 0 {
			return Entry{}, fmt.Errorf("lang-string %q has no @ separator", s)
		}
		decoded, err := escape.Decode(s[pos+1:])
		if err != nil {
			return Entry{}, err
		}
		var b strings.Builder
		b.Grow(len(s))
		b.WriteString(s[:pos])
		b.WriteByte('@')
		b.WriteString(decoded)
		return LangStringEntry(b.String()), nil
	default:
		return e, nil
	}
}
