package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
	mmap "github.com/edsrzf/mmap-go"
)

// A .larch archive is a single file holding a layer's file set. Layout:
// 8-byte magic, u32 entry count, then per entry u32 file id, u64 offset,
// u64 length, u64 xxhash of the payload; all integers big-endian. Payloads
// follow the table in file-id order.
const archiveMagic = "LARCHV01"

const archiveHeaderSize = 8 + 4
const archiveEntrySize = 4 + 8 + 8 + 8

// ErrFileAbsent is returned when an archive does not contain the requested
// catalogue file.
var ErrFileAbsent = errors.New("file not present in layer archive")

// Archive is a read-only, memory-mapped layer archive. Slices returned from
// it alias the map and are only valid until Close.
type Archive struct {
	m     mmap.MMap
	files map[FileID][]byte
}

// OpenArchive maps path and verifies the table of contents, including the
// per-file checksums. Layer archives are immutable once finalized, so a
// checksum mismatch means on-disk corruption.
func OpenArchive(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	a := &Archive{m: m}
	if err := a.parse(); err != nil {
		m.Unmap()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func (a *Archive) parse() error {
	b := []byte(a.m)
	if len(b) < archiveHeaderSize || string(b[:8]) != archiveMagic {
		return fmt.Errorf("not a layer archive")
	}
	count := binary.BigEndian.Uint32(b[8:])
	tocEnd := archiveHeaderSize + int(count)*archiveEntrySize
	if len(b) < tocEnd {
		return fmt.Errorf("truncated table of contents")
	}

	a.files = make(map[FileID][]byte, count)
	for i := 0; i < int(count); i++ {
		e := b[archiveHeaderSize+i*archiveEntrySize:]
		id := FileID(binary.BigEndian.Uint32(e))
		off := binary.BigEndian.Uint64(e[4:])
		length := binary.BigEndian.Uint64(e[12:])
		sum := binary.BigEndian.Uint64(e[20:])
		if !id.Valid() {
			return fmt.Errorf("unknown file id %d in table of contents", uint32(id))
		}
		if off < uint64(tocEnd) || off+length > uint64(len(b)) {
			return fmt.Errorf("%s: payload out of bounds", id.Name())
		}
		payload := b[off : off+length]
		if xxhash.Sum64(payload) != sum {
			return fmt.Errorf("%s: checksum mismatch", id.Name())
		}
		if _, dup := a.files[id]; dup {
			return fmt.Errorf("%s: duplicate table entry", id.Name())
		}
		a.files[id] = payload
	}
	return nil
}

// Slice returns the payload of f, or ErrFileAbsent.
func (a *Archive) Slice(f FileID) ([]byte, error) {
	b, ok := a.files[f]
	if !ok {
		return nil, fmt.Errorf("%s: %w", f.Name(), ErrFileAbsent)
	}
	return b, nil
}

// SliceIfExists returns the payload of f when present.
func (a *Archive) SliceIfExists(f FileID) ([]byte, bool) {
	b, ok := a.files[f]
	return b, ok
}

// Has reports whether the archive contains f.
func (a *Archive) Has(f FileID) bool {
	_, ok := a.files[f]
	return ok
}

// Close releases the memory map.
func (a *Archive) Close() error {
	a.files = nil
	return a.m.Unmap()
}

// packArchive serializes the given file set into archive bytes.
func packArchive(files map[FileID][]byte) []byte {
	ids := make([]FileID, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	size := archiveHeaderSize + len(ids)*archiveEntrySize
	for _, id := range ids {
		size += len(files[id])
	}
	out := make([]byte, 0, size)
	out = append(out, archiveMagic...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(ids)))

	off := uint64(archiveHeaderSize + len(ids)*archiveEntrySize)
	for _, id := range ids {
		payload := files[id]
		out = binary.BigEndian.AppendUint32(out, uint32(id))
		out = binary.BigEndian.AppendUint64(out, off)
		out = binary.BigEndian.AppendUint64(out, uint64(len(payload)))
		out = binary.BigEndian.AppendUint64(out, xxhash.Sum64(payload))
		off += uint64(len(payload))
	}
	for _, id := range ids {
		out = append(out, files[id]...)
	}
	return out
}
