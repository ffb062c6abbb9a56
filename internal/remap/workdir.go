package remap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/gofrs/flock"

	"github.com/standardbeagle/larchfix/internal/store"
)

// Per-layer state files use the same 3-hex grouping as the store itself.
const stateSuffix = ".cbor"

// ErrParentMapNotFound is returned when a child layer is converted before its
// parent's chain reached the workdir.
var ErrParentMapNotFound = errors.New("parent map not found")

// parentMapFile is the serialized form: the chain offset and the mapping as
// pairs sorted by old ordinal, so that identical chains serialize to
// identical bytes.
type parentMapFile struct {
	Offset  uint64      `cbor:"offset"`
	Mapping [][2]uint64 `cbor:"mapping"`
}

// Workdir persists per-layer remap chains between the conversion of a parent
// and the conversion of its children.
type Workdir struct {
	root string
	lock *flock.Flock
}

func NewWorkdir(root string) *Workdir {
	return &Workdir{root: root}
}

// Root returns the workdir root directory.
func (w *Workdir) Root() string { return w.root }

// Acquire creates the workdir and takes an exclusive lock on it, guarding
// against two migration runs sharing state. The returned release function
// must be called on every exit path.
func (w *Workdir) Acquire() (release func(), err error) {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return nil, err
	}
	w.lock = flock.New(filepath.Join(w.root, ".lock"))
	ok, err := w.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking workdir: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("workdir %s is locked by another run", w.root)
	}
	return func() { _ = w.lock.Unlock() }, nil
}

// Path returns the state file path for id.
func (w *Workdir) Path(id store.LayerID) string {
	return filepath.Join(w.root, id.Prefix(), id.String()+stateSuffix)
}

// Load reads the remap chain a converted layer left for its children.
// A missing file is ErrParentMapNotFound.
func (w *Workdir) Load(id store.LayerID) (Mapping, uint64, error) {
	b, err := os.ReadFile(w.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("layer %s: %w", id, ErrParentMapNotFound)
		}
		return nil, 0, err
	}
	var pm parentMapFile
	if err := cbor.Unmarshal(b, &pm); err != nil {
		return nil, 0, fmt.Errorf("layer %s: decoding parent map: %w", id, err)
	}
	m := make(Mapping, len(pm.Mapping))
	for _, pair := range pm.Mapping {
		m[pair[0]] = pair[1]
	}
	return m, pm.Offset, nil
}

// Store writes the composed chain for id and syncs it to disk before
// returning, so a child conversion can never observe a partial file.
func (w *Workdir) Store(id store.LayerID, m Mapping, offset uint64) error {
	pairs := make([][2]uint64, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, [2]uint64{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })

	b, err := cbor.Marshal(parentMapFile{Offset: offset, Mapping: pairs})
	if err != nil {
		return err
	}

	path := w.Path(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Clean removes the workdir and everything in it.
func (w *Workdir) Clean() error {
	return os.RemoveAll(w.root)
}
