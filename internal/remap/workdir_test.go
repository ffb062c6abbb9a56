package remap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/larchfix/internal/store"
)

func testLayerID(t *testing.T) store.LayerID {
	t.Helper()
	id, err := store.ParseLayerID("0123456789abcdef0123456789abcdef01234567")
	require.NoError(t, err)
	return id
}

func TestMapping_Apply(t *testing.T) {
	m := Mapping{3: 7, 7: 3}
	assert.Equal(t, uint64(7), m.Apply(3))
	assert.Equal(t, uint64(3), m.Apply(7))
	assert.Equal(t, uint64(42), m.Apply(42), "unmapped ordinals are identity")
}

func TestMapping_Extend(t *testing.T) {
	m := Mapping{1: 2}
	m.Extend(Mapping{5: 6, 6: 5})
	assert.Equal(t, Mapping{1: 2, 5: 6, 6: 5}, m)
}

func TestWorkdir_RoundTrip(t *testing.T) {
	w := NewWorkdir(t.TempDir())
	id := testLayerID(t)

	in := Mapping{4: 5, 5: 4, 9: 9}
	require.NoError(t, w.Store(id, in, 10))

	out, offset, err := w.Load(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), offset)
	assert.Equal(t, in, out)
}

func TestWorkdir_EmptyMapping(t *testing.T) {
	w := NewWorkdir(t.TempDir())
	id := testLayerID(t)

	require.NoError(t, w.Store(id, Mapping{}, 3))
	out, offset, err := w.Load(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), offset)
	assert.Empty(t, out)
}

func TestWorkdir_DeterministicBytes(t *testing.T) {
	dir := t.TempDir()
	id := testLayerID(t)
	m := Mapping{9: 1, 1: 9, 5: 5, 3: 2}

	w1 := NewWorkdir(filepath.Join(dir, "a"))
	w2 := NewWorkdir(filepath.Join(dir, "b"))
	require.NoError(t, w1.Store(id, m, 10))
	require.NoError(t, w2.Store(id, m, 10))

	b1, err := os.ReadFile(w1.Path(id))
	require.NoError(t, err)
	b2, err := os.ReadFile(w2.Path(id))
	require.NoError(t, err)
	assert.Equal(t, b1, b2, "identical chains must serialize identically")
}

func TestWorkdir_MissingIsParentMapNotFound(t *testing.T) {
	w := NewWorkdir(t.TempDir())
	_, _, err := w.Load(testLayerID(t))
	assert.ErrorIs(t, err, ErrParentMapNotFound)
}

func TestWorkdir_CorruptFile(t *testing.T) {
	w := NewWorkdir(t.TempDir())
	id := testLayerID(t)
	path := w.Path(id)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not cbor at all"), 0o644))

	_, _, err := w.Load(id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrParentMapNotFound)
}

func TestWorkdir_PathUsesPrefixGrouping(t *testing.T) {
	w := NewWorkdir("/work")
	id := testLayerID(t)
	assert.Equal(t, filepath.Join("/work", "012", id.String()+".cbor"), w.Path(id))
}

func TestWorkdir_LockExcludesSecondRun(t *testing.T) {
	dir := t.TempDir()
	w1 := NewWorkdir(dir)
	release, err := w1.Acquire()
	require.NoError(t, err)
	defer release()

	w2 := NewWorkdir(dir)
	_, err = w2.Acquire()
	assert.Error(t, err)
}

func TestWorkdir_Clean(t *testing.T) {
	w := NewWorkdir(filepath.Join(t.TempDir(), "wd"))
	id := testLayerID(t)
	require.NoError(t, w.Store(id, Mapping{}, 1))
	require.NoError(t, w.Clean())
	_, err := os.Stat(w.Root())
	assert.True(t, os.IsNotExist(err))
}
