package migrate

import (
	stderrors "errors"
	"fmt"
	"io/fs"

	"github.com/c2h5oh/datasize"
	"github.com/sirupsen/logrus"

	"github.com/standardbeagle/larchfix/internal/dict"
	converrors "github.com/standardbeagle/larchfix/internal/errors"
	"github.com/standardbeagle/larchfix/internal/remap"
	"github.com/standardbeagle/larchfix/internal/store"
	"github.com/standardbeagle/larchfix/internal/triples"
)

// convertLayer runs the full per-layer pipeline: guard checks, parent chain
// load, dictionary transcode, triple remap, verbatim copies, object index
// rebuild, finalize, and the workdir hand-off to children. The input archive
// map is released on every exit path.
func (d *Driver) convertLayer(lf LayerFile) error {
	id := lf.ID
	log := d.log.WithField("layer", id.String())
	fail := func(op string, err error) error {
		return converrors.NewLayerError(id.String(), op, err)
	}

	log.Info("converting layer")

	exists, err := d.to.DirectoryExists(id)
	if err != nil {
		return fail("checking output", err)
	}
	if exists {
		return fail("checking output", converrors.ErrLayerAlreadyConverted)
	}
	if err := d.to.CreateNamedDirectory(id); err != nil {
		return fail("creating output", err)
	}

	a, err := d.from.Open(id)
	if err != nil {
		return fail("opening input", err)
	}
	defer a.Close()

	if a.Has(store.FileNodeValueRemap) {
		return fail("checking input", converrors.ErrNodeValueRemapExists)
	}

	parent, isChild, err := a.Parent()
	if err != nil {
		return fail("reading parent pointer", err)
	}

	mapping := remap.Mapping{}
	offset := uint64(0)
	if isChild {
		mapping, offset, err = d.workdir.Load(parent)
		if err != nil {
			return fail("loading parent map", &converrors.ParentMapError{Parent: parent.String(), Err: err})
		}
	}
	log.Debug("parent mapping retrieved")

	fragment, newOffset, err := d.convertValueDict(a, id, offset)
	if err != nil {
		return fail("converting value dictionary", err)
	}
	mapping.Extend(fragment)
	if len(fragment) > 0 {
		log.WithField("remapped", len(fragment)).Info("dictionary decoding reordered entries")
	}
	log.Debug("dictionaries converted")

	if err := d.convertTriples(a, id, isChild, mapping); err != nil {
		return fail("converting triples", err)
	}
	log.Debug("triples converted")

	if err := d.copyUnchangedFiles(a, id); err != nil {
		return fail("copying files", err)
	}
	log.Debug("files copied")

	if err := d.rebuildIndexes(id, isChild); err != nil {
		return fail("rebuilding indexes", err)
	}
	log.Debug("indexes rebuilt")

	if err := d.to.Finalize(id); err != nil {
		return fail("finalizing layer", err)
	}

	if err := d.workdir.Store(id, mapping, newOffset); err != nil {
		return fail("writing parent map", err)
	}
	log.Debug("parent map written to workdir")

	return nil
}

// convertValueDict feeds the four value-dictionary sequences through the
// transcoder and stages the rebuilt sequences. A layer without a value
// dictionary contributes nothing and keeps the chain offset unchanged.
func (d *Driver) convertValueDict(a *store.Archive, id store.LayerID, offset uint64) (remap.Mapping, uint64, error) {
	typesPresent, ok1 := a.SliceIfExists(store.FileValueDictionaryTypesPresent)
	typeOffsets, ok2 := a.SliceIfExists(store.FileValueDictionaryTypeOffsets)
	blockOffsets, ok3 := a.SliceIfExists(store.FileValueDictionaryOffsets)
	blocks, ok4 := a.SliceIfExists(store.FileValueDictionaryBlocks)
	if !ok1 && !ok2 && !ok3 && !ok4 {
		return nil, offset, nil
	}
	if !(ok1 && ok2 && ok3 && ok4) {
		return nil, 0, fmt.Errorf("value dictionary is missing some of its four sequences")
	}

	in, err := dict.FromParts(typesPresent, typeOffsets, blockOffsets, blocks)
	if err != nil {
		return nil, 0, err
	}
	out := dict.NewBuffers()
	fragment, newOffset, err := dict.ConvertValueDict(in, out, offset)
	if err != nil {
		return nil, 0, err
	}

	staged := []struct {
		f store.FileID
		b []byte
	}{
		{store.FileValueDictionaryTypesPresent, out.TypesPresent.Bytes()},
		{store.FileValueDictionaryTypeOffsets, out.TypeOffsets.Bytes()},
		{store.FileValueDictionaryOffsets, out.BlockOffsets.Bytes()},
		{store.FileValueDictionaryBlocks, out.Blocks.Bytes()},
	}
	for _, s := range staged {
		if err := d.to.WriteBytes(id, s.f, s.b); err != nil {
			return nil, 0, err
		}
	}
	return fragment, newOffset, nil
}

// convertTriples rewrites the object column(s) of the layer: the base column
// for a base layer, the positive and negative columns for a child.
func (d *Driver) convertTriples(a *store.Archive, id store.LayerID, isChild bool, mapping remap.Mapping) error {
	columns := []struct{ bits, nums store.FileID }{
		{store.FileBaseSpOAdjacencyListBits, store.FileBaseSpOAdjacencyListNums},
	}
	if isChild {
		columns = []struct{ bits, nums store.FileID }{
			{store.FilePosSpOAdjacencyListBits, store.FilePosSpOAdjacencyListNums},
			{store.FileNegSpOAdjacencyListBits, store.FileNegSpOAdjacencyListNums},
		}
	}
	for _, col := range columns {
		bits, okBits := a.SliceIfExists(col.bits)
		nums, okNums := a.SliceIfExists(col.nums)
		if !okBits && !okNums {
			continue
		}
		if okBits != okNums {
			return fmt.Errorf("%s present without its companion", col.nums.Name())
		}
		out, err := triples.ConvertSpONums(bits, nums, mapping)
		if err != nil {
			return fmt.Errorf("%s: %w", col.nums.Name(), err)
		}
		if err := d.to.WriteBytes(id, col.nums, out); err != nil {
			return err
		}
	}
	return nil
}

// copyUnchangedFiles stages every catalogue file that survives conversion
// verbatim. Absent input files are skipped.
func (d *Driver) copyUnchangedFiles(a *store.Archive, id store.LayerID) error {
	var copied datasize.ByteSize
	for _, f := range store.UnchangedFiles {
		b, ok := a.SliceIfExists(f)
		if !ok {
			continue
		}
		if err := d.to.WriteBytes(id, f, b); err != nil {
			return &converrors.FileCopyError{Name: f.Name(), Err: err}
		}
		copied += datasize.ByteSize(len(b))
	}
	d.log.WithFields(logrus.Fields{
		"layer":  id.String(),
		"copied": copied.HumanReadable(),
	}).Debug("unchanged files staged")
	return nil
}

// rebuildIndexes regenerates the o_ps column(s) from the freshly staged sp_o
// column(s): once for a base layer, twice (positive and negative) for a
// child. Child layers also receive rebuilt distinct-objects lists.
func (d *Driver) rebuildIndexes(id store.LayerID, isChild bool) error {
	type rebuild struct {
		spOBits, spONums store.FileID
		oPs              [4]store.FileID // nums, bits, blocks, sblocks
		objects          store.FileID
		withObjects      bool
	}
	jobs := []rebuild{{
		spOBits: store.FileBaseSpOAdjacencyListBits,
		spONums: store.FileBaseSpOAdjacencyListNums,
		oPs: [4]store.FileID{
			store.FileBaseOPsAdjacencyListNums,
			store.FileBaseOPsAdjacencyListBits,
			store.FileBaseOPsAdjacencyListBitIndexBlocks,
			store.FileBaseOPsAdjacencyListBitIndexSblocks,
		},
	}}
	if isChild {
		jobs = []rebuild{
			{
				spOBits: store.FilePosSpOAdjacencyListBits,
				spONums: store.FilePosSpOAdjacencyListNums,
				oPs: [4]store.FileID{
					store.FilePosOPsAdjacencyListNums,
					store.FilePosOPsAdjacencyListBits,
					store.FilePosOPsAdjacencyListBitIndexBlocks,
					store.FilePosOPsAdjacencyListBitIndexSblocks,
				},
				objects:     store.FileChildPosObjects,
				withObjects: true,
			},
			{
				spOBits: store.FileNegSpOAdjacencyListBits,
				spONums: store.FileNegSpOAdjacencyListNums,
				oPs: [4]store.FileID{
					store.FileNegOPsAdjacencyListNums,
					store.FileNegOPsAdjacencyListBits,
					store.FileNegOPsAdjacencyListBitIndexBlocks,
					store.FileNegOPsAdjacencyListBitIndexSblocks,
				},
				objects:     store.FileChildNegObjects,
				withObjects: true,
			},
		}
	}

	for _, job := range jobs {
		bits, err := d.to.ReadStaged(id, job.spOBits)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		nums, err := d.to.ReadStaged(id, job.spONums)
		if err != nil {
			return err
		}
		idx, err := triples.BuildObjectIndex(bits, nums, job.withObjects)
		if err != nil {
			return fmt.Errorf("%s: %w", job.spONums.Name(), err)
		}
		writes := []struct {
			f store.FileID
			b []byte
		}{
			{job.oPs[0], idx.OPsNums},
			{job.oPs[1], idx.OPsBits},
			{job.oPs[2], idx.OPsBitIndexBlocks},
			{job.oPs[3], idx.OPsBitIndexSblocks},
		}
		for _, w := range writes {
			if err := d.to.WriteBytes(id, w.f, w.b); err != nil {
				return err
			}
		}
		if job.withObjects {
			if err := d.to.WriteBytes(id, job.objects, idx.Objects); err != nil {
				return err
			}
		}
	}
	return nil
}
