// Package migrate walks a v10 store and drives the per-layer conversion
// pipeline: parent-first ordering, cutoff handling, verbatim copies, the
// label phase, and the workdir state that carries remap chains from parent
// to child.
package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/larchfix/internal/store"
)

// LayerFile is one archived layer found in the input store.
type LayerFile struct {
	ID      store.LayerID
	Path    string
	ModTime time.Time
}

// ScanStore enumerates the layers of a store: directories whose name is
// exactly three lowercase hex characters, containing .larch files whose stem
// is a 40-character layer name. Anything else is ignored.
func ScanStore(root string) ([]LayerFile, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var layers []LayerFile
	for _, e := range entries {
		if !e.IsDir() || len(e.Name()) != 3 || !store.IsHexName(e.Name()) {
			continue
		}
		inner, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range inner {
			if f.IsDir() || !strings.HasSuffix(f.Name(), store.LayerSuffix) {
				continue
			}
			stem := strings.TrimSuffix(f.Name(), store.LayerSuffix)
			id, err := store.ParseLayerID(stem)
			if err != nil {
				continue
			}
			path := filepath.Join(root, e.Name(), f.Name())
			info, err := f.Info()
			if err != nil {
				return nil, err
			}
			layers = append(layers, LayerFile{ID: id, Path: path, ModTime: info.ModTime()})
		}
	}
	return layers, nil
}

// LabelFiles returns the store's label files, minus any matching one of the
// exclude globs.
func LabelFiles(root string, exclude []string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".label") {
			continue
		}
		excluded := false
		for _, pattern := range exclude {
			ok, err := doublestar.Match(pattern, e.Name())
			if err != nil {
				return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
			}
			if ok {
				excluded = true
				break
			}
		}
		if !excluded {
			labels = append(labels, e.Name())
		}
	}
	return labels, nil
}
