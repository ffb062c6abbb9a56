package migrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	converrors "github.com/standardbeagle/larchfix/internal/errors"
	"github.com/standardbeagle/larchfix/internal/remap"
	"github.com/standardbeagle/larchfix/internal/store"
)

// Options configures a migration run.
type Options struct {
	From    string
	To      string
	Workdir string // defaults to <To>/.workdir
	Cutoff  time.Time

	KeepGoing     bool
	Replace       bool
	CleanWorkdir  bool
	Jobs          int // defaults to GOMAXPROCS
	ExcludeLabels []string

	Log *logrus.Logger
}

// Driver converts a whole store.
type Driver struct {
	opts    Options
	from    *store.ArchiveStore
	to      *store.ArchiveStore
	workdir *remap.Workdir
	log     *logrus.Logger
}

func New(opts Options) (*Driver, error) {
	if opts.From == "" || opts.To == "" {
		return nil, fmt.Errorf("both source and destination stores are required")
	}
	if opts.Workdir == "" {
		opts.Workdir = filepath.Join(opts.To, ".workdir")
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.Log == nil {
		opts.Log = logrus.New()
	}
	return &Driver{
		opts:    opts,
		from:    store.NewArchiveStore(opts.From),
		to:      store.NewArchiveStore(opts.To),
		workdir: remap.NewWorkdir(opts.Workdir),
		log:     opts.Log,
	}, nil
}

// Run performs the migration. In strict mode the first layer failure aborts
// the run; in keep-going mode every failure is collected and reported at the
// end. Partial output of a failed layer is left in place for inspection.
func (d *Driver) Run(ctx context.Context) error {
	if info, err := os.Stat(d.opts.From); err != nil {
		return err
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", d.opts.From)
	}
	if err := os.MkdirAll(d.opts.To, 0o755); err != nil {
		return err
	}

	release, err := d.workdir.Acquire()
	if err != nil {
		return err
	}
	defer release()

	layers, err := ScanStore(d.opts.From)
	if err != nil {
		return err
	}

	var convert, copyVerbatim []LayerFile
	for _, lf := range layers {
		if lf.ModTime.After(d.opts.Cutoff) {
			copyVerbatim = append(copyVerbatim, lf)
		} else {
			convert = append(convert, lf)
		}
	}
	d.log.WithFields(logrus.Fields{
		"layers":  len(layers),
		"convert": len(convert),
		"copy":    len(copyVerbatim),
	}).Info("store scanned")

	parents, err := d.readParents(convert)
	if err != nil {
		return err
	}
	if err := checkAcyclic(parents); err != nil {
		return err
	}

	layerErr := d.runLayers(ctx, convert, copyVerbatim, parents)
	if layerErr != nil && !d.opts.KeepGoing {
		return layerErr
	}

	// in keep-going mode the labels are copied even after layer failures;
	// they do not depend on layer contents
	if err := d.copyLabels(); err != nil {
		if layerErr != nil {
			return converrors.NewMultiError([]error{layerErr, err})
		}
		return err
	}
	if layerErr != nil {
		return layerErr
	}

	if d.opts.CleanWorkdir {
		if err := d.workdir.Clean(); err != nil {
			return fmt.Errorf("cleaning workdir: %w", err)
		}
	}
	if d.opts.Replace {
		if err := d.replaceStore(); err != nil {
			return err
		}
	}
	return nil
}

// readParents reads each convertible layer's parent pointer from its archive.
func (d *Driver) readParents(convert []LayerFile) (map[store.LayerID]*store.LayerID, error) {
	parents := make(map[store.LayerID]*store.LayerID, len(convert))
	for _, lf := range convert {
		parent, ok, err := d.from.LayerParent(lf.ID)
		if err != nil {
			return nil, converrors.NewLayerError(lf.ID.String(), "reading parent pointer", err)
		}
		if ok {
			p := parent
			parents[lf.ID] = &p
		} else {
			parents[lf.ID] = nil
		}
	}
	return parents, nil
}

// runLayers schedules every layer. Independent layers run concurrently up to
// the jobs limit; a child acquires a worker slot only after its parent's
// pipeline, including the workdir flush, has completed.
func (d *Driver) runLayers(ctx context.Context, convert, copyVerbatim []LayerFile, parents map[store.LayerID]*store.LayerID) error {
	gates := make(map[store.LayerID]chan struct{}, len(convert))
	for _, lf := range convert {
		gates[lf.ID] = make(chan struct{})
	}

	sem := semaphore.NewWeighted(int64(d.opts.Jobs))
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var failures []error
	report := func(err error) error {
		if d.opts.KeepGoing {
			d.log.WithError(err).Error("layer failed")
			mu.Lock()
			failures = append(failures, err)
			mu.Unlock()
			return nil
		}
		return err
	}

	for _, lf := range convert {
		g.Go(func() error {
			defer close(gates[lf.ID])
			if p := parents[lf.ID]; p != nil {
				if gate, scheduled := gates[*p]; scheduled {
					select {
					case <-gate:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			if err := d.convertLayer(lf); err != nil {
				return report(err)
			}
			return nil
		})
	}

	for _, lf := range copyVerbatim {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			if err := d.copyLayer(lf); err != nil {
				return report(converrors.NewLayerError(lf.ID.String(), "copying layer", err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if multi := converrors.NewMultiError(failures); multi != nil {
		return multi
	}
	return nil
}

// copyLayer copies a post-cutoff layer byte for byte; it was written by the
// new-format writer and must not be transcoded. No workdir entry is produced.
func (d *Driver) copyLayer(lf LayerFile) error {
	d.log.WithField("layer", lf.ID.String()).Info("copying layer")

	dest := d.to.LayerPath(lf.ID)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	src, err := os.Open(lf.Path)
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, src)
	if err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	d.log.WithFields(logrus.Fields{
		"layer": lf.ID.String(),
		"size":  datasize.ByteSize(n).HumanReadable(),
	}).Debug("layer copied")
	return nil
}

// copyLabels copies every label file from the input root to the output root.
func (d *Driver) copyLabels() error {
	labels, err := LabelFiles(d.opts.From, d.opts.ExcludeLabels)
	if err != nil {
		return err
	}
	for _, name := range labels {
		b, err := os.ReadFile(filepath.Join(d.opts.From, name))
		if err != nil {
			return &converrors.FileCopyError{Name: name, Err: err}
		}
		if err := os.WriteFile(filepath.Join(d.opts.To, name), b, 0o644); err != nil {
			return &converrors.FileCopyError{Name: name, Err: err}
		}
		d.log.WithField("label", name).Debug("label copied")
	}
	return nil
}

// replaceStore swaps the converted store into the source path, keeping the
// original under a .v10 suffix.
func (d *Driver) replaceStore() error {
	backup := d.opts.From + ".v10"
	if _, err := os.Stat(backup); err == nil {
		return fmt.Errorf("backup path %s already exists", backup)
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(d.opts.From, backup); err != nil {
		return err
	}
	if err := os.Rename(d.opts.To, d.opts.From); err != nil {
		return err
	}
	d.log.WithFields(logrus.Fields{
		"store":  d.opts.From,
		"backup": backup,
	}).Info("converted store moved into place")
	return nil
}
