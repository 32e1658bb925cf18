package xmerge

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/davidvella/xmerge/compactor"
	"github.com/davidvella/xmerge/lineio"
	"github.com/davidvella/xmerge/storage/local"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Merge merges files, each already sorted by the configured comparator,
// into one sorted stream and passes it to h. Intermediate results are kept
// on disk in the temp directory; all of them are gone by the time Merge
// returns. Source files are never modified or deleted.
//
// h is not called when files is empty.
func Merge(ctx context.Context, files []string, h Handler, opts ...Option) (err error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: handler is required", ErrInvalidConfiguration)
	}

	r := newRun(files, o)
	if err := r.storage.Init(ctx); err != nil {
		return &IOError{Op: "create temp directory", Path: o.tempDir, Err: err}
	}

	if len(files) == 0 {
		return nil
	}

	defer func() {
		if cerr := r.storage.Cleanup(ctx); cerr != nil {
			err = appendErr(err, &IOError{Op: "cleanup", Path: o.tempDir, Err: cerr})
		}
	}()

	result, err := r.build(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = appendErr(err, r.close(result))
	}()

	stream, err := result.Rewind()
	if err != nil {
		return &IOError{Op: "rewind", Path: result.Path(), Err: err}
	}

	r.logger.WithField("action", "handle").WithField("path", result.Path()).Debug("handing over merged result")

	return h.Handle(ctx, stream)
}

// run is the state of one Merge call. It is only touched by the goroutine
// running Merge.
type run struct {
	id      string
	files   []string
	opts    options
	storage *local.Storage
	logger  logrus.FieldLogger

	merges int
	total  int
}

func newRun(files []string, o options) *run {
	id := o.runID
	if id == "" {
		id = uuid.NewString()
	}
	return &run{
		id:      id,
		files:   files,
		opts:    o,
		storage: local.NewLocalStorage(o.tempDir, id, o.logger),
		logger:  o.logger.WithField("run_id", id),
		total:   len(files) - 1,
	}
}

func (r *run) build(ctx context.Context) (*lineio.Reader, error) {
	if len(r.files) == 1 {
		if r.opts.lineFilter == nil {
			return r.openSource(r.files[0])
		}
		return r.materialize(ctx, r.files[0])
	}

	if r.opts.strategy == Tournament {
		return r.tournament(ctx)
	}
	return r.mergeRange(ctx, 0, len(r.files)-1)
}

// mergeRange merges files[lo..hi] depth first, left before right.
func (r *run) mergeRange(ctx context.Context, lo, hi int) (*lineio.Reader, error) {
	if lo == hi {
		return r.openSource(r.files[lo])
	}

	mid := lo + (hi-lo)/2

	left, err := r.mergeRange(ctx, lo, mid)
	if err != nil {
		return nil, err
	}

	right, err := r.mergeRange(ctx, mid+1, hi)
	if err != nil {
		return nil, appendErr(err, r.close(left))
	}

	merged, err := r.mergePair(ctx, left, right)
	if err != nil {
		return nil, err
	}

	r.tick()
	return merged, nil
}

// mergePair writes the merge of left and right to a new intermediate file,
// releases both inputs and returns a reader over the new file.
func (r *run) mergePair(ctx context.Context, left, right *lineio.Reader) (_ *lineio.Reader, err error) {
	defer func() {
		if err != nil {
			err = appendErr(err, r.close(left), r.close(right))
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	path, w, err := r.create(ctx)
	if err != nil {
		return nil, err
	}

	n, err := compactor.Merge(w, left, right, r.opts.comparator)
	if err != nil {
		return nil, appendErr(&IOError{Op: "merge", Path: path, Err: err}, w.Close())
	}
	if err := w.Close(); err != nil {
		return nil, &IOError{Op: "write", Path: path, Err: err}
	}

	if err := appendErr(r.close(left), r.close(right)); err != nil {
		return nil, err
	}

	r.opts.metrics.RecordLinesMerged(n)
	r.opts.metrics.ObserveMerge(Pairwise.String(), time.Since(start))
	r.logger.WithField("action", "merge").
		WithField("left", left.Path()).
		WithField("right", right.Path()).
		WithField("path", path).
		WithField("lines", n).
		Debug("merged pair")

	return r.openIntermediate(path)
}

// tournament merges every file in one pass into a single intermediate file.
func (r *run) tournament(ctx context.Context) (_ *lineio.Reader, err error) {
	readers := make([]*lineio.Reader, 0, len(r.files))
	defer func() {
		if err != nil {
			for _, rd := range readers {
				err = appendErr(err, r.close(rd))
			}
		}
	}()

	for _, f := range r.files {
		rd, err := r.openSource(f)
		if err != nil {
			return nil, err
		}
		readers = append(readers, rd)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	path, w, err := r.create(ctx)
	if err != nil {
		return nil, err
	}

	sequences := make([]compactor.Sequence, len(readers))
	for i, rd := range readers {
		sequences[i] = rd
	}

	n, err := compactor.Compact(w, r.opts.comparator, sequences...)
	if err != nil {
		return nil, appendErr(&IOError{Op: "merge", Path: path, Err: err}, w.Close())
	}
	if err := w.Close(); err != nil {
		return nil, &IOError{Op: "write", Path: path, Err: err}
	}

	for _, rd := range readers {
		if err := r.close(rd); err != nil {
			return nil, err
		}
	}

	r.opts.metrics.RecordLinesMerged(n)
	r.opts.metrics.ObserveMerge(Tournament.String(), time.Since(start))
	r.logger.WithField("action", "merge").
		WithField("sources", len(readers)).
		WithField("path", path).
		WithField("lines", n).
		Debug("merged all sources")

	r.merges = r.total - 1
	r.tick()

	return r.openIntermediate(path)
}

// materialize copies the accepted lines of a single source into an
// intermediate file, so the rewound result only contains accepted lines.
func (r *run) materialize(ctx context.Context, source string) (_ *lineio.Reader, err error) {
	src, err := r.openSource(source)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = appendErr(err, r.close(src))
		}
	}()

	path, w, err := r.create(ctx)
	if err != nil {
		return nil, err
	}

	n, err := src.CopyTo(w)
	if err != nil {
		return nil, appendErr(&IOError{Op: "copy", Path: path, Err: err}, w.Close())
	}
	if err := w.Close(); err != nil {
		return nil, &IOError{Op: "write", Path: path, Err: err}
	}
	if err := r.close(src); err != nil {
		return nil, err
	}

	r.logger.WithField("action", "filter").
		WithField("source", source).
		WithField("path", path).
		WithField("lines", n).
		Debug("filtered single source")

	return r.openIntermediate(path)
}

func (r *run) create(ctx context.Context) (string, *lineio.Writer, error) {
	path, f, err := r.storage.Create(ctx)
	if err != nil {
		return "", nil, &IOError{Op: "create", Err: err}
	}
	r.opts.metrics.RecordFileCreated()

	w, err := lineio.NewWriter(f, r.opts.compression)
	if err != nil {
		return "", nil, appendErr(&IOError{Op: "create", Path: path, Err: err}, f.Close())
	}
	return path, w, nil
}

func (r *run) openSource(path string) (*lineio.Reader, error) {
	rd, err := lineio.Open(path, lineio.Options{Filter: r.opts.lineFilter})
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	r.opts.metrics.ReaderOpened()
	r.logger.WithField("action", "open").WithField("path", path).Debug("opened source")
	return rd, nil
}

func (r *run) openIntermediate(path string) (*lineio.Reader, error) {
	rd, err := lineio.Open(path, lineio.Options{Codec: r.opts.compression, Owned: true})
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	r.opts.metrics.ReaderOpened()
	return rd, nil
}

// close releases rd once; closing an already closed reader does nothing.
func (r *run) close(rd *lineio.Reader) error {
	if rd == nil || rd.Closed() {
		return nil
	}

	owned := rd.Owned()
	r.opts.metrics.RecordLinesFiltered(rd.Stats().Filtered)
	r.opts.metrics.ReaderClosed()

	if err := rd.Close(); err != nil {
		return &IOError{Op: "close", Path: rd.Path(), Err: err}
	}
	if owned {
		r.opts.metrics.RecordFileRemoved()
	}
	return nil
}

// tick reports progress after a completed merge step.
func (r *run) tick() {
	r.merges++
	if r.opts.progress == nil {
		return
	}
	r.opts.progress(progress(r.merges, r.total))
}

// progress is done/total rounded to two decimals; it is exactly 1 once
// done reaches total.
func progress(done, total int) float64 {
	if total <= 0 {
		return 1
	}
	return math.Round(float64(done)/float64(total)*100) / 100
}
