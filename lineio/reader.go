package lineio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const bufferSize = 64 * 1024

var ErrClosed = errors.New("lineio: closed")

// Filter reports whether a line is kept. Rejected lines are never
// observed by Peek or Read.
type Filter func(line string) bool

// Options configures Open.
type Options struct {
	// Filter drops lines it returns false for. Nil keeps every line.
	Filter Filter
	// Codec forces a codec. None picks the codec from the file extension.
	Codec Codec
	// Owned marks the file as belonging to the caller's run: Close
	// removes it from disk. Source files must never be opened as owned.
	Owned bool
}

// LineWriter is the sink CopyTo drains into.
type LineWriter interface {
	WriteLine(line string) error
}

// Stats counts what a Reader has handed out and skipped so far.
type Stats struct {
	Lines    int64
	Filtered int64
}

// Reader holds one buffered line of a sorted text file.
//
// The invariant is: Peek reports no line if and only if the file is
// exhausted after filtering, which is exactly when Finished is true.
type Reader struct {
	path   string
	file   *os.File
	dec    decoder
	br     *bufio.Reader
	filter Filter
	owned  bool

	current  string
	finished bool
	closed   bool
	err      error
	stats    Stats
}

// Open opens path and advances to the first line accepted by the filter.
func Open(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lineio: failed to open %s: %w", path, err)
	}

	codec := opts.Codec
	if codec == None {
		codec = CodecFor(path)
	}

	dec, err := newDecoder(codec, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("lineio: failed to open %s: %w", path, err)
	}

	r := &Reader{
		path:   path,
		file:   f,
		dec:    dec,
		br:     bufio.NewReaderSize(dec, bufferSize),
		filter: opts.Filter,
		owned:  opts.Owned,
	}

	if err := r.advance(); err != nil {
		dec.Close()
		f.Close()
		return nil, err
	}

	return r, nil
}

// Path returns the file the reader wraps.
func (r *Reader) Path() string { return r.path }

// Owned reports whether Close removes the file.
func (r *Reader) Owned() bool { return r.owned }

// Closed reports whether Close has been called.
func (r *Reader) Closed() bool { return r.closed }

// Finished reports whether every accepted line has been read.
func (r *Reader) Finished() bool { return r.finished }

func (r *Reader) Stats() Stats { return r.stats }

// Peek returns the current line without consuming it.
func (r *Reader) Peek() (string, bool) {
	return r.current, !r.finished
}

// Read consumes the current line and moves to the next accepted one.
// It returns io.EOF once the reader is finished.
func (r *Reader) Read() (string, error) {
	if r.finished {
		return "", io.EOF
	}
	line := r.current
	if err := r.advance(); err != nil {
		return "", err
	}
	r.stats.Lines++
	return line, nil
}

// CopyTo writes every remaining line to w in order and returns how many
// were written.
func (r *Reader) CopyTo(w LineWriter) (int64, error) {
	var n int64
	for !r.finished {
		if err := w.WriteLine(r.current); err != nil {
			return n, err
		}
		n++
		r.stats.Lines++
		if err := r.advance(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// All yields the remaining lines. A read failure stops the sequence and
// is reported by Err.
func (r *Reader) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for !r.finished {
			line, err := r.Read()
			if err != nil {
				r.err = err
				return
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Err returns the error that stopped All, if any.
func (r *Reader) Err() error { return r.err }

// Rewind drops any buffered state and returns a stream over the whole
// file, decompressed, from byte offset 0. Filters are not applied to the
// returned stream. The reader reports Finished afterwards and the stream
// stays valid until Close.
func (r *Reader) Rewind() (io.Reader, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("lineio: failed to rewind %s: %w", r.path, err)
	}
	if err := r.dec.Reset(r.file); err != nil {
		return nil, fmt.Errorf("lineio: failed to rewind %s: %w", r.path, err)
	}
	r.br.Reset(r.dec)
	r.current = ""
	r.finished = true
	return r.br, nil
}

// Close releases the file handle and, for owned files, deletes the file.
// Calling Close more than once is a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.current = ""
	r.finished = true

	var result *multierror.Error
	if err := r.dec.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("lineio: failed to close decoder for %s: %w", r.path, err))
	}
	if err := r.file.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("lineio: failed to close %s: %w", r.path, err))
	}
	if r.owned {
		if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result = multierror.Append(result, fmt.Errorf("lineio: failed to remove %s: %w", r.path, err))
		}
	}
	return result.ErrorOrNil()
}

func (r *Reader) advance() error {
	for {
		line, err := r.readLine()
		if errors.Is(err, io.EOF) {
			r.current = ""
			r.finished = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("lineio: failed to read %s: %w", r.path, err)
		}
		if r.filter != nil && !r.filter(line) {
			r.stats.Filtered++
			continue
		}
		r.current = line
		return nil
	}
}

func (r *Reader) readLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		// An unterminated final line is still a line.
		if errors.Is(err, io.EOF) && line != "" {
			return trimEOL(line), nil
		}
		return "", err
	}
	return trimEOL(line), nil
}

func trimEOL(line string) string {
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
}
