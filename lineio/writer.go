package lineio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
)

// Writer streams newline-terminated lines into an underlying file,
// optionally through a compressor.
type Writer struct {
	wc     io.WriteCloser
	enc    io.WriteCloser
	bw     *bufio.Writer
	lines  int64
	closed bool
}

func NewWriter(wc io.WriteCloser, codec Codec) (*Writer, error) {
	enc, err := newEncoder(codec, wc)
	if err != nil {
		return nil, err
	}
	return &Writer{
		wc:  wc,
		enc: enc,
		bw:  bufio.NewWriterSize(enc, bufferSize),
	}, nil
}

// WriteLine writes line followed by '\n'.
func (w *Writer) WriteLine(line string) error {
	if w.closed {
		return ErrClosed
	}
	if _, err := w.bw.WriteString(line); err != nil {
		return fmt.Errorf("lineio: failed to write line: %w", err)
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("lineio: failed to write line: %w", err)
	}
	w.lines++
	return nil
}

// Lines returns the number of lines written so far.
func (w *Writer) Lines() int64 { return w.lines }

// Close flushes buffered lines, finishes the compressed stream and closes
// the underlying file. The file is closed even when flushing fails.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var result *multierror.Error
	if err := w.bw.Flush(); err != nil {
		result = multierror.Append(result, fmt.Errorf("lineio: failed to flush: %w", err))
	}
	if err := w.enc.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("lineio: failed to finish stream: %w", err))
	}
	if err := w.wc.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("lineio: failed to close: %w", err))
	}
	return result.ErrorOrNil()
}
