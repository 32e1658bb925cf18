package xmerge

import (
	"bufio"
	"context"
	"io"
	"iter"
	"strings"
)

// Handler receives the merged result of a run.
type Handler interface {
	// Handle reads the merged lines from result. result is positioned at
	// the first byte and is invalid once Handle returns.
	Handle(ctx context.Context, result io.Reader) error
}

// HandlerFunc is a function type that implements Handler.
type HandlerFunc func(ctx context.Context, result io.Reader) error

// Handle calls the function.
func (f HandlerFunc) Handle(ctx context.Context, result io.Reader) error {
	return f(ctx, result)
}

// Lines yields the lines of r without their terminators. Iteration stops
// at the end of r or at the first read error.
func Lines(r io.Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
				if !yield(line) {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}
