package compactor

import (
	"fmt"

	"github.com/davidvella/xmerge/lineio"
	"github.com/davidvella/xmerge/loser"
)

// Compare orders two lines: negative when a sorts before b, zero when
// they are equal, positive otherwise.
type Compare func(a, b string) int

// Source is a sorted line source with one line of look-ahead.
type Source interface {
	Peek() (string, bool)
	Read() (string, error)
	CopyTo(w lineio.LineWriter) (int64, error)
}

// Sequence is a sorted line source consumed as an iterator. Err reports a
// failure that ended the iteration early.
type Sequence interface {
	loser.Sequence[string]
	Err() error
}

// Merge streams the stable merge of left and right into w and returns the
// number of lines written. On ties the left line goes first. Once either
// side runs dry the rest of the other side is copied through unchanged.
func Merge(w lineio.LineWriter, left, right Source, cmp Compare) (int64, error) {
	var n int64
	for {
		l, lok := left.Peek()
		r, rok := right.Peek()
		if !lok || !rok {
			break
		}

		src := right
		if cmp(l, r) <= 0 {
			src = left
		}

		line, err := src.Read()
		if err != nil {
			return n, fmt.Errorf("compactor: failed to read line: %w", err)
		}
		if err := w.WriteLine(line); err != nil {
			return n, fmt.Errorf("compactor: failed to write line: %w", err)
		}
		n++
	}

	for _, src := range []Source{left, right} {
		copied, err := src.CopyTo(w)
		n += copied
		if err != nil {
			return n, fmt.Errorf("compactor: failed to copy remainder: %w", err)
		}
	}

	return n, nil
}

// Compact streams the stable merge of all sequences into w in a single
// pass using a loser tree. Lines that compare equal keep the order of the
// sequences they came from.
func Compact(w lineio.LineWriter, cmp Compare, sequences ...Sequence) (int64, error) {
	if len(sequences) == 0 {
		return 0, nil
	}

	seqs := make([]loser.Sequence[string], len(sequences))
	for i, s := range sequences {
		seqs[i] = s
	}

	var (
		lt = loser.New[string](seqs, cmp)
		n  int64
	)

	for line := range lt.All() {
		if err := w.WriteLine(line); err != nil {
			return n, fmt.Errorf("compactor: failed to write line: %w", err)
		}
		n++
	}

	for _, s := range sequences {
		if err := s.Err(); err != nil {
			return n, fmt.Errorf("compactor: failed to read line: %w", err)
		}
	}

	return n, nil
}
