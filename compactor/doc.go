// Package compactor merges sorted line sources into a single sorted output.
//
// Merge is the two-way building block: a two-pointer walk over two sources
// that writes the smaller head line each step, preferring the left source on
// ties, and copies the remainder of whichever source is left once the other
// runs dry. Compact merges any number of sequences in one pass through a
// loser tree. Neither function deduplicates: every input line is written
// exactly once.
//
// The compaction process:
//   - Streams lines one at a time, so memory stays constant regardless of input size
//   - Is stable: equal lines keep the order of the sources they came from
//   - Writes to any lineio.LineWriter, usually a lineio.Writer over an intermediate file
//
// Basic usage:
//
//	left, _ := lineio.Open("a.log", lineio.Options{})
//	right, _ := lineio.Open("b.log", lineio.Options{})
//	defer left.Close()
//	defer right.Close()
//
//	f, _ := os.Create("merged.log")
//	w, _ := lineio.NewWriter(f, lineio.None)
//
//	if _, err := compactor.Merge(w, left, right, strings.Compare); err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Close(); err != nil {
//	    log.Fatal(err)
//	}
package compactor
