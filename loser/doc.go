// Package loser implements a tournament tree (also known as a loser tree) for efficiently
// merging multiple sorted sequences. This implementation is based on the work by Bryan
// Boreham (https://github.com/bboreham/go-loser).
//
// A loser tree is a binary tree structure where each internal node holds the "loser" of
// a comparison between its children, and the root holds the overall "winner". Merging M
// sequences costs O(log M) comparisons per element.
//
// The merge is stable: when two heads compare equal, the one from the sequence that was
// passed first wins. Exhausted sequences are tracked explicitly, so no sentinel "maximum"
// value is needed and any comparator over any type can be used.
//
// Basic usage:
//
//	tree := loser.New(
//	    []loser.Sequence[string]{seq1, seq2, seq3},
//	    strings.Compare,
//	)
//
//	for v := range tree.All() {
//	    fmt.Println(v)
//	}
//
// Implementation Details:
// The loser tree is implemented as a binary tree laid out in an array where:
//   - For node N, its children are at positions 2N and 2N+1
//   - Leaf nodes are stored in positions M to 2M-1 (where M is the number of sequences)
//   - Internal nodes are stored in positions 1 to M-1
//   - Node 0 is special, containing the current winner
package loser
