// Package loser Taken from talk: https://github.com/bboreham/go-loser/blob/iter/tree.go.
// Thank you Bryan
package loser

import (
	"iter"
)

type Sequence[E any] interface {
	All() iter.Seq[E]
}

// New returns a tree that merges sequences ordered by cmp. Values that
// compare equal are emitted in the order of their sequences.
func New[E any](sequences []Sequence[E], cmp func(a, b E) int) *Tree[E] {
	t := Tree[E]{
		nodes:     make([]node[E], len(sequences)*2),
		sequences: sequences,
		cmp:       cmp,
	}
	return &t
}

// A loser tree is a binary tree laid out such that nodes N and N+1 have parent N/2.
// We store M leaf nodes in positions M...2M-1, and M-1 internal nodes in positions 1..M-1.
// Node 0 is a special node, containing the winner of the contest.
type Tree[E any] struct {
	nodes     []node[E]
	sequences []Sequence[E]
	cmp       func(E, E) int
}

type node[E any] struct {
	index int              // Leaf position of the loser for internal nodes, of the winner for node 0.
	value E                // Current head of the sequence; only populated for leaf nodes.
	done  bool             // The leaf's sequence is exhausted.
	next  func() (E, bool) // Only populated for leaf nodes.
}

func (t *Tree[E]) moveNext(index int) bool {
	n := &t.nodes[index]
	if v, ok := n.next(); ok {
		n.value = v
		return true
	}
	var zero E
	n.value = zero
	n.done = true
	return false
}

// All yields the merged values. Each sequence is pulled lazily, one value
// ahead at most.
func (t *Tree[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		if len(t.nodes) == 0 {
			return
		}
		m := len(t.sequences)
		for i, s := range t.sequences {
			next, stop := iter.Pull(s.All())
			t.nodes[i+m].next = next
			t.nodes[i+m].index = i + m
			//nolint:gocritic // is not a leak.
			defer stop()
			t.moveNext(i + m) // Call next() on each item to get the first value.
		}
		t.initialize()
		for {
			winner := t.nodes[0].index
			if t.nodes[winner].done || !yield(t.nodes[winner].value) {
				return
			}
			t.moveNext(winner)
			t.replayGames(winner)
		}
	}
}

// less orders two leaves: exhausted leaves lose, then cmp decides, then
// the lower position wins.
func (t *Tree[E]) less(a, b int) bool {
	na, nb := &t.nodes[a], &t.nodes[b]
	if na.done || nb.done {
		if na.done == nb.done {
			return a < b
		}
		return nb.done
	}
	if c := t.cmp(na.value, nb.value); c != 0 {
		return c < 0
	}
	return a < b
}

func (t *Tree[E]) initialize() {
	t.nodes[0].index = t.playGame(1)
}

// Find the winner at position pos; if it is a non-leaf node, store the loser.
// pos must be >= 1 and < len(t.nodes).
func (t *Tree[E]) playGame(pos int) int {
	nodes := t.nodes
	if pos >= len(nodes)/2 {
		return pos
	}
	left := t.playGame(pos * 2)
	right := t.playGame(pos*2 + 1)
	var loser, winner int
	if t.less(left, right) {
		loser, winner = right, left
	} else {
		loser, winner = left, right
	}
	nodes[pos].index = loser
	return winner
}

// Starting at pos, which is a winner, re-consider all values up to the root.
func (t *Tree[E]) replayGames(pos int) {
	nodes := t.nodes
	for n := parent(pos); n != 0; n = parent(n) {
		node := &nodes[n]
		if t.less(node.index, pos) {
			// Record pos as the loser here, and the old loser is the new winner.
			node.index, pos = pos, node.index
		}
	}
	// pos is now the winner; store it in node 0.
	nodes[0].index = pos
}

func parent(i int) int { return i >> 1 }
