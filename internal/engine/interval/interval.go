// Package interval implements a half-open char-offset interval tree per
// style layer: an augmented, randomized treap (max-end augmented) supporting
// Insert, QueryRange, Shift (edit-delta propagation), and whole-layer
// replacement.
//
// Grounded on the teacher's internal/renderer/style/resolver.go layer/merge
// precedence philosophy (Layer enum ascending), generalized from per-line
// column spans to a genuine char-offset interval tree — no file in the
// retrieved pack implements one, so the tree itself is new algorithmic code,
// in the same spirit as the teacher's own hand-rolled rope.Node (justified
// in DESIGN.md).
package interval

import (
	"math/rand"

	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// LayerID identifies a style layer. Its high byte identifies the producer
// (e.g. semantic tokens, tree-sitter, sublime, diagnostics); the kernel
// itself treats it as an opaque ascending-precedence key.
type LayerID uint32

// StyleID is a 32-bit tag carrying style information; opaque to the kernel.
type StyleID uint32

// Interval is a half-open [Start, End) char-offset range carrying a style.
type Interval struct {
	Start piece.Offset
	End   piece.Offset
	Style StyleID
}

// node is one treap node.
type node struct {
	iv          Interval
	maxEnd      piece.Offset
	priority    int32
	left, right *node
}

// Tree is an interval tree for a single style layer.
type Tree struct {
	root *node
	rng  *rand.Rand
}

// NewTree returns an empty interval tree. A package-level, mutex-free RNG
// source is intentionally avoided since the kernel is single-threaded and
// non-reentrant per document (spec.md §5); each tree owns its own source so
// construction never needs global state.
func NewTree() *Tree {
	return &Tree{rng: rand.New(rand.NewSource(1))}
}

func newNode(iv Interval, priority int32) *node {
	return &node{iv: iv, maxEnd: iv.End, priority: priority}
}

func nodeMaxEnd(n *node) piece.Offset {
	if n == nil {
		return 0
	}
	return n.maxEnd
}

func updateMaxEnd(n *node) {
	m := n.iv.End
	if l := nodeMaxEnd(n.left); l > m {
		m = l
	}
	if r := nodeMaxEnd(n.right); r > m {
		m = r
	}
	n.maxEnd = m
}

// rotateRight and rotateLeft are standard treap rebalancing rotations.
func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	updateMaxEnd(n)
	updateMaxEnd(l)
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	updateMaxEnd(n)
	updateMaxEnd(r)
	return r
}

func insert(n *node, add *node) *node {
	if n == nil {
		return add
	}
	if add.iv.Start < n.iv.Start || (add.iv.Start == n.iv.Start && add.iv.End < n.iv.End) {
		n.left = insert(n.left, add)
		if n.left.priority > n.priority {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, add)
		if n.right.priority > n.priority {
			n = rotateLeft(n)
		}
	}
	updateMaxEnd(n)
	return n
}

// Insert adds a new interval to the tree.
func (t *Tree) Insert(start, end piece.Offset, style StyleID) {
	if end < start {
		end = start
	}
	n := newNode(Interval{Start: start, End: end, Style: style}, t.rng.Int31())
	t.root = insert(t.root, n)
}

// QueryRange returns every interval intersecting the half-open range
// [a, b), in ascending Start order.
func (t *Tree) QueryRange(a, b piece.Offset) []Interval {
	var out []Interval
	queryRange(t.root, a, b, &out)
	return out
}

func queryRange(n *node, a, b piece.Offset, out *[]Interval) {
	if n == nil || nodeMaxEnd(n) <= a {
		return
	}
	queryRange(n.left, a, b, out)
	if n.iv.Start < b && n.iv.End > a {
		*out = append(*out, n.iv)
	}
	if n.iv.Start < b {
		queryRange(n.right, a, b, out)
	}
}

// All returns every interval in the tree, in ascending Start order. Used by
// Shift and Len, and by the invariant check "union of
// query_range(0, char_count) equals the layer contents".
func (t *Tree) All() []Interval {
	var out []Interval
	inorder(t.root, &out)
	return out
}

func inorder(n *node, out *[]Interval) {
	if n == nil {
		return
	}
	inorder(n.left, out)
	*out = append(*out, n.iv)
	inorder(n.right, out)
}

// Shift applies an edit-delta to every interval: intervals with
// Start >= pivot have both endpoints advanced by delta (negative on
// deletion). Intervals entirely inside a deleted span (delta < 0, span
// [pivot, pivot-delta)) are dropped; intervals straddling the deletion are
// clipped to its edge. The tree is rebuilt from the transformed intervals,
// which is simplest and correct for a structure that is rebuilt on every
// edit anyway (edits are the common case, not bulk random access).
func (t *Tree) Shift(pivot piece.Offset, delta int) {
	if delta == 0 {
		return
	}
	ivs := t.All()
	t.root = nil

	var deletedStart, deletedEnd piece.Offset
	deleting := delta < 0
	if deleting {
		deletedStart = pivot
		deletedEnd = pivot + piece.Offset(-delta)
	}

	for _, iv := range ivs {
		ns, ne := iv.Start, iv.End
		if deleting {
			switch {
			case ns >= deletedStart && ne <= deletedEnd:
				continue // entirely inside deleted span
			case ns < deletedStart && ne > deletedEnd:
				ne += piece.Offset(delta) // straddles: shrink by the deleted length
			case ns >= deletedStart && ns < deletedEnd:
				ns = deletedStart
				if ne > deletedEnd {
					ne += piece.Offset(delta)
				} else {
					ne = deletedStart
				}
			case ne > deletedStart && ne <= deletedEnd && ns < deletedStart:
				ne = deletedStart
			default:
				if ns >= pivot {
					ns += piece.Offset(delta)
				}
				if ne >= pivot {
					ne += piece.Offset(delta)
				}
			}
		} else {
			if ns >= pivot {
				ns += piece.Offset(delta)
			}
			if ne >= pivot {
				ne += piece.Offset(delta)
			}
		}
		if ne < ns {
			ne = ns
		}
		t.Insert(ns, ne, iv.Style)
	}
}

// ReplaceLayer atomically swaps the tree's contents for a new set of
// intervals.
func (t *Tree) ReplaceLayer(ivs []Interval) {
	t.root = nil
	for _, iv := range ivs {
		t.Insert(iv.Start, iv.End, iv.Style)
	}
}

// Clear empties the tree.
func (t *Tree) Clear() {
	t.root = nil
}

// Len returns the number of intervals stored.
func (t *Tree) Len() int {
	return len(t.All())
}

// LayerSet owns one Tree per LayerID, keyed by ascending LayerID precedence
// (spec.md §4.4: "precedence when multiple layers produce a style at the
// same cell is determined by layer id ascending; the snapshot exposes the
// full list, the host chooses").
type LayerSet struct {
	layers map[LayerID]*Tree
	order  []LayerID
}

// NewLayerSet returns an empty layer set.
func NewLayerSet() *LayerSet {
	return &LayerSet{layers: make(map[LayerID]*Tree)}
}

// Layer returns the tree for id, creating it if needed.
func (ls *LayerSet) Layer(id LayerID) *Tree {
	t, ok := ls.layers[id]
	if !ok {
		t = NewTree()
		ls.layers[id] = t
		ls.order = append(ls.order, id)
		sortLayerIDs(ls.order)
	}
	return t
}

func sortLayerIDs(ids []LayerID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// Layers returns layer ids in ascending precedence order.
func (ls *LayerSet) Layers() []LayerID {
	out := make([]LayerID, len(ls.order))
	copy(out, ls.order)
	return out
}

// LayerIntervals is one layer's entry in LayerSet.QueryRange's result: the
// layer id and its intervals intersecting [a, b).
type LayerIntervals struct {
	Layer     LayerID
	Intervals []Interval
}

// QueryRange queries all layers in ascending precedence order.
func (ls *LayerSet) QueryRange(a, b piece.Offset) []LayerIntervals {
	out := make([]LayerIntervals, 0, len(ls.order))
	for _, id := range ls.order {
		out = append(out, LayerIntervals{Layer: id, Intervals: ls.layers[id].QueryRange(a, b)})
	}
	return out
}

// Shift propagates an edit delta to every layer's tree.
func (ls *LayerSet) Shift(pivot piece.Offset, delta int) {
	for _, t := range ls.layers {
		t.Shift(pivot, delta)
	}
}

// ReplaceLayer atomically swaps one layer's contents.
func (ls *LayerSet) ReplaceLayer(id LayerID, ivs []Interval) {
	ls.Layer(id).ReplaceLayer(ivs)
}

// Has reports whether a layer id has ever been created in this set.
func (ls *LayerSet) Has(id LayerID) bool {
	_, ok := ls.layers[id]
	return ok
}

// ClearLayer empties one layer without removing it from the known set.
func (ls *LayerSet) ClearLayer(id LayerID) {
	if t, ok := ls.layers[id]; ok {
		t.Clear()
	}
}
