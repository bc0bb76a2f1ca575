package bytehuff

import (
	"container/heap"
	"fmt"
)

// Tree is a Huffman code tree, stored as an arena of nodes addressed by
// index.  Leaves occupy indices [0, NumLeaves) in ascending symbol order;
// internal nodes follow in the order they were created.
type Tree struct {
	nodes     []treeNode
	numLeaves int
	root      int32
}

type treeNode struct {
	weight uint64
	left   int32
	right  int32
	symbol byte
	leaf   bool
}

// BuildTree constructs the Huffman tree for the given weights by repeatedly
// merging the two lowest-weight nodes.
//
// Ties are broken deterministically.  Among nodes of equal weight, leaves
// come before internal nodes, leaves are ordered by symbol value, and
// internal nodes are ordered by creation.  The first node removed becomes
// the left child of the merged node.
//
// An alphabet of one symbol yields a tree consisting of a single leaf.  An
// empty alphabet yields an empty tree.
//
func BuildTree(freq *Frequencies) *Tree {
	numLeaves := freq.Distinct()
	t := &Tree{
		nodes:     make([]treeNode, 0, 2*numLeaves),
		numLeaves: numLeaves,
		root:      -1,
	}
	if numLeaves == 0 {
		return t
	}

	// Step 1: build a minheap of leaves.

	h := nodeHeap{tree: t, list: make([]int32, 0, numLeaves)}
	for sym, w := range freq {
		if w == 0 {
			continue
		}
		h.list = append(h.list, int32(len(t.nodes)))
		t.nodes = append(t.nodes, treeNode{weight: w, left: -1, right: -1, symbol: byte(sym), leaf: true})
	}
	h.Init()

	// Step 2: pop the two lightest nodes, join them under a new internal
	// node, and push that back until only the root remains.
	//
	// Because every leaf's index is ordered by symbol and every internal
	// node's index is ordered by creation (and is larger than any leaf's
	// index), ordering by (weight, index) implements the tie-break rule
	// directly.

	for h.Len() > 1 {
		a := heap.Pop(&h).(int32)
		b := heap.Pop(&h).(int32)
		sum := saturatingAdd(t.nodes[a].weight, t.nodes[b].weight)
		t.nodes = append(t.nodes, treeNode{weight: sum, left: a, right: b})
		heap.Push(&h, int32(len(t.nodes)-1))
	}

	t.root = heap.Pop(&h).(int32)
	return t
}

// Len returns the total number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// NumLeaves returns the number of leaves, i.e. distinct symbols.
func (t *Tree) NumLeaves() int {
	return t.numLeaves
}

// NumInternal returns the number of internal nodes.
func (t *Tree) NumInternal() int {
	return len(t.nodes) - t.numLeaves
}

// Weight returns the weight of the root, which is the total weight of all
// leaves.  An empty tree has weight 0.
func (t *Tree) Weight() uint64 {
	if t.root < 0 {
		return 0
	}
	return t.nodes[t.root].weight
}

// LeafVisitor is called by Walk once for each leaf.
type LeafVisitor func(symbol byte, weight uint64, hc Code)

// Walk traverses the tree depth first, left before right, appending a 0 bit
// on each left descent and a 1 bit on each right descent, and calls fn for
// each leaf with its accumulated Code.
//
// A tree consisting of a single leaf assigns that leaf the Code "0".
//
func (t *Tree) Walk(fn LeafVisitor) error {
	if t.root < 0 {
		return nil
	}

	root := t.nodes[t.root]
	if root.leaf {
		fn(root.symbol, root.weight, MakeCode(1, 0))
		return nil
	}

	// We use stackItem.x to keep track of where we are in the tree walk:
	//   x=0 → We just arrived at stackItem for the first time
	//   x=1 → We have already processed the left child
	//   x=2 → We have already processed both children
	//
	// Only internal nodes are pushed.  The stack depth equals the length of
	// hc, so it never exceeds MaxCodeSize.

	type stackItem struct {
		n  int32
		x  byte
		hc Code
	}

	stack := make([]stackItem, 0, log2int(t.numLeaves)+1)
	stack = append(stack, stackItem{n: t.root})

	for len(stack) != 0 {
		top := &stack[len(stack)-1]
		x := top.x
		top.x++

		var child int32
		var hc Code
		switch x {
		case 0:
			child, hc = t.nodes[top.n].left, top.hc.Append(0)
		case 1:
			child, hc = t.nodes[top.n].right, top.hc.Append(1)
		default:
			stack = stack[:len(stack)-1]
			continue
		}

		if hc.Size > MaxCodeSize || (hc.Size == MaxCodeSize && !t.nodes[child].leaf) {
			return fmt.Errorf("%w: tree depth exceeds %d", ErrCodeTooLong, MaxCodeSize)
		}

		node := t.nodes[child]
		if node.leaf {
			fn(node.symbol, node.weight, hc)
			continue
		}
		stack = append(stack, stackItem{n: child, hc: hc})
	}
	return nil
}

// type nodeHeap {{{

type nodeHeap struct {
	tree *Tree
	list []int32
}

func (h *nodeHeap) Init() {
	heap.Init(h)
}

func (h *nodeHeap) Len() int {
	return len(h.list)
}

func (h *nodeHeap) Swap(i, j int) {
	h.list[i], h.list[j] = h.list[j], h.list[i]
}

func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.list[i], h.list[j]
	aw, bw := h.tree.nodes[a].weight, h.tree.nodes[b].weight
	if aw != bw {
		return aw < bw
	}
	return a < b
}

func (h *nodeHeap) Push(x interface{}) {
	h.list = append(h.list, x.(int32))
}

func (h *nodeHeap) Pop() interface{} {
	last := len(h.list) - 1
	x := h.list[last]
	h.list = h.list[:last]
	return x
}

var _ heap.Interface = (*nodeHeap)(nil)

// }}}
