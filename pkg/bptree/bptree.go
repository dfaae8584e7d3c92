// File: bptree.go
package bptree

import (
	"cmp"
	"sort"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 4

// BPlusTree is an ordered map with linked leaves for range scans. It is
// safe for concurrent use; readers share the tree, writers hold it alone.
type BPlusTree[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	order  int
	height int
	size   int
	m      sync.RWMutex
}

// node represents both internal and leaf nodes in the B+Tree.
type node[K cmp.Ordered, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // used if !isLeaf
	values   []V           // used if isLeaf
	parent   *node[K, V]
	next     *node[K, V] // leaf-link pointer, for range scans
}

// NewBPlusTree creates and returns a B+Tree with the given order.
// If the specified order < 3, we fall back to DefaultOrder.
func NewBPlusTree[K cmp.Ordered, V any](order int) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTree[K, V]{
		root: &node[K, V]{
			isLeaf: true,
			keys:   make([]K, 0, order+1),
			values: make([]V, 0, order+1),
		},
		order:  order,
		height: 1,
	}
}

func (tree *BPlusTree[K, V]) Height() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.height
}

// Len returns the number of keys
func (tree *BPlusTree[K, V]) Len() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.size
}

// findChildIndex determines which child pointer to follow. Separator keys
// are the first key of their right subtree.
func findChildIndex[K cmp.Ordered](keys []K, searchKey K) int {
	return sort.Search(len(keys), func(i int) bool { return cmp.Less(searchKey, keys[i]) })
}

// leafFor descends to the leaf that holds or would hold key
func (tree *BPlusTree[K, V]) leafFor(key K) *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[findChildIndex(current.keys, key)]
	}
	return current
}

// Search locates the value associated with `key` (if it exists).
func (tree *BPlusTree[K, V]) Search(key K) (V, bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.leafFor(key)
	i, found := leafPosition(leaf, key)
	if !found {
		var zero V
		return zero, false
	}
	return leaf.values[i], true
}

// Insert adds a (key, value) pair, replacing the value of an existing key
func (tree *BPlusTree[K, V]) Insert(key K, value V) {
	tree.Upsert(key, func(V, bool) V { return value })
}

// Upsert stores fn(old, exists) under key
func (tree *BPlusTree[K, V]) Upsert(key K, fn func(old V, exists bool) V) {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.leafFor(key)
	i, found := leafPosition(leaf, key)
	if found {
		leaf.values[i] = fn(leaf.values[i], true)
		return
	}
	var zero V
	insertAt(leaf, i, key, fn(zero, false))
	tree.size++

	if len(leaf.keys) > tree.order {
		tree.splitLeaf(leaf)
	}
}

// Ascend calls fn for every key >= from in order until fn returns false
func (tree *BPlusTree[K, V]) Ascend(from K, fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.leafFor(from)
	i, _ := leafPosition(leaf, from)
	tree.scan(leaf, i, fn)
}

// AscendAll calls fn for every key in order until fn returns false
func (tree *BPlusTree[K, V]) AscendAll(fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	current := tree.root
	for !current.isLeaf {
		current = current.children[0]
	}
	tree.scan(current, 0, fn)
}

func (tree *BPlusTree[K, V]) scan(leaf *node[K, V], i int, fn func(K, V) bool) {
	for ; leaf != nil; leaf, i = leaf.next, 0 {
		for ; i < len(leaf.keys); i++ {
			if !fn(leaf.keys[i], leaf.values[i]) {
				return
			}
		}
	}
}

// leafPosition returns the index of the first key >= key and whether it
// equals key
func leafPosition[K cmp.Ordered, V any](leaf *node[K, V], key K) (int, bool) {
	i := sort.Search(len(leaf.keys), func(i int) bool { return !cmp.Less(leaf.keys[i], key) })
	return i, i < len(leaf.keys) && leaf.keys[i] == key
}

func insertAt[K cmp.Ordered, V any](leaf *node[K, V], idx int, key K, value V) {
	var zeroK K
	var zeroV V
	leaf.keys = append(leaf.keys, zeroK)
	leaf.values = append(leaf.values, zeroV)

	// Shift elements to make room at idx
	copy(leaf.keys[idx+1:], leaf.keys[idx:])
	leaf.keys[idx] = key
	copy(leaf.values[idx+1:], leaf.values[idx:])
	leaf.values[idx] = value
}

// splitLeaf handles splitting a leaf node that has overflowed.
func (tree *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	newLeaf := &node[K, V]{
		isLeaf: true,
		keys:   append([]K{}, leaf.keys[mid:]...),
		values: append([]V{}, leaf.values[mid:]...),
		next:   leaf.next,
		parent: leaf.parent,
	}

	// Adjust the original leaf
	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = newLeaf

	tree.insertInParent(leaf, newLeaf.keys[0], newLeaf)
}

// insertInParent links right after left under key, growing a new root
// when left was the root
func (tree *BPlusTree[K, V]) insertInParent(left *node[K, V], key K, right *node[K, V]) {
	parent := left.parent
	if parent == nil {
		newRoot := &node[K, V]{
			keys:     []K{key},
			children: []*node[K, V]{left, right},
		}
		left.parent = newRoot
		right.parent = newRoot
		tree.root = newRoot
		tree.height++
		return
	}

	idx := findChildIndex(parent.keys, key)

	var zeroK K
	parent.keys = append(parent.keys, zeroK)
	copy(parent.keys[idx+1:], parent.keys[idx:])
	parent.keys[idx] = key

	parent.children = append(parent.children, nil)
	copy(parent.children[idx+2:], parent.children[idx+1:])
	parent.children[idx+1] = right
	right.parent = parent

	if len(parent.keys) > tree.order {
		tree.splitInternal(parent)
	}
}

// splitInternal handles splitting an internal node that has overflowed.
func (tree *BPlusTree[K, V]) splitInternal(internal *node[K, V]) {
	mid := len(internal.keys) / 2
	splitKey := internal.keys[mid]

	newInternal := &node[K, V]{
		keys:     append([]K{}, internal.keys[mid+1:]...),
		children: append([]*node[K, V]{}, internal.children[mid+1:]...),
		parent:   internal.parent,
	}
	for _, child := range newInternal.children {
		child.parent = newInternal
	}

	internal.keys = internal.keys[:mid]
	internal.children = internal.children[:mid+1]

	tree.insertInParent(internal, splitKey, newInternal)
}
