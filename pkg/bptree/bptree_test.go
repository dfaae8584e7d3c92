package bptree_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/slow5/pkg/bptree"
)

func TestBPlusTree_InsertAndSearch(t *testing.T) {
	tests := map[string]struct {
		tree     *bptree.BPlusTree[int, string]
		actions  []func(tree *bptree.BPlusTree[int, string])
		searches []struct {
			key      int
			expected string
			found    bool
		}
	}{
		"Insert and search integers": {
			tree: bptree.NewBPlusTree[int, string](4),
			actions: []func(tree *bptree.BPlusTree[int, string]){
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(1, "one") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(2, "two") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(3, "three") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(4, "four") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(5, "five") },
			},
			searches: []struct {
				key      int
				expected string
				found    bool
			}{
				{1, "one", true},
				{2, "two", true},
				{3, "three", true},
				{4, "four", true},
				{5, "five", true},
				{6, "", false},
			},
		},
		"Insert duplicate keys": {
			tree: bptree.NewBPlusTree[int, string](4),
			actions: []func(tree *bptree.BPlusTree[int, string]){
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(1, "one") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(1, "uno") },
			},
			searches: []struct {
				key      int
				expected string
				found    bool
			}{
				{1, "uno", true},
			},
		},
		"Search empty tree": {
			tree:    bptree.NewBPlusTree[int, string](4),
			actions: []func(tree *bptree.BPlusTree[int, string]){},
			searches: []struct {
				key      int
				expected string
				found    bool
			}{
				{1, "", false},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for _, action := range tt.actions {
				action(tt.tree)
			}
			for _, search := range tt.searches {
				value, found := tt.tree.Search(search.key)
				assert.Equal(t, search.found, found, "Search(%d)", search.key)
				assert.Equal(t, search.expected, value, "Search(%d)", search.key)
			}
		})
	}
}

func TestBPlusTree_RandomOrder(t *testing.T) {
	for _, order := range []int{2, 3, 4, 7, 32} {
		t.Run(fmt.Sprintf("order %d", order), func(t *testing.T) {
			tree := bptree.NewBPlusTree[float64, int](order)
			rng := rand.New(rand.NewSource(int64(order)))
			keys := rng.Perm(500)
			for _, k := range keys {
				tree.Insert(float64(k)/2, k)
			}
			assert.Equal(t, 500, tree.Len())
			assert.Greater(t, tree.Height(), 1)

			for _, k := range keys {
				v, ok := tree.Search(float64(k) / 2)
				require.True(t, ok, "key %v", float64(k)/2)
				assert.Equal(t, k, v)
			}

			var seen []int
			tree.AscendAll(func(_ float64, v int) bool {
				seen = append(seen, v)
				return true
			})
			assert.True(t, sort.IntsAreSorted(seen))
			assert.Len(t, seen, 500)
		})
	}
}

func TestBPlusTree_Ascend(t *testing.T) {
	tree := bptree.NewBPlusTree[string, int](3)
	for i, k := range []string{"m", "c", "x", "a", "q", "f", "t"} {
		tree.Insert(k, i)
	}

	collect := func(from string, stop string) []string {
		var got []string
		tree.Ascend(from, func(k string, _ int) bool {
			if stop != "" && k > stop {
				return false
			}
			got = append(got, k)
			return true
		})
		return got
	}

	assert.Equal(t, []string{"f", "m", "q"}, collect("d", "q"))
	assert.Equal(t, []string{"m", "q", "t", "x"}, collect("m", ""))
	assert.Empty(t, collect("y", ""))
	assert.Equal(t, []string{"a", "c"}, collect("", "c"))
}

func TestBPlusTree_Upsert(t *testing.T) {
	tree := bptree.NewBPlusTree[string, []string](4)
	add := func(key, id string) {
		tree.Upsert(key, func(old []string, _ bool) []string { return append(old, id) })
	}
	add("signal_positive", "r1")
	add("unknown", "r2")
	add("signal_positive", "r3")

	v, ok := tree.Search("signal_positive")
	require.True(t, ok)
	assert.Equal(t, []string{"r1", "r3"}, v)
	assert.Equal(t, 2, tree.Len())
}
