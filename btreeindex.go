package sparse

import (
	"bytes"
	"iter"
	"slices"
	"sync"

	"github.com/google/btree"
)

const btreeDegree = 32

// BTreeIndex is an in-memory ordered index backed by a B-tree. It is the
// simplest Local variant of the Index capability, good for tests and for
// embedding.
type BTreeIndex struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

var _ Index = (*BTreeIndex)(nil)

type btreeEntry struct {
	key   []byte
	value []byte
}

func (e btreeEntry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(btreeEntry).key) < 0
}

func NewBTreeIndex() *BTreeIndex {
	return &BTreeIndex{tree: btree.New(btreeDegree)}
}

func (ix *BTreeIndex) Contains(key []byte) (bool, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Has(btreeEntry{key: key}), nil
}

func (ix *BTreeIndex) Insert(key, value []byte) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.ReplaceOrInsert(btreeEntry{
		key:   slices.Clone(key),
		value: slices.Clone(value),
	})
	return nil
}

func (ix *BTreeIndex) RangeScan(fromKey, toKey []byte) iter.Seq2[[]byte, []byte] {
	return func(yield func(k, v []byte) bool) {
		ix.mu.RLock()
		defer ix.mu.RUnlock()
		ix.tree.AscendRange(btreeEntry{key: fromKey}, btreeEntry{key: toKey}, func(item btree.Item) bool {
			e := item.(btreeEntry)
			return yield(e.key, e.value)
		})
	}
}

// Len returns the number of entries, for tests and stats.
func (ix *BTreeIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Len()
}
