package sparse

import (
	"bytes"
	"fmt"
	"iter"
	"slices"
	"time"

	"go.etcd.io/bbolt"
)

var rowsBucket = []byte("rows")

// BoltIndex is a durable local Index over a single Bolt bucket.
//
// Each Contains/Insert/RangeScan call runs in its own Bolt transaction;
// atomicity of a whole procedure does not come from Bolt but from the
// per-row serialization at the executing node, which holds the row for the
// full procedure.
type BoltIndex struct {
	bdb *bbolt.DB
}

var _ Index = (*BoltIndex)(nil)

// BoltOptions tunes the underlying Bolt database.
type BoltOptions struct {
	IsTesting bool
	MmapSize  int
}

// OpenBolt opens (creating if needed) a Bolt-backed index at path.
func OpenBolt(path string, opt BoltOptions) (*BoltIndex, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 1024
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("sparse: %w", err)
	}
	err = bdb.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(rowsBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("sparse: %w", err)
	}
	return &BoltIndex{bdb: bdb}, nil
}

func (ix *BoltIndex) Close() error {
	return ix.bdb.Close()
}

// Bolt exposes the underlying database for maintenance tooling.
func (ix *BoltIndex) Bolt() *bbolt.DB {
	return ix.bdb
}

func (ix *BoltIndex) Contains(key []byte) (bool, error) {
	var found bool
	err := ix.bdb.View(func(btx *bbolt.Tx) error {
		found = btx.Bucket(rowsBucket).Get(key) != nil
		return nil
	})
	return found, err
}

func (ix *BoltIndex) Insert(key, value []byte) error {
	return ix.bdb.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(rowsBucket).Put(key, value)
	})
}

func (ix *BoltIndex) RangeScan(fromKey, toKey []byte) iter.Seq2[[]byte, []byte] {
	return func(yield func(k, v []byte) bool) {
		// Bolt memory is only valid inside the transaction; clone before
		// yielding so the sequence behaves like any other Index.
		_ = ix.bdb.View(func(btx *bbolt.Tx) error {
			c := btx.Bucket(rowsBucket).Cursor()
			for k, v := c.Seek(fromKey); k != nil && bytes.Compare(k, toKey) < 0; k, v = c.Next() {
				if !yield(slices.Clone(k), slices.Clone(v)) {
					break
				}
			}
			return nil
		})
	}
}
