package sparse

import (
	"bytes"
	"fmt"
	"iter"
	"log/slog"
	"sort"
)

// PartitionNode owns one contiguous key range: a local index, a timestamp
// source, and the per-row locks that serialize procedures. Rows never cross
// partitions, so a node can execute a whole procedure against its own index
// without coordinating with anyone.
type PartitionNode struct {
	env   Env
	locks *rowLocks
}

// NewPartitionNode wraps a local index as an execution node. clock and
// logger may be nil, defaulting to the system clock and slog default.
func NewPartitionNode(ndx Index, clock Clock, logger *slog.Logger) *PartitionNode {
	if clock == nil {
		clock = SystemClock()
	}
	return &PartitionNode{
		env:   Env{Index: ndx, Clock: clock, Logger: logger},
		locks: newRowLocks(),
	}
}

// SubmitEncoded decodes a wire-encoded procedure, executes it against the
// node's index while holding the row lock, and returns the wire-encoded
// result row. This is the server side of PartitionedIndex.Submit.
func (n *PartitionNode) SubmitEncoded(routingKey, encodedProc []byte) ([]byte, error) {
	proc, err := DecodeProcedure(encodedProc)
	if err != nil {
		return nil, err
	}
	rowKey, err := proc.RowKey()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(rowKey, routingKey) {
		return nil, fmt.Errorf("procedure row key %x does not match routing key %x", rowKey, routingKey)
	}
	row, err := n.apply(proc, rowKey)
	if err != nil {
		return nil, err
	}
	return EncodeRow(nil, row)
}

func (n *PartitionNode) apply(proc Procedure, rowKey []byte) (*Row, error) {
	n.locks.lock(rowKey)
	defer n.locks.unlock(rowKey)
	return proc.Apply(&n.env)
}

// PartitionedView is an Index split into contiguous key ranges, each owned
// by an in-process PartitionNode. It realizes the submit contract: a
// procedure is encoded, routed to the owning node, executed there and its
// result returned encoded. Distributed placement, rebalancing and the
// network transport stay out of scope; a real deployment would put a
// transport between Submit and SubmitEncoded.
type PartitionedView struct {
	parts []viewPartition // ascending by lower bound
}

type viewPartition struct {
	lower []byte // inclusive; nil for the first partition
	node  *PartitionNode
}

var _ PartitionedIndex = (*PartitionedView)(nil)

// Partition declares one key range of a PartitionedView: the inclusive
// lower bound of the range and the node-local index that stores it. The
// first partition's Lower must be nil or empty; each subsequent Lower must
// be strictly greater than the previous one. A partition extends up to the
// next partition's lower bound.
type Partition struct {
	Lower []byte
	Index Index
}

// NewPartitionedView builds a view over the given partitions. clock and
// logger are shared by all nodes; either may be nil.
func NewPartitionedView(parts []Partition, clock Clock, logger *slog.Logger) (*PartitionedView, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("no partitions")
	}
	if len(parts[0].Lower) != 0 {
		return nil, fmt.Errorf("first partition must own the start of the key space")
	}
	view := &PartitionedView{parts: make([]viewPartition, 0, len(parts))}
	for i, part := range parts {
		if part.Index == nil {
			return nil, fmt.Errorf("partition %d has no index", i)
		}
		if i > 0 && bytes.Compare(part.Lower, parts[i-1].Lower) <= 0 {
			return nil, fmt.Errorf("partition %d lower bound out of order", i)
		}
		view.parts = append(view.parts, viewPartition{
			lower: part.Lower,
			node:  NewPartitionNode(part.Index, clock, logger),
		})
	}
	return view, nil
}

// owner returns the partition whose range contains key: the last partition
// with lower <= key.
func (view *PartitionedView) owner(key []byte) *viewPartition {
	i := sort.Search(len(view.parts), func(i int) bool {
		return bytes.Compare(view.parts[i].lower, key) > 0
	})
	return &view.parts[i-1]
}

func (view *PartitionedView) Contains(key []byte) (bool, error) {
	return view.owner(key).node.env.Index.Contains(key)
}

func (view *PartitionedView) Insert(key, value []byte) error {
	return view.owner(key).node.env.Index.Insert(key, value)
}

// RangeScan stitches together the partitions intersecting [fromKey, toKey).
// The scan is weakly consistent at row granularity: rows it has not reached
// yet may be modified before it gets there.
func (view *PartitionedView) RangeScan(fromKey, toKey []byte) iter.Seq2[[]byte, []byte] {
	return func(yield func(k, v []byte) bool) {
		for i := range view.parts {
			part := &view.parts[i]
			from := fromKey
			if bytes.Compare(part.lower, from) > 0 {
				from = part.lower
			}
			to := toKey
			if i+1 < len(view.parts) {
				next := view.parts[i+1].lower
				if bytes.Compare(next, to) < 0 {
					to = next
				}
			}
			if bytes.Compare(from, to) >= 0 {
				continue
			}
			for k, v := range part.node.env.Index.RangeScan(from, to) {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// Submit encodes the procedure and hands it to the node owning routingKey.
func (view *PartitionedView) Submit(routingKey []byte, proc Procedure) ([]byte, error) {
	encoded, err := EncodeProcedure(nil, proc)
	if err != nil {
		return nil, err
	}
	return view.owner(routingKey).node.SubmitEncoded(routingKey, encoded)
}
