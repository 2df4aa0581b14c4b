// Package index implements the ordered multiset used for ready queues, the
// delay wheel, and the recycle pool: insert, peek-min, pop-min, find-by-key
// and delete-by-key over (key, value) pairs, all expected O(log n).
//
// It is a skip list grounded on the original mx-queued C implementation
// (skiplist.c: mx_skiplist_node_s / mx_skiplist_s, MAXLEVEL 32, coin-flip
// level generation, the update-array insert/delete technique). Unlike the
// C original, entries are ordered by (key, sequence) rather than key alone:
// sequence is a monotonically increasing counter assigned at insert time,
// which makes the FIFO tie-break among duplicate keys a structural
// property of the comparison instead of an accident of where the
// update-array walk happens to splice a new node. The C insert actually
// splices a new equal-key node immediately before the first existing node
// of that key, which is LIFO at the head of a tied run — not the FIFO
// order this broker's ordering property requires, so it is not carried
// over.
package index

import "math/rand"

const maxLevel = 32

// Key is the ordering key. Callers wanting a descending (max-top) view —
// the per-queue ready index — negate the key at the call site; Index
// itself is always ascending (min-top), so one implementation covers both
// orientations.
type Key int64

type node struct {
	key     Key
	seq     uint64
	value   interface{}
	forward []*node
}

// Index is an ordered multiset of (Key, value) pairs with stable
// insertion-order tie-break on equal keys.
type Index struct {
	root  *node
	level int
	size  int
	seq   uint64
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		root:  &node{forward: make([]*node, maxLevel)},
		level: 1,
	}
}

func less(akey Key, aseq uint64, bkey Key, bseq uint64) bool {
	if akey != bkey {
		return akey < bkey
	}
	return aseq < bseq
}

func randomLevel() int {
	level := 1
	for level < maxLevel && rand.Int31()&1 == 1 {
		level++
	}
	return level
}

// Insert adds value under key. Duplicate keys are permitted; among equal
// keys, the entry inserted first is the one peek/pop will return first.
func (ix *Index) Insert(key Key, value interface{}) {
	update := make([]*node, maxLevel)
	x := ix.root
	for i := ix.level - 1; i >= 0; i-- {
		for x.forward[i] != nil && less(x.forward[i].key, x.forward[i].seq, key, ix.seq+1) {
			x = x.forward[i]
		}
		update[i] = x
	}

	lvl := randomLevel()
	if lvl > ix.level {
		for i := ix.level; i < lvl; i++ {
			update[i] = ix.root
		}
		ix.level = lvl
	}

	ix.seq++
	n := &node{key: key, seq: ix.seq, value: value, forward: make([]*node, lvl)}
	for i := 0; i < lvl; i++ {
		n.forward[i] = update[i].forward[i]
		update[i].forward[i] = n
	}
	ix.size++
}

// PeekMin returns the lowest-keyed entry without removing it.
func (ix *Index) PeekMin() (interface{}, bool) {
	n := ix.root.forward[0]
	if n == nil {
		return nil, false
	}
	return n.value, true
}

// PeekMinKey returns the lowest key present, for callers that need the key
// without the value (e.g. the scheduler checking due-time against now).
func (ix *Index) PeekMinKey() (Key, bool) {
	n := ix.root.forward[0]
	if n == nil {
		return 0, false
	}
	return n.key, true
}

// PopMin removes and returns the lowest-keyed entry.
func (ix *Index) PopMin() (interface{}, bool) {
	n := ix.root.forward[0]
	if n == nil {
		return nil, false
	}
	ix.unlink(n)
	return n.value, true
}

// FindKey returns the first (earliest-inserted) value stored under key.
func (ix *Index) FindKey(key Key) (interface{}, bool) {
	n := ix.findFirst(key)
	if n == nil {
		return nil, false
	}
	return n.value, true
}

// DeleteKey removes and returns the first (earliest-inserted) value stored
// under key.
func (ix *Index) DeleteKey(key Key) (interface{}, bool) {
	n := ix.findFirst(key)
	if n == nil {
		return nil, false
	}
	ix.unlink(n)
	return n.value, true
}

func (ix *Index) findFirst(key Key) *node {
	x := ix.root
	for i := ix.level - 1; i >= 0; i-- {
		for x.forward[i] != nil && x.forward[i].key < key {
			x = x.forward[i]
		}
	}
	candidate := x.forward[0]
	if candidate != nil && candidate.key == key {
		return candidate
	}
	return nil
}

func (ix *Index) unlink(target *node) {
	update := make([]*node, maxLevel)
	x := ix.root
	for i := ix.level - 1; i >= 0; i-- {
		for x.forward[i] != nil && less(x.forward[i].key, x.forward[i].seq, target.key, target.seq) {
			x = x.forward[i]
		}
		update[i] = x
	}

	for i := 0; i < ix.level; i++ {
		if update[i].forward[i] != target {
			continue
		}
		update[i].forward[i] = target.forward[i]
	}

	for ix.level > 1 && ix.root.forward[ix.level-1] == nil {
		ix.level--
	}
	ix.size--
}

// PeekAll returns every value currently stored, in ascending (key, seq)
// order, without removing them. Used by the snapshot writer, which needs
// to serialize the store without draining it.
func (ix *Index) PeekAll() []interface{} {
	values := make([]interface{}, 0, ix.size)
	for n := ix.root.forward[0]; n != nil; n = n.forward[0] {
		values = append(values, n.value)
	}
	return values
}

// Size returns the number of entries currently stored.
func (ix *Index) Size() int { return ix.size }

// Empty reports whether the index holds no entries.
func (ix *Index) Empty() bool { return ix.size == 0 }

// RemoveWhere deletes every entry whose value satisfies pred and returns
// the removed values. It is a linear scan, acceptable because the only
// caller (queue removal cascading into the delay wheel and recycle pool)
// runs rarely relative to insert/pop traffic.
func (ix *Index) RemoveWhere(pred func(interface{}) bool) []interface{} {
	var removed []interface{}
	var match []*node

	for n := ix.root.forward[0]; n != nil; n = n.forward[0] {
		if pred(n.value) {
			match = append(match, n)
		}
	}
	for _, n := range match {
		ix.unlink(n)
		removed = append(removed, n.value)
	}
	return removed
}
