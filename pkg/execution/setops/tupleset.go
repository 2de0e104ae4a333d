package setops

import (
	"slices"

	"relcore/pkg/primitives"
	"relcore/pkg/tuple"
)

// TupleSet is a hash-based set of rows with collision detection.
// Rows with the same hash are kept in a bucket and compared column by column.
type TupleSet struct {
	buckets map[primitives.HashCode][]*tuple.Tuple
	size    int
}

// NewTupleSet creates an empty set.
func NewTupleSet() *TupleSet {
	return &TupleSet{buckets: make(map[primitives.HashCode][]*tuple.Tuple)}
}

func findTupleInList(t *tuple.Tuple, list []*tuple.Tuple) int {
	return slices.IndexFunc(list, t.Equals)
}

// Add adds a row. Returns false if an equal row was already present.
func (ts *TupleSet) Add(t *tuple.Tuple) bool {
	hash := t.Hash()
	bucket := ts.buckets[hash]
	if findTupleInList(t, bucket) >= 0 {
		return false
	}
	ts.buckets[hash] = append(bucket, t)
	ts.size++
	return true
}

// Contains reports whether an equal row is in the set.
func (ts *TupleSet) Contains(t *tuple.Tuple) bool {
	return findTupleInList(t, ts.buckets[t.Hash()]) >= 0
}

// Remove deletes the row equal to t. Returns false if there was none.
func (ts *TupleSet) Remove(t *tuple.Tuple) bool {
	hash := t.Hash()
	bucket := ts.buckets[hash]
	idx := findTupleInList(t, bucket)
	if idx < 0 {
		return false
	}
	bucket = slices.Delete(bucket, idx, idx+1)
	if len(bucket) == 0 {
		delete(ts.buckets, hash)
	} else {
		ts.buckets[hash] = bucket
	}
	ts.size--
	return true
}

// Clear empties the set.
func (ts *TupleSet) Clear() {
	clear(ts.buckets)
	ts.size = 0
}

// Size returns the number of distinct rows.
func (ts *TupleSet) Size() int {
	return ts.size
}

// Each visits every row until fn returns false. Order is unspecified.
func (ts *TupleSet) Each(fn func(*tuple.Tuple) bool) {
	for _, bucket := range ts.buckets {
		for _, t := range bucket {
			if !fn(t) {
				return
			}
		}
	}
}
