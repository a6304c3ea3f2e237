// Package grid - point storage.
//
// Storage keeps three views of the same point set:
//   - points: insertion order; the position ("seq") is the coefficient slot.
//   - index:  key → seq for O(1) membership and lookup.
//   - order:  a B-tree ordered by (level sum, key) for deterministic
//     coarse-to-fine traversals (hierarchisation, printing).
//
// Storage is not synchronized; Grid serializes access.
package grid

import (
	"github.com/tidwall/btree"
)

// orderItem is the B-tree payload.
type orderItem struct {
	levelSum int
	key      string
	seq      int
}

func byLevelSum(a, b interface{}) bool {
	x, y := a.(*orderItem), b.(*orderItem)
	if x.levelSum != y.levelSum {
		return x.levelSum < y.levelSum
	}

	return x.key < y.key
}

// Storage is the set of points of a grid.
type Storage struct {
	dim    int
	points []Point
	index  map[string]int
	order  *btree.BTree
}

// NewStorage returns an empty storage for dim-dimensional points.
func NewStorage(dim int) *Storage {
	return &Storage{
		dim:   dim,
		index: make(map[string]int),
		order: btree.NewNonConcurrent(byLevelSum),
	}
}

// Dim returns the dimension.
func (s *Storage) Dim() int { return s.dim }

// Len returns the number of points.
func (s *Storage) Len() int { return len(s.points) }

// Insert adds p (copied) and returns its seq and true, or the existing seq and
// false when p is already stored.
func (s *Storage) Insert(p Point) (int, bool) {
	key := p.Key()
	if seq, ok := s.index[key]; ok {
		return seq, false
	}
	seq := len(s.points)
	s.points = append(s.points, p.Clone())
	s.index[key] = seq
	s.order.Set(&orderItem{levelSum: p.LevelSum(), key: key, seq: seq})

	return seq, true
}

// Find returns the seq of p.
func (s *Storage) Find(p Point) (int, bool) {
	seq, ok := s.index[p.Key()]
	return seq, ok
}

// Contains reports whether p is stored.
func (s *Storage) Contains(p Point) bool {
	_, ok := s.index[p.Key()]
	return ok
}

// At returns the point stored at seq. The returned point shares memory with
// the storage and must not be mutated.
func (s *Storage) At(seq int) Point { return s.points[seq] }

// Points returns deep copies of all points in seq order.
func (s *Storage) Points() []Point {
	out := make([]Point, len(s.points))
	for i := range s.points {
		out[i] = s.points[i].Clone()
	}

	return out
}

// Ascend visits seqs in (level sum, key) order until fn returns false.
func (s *Storage) Ascend(fn func(seq int, p Point) bool) {
	s.order.Ascend(nil, func(item interface{}) bool {
		it := item.(*orderItem)
		return fn(it.seq, s.points[it.seq])
	})
}

// Clone returns an independent copy with identical seqs.
func (s *Storage) Clone() *Storage {
	c := NewStorage(s.dim)
	for _, p := range s.points {
		c.Insert(p)
	}

	return c
}
