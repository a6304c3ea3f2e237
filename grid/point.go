package grid

import (
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Point is a hierarchical grid point: per dimension a level l and an index i.
// For l ≥ 1 the index is odd with 1 ≤ i < 2^l; on level 0 (boundary grids)
// the index is 0 or 1. The coordinate in dimension d is i·2^{−l}.
type Point struct {
	Level []int
	Index []int
}

// NewPoint copies levels and indices into a Point. Use Validate to check it
// against a basis type.
func NewPoint(levels, indices []int) Point {
	return Point{
		Level: append([]int(nil), levels...),
		Index: append([]int(nil), indices...),
	}
}

// Dim returns the number of dimensions.
func (p Point) Dim() int { return len(p.Level) }

// Clone returns a deep copy.
func (p Point) Clone() Point { return NewPoint(p.Level, p.Index) }

// Coordinate returns i·2^{−l} in dimension d.
func (p Point) Coordinate(d int) float64 {
	return math.Ldexp(float64(p.Index[d]), -p.Level[d])
}

// Coordinates returns the point in the unit cube.
func (p Point) Coordinates() []float64 {
	x := make([]float64, len(p.Level))
	for d := range x {
		x[d] = p.Coordinate(d)
	}

	return x
}

// LevelSum returns Σ_d l_d.
func (p Point) LevelSum() int {
	s := 0
	for _, l := range p.Level {
		s += l
	}

	return s
}

// MaxLevel returns max_d l_d.
func (p Point) MaxLevel() int {
	m := 0
	for _, l := range p.Level {
		if l > m {
			m = l
		}
	}

	return m
}

// Key renders the canonical "l,i;l,i;..." string used as a map key.
func (p Point) Key() string {
	var sb strings.Builder
	sb.Grow(len(p.Level) * 6)
	for d := range p.Level {
		if d > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.Itoa(p.Level[d]))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(p.Index[d]))
	}

	return sb.String()
}

// Hash returns the xxhash of Key.
func (p Point) Hash() uint64 { return xxhash.Sum64String(p.Key()) }

// Equal compares levels and indices.
func (p Point) Equal(q Point) bool {
	if len(p.Level) != len(q.Level) {
		return false
	}
	for d := range p.Level {
		if p.Level[d] != q.Level[d] || p.Index[d] != q.Index[d] {
			return false
		}
	}

	return true
}

// Validate checks the point against basis type t and the level cap.
func (p Point) Validate(t Type, maxLevel int) error {
	if len(p.Level) == 0 || len(p.Level) != len(p.Index) {
		return ErrBadDimension
	}
	root := t.RootLevel()
	for d := range p.Level {
		l, i := p.Level[d], p.Index[d]
		if l < root || l > maxLevel {
			return ErrBadLevel
		}
		if l == 0 {
			if i != 0 && i != 1 {
				return ErrBadIndex
			}
			continue
		}
		if i <= 0 || i >= 1<<l || i%2 == 0 {
			return ErrBadIndex
		}
	}

	return nil
}

// EffectiveMask returns the bit set of dimensions where the point is above
// the root level of t. Dimensions ≥ 64 are not representable and are ignored.
func (p Point) EffectiveMask(t Type) uint64 {
	root := t.RootLevel()
	var m uint64
	for d, l := range p.Level {
		if l > root && d < 64 {
			m |= 1 << uint(d)
		}
	}

	return m
}

// parentIndex returns the index of the hierarchical parent of (l, i), l ≥ 2.
func parentIndex(i int) int {
	h := i >> 1
	if h%2 == 0 {
		return h + 1
	}

	return h
}

// Parents returns the hierarchical parents of p in dimension d for basis t:
// one parent for l ≥ 2, the two boundary points for l == 1 on LinearBoundary
// grids, none on the root level.
func (p Point) Parents(t Type, d int) []Point {
	l := p.Level[d]
	switch {
	case l >= 2:
		q := p.Clone()
		q.Level[d] = l - 1
		q.Index[d] = parentIndex(p.Index[d])
		return []Point{q}
	case l == 1 && t == LinearBoundary:
		left, right := p.Clone(), p.Clone()
		left.Level[d], left.Index[d] = 0, 0
		right.Level[d], right.Index[d] = 0, 1
		return []Point{left, right}
	default:
		return nil
	}
}

// Children returns the hierarchical children of p in dimension d.
// Level-0 boundary points share the single child (1, 1).
func (p Point) Children(d int) []Point {
	l, i := p.Level[d], p.Index[d]
	if l == 0 {
		q := p.Clone()
		q.Level[d], q.Index[d] = 1, 1
		return []Point{q}
	}
	left, right := p.Clone(), p.Clone()
	left.Level[d], left.Index[d] = l+1, 2*i-1
	right.Level[d], right.Index[d] = l+1, 2*i+1

	return []Point{left, right}
}
