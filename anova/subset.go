package anova

import (
	"fmt"
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

// MaxDim is the largest dimension a Subset can describe.
const MaxDim = 64

// Subset is a set of dimensions encoded as a bit mask: bit d is set when
// dimension d belongs to the subset. The zero value is the empty set.
type Subset uint64

// NewSubset returns the subset holding dims. Dimensions outside [0, 64) are ignored.
func NewSubset(dims ...int) Subset {
	var s Subset
	for _, d := range dims {
		if d >= 0 && d < MaxDim {
			s |= 1 << uint(d)
		}
	}

	return s
}

// Len returns the number of dimensions in s (the interaction order).
func (s Subset) Len() int { return bits.OnesCount64(uint64(s)) }

// Contains reports whether dimension d is in s.
func (s Subset) Contains(d int) bool {
	return d >= 0 && d < MaxDim && s&(1<<uint(d)) != 0
}

// IsSubsetOf reports s ⊆ u.
func (s Subset) IsSubsetOf(u Subset) bool { return s&^u == 0 }

// Dims returns the dimensions of s in increasing order.
func (s Subset) Dims() []int {
	out := make([]int, 0, s.Len())
	for m := uint64(s); m != 0; m &= m - 1 {
		out = append(out, bits.TrailingZeros64(m))
	}

	return out
}

// String renders s as "{0,2}"; the empty set is "{}".
func (s Subset) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for k, d := range s.Dims() {
		if k > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(d))
	}
	sb.WriteByte('}')

	return sb.String()
}

// ParseSubset parses the String form, tolerating spaces: "{0, 2}".
func ParseSubset(str string) (Subset, error) {
	str = strings.TrimSpace(str)
	if !strings.HasPrefix(str, "{") || !strings.HasSuffix(str, "}") {
		return 0, fmt.Errorf("ParseSubset %q: %w", str, ErrBadDimension)
	}
	body := strings.TrimSpace(str[1 : len(str)-1])
	if body == "" {
		return 0, nil
	}
	var s Subset
	for _, part := range strings.Split(body, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 || d >= MaxDim {
			return 0, fmt.Errorf("ParseSubset %q: %w", str, ErrBadDimension)
		}
		s |= 1 << uint(d)
	}

	return s, nil
}

// Subsets returns every subset of s, including ∅ and s itself, ordered by
// (size, mask).
func (s Subset) Subsets() []Subset {
	out := make([]Subset, 0, 1<<s.Len())
	// Standard submask walk: v = (v − 1) & s visits all submasks.
	for v := s; ; v = (v - 1) & s {
		out = append(out, v)
		if v == 0 {
			break
		}
	}
	sortSubsets(out)

	return out
}

// EnumerateSubsets returns all non-empty subsets of {0,…,dim−1} with at most
// maxOrder elements, ordered by size and then lexicographically by their
// dimension lists ({0} {1} {2} {0,1} {0,2} {1,2} …).
func EnumerateSubsets(dim, maxOrder int) []Subset {
	if dim <= 0 || dim > MaxDim || maxOrder <= 0 {
		return nil
	}
	maxOrder = min(maxOrder, dim)
	var out []Subset
	dims := make([]int, 0, maxOrder)
	var rec func(start, k int)
	rec = func(start, k int) {
		if len(dims) == k {
			out = append(out, NewSubset(dims...))
			return
		}
		for d := start; d < dim; d++ {
			dims = append(dims, d)
			rec(d+1, k)
			dims = dims[:len(dims)-1]
		}
	}
	for k := 1; k <= maxOrder; k++ {
		rec(0, k)
	}

	return out
}

func sortSubsets(xs []Subset) {
	slices.SortFunc(xs, func(a, b Subset) int {
		if la, lb := a.Len(), b.Len(); la != lb {
			return la - lb
		}
		return slices.Compare(a.Dims(), b.Dims())
	})
}

// sign returns (−1)^{|u|−|v|} for v ⊆ u.
func sign(u, v Subset) float64 {
	if (u.Len()-v.Len())%2 == 0 {
		return 1
	}

	return -1
}
