package grid

import (
	"fmt"
	"math"
)

// Domain is an axis-aligned box [Lower_d, Upper_d] mapped affinely onto the unit cube.
type Domain struct {
	Lower []float64 `msgpack:"lower"`
	Upper []float64 `msgpack:"upper"`
}

// UnitDomain returns [0,1]^dim.
func UnitDomain(dim int) *Domain {
	d := &Domain{Lower: make([]float64, dim), Upper: make([]float64, dim)}
	for i := range d.Upper {
		d.Upper[i] = 1
	}

	return d
}

// Validate checks shape and Lower < Upper with finite bounds.
func (d *Domain) Validate(dim int) error {
	if len(d.Lower) != dim || len(d.Upper) != dim {
		return fmt.Errorf("domain has %d/%d bounds for dim %d: %w", len(d.Lower), len(d.Upper), dim, ErrBadDomain)
	}
	for i := range d.Lower {
		lo, hi := d.Lower[i], d.Upper[i]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || lo >= hi {
			return fmt.Errorf("dimension %d: [%g, %g]: %w", i, lo, hi, ErrBadDomain)
		}
	}

	return nil
}

// ToUnit maps x from the box to the unit cube.
//
// Errors: ErrDimensionMismatch; ErrOutOfDomain when x lies outside the box.
func (d *Domain) ToUnit(x []float64) ([]float64, error) {
	if len(x) != len(d.Lower) {
		return nil, ErrDimensionMismatch
	}
	u := make([]float64, len(x))
	for i := range x {
		if x[i] < d.Lower[i] || x[i] > d.Upper[i] {
			return nil, fmt.Errorf("x[%d]=%g not in [%g, %g]: %w", i, x[i], d.Lower[i], d.Upper[i], ErrOutOfDomain)
		}
		u[i] = (x[i] - d.Lower[i]) / (d.Upper[i] - d.Lower[i])
	}

	return u, nil
}

// FromUnit maps u from the unit cube to the box.
func (d *Domain) FromUnit(u []float64) ([]float64, error) {
	if len(u) != len(d.Lower) {
		return nil, ErrDimensionMismatch
	}
	x := make([]float64, len(u))
	for i := range u {
		if u[i] < 0 || u[i] > 1 {
			return nil, fmt.Errorf("u[%d]=%g not in [0, 1]: %w", i, u[i], ErrOutOfDomain)
		}
		x[i] = d.Lower[i] + u[i]*(d.Upper[i]-d.Lower[i])
	}

	return x, nil
}

// Volume returns the product of the side lengths.
func (d *Domain) Volume() float64 {
	v := 1.0
	for i := range d.Lower {
		v *= d.Upper[i] - d.Lower[i]
	}

	return v
}

// Clone returns a deep copy.
func (d *Domain) Clone() *Domain {
	if d == nil {
		return nil
	}

	return &Domain{
		Lower: append([]float64(nil), d.Lower...),
		Upper: append([]float64(nil), d.Upper...),
	}
}
