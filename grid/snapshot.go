package grid

import "fmt"

// Snapshot is the serializable form of a Grid. Points are listed in seq
// order so coefficient vectors stay aligned after a round trip.
type Snapshot struct {
	Dim                 int     `msgpack:"dim"`
	Type                string  `msgpack:"type"`
	MaxLevel            int     `msgpack:"max_level"`
	MaxInteractionOrder int     `msgpack:"max_interaction_order,omitempty"`
	Interactions        [][]int `msgpack:"interactions,omitempty"`
	Domain              *Domain `msgpack:"domain,omitempty"`
	Levels              [][]int `msgpack:"levels"`
	Indices             [][]int `msgpack:"indices"`
}

// Snapshot captures the grid.
func (g *Grid) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := Snapshot{
		Dim:                 g.dim,
		Type:                g.opts.Type.String(),
		MaxLevel:            g.opts.MaxLevel,
		MaxInteractionOrder: g.opts.MaxInteractionOrder,
		Domain:              g.opts.Domain.Clone(),
		Levels:              make([][]int, g.storage.Len()),
		Indices:             make([][]int, g.storage.Len()),
	}
	for _, set := range g.opts.Interactions {
		s.Interactions = append(s.Interactions, append([]int(nil), set...))
	}
	for seq := range s.Levels {
		p := g.storage.At(seq)
		s.Levels[seq] = append([]int(nil), p.Level...)
		s.Indices[seq] = append([]int(nil), p.Index...)
	}

	return s
}

// FromSnapshot rebuilds a grid, preserving seqs.
//
// Errors: any New error; ErrCoefficientMismatch when Levels and Indices
// differ in length; point validation errors.
func FromSnapshot(s Snapshot) (*Grid, error) {
	t, err := ParseType(s.Type)
	if err != nil {
		return nil, fmt.Errorf("FromSnapshot: %w", err)
	}
	if s.MaxLevel < 1 || s.MaxLevel > DefaultMaxLevel {
		return nil, fmt.Errorf("FromSnapshot: max level %d: %w", s.MaxLevel, ErrBadLevel)
	}
	if s.MaxInteractionOrder < 0 {
		return nil, fmt.Errorf("FromSnapshot: %w", ErrNotAdmissible)
	}
	opts := []Option{
		WithType(t),
		WithMaxLevel(s.MaxLevel),
		WithMaxInteractionOrder(s.MaxInteractionOrder),
	}
	if len(s.Interactions) > 0 {
		opts = append(opts, WithInteractions(s.Interactions))
	}
	if s.Domain != nil {
		opts = append(opts, WithDomain(s.Domain.Lower, s.Domain.Upper))
	}
	g, err := New(s.Dim, opts...)
	if err != nil {
		return nil, fmt.Errorf("FromSnapshot: %w", err)
	}
	if len(s.Levels) != len(s.Indices) {
		return nil, fmt.Errorf("FromSnapshot: %w", ErrCoefficientMismatch)
	}
	for k := range s.Levels {
		p := Point{Level: s.Levels[k], Index: s.Indices[k]}
		if p.Dim() != g.dim {
			return nil, fmt.Errorf("FromSnapshot: point %d: %w", k, ErrDimensionMismatch)
		}
		if err := p.Validate(t, s.MaxLevel); err != nil {
			return nil, fmt.Errorf("FromSnapshot: point %d: %w", k, err)
		}
		if _, ok := g.storage.Insert(p); !ok {
			return nil, fmt.Errorf("FromSnapshot: duplicate point %s: %w", p.Key(), ErrBadIndex)
		}
	}

	return g, nil
}
