package anova

// Default decomposition settings.
const (
	// DefaultMaxOrder caps the interaction order when no WithMaxOrder is
	// given; the effective default is min(dim, DefaultMaxOrder).
	DefaultMaxOrder = 6

	// DefaultThreshold keeps every component in Ranked.
	DefaultThreshold = 0.0

	// DefaultPoints is the number of Gauss–Legendre nodes per dimension
	// used by HDMRAnalytic.
	DefaultPoints = 12

	// DefaultMaxEvaluations bounds the tensor quadrature of HDMRAnalytic.
	DefaultMaxEvaluations = 1 << 21
)

// Options configures HDMR and HDMRAnalytic.
type Options struct {
	// MaxOrder is the largest interaction order decomposed; 0 selects
	// min(dim, DefaultMaxOrder).
	MaxOrder int
	// Threshold hides components whose variance is below it from Ranked.
	Threshold float64
	// Points is the number of quadrature nodes per dimension (HDMRAnalytic).
	Points int
	// MaxEvaluations bounds Points^dim (HDMRAnalytic).
	MaxEvaluations int
}

// Option represents a functional option for configuring a decomposition.
type Option func(*Options)

// WithMaxOrder sets the largest interaction order. Panics if k < 1.
func WithMaxOrder(k int) Option {
	return func(o *Options) {
		if k < 1 {
			panic(ErrBadOrder.Error())
		}
		o.MaxOrder = k
	}
}

// WithThreshold sets the Ranked cut-off. Panics on a negative value.
func WithThreshold(th float64) Option {
	return func(o *Options) {
		if th < 0 {
			panic("anova: threshold must be ≥ 0")
		}
		o.Threshold = th
	}
}

// WithPoints sets the Gauss–Legendre nodes per dimension. Panics if n < 1.
func WithPoints(n int) Option {
	return func(o *Options) {
		if n < 1 {
			panic("anova: points must be ≥ 1")
		}
		o.Points = n
	}
}

// WithMaxEvaluations sets the quadrature budget. Panics if n < 1.
func WithMaxEvaluations(n int) Option {
	return func(o *Options) {
		if n < 1 {
			panic("anova: max evaluations must be ≥ 1")
		}
		o.MaxEvaluations = n
	}
}

// DefaultOptions returns the Options used when no option is given.
func DefaultOptions() Options {
	return Options{
		Threshold:      DefaultThreshold,
		Points:         DefaultPoints,
		MaxEvaluations: DefaultMaxEvaluations,
	}
}

func buildOptions(dim int, opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxOrder == 0 {
		o.MaxOrder = min(dim, DefaultMaxOrder)
	}
	o.MaxOrder = min(o.MaxOrder, dim)

	return o
}
