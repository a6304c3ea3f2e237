package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/katalvlaran/sparsegrid/anova"
	"github.com/katalvlaran/sparsegrid/config"
	"github.com/katalvlaran/sparsegrid/dataset"
	"github.com/katalvlaran/sparsegrid/grid"
	"github.com/katalvlaran/sparsegrid/internal/ctxlog"
	"github.com/katalvlaran/sparsegrid/learner"
	"github.com/katalvlaran/sparsegrid/store"
	"github.com/katalvlaran/sparsegrid/testfn"
	"github.com/spf13/cobra"
)

var (
	errNoSource      = errors.New("one of --function or --data is required")
	errDensityNoData = errors.New("--density needs --data")
)

type learnParams struct {
	configPath string
	vars       []string
	function   string
	dim        int
	dataPath   string
	testPath   string
	anova      bool
	density    bool
	iterations int
	top        int
	storePath  string
	name       string
}

// model is the part of the learner API the command drives.
type model interface {
	Learn(ctx context.Context) (learner.StopReason, error)
	Subscribe(fn learner.Listener) (cancel func())
	Snapshot() (learner.Snapshot, error)
	Decomposition() *anova.Decomposition
	Grid() *grid.Grid
	Alpha() []float64
}

func newLearnCmd() *cobra.Command {
	var p learnParams
	learnCmd := &cobra.Command{
		Use:   "learn",
		Short: "Learn a sparse-grid model of a test function or a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return learn(cmd.Context(), cmd.OutOrStdout(), p)
		},
	}
	learnCmd.Flags().StringVar(&p.configPath, "config", "", "HCL specification file")
	learnCmd.Flags().StringArrayVar(&p.vars, "var", nil, "Specification variable key=value (repeatable)")
	learnCmd.Flags().StringVar(&p.function, "function", "", "Test function: ishigami, sobolg, g11, additive")
	learnCmd.Flags().IntVar(&p.dim, "dim", 0, "Dimension for test functions that accept one")
	learnCmd.Flags().StringVar(&p.dataPath, "data", "", "Training data (.csv or .json)")
	learnCmd.Flags().StringVar(&p.testPath, "test", "", "Test data for the error estimate")
	learnCmd.Flags().BoolVar(&p.anova, "anova", false, "Use ANOVA-guided refinement")
	learnCmd.Flags().BoolVar(&p.density, "density", false, "Estimate the density of the --data samples; targets are ignored")
	learnCmd.Flags().IntVar(&p.iterations, "iterations", 0, "Override the stop policy's iteration limit")
	learnCmd.Flags().IntVar(&p.top, "top", 10, "Number of ranked ANOVA components to print (0 = all)")
	learnCmd.Flags().StringVar(&p.storePath, "store", "", "Model store to save the result in")
	learnCmd.Flags().StringVar(&p.name, "name", "", "Name of the stored model")
	learnCmd.MarkFlagsMutuallyExclusive("function", "data")
	learnCmd.MarkFlagsMutuallyExclusive("anova", "data")
	learnCmd.MarkFlagsMutuallyExclusive("density", "function")

	return learnCmd
}

func learn(ctx context.Context, out io.Writer, p learnParams) error {
	log := ctxlog.FromContext(ctx)
	if p.function == "" && p.dataPath == "" {
		return errNoSource
	}
	if p.density && p.dataPath == "" {
		return errDensityNoData
	}

	var fn testfn.Function
	var train, test *dataset.Dataset
	var dim int
	var err error
	if p.function != "" {
		if fn, err = testfn.ByName(p.function, p.dim); err != nil {
			return err
		}
		dim = fn.Dim
	} else {
		if train, err = dataset.ReadFile(p.dataPath); err != nil {
			return err
		}
		if p.testPath != "" {
			if test, err = dataset.ReadFile(p.testPath); err != nil {
				return err
			}
		}
		dim = train.Dim()
	}

	spec, err := loadSpec(ctx, p, dim)
	if err != nil {
		return err
	}
	if spec.Grid.Dim != dim {
		return fmt.Errorf("specification dim %d, problem dim %d: %w", spec.Grid.Dim, dim, learner.ErrDimensionMismatch)
	}
	if p.name != "" {
		spec.Name = p.name
	}

	var m model
	switch {
	case p.density:
		if m, err = learner.NewDensityEstimator(train.Samples, spec); err != nil {
			return err
		}
	case train != nil:
		rg, err := learner.NewRegressor(train, test, spec)
		if err != nil {
			return err
		}
		if spec.Regressor.Folds >= 2 && len(spec.Regressor.Lambdas) > 0 {
			if _, err := rg.SelectLambda(ctx); err != nil {
				return err
			}
		}
		m = rg
	case p.anova:
		if m, err = learner.NewANOVAInterpolant(fn.F, spec); err != nil {
			return err
		}
	default:
		if m, err = learner.NewInterpolant(fn.F, spec); err != nil {
			return err
		}
	}

	cancel := m.Subscribe(func(e learner.Event) {
		if e.Kind == learner.LearningStepComplete {
			fmt.Fprintf(out, "step=%d points=%d added=%d error=%.6g\n", e.Iteration, e.GridSize, e.Added, e.Error)
		}
	})
	defer cancel()

	reason, err := m.Learn(ctx)
	if err != nil {
		return err
	}
	g := m.Grid()
	fmt.Fprintf(out, "stop=%s points=%d\n", reason, g.Len())

	dec := m.Decomposition()
	if dec == nil {
		if dec, err = anova.HDMR(ctx, g, m.Alpha()); err != nil {
			return err
		}
	}
	printDecomposition(out, dec, p.top, fn.Ref.Total)

	if p.storePath == "" {
		return nil
	}
	snap, err := m.Snapshot()
	if err != nil {
		return err
	}
	st, err := store.Open(p.storePath)
	if err != nil {
		return err
	}
	defer st.Close()
	id, err := st.PutSnapshot(spec.Name, snap)
	if err != nil {
		return err
	}
	log.Info("model stored", slog.String("id", id), slog.String("store", st.Path()))
	fmt.Fprintf(out, "stored id=%s\n", id)

	return nil
}

// loadSpec reads the configuration file, or builds the default
// specification for dim, and applies command-line overrides.
func loadSpec(ctx context.Context, p learnParams, dim int) (learner.Specification, error) {
	var spec learner.Specification
	var err error
	if p.configPath != "" {
		vars, err := config.ParseVars(p.vars)
		if err != nil {
			return spec, err
		}
		if spec, err = config.Load(ctx, p.configPath, vars); err != nil {
			return spec, err
		}
	} else if spec, err = learner.NewSpecification(dim); err != nil {
		return spec, err
	}
	if p.iterations > 0 {
		spec.StopPolicy.MaxIterations = p.iterations
	}

	return spec, nil
}
