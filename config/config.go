// Package config loads learner specifications from HCL files.
//
// A file holds optional top-level attributes name and workers and one block
// per descriptor:
//
//	name    = "ishigami"
//	workers = 8
//
//	grid {
//	  dim   = var.dim
//	  level = 3
//	  type  = "modlinear"
//	}
//
//	stop_policy {
//	  max_iterations = 5
//	  accuracy       = 1e-4
//	}
//
//	refinement {
//	  points          = 10
//	  criterion       = "anova"
//	  min_total_index = 0.01
//	}
//
// Other blocks are solver and regressor, with the attribute names of the
// hcl tags on the learner descriptors.
//
// The grid block is required. Attributes missing from a block keep their
// defaults from learner.DefaultSpecification. Expressions may reference
// var.<name> and call min, max, abs, pow, log, lower and upper.
package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/katalvlaran/sparsegrid/internal/ctxlog"
	"github.com/katalvlaran/sparsegrid/learner"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

var (
	// ErrInvalid is returned for HCL that does not parse or decode; the
	// message carries the diagnostics.
	ErrInvalid = errors.New("config: invalid specification")

	// ErrMissingGrid is returned when the file has no grid block.
	ErrMissingGrid = errors.New("config: missing grid block")

	// ErrBadVariable is returned for a --var pair without "=" or with an empty name.
	ErrBadVariable = errors.New("config: malformed variable")
)

// Block types.
const (
	blockGrid       = "grid"
	blockSolver     = "solver"
	blockRegressor  = "regressor"
	blockStopPolicy = "stop_policy"
	blockRefinement = "refinement"
)

var fileSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name"},
		{Name: "workers"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: blockGrid},
		{Type: blockSolver},
		{Type: blockRegressor},
		{Type: blockStopPolicy},
		{Type: blockRefinement},
	},
}

// Load reads and decodes the HCL file at path.
//
// Errors: os errors (errors.Is(err, os.ErrNotExist)), ErrInvalid,
// ErrMissingGrid, learner.ErrBadDescriptor.
func Load(ctx context.Context, path string, vars map[string]string) (learner.Specification, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return learner.Specification{}, fmt.Errorf("Load: %w", err)
	}
	spec, err := Parse(ctx, src, path, vars)
	if err != nil {
		return learner.Specification{}, fmt.Errorf("Load %s: %w", path, err)
	}

	return spec, nil
}

// Parse decodes an HCL specification held in memory; filename is used in
// diagnostics only.
func Parse(ctx context.Context, src []byte, filename string, vars map[string]string) (learner.Specification, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("parsing specification", "file", filename, "vars", len(vars))

	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return learner.Specification{}, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
	}
	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return learner.Specification{}, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
	}

	evalCtx := NewEvalContext(vars)
	spec := learner.DefaultSpecification(0)
	if attr, ok := content.Attributes["name"]; ok {
		if diags = gohcl.DecodeExpression(attr.Expr, evalCtx, &spec.Name); diags.HasErrors() {
			return learner.Specification{}, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
		}
	}
	if attr, ok := content.Attributes["workers"]; ok {
		if diags = gohcl.DecodeExpression(attr.Expr, evalCtx, &spec.Workers); diags.HasErrors() {
			return learner.Specification{}, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
		}
	}

	seen := make(map[string]hcl.Range)
	for _, block := range content.Blocks {
		if prev, dup := seen[block.Type]; dup {
			return learner.Specification{}, fmt.Errorf("%w: %s: duplicate %s block (first at %s)", ErrInvalid, block.DefRange, block.Type, prev)
		}
		seen[block.Type] = block.DefRange

		var target any
		switch block.Type {
		case blockGrid:
			target = &spec.Grid
		case blockSolver:
			target = &spec.Solver
		case blockRegressor:
			target = &spec.Regressor
		case blockStopPolicy:
			target = &spec.StopPolicy
		case blockRefinement:
			target = &spec.Refinement
		}
		// Pre-filled targets keep defaults for absent attributes.
		if diags = gohcl.DecodeBody(block.Body, evalCtx, target); diags.HasErrors() {
			return learner.Specification{}, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
		}
	}
	if _, ok := seen[blockGrid]; !ok {
		return learner.Specification{}, ErrMissingGrid
	}
	if err := spec.Validate(); err != nil {
		return learner.Specification{}, err
	}
	logger.Debug("specification loaded", "name", spec.Name, "dim", spec.Grid.Dim, "blocks", len(seen))

	return spec, nil
}

// NewEvalContext exposes vars as var.<name> together with a few numeric and
// string functions. Values that parse as numbers or booleans are typed
// accordingly; everything else is a string.
func NewEvalContext(vars map[string]string) *hcl.EvalContext {
	values := make(map[string]cty.Value, len(vars))
	for name, raw := range vars {
		values[name] = typedValue(raw)
	}
	varObj := cty.EmptyObjectVal
	if len(values) > 0 {
		varObj = cty.ObjectVal(values)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": varObj},
		Functions: map[string]function.Function{
			"min":   stdlib.MinFunc,
			"max":   stdlib.MaxFunc,
			"abs":   stdlib.AbsoluteFunc,
			"pow":   stdlib.PowFunc,
			"log":   stdlib.LogFunc,
			"lower": stdlib.LowerFunc,
			"upper": stdlib.UpperFunc,
		},
	}
}

func typedValue(raw string) cty.Value {
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return cty.NumberFloatVal(f)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return cty.BoolVal(b)
	}

	return cty.StringVal(raw)
}

// ParseVars turns "name=value" pairs into a map. Later pairs win.
//
// Errors: ErrBadVariable.
func ParseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%q: %w", p, ErrBadVariable)
		}
		vars[name] = value
	}

	return vars, nil
}
