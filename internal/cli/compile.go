package cli

import (
	"fmt"

	"github.com/mkrawiec/fieldgraph/config"
	"github.com/mkrawiec/fieldgraph/pipeline"
	"github.com/mkrawiec/fieldgraph/plan"
)

// Names accepted by the --policy flag.
const (
	policyLegacy  = "legacy"
	policyFormula = "formula"
)

func parsePolicy(name string) (plan.Policy, error) {
	switch name {
	case policyLegacy:
		return plan.LegacyPolicy{}, nil
	case policyFormula:
		return plan.FormulaPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown shape policy %q (want %s or %s)", name, policyLegacy, policyFormula)
	}
}

// compile loads the pipeline definition at path and compiles it with the
// given shape policy. The specs are returned alongside the plan so that
// callers can re-trace shapes with the same providers.
func (c *CLI) compile(path string, pol plan.Policy) ([]pipeline.Spec, *pipeline.Plan, error) {
	prog := newProgress(c.Logger)

	c.Logger.Debug("Loading pipeline definition", "path", path)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	specs, err := cfg.Specs()
	if err != nil {
		return nil, nil, err
	}

	compiler := pipeline.Compiler{Policy: pol}
	p, err := compiler.Compile(specs)
	if err != nil {
		return nil, nil, err
	}

	prog.done(fmt.Sprintf("Compiled %d fields into %d graph nodes", len(p.Fields), p.Graph.Len()))
	return specs, p, nil
}
