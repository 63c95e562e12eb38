package core

import (
	"context"

	"catalogcore/pkg/domain"
)

// MaterialCompatibilityRule is a declared extension point for checking that
// materials consumed by connected components are compatible. Evaluation is
// not implemented; registering the rule makes every commit fail loudly
// rather than letting the check pass silently. It is not part of the default
// engine.
func MaterialCompatibilityRule() domain.Rule {
	return materialCompatibilityRule{}
}

type materialCompatibilityRule struct{}

func (materialCompatibilityRule) Name() string { return "material_compatibility" }

func (materialCompatibilityRule) Evaluate(context.Context, TransactionView, []Change) (Result, error) {
	return Result{}, domain.ErrNotImplemented
}
