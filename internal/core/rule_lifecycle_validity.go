package core

import (
	"context"
	"fmt"

	"catalogcore/pkg/domain"
)

// LifecycleValidityRule blocks commits carrying stateful entities whose
// status is outside the lifecycle enum.
func LifecycleValidityRule() domain.Rule {
	return lifecycleValidityRule{}
}

type lifecycleValidityRule struct{}

func (lifecycleValidityRule) Name() string { return "lifecycle_validity" }

func (r lifecycleValidityRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	var result Result
	for _, instance := range view.ListInstances() {
		if !instance.Status.Valid() {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityInstance, instance.ID,
				fmt.Sprintf("instance %s has invalid status %q", instance.ID, instance.Status)))
		}
	}
	for _, conn := range view.ListConnections() {
		if !conn.Status.Valid() {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityConnection, conn.ID,
				fmt.Sprintf("connection %s has invalid status %q", conn.ID, conn.Status)))
		}
	}
	for _, value := range view.ListParameterValues() {
		switch value.ValidationStatus {
		case domain.ValidationPending, domain.ValidationValid, domain.ValidationInvalid:
		default:
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityParameterValue, value.ID,
				fmt.Sprintf("value %s has invalid validation status %q", value.ID, value.ValidationStatus)))
		}
	}
	return result, nil
}
