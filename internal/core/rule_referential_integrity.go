package core

import (
	"context"
	"fmt"

	"catalogcore/pkg/domain"
)

// ReferentialIntegrityRule blocks commits that leave a record pointing at a
// missing owner: instances and parameters reference an existing component,
// values reference an existing instance and parameter, and material
// requirements and documentation reference an existing component.
// Connection endpoints are covered by ConnectionIntegrityRule.
func ReferentialIntegrityRule() domain.Rule {
	return referentialIntegrityRule{}
}

type referentialIntegrityRule struct{}

func (referentialIntegrityRule) Name() string { return "referential_integrity" }

func (r referentialIntegrityRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	var result Result

	missingComponent := func(entity domain.EntityType, id, componentID string) {
		result.Violations = append(result.Violations, blockViolation(r.Name(), entity, id,
			fmt.Sprintf("%s %s references missing component %s", entity, id, componentID)))
	}

	for _, instance := range view.ListInstances() {
		if _, ok := view.FindComponent(instance.ComponentID); !ok {
			missingComponent(domain.EntityInstance, instance.ID, instance.ComponentID)
		}
	}

	for _, parameter := range view.ListParameters() {
		if _, ok := view.FindComponent(parameter.ComponentID); !ok {
			missingComponent(domain.EntityParameter, parameter.ID, parameter.ComponentID)
		}
	}

	for _, value := range view.ListParameterValues() {
		if _, ok := view.FindInstance(value.InstanceID); !ok {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityParameterValue, value.ID,
				fmt.Sprintf("value %s references missing instance %s", value.ID, value.InstanceID)))
		}
		if _, ok := view.FindParameter(value.ParameterID); !ok {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityParameterValue, value.ID,
				fmt.Sprintf("value %s references missing parameter %s", value.ID, value.ParameterID)))
		}
	}

	for _, requirement := range view.ListMaterialRequirements() {
		if _, ok := view.FindComponent(requirement.ComponentID); !ok {
			missingComponent(domain.EntityMaterialRequirement, requirement.ID, requirement.ComponentID)
		}
	}

	for _, doc := range view.ListDocumentation() {
		if _, ok := view.FindComponent(doc.ComponentID); !ok {
			missingComponent(domain.EntityDocumentation, doc.ID, doc.ComponentID)
		}
	}

	return result, nil
}
