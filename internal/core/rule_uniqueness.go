package core

import (
	"context"
	"fmt"
	"strconv"

	"catalogcore/pkg/domain"
)

// UniquenessRule blocks commits violating the catalog's composite unique
// keys: component (classification, version), parameter (component, name),
// value (instance, parameter), and the shared instance internal sequence.
func UniquenessRule() domain.Rule {
	return uniquenessRule{}
}

type uniquenessRule struct{}

func (uniquenessRule) Name() string { return "catalog_uniqueness" }

func (r uniquenessRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	var result Result

	componentKeys := map[string]string{}
	for _, component := range view.ListComponents() {
		key := component.Classification + "@" + component.Version
		if prior, ok := componentKeys[key]; ok {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityComponent, component.ID,
				fmt.Sprintf("components %s and %s share identity %s", prior, component.ID, key)))
			continue
		}
		componentKeys[key] = component.ID
	}

	parameterKeys := map[string]string{}
	for _, parameter := range view.ListParameters() {
		key := parameter.ComponentID + "/" + parameter.Name
		if prior, ok := parameterKeys[key]; ok {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityParameter, parameter.ID,
				fmt.Sprintf("parameters %s and %s share name %q on component %s", prior, parameter.ID, parameter.Name, parameter.ComponentID)))
			continue
		}
		parameterKeys[key] = parameter.ID
	}

	internalIDs := map[int64]string{}
	for _, instance := range view.ListInstances() {
		if prior, ok := internalIDs[instance.InternalID]; ok {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityInstance, instance.ID,
				fmt.Sprintf("instances %s and %s share internal id %s", prior, instance.ID, strconv.FormatInt(instance.InternalID, 10))))
			continue
		}
		internalIDs[instance.InternalID] = instance.ID
	}

	valueKeys := map[string]string{}
	for _, value := range view.ListParameterValues() {
		key := value.InstanceID + "/" + value.ParameterID
		if prior, ok := valueKeys[key]; ok {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityParameterValue, value.ID,
				fmt.Sprintf("values %s and %s duplicate parameter %s on instance %s", prior, value.ID, value.ParameterID, value.InstanceID)))
			continue
		}
		valueKeys[key] = value.ID
	}

	return result, nil
}
