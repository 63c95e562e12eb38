// Command catalog-check validates a JSON catalog export against the
// structural validators and the consistency rules engine, reporting every
// violation it finds.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"catalogcore/internal/core"
	"catalogcore/internal/infra/persistence/memory"
	"catalogcore/pkg/domain"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("catalog-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var catalogPath string
	var strict bool
	fs.StringVar(&catalogPath, "catalog", "catalog.json", "path to catalog export json")
	fs.BoolVar(&strict, "strict", false, "treat warnings as failures")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	violations, err := run(catalogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Catalog validation failed: %v\n", err)
		return 1
	}
	for _, v := range violations {
		fmt.Fprintln(stdout, formatViolation(v))
	}
	if hasFailure(violations, strict) {
		fmt.Fprintf(stderr, "Catalog validation failed: %d violation(s)\n", len(violations))
		return 1
	}
	fmt.Fprintln(stdout, "Catalog validation passed.")
	return 0
}

// run loads the catalog export at the given path, imports it into an
// in-memory store, and returns the combined structural and rule violations.
func run(catalogPath string) (violations []domain.Violation, err error) {
	if strings.TrimSpace(catalogPath) == "" {
		return nil, errors.New("empty catalog path")
	}
	file, err := os.Open(catalogPath) // #nosec G304: operator-supplied export path
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close catalog: %w", cerr)
		}
	}()

	var snapshot memory.Snapshot
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	violations = structuralViolations(snapshot)

	// Rules run over the raw export rather than an imported store, so that
	// records the store's snapshot migration would repair or drop still get
	// reported.
	engine := core.NewDefaultRulesEngine()
	result, err := engine.Evaluate(context.Background(), snapshotView{s: snapshot}, nil)
	if err != nil {
		return nil, fmt.Errorf("evaluate rules: %w", err)
	}
	violations = append(violations, result.Violations...)

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Rule != violations[j].Rule {
			return violations[i].Rule < violations[j].Rule
		}
		return violations[i].EntityID < violations[j].EntityID
	})
	return violations, nil
}

const structuralRuleName = "structural_validity"

// structuralViolations re-runs the per-entity validators over a snapshot so
// that exports produced by other tooling get the same treatment as records
// written through the service.
func structuralViolations(snapshot memory.Snapshot) []domain.Violation {
	var out []domain.Violation

	report := func(entity domain.EntityType, id string, err error) {
		if err == nil {
			return
		}
		out = append(out, domain.Violation{
			Rule:     structuralRuleName,
			Severity: domain.SeverityBlock,
			Message:  err.Error(),
			Entity:   entity,
			EntityID: id,
		})
	}

	for _, id := range sortedKeys(snapshot.Components) {
		component := snapshot.Components[id]
		report(domain.EntityComponent, id, domain.ValidateClassification(component.Classification))
		report(domain.EntityComponent, id, domain.ValidateVersion(component.Version))
		for _, key := range domain.RequiredFunctionalProperties {
			if _, ok := component.FunctionalProperties[key]; !ok {
				report(domain.EntityComponent, id, fmt.Errorf("functional_properties missing %q", key))
			}
		}
		if err := component.BaseGeometry.Validate3D("base_geometry"); err != nil {
			report(domain.EntityComponent, id, err)
		} else {
			report(domain.EntityComponent, id, component.BaseGeometry.ValidateGridAlignment("base_geometry"))
		}
	}

	for _, id := range sortedKeys(snapshot.Parameters) {
		report(domain.EntityParameter, id, snapshot.Parameters[id].ValidateDefinition())
	}

	for _, id := range sortedKeys(snapshot.Instances) {
		instance := snapshot.Instances[id]
		if err := instance.SpatialData.Validate3D("spatial_data"); err != nil {
			report(domain.EntityInstance, id, err)
		} else {
			report(domain.EntityInstance, id, instance.SpatialData.ValidateGridAlignment("spatial_data"))
		}
	}

	for _, id := range sortedKeys(snapshot.Connections) {
		connection := snapshot.Connections[id]
		report(domain.EntityConnection, id, connection.ValidateProperties())
		report(domain.EntityConnection, id, domain.ValidateEMIShielding(connection.Properties))
		if err := connection.SpatialRelationship.Validate3D("spatial_relationship"); err != nil {
			report(domain.EntityConnection, id, err)
		} else {
			report(domain.EntityConnection, id, connection.SpatialRelationship.ValidateGridAlignment("spatial_relationship"))
		}
	}

	for _, id := range sortedKeys(snapshot.Values) {
		value := snapshot.Values[id]
		parameter, ok := findParameterSnapshot(snapshot, value.ParameterID)
		if !ok {
			report(domain.EntityParameterValue, id, fmt.Errorf("parameter %s not found", value.ParameterID))
			continue
		}
		report(domain.EntityParameterValue, id, parameter.ValidateValue(value.Value.Value))
		report(domain.EntityParameterValue, id, parameter.ValidateUnit(value.Value.Unit))
	}

	return out
}

func findParameterSnapshot(snapshot memory.Snapshot, id string) (domain.Parameter, bool) {
	parameter, ok := snapshot.Parameters[id]
	return parameter, ok
}

// snapshotView adapts a raw catalog export to the rule evaluation contract.
type snapshotView struct {
	s memory.Snapshot
}

func (v snapshotView) ListComponents() []domain.Component {
	out := make([]domain.Component, 0, len(v.s.Components))
	for _, id := range sortedKeys(v.s.Components) {
		out = append(out, v.s.Components[id])
	}
	return out
}

func (v snapshotView) ListParameters() []domain.Parameter {
	out := make([]domain.Parameter, 0, len(v.s.Parameters))
	for _, id := range sortedKeys(v.s.Parameters) {
		out = append(out, v.s.Parameters[id])
	}
	return out
}

func (v snapshotView) ListInstances() []domain.ComponentInstance {
	out := make([]domain.ComponentInstance, 0, len(v.s.Instances))
	for _, id := range sortedKeys(v.s.Instances) {
		out = append(out, v.s.Instances[id])
	}
	return out
}

func (v snapshotView) ListConnections() []domain.Connection {
	out := make([]domain.Connection, 0, len(v.s.Connections))
	for _, id := range sortedKeys(v.s.Connections) {
		out = append(out, v.s.Connections[id])
	}
	return out
}

func (v snapshotView) ListParameterValues() []domain.ParameterValue {
	out := make([]domain.ParameterValue, 0, len(v.s.Values))
	for _, id := range sortedKeys(v.s.Values) {
		out = append(out, v.s.Values[id])
	}
	return out
}

func (v snapshotView) ListMaterialRequirements() []domain.MaterialRequirement {
	out := make([]domain.MaterialRequirement, 0, len(v.s.Materials))
	for _, id := range sortedKeys(v.s.Materials) {
		out = append(out, v.s.Materials[id])
	}
	return out
}

func (v snapshotView) ListDocumentation() []domain.Documentation {
	out := make([]domain.Documentation, 0, len(v.s.Docs))
	for _, id := range sortedKeys(v.s.Docs) {
		out = append(out, v.s.Docs[id])
	}
	return out
}

func (v snapshotView) FindComponent(id string) (domain.Component, bool) {
	c, ok := v.s.Components[id]
	return c, ok
}

func (v snapshotView) FindParameter(id string) (domain.Parameter, bool) {
	p, ok := v.s.Parameters[id]
	return p, ok
}

func (v snapshotView) FindInstance(id string) (domain.ComponentInstance, bool) {
	i, ok := v.s.Instances[id]
	return i, ok
}

func (v snapshotView) FindConnection(id string) (domain.Connection, bool) {
	c, ok := v.s.Connections[id]
	return c, ok
}

func (v snapshotView) FindParameterValue(id string) (domain.ParameterValue, bool) {
	pv, ok := v.s.Values[id]
	return pv, ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatViolation(v domain.Violation) string {
	return fmt.Sprintf("%s\t%s\t%s/%s\t%s", v.Severity, v.Rule, v.Entity, v.EntityID, v.Message)
}

func hasFailure(violations []domain.Violation, strict bool) bool {
	for _, v := range violations {
		if v.Severity == domain.SeverityBlock {
			return true
		}
		if strict && v.Severity == domain.SeverityWarn {
			return true
		}
	}
	return false
}
