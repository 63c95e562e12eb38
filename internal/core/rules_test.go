package core

import (
	"context"
	"errors"
	"testing"

	"catalogcore/pkg/domain"
)

// fixtureView is a static RuleView over literal slices.
type fixtureView struct {
	components  []Component
	parameters  []Parameter
	instances   []ComponentInstance
	connections []Connection
	values      []ParameterValue
	materials   []MaterialRequirement
	docs        []Documentation
}

func (v fixtureView) ListComponents() []Component                     { return v.components }
func (v fixtureView) ListParameters() []Parameter                     { return v.parameters }
func (v fixtureView) ListInstances() []ComponentInstance              { return v.instances }
func (v fixtureView) ListConnections() []Connection                   { return v.connections }
func (v fixtureView) ListParameterValues() []ParameterValue           { return v.values }
func (v fixtureView) ListMaterialRequirements() []MaterialRequirement { return v.materials }
func (v fixtureView) ListDocumentation() []Documentation              { return v.docs }

func (v fixtureView) FindComponent(id string) (Component, bool) {
	for _, c := range v.components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

func (v fixtureView) FindParameter(id string) (Parameter, bool) {
	for _, p := range v.parameters {
		if p.ID == id {
			return p, true
		}
	}
	return Parameter{}, false
}

func (v fixtureView) FindInstance(id string) (ComponentInstance, bool) {
	for _, i := range v.instances {
		if i.ID == id {
			return i, true
		}
	}
	return ComponentInstance{}, false
}

func (v fixtureView) FindConnection(id string) (Connection, bool) {
	for _, c := range v.connections {
		if c.ID == id {
			return c, true
		}
	}
	return Connection{}, false
}

func (v fixtureView) FindParameterValue(id string) (ParameterValue, bool) {
	for _, pv := range v.values {
		if pv.ID == id {
			return pv, true
		}
	}
	return ParameterValue{}, false
}

func plannedInstance(id string, internalID int64) ComponentInstance {
	inst := ComponentInstance{InternalID: internalID}
	inst.ID = id
	inst.Status = domain.StatusPlanned
	return inst
}

func TestConnectionIntegrityRule(t *testing.T) {
	rule := ConnectionIntegrityRule()
	missingParent := "ghost"

	conns := []Connection{
		{Instance1ID: "a", Instance2ID: "a"},
		{Instance1ID: "z", Instance2ID: "b"},
		{Instance1ID: "a", Instance2ID: "missing"},
		{Instance1ID: "a", Instance2ID: "b", ParentConnectionID: &missingParent},
	}
	ids := []string{"c1", "c2", "c3", "c4"}
	for i := range conns {
		conns[i].ID = ids[i]
		conns[i].Status = domain.StatusPlanned
	}
	view := fixtureView{
		instances:   []ComponentInstance{plannedInstance("a", 1), plannedInstance("b", 2), plannedInstance("z", 3)},
		connections: conns,
	}

	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking violations")
	}
	messages := map[string]bool{}
	for _, v := range res.Violations {
		messages[v.EntityID] = true
		if v.Rule != "connection_integrity" {
			t.Fatalf("unexpected rule name %s", v.Rule)
		}
	}
	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		if !messages[id] {
			t.Fatalf("expected violation for %s, got %+v", id, res.Violations)
		}
	}

	clean := fixtureView{
		instances:   view.instances,
		connections: []Connection{{Base: domain.Base{ID: "ok"}, Instance1ID: "a", Instance2ID: "b", Lifecycle: domain.Lifecycle{Status: domain.StatusPlanned}}},
	}
	res, err = rule.Evaluate(context.Background(), clean, nil)
	if err != nil || len(res.Violations) != 0 {
		t.Fatalf("expected clean result, got %+v %v", res, err)
	}
}

func TestConnectionIntegrityRuleDuplicatePairs(t *testing.T) {
	rule := ConnectionIntegrityRule()
	view := fixtureView{
		instances: []ComponentInstance{plannedInstance("a", 1), plannedInstance("b", 2)},
		connections: []Connection{
			{Base: domain.Base{ID: "c1"}, Instance1ID: "a", Instance2ID: "b", Lifecycle: domain.Lifecycle{Status: domain.StatusPlanned}},
			{Base: domain.Base{ID: "c2"}, Instance1ID: "a", Instance2ID: "b", Lifecycle: domain.Lifecycle{Status: domain.StatusPlanned}},
		},
	}
	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected duplicate pair violation")
	}
}

func TestUniquenessRule(t *testing.T) {
	rule := UniquenessRule()
	mkComponent := func(id, classification, version string) Component {
		c := Component{Classification: classification, Version: version}
		c.ID = id
		return c
	}
	mkParameter := func(id, componentID, name string) Parameter {
		p := Parameter{ComponentID: componentID, Name: name}
		p.ID = id
		return p
	}
	mkValue := func(id, instanceID, parameterID string) ParameterValue {
		v := ParameterValue{InstanceID: instanceID, ParameterID: parameterID, ValidationStatus: domain.ValidationPending}
		v.ID = id
		return v
	}

	view := fixtureView{
		components: []Component{
			mkComponent("k1", "ET_AUD_PROC_AMP_001", "1.0.0"),
			mkComponent("k2", "ET_AUD_PROC_AMP_001", "1.0.0"),
		},
		parameters: []Parameter{
			mkParameter("p1", "k1", "gain"),
			mkParameter("p2", "k1", "gain"),
		},
		instances: []ComponentInstance{
			plannedInstance("i1", 7),
			plannedInstance("i2", 7),
		},
		values: []ParameterValue{
			mkValue("v1", "i1", "p1"),
			mkValue("v2", "i1", "p1"),
		},
	}

	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 4 {
		t.Fatalf("expected 4 violations, got %+v", res.Violations)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
}

func TestLifecycleValidityRule(t *testing.T) {
	rule := LifecycleValidityRule()
	bad := plannedInstance("i1", 1)
	bad.Status = domain.Status("scrapped")
	badValue := ParameterValue{InstanceID: "i1", ParameterID: "p1", ValidationStatus: domain.ValidationStatus("maybe")}
	badValue.ID = "v1"
	view := fixtureView{
		instances: []ComponentInstance{bad},
		values:    []ParameterValue{badValue},
	}
	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", res.Violations)
	}
}

func TestReferentialIntegrityRule(t *testing.T) {
	rule := ReferentialIntegrityRule()

	component := Component{Classification: "ET_AUD_PROC_AMP_001", Version: "1.0.0"}
	component.ID = "comp"
	okInstance := plannedInstance("i-ok", 1)
	okInstance.ComponentID = "comp"
	ghostInstance := plannedInstance("i-ghost", 2)
	ghostInstance.ComponentID = "ghost"
	okParameter := Parameter{ComponentID: "comp", Name: "gain"}
	okParameter.ID = "p-ok"
	ghostParameter := Parameter{ComponentID: "ghost", Name: "lost"}
	ghostParameter.ID = "p-ghost"
	okValue := ParameterValue{InstanceID: "i-ok", ParameterID: "p-ok"}
	okValue.ID = "v-ok"
	ghostValue := ParameterValue{InstanceID: "missing", ParameterID: "missing"}
	ghostValue.ID = "v-ghost"
	ghostMaterial := MaterialRequirement{ComponentID: "ghost", MaterialCode: "AL-6061"}
	ghostMaterial.ID = "m-ghost"
	ghostDoc := Documentation{ComponentID: "ghost", Title: "lost manual"}
	ghostDoc.ID = "d-ghost"

	view := fixtureView{
		components: []Component{component},
		instances:  []ComponentInstance{okInstance, ghostInstance},
		parameters: []Parameter{okParameter, ghostParameter},
		values:     []ParameterValue{okValue, ghostValue},
		materials:  []MaterialRequirement{ghostMaterial},
		docs:       []Documentation{ghostDoc},
	}

	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 6 {
		t.Fatalf("expected 6 violations, got %+v", res.Violations)
	}
	flagged := map[string]int{}
	for _, v := range res.Violations {
		if v.Rule != "referential_integrity" {
			t.Fatalf("unexpected rule name %s", v.Rule)
		}
		flagged[v.EntityID]++
	}
	if flagged["i-ok"] != 0 || flagged["p-ok"] != 0 || flagged["v-ok"] != 0 {
		t.Fatalf("well-formed records must not be flagged: %+v", res.Violations)
	}
	for id, want := range map[string]int{"i-ghost": 1, "p-ghost": 1, "v-ghost": 2, "m-ghost": 1, "d-ghost": 1} {
		if flagged[id] != want {
			t.Fatalf("expected %d violation(s) for %s, got %+v", want, id, res.Violations)
		}
	}
}

func TestMaterialCompatibilityRuleFailsLoudly(t *testing.T) {
	rule := MaterialCompatibilityRule()
	if _, err := rule.Evaluate(context.Background(), fixtureView{}, nil); !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("expected not implemented, got %v", err)
	}

	engine := NewDefaultRulesEngine()
	engine.Register(rule)
	store := NewInMemoryService(engine).Store()
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateComponent(testComponent("ET_AUD_PROC_AMP_001", "1.0.0"))
		return err
	})
	if !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("expected commits to fail once registered, got %v", err)
	}
}

func TestDefaultEngineBlocksHandCraftedCorruption(t *testing.T) {
	store := NewInMemoryService(NewDefaultRulesEngine()).Store()
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		component, err := tx.CreateComponent(testComponent("ET_AUD_PROC_AMP_001", "1.0.0"))
		if err != nil {
			return err
		}
		inst := ComponentInstance{ComponentID: component.ID, SpatialData: alignedGeometry()}
		inst.Status = domain.Status("scrapped")
		_, err = tx.CreateInstance(inst)
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if len(store.ListComponents()) != 0 {
		t.Fatalf("blocked transaction must not persist")
	}
}
