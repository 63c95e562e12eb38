// Package memory provides an in-memory implementation of the catalog
// persistence store used for tests and ephemeral environments.
package memory

import (
	"catalogcore/pkg/domain"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Component aliases domain.Component for in-memory persistence operations.
	Component = domain.Component
	// Parameter aliases domain.Parameter.
	Parameter = domain.Parameter
	// ComponentInstance aliases domain.ComponentInstance.
	ComponentInstance = domain.ComponentInstance
	// Connection aliases domain.Connection.
	Connection = domain.Connection
	// ParameterValue aliases domain.ParameterValue.
	ParameterValue = domain.ParameterValue
	// MaterialRequirement aliases domain.MaterialRequirement.
	MaterialRequirement = domain.MaterialRequirement
	// Documentation aliases domain.Documentation.
	Documentation = domain.Documentation
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	components  map[string]Component
	parameters  map[string]Parameter
	instances   map[string]ComponentInstance
	connections map[string]Connection
	values      map[string]ParameterValue
	materials   map[string]MaterialRequirement
	docs        map[string]Documentation
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Components  map[string]Component           `json:"components"`
	Parameters  map[string]Parameter           `json:"parameters"`
	Instances   map[string]ComponentInstance   `json:"instances"`
	Connections map[string]Connection          `json:"connections"`
	Values      map[string]ParameterValue      `json:"values"`
	Materials   map[string]MaterialRequirement `json:"materials"`
	Docs        map[string]Documentation       `json:"docs"`
}

func newMemoryState() memoryState {
	return memoryState{
		components:  make(map[string]Component),
		parameters:  make(map[string]Parameter),
		instances:   make(map[string]ComponentInstance),
		connections: make(map[string]Connection),
		values:      make(map[string]ParameterValue),
		materials:   make(map[string]MaterialRequirement),
		docs:        make(map[string]Documentation),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Components:  make(map[string]Component, len(state.components)),
		Parameters:  make(map[string]Parameter, len(state.parameters)),
		Instances:   make(map[string]ComponentInstance, len(state.instances)),
		Connections: make(map[string]Connection, len(state.connections)),
		Values:      make(map[string]ParameterValue, len(state.values)),
		Materials:   make(map[string]MaterialRequirement, len(state.materials)),
		Docs:        make(map[string]Documentation, len(state.docs)),
	}
	for k, v := range state.components {
		s.Components[k] = cloneComponent(v)
	}
	for k, v := range state.parameters {
		s.Parameters[k] = cloneParameter(v)
	}
	for k, v := range state.instances {
		s.Instances[k] = cloneInstance(v)
	}
	for k, v := range state.connections {
		s.Connections[k] = cloneConnection(v)
	}
	for k, v := range state.values {
		s.Values[k] = cloneValue(v)
	}
	for k, v := range state.materials {
		s.Materials[k] = cloneMaterial(v)
	}
	for k, v := range state.docs {
		s.Docs[k] = cloneDoc(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Components {
		state.components[k] = cloneComponent(v)
	}
	for k, v := range s.Parameters {
		state.parameters[k] = cloneParameter(v)
	}
	for k, v := range s.Instances {
		state.instances[k] = cloneInstance(v)
	}
	for k, v := range s.Connections {
		state.connections[k] = cloneConnection(v)
	}
	for k, v := range s.Values {
		state.values[k] = cloneValue(v)
	}
	for k, v := range s.Materials {
		state.materials[k] = cloneMaterial(v)
	}
	for k, v := range s.Docs {
		state.docs[k] = cloneDoc(v)
	}
	return state
}

// migrateSnapshot hydrates nil collections and drops records whose referential
// anchors no longer exist, so imported snapshots always satisfy the integrity
// guarantees transactions enforce.
//
//nolint:gocyclo // aggregates every migration concern in one pass for parity with existing snapshots.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Components == nil {
		snapshot.Components = map[string]Component{}
	}
	if snapshot.Parameters == nil {
		snapshot.Parameters = map[string]Parameter{}
	}
	if snapshot.Instances == nil {
		snapshot.Instances = map[string]ComponentInstance{}
	}
	if snapshot.Connections == nil {
		snapshot.Connections = map[string]Connection{}
	}
	if snapshot.Values == nil {
		snapshot.Values = map[string]ParameterValue{}
	}
	if snapshot.Materials == nil {
		snapshot.Materials = map[string]MaterialRequirement{}
	}
	if snapshot.Docs == nil {
		snapshot.Docs = map[string]Documentation{}
	}

	componentExists := func(id string) bool {
		_, ok := snapshot.Components[id]
		return ok
	}
	instanceExists := func(id string) bool {
		_, ok := snapshot.Instances[id]
		return ok
	}
	parameterExists := func(id string) bool {
		_, ok := snapshot.Parameters[id]
		return ok
	}

	for id, component := range snapshot.Components {
		if component.FunctionalProperties == nil {
			component.FunctionalProperties = map[string]any{}
		}
		snapshot.Components[id] = component
	}

	for id, parameter := range snapshot.Parameters {
		if parameter.ComponentID == "" || !componentExists(parameter.ComponentID) {
			delete(snapshot.Parameters, id)
			continue
		}
		snapshot.Parameters[id] = parameter
	}

	for id, instance := range snapshot.Instances {
		if instance.ComponentID == "" || !componentExists(instance.ComponentID) {
			delete(snapshot.Instances, id)
			continue
		}
		if instance.Properties == nil {
			instance.Properties = map[string]any{}
		}
		if !instance.Status.Valid() {
			instance.Status = domain.StatusPlanned
		}
		if instance.Version <= 0 {
			instance.Version = 1
		}
		snapshot.Instances[id] = instance
	}

	for id, connection := range snapshot.Connections {
		if !instanceExists(connection.Instance1ID) || !instanceExists(connection.Instance2ID) {
			delete(snapshot.Connections, id)
			continue
		}
		if connection.Properties == nil {
			connection.Properties = map[string]any{}
		}
		if !connection.Status.Valid() {
			connection.Status = domain.StatusPlanned
		}
		snapshot.Connections[id] = connection
	}

	// Parent links may reference connections dropped above; clear them in a
	// second pass.
	for id, connection := range snapshot.Connections {
		if connection.ParentConnectionID != nil {
			if _, ok := snapshot.Connections[*connection.ParentConnectionID]; !ok {
				connection.ParentConnectionID = nil
				snapshot.Connections[id] = connection
			}
		}
	}

	for id, value := range snapshot.Values {
		if !instanceExists(value.InstanceID) || !parameterExists(value.ParameterID) {
			delete(snapshot.Values, id)
			continue
		}
		switch value.ValidationStatus {
		case domain.ValidationPending, domain.ValidationValid, domain.ValidationInvalid:
		default:
			value.ValidationStatus = domain.ValidationPending
		}
		snapshot.Values[id] = value
	}

	for id, material := range snapshot.Materials {
		if !componentExists(material.ComponentID) {
			delete(snapshot.Materials, id)
		}
	}

	for id, doc := range snapshot.Docs {
		if !componentExists(doc.ComponentID) {
			delete(snapshot.Docs, id)
		}
	}

	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.components {
		cloned.components[k] = cloneComponent(v)
	}
	for k, v := range s.parameters {
		cloned.parameters[k] = cloneParameter(v)
	}
	for k, v := range s.instances {
		cloned.instances[k] = cloneInstance(v)
	}
	for k, v := range s.connections {
		cloned.connections[k] = cloneConnection(v)
	}
	for k, v := range s.values {
		cloned.values[k] = cloneValue(v)
	}
	for k, v := range s.materials {
		cloned.materials[k] = cloneMaterial(v)
	}
	for k, v := range s.docs {
		cloned.docs[k] = cloneDoc(v)
	}
	return cloned
}

func cloneAny(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneProperties(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneAny(item)
		}
		return out
	default:
		return value
	}
}

func cloneProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneComponent(c Component) Component {
	cp := c
	cp.FunctionalProperties = cloneProperties(c.FunctionalProperties)
	cp.BaseGeometry = c.BaseGeometry.Clone()
	return cp
}

func cloneParameter(p Parameter) Parameter {
	cp := p
	cp.ValidRanges = cloneProperties(p.ValidRanges)
	return cp
}

func cloneInstance(i ComponentInstance) ComponentInstance {
	cp := i
	cp.SpatialData = i.SpatialData.Clone()
	if i.SpatialBBox != nil {
		bbox := *i.SpatialBBox
		cp.SpatialBBox = &bbox
	}
	cp.Properties = cloneProperties(i.Properties)
	return cp
}

func cloneConnection(c Connection) Connection {
	cp := c
	cp.Properties = cloneProperties(c.Properties)
	cp.SpatialRelationship = c.SpatialRelationship.Clone()
	if c.SpatialBBox != nil {
		bbox := *c.SpatialBBox
		cp.SpatialBBox = &bbox
	}
	if c.ParentConnectionID != nil {
		parent := *c.ParentConnectionID
		cp.ParentConnectionID = &parent
	}
	return cp
}

func cloneValue(v ParameterValue) ParameterValue {
	cp := v
	cp.Value.Value = cloneAny(v.Value.Value)
	if v.ModifiedBy != nil {
		by := *v.ModifiedBy
		cp.ModifiedBy = &by
	}
	return cp
}

func cloneMaterial(m MaterialRequirement) MaterialRequirement { return m }
func cloneDoc(d Documentation) Documentation {
	cp := d
	if d.AttachmentKey != nil {
		key := *d.AttachmentKey
		cp.AttachmentKey = &key
	}
	return cp
}

// Store provides an in-memory transactional store for the catalog domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListComponents returns all components within the transaction snapshot.
func (v transactionView) ListComponents() []Component {
	out := make([]Component, 0, len(v.state.components))
	for _, c := range v.state.components {
		out = append(out, cloneComponent(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListParameters returns all parameter definitions in the snapshot.
func (v transactionView) ListParameters() []Parameter {
	out := make([]Parameter, 0, len(v.state.parameters))
	for _, p := range v.state.parameters {
		out = append(out, cloneParameter(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListInstances returns all instances ordered by internal id.
func (v transactionView) ListInstances() []ComponentInstance {
	out := make([]ComponentInstance, 0, len(v.state.instances))
	for _, i := range v.state.instances {
		out = append(out, cloneInstance(i))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InternalID < out[j].InternalID })
	return out
}

// ListConnections returns all connections in the snapshot.
func (v transactionView) ListConnections() []Connection {
	out := make([]Connection, 0, len(v.state.connections))
	for _, c := range v.state.connections {
		out = append(out, cloneConnection(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListParameterValues returns all recorded parameter values.
func (v transactionView) ListParameterValues() []ParameterValue {
	out := make([]ParameterValue, 0, len(v.state.values))
	for _, pv := range v.state.values {
		out = append(out, cloneValue(pv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListMaterialRequirements returns all material requirement records ordered
// by material code.
func (v transactionView) ListMaterialRequirements() []MaterialRequirement {
	out := make([]MaterialRequirement, 0, len(v.state.materials))
	for _, m := range v.state.materials {
		out = append(out, cloneMaterial(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MaterialCode != out[j].MaterialCode {
			return out[i].MaterialCode < out[j].MaterialCode
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListDocumentation returns all documentation records.
func (v transactionView) ListDocumentation() []Documentation {
	out := make([]Documentation, 0, len(v.state.docs))
	for _, d := range v.state.docs {
		out = append(out, cloneDoc(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindComponent retrieves a component by ID from the snapshot.
func (v transactionView) FindComponent(id string) (Component, bool) {
	c, ok := v.state.components[id]
	if !ok {
		return Component{}, false
	}
	return cloneComponent(c), true
}

// FindParameter retrieves a parameter definition by ID from the snapshot.
func (v transactionView) FindParameter(id string) (Parameter, bool) {
	p, ok := v.state.parameters[id]
	if !ok {
		return Parameter{}, false
	}
	return cloneParameter(p), true
}

// FindInstance retrieves an instance by ID from the snapshot.
func (v transactionView) FindInstance(id string) (ComponentInstance, bool) {
	i, ok := v.state.instances[id]
	if !ok {
		return ComponentInstance{}, false
	}
	return cloneInstance(i), true
}

// FindConnection retrieves a connection by ID from the snapshot.
func (v transactionView) FindConnection(id string) (Connection, bool) {
	c, ok := v.state.connections[id]
	if !ok {
		return Connection{}, false
	}
	return cloneConnection(c), true
}

// FindParameterValue retrieves a parameter value by ID from the snapshot.
func (v transactionView) FindParameterValue(id string) (ParameterValue, bool) {
	pv, ok := v.state.values[id]
	if !ok {
		return ParameterValue{}, false
	}
	return cloneValue(pv), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindComponent exposes component lookup within the transaction scope.
func (tx *transaction) FindComponent(id string) (Component, bool) {
	c, ok := tx.state.components[id]
	if !ok {
		return Component{}, false
	}
	return cloneComponent(c), true
}

// FindParameter exposes parameter lookup within the transaction scope.
func (tx *transaction) FindParameter(id string) (Parameter, bool) {
	p, ok := tx.state.parameters[id]
	if !ok {
		return Parameter{}, false
	}
	return cloneParameter(p), true
}

// FindInstance exposes instance lookup within the transaction scope.
func (tx *transaction) FindInstance(id string) (ComponentInstance, bool) {
	i, ok := tx.state.instances[id]
	if !ok {
		return ComponentInstance{}, false
	}
	return cloneInstance(i), true
}

// FindConnection exposes connection lookup within the transaction scope.
func (tx *transaction) FindConnection(id string) (Connection, bool) {
	c, ok := tx.state.connections[id]
	if !ok {
		return Connection{}, false
	}
	return cloneConnection(c), true
}

// FindParameterValue exposes parameter value lookup within the transaction scope.
func (tx *transaction) FindParameterValue(id string) (ParameterValue, bool) {
	pv, ok := tx.state.values[id]
	if !ok {
		return ParameterValue{}, false
	}
	return cloneValue(pv), true
}

// FindComponentByIdentity resolves the (classification, version) unique key.
func (tx *transaction) FindComponentByIdentity(classification, version string) (Component, bool) {
	for _, c := range tx.state.components {
		if c.Classification == classification && c.Version == version {
			return cloneComponent(c), true
		}
	}
	return Component{}, false
}

// FindParameterByName resolves the (component, name) unique key.
func (tx *transaction) FindParameterByName(componentID, name string) (Parameter, bool) {
	for _, p := range tx.state.parameters {
		if p.ComponentID == componentID && p.Name == name {
			return cloneParameter(p), true
		}
	}
	return Parameter{}, false
}

// FindValueFor resolves the (instance, parameter) unique key.
func (tx *transaction) FindValueFor(instanceID, parameterID string) (ParameterValue, bool) {
	for _, pv := range tx.state.values {
		if pv.InstanceID == instanceID && pv.ParameterID == parameterID {
			return cloneValue(pv), true
		}
	}
	return ParameterValue{}, false
}

// FindDuplicateConnection scans for any connection covering the same unordered
// instance pair, checking both orientations and skipping excludeID.
func (tx *transaction) FindDuplicateConnection(instance1, instance2, excludeID string) (string, bool) {
	for id, c := range tx.state.connections {
		if id == excludeID {
			continue
		}
		if (c.Instance1ID == instance1 && c.Instance2ID == instance2) ||
			(c.Instance1ID == instance2 && c.Instance2ID == instance1) {
			return id, true
		}
	}
	return "", false
}

// NextInternalID reserves the next value of the dense instance sequence. The
// store mutex held for the whole transaction serializes the read-then-write.
func (tx *transaction) NextInternalID() int64 {
	return nextInternalID(&tx.state)
}

func nextInternalID(state *memoryState) int64 {
	var maxID int64
	for _, instance := range state.instances {
		if instance.InternalID > maxID {
			maxID = instance.InternalID
		}
	}
	return maxID + 1
}

// CreateComponent stores a new component definition within the transaction.
func (tx *transaction) CreateComponent(c Component) (Component, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.components[c.ID]; exists {
		return Component{}, fmt.Errorf("component %q already exists", c.ID)
	}
	if existing, ok := tx.FindComponentByIdentity(c.Classification, c.Version); ok {
		return Component{}, domain.DuplicateError{
			Entity: domain.EntityComponent,
			Detail: fmt.Sprintf("classification %s version %s already registered as %s", c.Classification, c.Version, existing.ID),
		}
	}
	c.CreatedAt = tx.now
	c.ModifiedAt = tx.now
	if c.FunctionalProperties == nil {
		c.FunctionalProperties = map[string]any{}
	}
	tx.state.components[c.ID] = cloneComponent(c)
	tx.recordChange(Change{Entity: domain.EntityComponent, Action: domain.ActionCreate, After: cloneComponent(c)})
	return cloneComponent(c), nil
}

// UpdateComponent mutates a component using the provided mutator function.
func (tx *transaction) UpdateComponent(id string, mutator func(*Component) error) (Component, error) {
	current, ok := tx.state.components[id]
	if !ok {
		return Component{}, domain.NotFoundError{Entity: domain.EntityComponent, ID: id}
	}
	before := cloneComponent(current)
	if err := mutator(&current); err != nil {
		return Component{}, err
	}
	for otherID, other := range tx.state.components {
		if otherID == id {
			continue
		}
		if other.Classification == current.Classification && other.Version == current.Version {
			return Component{}, domain.DuplicateError{
				Entity: domain.EntityComponent,
				Detail: fmt.Sprintf("classification %s version %s already registered as %s", current.Classification, current.Version, otherID),
			}
		}
	}
	current.ID = id
	current.ModifiedAt = tx.now
	tx.state.components[id] = cloneComponent(current)
	tx.recordChange(Change{Entity: domain.EntityComponent, Action: domain.ActionUpdate, Before: before, After: cloneComponent(current)})
	return cloneComponent(current), nil
}

// DeleteComponent removes a component and cascades its parameter, material,
// and documentation children. Deletion is refused while instances reference
// the component.
func (tx *transaction) DeleteComponent(id string) error {
	current, ok := tx.state.components[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityComponent, ID: id}
	}
	for _, instance := range tx.state.instances {
		if instance.ComponentID == id {
			return fmt.Errorf("component %q still referenced by instance %q", id, instance.ID)
		}
	}
	for paramID, parameter := range tx.state.parameters {
		if parameter.ComponentID != id {
			continue
		}
		for valueID, value := range tx.state.values {
			if value.ParameterID == paramID {
				delete(tx.state.values, valueID)
			}
		}
		delete(tx.state.parameters, paramID)
	}
	for materialID, material := range tx.state.materials {
		if material.ComponentID == id {
			delete(tx.state.materials, materialID)
		}
	}
	for docID, doc := range tx.state.docs {
		if doc.ComponentID == id {
			delete(tx.state.docs, docID)
		}
	}
	delete(tx.state.components, id)
	tx.recordChange(Change{Entity: domain.EntityComponent, Action: domain.ActionDelete, Before: cloneComponent(current)})
	return nil
}

// CreateParameter stores a new parameter definition.
func (tx *transaction) CreateParameter(p Parameter) (Parameter, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.parameters[p.ID]; exists {
		return Parameter{}, fmt.Errorf("parameter %q already exists", p.ID)
	}
	if _, ok := tx.state.components[p.ComponentID]; !ok {
		return Parameter{}, domain.NotFoundError{Entity: domain.EntityComponent, ID: p.ComponentID}
	}
	if existing, ok := tx.FindParameterByName(p.ComponentID, p.Name); ok {
		return Parameter{}, domain.DuplicateError{
			Entity: domain.EntityParameter,
			Detail: fmt.Sprintf("name %s already defined on component %s as %s", p.Name, p.ComponentID, existing.ID),
		}
	}
	p.CreatedAt = tx.now
	p.ModifiedAt = tx.now
	tx.state.parameters[p.ID] = cloneParameter(p)
	tx.recordChange(Change{Entity: domain.EntityParameter, Action: domain.ActionCreate, After: cloneParameter(p)})
	return cloneParameter(p), nil
}

// UpdateParameter mutates an existing parameter definition. The owning
// component survives the mutator.
func (tx *transaction) UpdateParameter(id string, mutator func(*Parameter) error) (Parameter, error) {
	current, ok := tx.state.parameters[id]
	if !ok {
		return Parameter{}, domain.NotFoundError{Entity: domain.EntityParameter, ID: id}
	}
	before := cloneParameter(current)
	if err := mutator(&current); err != nil {
		return Parameter{}, err
	}
	current.ComponentID = before.ComponentID
	for otherID, other := range tx.state.parameters {
		if otherID == id {
			continue
		}
		if other.ComponentID == current.ComponentID && other.Name == current.Name {
			return Parameter{}, domain.DuplicateError{
				Entity: domain.EntityParameter,
				Detail: fmt.Sprintf("name %s already defined on component %s as %s", current.Name, current.ComponentID, otherID),
			}
		}
	}
	current.ID = id
	current.ModifiedAt = tx.now
	tx.state.parameters[id] = cloneParameter(current)
	tx.recordChange(Change{Entity: domain.EntityParameter, Action: domain.ActionUpdate, Before: before, After: cloneParameter(current)})
	return cloneParameter(current), nil
}

// DeleteParameter removes a parameter definition and cascades its recorded
// values.
func (tx *transaction) DeleteParameter(id string) error {
	current, ok := tx.state.parameters[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityParameter, ID: id}
	}
	for valueID, value := range tx.state.values {
		if value.ParameterID == id {
			delete(tx.state.values, valueID)
		}
	}
	delete(tx.state.parameters, id)
	tx.recordChange(Change{Entity: domain.EntityParameter, Action: domain.ActionDelete, Before: cloneParameter(current)})
	return nil
}

// CreateInstance stores a new component instance. A zero InternalID is
// replaced with the next value of the shared sequence.
func (tx *transaction) CreateInstance(i ComponentInstance) (ComponentInstance, error) {
	if i.ID == "" {
		i.ID = tx.store.newID()
	}
	if _, exists := tx.state.instances[i.ID]; exists {
		return ComponentInstance{}, fmt.Errorf("instance %q already exists", i.ID)
	}
	if _, ok := tx.state.components[i.ComponentID]; !ok {
		return ComponentInstance{}, domain.NotFoundError{Entity: domain.EntityComponent, ID: i.ComponentID}
	}
	if i.InternalID == 0 {
		i.InternalID = nextInternalID(&tx.state)
	}
	for _, other := range tx.state.instances {
		if other.InternalID == i.InternalID {
			return ComponentInstance{}, domain.DuplicateError{
				Entity: domain.EntityInstance,
				Detail: fmt.Sprintf("internal id %d already assigned to %s", i.InternalID, other.ID),
			}
		}
	}
	if i.Status == "" {
		i.Status = domain.StatusPlanned
	}
	if i.Version <= 0 {
		i.Version = 1
	}
	if i.Properties == nil {
		i.Properties = map[string]any{}
	}
	i.CreatedAt = tx.now
	i.ModifiedAt = tx.now
	if i.StatusChangedAt.IsZero() {
		i.StatusChangedAt = tx.now
	}
	tx.state.instances[i.ID] = cloneInstance(i)
	tx.recordChange(Change{Entity: domain.EntityInstance, Action: domain.ActionCreate, After: cloneInstance(i)})
	return cloneInstance(i), nil
}

// UpdateInstance mutates an existing component instance. Identity and
// ownership fields survive the mutator.
func (tx *transaction) UpdateInstance(id string, mutator func(*ComponentInstance) error) (ComponentInstance, error) {
	current, ok := tx.state.instances[id]
	if !ok {
		return ComponentInstance{}, domain.NotFoundError{Entity: domain.EntityInstance, ID: id}
	}
	before := cloneInstance(current)
	if err := mutator(&current); err != nil {
		return ComponentInstance{}, err
	}
	current.ID = id
	current.InternalID = before.InternalID
	current.ComponentID = before.ComponentID
	current.ModifiedAt = tx.now
	tx.state.instances[id] = cloneInstance(current)
	tx.recordChange(Change{Entity: domain.EntityInstance, Action: domain.ActionUpdate, Before: before, After: cloneInstance(current)})
	return cloneInstance(current), nil
}

// DeleteInstance removes an instance and cascades its parameter values.
// Deletion is refused while connections reference the instance.
func (tx *transaction) DeleteInstance(id string) error {
	current, ok := tx.state.instances[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityInstance, ID: id}
	}
	for _, connection := range tx.state.connections {
		if connection.Instance1ID == id || connection.Instance2ID == id {
			return fmt.Errorf("instance %q still referenced by connection %q", id, connection.ID)
		}
	}
	for valueID, value := range tx.state.values {
		if value.InstanceID == id {
			delete(tx.state.values, valueID)
		}
	}
	delete(tx.state.instances, id)
	tx.recordChange(Change{Entity: domain.EntityInstance, Action: domain.ActionDelete, Before: cloneInstance(current)})
	return nil
}

// CreateConnection stores a new connection. Endpoints are normalized into
// canonical order before the duplicate scan.
func (tx *transaction) CreateConnection(c Connection) (Connection, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.connections[c.ID]; exists {
		return Connection{}, fmt.Errorf("connection %q already exists", c.ID)
	}
	first, second, err := domain.CanonicalPair(c.Instance1ID, c.Instance2ID)
	if err != nil {
		return Connection{}, err
	}
	c.Instance1ID, c.Instance2ID = first, second
	if _, ok := tx.state.instances[c.Instance1ID]; !ok {
		return Connection{}, domain.NotFoundError{Entity: domain.EntityInstance, ID: c.Instance1ID}
	}
	if _, ok := tx.state.instances[c.Instance2ID]; !ok {
		return Connection{}, domain.NotFoundError{Entity: domain.EntityInstance, ID: c.Instance2ID}
	}
	if existingID, ok := tx.FindDuplicateConnection(c.Instance1ID, c.Instance2ID, c.ID); ok {
		return Connection{}, domain.DuplicateError{
			Entity: domain.EntityConnection,
			Detail: fmt.Sprintf("instances %s and %s already connected by %s", c.Instance1ID, c.Instance2ID, existingID),
		}
	}
	if c.ParentConnectionID != nil {
		if _, ok := tx.state.connections[*c.ParentConnectionID]; !ok {
			return Connection{}, domain.NotFoundError{Entity: domain.EntityConnection, ID: *c.ParentConnectionID}
		}
	}
	if c.Status == "" {
		c.Status = domain.StatusPlanned
	}
	if c.Properties == nil {
		c.Properties = map[string]any{}
	}
	c.CreatedAt = tx.now
	c.ModifiedAt = tx.now
	if c.StatusChangedAt.IsZero() {
		c.StatusChangedAt = tx.now
	}
	tx.state.connections[c.ID] = cloneConnection(c)
	tx.recordChange(Change{Entity: domain.EntityConnection, Action: domain.ActionCreate, After: cloneConnection(c)})
	return cloneConnection(c), nil
}

// UpdateConnection mutates an existing connection. The endpoint pair is
// re-canonicalized and re-checked for duplicates after mutation.
func (tx *transaction) UpdateConnection(id string, mutator func(*Connection) error) (Connection, error) {
	current, ok := tx.state.connections[id]
	if !ok {
		return Connection{}, domain.NotFoundError{Entity: domain.EntityConnection, ID: id}
	}
	before := cloneConnection(current)
	if err := mutator(&current); err != nil {
		return Connection{}, err
	}
	first, second, err := domain.CanonicalPair(current.Instance1ID, current.Instance2ID)
	if err != nil {
		return Connection{}, err
	}
	current.Instance1ID, current.Instance2ID = first, second
	if _, ok := tx.state.instances[current.Instance1ID]; !ok {
		return Connection{}, domain.NotFoundError{Entity: domain.EntityInstance, ID: current.Instance1ID}
	}
	if _, ok := tx.state.instances[current.Instance2ID]; !ok {
		return Connection{}, domain.NotFoundError{Entity: domain.EntityInstance, ID: current.Instance2ID}
	}
	if existingID, ok := tx.FindDuplicateConnection(current.Instance1ID, current.Instance2ID, id); ok {
		return Connection{}, domain.DuplicateError{
			Entity: domain.EntityConnection,
			Detail: fmt.Sprintf("instances %s and %s already connected by %s", current.Instance1ID, current.Instance2ID, existingID),
		}
	}
	if current.ParentConnectionID != nil {
		if *current.ParentConnectionID == id {
			return Connection{}, fmt.Errorf("connection %q cannot be its own parent", id)
		}
		if _, ok := tx.state.connections[*current.ParentConnectionID]; !ok {
			return Connection{}, domain.NotFoundError{Entity: domain.EntityConnection, ID: *current.ParentConnectionID}
		}
	}
	current.ID = id
	current.ModifiedAt = tx.now
	tx.state.connections[id] = cloneConnection(current)
	tx.recordChange(Change{Entity: domain.EntityConnection, Action: domain.ActionUpdate, Before: before, After: cloneConnection(current)})
	return cloneConnection(current), nil
}

// DeleteConnection removes a connection. Child connections keep existing but
// lose their parent link.
func (tx *transaction) DeleteConnection(id string) error {
	current, ok := tx.state.connections[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityConnection, ID: id}
	}
	for childID, child := range tx.state.connections {
		if child.ParentConnectionID != nil && *child.ParentConnectionID == id {
			child.ParentConnectionID = nil
			tx.state.connections[childID] = child
		}
	}
	delete(tx.state.connections, id)
	tx.recordChange(Change{Entity: domain.EntityConnection, Action: domain.ActionDelete, Before: cloneConnection(current)})
	return nil
}

// CreateParameterValue stores a new recorded value for an instance parameter.
func (tx *transaction) CreateParameterValue(pv ParameterValue) (ParameterValue, error) {
	if pv.ID == "" {
		pv.ID = tx.store.newID()
	}
	if _, exists := tx.state.values[pv.ID]; exists {
		return ParameterValue{}, fmt.Errorf("parameter value %q already exists", pv.ID)
	}
	if _, ok := tx.state.instances[pv.InstanceID]; !ok {
		return ParameterValue{}, domain.NotFoundError{Entity: domain.EntityInstance, ID: pv.InstanceID}
	}
	if _, ok := tx.state.parameters[pv.ParameterID]; !ok {
		return ParameterValue{}, domain.NotFoundError{Entity: domain.EntityParameter, ID: pv.ParameterID}
	}
	if existing, ok := tx.FindValueFor(pv.InstanceID, pv.ParameterID); ok {
		return ParameterValue{}, domain.DuplicateError{
			Entity: domain.EntityParameterValue,
			Detail: fmt.Sprintf("instance %s already carries a value for parameter %s as %s", pv.InstanceID, pv.ParameterID, existing.ID),
		}
	}
	if pv.ValidationStatus == "" {
		pv.ValidationStatus = domain.ValidationPending
	}
	pv.CreatedAt = tx.now
	pv.ModifiedAt = tx.now
	if pv.RecordedAt.IsZero() {
		pv.RecordedAt = tx.now
	}
	tx.state.values[pv.ID] = cloneValue(pv)
	tx.recordChange(Change{Entity: domain.EntityParameterValue, Action: domain.ActionCreate, After: cloneValue(pv)})
	return cloneValue(pv), nil
}

// UpdateParameterValue mutates an existing recorded value.
func (tx *transaction) UpdateParameterValue(id string, mutator func(*ParameterValue) error) (ParameterValue, error) {
	current, ok := tx.state.values[id]
	if !ok {
		return ParameterValue{}, domain.NotFoundError{Entity: domain.EntityParameterValue, ID: id}
	}
	before := cloneValue(current)
	if err := mutator(&current); err != nil {
		return ParameterValue{}, err
	}
	current.ID = id
	current.InstanceID = before.InstanceID
	current.ParameterID = before.ParameterID
	current.ModifiedAt = tx.now
	tx.state.values[id] = cloneValue(current)
	tx.recordChange(Change{Entity: domain.EntityParameterValue, Action: domain.ActionUpdate, Before: before, After: cloneValue(current)})
	return cloneValue(current), nil
}

// DeleteParameterValue removes a recorded value.
func (tx *transaction) DeleteParameterValue(id string) error {
	current, ok := tx.state.values[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityParameterValue, ID: id}
	}
	delete(tx.state.values, id)
	tx.recordChange(Change{Entity: domain.EntityParameterValue, Action: domain.ActionDelete, Before: cloneValue(current)})
	return nil
}

// CreateMaterialRequirement stores a new material requirement record.
func (tx *transaction) CreateMaterialRequirement(m MaterialRequirement) (MaterialRequirement, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.materials[m.ID]; exists {
		return MaterialRequirement{}, fmt.Errorf("material requirement %q already exists", m.ID)
	}
	if _, ok := tx.state.components[m.ComponentID]; !ok {
		return MaterialRequirement{}, domain.NotFoundError{Entity: domain.EntityComponent, ID: m.ComponentID}
	}
	m.CreatedAt = tx.now
	m.ModifiedAt = tx.now
	tx.state.materials[m.ID] = cloneMaterial(m)
	tx.recordChange(Change{Entity: domain.EntityMaterialRequirement, Action: domain.ActionCreate, After: cloneMaterial(m)})
	return cloneMaterial(m), nil
}

// CreateDocumentation stores a new documentation record.
func (tx *transaction) CreateDocumentation(d Documentation) (Documentation, error) {
	if d.ID == "" {
		d.ID = tx.store.newID()
	}
	if _, exists := tx.state.docs[d.ID]; exists {
		return Documentation{}, fmt.Errorf("documentation %q already exists", d.ID)
	}
	if _, ok := tx.state.components[d.ComponentID]; !ok {
		return Documentation{}, domain.NotFoundError{Entity: domain.EntityComponent, ID: d.ComponentID}
	}
	d.CreatedAt = tx.now
	d.ModifiedAt = tx.now
	tx.state.docs[d.ID] = cloneDoc(d)
	tx.recordChange(Change{Entity: domain.EntityDocumentation, Action: domain.ActionCreate, After: cloneDoc(d)})
	return cloneDoc(d), nil
}

// GetComponent retrieves a component by ID.
func (s *Store) GetComponent(id string) (Component, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.components[id]
	if !ok {
		return Component{}, false
	}
	return cloneComponent(c), true
}

// ListComponents returns all components ordered by ID.
func (s *Store) ListComponents() []Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListComponents()
}

// GetParameter retrieves a parameter definition by ID.
func (s *Store) GetParameter(id string) (Parameter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.parameters[id]
	if !ok {
		return Parameter{}, false
	}
	return cloneParameter(p), true
}

// ListParameters returns all parameter definitions ordered by ID.
func (s *Store) ListParameters() []Parameter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListParameters()
}

// GetInstance retrieves an instance by ID.
func (s *Store) GetInstance(id string) (ComponentInstance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.state.instances[id]
	if !ok {
		return ComponentInstance{}, false
	}
	return cloneInstance(i), true
}

// ListInstances returns all instances ordered by internal ID.
func (s *Store) ListInstances() []ComponentInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListInstances()
}

// GetConnection retrieves a connection by ID.
func (s *Store) GetConnection(id string) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.connections[id]
	if !ok {
		return Connection{}, false
	}
	return cloneConnection(c), true
}

// ListConnections returns all connections ordered by ID.
func (s *Store) ListConnections() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListConnections()
}

// GetParameterValue retrieves a recorded value by ID.
func (s *Store) GetParameterValue(id string) (ParameterValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pv, ok := s.state.values[id]
	if !ok {
		return ParameterValue{}, false
	}
	return cloneValue(pv), true
}

// ListParameterValues returns all recorded values ordered by ID.
func (s *Store) ListParameterValues() []ParameterValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListParameterValues()
}

// ListMaterialRequirements returns all material requirements ordered by
// material code.
func (s *Store) ListMaterialRequirements() []MaterialRequirement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListMaterialRequirements()
}

// ListDocumentation returns all documentation records ordered by ID.
func (s *Store) ListDocumentation() []Documentation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListDocumentation()
}
