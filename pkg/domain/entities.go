// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by catalogcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityComponent identifies a reusable component definition.
	EntityComponent EntityType = "component"
	// EntityParameter identifies a typed parameter definition scoped to a component.
	EntityParameter EntityType = "parameter"
	// EntityInstance identifies a concrete spatial placement of a component.
	EntityInstance EntityType = "component_instance"
	// EntityConnection identifies a physical relationship between two instances.
	EntityConnection EntityType = "connection"
	// EntityParameterValue identifies a recorded parameter value on an instance.
	EntityParameterValue EntityType = "parameter_value"
	// EntityMaterialRequirement identifies a material requirement child record.
	EntityMaterialRequirement EntityType = "material_requirement"
	// EntityDocumentation identifies a documentation child record.
	EntityDocumentation EntityType = "documentation"
)

// DataType enumerates the value types a parameter definition may declare.
type DataType string

// Parameter data types. Float and Integer are the numeric types and require
// a unit plus min/max bounds on the definition.
const (
	DataTypeFloat    DataType = "float"
	DataTypeInteger  DataType = "integer"
	DataTypeText     DataType = "text"
	DataTypeBoolean  DataType = "boolean"
	DataTypeJSON     DataType = "json"
	DataTypeGeometry DataType = "geometry"
)

// Valid reports whether the data type is one of the declared members.
func (d DataType) Valid() bool {
	switch d {
	case DataTypeFloat, DataTypeInteger, DataTypeText, DataTypeBoolean, DataTypeJSON, DataTypeGeometry:
		return true
	}
	return false
}

// Numeric reports whether the data type carries numeric range semantics.
func (d DataType) Numeric() bool {
	return d == DataTypeFloat || d == DataTypeInteger
}

// ConnectionType enumerates the standard physical connection classifications.
type ConnectionType string

// Standard connection types. Bolted, slotted and welded connections carry
// required property keys; screwed and adhesive have no additional schema.
const (
	ConnectionBolted   ConnectionType = "bolted"
	ConnectionSlotted  ConnectionType = "slotted"
	ConnectionWelded   ConnectionType = "welded"
	ConnectionScrewed  ConnectionType = "screwed"
	ConnectionAdhesive ConnectionType = "adhesive"
)

// Valid reports whether the connection type is a declared member.
func (c ConnectionType) Valid() bool {
	switch c {
	case ConnectionBolted, ConnectionSlotted, ConnectionWelded, ConnectionScrewed, ConnectionAdhesive:
		return true
	}
	return false
}

// ValidationStatus is the tri-state tag recorded on a parameter value
// reflecting the outcome of its last constraint check.
type ValidationStatus string

// Parameter value validation states.
const (
	ValidationPending ValidationStatus = "pending"
	ValidationValid   ValidationStatus = "valid"
	ValidationInvalid ValidationStatus = "invalid"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Component is a reusable parametric definition that instances are stamped
// from. The (Classification, Version) pair is unique across the catalog.
type Component struct {
	Base
	Classification       string         `json:"classification"`
	Name                 string         `json:"name"`
	Version              string         `json:"version"`
	FunctionalProperties map[string]any `json:"functional_properties"`
	BaseGeometry         Geometry       `json:"base_geometry"`
	CoreMission          string         `json:"core_mission"`
	IsActive             bool           `json:"is_active"`
}

// RequiredFunctionalProperties are the keys every component's functional
// property mapping must contain.
var RequiredFunctionalProperties = []string{"acoustic_rating", "emi_shield_level"}

// Parameter is a typed attribute definition scoped to one component. Its name
// is unique per component and its constraints govern every ParameterValue
// referencing it.
type Parameter struct {
	Base
	ComponentID string         `json:"component_id"`
	Name        string         `json:"name"`
	DataType    DataType       `json:"data_type"`
	Units       string         `json:"units,omitempty"`
	ValidRanges map[string]any `json:"valid_ranges,omitempty"`
	IsRequired  bool           `json:"is_required"`
	Description string         `json:"description,omitempty"`
}

// ComponentInstance is a concrete placement of a component in a design.
// InternalID is a dense monotonically increasing sequence shared by all
// instances, assigned by storage at creation time.
type ComponentInstance struct {
	Base
	InternalID  int64          `json:"internal_id"`
	ComponentID string         `json:"component_id"`
	SpatialData Geometry       `json:"spatial_data"`
	SpatialBBox *BoundingBox   `json:"spatial_bbox,omitempty"`
	Properties  map[string]any `json:"instance_properties"`
	Version     int            `json:"version"`
	Lifecycle
}

// Connection is an undirected physical relationship between exactly two
// distinct instances, stored with Instance1ID < Instance2ID so the unordered
// pair has one canonical representation.
type Connection struct {
	Base
	Instance1ID         string         `json:"instance_1_id"`
	Instance2ID         string         `json:"instance_2_id"`
	Type                ConnectionType `json:"connection_type"`
	Properties          map[string]any `json:"connection_properties"`
	SpatialRelationship Geometry       `json:"spatial_relationship"`
	SpatialBBox         *BoundingBox   `json:"spatial_bbox,omitempty"`
	IsStructural        bool           `json:"is_structural"`
	ParentConnectionID  *string        `json:"parent_connection_id,omitempty"`
	Lifecycle
}

// ValuePayload wraps a parameter value together with its optional unit.
type ValuePayload struct {
	Value any    `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// ParameterValue records the value of one parameter for one instance. The
// (InstanceID, ParameterID) pair is unique.
type ParameterValue struct {
	Base
	InstanceID       string           `json:"instance_id"`
	ParameterID      string           `json:"parameter_id"`
	Value            ValuePayload     `json:"value"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	RecordedAt       time.Time        `json:"recorded_at"`
	ModifiedBy       *string          `json:"modified_by,omitempty"`
}

// MaterialRequirement lists a material consumed when building a component.
type MaterialRequirement struct {
	Base
	ComponentID  string  `json:"component_id"`
	MaterialCode string  `json:"material_code"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// Documentation is a documentation entry attached to a component. When the
// body is stored out of band the AttachmentKey references the blob store.
type Documentation struct {
	Base
	ComponentID   string  `json:"component_id"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	DocumentType  string  `json:"document_type"`
	AttachmentKey *string `json:"attachment_key,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
