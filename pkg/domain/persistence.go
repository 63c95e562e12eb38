package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Read-then-write sequences such as
// NextInternalID and FindDuplicateConnection are serialized by the store for
// the duration of the transaction.
type Transaction interface {
	Snapshot() TransactionView
	CreateComponent(Component) (Component, error)
	UpdateComponent(id string, mutator func(*Component) error) (Component, error)
	DeleteComponent(id string) error
	CreateParameter(Parameter) (Parameter, error)
	UpdateParameter(id string, mutator func(*Parameter) error) (Parameter, error)
	DeleteParameter(id string) error
	CreateInstance(ComponentInstance) (ComponentInstance, error)
	UpdateInstance(id string, mutator func(*ComponentInstance) error) (ComponentInstance, error)
	DeleteInstance(id string) error
	CreateConnection(Connection) (Connection, error)
	UpdateConnection(id string, mutator func(*Connection) error) (Connection, error)
	DeleteConnection(id string) error
	CreateParameterValue(ParameterValue) (ParameterValue, error)
	UpdateParameterValue(id string, mutator func(*ParameterValue) error) (ParameterValue, error)
	DeleteParameterValue(id string) error
	CreateMaterialRequirement(MaterialRequirement) (MaterialRequirement, error)
	CreateDocumentation(Documentation) (Documentation, error)

	FindComponent(id string) (Component, bool)
	FindParameter(id string) (Parameter, bool)
	FindInstance(id string) (ComponentInstance, bool)
	FindConnection(id string) (Connection, bool)
	FindParameterValue(id string) (ParameterValue, bool)
	// FindComponentByIdentity resolves the (classification, version) unique key.
	FindComponentByIdentity(classification, version string) (Component, bool)
	// FindParameterByName resolves the (component, name) unique key.
	FindParameterByName(componentID, name string) (Parameter, bool)
	// FindValueFor resolves the (instance, parameter) unique key.
	FindValueFor(instanceID, parameterID string) (ParameterValue, bool)
	// FindDuplicateConnection scans for a connection over the same unordered
	// instance pair in either orientation, ignoring excludeID when non-empty.
	FindDuplicateConnection(instance1, instance2, excludeID string) (string, bool)
	// NextInternalID atomically reserves the next value of the shared dense
	// instance sequence.
	NextInternalID() int64
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetComponent(id string) (Component, bool)
	ListComponents() []Component
	GetParameter(id string) (Parameter, bool)
	ListParameters() []Parameter
	GetInstance(id string) (ComponentInstance, bool)
	ListInstances() []ComponentInstance
	GetConnection(id string) (Connection, bool)
	ListConnections() []Connection
	GetParameterValue(id string) (ParameterValue, bool)
	ListParameterValues() []ParameterValue
	ListMaterialRequirements() []MaterialRequirement
	ListDocumentation() []Documentation
}
