package core

import "catalogcore/pkg/domain"

// Aliases keep service call sites on short names while the canonical
// definitions live in pkg/domain.
type (
	Component           = domain.Component
	Parameter           = domain.Parameter
	ComponentInstance   = domain.ComponentInstance
	Connection          = domain.Connection
	ParameterValue      = domain.ParameterValue
	MaterialRequirement = domain.MaterialRequirement
	Documentation       = domain.Documentation
	ValuePayload        = domain.ValuePayload

	Change          = domain.Change
	Result          = domain.Result
	Violation       = domain.Violation
	Rule            = domain.Rule
	RulesEngine     = domain.RulesEngine
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}
