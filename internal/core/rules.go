package core

import "catalogcore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
// These rules re-check at commit the constraints a relational schema would
// enforce, so a coordinator bug cannot persist an inconsistent snapshot.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(ConnectionIntegrityRule())
	engine.Register(ReferentialIntegrityRule())
	engine.Register(UniquenessRule())
	engine.Register(LifecycleValidityRule())
	return engine
}

func blockViolation(rule string, entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     rule,
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}
