// Package core implements the catalog consistency service: ordered
// validation pipelines over components, instances, connections, and
// parameter values, executed atomically against a persistent store.
package core

import (
	"context"
	"fmt"
	"time"

	"catalogcore/internal/infra/persistence/memory"
	"catalogcore/pkg/domain"
)

// Service exposes the transactional catalog operations. Every operation
// validates its payload fail-fast, then persists through a single store
// transaction so either all checks pass and the change commits, or nothing
// is written.
type Service struct {
	store PersistentStore
	opts  serviceOptions
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{store: store, opts: options}
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

type operationMeta struct {
	Entity domain.EntityType
	Action domain.Action
}

var operationCatalog = map[string]operationMeta{
	"create_component":             {domain.EntityComponent, domain.ActionCreate},
	"update_component":             {domain.EntityComponent, domain.ActionUpdate},
	"deactivate_component":         {domain.EntityComponent, domain.ActionUpdate},
	"delete_component":             {domain.EntityComponent, domain.ActionDelete},
	"create_parameter":             {domain.EntityParameter, domain.ActionCreate},
	"update_parameter":             {domain.EntityParameter, domain.ActionUpdate},
	"delete_parameter":             {domain.EntityParameter, domain.ActionDelete},
	"create_instance":              {domain.EntityInstance, domain.ActionCreate},
	"create_instance_version":      {domain.EntityInstance, domain.ActionCreate},
	"update_instance":              {domain.EntityInstance, domain.ActionUpdate},
	"transition_instance_status":   {domain.EntityInstance, domain.ActionUpdate},
	"delete_instance":              {domain.EntityInstance, domain.ActionDelete},
	"create_connection":            {domain.EntityConnection, domain.ActionCreate},
	"update_connection":            {domain.EntityConnection, domain.ActionUpdate},
	"transition_connection_status": {domain.EntityConnection, domain.ActionUpdate},
	"delete_connection":            {domain.EntityConnection, domain.ActionDelete},
	"set_parameter_value":          {domain.EntityParameterValue, domain.ActionUpdate},
	"delete_parameter_value":       {domain.EntityParameterValue, domain.ActionDelete},
	"create_material_requirement":  {domain.EntityMaterialRequirement, domain.ActionCreate},
	"create_documentation":         {domain.EntityDocumentation, domain.ActionCreate},
	"attach_documentation":         {domain.EntityDocumentation, domain.ActionUpdate},
}

// run wraps an operation with tracing, timing, metrics, logging, and audit.
// fn returns the id of the primary entity touched by the operation.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context) (string, Result, error)) (Result, error) {
	started := time.Now()
	runCtx := ctx
	var span TraceSpan
	if s.opts.tracer != nil {
		runCtx, span = s.opts.tracer.Start(ctx, op)
	}
	id, res, err := fn(runCtx)
	duration := time.Since(started)
	if span != nil {
		span.End(err)
	}
	if s.opts.metrics != nil {
		s.opts.metrics.Observe(ctx, op, err == nil, duration)
	}
	if err != nil {
		s.opts.logger.Error("operation failed", "operation", op, "entity_id", id, "error", err)
		s.recordAuditError(ctx, op, id, duration, err)
		return res, err
	}
	s.opts.logger.Debug("operation complete", "operation", op, "entity_id", id, "duration_ms", duration.Milliseconds())
	s.recordAuditSuccess(ctx, op, id, duration)
	return res, nil
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	s.recordAudit(ctx, op, entityID, duration, nil)
}

func (s *Service) recordAuditError(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	s.recordAudit(ctx, op, entityID, duration, err)
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	if s.opts.audit == nil {
		return
	}
	meta := operationCatalog[op]
	entry := AuditEntry{
		Operation:  op,
		Entity:     meta.Entity,
		Action:     meta.Action,
		EntityID:   entityID,
		Status:     AuditStatusSuccess,
		Duration:   duration,
		OccurredAt: s.opts.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.opts.audit.Record(ctx, entry)
}

// CreateComponent validates and persists a new component definition. New
// components start active.
func (s *Service) CreateComponent(ctx context.Context, component Component) (Component, Result, error) {
	var created Component
	res, err := s.run(ctx, "create_component", func(ctx context.Context) (string, Result, error) {
		if err := validateComponent(component); err != nil {
			return "", Result{}, err
		}
		component.IsActive = true
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateComponent(component)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdateComponent mutates a component and re-validates the result.
func (s *Service) UpdateComponent(ctx context.Context, id string, mutator func(*Component) error) (Component, Result, error) {
	var updated Component
	res, err := s.run(ctx, "update_component", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateComponent(id, func(c *Component) error {
				if err := mutator(c); err != nil {
					return err
				}
				return validateComponent(*c)
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// DeactivateComponent retires a component definition without deleting it.
// Existing instances keep referencing it; new instances should not be created
// from inactive components.
func (s *Service) DeactivateComponent(ctx context.Context, id string) (Component, Result, error) {
	var updated Component
	res, err := s.run(ctx, "deactivate_component", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateComponent(id, func(c *Component) error {
				c.IsActive = false
				return nil
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// DeleteComponent removes a component definition. The store refuses the
// delete while instances reference it and cascades parameters, material
// requirements, and documentation.
func (s *Service) DeleteComponent(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_component", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteComponent(id)
		})
		return id, res, err
	})
}

// CreateParameter validates and persists a parameter definition scoped to a
// component.
func (s *Service) CreateParameter(ctx context.Context, parameter Parameter) (Parameter, Result, error) {
	var created Parameter
	res, err := s.run(ctx, "create_parameter", func(ctx context.Context) (string, Result, error) {
		if err := parameter.ValidateDefinition(); err != nil {
			return "", Result{}, err
		}
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateParameter(parameter)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdateParameter mutates a parameter definition and re-validates it.
func (s *Service) UpdateParameter(ctx context.Context, id string, mutator func(*Parameter) error) (Parameter, Result, error) {
	var updated Parameter
	res, err := s.run(ctx, "update_parameter", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateParameter(id, func(p *Parameter) error {
				if err := mutator(p); err != nil {
					return err
				}
				return p.ValidateDefinition()
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// DeleteParameter removes a parameter definition and cascades its values.
func (s *Service) DeleteParameter(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_parameter", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteParameter(id)
		})
		return id, res, err
	})
}

// CreateInstance stamps a new instance from a component definition. The
// instance starts planned at version 1 with a default finish property, and
// receives the next value of the shared dense internal sequence. When the
// caller supplies no geometry the component's base geometry is copied in
// before validation.
func (s *Service) CreateInstance(ctx context.Context, componentID string, instance ComponentInstance) (ComponentInstance, Result, error) {
	var created ComponentInstance
	res, err := s.run(ctx, "create_instance", func(ctx context.Context) (string, Result, error) {
		instance.ComponentID = componentID
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			component, ok := tx.FindComponent(componentID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityComponent, ID: componentID}
			}
			if !component.IsActive {
				return fmt.Errorf("component %s is inactive", componentID)
			}
			if instance.SpatialData.IsZero() {
				instance.SpatialData = component.BaseGeometry.Clone()
				instance.SpatialBBox = nil
			}
			if err := validateInstance(instance); err != nil {
				return err
			}
			if instance.Properties == nil {
				instance.Properties = map[string]any{}
			}
			if _, ok := instance.Properties["finish"]; !ok {
				instance.Properties["finish"] = "matte"
			}
			instance.Status = domain.StatusPlanned
			instance.Version = 1
			instance.InternalID = 0
			deriveInstanceBBox(&instance)
			var err error
			created, err = tx.CreateInstance(instance)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// CreateInstanceVersion derives a successor instance from an existing one:
// geometry, properties, and status carry over, the version increments, and a
// fresh internal id is assigned.
func (s *Service) CreateInstanceVersion(ctx context.Context, instanceID string) (ComponentInstance, Result, error) {
	var created ComponentInstance
	res, err := s.run(ctx, "create_instance_version", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			prior, ok := tx.FindInstance(instanceID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityInstance, ID: instanceID}
			}
			next := ComponentInstance{
				ComponentID: prior.ComponentID,
				SpatialData: prior.SpatialData.Clone(),
				SpatialBBox: prior.SpatialBBox,
				Properties:  prior.Properties,
				Version:     prior.Version + 1,
			}
			next.Status = prior.Status
			var err error
			created, err = tx.CreateInstance(next)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdateInstance mutates an instance and re-validates geometry and temporal
// ordering. Identity fields survive the mutator.
func (s *Service) UpdateInstance(ctx context.Context, id string, mutator func(*ComponentInstance) error) (ComponentInstance, Result, error) {
	var updated ComponentInstance
	res, err := s.run(ctx, "update_instance", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateInstance(id, func(inst *ComponentInstance) error {
				if err := mutator(inst); err != nil {
					return err
				}
				if err := validateInstance(*inst); err != nil {
					return err
				}
				deriveInstanceBBox(inst)
				return nil
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// TransitionInstanceStatus moves an instance to the given lifecycle state and
// stamps the change time.
func (s *Service) TransitionInstanceStatus(ctx context.Context, id string, next domain.Status) (ComponentInstance, Result, error) {
	var updated ComponentInstance
	res, err := s.run(ctx, "transition_instance_status", func(ctx context.Context) (string, Result, error) {
		now := s.opts.clock.Now()
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateInstance(id, func(inst *ComponentInstance) error {
				return inst.Transition(next, now)
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// DeleteInstance removes an instance. The store refuses the delete while
// connections reference it and cascades parameter values.
func (s *Service) DeleteInstance(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_instance", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteInstance(id)
		})
		return id, res, err
	})
}

// CreateConnection validates and persists a connection between two distinct
// instances. Endpoints are canonicalized before any other check so the
// unordered pair has one representation.
func (s *Service) CreateConnection(ctx context.Context, connection Connection) (Connection, Result, error) {
	var created Connection
	res, err := s.run(ctx, "create_connection", func(ctx context.Context) (string, Result, error) {
		first, second, err := domain.CanonicalPair(connection.Instance1ID, connection.Instance2ID)
		if err != nil {
			return "", Result{}, err
		}
		connection.Instance1ID, connection.Instance2ID = first, second
		if err := validateConnection(connection); err != nil {
			return "", Result{}, err
		}
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if dup, ok := tx.FindDuplicateConnection(connection.Instance1ID, connection.Instance2ID, ""); ok {
				return domain.DuplicateError{Entity: domain.EntityConnection, Detail: fmt.Sprintf("pair already connected by %s", dup)}
			}
			connection.Status = domain.StatusPlanned
			deriveConnectionBBox(&connection)
			var err error
			created, err = tx.CreateConnection(connection)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdateConnection mutates a connection and re-runs the full validation
// pipeline over the result.
func (s *Service) UpdateConnection(ctx context.Context, id string, mutator func(*Connection) error) (Connection, Result, error) {
	var updated Connection
	res, err := s.run(ctx, "update_connection", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateConnection(id, func(conn *Connection) error {
				if err := mutator(conn); err != nil {
					return err
				}
				if err := validateConnection(*conn); err != nil {
					return err
				}
				deriveConnectionBBox(conn)
				return nil
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// TransitionConnectionStatus moves a connection to the given lifecycle state.
func (s *Service) TransitionConnectionStatus(ctx context.Context, id string, next domain.Status) (Connection, Result, error) {
	var updated Connection
	res, err := s.run(ctx, "transition_connection_status", func(ctx context.Context) (string, Result, error) {
		now := s.opts.clock.Now()
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateConnection(id, func(conn *Connection) error {
				return conn.Transition(next, now)
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// DeleteConnection removes a connection and detaches any child connections
// referencing it as parent.
func (s *Service) DeleteConnection(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_connection", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteConnection(id)
		})
		return id, res, err
	})
}

// SetParameterValue records the value of a parameter on an instance,
// creating or replacing the (instance, parameter) entry. The payload is
// validated against the parameter definition; on failure the returned value
// carries ValidationInvalid and nothing is persisted. On success the stored
// value is marked ValidationValid.
func (s *Service) SetParameterValue(ctx context.Context, instanceID, parameterID string, payload ValuePayload, modifiedBy string) (ParameterValue, Result, error) {
	var recorded ParameterValue
	res, err := s.run(ctx, "set_parameter_value", func(ctx context.Context) (string, Result, error) {
		now := s.opts.clock.Now()
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			instance, ok := tx.FindInstance(instanceID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityInstance, ID: instanceID}
			}
			parameter, ok := tx.FindParameter(parameterID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityParameter, ID: parameterID}
			}
			if parameter.ComponentID != instance.ComponentID {
				return fmt.Errorf("parameter %s is not defined on component %s", parameterID, instance.ComponentID)
			}

			recorded = ParameterValue{
				InstanceID:  instanceID,
				ParameterID: parameterID,
				Value:       payload,
				RecordedAt:  now,
			}
			if modifiedBy != "" {
				recorded.ModifiedBy = &modifiedBy
			}
			if recorded.RecordedAt.Before(instance.CreatedAt) {
				recorded.ValidationStatus = domain.ValidationInvalid
				return domain.TemporalError{Detail: fmt.Sprintf("value recorded before instance %s was created", instanceID)}
			}
			if err := parameter.ValidateValue(payload.Value); err != nil {
				recorded.ValidationStatus = domain.ValidationInvalid
				return err
			}
			if err := parameter.ValidateUnit(payload.Unit); err != nil {
				recorded.ValidationStatus = domain.ValidationInvalid
				return err
			}
			recorded.ValidationStatus = domain.ValidationValid

			if existing, ok := tx.FindValueFor(instanceID, parameterID); ok {
				var err error
				recorded, err = tx.UpdateParameterValue(existing.ID, func(pv *ParameterValue) error {
					pv.Value = payload
					pv.ValidationStatus = domain.ValidationValid
					pv.RecordedAt = now
					pv.ModifiedBy = recorded.ModifiedBy
					return nil
				})
				return err
			}
			var err error
			recorded, err = tx.CreateParameterValue(recorded)
			return err
		})
		return recorded.ID, res, err
	})
	return recorded, res, err
}

// DeleteParameterValue removes a recorded value.
func (s *Service) DeleteParameterValue(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_parameter_value", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteParameterValue(id)
		})
		return id, res, err
	})
}

// CreateMaterialRequirement persists a material requirement for a component.
func (s *Service) CreateMaterialRequirement(ctx context.Context, requirement MaterialRequirement) (MaterialRequirement, Result, error) {
	var created MaterialRequirement
	res, err := s.run(ctx, "create_material_requirement", func(ctx context.Context) (string, Result, error) {
		if requirement.MaterialCode == "" {
			return "", Result{}, domain.SchemaError{Field: "material_code", Detail: "required"}
		}
		if requirement.Quantity <= 0 {
			return "", Result{}, domain.ValueError{Parameter: "quantity", Detail: "must be positive"}
		}
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateMaterialRequirement(requirement)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// CreateDocumentation persists a documentation entry for a component.
func (s *Service) CreateDocumentation(ctx context.Context, doc Documentation) (Documentation, Result, error) {
	var created Documentation
	res, err := s.run(ctx, "create_documentation", func(ctx context.Context) (string, Result, error) {
		if doc.Title == "" {
			return "", Result{}, domain.SchemaError{Field: "title", Detail: "required"}
		}
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateDocumentation(doc)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}
