package core

import (
	"fmt"

	"catalogcore/pkg/domain"
)

// validateComponent runs the ordered component checks. The first failing
// check aborts the pipeline; identity uniqueness is enforced by the store
// inside the transaction.
func validateComponent(c Component) error {
	if err := domain.ValidateClassification(c.Classification); err != nil {
		return err
	}
	if err := domain.ValidateVersion(c.Version); err != nil {
		return err
	}
	var missing []string
	for _, key := range domain.RequiredFunctionalProperties {
		if _, ok := c.FunctionalProperties[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return domain.SchemaError{Field: "functional_properties", Missing: missing}
	}
	if err := c.BaseGeometry.Validate3D("base_geometry"); err != nil {
		return err
	}
	return c.BaseGeometry.ValidateGridAlignment("base_geometry")
}

// validateInstance checks geometry and timestamp ordering on an instance.
func validateInstance(inst ComponentInstance) error {
	if err := inst.SpatialData.Validate3D("spatial_data"); err != nil {
		return err
	}
	if err := inst.SpatialData.ValidateGridAlignment("spatial_data"); err != nil {
		return err
	}
	if !inst.CreatedAt.IsZero() && !inst.ModifiedAt.IsZero() && inst.ModifiedAt.Before(inst.CreatedAt) {
		return domain.TemporalError{Detail: fmt.Sprintf("instance %s modified before created", inst.ID)}
	}
	return nil
}

// validateConnection checks the connection payload after canonicalization.
// Endpoint existence, duplicate pairs, and parent resolution are transaction
// concerns handled against live state.
func validateConnection(conn Connection) error {
	if err := conn.SpatialRelationship.Validate3D("spatial_relationship"); err != nil {
		return err
	}
	if err := conn.SpatialRelationship.ValidateGridAlignment("spatial_relationship"); err != nil {
		return err
	}
	if err := conn.ValidateProperties(); err != nil {
		return err
	}
	if err := domain.ValidateEMIShielding(conn.Properties); err != nil {
		return err
	}
	if !conn.CreatedAt.IsZero() && !conn.ModifiedAt.IsZero() && conn.ModifiedAt.Before(conn.CreatedAt) {
		return domain.TemporalError{Detail: fmt.Sprintf("connection %s modified before created", conn.ID)}
	}
	return nil
}

// deriveInstanceBBox fills the spatial envelope when geometry is present and
// no envelope has been recorded yet.
func deriveInstanceBBox(inst *ComponentInstance) {
	if inst.SpatialBBox == nil && !inst.SpatialData.IsZero() {
		box := inst.SpatialData.Envelope()
		inst.SpatialBBox = &box
	}
}

func deriveConnectionBBox(conn *Connection) {
	if conn.SpatialBBox == nil && !conn.SpatialRelationship.IsZero() {
		box := conn.SpatialRelationship.Envelope()
		conn.SpatialBBox = &box
	}
}
