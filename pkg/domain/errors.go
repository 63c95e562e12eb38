package domain

import (
	"errors"
	"fmt"
	"strings"
)

// GeometryReason distinguishes the geometry validation failure classes.
type GeometryReason string

// Geometry failure reasons.
const (
	// GeometryInvalid marks an absent or malformed 3D shape.
	GeometryInvalid GeometryReason = "invalid"
	// GeometryMisalignedGrid marks a shape off the base planning grid.
	GeometryMisalignedGrid GeometryReason = "misaligned_grid"
)

// FormatError reports a string field that does not match its required pattern.
type FormatError struct {
	Field   string
	Value   string
	Pattern string
}

func (e FormatError) Error() string {
	return fmt.Sprintf("%s %q does not match %s", e.Field, e.Value, e.Pattern)
}

// GeometryError reports an absent, malformed, or grid-misaligned geometry.
type GeometryError struct {
	Field  string
	Reason GeometryReason
	Detail string
}

func (e GeometryError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s geometry: %s", e.Field, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s: %s geometry", e.Field, e.Reason)
}

// SchemaError reports missing or malformed structured fields.
type SchemaError struct {
	Field   string
	Missing []string
	Detail  string
}

func (e SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s missing required keys: %s", e.Field, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}

// ValueError reports a parameter value violating its definition's type,
// range, step, or unit constraints.
type ValueError struct {
	Parameter string
	Detail    string
}

func (e ValueError) Error() string {
	return fmt.Sprintf("parameter %s: %s", e.Parameter, e.Detail)
}

// LifecycleError reports a status outside the lifecycle enum.
type LifecycleError struct {
	Status Status
}

func (e LifecycleError) Error() string {
	return fmt.Sprintf("invalid status %q", e.Status)
}

// DuplicateError reports a uniqueness violation detected before or during
// persistence. Storage-level constraint violations surface as this class too.
type DuplicateError struct {
	Entity EntityType
	Detail string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Entity, e.Detail)
}

// SelfConnectionError reports an attempt to connect an instance to itself.
type SelfConnectionError struct {
	InstanceID string
}

func (e SelfConnectionError) Error() string {
	return fmt.Sprintf("connection references instance %s on both sides", e.InstanceID)
}

// TemporalError reports a timestamp ordering violation.
type TemporalError struct {
	Detail string
}

func (e TemporalError) Error() string {
	return e.Detail
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ErrNotImplemented marks a declared but unimplemented extension point, so
// that enabling it fails loudly rather than passing silently.
var ErrNotImplemented = errors.New("not yet implemented")
