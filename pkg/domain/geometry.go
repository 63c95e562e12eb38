package domain

import (
	"fmt"
	"math"
)

// GridUnit is the base planning unit. Every x and y ordinate of a stored
// geometry must be an integer multiple of it.
const GridUnit = 25.0

// Coordinate is a point in 3D space.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Geometry is a 3D shape expressed as one or more closed coordinate rings.
// The first ring is the outer boundary; subsequent rings are holes.
type Geometry struct {
	Rings [][]Coordinate `json:"rings"`
}

// BoundingBox is the axis-aligned 3D envelope of a geometry.
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MinZ float64 `json:"min_z"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
	MaxZ float64 `json:"max_z"`
}

// IsZero reports whether the geometry carries no rings at all.
func (g Geometry) IsZero() bool {
	return len(g.Rings) == 0
}

// Clone returns a deep copy of the geometry.
func (g Geometry) Clone() Geometry {
	if g.IsZero() {
		return Geometry{}
	}
	rings := make([][]Coordinate, len(g.Rings))
	for i, ring := range g.Rings {
		rings[i] = append([]Coordinate(nil), ring...)
	}
	return Geometry{Rings: rings}
}

// Validate3D fails when the geometry is absent or not a well-formed 3D shape:
// every ring must hold at least four coordinates and close on its first point.
func (g Geometry) Validate3D(field string) error {
	if g.IsZero() {
		return GeometryError{Field: field, Reason: GeometryInvalid, Detail: "geometry is absent"}
	}
	for i, ring := range g.Rings {
		if len(ring) < 4 {
			return GeometryError{Field: field, Reason: GeometryInvalid, Detail: fmt.Sprintf("ring %d has %d coordinates, need at least 4", i, len(ring))}
		}
		if ring[0] != ring[len(ring)-1] {
			return GeometryError{Field: field, Reason: GeometryInvalid, Detail: fmt.Sprintf("ring %d is not closed", i)}
		}
	}
	return nil
}

// ValidateGridAlignment fails when any x or y ordinate of the first ring is
// not an exact multiple of GridUnit. Only the first ring is inspected and z
// is excluded from the check.
func (g Geometry) ValidateGridAlignment(field string) error {
	if g.IsZero() {
		return nil
	}
	for _, c := range g.Rings[0] {
		if math.Mod(c.X, GridUnit) != 0 || math.Mod(c.Y, GridUnit) != 0 {
			return GeometryError{
				Field:  field,
				Reason: GeometryMisalignedGrid,
				Detail: fmt.Sprintf("coordinate (%g, %g, %g) is off the %gmm grid", c.X, c.Y, c.Z, GridUnit),
			}
		}
	}
	return nil
}

// Envelope derives the axis-aligned bounding box over every ring of the
// geometry. Recomputing from the same geometry always yields an equal box.
func (g Geometry) Envelope() BoundingBox {
	box := BoundingBox{
		MinX: math.Inf(1), MinY: math.Inf(1), MinZ: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1), MaxZ: math.Inf(-1),
	}
	if g.IsZero() {
		return BoundingBox{}
	}
	for _, ring := range g.Rings {
		for _, c := range ring {
			box.MinX = math.Min(box.MinX, c.X)
			box.MinY = math.Min(box.MinY, c.Y)
			box.MinZ = math.Min(box.MinZ, c.Z)
			box.MaxX = math.Max(box.MaxX, c.X)
			box.MaxY = math.Max(box.MaxY, c.Y)
			box.MaxZ = math.Max(box.MaxZ, c.Z)
		}
	}
	return box
}
