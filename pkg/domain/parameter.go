package domain

import (
	"fmt"
	"math"
)

// stepTolerance absorbs floating point error when checking step alignment.
const stepTolerance = 1e-10

// ValidateDefinition checks the parameter definition itself: numeric types
// must declare a unit and min/max bounds, and a step, when present, must be
// numeric.
func (p Parameter) ValidateDefinition() error {
	if !p.DataType.Valid() {
		return SchemaError{Field: "data_type", Detail: fmt.Sprintf("unknown data type %q", p.DataType)}
	}
	if !p.DataType.Numeric() {
		return nil
	}
	if p.Units == "" {
		return SchemaError{Field: "units", Detail: "units must be specified for numeric parameters"}
	}
	var missing []string
	for _, key := range []string{"min", "max"} {
		if _, ok := p.ValidRanges[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return SchemaError{Field: "valid_ranges", Missing: missing}
	}
	if step, ok := p.ValidRanges["step"]; ok {
		if _, ok := asFloat(step); !ok {
			return SchemaError{Field: "valid_ranges", Detail: "step must be numeric"}
		}
	}
	return nil
}

// ValidateValue checks a candidate value against the definition's type and
// range constraints. It fails on the first violated rule.
func (p Parameter) ValidateValue(value any) error {
	if value == nil {
		if p.IsRequired {
			return ValueError{Parameter: p.Name, Detail: "value is required"}
		}
		return nil
	}

	switch p.DataType {
	case DataTypeFloat:
		if _, ok := asFloat(value); !ok {
			return ValueError{Parameter: p.Name, Detail: fmt.Sprintf("value %v is not numeric", value)}
		}
	case DataTypeInteger:
		f, ok := asFloat(value)
		if !ok || f != math.Trunc(f) {
			return ValueError{Parameter: p.Name, Detail: fmt.Sprintf("value %v is not an integer", value)}
		}
	case DataTypeBoolean:
		if _, ok := value.(bool); !ok {
			return ValueError{Parameter: p.Name, Detail: fmt.Sprintf("value %v is not boolean", value)}
		}
	case DataTypeJSON:
		if _, ok := value.(map[string]any); !ok {
			return ValueError{Parameter: p.Name, Detail: fmt.Sprintf("value %v is not a mapping", value)}
		}
	}

	if !p.DataType.Numeric() {
		return nil
	}
	v, _ := asFloat(value)

	min, hasMin := asFloat(p.ValidRanges["min"])
	if hasMin && v < min {
		return ValueError{Parameter: p.Name, Detail: fmt.Sprintf("value %g is below minimum %g", v, min)}
	}
	if max, ok := asFloat(p.ValidRanges["max"]); ok && v > max {
		return ValueError{Parameter: p.Name, Detail: fmt.Sprintf("value %g is above maximum %g", v, max)}
	}
	if step, ok := asFloat(p.ValidRanges["step"]); ok && step != 0 {
		base := 0.0
		if hasMin {
			base = min
		}
		steps := (v - base) / step
		if math.Abs(math.Round(steps)-steps) >= stepTolerance {
			return ValueError{Parameter: p.Name, Detail: fmt.Sprintf("value %g is not a multiple of step %g from %g", v, step, base)}
		}
	}
	return nil
}

// ValidateUnit checks a provided unit against the definition. Parameters
// without a declared unit accept anything.
func (p Parameter) ValidateUnit(unit string) error {
	if p.Units == "" {
		return nil
	}
	if unit == "" {
		return ValueError{Parameter: p.Name, Detail: fmt.Sprintf("unit must be specified, expected %s", p.Units)}
	}
	if unit != p.Units {
		return ValueError{Parameter: p.Name, Detail: fmt.Sprintf("invalid unit %s, expected %s", unit, p.Units)}
	}
	return nil
}

// asFloat widens the numeric types a JSON payload or caller may supply.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
