package models

import (
	"fmt"
	"math"
	"regexp"
)

// serialNumberPattern is the fixed serial format: 10 alphanumeric
// characters. Registration and ingestion validate against the same
// pattern so a serial that cannot be registered can never be ingested.
var serialNumberPattern = regexp.MustCompile(`^[A-Za-z0-9]{10}$`)

// ValidSerialNumber reports whether s matches the device serial format.
func ValidSerialNumber(s string) bool {
	return serialNumberPattern.MatchString(s)
}

// ValidationResult is the outcome of validating one candidate value
// against a parameter definition.
type ValidationResult struct {
	Valid  bool
	Reason string
}

func invalid(format string, args ...interface{}) ValidationResult {
	return ValidationResult{Valid: false, Reason: fmt.Sprintf(format, args...)}
}

// ValidateValue checks a candidate value against the parameter's data type
// and optional range bounds. Range checks run only after the type check
// passes and only for bounds that are set. This is a pure function: the
// ingestion pipeline treats failures as advisory warnings, not drops.
func (p *Parameter) ValidateValue(value interface{}) ValidationResult {
	if value == nil {
		return invalid("value is null")
	}

	switch p.DataType {
	case DataTypeBoolean:
		if _, ok := value.(bool); !ok {
			return invalid("expected boolean, got %T", value)
		}
		return ValidationResult{Valid: true}

	case DataTypeString:
		if _, ok := value.(string); !ok {
			return invalid("expected string, got %T", value)
		}
		return ValidationResult{Valid: true}

	case DataTypeInteger, DataTypeUnsignedInteger:
		num, ok := numericOf(value)
		if !ok {
			return invalid("expected integer, got %T", value)
		}
		if num != math.Trunc(num) {
			return invalid("expected integer, got fractional value %v", num)
		}
		if p.DataType == DataTypeUnsignedInteger && num < 0 {
			return invalid("expected unsigned integer, got negative value %v", num)
		}
		return p.checkRange(num)

	case DataTypeFloat, DataTypeSignedFloat:
		num, ok := numericOf(value)
		if !ok {
			return invalid("expected numeric value, got %T", value)
		}
		return p.checkRange(num)

	default:
		return invalid("unknown data type %q", p.DataType)
	}
}

func (p *Parameter) checkRange(num float64) ValidationResult {
	if p.MinValue != nil && num < *p.MinValue {
		return invalid("value %v below minimum %v", num, *p.MinValue)
	}
	if p.MaxValue != nil && num > *p.MaxValue {
		return invalid("value %v above maximum %v", num, *p.MaxValue)
	}
	return ValidationResult{Valid: true}
}

func numericOf(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
