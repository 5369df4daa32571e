// Package issue defines the severity-tagged findings produced by detection,
// mapping and validation.
//
// Findings are values, never errors: the pipeline collects them and keeps
// going. Only a [SystemError] (the sample cannot be read at all, malformed
// input handed to the core) aborts an operation.
package issue

import (
	"errors"
	"fmt"
)

// Severity ranks how much a finding should worry the reviewer.
type Severity string

const (
	Critical Severity = "critical"
	Error    Severity = "error"
	High     Severity = "high"
	Medium   Severity = "medium"
	Warning  Severity = "warning"
	Low      Severity = "low"
	Info     Severity = "info"
)

// Class groups severities for scoring.
type Class int

const (
	ClassNone Class = iota
	ClassWarning
	ClassCritical
)

// Class returns the scoring class of s. Critical and error findings block
// validity; high, medium and warning findings degrade accuracy.
func (s Severity) Class() Class {
	switch s {
	case Critical, Error:
		return ClassCritical
	case High, Medium, Warning:
		return ClassWarning
	default:
		return ClassNone
	}
}

// ParseSeverity converts a configured severity name, defaulting to Warning.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case Critical, Error, High, Medium, Warning, Low, Info:
		return Severity(s)
	default:
		return Warning
	}
}

// Kind identifies what went wrong.
type Kind string

const (
	DetectionUnavailable  Kind = "detection_unavailable"
	MappingConflict       Kind = "mapping_conflict"
	MissingRequiredField  Kind = "missing_required_field"
	TypeMismatch          Kind = "type_mismatch"
	ValueOutOfRange       Kind = "value_out_of_range"
	ArithmeticMismatch    Kind = "arithmetic_mismatch"
	BusinessRuleViolation Kind = "business_rule_violation"
	DuplicateRecord       Kind = "duplicate_record"
	InconsistentField     Kind = "inconsistent_field"
	TransformationFailure Kind = "transformation_failure"
)

// Issue is one finding about a field, a row, or a whole file.
type Issue struct {
	Kind       Kind     `json:"kind"`
	Field      string   `json:"field,omitempty"`
	Value      string   `json:"value,omitempty"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func (i Issue) String() string {
	if i.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Field, i.Message)
	}
	return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
}

// Count tallies issues by scoring class.
func Count(issues []Issue) (critical, warnings int) {
	for _, is := range issues {
		switch is.Severity.Class() {
		case ClassCritical:
			critical++
		case ClassWarning:
			warnings++
		}
	}
	return critical, warnings
}

// HasCritical reports whether any issue blocks validity.
func HasCritical(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity.Class() == ClassCritical {
			return true
		}
	}
	return false
}

// ErrEmptySample is wrapped by a SystemError when the caller hands over no sample.
var ErrEmptySample = errors.New("empty sample")

// SystemError reports a condition that prevents an operation from running
// at all. It is never mixed into row-level issues; the caller decides
// whether to retry.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }

// NewSystemError wraps err as a SystemError for op.
func NewSystemError(op string, err error) *SystemError {
	return &SystemError{Op: op, Err: err}
}

// IsSystemError reports whether err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}
