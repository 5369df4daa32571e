package mapping

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/schema"
	"github.com/JonMunkholm/posimport/internal/source"
)

// Candidate is a scored target field for one header.
type Candidate struct {
	TargetField string `json:"target_field"`
	Confidence  int    `json:"confidence"`
}

// FieldMapping maps one source header onto a canonical field.
type FieldMapping struct {
	SourceHeader     string          `json:"source_header"`
	TargetField      string          `json:"target_field"`
	Confidence       int             `json:"confidence"`
	DataType         schema.DataType `json:"data_type"`
	InferredType     cell.Kind       `json:"inferred_type"`
	Transformations  []Transform     `json:"transformation_rules"`
	ValidationRules  []string        `json:"validation_rules"`
	SampleValues     []string        `json:"sample_values"`
	DetectedPatterns []string        `json:"detected_patterns"`
	// Primary is false when another header won the same target field.
	Primary    bool        `json:"primary"`
	Alternates []Candidate `json:"alternates,omitempty"`
}

// ConflictType classifies a mapping conflict.
type ConflictType string

const (
	DuplicateTarget  ConflictType = "duplicate_target"
	DataTypeMismatch ConflictType = "data_type_mismatch"
	LowConfidence    ConflictType = "low_confidence"
)

// Conflict is an advisory finding about the proposed mappings.
type Conflict struct {
	Type        ConflictType   `json:"type"`
	TargetField string         `json:"target_field"`
	Headers     []string       `json:"headers"`
	Severity    issue.Severity `json:"severity"`
	Message     string         `json:"message"`
}

// Set is the complete proposal for one file. It is plain data and can be
// stored as a template and reloaded with Unmarshal.
type Set struct {
	ID                uuid.UUID                `json:"id"`
	ImportType        schema.ImportType        `json:"import_type"`
	Headers           []string                 `json:"headers"`
	Mappings          map[string]*FieldMapping `json:"mappings"`
	Conflicts         []Conflict               `json:"conflicts"`
	CompletenessScore float64                  `json:"completeness_score"`
	Confidence        float64                  `json:"confidence"`
	CreatedAt         time.Time                `json:"created_at"`
}

// Primary returns the primary mapping for a target field.
func (s *Set) Primary(target string) (*FieldMapping, bool) {
	for _, h := range s.Headers {
		if m, ok := s.Mappings[h]; ok && m.Primary && m.TargetField == target {
			return m, true
		}
	}
	return nil, false
}

// PrimaryMappings returns the primary mappings in header order.
func (s *Set) PrimaryMappings() []*FieldMapping {
	var out []*FieldMapping
	for _, h := range s.Headers {
		if m, ok := s.Mappings[h]; ok && m.Primary {
			out = append(out, m)
		}
	}
	return out
}

// Unmapped returns the headers with no proposed mapping.
func (s *Set) Unmapped() []string {
	var out []string
	for _, h := range s.Headers {
		if _, ok := s.Mappings[h]; !ok {
			out = append(out, h)
		}
	}
	return out
}

// Override points header at target with full confidence, demoting any other
// primary mapping of that target. It is how a reviewer corrects a proposal.
func (s *Set) Override(header, target string) error {
	if !containsString(s.Headers, header) {
		return fmt.Errorf("unknown header %q", header)
	}
	sc, err := schema.MustGet(s.ImportType)
	if err != nil {
		return err
	}
	f, ok := sc.Field(target)
	if !ok {
		return fmt.Errorf("unknown target field %q for %s", target, s.ImportType)
	}

	for _, m := range s.Mappings {
		if m.TargetField == target && m.SourceHeader != header {
			m.Primary = false
		}
	}

	m, ok := s.Mappings[header]
	if !ok {
		m = &FieldMapping{SourceHeader: header}
		s.Mappings[header] = m
	}
	m.TargetField = target
	m.DataType = f.Type
	m.Confidence = 100
	m.Primary = true
	m.Transformations = defaultTransforms(f, m.SampleValues)
	m.ValidationRules = validationRules(f)

	s.refresh(sc)
	return nil
}

// Marshal encodes a set as JSON.
func Marshal(s *Set) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a set produced by Marshal.
func Unmarshal(data []byte) (*Set, error) {
	var s Set
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode mapping set: %w", err)
	}
	if s.Mappings == nil {
		s.Mappings = make(map[string]*FieldMapping)
	}
	return &s, nil
}

// Record is one source row projected onto canonical fields. Empty cells are
// stored as nil.
type Record struct {
	Fields          map[string]any `json:"fields"`
	SourceRowNumber int            `json:"source_row_number"`
	SourceRow       source.Row     `json:"source_row"`
	MappedAt        time.Time      `json:"mapped_at"`
}

// Check is the outcome of ValidateMappings.
type Check struct {
	IsValid           bool          `json:"is_valid"`
	Errors            []issue.Issue `json:"errors"`
	Warnings          []issue.Issue `json:"warnings"`
	CompletenessScore float64       `json:"completeness_score"`
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
