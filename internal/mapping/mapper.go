// Package mapping proposes how source headers map onto the canonical fields
// of an import type and projects rows through an accepted proposal.
//
// Scoring only ever looks at the bounded sample. Applying a Set to the full
// dataset streams rows in chunks so memory stays flat for large exports.
package mapping

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/schema"
	"github.com/JonMunkholm/posimport/internal/source"
)

const maxSampleValues = 5

// Mapper builds and applies mapping sets. It holds no per-call state and is
// safe for concurrent use.
type Mapper struct {
	weights         Weights
	specializations map[schema.ImportType]Specialization
	sampleRows      int
	logger          *slog.Logger
	now             func() time.Time
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithWeights replaces the default scoring weights.
func WithWeights(w Weights) Option {
	return func(m *Mapper) { m.weights = w }
}

// WithSpecialization registers domain knowledge for one import type,
// replacing any existing one for that type.
func WithSpecialization(s Specialization) Option {
	return func(m *Mapper) { m.specializations[s.ImportType()] = s }
}

// WithSampleRows bounds how many sample rows are scored.
func WithSampleRows(n int) Option {
	return func(m *Mapper) {
		if n > 0 {
			m.sampleRows = n
		}
	}
}

// WithLogger sets the logger used for transformation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// New creates a Mapper with the menu specialization registered.
func New(opts ...Option) *Mapper {
	m := &Mapper{
		weights:         DefaultWeights(),
		specializations: map[schema.ImportType]Specialization{schema.Menu: MenuSpecialization{}},
		sampleRows:      source.DefaultSampleRows,
		logger:          slog.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type scored struct {
	field    schema.Field
	score    int
	exact    bool
	patterns []string
}

// DetectMappings proposes a mapping for every header from the sample rows.
// Each header maps to its best target scoring at least the threshold;
// headers with no such target are left unmapped. Conflicts are recorded on
// the Set and never stop detection.
func (m *Mapper) DetectMappings(headers []string, rows []source.Row, importType schema.ImportType) (*Set, error) {
	sc, err := schema.MustGet(importType)
	if err != nil {
		return nil, err
	}
	if len(rows) > m.sampleRows {
		rows = rows[:m.sampleRows]
	}
	sp := m.specializations[importType]

	set := &Set{
		ID:         uuid.New(),
		ImportType: importType,
		Mappings:   make(map[string]*FieldMapping),
		CreatedAt:  m.now().UTC(),
	}

	for _, h := range headers {
		if containsString(set.Headers, h) {
			m.logger.Warn("repeated header ignored", "header", h)
			continue
		}
		set.Headers = append(set.Headers, h)

		values := make([]string, 0, len(rows))
		for _, r := range rows {
			values = append(values, r[h])
		}
		col := column{
			header:  h,
			norm:    schema.NormalizeHeader(h),
			values:  values,
			profile: cell.InferColumn(values),
		}

		if fm := m.mapColumn(col, sc, sp); fm != nil {
			set.Mappings[h] = fm
		}
	}

	set.Conflicts = m.resolve(set, sc)
	set.refresh(sc)

	m.logger.Debug("mappings detected",
		"import_type", importType,
		"headers", len(set.Headers),
		"mapped", len(set.Mappings),
		"conflicts", len(set.Conflicts),
		"completeness", set.CompletenessScore,
	)
	return set, nil
}

func (m *Mapper) mapColumn(col column, sc schema.Schema, sp Specialization) *FieldMapping {
	var cands []scored
	for _, f := range sc.Fields {
		score, patterns := scoreField(col, f, sp, m.weights)
		if score < m.weights.Threshold || score == 0 {
			continue
		}
		cands = append(cands, scored{
			field:    f,
			score:    score,
			exact:    col.norm == schema.NormalizeHeader(f.Name),
			patterns: patterns,
		})
	}
	if len(cands) == 0 {
		return nil
	}

	// Stable: equal scores keep schema declaration order.
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].exact && !cands[j].exact
	})

	best := cands[0]
	fm := &FieldMapping{
		SourceHeader:     col.header,
		TargetField:      best.field.Name,
		Confidence:       best.score,
		DataType:         best.field.Type,
		InferredType:     col.profile.Kind,
		ValidationRules:  validationRules(best.field),
		SampleValues:     sampleValues(col.values),
		DetectedPatterns: detectedPatterns(col.values, best.patterns),
		Primary:          true,
	}

	if sp != nil {
		fm.Transformations = sp.Transforms(best.field, col.values)
	}
	if fm.Transformations == nil {
		fm.Transformations = defaultTransforms(best.field, col.values)
	}

	for _, c := range cands[1:min(len(cands), m.weights.MaxAlternates+1)] {
		fm.Alternates = append(fm.Alternates, Candidate{TargetField: c.field.Name, Confidence: c.score})
	}
	return fm
}

// resolve demotes all but the best header per target field and collects
// conflicts. Ties go to the earlier header.
func (m *Mapper) resolve(set *Set, sc schema.Schema) []Conflict {
	var conflicts []Conflict

	byTarget := make(map[string][]*FieldMapping)
	for _, h := range set.Headers {
		if fm, ok := set.Mappings[h]; ok {
			byTarget[fm.TargetField] = append(byTarget[fm.TargetField], fm)
		}
	}

	for _, f := range sc.Fields {
		group := byTarget[f.Name]
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool { return group[i].Confidence > group[j].Confidence })

		headers := make([]string, len(group))
		for i, fm := range group {
			fm.Primary = i == 0
			headers[i] = fm.SourceHeader
		}
		conflicts = append(conflicts, Conflict{
			Type:        DuplicateTarget,
			TargetField: f.Name,
			Headers:     headers,
			Severity:    issue.High,
			Message: fmt.Sprintf("%d headers map to %s; keeping %q",
				len(group), f.Name, group[0].SourceHeader),
		})
	}

	for _, h := range set.Headers {
		fm, ok := set.Mappings[h]
		if !ok {
			continue
		}
		if typeMismatch(fm.DataType, cell.ColumnProfile{Kind: fm.InferredType, NonEmpty: nonEmpty(fm.SampleValues)}) {
			conflicts = append(conflicts, Conflict{
				Type:        DataTypeMismatch,
				TargetField: fm.TargetField,
				Headers:     []string{h},
				Severity:    issue.Medium,
				Message: fmt.Sprintf("%s expects %s but %q looks %s",
					fm.TargetField, fm.DataType, h, fm.InferredType),
			})
		}
		if fm.Confidence < m.weights.LowConfidence {
			conflicts = append(conflicts, Conflict{
				Type:        LowConfidence,
				TargetField: fm.TargetField,
				Headers:     []string{h},
				Severity:    issue.Low,
				Message:     fmt.Sprintf("%q maps to %s with low confidence (%d)", h, fm.TargetField, fm.Confidence),
			})
		}
	}
	return conflicts
}

// refresh recomputes the aggregate scores from the mappings.
//
// Completeness is the percentage of required fields with a primary mapping.
// Confidence is the mean primary confidence scaled by the share of headers
// that have a primary mapping.
func (s *Set) refresh(sc schema.Schema) {
	s.CompletenessScore = s.completeness(sc)

	primaries := s.PrimaryMappings()
	if len(primaries) == 0 || len(s.Headers) == 0 {
		s.Confidence = 0
		return
	}
	sum := 0
	for _, fm := range primaries {
		sum += fm.Confidence
	}
	mean := float64(sum) / float64(len(primaries))
	coverage := float64(len(primaries)) / float64(len(s.Headers))
	s.Confidence = round1(mean * coverage)
}

// completeness is the percentage of required fields of sc with a primary
// mapping in s.
func (s *Set) completeness(sc schema.Schema) float64 {
	required := sc.Required()
	if len(required) == 0 {
		return 100
	}
	mapped := 0
	for _, f := range required {
		if _, ok := s.Primary(f.Name); ok {
			mapped++
		}
	}
	return round1(float64(mapped) / float64(len(required)) * 100)
}

// ValidateMappings checks that a Set can drive an import of importType.
// Missing required fields are errors; conflicts are warnings. set is not
// modified.
func (m *Mapper) ValidateMappings(set *Set, importType schema.ImportType) Check {
	var check Check

	sc, err := schema.MustGet(importType)
	if err != nil {
		check.Errors = append(check.Errors, issue.Issue{
			Kind:     issue.MissingRequiredField,
			Message:  err.Error(),
			Severity: issue.Critical,
		})
		return check
	}
	if set.ImportType != importType {
		check.Errors = append(check.Errors, issue.Issue{
			Kind:     issue.MappingConflict,
			Value:    string(set.ImportType),
			Message:  fmt.Sprintf("mapping set was built for %s, not %s", set.ImportType, importType),
			Severity: issue.Critical,
		})
	}

	check.Errors = append(check.Errors, MissingRequired(set, sc)...)

	for _, c := range set.Conflicts {
		check.Warnings = append(check.Warnings, issue.Issue{
			Kind:     issue.MappingConflict,
			Field:    c.TargetField,
			Message:  c.Message,
			Severity: c.Severity,
		})
	}

	check.CompletenessScore = set.completeness(sc)
	check.IsValid = len(check.Errors) == 0
	return check
}

// MissingRequired returns one critical issue per required field of sc that
// has no primary mapping in set.
func MissingRequired(set *Set, sc schema.Schema) []issue.Issue {
	var out []issue.Issue
	for _, f := range sc.Required() {
		if _, ok := set.Primary(f.Name); ok {
			continue
		}
		msg := issue.Describe(issue.MissingRequiredField)
		out = append(out, issue.Issue{
			Kind:       issue.MissingRequiredField,
			Field:      f.Name,
			Message:    fmt.Sprintf("required field %s is not mapped", f.Name),
			Severity:   issue.Critical,
			Suggestion: msg.Action,
		})
	}
	return out
}

func sampleValues(values []string) []string {
	out := make([]string, 0, maxSampleValues)
	for _, v := range values {
		if v = cell.Clean(v); v != "" {
			out = append(out, v)
			if len(out) == maxSampleValues {
				break
			}
		}
	}
	return out
}

func detectedPatterns(values []string, specialized []string) []string {
	out := append([]string(nil), specialized...)
	if anyCurrency(values) {
		out = append(out, "currency_symbol")
	}
	return out
}

func nonEmpty(values []string) int {
	n := 0
	for _, v := range values {
		if cell.Clean(v) != "" {
			n++
		}
	}
	return n
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
