package mapping

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/schema"
)

// column is one header's sample, pre-digested for scoring.
type column struct {
	header  string
	norm    string
	values  []string
	profile cell.ColumnProfile
}

// scoreField scores mapping c onto f and returns the detected patterns.
//
// An exact name match short-circuits to w.Exact. Otherwise type agreement
// and specialization patterns only count once the header itself names the
// field somehow (containment, synonym, keyword or close spelling); a shared
// data type alone is not evidence.
func scoreField(c column, f schema.Field, sp Specialization, w Weights) (int, []string) {
	target := schema.NormalizeHeader(f.Name)
	if c.norm == target {
		return w.Exact, nil
	}

	score := 0
	named := false

	if containsPhrase(c.norm, target) || containsPhrase(target, c.norm) {
		score += w.Contains
		named = true
	}
	for _, syn := range f.Synonyms {
		if c.norm == syn {
			score += w.Synonym
			named = true
			break
		}
	}
	if sim := similarity(c.norm, target); sim >= w.SimilarityFloor && sim > 0 {
		score += int(math.Round(sim * float64(w.Similarity)))
		named = true
	}

	var boost Boost
	if sp != nil {
		boost = sp.Boost(c.header, f, c.values, w)
		if boost.Keyword > 0 {
			named = true
		}
	}
	if !named {
		return 0, nil
	}

	score += typeCompatibility(f.Type, c.profile, w.TypeCompatibility)
	score += boost.Keyword + min(boost.Pattern, w.PatternCap)

	return min(score, 100), boost.Patterns
}

// containsPhrase reports whether needle occurs in haystack on word
// boundaries, so "id" is found in "item id" but not in "paid".
func containsPhrase(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// similarity is 1 - distance/maxlen over runes.
func similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-d) / float64(maxLen)
}

// typeCompatibility scales points by the share of sample values whose kind
// fits the declared type.
func typeCompatibility(t schema.DataType, p cell.ColumnProfile, points int) int {
	if p.NonEmpty == 0 {
		return 0
	}
	fit := 0
	for _, k := range compatibleKinds(t) {
		fit += p.Counts[k]
	}
	return int(math.Round(float64(fit) / float64(p.NonEmpty) * float64(points)))
}

func compatibleKinds(t schema.DataType) []cell.Kind {
	switch t {
	case schema.TypeDecimal, schema.TypeInteger:
		return []cell.Kind{cell.KindNumeric}
	case schema.TypeDate:
		return []cell.Kind{cell.KindDate}
	case schema.TypeEmail:
		return []cell.Kind{cell.KindEmail}
	case schema.TypeBoolean:
		return []cell.Kind{cell.KindBoolean}
	case schema.TypePhone:
		return []cell.Kind{cell.KindNumeric, cell.KindText}
	default:
		return []cell.Kind{cell.KindText}
	}
}

// typeMismatch reports whether the dominant kind of a column contradicts
// the declared type. Text-like targets accept anything.
func typeMismatch(t schema.DataType, p cell.ColumnProfile) bool {
	if p.NonEmpty == 0 {
		return false
	}
	switch t {
	case schema.TypeString, schema.TypeList, schema.TypePhone:
		return false
	case schema.TypeBoolean:
		return p.Kind != cell.KindBoolean && p.Kind != cell.KindNumeric
	}
	for _, k := range compatibleKinds(t) {
		if p.Kind == k {
			return false
		}
	}
	return true
}

func validationRules(f schema.Field) []string {
	var rules []string
	if f.Required {
		rules = append(rules, "required")
	}
	rules = append(rules, "type:"+string(f.Type))
	return rules
}
