package validation

import (
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/schema"
)

// kindList marks list values, which cell.Classify never produces.
const kindList cell.Kind = "list"

// maxAffectedRows caps the row numbers kept per kind and per report entry.
const maxAffectedRows = 100

// Any field whose non-null values are not all one kind is inconsistent.
// Below mixedShare the field is mixed rather than mostly uniform and costs
// twice the penalty.
const (
	mixedShare       = 0.8
	inconsistentCost = 10.0
	mixedFieldCost   = 20.0
)

// kindOrder breaks ties when picking the dominant kind.
var kindOrder = []cell.Kind{cell.KindNumeric, cell.KindDate, cell.KindEmail, cell.KindBoolean, kindList, cell.KindText}

// FieldConsistency summarizes how uniform one field is across all records.
type FieldConsistency struct {
	Field         string     `json:"field"`
	NullRatio     float64    `json:"null_ratio"`
	DominantKind  cell.Kind  `json:"dominant_kind"`
	DominantShare float64    `json:"dominant_share"`
	Uniqueness    float64    `json:"uniqueness"`
	Inconsistent  bool       `json:"inconsistent"`
	Kind          issue.Kind `json:"kind,omitempty"`
	Code          string     `json:"code,omitempty"`
	AffectedRows  []int      `json:"affected_rows,omitempty"`
}

// Penalty is what the field costs the consistency score. It never shrinks
// as the dominant share falls.
func (fc FieldConsistency) Penalty() float64 {
	switch {
	case !fc.Inconsistent:
		return 0
	case fc.DominantShare < mixedShare:
		return mixedFieldCost
	default:
		return inconsistentCost
	}
}

// fieldStats is the mergeable per-field counter behind FieldConsistency.
type fieldStats struct {
	total    int
	nulls    int
	kinds    map[cell.Kind]int
	kindRows map[cell.Kind][]int
	distinct map[string]struct{}
}

func newFieldStats() *fieldStats {
	return &fieldStats{
		kinds:    make(map[cell.Kind]int),
		kindRows: make(map[cell.Kind][]int),
		distinct: make(map[string]struct{}),
	}
}

func (s *fieldStats) add(v any, row int) {
	s.total++
	if empty(v) {
		s.nulls++
		return
	}
	k := kindOf(v)
	s.kinds[k]++
	if rows := s.kindRows[k]; len(rows) < maxAffectedRows || row < rows[len(rows)-1] {
		s.kindRows[k] = lowestRows(append(rows, row))
	}
	s.distinct[strings.ToLower(display(v))] = struct{}{}
}

func (s *fieldStats) merge(o *fieldStats) {
	s.total += o.total
	s.nulls += o.nulls
	for k, n := range o.kinds {
		s.kinds[k] += n
	}
	for k, rows := range o.kindRows {
		s.kindRows[k] = lowestRows(append(append([]int(nil), s.kindRows[k]...), rows...))
	}
	for v := range o.distinct {
		s.distinct[v] = struct{}{}
	}
}

func (s *fieldStats) summarize(field string) FieldConsistency {
	fc := FieldConsistency{Field: field, DominantKind: cell.KindEmpty}
	if s.total == 0 {
		return fc
	}
	fc.NullRatio = round3(float64(s.nulls) / float64(s.total))

	nonNull := s.total - s.nulls
	if nonNull == 0 {
		return fc
	}

	best := 0
	for _, k := range kindOrder {
		if s.kinds[k] > best {
			best, fc.DominantKind = s.kinds[k], k
		}
	}
	share := float64(best) / float64(nonNull)
	fc.DominantShare = round3(share)
	fc.Uniqueness = round3(float64(len(s.distinct)) / float64(nonNull))

	if best < nonNull {
		fc.Inconsistent = true
		fc.Kind = issue.InconsistentField
		fc.Code = issue.Describe(issue.InconsistentField).Code
		var rows []int
		for _, k := range kindOrder {
			if k != fc.DominantKind {
				rows = append(rows, s.kindRows[k]...)
			}
		}
		fc.AffectedRows = lowestRows(rows)
	}
	return fc
}

// lowestRows sorts rows and keeps the first maxAffectedRows, so merging in
// any order keeps the same set.
func lowestRows(rows []int) []int {
	sort.Ints(rows)
	if len(rows) > maxAffectedRows {
		rows = rows[:maxAffectedRows]
	}
	return rows
}

func kindOf(v any) cell.Kind {
	switch x := v.(type) {
	case string:
		return cell.Classify(x)
	case time.Time:
		return cell.KindDate
	case bool:
		return cell.KindBoolean
	case []string:
		return kindList
	case float64, float32, int, int64, int32:
		return cell.KindNumeric
	}
	return cell.KindText
}

// orderedFields returns the fields with stats, schema fields first in
// declaration order, then any others sorted.
func orderedFields(importType schema.ImportType, stats map[string]*fieldStats) []string {
	var out []string
	seen := make(map[string]bool)
	if sc, ok := schema.Get(importType); ok {
		for _, f := range sc.Fields {
			if _, ok := stats[f.Name]; ok {
				out = append(out, f.Name)
				seen[f.Name] = true
			}
		}
	}
	var rest []string
	for f := range stats {
		if !seen[f] {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func round3(f float64) float64 {
	return float64(int(f*1000+0.5)) / 1000
}
