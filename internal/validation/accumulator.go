package validation

import (
	"sort"
	"strings"

	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/mapping"
	"github.com/JonMunkholm/posimport/internal/schema"
)

// Accumulator collects validation results for a subset of records. Merging
// is associative and commutative, so chunks validated in any order and
// merged in any grouping produce the same report.
type Accumulator struct {
	importType schema.ImportType
	keySets    [][]string

	rows      int
	validRows int
	warnRows  int
	critical  int
	warnings  int
	cells     int
	filled    int

	rowIssues  map[int][]issue.Issue
	violations []RuleViolation
	dupes      []map[string][]int // per key set: key -> row numbers
	fields     map[string]*fieldStats
}

func newAccumulator(importType schema.ImportType, keySets [][]string) *Accumulator {
	a := &Accumulator{
		importType: importType,
		keySets:    keySets,
		rowIssues:  make(map[int][]issue.Issue),
		dupes:      make([]map[string][]int, len(keySets)),
		fields:     make(map[string]*fieldStats),
	}
	for i := range a.dupes {
		a.dupes[i] = make(map[string][]int)
	}
	return a
}

// Rows returns how many records have been accumulated.
func (a *Accumulator) Rows() int { return a.rows }

func (a *Accumulator) add(rec mapping.Record, row int, rr RowResult, violations []RuleViolation) {
	a.rows++

	issues := rr.Issues()
	c, w := issue.Count(issues)
	a.critical += c
	a.warnings += w
	if c == 0 {
		a.validRows++
	}
	if w > 0 {
		a.warnRows++
	}
	if len(issues) > 0 {
		a.rowIssues[row] = issues
	}

	for _, v := range violations {
		switch v.Severity.Class() {
		case issue.ClassCritical:
			a.critical++
		case issue.ClassWarning:
			a.warnings++
		}
	}
	a.violations = append(a.violations, violations...)

	for f, v := range rec.Fields {
		a.cells++
		if !empty(v) {
			a.filled++
		}
		st, ok := a.fields[f]
		if !ok {
			st = newFieldStats()
			a.fields[f] = st
		}
		st.add(v, row)
	}

	for i, keys := range a.keySets {
		if k, ok := duplicateKey(rec, keys); ok {
			a.dupes[i][k] = append(a.dupes[i][k], row)
		}
	}
}

// Merge folds o into a. o must come from the same engine and import type.
func (a *Accumulator) Merge(o *Accumulator) {
	a.rows += o.rows
	a.validRows += o.validRows
	a.warnRows += o.warnRows
	a.critical += o.critical
	a.warnings += o.warnings
	a.cells += o.cells
	a.filled += o.filled

	for row, issues := range o.rowIssues {
		a.rowIssues[row] = append(a.rowIssues[row], issues...)
	}
	a.violations = append(a.violations, o.violations...)

	for i := range a.dupes {
		if i >= len(o.dupes) {
			break
		}
		for k, rows := range o.dupes[i] {
			a.dupes[i][k] = append(a.dupes[i][k], rows...)
		}
	}

	for f, st := range o.fields {
		if mine, ok := a.fields[f]; ok {
			mine.merge(st)
			continue
		}
		cp := newFieldStats()
		cp.merge(st)
		a.fields[f] = cp
	}
}

// duplicateKey joins the case-folded values of keys, or reports false if
// any is empty.
func duplicateKey(rec mapping.Record, keys []string) (string, bool) {
	parts := make([]string, len(keys))
	for i, k := range keys {
		v := rec.Fields[k]
		if empty(v) {
			return "", false
		}
		parts[i] = strings.ToLower(strings.TrimSpace(display(v)))
	}
	return strings.Join(parts, "\x1f"), true
}

// DuplicateGroup is a set of rows sharing the same values for one key set.
type DuplicateGroup struct {
	Keys     []string       `json:"keys"`
	Values   []string       `json:"values"`
	Rows     []int          `json:"rows"`
	Severity issue.Severity `json:"severity"`
	Kind     issue.Kind     `json:"kind"`
	Code     string         `json:"code"`
}

// DuplicateAnalysis reports duplicates without removing anything.
type DuplicateAnalysis struct {
	TotalGroups  int              `json:"total_groups"`
	AffectedRows int              `json:"affected_rows"`
	Groups       []DuplicateGroup `json:"groups"`
}

func (a *Accumulator) duplicates(sev issue.Severity) DuplicateAnalysis {
	var da DuplicateAnalysis
	affected := make(map[int]bool)

	for i, keys := range a.keySets {
		var groups []DuplicateGroup
		for k, rows := range a.dupes[i] {
			if len(rows) < 2 {
				continue
			}
			rows = append([]int(nil), rows...)
			sort.Ints(rows)
			for _, r := range rows {
				affected[r] = true
			}
			groups = append(groups, DuplicateGroup{
				Keys:     keys,
				Values:   strings.Split(k, "\x1f"),
				Rows:     rows,
				Severity: sev,
				Kind:     issue.DuplicateRecord,
				Code:     issue.Describe(issue.DuplicateRecord).Code,
			})
		}
		sort.Slice(groups, func(x, y int) bool { return groups[x].Rows[0] < groups[y].Rows[0] })
		da.Groups = append(da.Groups, groups...)
	}

	da.TotalGroups = len(da.Groups)
	da.AffectedRows = len(affected)
	return da
}
