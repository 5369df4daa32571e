// Package validation checks canonical records and scores the quality of an
// import.
//
// Row checks are independent, so records are validated in parallel and
// folded into an [Accumulator]. Accumulators merge associatively, which lets
// a caller validate chunk by chunk, stop between chunks, and still get a
// coherent (if incomplete) [Report].
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/mapping"
	"github.com/JonMunkholm/posimport/internal/schema"
	"github.com/JonMunkholm/posimport/internal/source"
)

// Options tune the engine.
type Options struct {
	DuplicateSeverity issue.Severity
	PriceMin          float64
	PriceMax          float64
	Workers           int
	ChunkSize         int
}

// DefaultOptions returns the stock engine options.
func DefaultOptions() Options {
	return Options{
		DuplicateSeverity: issue.Warning,
		PriceMin:          0.01,
		PriceMax:          500,
		Workers:           4,
		ChunkSize:         mapping.DefaultChunkSize,
	}
}

// Engine validates records. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	opts    Options
	keySets map[schema.ImportType][][]string
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithOptions replaces the engine options. Zero workers or chunk size keep
// their defaults.
func WithOptions(o Options) Option {
	return func(e *Engine) {
		d := DefaultOptions()
		if o.Workers <= 0 {
			o.Workers = d.Workers
		}
		if o.ChunkSize <= 0 {
			o.ChunkSize = d.ChunkSize
		}
		if o.DuplicateSeverity == "" {
			o.DuplicateSeverity = d.DuplicateSeverity
		}
		e.opts = o
	}
}

// WithDuplicateKeys replaces the duplicate key sets of one import type.
func WithDuplicateKeys(t schema.ImportType, keySets ...[]string) Option {
	return func(e *Engine) { e.keySets[t] = keySets }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		opts:    DefaultOptions(),
		keySets: make(map[schema.ImportType][][]string, len(duplicateKeys)),
		logger:  slog.Default(),
	}
	for t, ks := range duplicateKeys {
		e.keySets[t] = ks
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary holds the aggregate counts and scores of a report.
type Summary struct {
	TotalRows        int     `json:"total_rows"`
	ValidRows        int     `json:"valid_rows"`
	RowsWithErrors   int     `json:"rows_with_errors"`
	RowsWithWarnings int     `json:"rows_with_warnings"`
	CriticalErrors   int     `json:"critical_errors"`
	WarningIssues    int     `json:"warning_issues"`
	Completeness     float64 `json:"completeness"`
	Accuracy         float64 `json:"accuracy"`
	Consistency      float64 `json:"consistency"`
	QualityScore     float64 `json:"quality_score"`
}

// Report is the outcome of validating an import.
type Report struct {
	RunID                  uuid.UUID                `json:"run_id"`
	ImportType             schema.ImportType        `json:"import_type"`
	IsValid                bool                     `json:"is_valid"`
	Complete               bool                     `json:"complete"`
	Summary                Summary                  `json:"summary"`
	RowErrors              map[int][]issue.Issue    `json:"row_errors"`
	FieldErrors            map[string][]issue.Issue `json:"field_errors"`
	Duplicates             DuplicateAnalysis        `json:"duplicates"`
	BusinessRuleViolations []RuleViolation          `json:"business_rule_violations"`
	Consistency            []FieldConsistency       `json:"consistency"`
	GeneratedAt            time.Time                `json:"generated_at"`
}

// Partial reports whether validation stopped before every row was seen.
// A partial report must not be treated as final.
func (r *Report) Partial() bool { return !r.Complete }

// NewAccumulator returns an empty accumulator for importType.
func (e *Engine) NewAccumulator(importType schema.ImportType) *Accumulator {
	return newAccumulator(importType, e.keySets[importType])
}

// Accumulate validates records in parallel and merges the results into acc.
// base is the number of records that precede this chunk in the import;
// a record without a source row number is numbered base plus its 1-based
// position in records. A chunk is merged entirely or not at all: if ctx is
// done, acc is left untouched and ctx.Err() is returned.
func (e *Engine) Accumulate(ctx context.Context, acc *Accumulator, records []mapping.Record, base int, set *mapping.Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rules := Rules(acc.importType)
	parts := e.opts.Workers
	if parts > len(records) {
		parts = len(records)
	}
	if parts == 0 {
		return nil
	}
	size := (len(records) + parts - 1) / parts
	locals := make([]*Accumulator, parts)

	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < parts; p++ {
		lo := p * size
		hi := min(lo+size, len(records))
		locals[p] = e.NewAccumulator(acc.importType)
		if lo >= hi {
			continue
		}
		local := locals[p]
		g.Go(func() error {
			for i, rec := range records[lo:hi] {
				if i%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				row := recordRow(rec, base+lo+i)
				local.add(rec, row, e.ValidateRow(rec, row, set), checkRules(rules, rec, row))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, l := range locals {
		acc.Merge(l)
	}
	return nil
}

// Finalize turns an accumulator into a report. complete is false when the
// caller stopped before every chunk was accumulated.
func (e *Engine) Finalize(acc *Accumulator, set *mapping.Set, complete bool) *Report {
	r := &Report{
		RunID:       uuid.New(),
		ImportType:  acc.importType,
		Complete:    complete,
		RowErrors:   acc.rowIssues,
		FieldErrors: make(map[string][]issue.Issue),
		GeneratedAt: time.Now().UTC(),
	}

	critical, warnings := acc.critical, acc.warnings

	if sc, ok := schema.Get(acc.importType); ok && set != nil {
		for _, i := range mapping.MissingRequired(set, sc) {
			r.FieldErrors[i.Field] = append(r.FieldErrors[i.Field], i)
			critical++
		}
	}

	r.Duplicates = acc.duplicates(e.opts.DuplicateSeverity)
	dupBlocks := false
	switch e.opts.DuplicateSeverity.Class() {
	case issue.ClassCritical:
		critical += r.Duplicates.TotalGroups
		dupBlocks = r.Duplicates.TotalGroups > 0
	case issue.ClassWarning:
		warnings += r.Duplicates.TotalGroups
	}

	r.BusinessRuleViolations = append([]RuleViolation(nil), acc.violations...)
	sort.Slice(r.BusinessRuleViolations, func(i, j int) bool {
		a, b := r.BusinessRuleViolations[i], r.BusinessRuleViolations[j]
		if a.RowNumber != b.RowNumber {
			return a.RowNumber < b.RowNumber
		}
		return a.Rule < b.Rule
	})
	ruleBlocks := false
	for _, v := range r.BusinessRuleViolations {
		if v.Severity.Class() == issue.ClassCritical {
			ruleBlocks = true
			break
		}
	}

	penalty := 0.0
	for _, f := range orderedFields(acc.importType, acc.fields) {
		fc := acc.fields[f].summarize(f)
		penalty += fc.Penalty()
		r.Consistency = append(r.Consistency, fc)
	}

	completeness := 100.0
	if acc.rows > 0 {
		completeness = 0
		if acc.cells > 0 {
			completeness = float64(acc.filled) / float64(acc.cells) * 100
		}
	}
	accuracy := math.Max(0, 100-5*float64(critical)-2*float64(warnings))
	consistency := math.Max(0, 100-penalty)

	r.Summary = Summary{
		TotalRows:        acc.rows,
		ValidRows:        acc.validRows,
		RowsWithErrors:   acc.rows - acc.validRows,
		RowsWithWarnings: acc.warnRows,
		CriticalErrors:   critical,
		WarningIssues:    warnings,
		Completeness:     round1(completeness),
		Accuracy:         round1(accuracy),
		Consistency:      round1(consistency),
		QualityScore:     round1((completeness + accuracy + consistency) / 3),
	}

	// An unfinished run never passes.
	r.IsValid = complete && acc.validRows == acc.rows && len(r.FieldErrors) == 0 && !ruleBlocks && !dupBlocks
	return r
}

// ValidateData validates in-memory records chunk by chunk. If ctx is done
// between chunks it returns the partial report together with ctx.Err().
func (e *Engine) ValidateData(ctx context.Context, records []mapping.Record, set *mapping.Set, importType schema.ImportType) (*Report, error) {
	if err := e.checkSet(set, importType); err != nil {
		return nil, err
	}

	acc := e.NewAccumulator(importType)
	for lo := 0; lo < len(records); lo += e.opts.ChunkSize {
		hi := min(lo+e.opts.ChunkSize, len(records))
		if err := e.Accumulate(ctx, acc, records[lo:hi], lo, set); err != nil {
			e.logger.Warn("validation stopped", "rows_validated", acc.Rows(), "error", err)
			return e.Finalize(acc, set, false), err
		}
	}

	r := e.Finalize(acc, set, true)
	e.logger.Info("validation complete",
		"run_id", r.RunID,
		"import_type", importType,
		"rows", r.Summary.TotalRows,
		"valid", r.IsValid,
		"quality", r.Summary.QualityScore,
	)
	return r, nil
}

// ValidateChunks maps and validates every row of it without holding the
// whole dataset in memory. onProgress, if set, is called after each chunk.
// Cancellation yields a partial report and ctx.Err(); a read failure yields
// a SystemError and no report.
func (e *Engine) ValidateChunks(ctx context.Context, m *mapping.Mapper, it source.RowIterator, set *mapping.Set, onProgress func(mapping.Progress)) (*Report, error) {
	if set == nil {
		return nil, issue.NewSystemError("validate", fmt.Errorf("nil mapping set"))
	}
	if err := e.checkSet(set, set.ImportType); err != nil {
		return nil, err
	}

	acc := e.NewAccumulator(set.ImportType)
	err := m.ApplyChunks(ctx, it, set, e.opts.ChunkSize, func(chunk []mapping.Record, p mapping.Progress) error {
		if err := e.Accumulate(ctx, acc, chunk, p.RowsProcessed-len(chunk), set); err != nil {
			return err
		}
		if onProgress != nil {
			onProgress(p)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			e.logger.Warn("validation stopped", "rows_validated", acc.Rows(), "error", err)
			return e.Finalize(acc, set, false), err
		}
		return nil, err
	}
	return e.Finalize(acc, set, true), nil
}

// DetectDuplicates groups records sharing a configured key set.
func (e *Engine) DetectDuplicates(records []mapping.Record, importType schema.ImportType) DuplicateAnalysis {
	acc := e.NewAccumulator(importType)
	for i, rec := range records {
		row := recordRow(rec, i)
		for k, keys := range acc.keySets {
			if key, ok := duplicateKey(rec, keys); ok {
				acc.dupes[k][key] = append(acc.dupes[k][key], row)
			}
		}
	}
	return acc.duplicates(e.opts.DuplicateSeverity)
}

// ValidateBusinessLogic runs the registered rules of importType over records.
func (e *Engine) ValidateBusinessLogic(records []mapping.Record, importType schema.ImportType) []RuleViolation {
	rules := Rules(importType)
	var out []RuleViolation
	for i, rec := range records {
		row := recordRow(rec, i)
		out = append(out, checkRules(rules, rec, row)...)
	}
	return out
}

func checkRules(rules []Rule, rec mapping.Record, row int) []RuleViolation {
	var out []RuleViolation
	for _, r := range rules {
		if r.Check(rec) {
			continue
		}
		out = append(out, RuleViolation{
			Rule:      r.Name,
			RowNumber: row,
			Severity:  r.Severity,
			Kind:      issue.BusinessRuleViolation,
			Code:      issue.Describe(issue.BusinessRuleViolation).Code,
			Message:   r.Message,
		})
	}
	return out
}

// recordRow is the record's source row, or index+1 when it has none.
func recordRow(rec mapping.Record, index int) int {
	if rec.SourceRowNumber > 0 {
		return rec.SourceRowNumber
	}
	return index + 1
}

func (e *Engine) checkSet(set *mapping.Set, importType schema.ImportType) error {
	if set == nil {
		return issue.NewSystemError("validate", fmt.Errorf("nil mapping set"))
	}
	if set.ImportType != importType {
		return issue.NewSystemError("validate",
			fmt.Errorf("mapping set is for %s, not %s", set.ImportType, importType))
	}
	if _, err := schema.MustGet(importType); err != nil {
		return issue.NewSystemError("validate", err)
	}
	return nil
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
