// Package detect guesses which POS system produced an export and what kind
// of records it holds.
//
// Every registered [Profile] scores the same pre-digested [Evidence]
// concurrently. Results are ranked by confidence with ties kept in
// registration order, and a generic result stands in when nothing scores.
package detect

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/schema"
	"github.com/JonMunkholm/posimport/internal/source"
)

// GenericSystem names the fallback result.
const GenericSystem = "generic"

const manualMappingHint = "manual mapping required"

// Result is one ranked POS guess.
type Result struct {
	POSSystem        string            `json:"pos_system"`
	Confidence       int               `json:"confidence"`
	DetectedFeatures map[string]any    `json:"detected_features"`
	Suggestions      ImportSuggestions `json:"suggestions"`
}

// ImportSuggestions advises the mapper and the user.
type ImportSuggestions struct {
	RecommendedImportType schema.ImportType `json:"recommended_import_type,omitempty"`
	PreprocessingHints    []string          `json:"preprocessing_hints,omitempty"`
	ValidationRules       []string          `json:"validation_rules,omitempty"`
}

// Detector ranks POS profiles against file samples. It is safe for
// concurrent use once constructed.
type Detector struct {
	profiles []Profile
	weights  Weights
	workers  int
	logger   *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithWeights replaces the default scoring weights.
func WithWeights(w Weights) Option {
	return func(d *Detector) { d.weights = w }
}

// WithWorkers bounds how many profiles are scored at once.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// WithProfiles appends profiles after the built-ins.
func WithProfiles(p ...Profile) Option {
	return func(d *Detector) { d.profiles = append(d.profiles, p...) }
}

// New creates a Detector with the built-in profiles.
func New(opts ...Option) *Detector {
	d := &Detector{
		profiles: BuiltinProfiles(),
		weights:  DefaultWeights(),
		workers:  4,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect scores every profile against the sample and returns the results
// with positive confidence, best first. When nothing scores, or the sample
// has no headers, the only result is the generic fallback.
//
// A nil sample is a system error. Cancellation of ctx is returned as is.
func (d *Detector) Detect(ctx context.Context, s *source.Sample) ([]Result, error) {
	if s == nil {
		return nil, issue.NewSystemError("detect format", issue.ErrEmptySample)
	}

	if len(s.Headers) == 0 {
		d.logger.Warn("detection skipped", "filename", s.Filename, "reason", "no headers")
		r := d.generic(s)
		r.DetectedFeatures["issue"] = issue.Issue{
			Kind:     issue.DetectionUnavailable,
			Message:  "sample has no header row",
			Severity: issue.Warning,
		}
		return []Result{r}, nil
	}

	ev := NewEvidence(s)
	scores := make([]Score, len(d.profiles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, p := range d.profiles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scores[i] = p.Score(ev, d.weights)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cats := CategorizeHeaders(s.Headers)
	types := ColumnTypes(s)
	hints, rules := suggest(s, cats, types)
	recommended := RecommendImportType(s.Headers)

	var results []Result
	for i, sc := range scores {
		if sc.Confidence <= 0 {
			continue
		}
		features := sc.Features
		features["header_categories"] = cats
		features["column_types"] = types

		rec := recommended
		if sc.ImportType != "" {
			rec = sc.ImportType
		}
		results = append(results, Result{
			POSSystem:        d.profiles[i].Name(),
			Confidence:       sc.Confidence,
			DetectedFeatures: features,
			Suggestions: ImportSuggestions{
				RecommendedImportType: rec,
				PreprocessingHints:    hints,
				ValidationRules:       rules,
			},
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Confidence > results[b].Confidence
	})

	if len(results) == 0 {
		r := d.generic(s)
		r.DetectedFeatures["header_categories"] = cats
		r.DetectedFeatures["column_types"] = types
		r.Suggestions.PreprocessingHints = append(r.Suggestions.PreprocessingHints, hints...)
		r.Suggestions.ValidationRules = rules
		results = []Result{r}
	}

	d.logger.Debug("format detected",
		"filename", s.Filename,
		"pos_system", results[0].POSSystem,
		"confidence", results[0].Confidence,
		"candidates", len(results),
	)
	return results, nil
}

// BestMatch returns the top result of Detect.
func (d *Detector) BestMatch(ctx context.Context, s *source.Sample) (Result, error) {
	results, err := d.Detect(ctx, s)
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

func (d *Detector) generic(s *source.Sample) Result {
	return Result{
		POSSystem:        GenericSystem,
		Confidence:       d.weights.GenericConfidence,
		DetectedFeatures: make(map[string]any),
		Suggestions: ImportSuggestions{
			RecommendedImportType: RecommendImportType(s.Headers),
			PreprocessingHints:    []string{manualMappingHint},
		},
	}
}
