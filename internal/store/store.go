// Package store persists confirmed mapping sets as reusable import templates
// and matches new files against them by header overlap.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/posimport/internal/mapping"
	"github.com/JonMunkholm/posimport/internal/schema"
)

// MatchThreshold is the minimum header overlap for a template to be offered.
const MatchThreshold = 0.7

var (
	ErrNotFound      = errors.New("template not found")
	ErrDuplicateName = errors.New("template name already exists for this import type")
)

// Template is a saved mapping set plus its usage history.
type Template struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	ImportType   schema.ImportType `json:"import_type"`
	Headers      []string          `json:"headers"`
	Set          *mapping.Set      `json:"mapping_set"`
	UsageCount   int               `json:"usage_count"`
	SuccessCount int               `json:"success_count"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// SuccessRate is the share of uses that produced a valid import.
func (t Template) SuccessRate() float64 {
	if t.UsageCount == 0 {
		return 0
	}
	return float64(t.SuccessCount) / float64(t.UsageCount)
}

// NewTemplate wraps a confirmed mapping set.
func NewTemplate(name string, set *mapping.Set) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("template name is required")
	}
	if set == nil {
		return nil, fmt.Errorf("mapping set is required")
	}
	return &Template{
		ID:         uuid.New(),
		Name:       name,
		ImportType: set.ImportType,
		Headers:    append([]string(nil), set.Headers...),
		Set:        set,
	}, nil
}

// TemplateRepository is the storage boundary for templates.
type TemplateRepository interface {
	// Save creates the template or replaces the one with the same ID.
	Save(ctx context.Context, t *Template) error
	Get(ctx context.Context, id uuid.UUID) (*Template, error)
	// List returns the templates of one import type ordered by name.
	List(ctx context.Context, importType schema.ImportType) ([]Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// RecordUsage counts one use of the template, and one success if ok.
	RecordUsage(ctx context.Context, id uuid.UUID, ok bool) error
}

// Match is a stored template whose headers overlap a new file's.
type Match struct {
	Template   Template `json:"template"`
	MatchScore float64  `json:"match_score"`
}

// MatchTemplates returns the templates of importType whose headers are at
// least MatchThreshold present in headers, best first.
func MatchTemplates(ctx context.Context, repo TemplateRepository, importType schema.ImportType, headers []string) ([]Match, error) {
	templates, err := repo.List(ctx, importType)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, t := range templates {
		score := headerOverlap(headers, t.Headers)
		if score >= MatchThreshold {
			matches = append(matches, Match{Template: t, MatchScore: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchScore != matches[j].MatchScore {
			return matches[i].MatchScore > matches[j].MatchScore
		}
		return matches[i].Template.SuccessRate() > matches[j].Template.SuccessRate()
	})
	return matches, nil
}

// headerOverlap is the fraction of template headers present in headers,
// compared case-insensitively.
func headerOverlap(headers, templateHeaders []string) float64 {
	if len(templateHeaders) == 0 {
		return 0
	}

	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		set[strings.ToLower(strings.TrimSpace(h))] = true
	}

	matched := 0
	for _, h := range templateHeaders {
		if set[strings.ToLower(strings.TrimSpace(h))] {
			matched++
		}
	}
	return float64(matched) / float64(len(templateHeaders))
}

var (
	_ TemplateRepository = (*MemoryRepository)(nil)
	_ TemplateRepository = (*PgRepository)(nil)
)
