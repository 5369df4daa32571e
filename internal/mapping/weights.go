package mapping

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Weights are the point values used to score a header against a target
// field. They are empirical and meant to be recalibrated against real
// exports through a weights file.
type Weights struct {
	Exact             int     `yaml:"exact"`
	Contains          int     `yaml:"contains"`
	Synonym           int     `yaml:"synonym"`
	TypeCompatibility int     `yaml:"type_compatibility"`
	Similarity        int     `yaml:"similarity"`
	SimilarityFloor   float64 `yaml:"similarity_floor"` // below this, edit distance adds nothing
	KeywordBoost      int     `yaml:"keyword_boost"`
	PatternCap        int     `yaml:"pattern_cap"`
	Threshold         int     `yaml:"threshold"`      // minimum score to propose a candidate
	LowConfidence     int     `yaml:"low_confidence"` // mappings below this are flagged
	MaxAlternates     int     `yaml:"max_alternates"`
}

// DefaultWeights returns the stock mapping weights.
func DefaultWeights() Weights {
	return Weights{
		Exact:             100,
		Contains:          80,
		Synonym:           60,
		TypeCompatibility: 30,
		Similarity:        40,
		SimilarityFloor:   0.5,
		KeywordBoost:      15,
		PatternCap:        20,
		Threshold:         20,
		LowConfidence:     30,
		MaxAlternates:     3,
	}
}

// LoadWeights reads the "mapping" section of a YAML weights document on top
// of the defaults.
func LoadWeights(r io.Reader) (Weights, error) {
	doc := struct {
		Mapping Weights `yaml:"mapping"`
	}{Mapping: DefaultWeights()}

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return Weights{}, fmt.Errorf("decode mapping weights: %w", err)
	}
	w := doc.Mapping
	if w.Threshold < 0 || w.Threshold > 100 {
		return Weights{}, fmt.Errorf("threshold must be 0-100, got %d", w.Threshold)
	}
	if w.SimilarityFloor < 0 || w.SimilarityFloor > 1 {
		return Weights{}, fmt.Errorf("similarity_floor must be 0-1, got %g", w.SimilarityFloor)
	}
	if w.MaxAlternates < 0 {
		return Weights{}, fmt.Errorf("max_alternates must be non-negative")
	}
	return w, nil
}
