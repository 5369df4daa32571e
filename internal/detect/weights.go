package detect

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Weights are the point values used to score a profile against a sample.
// The defaults are empirical; override them from a weights file to
// recalibrate against real exports.
type Weights struct {
	FilenameMatch     int `yaml:"filename_match"`     // filename contains a profile token
	HeaderOverlap     int `yaml:"header_overlap"`     // scaled by signature overlap ratio
	PatternCap        int `yaml:"pattern_cap"`        // ceiling on summed value-pattern bonuses
	GenericConfidence int `yaml:"generic_confidence"` // fallback when nothing scores
	// PatternMatchShare is the share of a column's non-empty sample values
	// that must match a value pattern for its bonus to apply.
	PatternMatchShare float64 `yaml:"pattern_match_share"`
}

// DefaultWeights returns the stock scoring weights.
func DefaultWeights() Weights {
	return Weights{
		FilenameMatch:     20,
		HeaderOverlap:     60,
		PatternCap:        20,
		GenericConfidence: 30,
		PatternMatchShare: 0.5,
	}
}

// LoadWeights reads the "detection" section of a YAML weights document on
// top of the defaults. Keys that are absent keep their default value.
func LoadWeights(r io.Reader) (Weights, error) {
	doc := struct {
		Detection Weights `yaml:"detection"`
	}{Detection: DefaultWeights()}

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return Weights{}, fmt.Errorf("decode detection weights: %w", err)
	}
	if err := doc.Detection.validate(); err != nil {
		return Weights{}, err
	}
	return doc.Detection, nil
}

func (w Weights) validate() error {
	if w.FilenameMatch < 0 || w.HeaderOverlap < 0 || w.PatternCap < 0 {
		return fmt.Errorf("detection weights must be non-negative")
	}
	if w.GenericConfidence < 0 || w.GenericConfidence > 100 {
		return fmt.Errorf("generic_confidence must be 0-100, got %d", w.GenericConfidence)
	}
	if w.PatternMatchShare <= 0 || w.PatternMatchShare > 1 {
		return fmt.Errorf("pattern_match_share must be in (0, 1], got %g", w.PatternMatchShare)
	}
	return nil
}
