package detect

import (
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/schema"
	"github.com/JonMunkholm/posimport/internal/source"
)

// Evidence is the sample pre-digested once so profiles can score it
// concurrently without touching the sample again. It is read-only after
// construction.
type Evidence struct {
	filename string
	headers  []string            // original order, normalized
	present  map[string]bool     // normalized header set
	columns  map[string][]string // normalized header -> non-empty values
}

// NewEvidence builds the evidence for s.
func NewEvidence(s *source.Sample) *Evidence {
	e := &Evidence{
		filename: strings.ToLower(filepath.Base(s.Filename)),
		present:  make(map[string]bool, len(s.Headers)),
		columns:  make(map[string][]string, len(s.Headers)),
	}
	for _, h := range s.Headers {
		n := schema.NormalizeHeader(h)
		e.headers = append(e.headers, n)
		e.present[n] = true

		var vals []string
		for _, v := range s.Column(h) {
			if v = cell.Clean(v); v != "" {
				vals = append(vals, v)
			}
		}
		e.columns[n] = vals
	}
	return e
}

func (e *Evidence) hasHeader(normalized string) bool {
	return e.present[normalized]
}

// patternMatches reports whether any eligible column has at least share of
// its non-empty values matching vp.
func (e *Evidence) patternMatches(vp ValuePattern, share float64) bool {
	for _, h := range e.headers {
		if vp.HeaderHint != "" && !strings.Contains(h, vp.HeaderHint) {
			continue
		}
		vals := e.columns[h]
		if len(vals) == 0 {
			continue
		}
		n := 0
		for _, v := range vals {
			if vp.Pattern.MatchString(v) {
				n++
			}
		}
		if float64(n)/float64(len(vals)) >= share {
			return true
		}
	}
	return false
}
