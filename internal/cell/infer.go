package cell

import "strings"

// Kind is the inferred shape of a cell value.
type Kind string

const (
	KindEmpty   Kind = "empty"
	KindNumeric Kind = "numeric"
	KindDate    Kind = "date"
	KindEmail   Kind = "email"
	KindBoolean Kind = "boolean"
	KindText    Kind = "text"
)

// Classify infers the kind of a single value. Numbers win over dates and
// booleans so that "1" and "20240101" read as numeric.
func Classify(s string) Kind {
	s = Clean(s)
	switch {
	case s == "":
		return KindEmpty
	case IsEmail(s):
		return KindEmail
	}
	if _, ok := ParseNumber(s); ok {
		return KindNumeric
	}
	if _, ok := ParseDate(s); ok {
		return KindDate
	}
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no":
		return KindBoolean
	}
	return KindText
}

// ColumnProfile summarizes the kinds seen in one column.
type ColumnProfile struct {
	Kind     Kind         `json:"kind"`
	Share    float64      `json:"share"` // share of non-empty values with Kind
	NonEmpty int          `json:"non_empty"`
	Counts   map[Kind]int `json:"counts"`
}

// InferColumn returns the dominant kind among non-empty values.
// Ties resolve in the order numeric, date, email, boolean, text.
func InferColumn(values []string) ColumnProfile {
	p := ColumnProfile{Kind: KindEmpty, Counts: make(map[Kind]int)}
	for _, v := range values {
		k := Classify(v)
		if k == KindEmpty {
			continue
		}
		p.Counts[k]++
		p.NonEmpty++
	}
	if p.NonEmpty == 0 {
		return p
	}

	best := 0
	for _, k := range []Kind{KindNumeric, KindDate, KindEmail, KindBoolean, KindText} {
		if p.Counts[k] > best {
			best = p.Counts[k]
			p.Kind = k
		}
	}
	p.Share = float64(best) / float64(p.NonEmpty)
	return p
}
