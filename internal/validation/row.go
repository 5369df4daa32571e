package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/mapping"
	"github.com/JonMunkholm/posimport/internal/schema"
)

// RowResult is the outcome of validating one record.
type RowResult struct {
	RowNumber int           `json:"row_number"`
	IsValid   bool          `json:"is_valid"`
	Errors    []issue.Issue `json:"errors"`
	Warnings  []issue.Issue `json:"warnings"`
}

func (r *RowResult) add(i issue.Issue) {
	if i.Severity.Class() == issue.ClassCritical {
		r.Errors = append(r.Errors, i)
		r.IsValid = false
		return
	}
	r.Warnings = append(r.Warnings, i)
}

// Issues returns errors followed by warnings.
func (r RowResult) Issues() []issue.Issue {
	return append(append([]issue.Issue(nil), r.Errors...), r.Warnings...)
}

// priceFields are checked against the configured plausible price range.
var priceFields = map[string]bool{"price": true, "unit_price": true}

// ValidateRow checks one record against the schema of set.ImportType.
// Only fields with a primary mapping are checked; an unmapped required
// field is a set-level finding reported once by ValidateData.
func (e *Engine) ValidateRow(rec mapping.Record, rowNumber int, set *mapping.Set) RowResult {
	res := RowResult{RowNumber: rowNumber, IsValid: true}

	sc, ok := schema.Get(set.ImportType)
	if !ok {
		return res
	}

	for _, f := range sc.Fields {
		if _, mapped := set.Primary(f.Name); !mapped {
			continue
		}
		v := rec.Fields[f.Name]

		if empty(v) {
			if f.Required {
				res.add(issue.Issue{
					Kind:       issue.MissingRequiredField,
					Field:      f.Name,
					Message:    fmt.Sprintf("%s is required", f.Name),
					Severity:   issue.Critical,
					Suggestion: issue.Describe(issue.MissingRequiredField).Action,
				})
			}
			continue
		}

		if err := conform(f.Type, v); err != nil {
			sev := issue.Medium
			if f.Required {
				sev = issue.High
			}
			res.add(issue.Issue{
				Kind:       issue.TypeMismatch,
				Field:      f.Name,
				Value:      display(v),
				Message:    err.Error(),
				Severity:   sev,
				Suggestion: issue.Describe(issue.TypeMismatch).Action,
			})
			continue
		}

		if priceFields[f.Name] {
			if i, bad := e.checkPrice(f.Name, v); bad {
				res.add(i)
			}
		}
	}

	if i, bad := checkArithmetic(rec); bad {
		res.add(i)
	}
	return res
}

func (e *Engine) checkPrice(field string, v any) (issue.Issue, bool) {
	p, ok := number(v)
	if !ok {
		return issue.Issue{}, false
	}
	switch {
	case p <= 0:
		return issue.Issue{
			Kind:       issue.ValueOutOfRange,
			Field:      field,
			Value:      display(v),
			Message:    fmt.Sprintf("%s must be greater than zero", field),
			Severity:   issue.High,
			Suggestion: issue.Describe(issue.ValueOutOfRange).Action,
		}, true
	case p < e.opts.PriceMin || p > e.opts.PriceMax:
		return issue.Issue{
			Kind:     issue.ValueOutOfRange,
			Field:    field,
			Value:    display(v),
			Message:  fmt.Sprintf("%s %.2f is outside the expected range %.2f-%.2f", field, p, e.opts.PriceMin, e.opts.PriceMax),
			Severity: issue.Warning,
		}, true
	}
	return issue.Issue{}, false
}

// checkArithmetic verifies unit_price × quantity ≈ total_amount within 1%
// or one cent, whichever is larger.
func checkArithmetic(rec mapping.Record) (issue.Issue, bool) {
	price, ok1 := number(rec.Fields["unit_price"])
	qty, ok2 := number(rec.Fields["quantity"])
	total, ok3 := number(rec.Fields["total_amount"])
	if !ok1 || !ok2 || !ok3 {
		return issue.Issue{}, false
	}
	want := price * qty
	tolerance := math.Max(0.01, 0.01*math.Abs(total))
	if math.Abs(want-total) <= tolerance+1e-9 {
		return issue.Issue{}, false
	}
	return issue.Issue{
		Kind:       issue.ArithmeticMismatch,
		Field:      "total_amount",
		Value:      display(rec.Fields["total_amount"]),
		Message:    fmt.Sprintf("unit_price × quantity = %.2f but total_amount is %.2f", want, total),
		Severity:   issue.Medium,
		Suggestion: issue.Describe(issue.ArithmeticMismatch).Action,
	}, true
}

// conform reports whether v satisfies the declared type. Untransformed
// strings are accepted when they parse.
func conform(t schema.DataType, v any) error {
	switch t {
	case schema.TypeDecimal:
		if _, ok := number(v); !ok {
			return fmt.Errorf("expected a number, got %q", display(v))
		}
	case schema.TypeInteger:
		n, ok := number(v)
		if !ok || n != math.Trunc(n) {
			return fmt.Errorf("expected a whole number, got %q", display(v))
		}
	case schema.TypeDate:
		if _, ok := v.(time.Time); ok {
			return nil
		}
		if s, ok := v.(string); ok {
			if _, ok := cell.ParseDate(s); ok {
				return nil
			}
		}
		if _, err := cast.ToTimeE(v); err != nil {
			return fmt.Errorf("expected a date, got %q", display(v))
		}
	case schema.TypeBoolean:
		if s, ok := v.(string); ok {
			if _, ok := cell.ParseBool(s); !ok {
				return fmt.Errorf("expected yes/no, got %q", s)
			}
			return nil
		}
		if _, err := cast.ToBoolE(v); err != nil {
			return fmt.Errorf("expected yes/no, got %q", display(v))
		}
	case schema.TypeEmail:
		if s, ok := v.(string); !ok || !cell.IsEmail(s) {
			return fmt.Errorf("expected an email address, got %q", display(v))
		}
	case schema.TypePhone:
		if d := digits(display(v)); d < 7 || d > 15 {
			return fmt.Errorf("expected a phone number, got %q", display(v))
		}
	case schema.TypeList:
		switch v.(type) {
		case []string, string:
		default:
			return fmt.Errorf("expected a list, got %T", v)
		}
	default:
		if _, err := cast.ToStringE(v); err != nil {
			return fmt.Errorf("expected text, got %T", v)
		}
	}
	return nil
}

// number coerces a canonical value to float64. Strings go through the
// currency-aware parser.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case string:
		return cell.ParseNumber(x)
	case bool:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return cell.Clean(x) == ""
	case []string:
		return len(x) == 0
	}
	return false
}

// display renders a canonical value for messages and duplicate keys.
func display(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339)
	case []string:
		return strings.Join(x, ", ")
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

func digits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
