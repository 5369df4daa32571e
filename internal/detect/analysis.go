package detect

import (
	"strings"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/schema"
	"github.com/JonMunkholm/posimport/internal/source"
)

// HeaderCategory groups headers by what they describe.
type HeaderCategory string

const (
	CategoryIdentifiers HeaderCategory = "identifiers"
	CategoryDates       HeaderCategory = "dates"
	CategoryFinancials  HeaderCategory = "financials"
	CategoryQuantities  HeaderCategory = "quantities"
	CategoryDescriptive HeaderCategory = "descriptive"
	CategoryOperational HeaderCategory = "operational"
	CategoryOther       HeaderCategory = "other"
)

// categoryKeywords are checked in order; the first category with a keyword
// present in a header wins.
var categoryKeywords = []struct {
	category HeaderCategory
	keywords []string
}{
	{CategoryIdentifiers, []string{"id", "sku", "code", "number", "#", "token", "guid", "plu", "upc", "barcode", "reference", "receipt"}},
	{CategoryDates, []string{"date", "time", "created", "opened", "closed", "timestamp", "day", "month", "year", "updated"}},
	{CategoryFinancials, []string{"price", "cost", "amount", "total", "sales", "tax", "tip", "tips", "discount", "discounts", "fee", "fees", "revenue", "gross", "net", "refund", "refunds", "gratuity", "collected"}},
	{CategoryQuantities, []string{"qty", "quantity", "count", "stock", "units", "on hand", "par", "yield", "portions", "servings"}},
	{CategoryDescriptive, []string{"name", "description", "category", "group", "item", "title", "notes", "modifier", "allergens", "allergen", "variation", "menu", "unit", "type", "email", "phone"}},
	{CategoryOperational, []string{"server", "employee", "staff", "location", "device", "table", "register", "station", "status", "dining", "source", "channel", "tender", "payment", "card", "method", "establishment", "revenue center"}},
}

// CategorizeHeaders assigns every header to exactly one category. Headers
// with no recognizable keyword land in CategoryOther.
func CategorizeHeaders(headers []string) map[HeaderCategory][]string {
	out := make(map[HeaderCategory][]string)
	for _, h := range headers {
		c := categorize(schema.NormalizeHeader(h))
		out[c] = append(out[c], h)
	}
	return out
}

func categorize(norm string) HeaderCategory {
	padded := " " + norm + " "
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return ck.category
			}
		}
	}
	return CategoryOther
}

// ColumnTypes infers the dominant value kind of each sample column.
func ColumnTypes(s *source.Sample) map[string]cell.Kind {
	out := make(map[string]cell.Kind, len(s.Headers))
	for _, h := range s.Headers {
		out[h] = cell.InferColumn(s.Column(h)).Kind
	}
	return out
}

// recommendOrder breaks ties between import types.
var recommendOrder = []schema.ImportType{schema.Sales, schema.Menu, schema.Inventory, schema.Recipes, schema.Customers}

// RecommendImportType votes for the registered import type whose field names
// and synonyms cover the most headers. Sales gets an extra vote when the
// headers carry both dates and financials. Returns "" when nothing matches.
func RecommendImportType(headers []string) schema.ImportType {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = schema.NormalizeHeader(h)
	}

	cats := CategorizeHeaders(headers)
	best, bestVotes := schema.ImportType(""), 0
	for _, t := range recommendOrder {
		s, ok := schema.Get(t)
		if !ok {
			continue
		}
		votes := 0
		for _, h := range norm {
			if headerNamesField(s, h) {
				votes++
			}
		}
		if t == schema.Sales && len(cats[CategoryDates]) > 0 && len(cats[CategoryFinancials]) > 0 {
			votes++
		}
		if votes > bestVotes {
			best, bestVotes = t, votes
		}
	}
	return best
}

func headerNamesField(s schema.Schema, norm string) bool {
	for _, f := range s.Fields {
		if norm == schema.NormalizeHeader(f.Name) {
			return true
		}
		for _, syn := range f.Synonyms {
			if norm == syn {
				return true
			}
		}
	}
	return false
}

// suggest derives preprocessing hints and validation rules from the sample.
func suggest(s *source.Sample, cats map[HeaderCategory][]string, types map[string]cell.Kind) ([]string, []string) {
	var hints, rules []string

	currency := false
	for _, h := range cats[CategoryFinancials] {
		for _, v := range s.Column(h) {
			if cell.HasCurrency(v) {
				currency = true
				break
			}
		}
	}
	if currency {
		hints = append(hints, "strip currency symbols from financial columns")
	}

	whitespace := false
	for _, row := range s.Rows {
		for _, v := range row {
			if v != strings.TrimSpace(v) {
				whitespace = true
				break
			}
		}
		if whitespace {
			break
		}
	}
	if whitespace {
		hints = append(hints, "trim surrounding whitespace")
	}

	if len(cats[CategoryDates]) > 0 {
		hints = append(hints, "normalize date columns to a single format")
	}
	if len(cats[CategoryFinancials]) > 0 {
		rules = append(rules, "financial columns must be numeric")
	}
	if len(cats[CategoryIdentifiers]) > 0 {
		rules = append(rules, "identifier columns should be unique")
	}
	for _, h := range cats[CategoryDates] {
		if types[h] == cell.KindDate {
			rules = append(rules, "date columns must parse as dates")
			break
		}
	}
	return hints, rules
}
