package mapping

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/schema"
)

// Transform names one value transformation. Transformations are stored by
// name so a Set stays plain data.
type Transform string

const (
	TransformTrim              Transform = "trim"
	TransformStripCurrency     Transform = "strip_currency"
	TransformParseNumber       Transform = "parse_number"
	TransformParseDate         Transform = "parse_date"
	TransformParseBool         Transform = "parse_bool"
	TransformLowercase         Transform = "lowercase"
	TransformTitleCase         Transform = "title_case"
	TransformSplitList         Transform = "split_list"
	TransformNormalizeCategory Transform = "normalize_category"
	TransformExtractAllergens  Transform = "extract_allergens"
)

// TransformFunc converts a value. The input is a string for the first
// transformation and whatever the previous one produced afterwards.
type TransformFunc func(v any) (any, error)

var transforms = map[Transform]TransformFunc{
	TransformTrim:              stringTransform(cell.Clean),
	TransformStripCurrency:     stringTransform(cell.StripCurrency),
	TransformLowercase:         stringTransform(strings.ToLower),
	TransformTitleCase:         stringTransform(titleCase),
	TransformNormalizeCategory: stringTransform(NormalizeCategory),
	TransformParseNumber:       parseNumber,
	TransformParseDate:         parseDate,
	TransformParseBool:         parseBool,
	TransformSplitList:         splitList,
	TransformExtractAllergens:  extractAllergens,
}

// Lookup returns the function for a named transformation.
func Lookup(t Transform) (TransformFunc, bool) {
	fn, ok := transforms[t]
	return fn, ok
}

func stringTransform(fn func(string) string) TransformFunc {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected text, got %T", v)
		}
		return fn(s), nil
	}
}

func parseNumber(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		if f, ok := cell.ParseNumber(x); ok {
			return f, nil
		}
		return nil, fmt.Errorf("not a number: %q", x)
	}
	return nil, fmt.Errorf("expected text, got %T", v)
}

func parseDate(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected text, got %T", v)
	}
	t, ok := cell.ParseDate(s)
	if !ok {
		return nil, fmt.Errorf("not a date: %q", s)
	}
	return t, nil
}

func parseBool(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected text, got %T", v)
	}
	b, ok := cell.ParseBool(s)
	if !ok {
		return nil, fmt.Errorf("not a boolean: %q", s)
	}
	return b, nil
}

func splitList(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected text, got %T", v)
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// titleCase builds a fresh Caser per call; Casers are not safe for
// concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// categoryAliases maps common menu category spellings to one canonical name.
var categoryAliases = map[string]string{
	"app": "Appetizers", "apps": "Appetizers", "appetizer": "Appetizers", "appetizers": "Appetizers",
	"starter": "Appetizers", "starters": "Appetizers", "small plates": "Appetizers",
	"entree": "Entrees", "entrees": "Entrees", "entrée": "Entrees", "entrées": "Entrees",
	"main": "Entrees", "mains": "Entrees", "main course": "Entrees", "main courses": "Entrees",
	"dessert": "Desserts", "desserts": "Desserts", "sweets": "Desserts",
	"drink": "Beverages", "drinks": "Beverages", "beverage": "Beverages", "beverages": "Beverages", "bev": "Beverages",
	"side": "Sides", "sides": "Sides", "side dish": "Sides", "side dishes": "Sides",
	"salad": "Salads", "salads": "Salads",
	"soup": "Soups", "soups": "Soups",
	"kids": "Kids", "kids menu": "Kids", "children": "Kids",
}

// NormalizeCategory folds known category aliases to a canonical name and
// title-cases anything else.
func NormalizeCategory(s string) string {
	key := schema.NormalizeHeader(s)
	if c, ok := categoryAliases[key]; ok {
		return c
	}
	return titleCase(s)
}

// allergenKeywords maps words found in free text to canonical allergens.
var allergenKeywords = map[string]string{
	"milk": "dairy", "dairy": "dairy", "cheese": "dairy", "butter": "dairy", "cream": "dairy", "lactose": "dairy",
	"egg": "eggs", "eggs": "eggs",
	"fish": "fish", "anchovy": "fish", "salmon": "fish", "tuna": "fish",
	"shellfish": "shellfish", "shrimp": "shellfish", "crab": "shellfish", "lobster": "shellfish",
	"nut": "tree_nuts", "nuts": "tree_nuts", "almond": "tree_nuts", "almonds": "tree_nuts",
	"walnut": "tree_nuts", "walnuts": "tree_nuts", "cashew": "tree_nuts", "cashews": "tree_nuts", "pecan": "tree_nuts", "pecans": "tree_nuts",
	"peanut": "peanuts", "peanuts": "peanuts",
	"wheat": "gluten", "gluten": "gluten",
	"soy": "soy", "soya": "soy",
	"sesame": "sesame",
}

func extractAllergens(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected text, got %T", v)
	}
	return ExtractAllergens(s), nil
}

// ExtractAllergens returns the canonical allergens mentioned in s, sorted.
// "peanut" is never read as a tree nut.
func ExtractAllergens(s string) []string {
	seen := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if a, ok := allergenKeywords[w]; ok {
			seen[a] = true
		}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// defaultTransforms derives the transformation chain for a field from its
// declared type and the sample values.
func defaultTransforms(f schema.Field, values []string) []Transform {
	chain := []Transform{TransformTrim}
	switch f.Type {
	case schema.TypeDecimal, schema.TypeInteger:
		if anyCurrency(values) {
			chain = append(chain, TransformStripCurrency)
		}
		chain = append(chain, TransformParseNumber)
	case schema.TypeDate:
		chain = append(chain, TransformParseDate)
	case schema.TypeBoolean:
		chain = append(chain, TransformParseBool)
	case schema.TypeEmail:
		chain = append(chain, TransformLowercase)
	case schema.TypeList:
		chain = append(chain, TransformSplitList)
	}
	return chain
}

func anyCurrency(values []string) bool {
	for _, v := range values {
		if cell.HasCurrency(v) {
			return true
		}
	}
	return false
}
