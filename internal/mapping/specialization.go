package mapping

import (
	"math"
	"regexp"
	"strings"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/schema"
)

// Specialization adds domain knowledge for one import type on top of the
// generic scoring.
type Specialization interface {
	ImportType() schema.ImportType
	// Boost returns extra points for mapping header onto field given the
	// sample values of the header's column.
	Boost(header string, field schema.Field, values []string, w Weights) Boost
	// Transforms returns the transformation chain for field, or nil to use
	// the type-derived default.
	Transforms(field schema.Field, values []string) []Transform
}

// Boost is the extra score a Specialization awards.
type Boost struct {
	Keyword  int
	Pattern  int
	Patterns []string
}

// MenuSpecialization knows menu vocabulary: categories, allergens, spice
// levels, price shapes and calorie ranges.
type MenuSpecialization struct{}

func (MenuSpecialization) ImportType() schema.ImportType { return schema.Menu }

// menuKeywords are header words that point at a menu field.
var menuKeywords = map[string][]string{
	"category":    {"category", "categories", "menu group", "section", "course", "class"},
	"allergens":   {"allergen", "allergens", "allergy", "allergies", "contains", "dietary"},
	"spice_level": {"spice", "spicy", "heat", "spiciness", "hot"},
}

var (
	pricePattern = regexp.MustCompile(`^[$€£]?\s?\d{1,4}([.,]\d{2})?$`)

	spiceWords = map[string]bool{
		"none": true, "mild": true, "medium": true, "hot": true, "extra hot": true,
		"spicy": true, "very spicy": true, "low": true, "high": true,
	}
)

const patternPoints = 10

func (MenuSpecialization) Boost(header string, f schema.Field, values []string, w Weights) Boost {
	var b Boost

	padded := " " + schema.NormalizeHeader(header) + " "
	for _, kw := range menuKeywords[f.Name] {
		if strings.Contains(padded, " "+kw+" ") {
			b.Keyword = w.KeywordBoost
			break
		}
	}

	add := func(name string, share, floor float64) {
		if share >= floor {
			b.Pattern += patternPoints
			b.Patterns = append(b.Patterns, name)
		}
	}

	switch f.Name {
	case "price", "cost":
		add("price_format", shareMatching(values, pricePattern.MatchString), 0.5)
	case "category":
		add("known_category", shareMatching(values, func(v string) bool {
			_, ok := categoryAliases[schema.NormalizeHeader(v)]
			return ok
		}), 0.3)
	case "allergens":
		add("allergen_keywords", shareMatching(values, func(v string) bool {
			return len(ExtractAllergens(v)) > 0
		}), 0.3)
	case "spice_level":
		add("spice_vocabulary", shareMatching(values, func(v string) bool {
			return spiceWords[strings.ToLower(v)]
		}), 0.5)
	case "calories":
		add("calorie_range", shareMatching(values, plausibleCalories), 0.8)
	}
	return b
}

func (MenuSpecialization) Transforms(f schema.Field, values []string) []Transform {
	switch f.Name {
	case "name":
		return []Transform{TransformTrim, TransformTitleCase}
	case "category":
		return []Transform{TransformTrim, TransformNormalizeCategory}
	case "allergens":
		return []Transform{TransformTrim, TransformExtractAllergens}
	case "price", "cost":
		return []Transform{TransformTrim, TransformStripCurrency, TransformParseNumber}
	case "spice_level":
		return []Transform{TransformTrim, TransformLowercase}
	}
	return nil
}

func plausibleCalories(v string) bool {
	f, ok := cell.ParseNumber(v)
	return ok && f == math.Trunc(f) && f >= 0 && f <= 3000
}

// shareMatching is the share of non-empty values for which match is true.
func shareMatching(values []string, match func(string) bool) float64 {
	n, hits := 0, 0
	for _, v := range values {
		v = cell.Clean(v)
		if v == "" {
			continue
		}
		n++
		if match(v) {
			hits++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(hits) / float64(n)
}
