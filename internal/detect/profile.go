package detect

import (
	"math"
	"regexp"
	"strings"

	"github.com/JonMunkholm/posimport/internal/schema"
)

// Profile scores how likely a sample came from one POS system.
type Profile interface {
	Name() string
	Score(e *Evidence, w Weights) Score
}

// Score is one profile's verdict on a sample.
type Score struct {
	Confidence int
	Features   map[string]any
	// ImportType is the import type implied by the best matching signature,
	// or empty if no signature overlapped.
	ImportType schema.ImportType
}

// Signature is the header set one kind of export from a POS carries.
type Signature struct {
	ImportType schema.ImportType
	Headers    []string
}

// ValuePattern awards Points when enough sample values in a column match.
// Columns are restricted to those whose normalized header contains
// HeaderHint; an empty hint scans every column.
type ValuePattern struct {
	Name       string
	HeaderHint string
	Pattern    *regexp.Regexp
	Points     int
}

// keywordProfile scores a sample by filename tokens, header signatures and
// value patterns.
type keywordProfile struct {
	name       string
	tokens     []string
	signatures []Signature
	patterns   []ValuePattern
}

func (p *keywordProfile) Name() string { return p.name }

func (p *keywordProfile) Score(e *Evidence, w Weights) Score {
	features := make(map[string]any)
	total := 0

	for _, tok := range p.tokens {
		if strings.Contains(e.filename, tok) {
			total += w.FilenameMatch
			features["filename_match"] = tok
			break
		}
	}

	var best Signature
	bestRatio := 0.0
	var bestMatched []string
	for _, sg := range p.signatures {
		if len(sg.Headers) == 0 {
			continue
		}
		var matched []string
		for _, h := range sg.Headers {
			if e.hasHeader(h) {
				matched = append(matched, h)
			}
		}
		ratio := float64(len(matched)) / float64(len(sg.Headers))
		if ratio > bestRatio {
			best, bestRatio, bestMatched = sg, ratio, matched
		}
	}
	var implied schema.ImportType
	if bestRatio > 0 {
		total += int(math.Round(bestRatio * float64(w.HeaderOverlap)))
		features["header_overlap"] = bestRatio
		features["matched_headers"] = bestMatched
		implied = best.ImportType
	}

	bonus := 0
	var hits []string
	for _, vp := range p.patterns {
		if e.patternMatches(vp, w.PatternMatchShare) {
			bonus += vp.Points
			hits = append(hits, vp.Name)
		}
	}
	if bonus > w.PatternCap {
		bonus = w.PatternCap
	}
	if len(hits) > 0 {
		total += bonus
		features["value_patterns"] = hits
	}

	return Score{Confidence: clamp(total), Features: features, ImportType: implied}
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

func sig(t schema.ImportType, headers ...string) Signature {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = schema.NormalizeHeader(h)
	}
	return Signature{ImportType: t, Headers: norm}
}

func pattern(name, hint, expr string, points int) ValuePattern {
	return ValuePattern{Name: name, HeaderHint: hint, Pattern: regexp.MustCompile(expr), Points: points}
}

// BuiltinProfiles returns the stock POS profiles in registration order.
func BuiltinProfiles() []Profile {
	return []Profile{
		&keywordProfile{
			name:   "square",
			tokens: []string{"square"},
			signatures: []Signature{
				sig(schema.Sales, "Transaction ID", "Gross Sales", "Net Sales"),
				sig(schema.Sales, "Payment ID", "Total Collected", "Card Entry Methods"),
				sig(schema.Menu, "Token", "Item Name", "Variation Name"),
				sig(schema.Customers, "Reference ID", "First Name", "Surname"),
			},
			patterns: []ValuePattern{
				pattern("square_id", "id", `^[A-Za-z0-9]{22,32}$`, 5),
				pattern("us_time_zone", "time zone", `\(US & Canada\)$`, 5),
				pattern("clock_time", "time", `^\d{2}:\d{2}:\d{2}$`, 3),
			},
		},
		&keywordProfile{
			name:   "toast",
			tokens: []string{"toast"},
			signatures: []Signature{
				sig(schema.Sales, "Order Id", "Revenue Center", "Dining Options"),
				sig(schema.Sales, "Order #", "Opened", "Server"),
				sig(schema.Menu, "Menu Item", "Menu Group", "Menu"),
			},
			patterns: []ValuePattern{
				pattern("toast_order_id", "order", `^\d{12,19}$`, 5),
				pattern("us_datetime", "", `^\d{1,2}/\d{1,2}/\d{2} \d{1,2}:\d{2} (AM|PM)$`, 3),
			},
		},
		&keywordProfile{
			name:   "clover",
			tokens: []string{"clover"},
			signatures: []Signature{
				sig(schema.Menu, "Clover ID", "Price Type", "Price Unit"),
				sig(schema.Sales, "Order ID", "Order Total", "Tender"),
				sig(schema.Inventory, "Clover ID", "Quantity", "Stock Count"),
			},
			patterns: []ValuePattern{
				pattern("clover_id", "id", `^[A-Z0-9]{13}$`, 5),
				pattern("price_type", "price type", `^(FIXED|VARIABLE|PER_UNIT)$`, 5),
			},
		},
		&keywordProfile{
			name:   "lightspeed",
			tokens: []string{"lightspeed"},
			signatures: []Signature{
				sig(schema.Sales, "Receipt ID", "Account Profile", "Table Name"),
				sig(schema.Menu, "PLU", "Product Name", "Accounting Group"),
				sig(schema.Inventory, "System ID", "Qty on Hand", "Reorder Point"),
			},
			patterns: []ValuePattern{
				pattern("iso_timestamp", "", `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`, 3),
				pattern("receipt_number", "receipt", `^R\d+$`, 4),
			},
		},
		&keywordProfile{
			name:   "revel",
			tokens: []string{"revel"},
			signatures: []Signature{
				sig(schema.Sales, "Order ID", "Establishment", "Dining Option"),
				sig(schema.Menu, "Product ID", "Product Name", "Product Class"),
			},
			patterns: []ValuePattern{
				pattern("sql_timestamp", "", `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, 3),
			},
		},
		&keywordProfile{
			name:   "touchbistro",
			tokens: []string{"touchbistro", "touch_bistro", "touch bistro"},
			signatures: []Signature{
				sig(schema.Sales, "Bill Number", "Sales Category", "Menu Item"),
				sig(schema.Menu, "Menu Item", "Menu Category", "Sales Category"),
			},
			patterns: []ValuePattern{
				pattern("bill_number", "bill", `^\d{5,}$`, 4),
			},
		},
	}
}
