package validation

import (
	"fmt"
	"sync"

	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/mapping"
	"github.com/JonMunkholm/posimport/internal/schema"
)

// Rule is a named business predicate over one canonical record. Check
// returns true when the record passes; rules must pass records that lack
// the fields they need, leaving absence to the required-field check.
type Rule struct {
	Name       string
	ImportType schema.ImportType
	Severity   issue.Severity
	Check      func(mapping.Record) bool
	Message    string
}

// RuleViolation is one record failing one rule.
type RuleViolation struct {
	Rule      string         `json:"rule"`
	RowNumber int            `json:"row_number"`
	Severity  issue.Severity `json:"severity"`
	Kind      issue.Kind     `json:"kind"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
}

var (
	rules   = make(map[schema.ImportType][]Rule)
	rulesMu sync.RWMutex
)

// RegisterRule adds a business rule. Rules run in registration order.
// Panics on a duplicate name within an import type.
func RegisterRule(r Rule) {
	rulesMu.Lock()
	defer rulesMu.Unlock()

	for _, existing := range rules[r.ImportType] {
		if existing.Name == r.Name {
			panic(fmt.Sprintf("rule already registered: %s/%s", r.ImportType, r.Name))
		}
	}
	rules[r.ImportType] = append(rules[r.ImportType], r)
}

// Rules returns the rules registered for an import type.
func Rules(t schema.ImportType) []Rule {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	return append([]Rule(nil), rules[t]...)
}

// duplicateKeys are the field sets that identify a record per import type.
var duplicateKeys = map[schema.ImportType][][]string{
	schema.Menu:      {{"name"}, {"name", "category"}, {"pos_id"}},
	schema.Inventory: {{"name"}, {"sku"}},
	schema.Sales:     {{"transaction_id", "item_name"}},
	schema.Recipes:   {{"recipe_name", "ingredient_name"}},
	schema.Customers: {{"email"}, {"phone"}, {"customer_id"}},
}

func init() {
	RegisterRule(Rule{
		Name:       "price_covers_cost",
		ImportType: schema.Menu,
		Severity:   issue.Warning,
		Message:    "price is less than twice the food cost",
		Check: func(r mapping.Record) bool {
			price, ok1 := number(r.Fields["price"])
			cost, ok2 := number(r.Fields["cost"])
			return !ok1 || !ok2 || cost <= 0 || price >= 2*cost
		},
	})
	RegisterRule(Rule{
		Name:       "calories_plausible",
		ImportType: schema.Menu,
		Severity:   issue.Warning,
		Message:    "calories outside 0-5000",
		Check: func(r mapping.Record) bool {
			c, ok := number(r.Fields["calories"])
			return !ok || (c >= 0 && c <= 5000)
		},
	})
	RegisterRule(Rule{
		Name:       "non_negative_stock",
		ImportType: schema.Inventory,
		Severity:   issue.Error,
		Message:    "current stock is negative",
		Check: func(r mapping.Record) bool {
			s, ok := number(r.Fields["current_stock"])
			return !ok || s >= 0
		},
	})
	RegisterRule(Rule{
		Name:       "reorder_below_par",
		ImportType: schema.Inventory,
		Severity:   issue.Warning,
		Message:    "reorder point is above par level",
		Check: func(r mapping.Record) bool {
			reorder, ok1 := number(r.Fields["reorder_point"])
			par, ok2 := number(r.Fields["par_level"])
			return !ok1 || !ok2 || reorder <= par
		},
	})
	RegisterRule(Rule{
		Name:       "non_negative_total",
		ImportType: schema.Sales,
		Severity:   issue.Warning,
		Message:    "total amount is negative; check for refunds",
		Check: func(r mapping.Record) bool {
			t, ok := number(r.Fields["total_amount"])
			return !ok || t >= 0
		},
	})
	RegisterRule(Rule{
		Name:       "positive_quantity",
		ImportType: schema.Recipes,
		Severity:   issue.Error,
		Message:    "ingredient quantity must be positive",
		Check: func(r mapping.Record) bool {
			q, ok := number(r.Fields["quantity"])
			return !ok || q > 0
		},
	})
	RegisterRule(Rule{
		Name:       "contact_present",
		ImportType: schema.Customers,
		Severity:   issue.Low,
		Message:    "customer has neither email nor phone",
		Check: func(r mapping.Record) bool {
			return !empty(r.Fields["email"]) || !empty(r.Fields["phone"])
		},
	})
}
