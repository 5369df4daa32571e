package validation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/mapping"
	"github.com/JonMunkholm/posimport/internal/schema"
	"github.com/JonMunkholm/posimport/internal/source"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func quietEngine(opts ...Option) *Engine {
	return New(append([]Option{WithLogger(discard)}, opts...)...)
}

// setFor builds a mapping set whose headers are the target field names.
func setFor(t schema.ImportType, fields ...string) *mapping.Set {
	s := &mapping.Set{ImportType: t, Mappings: make(map[string]*mapping.FieldMapping)}
	for _, f := range fields {
		s.Headers = append(s.Headers, f)
		s.Mappings[f] = &mapping.FieldMapping{SourceHeader: f, TargetField: f, Confidence: 100, Primary: true}
	}
	return s
}

func rec(row int, fields map[string]any) mapping.Record {
	return mapping.Record{Fields: fields, SourceRowNumber: row}
}

func kinds(issues []issue.Issue) []issue.Kind {
	var out []issue.Kind
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestValidateData_MenuEndToEnd(t *testing.T) {
	headers := []string{"Item Name", "Price", "Category"}
	rows := []source.Row{{"Item Name": "Caesar Salad", "Price": "$12.99", "Category": "Appetizers"}}

	m := mapping.New(mapping.WithLogger(discard))
	set, err := m.DetectMappings(headers, rows, schema.Menu)
	require.NoError(t, err)

	records, err := m.ApplyMappings(context.Background(), source.NewSliceIterator(headers, rows), set, mapping.ApplyOptions{})
	require.NoError(t, err)

	r, err := quietEngine().ValidateData(context.Background(), records, set, schema.Menu)
	require.NoError(t, err)

	assert.True(t, r.IsValid)
	assert.True(t, r.Complete)
	assert.Equal(t, 0, r.Summary.CriticalErrors)
	assert.GreaterOrEqual(t, r.Summary.QualityScore, 90.0)
	assert.Equal(t, 1, r.Summary.TotalRows)
	assert.Empty(t, r.RowErrors)
}

func TestValidateData_MissingRequiredMapping(t *testing.T) {
	headers := []string{"Item Name", "Category"}
	rows := []source.Row{{"Item Name": "Burger", "Category": "Entrees"}}

	m := mapping.New(mapping.WithLogger(discard))
	set, err := m.DetectMappings(headers, rows, schema.Menu)
	require.NoError(t, err)

	records, err := m.ApplyMappings(context.Background(), source.NewSliceIterator(headers, rows), set, mapping.ApplyOptions{})
	require.NoError(t, err)

	r, err := quietEngine().ValidateData(context.Background(), records, set, schema.Menu)
	require.NoError(t, err)

	assert.False(t, r.IsValid)
	require.Len(t, r.FieldErrors["price"], 1)
	got := r.FieldErrors["price"][0]
	assert.Equal(t, issue.Critical, got.Severity)
	assert.Equal(t, issue.MissingRequiredField, got.Kind)
	assert.Contains(t, got.Message, "price")
}

func TestValidateRow(t *testing.T) {
	set := setFor(schema.Sales, "transaction_id", "transaction_date", "quantity", "unit_price", "total_amount")
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	base := func() map[string]any {
		return map[string]any{
			"transaction_id":   "T1",
			"transaction_date": day,
			"quantity":         2.0,
			"unit_price":       5.0,
			"total_amount":     10.0,
		}
	}

	tests := []struct {
		name      string
		change    map[string]any
		wantValid bool
		wantKinds []issue.Kind
		wantSev   issue.Severity
	}{
		{"clean", nil, true, nil, ""},
		{"within one percent", map[string]any{"total_amount": 10.05}, true, nil, ""},
		{"arithmetic mismatch", map[string]any{"total_amount": 12.0}, true, []issue.Kind{issue.ArithmeticMismatch}, issue.Medium},
		{"missing required", map[string]any{"transaction_id": nil}, false, []issue.Kind{issue.MissingRequiredField}, issue.Critical},
		{"blank required", map[string]any{"transaction_id": "  "}, false, []issue.Kind{issue.MissingRequiredField}, issue.Critical},
		{"optional type mismatch", map[string]any{"quantity": "lots"}, true, []issue.Kind{issue.TypeMismatch}, issue.Medium},
		{"required type mismatch", map[string]any{"total_amount": "abc"}, true, []issue.Kind{issue.TypeMismatch}, issue.High},
		{"bad date", map[string]any{"transaction_date": "someday"}, true, []issue.Kind{issue.TypeMismatch}, issue.High},
		{"date string ok", map[string]any{"transaction_date": "2024-03-01"}, true, nil, ""},
		{"untransformed number ok", map[string]any{"unit_price": "$5.00"}, true, nil, ""},
		{"price above range", map[string]any{"unit_price": 900.0, "quantity": 1.0, "total_amount": 900.0}, true, []issue.Kind{issue.ValueOutOfRange}, issue.Warning},
		{"zero price", map[string]any{"unit_price": 0.0, "quantity": 1.0, "total_amount": 0.0}, true, []issue.Kind{issue.ValueOutOfRange}, issue.High},
	}

	e := quietEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := base()
			for k, v := range tt.change {
				fields[k] = v
			}

			res := e.ValidateRow(rec(7, fields), 7, set)
			assert.Equal(t, 7, res.RowNumber)
			assert.Equal(t, tt.wantValid, res.IsValid)

			issues := res.Issues()
			assert.Equal(t, tt.wantKinds, kinds(issues))
			if len(issues) > 0 {
				assert.Equal(t, tt.wantSev, issues[0].Severity)
			}
		})
	}
}

func TestValidateRow_UnmappedFieldsSkipped(t *testing.T) {
	set := setFor(schema.Menu, "name")
	res := quietEngine().ValidateRow(rec(1, map[string]any{"name": "Burger"}), 1, set)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Issues())
}

func TestValidateRow_FieldTypes(t *testing.T) {
	set := setFor(schema.Customers, "name", "email", "phone", "loyalty_points", "birthday")
	e := quietEngine()

	res := e.ValidateRow(rec(1, map[string]any{
		"name":           "Ada",
		"email":          "ada@example.com",
		"phone":          "(555) 123-4567",
		"loyalty_points": 12.0,
		"birthday":       "1990-01-02",
	}), 1, set)
	assert.Empty(t, res.Issues())

	res = e.ValidateRow(rec(2, map[string]any{
		"name":           "Bob",
		"email":          "not-an-email",
		"phone":          "12",
		"loyalty_points": 1.5,
	}), 2, set)
	assert.Equal(t, []issue.Kind{issue.TypeMismatch, issue.TypeMismatch, issue.TypeMismatch}, kinds(res.Issues()))
}

func TestValidateBusinessLogic(t *testing.T) {
	e := quietEngine()

	menu := []mapping.Record{
		rec(1, map[string]any{"name": "Steak", "price": 30.0, "cost": 12.0}),
		rec(2, map[string]any{"name": "Lobster", "price": 30.0, "cost": 20.0}),
		rec(3, map[string]any{"name": "Bread", "price": 3.0}),
	}
	got := e.ValidateBusinessLogic(menu, schema.Menu)
	require.Len(t, got, 1)
	assert.Equal(t, "price_covers_cost", got[0].Rule)
	assert.Equal(t, 2, got[0].RowNumber)
	assert.Equal(t, issue.Warning, got[0].Severity)

	inv := []mapping.Record{
		rec(1, map[string]any{"name": "Flour", "unit": "kg", "current_stock": -1.0}),
		rec(2, map[string]any{"name": "Salt", "unit": "kg", "current_stock": 4.0}),
	}
	got = e.ValidateBusinessLogic(inv, schema.Inventory)
	require.Len(t, got, 1)
	assert.Equal(t, "non_negative_stock", got[0].Rule)
	assert.Equal(t, issue.Error, got[0].Severity)
}

func TestValidateData_ErrorRuleInvalidates(t *testing.T) {
	set := setFor(schema.Inventory, "name", "unit", "current_stock")
	records := []mapping.Record{
		rec(1, map[string]any{"name": "Flour", "unit": "kg", "current_stock": -1.0}),
	}

	r, err := quietEngine().ValidateData(context.Background(), records, set, schema.Inventory)
	require.NoError(t, err)
	assert.False(t, r.IsValid)
	assert.Equal(t, 1, r.Summary.ValidRows)
	assert.Equal(t, 0, r.Summary.RowsWithErrors)
	assert.Equal(t, 1, r.Summary.CriticalErrors)
	require.Len(t, r.BusinessRuleViolations, 1)
	assert.Equal(t, issue.BusinessRuleViolation, r.BusinessRuleViolations[0].Kind)
	assert.Equal(t, "VAL005", r.BusinessRuleViolations[0].Code)
}

func TestRegisterRule(t *testing.T) {
	const testType schema.ImportType = "rule_test"
	name := fmt.Sprintf("vip_needs_email_%d", time.Now().UnixNano())
	RegisterRule(Rule{
		Name:       name,
		ImportType: testType,
		Severity:   issue.Medium,
		Message:    "vip without email",
		Check: func(r mapping.Record) bool {
			return r.Fields["vip"] != true || !empty(r.Fields["email"])
		},
	})

	got := quietEngine().ValidateBusinessLogic([]mapping.Record{
		rec(1, map[string]any{"vip": true}),
		rec(2, map[string]any{"vip": true, "email": "a@b.co"}),
		rec(3, map[string]any{"vip": false}),
	}, testType)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].RowNumber)

	assert.Panics(t, func() {
		RegisterRule(Rule{Name: name, ImportType: testType, Check: func(mapping.Record) bool { return true }})
	})
}

func TestDetectDuplicates(t *testing.T) {
	records := []mapping.Record{
		rec(1, map[string]any{"name": "Burger", "category": "Entrees"}),
		rec(2, map[string]any{"name": "burger ", "category": "Entrees"}),
		rec(3, map[string]any{"name": "Fries", "category": "Sides"}),
		rec(4, map[string]any{"name": "Burger", "category": "Kids"}),
		rec(5, map[string]any{"name": nil}),
	}

	da := quietEngine().DetectDuplicates(records, schema.Menu)

	require.Equal(t, 2, da.TotalGroups)
	assert.Equal(t, 3, da.AffectedRows)

	assert.Equal(t, []string{"name"}, da.Groups[0].Keys)
	assert.Equal(t, []int{1, 2, 4}, da.Groups[0].Rows)
	assert.Equal(t, []string{"burger"}, da.Groups[0].Values)

	assert.Equal(t, []string{"name", "category"}, da.Groups[1].Keys)
	assert.Equal(t, []int{1, 2}, da.Groups[1].Rows)
	assert.Equal(t, issue.Warning, da.Groups[1].Severity)
	assert.Equal(t, issue.DuplicateRecord, da.Groups[1].Kind)
	assert.Equal(t, "VAL006", da.Groups[1].Code)
}

func TestValidateData_UnnumberedRowsAcrossChunks(t *testing.T) {
	set := setFor(schema.Menu, "name", "price")
	records := make([]mapping.Record, 1500)
	for i := range records {
		records[i] = mapping.Record{Fields: map[string]any{"name": fmt.Sprintf("Dish %d", i+1), "price": 10.0}}
	}
	records[1000].Fields["name"] = "Dish 1"
	records[1001].Fields["name"] = nil

	e := quietEngine()
	r, err := e.ValidateData(context.Background(), records, set, schema.Menu)
	require.NoError(t, err)

	require.NotEmpty(t, r.Duplicates.Groups)
	assert.Equal(t, []int{1, 1001}, r.Duplicates.Groups[0].Rows)
	assert.Equal(t, e.DetectDuplicates(records, schema.Menu), r.Duplicates)

	require.Len(t, r.RowErrors, 1)
	assert.Contains(t, r.RowErrors, 1002)
	assert.Equal(t, 1, r.Summary.RowsWithErrors)
}

func TestValidateData_DuplicateSeverity(t *testing.T) {
	set := setFor(schema.Menu, "name", "price")
	records := []mapping.Record{
		rec(1, map[string]any{"name": "Burger", "price": 10.0}),
		rec(2, map[string]any{"name": "Burger", "price": 10.0}),
	}

	r, err := quietEngine().ValidateData(context.Background(), records, set, schema.Menu)
	require.NoError(t, err)
	assert.True(t, r.IsValid)
	assert.Equal(t, 1, r.Summary.WarningIssues)
	assert.Len(t, records, 2)

	opts := DefaultOptions()
	opts.DuplicateSeverity = issue.Error
	r, err = quietEngine(WithOptions(opts)).ValidateData(context.Background(), records, set, schema.Menu)
	require.NoError(t, err)
	assert.False(t, r.IsValid)
	assert.Equal(t, 1, r.Summary.CriticalErrors)
}

func TestConsistency(t *testing.T) {
	set := setFor(schema.Menu, "name", "price")
	var records []mapping.Record
	for i := 1; i <= 10; i++ {
		var price any = float64(i)
		if i == 10 {
			price = "market price"
		}
		records = append(records, rec(i, map[string]any{"name": fmt.Sprintf("Dish %d", i), "price": price}))
	}

	r, err := quietEngine().ValidateData(context.Background(), records, set, schema.Menu)
	require.NoError(t, err)

	require.Len(t, r.Consistency, 2)
	name, price := r.Consistency[0], r.Consistency[1]

	assert.Equal(t, "name", name.Field)
	assert.False(t, name.Inconsistent)
	assert.Equal(t, 1.0, name.Uniqueness)

	assert.Equal(t, "price", price.Field)
	assert.True(t, price.Inconsistent)
	assert.Equal(t, 0.9, price.DominantShare)
	assert.Equal(t, []int{10}, price.AffectedRows)
	assert.Equal(t, issue.InconsistentField, price.Kind)
	assert.Equal(t, "VAL007", price.Code)
	assert.Equal(t, 90.0, r.Summary.Consistency)
}

func TestConsistency_MoreMixedNeverScoresBetter(t *testing.T) {
	set := setFor(schema.Menu, "name", "price")
	build := func(textRows int) []mapping.Record {
		var out []mapping.Record
		for i := 1; i <= 10; i++ {
			var price any = 10.0
			if i > 10-textRows {
				price = "market price"
			}
			out = append(out, rec(i, map[string]any{"name": fmt.Sprintf("Dish %d", i), "price": price}))
		}
		return out
	}

	e := quietEngine()
	prev := 100.0
	for textRows := 0; textRows <= 5; textRows++ {
		r, err := e.ValidateData(context.Background(), build(textRows), set, schema.Menu)
		require.NoError(t, err)
		assert.LessOrEqual(t, r.Summary.Consistency, prev, "%d text rows", textRows)
		prev = r.Summary.Consistency
	}

	r, err := e.ValidateData(context.Background(), build(5), set, schema.Menu)
	require.NoError(t, err)
	price := r.Consistency[1]
	assert.True(t, price.Inconsistent)
	assert.Equal(t, 0.5, price.DominantShare)
	assert.Equal(t, cell.KindNumeric, price.DominantKind)
	assert.Equal(t, []int{6, 7, 8, 9, 10}, price.AffectedRows)
	assert.Equal(t, 80.0, r.Summary.Consistency)
}

func TestQualityScore(t *testing.T) {
	set := setFor(schema.Menu, "name", "price", "description")
	records := []mapping.Record{
		rec(1, map[string]any{"name": "A", "price": 10.0, "description": nil}),
		rec(2, map[string]any{"name": nil, "price": 900.0, "description": "x"}),
	}

	r, err := quietEngine().ValidateData(context.Background(), records, set, schema.Menu)
	require.NoError(t, err)

	// 4 of 6 cells filled; one missing name, one out-of-range price.
	assert.Equal(t, 66.7, r.Summary.Completeness)
	assert.Equal(t, 1, r.Summary.RowsWithErrors)
	assert.Equal(t, 1, r.Summary.CriticalErrors)
	assert.Equal(t, 1, r.Summary.WarningIssues)
	assert.Equal(t, 93.0, r.Summary.Accuracy)
	assert.Equal(t, 100.0, r.Summary.Consistency)
	assert.Equal(t, 86.6, r.Summary.QualityScore)
	assert.False(t, r.IsValid)
	assert.Equal(t, 1, r.Summary.ValidRows)
}

// salesRecords builds n records with periodic defects so every accumulator
// path is exercised.
func salesRecords(n int) []mapping.Record {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]mapping.Record, n)
	for i := 0; i < n; i++ {
		f := map[string]any{
			"transaction_id":   fmt.Sprintf("T%d", i%980),
			"transaction_date": day.AddDate(0, 0, i%30),
			"item_name":        "Latte",
			"quantity":         2.0,
			"unit_price":       5.0,
			"total_amount":     10.0,
		}
		switch {
		case i%100 == 0:
			f["total_amount"] = -10.0
		case i%50 == 0:
			f["total_amount"] = 11.0
		}
		if i%7 == 0 {
			f["quantity"] = "two"
		}
		if i%333 == 0 {
			f["transaction_id"] = nil
		}
		out[i] = rec(i+1, f)
	}
	return out
}

func TestAccumulator_ChunkMergeMatchesSinglePass(t *testing.T) {
	e := quietEngine()
	set := setFor(schema.Sales, "transaction_id", "transaction_date", "item_name", "quantity", "unit_price", "total_amount")
	records := salesRecords(1000)
	ctx := context.Background()

	whole, err := e.ValidateData(ctx, records, set, schema.Sales)
	require.NoError(t, err)

	a := e.NewAccumulator(schema.Sales)
	require.NoError(t, e.Accumulate(ctx, a, records[:500], 0, set))
	b := e.NewAccumulator(schema.Sales)
	require.NoError(t, e.Accumulate(ctx, b, records[500:], 500, set))

	ab := e.NewAccumulator(schema.Sales)
	ab.Merge(a)
	ab.Merge(b)
	ba := e.NewAccumulator(schema.Sales)
	ba.Merge(b)
	ba.Merge(a)

	for _, acc := range []*Accumulator{ab, ba} {
		merged := e.Finalize(acc, set, true)
		assert.Equal(t, whole.Summary, merged.Summary)
		assert.Equal(t, whole.IsValid, merged.IsValid)
		assert.Equal(t, whole.Duplicates, merged.Duplicates)
		assert.Equal(t, whole.Consistency, merged.Consistency)
		assert.Equal(t, whole.BusinessRuleViolations, merged.BusinessRuleViolations)
		assert.Equal(t, whole.RowErrors, merged.RowErrors)
	}

	assert.Equal(t, 1000, whole.Summary.TotalRows)
	assert.Greater(t, whole.Duplicates.TotalGroups, 0)
	assert.Greater(t, whole.Summary.CriticalErrors, 0)
}

func TestValidateChunks_CancelledIsPartial(t *testing.T) {
	set := setFor(schema.Menu, "name", "price")
	headers := []string{"name", "price"}
	rows := make([]source.Row, 300)
	for i := range rows {
		rows[i] = source.Row{"name": fmt.Sprintf("Dish %d", i), "price": "10"}
	}

	opts := DefaultOptions()
	opts.ChunkSize = 100
	e := quietEngine(WithOptions(opts))
	m := mapping.New(mapping.WithLogger(discard))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := e.ValidateChunks(ctx, m, source.NewSliceIterator(headers, rows), set, func(p mapping.Progress) {
		if p.Chunk == 1 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, r)
	assert.False(t, r.Complete)
	assert.True(t, r.Partial())
	assert.False(t, r.IsValid)
	assert.Equal(t, 100, r.Summary.TotalRows)
	assert.Equal(t, 100, r.Summary.ValidRows)

	r, err = e.ValidateChunks(context.Background(), m, source.NewSliceIterator(headers, rows), set, nil)
	require.NoError(t, err)
	assert.True(t, r.Complete)
	assert.True(t, r.IsValid)
	assert.Equal(t, 300, r.Summary.TotalRows)
}

func TestValidateData_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := quietEngine().ValidateData(ctx, salesRecords(10), setFor(schema.Sales, "transaction_id"), schema.Sales)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, r)
	assert.True(t, r.Partial())
	assert.Equal(t, 0, r.Summary.TotalRows)
}

func TestValidateData_BadSet(t *testing.T) {
	e := quietEngine()

	_, err := e.ValidateData(context.Background(), nil, nil, schema.Menu)
	assert.True(t, issue.IsSystemError(err))

	_, err = e.ValidateData(context.Background(), nil, setFor(schema.Menu, "name"), schema.Sales)
	assert.True(t, issue.IsSystemError(err))

	_, err = e.ValidateChunks(context.Background(), mapping.New(), source.NewSliceIterator(nil, nil), nil, nil)
	assert.True(t, issue.IsSystemError(err))
}
