package cell

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      float64
	}{
		{name: "positive integer", input: "123", wantValid: true, want: 123},
		{name: "negative integer", input: "-456", wantValid: true, want: -456},
		{name: "decimal number", input: "123.45", wantValid: true, want: 123.45},
		{name: "leading decimal point", input: ".99", wantValid: true, want: 0.99},
		{name: "dollar sign", input: "$1,234.56", wantValid: true, want: 1234.56},
		{name: "euro sign", input: "€12.50", wantValid: true, want: 12.50},
		{name: "pound sign", input: "£3", wantValid: true, want: 3},
		{name: "currency code", input: "12.99 USD", wantValid: true, want: 12.99},
		{name: "accounting negative", input: "($1,234.56)", wantValid: true, want: -1234.56},
		{name: "excel formula prefix", input: `="42"`, wantValid: true, want: 42},
		{name: "empty string", input: "", wantValid: false},
		{name: "whitespace only", input: "   ", wantValid: false},
		{name: "text", input: "twelve", wantValid: false},
		{name: "mixed text", input: "12 each", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantDate  string
	}{
		{name: "ISO date", input: "2024-03-15", wantValid: true, wantDate: "2024-03-15"},
		{name: "US date", input: "3/15/2024", wantValid: true, wantDate: "2024-03-15"},
		{name: "ISO timestamp", input: "2024-03-15T10:30:00Z", wantValid: true, wantDate: "2024-03-15"},
		{name: "SQL timestamp", input: "2024-03-15 10:30:00", wantValid: true, wantDate: "2024-03-15"},
		{name: "US timestamp with meridiem", input: "3/15/2024 7:05 PM", wantValid: true, wantDate: "2024-03-15"},
		{name: "month name", input: "Mar 15, 2024", wantValid: true, wantDate: "2024-03-15"},
		{name: "two digit year", input: "3/15/24", wantValid: true, wantDate: "2024-03-15"},
		{name: "empty", input: "", wantValid: false},
		{name: "not a date", input: "Appetizers", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if ok && got.Format("2006-01-02") != tt.wantDate {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.wantDate)
			}
		})
	}
}

func TestParseDate_TwoDigitYearPivot(t *testing.T) {
	farFuture := (time.Now().Year() + TwoDigitYearPivot + 1) % 100
	input := "1/1/" + twoDigits(farFuture)

	got, ok := ParseDate(input)
	if !ok {
		t.Fatalf("ParseDate(%q) failed", input)
	}
	if got.Year() > time.Now().Year() {
		t.Errorf("ParseDate(%q) year = %d, want previous century", input, got.Year())
	}
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input     string
		want      bool
		wantValid bool
	}{
		{"yes", true, true},
		{"Y", true, true},
		{"TRUE", true, true},
		{"0", false, true},
		{"no", false, true},
		{"maybe", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		got, ok := ParseBool(tt.input)
		if ok != tt.wantValid || got != tt.want {
			t.Errorf("ParseBool(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantValid)
		}
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Caesar Salad ", "Caesar Salad"},
		{`="00123"`, "00123"},
		{"=SUM", "SUM"},
		{`"quoted"`, "quoted"},
	}

	for _, tt := range tests {
		if got := Clean(tt.input); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStripCurrency(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"$12.99", "12.99"},
		{"$1,299.00", "1299.00"},
		{"(5.00)", "-5.00"},
		{"12.99", "12.99"},
	}

	for _, tt := range tests {
		if got := StripCurrency(tt.input); got != tt.want {
			t.Errorf("StripCurrency(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
