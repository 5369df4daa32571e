package cell

import "testing"

// ============================================================================
// Parsing Benchmarks
// ============================================================================

// BenchmarkParseNumber benchmarks numeric cell parsing.
// This is a hot path during mapping for price and quantity columns.
func BenchmarkParseNumber(b *testing.B) {
	testCases := []string{
		"123",
		"-456.78",
		"$1,234.56",
		"(123.45)",      // Accounting negative
		"1,234,567.89",  // Thousands separators
		"  999.99  ",    // Whitespace
		"\u20ac1234.56", // Euro
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseNumber(tc)
		}
	}
}

// BenchmarkParseDate benchmarks date cell parsing across common layouts.
func BenchmarkParseDate(b *testing.B) {
	testCases := []string{
		"2024-01-15",
		"01/15/2024",
		"Jan 15, 2024",
		"2024-01-15T10:30:00Z",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseDate(tc)
		}
	}
}

// BenchmarkInferColumn benchmarks type inference over a sample column.
func BenchmarkInferColumn(b *testing.B) {
	values := make([]string, 50)
	for i := range values {
		values[i] = "$12.99"
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		InferColumn(values)
	}
}
