package cell

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"", KindEmpty},
		{"12.99", KindNumeric},
		{"$12.99", KindNumeric},
		{"1", KindNumeric},
		{"2024-01-05", KindDate},
		{"chef@example.com", KindEmail},
		{"yes", KindBoolean},
		{"Caesar Salad", KindText},
	}

	for _, tt := range tests {
		if got := Classify(tt.input); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestInferColumn(t *testing.T) {
	p := InferColumn([]string{"1.50", "2", "", "n/a", "3.25"})

	if p.Kind != KindNumeric {
		t.Errorf("Kind = %s, want %s", p.Kind, KindNumeric)
	}
	if p.NonEmpty != 4 {
		t.Errorf("NonEmpty = %d, want 4", p.NonEmpty)
	}
	if p.Share != 0.75 {
		t.Errorf("Share = %v, want 0.75", p.Share)
	}
}

func TestInferColumn_AllEmpty(t *testing.T) {
	p := InferColumn([]string{"", " "})
	if p.Kind != KindEmpty || p.Share != 0 {
		t.Errorf("InferColumn(empty) = %+v, want empty kind with zero share", p)
	}
}
