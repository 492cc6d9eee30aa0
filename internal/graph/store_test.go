package graph

import (
	"math"
	"reflect"
	"testing"
)

func TestRowHelpers(t *testing.T) {
	row := Row{
		"name":  "PaymentService",
		"count": int64(7),
		"size":  float64(12),
		"flag":  true,
		"langs": []any{"python", "go", 3},
		"vec":   []any{float64(0.5), float64(0.25)},
	}

	if row.String("name") != "PaymentService" {
		t.Error("String")
	}
	if row.String("missing") != "" {
		t.Error("String on missing key must return empty")
	}
	if row.Int("count") != 7 || row.Int("size") != 12 || row.Int("missing") != 0 {
		t.Error("Int")
	}
	if row.Float("size") != 12 || row.Float("count") != 7 {
		t.Error("Float")
	}
	if !row.Bool("flag") || row.Bool("name") {
		t.Error("Bool")
	}
	if got := row.Strings("langs"); !reflect.DeepEqual(got, []string{"python", "go"}) {
		t.Errorf("Strings = %v", got)
	}
	if got := row.Floats("vec"); !reflect.DeepEqual(got, []float32{0.5, 0.25}) {
		t.Errorf("Floats = %v", got)
	}
}

func TestLabelForVectorIndex(t *testing.T) {
	tests := []struct {
		index string
		want  string
		ok    bool
	}{
		{"class_embedding_index", "Class", true},
		{"file_embedding_index", "File", true},
		{"method_embedding_index", "Method", true},
		{"_embedding_index", "", false},
		{"bogus", "", false},
	}
	for _, tt := range tests {
		got, ok := labelForVectorIndex(tt.index)
		if got != tt.want || ok != tt.ok {
			t.Errorf("labelForVectorIndex(%q) = (%q, %v), want (%q, %v)", tt.index, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCosine(t *testing.T) {
	if got := cosine([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical vectors: %f", got)
	}
	if got := cosine([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors: %f", got)
	}
	if got := cosine([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("mismatched dimensions must score zero: %f", got)
	}
	if got := cosine([]float32{0, 0}, []float32{0, 0}); got != 0 {
		t.Errorf("zero vectors must score zero: %f", got)
	}
}
