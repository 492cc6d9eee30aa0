package search

import (
	"reflect"
	"testing"
)

func TestParseClassification(t *testing.T) {
	p := NewQueryParser()

	tests := []struct {
		query          string
		wantType       QueryType
		wantConfidence float64
	}{
		{"PaymentService class that handles stripe payments", QueryHybrid, 0.8},
		{"UserController login function", QueryHybrid, 0.8},
		{"DB", QueryEntity, 0.9},
		{"async payment validation", QueryContextual, 0.7},
		{"how payments move through checkout", QuerySemantic, 0.6},
		{"a of", QuerySemantic, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			intent := p.Parse(tt.query)
			if intent.QueryType != tt.wantType {
				t.Errorf("type = %s, want %s (%+v)", intent.QueryType, tt.wantType, intent)
			}
			if intent.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %.2f, want %.2f", intent.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestParseExtractsEntitiesAndHints(t *testing.T) {
	intent := NewQueryParser().Parse("UserController login function")

	if !containsString(intent.EntityNames, "UserController") {
		t.Errorf("entity names = %v, want UserController", intent.EntityNames)
	}
	if !containsString(intent.NodeTypes, "Function") {
		t.Errorf("node types = %v, want Function", intent.NodeTypes)
	}
	if !containsString(intent.ProgrammingTerms, "login") {
		t.Errorf("programming terms = %v, want login", intent.ProgrammingTerms)
	}
	if intent.Confidence < 0.7 {
		t.Errorf("confidence = %.2f, want >= 0.7", intent.Confidence)
	}
}

func TestParseSuffixPatterns(t *testing.T) {
	p := NewQueryParser()

	tests := []struct {
		query string
		want  string
	}{
		{"where is OrderRepository used", "OrderRepository"},
		{"show me the RetryManager", "RetryManager"},
		{"what does PaymentException wrap", "PaymentException"},
		{"UserDTO mapping", "UserDTO"},
	}
	for _, tt := range tests {
		intent := p.Parse(tt.query)
		if !containsString(intent.EntityNames, tt.want) {
			t.Errorf("%q: entities = %v, want %s", tt.query, intent.EntityNames, tt.want)
		}
	}
}

func TestParseNodeTypeHints(t *testing.T) {
	intent := NewQueryParser().Parse("classes and methods in the billing file")
	want := []string{"Class", "Method", "File"}
	if !reflect.DeepEqual(intent.NodeTypes, want) {
		t.Errorf("node types = %v, want %v", intent.NodeTypes, want)
	}
}

func TestParseExpandContext(t *testing.T) {
	p := NewQueryParser()

	tests := []struct {
		query string
		want  bool
	}{
		{"what calls charge_card", true},
		{"functions called by main", true},
		{"class hierarchy of PaymentService", true},
		{"structure of the billing module", true},
		{"PaymentService", false},
		{"parse configuration", false},
	}
	for _, tt := range tests {
		if got := p.Parse(tt.query).ExpandContext; got != tt.want {
			t.Errorf("%q: expand context = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestParseSemanticTermsExcludeLexiconWords(t *testing.T) {
	intent := NewQueryParser().Parse("async payment validation class")

	if containsString(intent.SemanticTerms, "class") {
		t.Error("node-type word leaked into semantic terms")
	}
	if containsString(intent.SemanticTerms, "async") {
		t.Error("programming term leaked into semantic terms")
	}
	for _, want := range []string{"payment", "validation"} {
		if !containsString(intent.SemanticTerms, want) {
			t.Errorf("semantic terms = %v, want %s", intent.SemanticTerms, want)
		}
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
