package model

import "testing"

func TestSymbolValidateContainment(t *testing.T) {
	parent := &Symbol{
		Name: "Bar", StartLine: 5, EndLine: 10,
		Children: []*Symbol{
			{Name: "method", StartLine: 6, EndLine: 8},
		},
	}
	if err := parent.Validate(); err != nil {
		t.Fatalf("expected valid containment, got %v", err)
	}
}

func TestSymbolValidateRejectsOutOfRangeChild(t *testing.T) {
	parent := &Symbol{
		Name: "Bar", StartLine: 5, EndLine: 10,
		Children: []*Symbol{
			{Name: "method", StartLine: 4, EndLine: 8},
		},
	}
	if err := parent.Validate(); err == nil {
		t.Fatal("expected containment violation error")
	}
}

func TestSymbolValidateRejectsUnorderedChildren(t *testing.T) {
	parent := &Symbol{
		Name: "Bar", StartLine: 1, EndLine: 20,
		Children: []*Symbol{
			{Name: "b", StartLine: 10, EndLine: 12},
			{Name: "a", StartLine: 2, EndLine: 4},
		},
	}
	if err := parent.Validate(); err == nil {
		t.Fatal("expected ordering violation error")
	}
}
