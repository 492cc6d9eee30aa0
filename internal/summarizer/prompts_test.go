package summarizer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sevigo/code-atlas/internal/core"
)

func TestBuildPromptStructure(t *testing.T) {
	prompt := buildPrompt(promptInput{
		Name:     "charge_card",
		Label:    core.LabelMethod,
		RawCode:  "def charge_card(self): ...",
		Children: []string{"amount: the amount to charge"},
		Related:  []string{"PaymentGateway: wraps the payment API"},
	})

	for _, want := range []string{
		"Analyze and summarize this method: charge_card",
		"Code:\ndef charge_card(self): ...",
		"Contains these components:",
		"- amount: the amount to charge",
		"Uses/References:",
		"- PaymentGateway: wraps the payment API",
		"Focus on: purpose, parameters, return value, side effects",
		"Provide a concise technical summary (2-4 sentences):",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n%s", want, prompt)
		}
	}
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	prompt := buildPrompt(promptInput{Name: "x", Label: core.LabelParameter})

	if strings.Contains(prompt, "Contains these components") {
		t.Error("children section rendered without children")
	}
	if strings.Contains(prompt, "Uses/References") {
		t.Error("related section rendered without dependencies")
	}
	if !strings.Contains(prompt, "Focus on: parameter type, purpose, constraints, default values") {
		t.Error("missing parameter guidance")
	}
}

func TestBuildPromptClipsContext(t *testing.T) {
	var children, related []string
	for i := 0; i < 20; i++ {
		children = append(children, fmt.Sprintf("child%d: x", i))
		related = append(related, fmt.Sprintf("dep%d: y", i))
	}

	prompt := buildPrompt(promptInput{
		Name: "Big", Label: core.LabelClass, Children: children, Related: related,
	})

	if strings.Contains(prompt, "child10:") {
		t.Error("children must be clipped at 10")
	}
	if !strings.Contains(prompt, "child9:") {
		t.Error("first ten children must be present")
	}
	if strings.Contains(prompt, "dep5:") {
		t.Error("related snippets must be clipped at 5")
	}
	if !strings.Contains(prompt, "dep4:") {
		t.Error("first five related snippets must be present")
	}
}

func TestEveryLevelHasGuidance(t *testing.T) {
	for _, level := range LevelOrder {
		if _, ok := levelGuidance[level]; !ok {
			t.Errorf("level %s has no guidance line", level)
		}
	}
}

func TestLevelOrderIsBottomUp(t *testing.T) {
	want := []core.Label{
		core.LabelParameter, core.LabelVariable, core.LabelMethod, core.LabelFunction,
		core.LabelClass, core.LabelInterface, core.LabelFile, core.LabelDirectory,
	}
	if len(LevelOrder) != len(want) {
		t.Fatalf("LevelOrder has %d levels, want %d", len(LevelOrder), len(want))
	}
	for i, label := range want {
		if LevelOrder[i] != label {
			t.Errorf("LevelOrder[%d] = %s, want %s", i, LevelOrder[i], label)
		}
	}
}
