package summarizer

import (
	"fmt"
	"strings"

	"github.com/sevigo/code-atlas/internal/core"
)

const (
	maxChildSnippets   = 10
	maxRelatedSnippets = 5
)

// promptInput carries everything the prompt builder needs for one node.
type promptInput struct {
	Name      string
	Label     core.Label
	RawCode   string
	Children  []string
	Related   []string
}

// buildPrompt assembles the level-aware summarization prompt: the node's
// code, up to ten child summaries, up to five dependency summaries, and the
// level's focus line.
func buildPrompt(in promptInput) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyze and summarize this %s: %s\n", strings.ToLower(string(in.Label)), in.Name)

	if in.RawCode != "" {
		fmt.Fprintf(&sb, "\nCode:\n%s\n", in.RawCode)
	}

	if len(in.Children) > 0 {
		sb.WriteString("\nContains these components:\n")
		for _, child := range clip(in.Children, maxChildSnippets) {
			fmt.Fprintf(&sb, "- %s\n", child)
		}
	}

	if len(in.Related) > 0 {
		sb.WriteString("\nUses/References:\n")
		for _, dep := range clip(in.Related, maxRelatedSnippets) {
			fmt.Fprintf(&sb, "- %s\n", dep)
		}
	}

	if guidance, ok := levelGuidance[in.Label]; ok {
		sb.WriteString("\n" + guidance + "\n")
	}
	sb.WriteString("\nProvide a concise technical summary (2-4 sentences):")

	return sb.String()
}

func clip(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
