package summarizer

import (
	"context"
	"strings"
	"testing"
)

func TestEmbeddingTextFallbackChain(t *testing.T) {
	w := &EmbeddingWorker{}

	tests := []struct {
		name string
		node embeddingCandidate
		want string
	}{
		{
			name: "summary wins",
			node: embeddingCandidate{Summary: "the summary", RawCode: "code", Name: "n"},
			want: "the summary",
		},
		{
			name: "raw code when summary empty",
			node: embeddingCandidate{RawCode: "some code", Name: "n"},
			want: "some code",
		},
		{
			name: "raw code truncated at 1000 characters",
			node: embeddingCandidate{RawCode: strings.Repeat("x", 1500)},
			want: strings.Repeat("x", 1000),
		},
		{
			name: "name as last resort",
			node: embeddingCandidate{Name: "charge_card"},
			want: "charge_card",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.embeddingText(tt.node); got != tt.want {
				t.Errorf("embeddingText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenizerTruncate(t *testing.T) {
	tok := NewTokenizerAdapter(nil)
	ctx := context.Background()

	short := "hello"
	if got := tok.Truncate(ctx, short, 512); got != short {
		t.Errorf("short text must pass through, got %q", got)
	}

	long := strings.Repeat("a", 10_000)
	got := tok.Truncate(ctx, long, 512)
	if len(got) != 512*3 {
		t.Errorf("truncated length = %d, want %d", len(got), 512*3)
	}
}

func TestTokenizerEstimate(t *testing.T) {
	tok := NewTokenizerAdapter(nil)
	if got := tok.CountTokens(context.Background(), strings.Repeat("x", 300)); got != 100 {
		t.Errorf("estimate = %d, want 100", got)
	}
}
