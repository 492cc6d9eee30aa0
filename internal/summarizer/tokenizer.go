package summarizer

import (
	"context"

	"github.com/sevigo/goframe/llms"
)

// TokenizerAdapter exposes token counting and truncation over a goframe
// model. Models that do not implement llms.Tokenizer fall back to a fast
// character-based estimate.
type TokenizerAdapter struct {
	model llms.Model
}

// NewTokenizerAdapter creates an adapter; model may be nil, in which case
// only the estimate is available.
func NewTokenizerAdapter(model llms.Model) *TokenizerAdapter {
	return &TokenizerAdapter{model: model}
}

// CountTokens returns the token count of text.
func (a *TokenizerAdapter) CountTokens(ctx context.Context, text string) int {
	if t, ok := a.model.(llms.Tokenizer); ok {
		n, err := t.CountTokens(ctx, text)
		if err == nil {
			return n
		}
	}
	return a.estimate(text)
}

// Truncate cuts text so it fits within maxTokens of the embedder's window.
func (a *TokenizerAdapter) Truncate(ctx context.Context, text string, maxTokens int) string {
	if a.CountTokens(ctx, text) <= maxTokens {
		return text
	}
	maxChars := maxTokens * 3
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

// estimate approximates tokens at three characters per token, matching the
// heuristic used for splitter sizing.
func (a *TokenizerAdapter) estimate(text string) int {
	return len(text) / 3
}
