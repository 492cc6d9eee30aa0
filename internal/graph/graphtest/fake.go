// Package graphtest provides a scriptable in-memory Store double for unit
// tests.
package graphtest

import (
	"context"
	"strings"
	"sync"

	"github.com/sevigo/code-atlas/internal/graph"
)

// Rule matches queries by substring and yields canned rows.
type Rule struct {
	// Contains is matched against the query text; the first matching rule
	// wins. An empty string matches every query.
	Contains string
	Rows     []graph.Row
	Err      error
}

// Call records one executed query.
type Call struct {
	Query  string
	Params map[string]any
}

// KNNCall records one vector query.
type KNNCall struct {
	Index string
	K     int
	Vec   []float32
}

// FakeStore implements graph.Store against scripted rules.
type FakeStore struct {
	mu       sync.Mutex
	Rules    []Rule
	KNNRows  []graph.Row
	KNNErr   error
	Calls    []Call
	KNNCalls []KNNCall
}

// Run matches the query against the rules and returns the first hit.
// Unmatched queries return no rows.
func (f *FakeStore) Run(_ context.Context, query string, params map[string]any) ([]graph.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Query: query, Params: params})
	for _, rule := range f.Rules {
		if rule.Contains == "" || strings.Contains(query, rule.Contains) {
			return rule.Rows, rule.Err
		}
	}
	return nil, nil
}

// VectorKNN returns the scripted KNN rows.
func (f *FakeStore) VectorKNN(_ context.Context, index string, k int, vec []float32) ([]graph.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.KNNCalls = append(f.KNNCalls, KNNCall{Index: index, K: k, Vec: vec})
	return f.KNNRows, f.KNNErr
}

// QueriesContaining returns the executed queries matching the substring.
func (f *FakeStore) QueriesContaining(substring string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, call := range f.Calls {
		if strings.Contains(call.Query, substring) {
			out = append(out, call)
		}
	}
	return out
}
