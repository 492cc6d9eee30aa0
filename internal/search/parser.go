package search

import (
	"regexp"
	"strings"
)

// QueryType classifies how a query will be executed.
type QueryType string

const (
	QuerySemantic   QueryType = "semantic"
	QueryEntity     QueryType = "entity"
	QueryHybrid     QueryType = "hybrid"
	QueryContextual QueryType = "contextual"
)

// Intent is the parsed shape of a natural-language query.
type Intent struct {
	QueryType        QueryType `json:"query_type"`
	SemanticTerms    []string  `json:"semantic_terms"`
	EntityNames      []string  `json:"entity_names"`
	NodeTypes        []string  `json:"node_types"`
	ProgrammingTerms []string  `json:"programming_terms"`
	ExpandContext    bool      `json:"expand_context"`
	Confidence       float64   `json:"confidence"`
}

// entityPatterns match identifiers that look like named code entities:
// suffix-typed PascalCase names first, then general PascalCase.
var entityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z][a-zA-Z]*(?:Service|Controller|Repository|Manager|Handler|Factory|Builder|Helper|Util|Utils)\b`),
	regexp.MustCompile(`\b[A-Z][a-zA-Z]*(?:Entity|Model|DTO|Request|Response|Config|Configuration)\b`),
	regexp.MustCompile(`\b[A-Z][a-zA-Z]*(?:Exception|Error)\b`),
	regexp.MustCompile(`\b[a-z][a-zA-Z]*(?:Api|HTTP|Rest|GraphQL)\b`),
	regexp.MustCompile(`\b[A-Z][a-zA-Z0-9_]*\b`),
}

// programmingTerms is the closed lexicon of language-neutral keywords.
var programmingTerms = map[string]struct{}{
	"class": {}, "method": {}, "function": {}, "variable": {}, "interface": {}, "enum": {},
	"constructor": {}, "property": {}, "field": {}, "parameter": {}, "return": {},
	"public": {}, "private": {}, "protected": {}, "static": {}, "async": {}, "await": {},
	"import": {}, "export": {}, "extends": {}, "implements": {}, "inherit": {}, "override": {},
	"abstract": {}, "virtual": {}, "final": {}, "const": {}, "let": {}, "var": {},
	"api": {}, "service": {}, "controller": {}, "model": {}, "dto": {}, "entity": {},
	"repository": {}, "database": {}, "query": {}, "connection": {}, "client": {},
	"http": {}, "request": {}, "response": {}, "json": {}, "xml": {}, "rest": {},
	"authenticate": {}, "authorize": {}, "login": {}, "logout": {}, "session": {},
	"cache": {}, "redis": {}, "memory": {}, "storage": {}, "file": {}, "directory": {},
	"test": {}, "mock": {}, "stub": {}, "unit": {}, "integration": {}, "e2e": {},
	"exception": {}, "error": {}, "try": {}, "catch": {}, "throw": {}, "handle": {},
	"log": {}, "logger": {}, "debug": {}, "info": {}, "warn": {},
}

// nodeTypeHints maps query words to graph labels.
var nodeTypeHints = map[string][]string{
	"class":      {"Class"},
	"classes":    {"Class"},
	"interface":  {"Interface"},
	"interfaces": {"Interface"},
	"method":     {"Method"},
	"methods":    {"Method"},
	"function":   {"Function"},
	"functions":  {"Function"},
	"variable":   {"Variable"},
	"variables":  {"Variable"},
	"file":       {"File"},
	"files":      {"File"},
}

// contextIndicators trigger relationship expansion when present anywhere in
// the query.
var contextIndicators = []string{
	"calls", "called by", "uses", "used by", "implements", "extends",
	"inherits", "related", "hierarchy", "structure", "flow",
}

var nonWord = regexp.MustCompile(`[^\w]`)

// QueryParser extracts search intent from natural-language queries.
type QueryParser struct{}

// NewQueryParser creates a QueryParser.
func NewQueryParser() *QueryParser {
	return &QueryParser{}
}

// Parse classifies a query into an Intent using the fixed decision table.
func (p *QueryParser) Parse(query string) Intent {
	queryLower := strings.ToLower(query)
	words := strings.Fields(query)

	var entityNames []string
	seenEntities := make(map[string]struct{})
	for _, pattern := range entityPatterns {
		for _, match := range pattern.FindAllString(query, -1) {
			if _, dup := seenEntities[match]; dup {
				continue
			}
			seenEntities[match] = struct{}{}
			entityNames = append(entityNames, match)
		}
	}

	var progTerms []string
	for _, word := range words {
		lower := strings.ToLower(word)
		if _, ok := programmingTerms[lower]; ok {
			progTerms = append(progTerms, lower)
		}
	}

	var nodeTypes []string
	seenTypes := make(map[string]struct{})
	for _, word := range words {
		for _, hint := range nodeTypeHints[strings.ToLower(word)] {
			if _, dup := seenTypes[hint]; dup {
				continue
			}
			seenTypes[hint] = struct{}{}
			nodeTypes = append(nodeTypes, hint)
		}
	}

	var semanticTerms []string
	for _, word := range words {
		clean := nonWord.ReplaceAllString(strings.ToLower(word), "")
		if len(clean) <= 2 {
			continue
		}
		if _, prog := programmingTerms[clean]; prog {
			continue
		}
		if _, hint := nodeTypeHints[clean]; hint {
			continue
		}
		semanticTerms = append(semanticTerms, clean)
	}

	queryType, confidence := classify(entityNames, progTerms, semanticTerms)

	return Intent{
		QueryType:        queryType,
		SemanticTerms:    semanticTerms,
		EntityNames:      entityNames,
		NodeTypes:        nodeTypes,
		ProgrammingTerms: progTerms,
		ExpandContext:    wantsContext(queryLower),
		Confidence:       confidence,
	}
}

// classify applies the fixed decision table from the presence of each term
// category.
func classify(entities, programming, semantic []string) (QueryType, float64) {
	hasEntities := len(entities) > 0
	hasProgramming := len(programming) > 0
	hasSemantic := len(semantic) > 0

	switch {
	case hasEntities && hasSemantic:
		return QueryHybrid, 0.8
	case hasEntities && hasProgramming:
		return QueryHybrid, 0.7
	case hasEntities:
		return QueryEntity, 0.9
	case hasProgramming && hasSemantic:
		return QueryContextual, 0.7
	case hasSemantic:
		return QuerySemantic, 0.6
	default:
		return QuerySemantic, 0.4
	}
}

func wantsContext(queryLower string) bool {
	for _, indicator := range contextIndicators {
		if strings.Contains(queryLower, indicator) {
			return true
		}
	}
	return false
}
