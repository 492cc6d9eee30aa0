// Package summarizer drives hierarchical bottom-up summary generation and
// embedding of graph nodes.
package summarizer

import "github.com/sevigo/code-atlas/internal/core"

// LevelOrder is the fixed bottom-up processing order. A level is only
// processed after every level before it has gone quiescent, so parents
// always see summarized children.
var LevelOrder = []core.Label{
	core.LabelParameter,
	core.LabelVariable,
	core.LabelMethod,
	core.LabelFunction,
	core.LabelClass,
	core.LabelInterface,
	core.LabelFile,
	core.LabelDirectory,
}

// levelGuidance maps each level to the focus line appended to its prompt.
var levelGuidance = map[core.Label]string{
	core.LabelParameter: "Focus on: parameter type, purpose, constraints, default values",
	core.LabelVariable:  "Focus on: variable type, purpose, scope, usage pattern",
	core.LabelMethod:    "Focus on: purpose, parameters, return value, side effects",
	core.LabelFunction:  "Focus on: purpose, parameters, return value, side effects",
	core.LabelClass:     "Focus on: responsibility, key methods, relationships",
	core.LabelInterface: "Focus on: responsibility, key methods, relationships",
	core.LabelFile:      "Focus on: main purpose, key classes/functions, external dependencies",
	core.LabelDirectory: "Focus on: main purpose, key classes/functions, external dependencies",
}
