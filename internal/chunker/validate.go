package chunker

import (
	"errors"
	"fmt"

	"github.com/sevigo/code-atlas/internal/core"
)

var errEmptyFragment = errors.New("fragment has no nodes")

// ValidateFragment checks a parser's output against the canonical schema.
// Unknown labels and relationship types are rejected outright rather than
// silently skipped, so a drifting parser fails loudly.
func ValidateFragment(f *core.Fragment) error {
	if f.Language == "" {
		return errors.New("missing language")
	}
	if f.Version == "" {
		return errors.New("missing schema version")
	}
	if len(f.Nodes) == 0 {
		return errEmptyFragment
	}

	ids := make(map[string]struct{}, len(f.Nodes))
	for i, n := range f.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d: missing id", i)
		}
		if !n.Label.Valid() {
			return fmt.Errorf("node %s: unknown label %q", n.ID, n.Label)
		}
		if n.Name == "" {
			return fmt.Errorf("node %s: missing name", n.ID)
		}
		ids[n.ID] = struct{}{}
	}

	for i, r := range f.Relationships {
		if r.SourceID == "" || r.TargetID == "" {
			return fmt.Errorf("relationship %d: missing endpoint id", i)
		}
		if !r.Type.Valid() {
			return fmt.Errorf("relationship %s->%s: unknown type %q", r.SourceID, r.TargetID, r.Type)
		}
	}
	return nil
}
