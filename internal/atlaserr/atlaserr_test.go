package atlaserr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection refused")
	err := New(KindStore, "run query", base)

	if !Is(err, KindStore) {
		t.Error("kind lost")
	}
	if Is(err, KindNotFound) {
		t.Error("wrong kind matched")
	}
	if !errors.Is(err, base) {
		t.Error("unwrap chain broken")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if KindOf(wrapped) != KindStore {
		t.Error("kind must survive wrapping")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors have no kind")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(KindNotFound, "node lookup", "node %s not found", "n1")
	if got := err.Error(); got != "node lookup: node n1 not found" {
		t.Errorf("message = %q", got)
	}
}
