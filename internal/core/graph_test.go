package core

import (
	"encoding/json"
	"testing"
)

func TestNodeUnmarshalSweepsExtras(t *testing.T) {
	data := []byte(`{
		"id": "file_1",
		"label": "File",
		"name": "a.py",
		"full_name": "src/a.py",
		"location": {"start_line": 1, "end_line": 42},
		"path": "src/a.py",
		"checksum": "abc123",
		"size": 512,
		"properties": {"language": "python", "name": "shadowed"}
	}`)

	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if n.ID != "file_1" || n.Label != LabelFile || n.Name != "a.py" {
		t.Errorf("typed fields wrong: %+v", n)
	}
	if n.Location == nil || n.Location.StartLine != 1 || n.Location.EndLine != 42 {
		t.Errorf("location wrong: %+v", n.Location)
	}
	if n.Extra["path"] != "src/a.py" || n.Extra["checksum"] != "abc123" {
		t.Errorf("label extras not swept: %v", n.Extra)
	}
	if n.Extra["language"] != "python" {
		t.Errorf("nested properties not merged: %v", n.Extra)
	}
	if _, shadowed := n.Extra["name"]; shadowed {
		t.Error("nested properties must not shadow typed keys swept earlier")
	}
	if n.Extra["size"] != float64(512) {
		t.Errorf("numeric extra wrong: %v", n.Extra["size"])
	}
}

func TestLabelValid(t *testing.T) {
	for _, label := range AllLabels {
		if !label.Valid() {
			t.Errorf("label %s should be valid", label)
		}
	}
	if Label("Module").Valid() {
		t.Error("unknown label accepted")
	}
}

func TestRelTypeValid(t *testing.T) {
	for _, relType := range AllRelTypes {
		if !relType.Valid() {
			t.Errorf("relationship type %s should be valid", relType)
		}
	}
	if RelType("DEPENDS_ON").Valid() {
		t.Error("unknown relationship type accepted")
	}
}

func TestVectorLabelsAreSubsetOfAllLabels(t *testing.T) {
	for _, label := range VectorLabels {
		if !label.Valid() {
			t.Errorf("vector label %s not in closed label set", label)
		}
	}
}
