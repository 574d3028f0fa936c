package main

import (
	"strings"
	"testing"
)

type sample struct {
	ID      string   `json:"id"`
	Level   int      `json:"level"`
	Blocks  []string `json:"blocks"`
	Numeric string   `json:"numeric"`
}

func TestEncode_JSON(t *testing.T) {
	out, err := encode(sample{ID: "sec-00001", Level: 1, Blocks: []string{"p-00001"}}, "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(out), "}\n") || !strings.Contains(string(out), `"id": "sec-00001"`) {
		t.Errorf("unexpected json:\n%s", out)
	}
}

func TestEncode_YAMLKeepsFieldOrder(t *testing.T) {
	out, err := encode(sample{ID: "sec-00001", Level: 2, Blocks: []string{"p-00001", "p-00002"}, Numeric: "12"}, "yaml")
	if err != nil {
		t.Fatal(err)
	}
	got := string(out)
	want := []string{"id: sec-00001", "level: 2", "blocks:", "  - p-00001", "numeric: \"12\""}
	last := -1
	for _, w := range want {
		i := strings.Index(got, w)
		if i < 0 {
			t.Fatalf("missing %q in:\n%s", w, got)
		}
		if i < last {
			t.Errorf("%q out of order in:\n%s", w, got)
		}
		last = i
	}
	if strings.Contains(got, "{") || strings.Contains(got, "[") {
		t.Errorf("expected block style, got:\n%s", got)
	}
}
