package common

import (
	"testing"

	"github.com/dtnitsch/llm-intent-miner/models"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  https://example.com  ", "https://example.com"},
		{"https://example.com,", "https://example.com"},
		{"[docs](https://example.com/docs)", "https://example.com/docs"},
		{"<https://example.com>", "https://example.com"},
		{"https://example.com/a?b=c", "https://example.com/a?b=c"},
	}
	for _, tt := range tests {
		if got := SanitizeURL(tt.in); got != tt.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidPageURL(t *testing.T) {
	tests := map[string]bool{
		"https://bakery.example/learn":      true,
		"http://localhost:8080/docs":        true,
		"ftp://bakery.example/file":         false,
		"not a url":                         false,
		"file:///learn/sourdough":           false,
		"https://bakery.example/a b":        false,
		"":                                  false,
		"https://bakery.example/?q=pricing": true,
	}
	for in, want := range tests {
		if got := ValidPageURL(in); got != want {
			t.Errorf("ValidPageURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFilterFields(t *testing.T) {
	in := models.Intent{
		PrimaryIntent: "learn_and_understand",
		Confidence:    0.8,
		Keywords:      []string{"tutorial"},
		PageCount:     2,
	}

	all := FilterFields(in, "")
	if len(all) != 7 {
		t.Errorf("FilterFields() without fields returned %d keys, want 7", len(all))
	}

	got := FilterFields(in, "name, conf,page_count")
	if len(got) != 3 {
		t.Fatalf("FilterFields() = %v, want 3 keys", got)
	}
	if got["primary_intent"] != "learn_and_understand" {
		t.Errorf("primary_intent = %v", got["primary_intent"])
	}
	if got["confidence"] != 0.8 {
		t.Errorf("confidence = %v", got["confidence"])
	}
	if _, ok := got["keywords"]; ok {
		t.Error("keywords should be filtered out")
	}

	list := FilterIntentFields([]models.Intent{in, in}, "kw")
	if len(list) != 2 || len(list[1]) != 1 {
		t.Errorf("FilterIntentFields() = %v", list)
	}
}

func TestCorpusFingerprint(t *testing.T) {
	a := models.Page{URL: "https://bakery.example/a", CleanedText: "sourdough"}
	b := models.Page{URL: "https://bakery.example/b", CleanedText: "pricing"}
	settings := []byte(`{"extraction_method":"hybrid"}`)

	fp := CorpusFingerprint([]models.Page{a, b}, settings)
	if len(fp) != 16 {
		t.Errorf("fingerprint %q should be 16 hex chars", fp)
	}
	if got := CorpusFingerprint([]models.Page{b, a}, settings); got != fp {
		t.Error("fingerprint should not depend on page order")
	}

	changed := b
	changed.CleanedText = "pricing tiers"
	if CorpusFingerprint([]models.Page{a, changed}, settings) == fp {
		t.Error("fingerprint should change with page text")
	}
	if CorpusFingerprint([]models.Page{a, b}, []byte(`{"extraction_method":"pattern"}`)) == fp {
		t.Error("fingerprint should change with settings")
	}
}
