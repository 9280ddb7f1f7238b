package ingest

import (
	"strings"

	"github.com/pemistahl/lingua-go"
	"github.com/rivo/uniseg"

	"github.com/dtnitsch/llm-intent-miner/models"
)

// sampleGraphemes bounds how much of a page the detector reads.
const sampleGraphemes = 2000

// LanguageGate keeps pages written in one language. It satisfies
// engine.PageFilter. Pages whose language cannot be determined are kept.
type LanguageGate struct {
	want     lingua.Language
	detector lingua.LanguageDetector
}

// NewLanguageGate builds a detector over a small set of common web
// languages. The wanted language is always part of the set.
func NewLanguageGate(want lingua.Language) *LanguageGate {
	languages := []lingua.Language{
		lingua.English, lingua.Spanish, lingua.French, lingua.German,
		lingua.Portuguese, lingua.Italian, lingua.Dutch,
	}
	found := false
	for _, l := range languages {
		if l == want {
			found = true
			break
		}
	}
	if !found {
		languages = append(languages, want)
	}

	return &LanguageGate{
		want:     want,
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(languages...).Build(),
	}
}

// EnglishOnly is the gate behind --english-only.
func EnglishOnly() *LanguageGate {
	return NewLanguageGate(lingua.English)
}

func (g *LanguageGate) Keep(page models.Page) (bool, string) {
	text := sample(page.FullText())
	if strings.TrimSpace(text) == "" {
		return true, ""
	}
	lang, ok := g.detector.DetectLanguageOf(text)
	if !ok || lang == g.want {
		return true, ""
	}
	return false, "language " + strings.ToLower(lang.String())
}

// sample cuts text after sampleGraphemes user-perceived characters so
// multi-byte scripts are never split mid-character.
func sample(text string) string {
	if len(text) <= sampleGraphemes {
		return text
	}
	g := uniseg.NewGraphemes(text)
	n := 0
	for g.Next() {
		n++
		if n == sampleGraphemes {
			_, end := g.Positions()
			return text[:end]
		}
	}
	return text
}
