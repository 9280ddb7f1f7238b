package manifest

import (
	"github.com/dtnitsch/llm-intent-miner/pkg/detector"
	"github.com/dtnitsch/llm-intent-miner/pkg/engine"
)

// RunManifest is the human and LLM readable overview of a run. It carries
// what the bare intent list leaves out: method status, per-section
// breakdown and the library's goals for pattern intents.
type RunManifest struct {
	GeneratedAt            string                    `json:"generated_at" yaml:"generated_at"`
	RunID                  string                    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Site                   detector.Site             `json:"site" yaml:"site"`
	TotalPagesAnalyzed     int                       `json:"total_pages_analyzed" yaml:"total_pages_analyzed"`
	TotalPagesSkipped      int                       `json:"total_pages_skipped" yaml:"total_pages_skipped"`
	TotalIntentsDiscovered int                       `json:"total_intents_discovered" yaml:"total_intents_discovered"`
	ExtractionMethodsUsed  []string                  `json:"extraction_methods_used" yaml:"extraction_methods_used"`
	Methods                []engine.MethodReport     `json:"methods" yaml:"methods"`
	AggregateKeywords      []string                  `json:"aggregate_keywords" yaml:"aggregate_keywords"`
	Intents                []IntentSummary           `json:"intents" yaml:"intents"`
	BySection              map[string][]SectionEntry `json:"by_section" yaml:"by_section"`
	Skipped                []engine.SkippedPage      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// IntentSummary describes one intent without its page list.
type IntentSummary struct {
	PrimaryIntent    string   `json:"primary_intent" yaml:"primary_intent"`
	DisplayLabel     string   `json:"display_label" yaml:"display_label"`
	Confidence       float64  `json:"confidence" yaml:"confidence"`
	PageCount        int      `json:"page_count" yaml:"page_count"`
	ExtractionMethod string   `json:"extraction_method" yaml:"extraction_method"`
	Description      string   `json:"description,omitempty" yaml:"description,omitempty"`
	UserGoals        []string `json:"user_goals,omitempty" yaml:"user_goals,omitempty"`
	PainPoints       []string `json:"pain_points,omitempty" yaml:"pain_points,omitempty"`
}

// SectionEntry is one intent assignment of a page within a site section.
type SectionEntry struct {
	Intent     string   `json:"intent" yaml:"intent"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Keywords   []string `json:"keywords" yaml:"keywords"`
	PageURL    string   `json:"page_url" yaml:"page_url"`
	PageTitle  string   `json:"page_title,omitempty" yaml:"page_title,omitempty"`
}
