package engine

import (
	"time"

	"github.com/dtnitsch/llm-intent-miner/models"
)

// MethodStatus is the outcome of one discovery method in a run.
type MethodStatus string

const (
	StatusOK       MethodStatus = "ok"
	StatusDegraded MethodStatus = "degraded"
	StatusDisabled MethodStatus = "disabled"
)

// MethodReport describes how one discovery method fared.
type MethodReport struct {
	Method     models.SourceMethod `json:"method" yaml:"method"`
	Status     MethodStatus        `json:"status" yaml:"status"`
	Reason     string              `json:"reason,omitempty" yaml:"reason,omitempty"`
	Candidates int                 `json:"candidates" yaml:"candidates"`
	Duration   time.Duration       `json:"duration_ns" yaml:"duration"`
}

// SkippedPage is an input page left out of the analysis.
type SkippedPage struct {
	URL    string `json:"url" yaml:"url"`
	Reason string `json:"reason" yaml:"reason"`
}

// Result is the outcome of a run.
type Result struct {
	Intents []models.Intent `json:"intents" yaml:"intents"`
	Methods []MethodReport  `json:"methods" yaml:"methods"`
	// Pages are the pages that were analyzed, in input order.
	Pages   []models.Page  `json:"-" yaml:"-"`
	Skipped []SkippedPage `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// PagesAnalyzed returns the number of pages the methods saw.
func (r *Result) PagesAnalyzed() int {
	return len(r.Pages)
}

// MethodsUsed lists the methods that ran without degrading, in run order.
func (r *Result) MethodsUsed() []models.SourceMethod {
	var out []models.SourceMethod
	for _, m := range r.Methods {
		if m.Status == StatusOK {
			out = append(out, m.Method)
		}
	}
	return out
}

// Report returns the report of the given method, if it was part of the run.
func (r *Result) Report(m models.SourceMethod) (MethodReport, bool) {
	for _, rep := range r.Methods {
		if rep.Method == m {
			return rep, true
		}
	}
	return MethodReport{}, false
}
