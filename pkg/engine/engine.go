// Package engine runs the discovery methods over a corpus and turns their
// merged candidates into named, scored intents.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/discovery"
	"github.com/dtnitsch/llm-intent-miner/pkg/embed"
	"github.com/dtnitsch/llm-intent-miner/pkg/ingest"
	"github.com/dtnitsch/llm-intent-miner/pkg/library"
	"github.com/dtnitsch/llm-intent-miner/pkg/merge"
	"github.com/dtnitsch/llm-intent-miner/pkg/naming"
	"github.com/dtnitsch/llm-intent-miner/pkg/scoring"
	"github.com/dtnitsch/llm-intent-miner/pkg/signals"
)

// PageFilter decides whether a page takes part in a run. A rejected page is
// skipped with the returned reason.
type PageFilter interface {
	Keep(page models.Page) (bool, string)
}

// Engine holds the dependencies of a run. It is safe to call Run from
// several goroutines.
type Engine struct {
	cfg       models.Config
	logger    *slog.Logger
	lib       *library.Library
	extractor *signals.Extractor
	embedder  embed.Embedder
	filter    PageFilter
	methods   []discovery.Method

	embedderSet bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLibrary replaces the pattern library named by the config.
func WithLibrary(lib *library.Library) Option {
	return func(e *Engine) { e.lib = lib }
}

// WithEmbedder replaces the embedding provider named by the config. A nil
// embedder degrades the embedding method.
func WithEmbedder(emb embed.Embedder) Option {
	return func(e *Engine) {
		e.embedder = emb
		e.embedderSet = true
	}
}

// WithPageFilter adds a filter applied during page validation.
func WithPageFilter(f PageFilter) Option {
	return func(e *Engine) { e.filter = f }
}

// WithMethods runs exactly the given methods instead of the ones selected by
// the config.
func WithMethods(methods ...discovery.Method) Option {
	return func(e *Engine) { e.methods = methods }
}

// New validates cfg and builds the library, extractor and embedder once.
func New(cfg models.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	if e.lib == nil {
		var err error
		if cfg.PatternLibrary != "" {
			e.lib, err = library.Load(cfg.PatternLibrary, e.logger)
		} else {
			e.lib, err = library.Default(e.logger)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load pattern library: %w", err)
		}
	}
	e.extractor = signals.NewExtractor(e.lib)

	if cfg.EnglishOnly && e.filter == nil {
		e.filter = ingest.EnglishOnly()
	}

	if !e.embedderSet {
		emb, err := embed.New(cfg.EmbeddingsModel, embed.Options{
			OllamaEndpoint: cfg.OllamaEndpoint,
			RateLimit:      cfg.EmbeddingRateLimit,
			CacheDir:       cfg.EmbeddingCacheDir,
			CacheTTL:       cfg.EmbeddingCacheTTL,
		})
		if err != nil {
			return nil, &models.ConfigError{Field: "embeddings_model", Message: err.Error()}
		}
		e.embedder = emb
	}

	for _, name := range cfg.CustomKeywords.Invalid {
		e.logger.Warn("Skipping malformed custom keyword entry", "name", name)
	}
	return e, nil
}

// Library returns the pattern library the engine scores against.
func (e *Engine) Library() *library.Library {
	return e.lib
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() models.Config {
	return e.cfg
}

// Run discovers the intents of pages. Empty input yields an empty list.
// Method failures never fail the run; they are reported per method. The
// only error is a cancelled ctx.
func (e *Engine) Run(ctx context.Context, pages []models.Page) (*Result, error) {
	start := time.Now()
	res := &Result{Intents: []models.Intent{}}
	res.Pages = e.validate(pages, res)

	active, disabled := e.selectMethods()
	if len(res.Pages) == 0 {
		e.logger.Warn("No pages to analyze", "input_pages", len(pages), "skipped", len(res.Skipped))
		for _, m := range active {
			disabled = append(disabled, MethodReport{Method: m.Name(), Status: StatusDisabled, Reason: "no pages to analyze"})
		}
		res.Methods = orderReports(disabled)
		return res, nil
	}

	e.logger.Info("Starting evidence phase", "pages", len(res.Pages), "workers", e.cfg.Workers)
	evidence, err := e.analyze(ctx, res.Pages)
	if err != nil {
		return nil, err
	}
	in := discovery.NewInput(res.Pages, evidence)

	e.logger.Info("Starting discovery phase", "methods", len(active))
	cands, reports := e.discover(ctx, active, in)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Methods = orderReports(append(reports, disabled...))

	groups := merge.Merge(cands, e.mergeOptions())
	res.Intents = Consolidate(groups)

	e.logger.Info("Run finished",
		"pages", len(res.Pages),
		"candidates", len(cands),
		"intents", len(res.Intents),
		"duration", time.Since(start))
	return res, nil
}

// Remerge merges previously emitted intents again with the engine's merge
// settings. Merging a run's own output returns the same intents.
func (e *Engine) Remerge(intents []models.Intent) []models.Intent {
	return Consolidate(merge.Merge(merge.FromIntents(intents), e.mergeOptions()))
}

func (e *Engine) mergeOptions() merge.Options {
	return merge.Options{
		SimilarityThreshold: e.cfg.SimilarityThreshold,
		MinClusterSize:      e.cfg.MinClusterSize,
		FallbackKeywords:    e.cfg.FallbackKeywords,
	}
}

func (e *Engine) validate(pages []models.Page, res *Result) []models.Page {
	seen := make(map[string]struct{}, len(pages))
	valid := make([]models.Page, 0, len(pages))
	skip := func(url, reason string) {
		e.logger.Warn("Skipping page", "url", url, "reason", reason)
		res.Skipped = append(res.Skipped, SkippedPage{URL: url, Reason: reason})
	}

	for _, p := range pages {
		if strings.TrimSpace(p.URL) == "" {
			skip(p.URL, "missing url")
			continue
		}
		if _, dup := seen[p.URL]; dup {
			skip(p.URL, "duplicate url")
			continue
		}
		seen[p.URL] = struct{}{}
		if n := utf8.RuneCountInString(strings.TrimSpace(p.CleanedText)); n < e.cfg.MinContentLength {
			skip(p.URL, fmt.Sprintf("text too short (%d < %d characters)", n, e.cfg.MinContentLength))
			continue
		}
		if e.filter != nil {
			if ok, reason := e.filter.Keep(p); !ok {
				skip(p.URL, reason)
				continue
			}
		}
		valid = append(valid, p)
	}
	return valid
}

func (e *Engine) analyze(ctx context.Context, pages []models.Page) ([]*signals.Evidence, error) {
	evidence := make([]*signals.Evidence, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, p := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			evidence[i] = e.extractor.Analyze(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evidence phase: %w", err)
	}
	return evidence, nil
}

// selectMethods returns the methods to run and reports for the ones the
// config leaves out.
func (e *Engine) selectMethods() ([]discovery.Method, []MethodReport) {
	if e.methods != nil {
		return e.methods, nil
	}

	enabled := make(map[models.SourceMethod]bool)
	for _, m := range e.cfg.ExtractionMethod.Methods() {
		enabled[m] = true
	}

	all := []discovery.Method{
		&discovery.PatternMethod{
			Library:       e.lib,
			MinConfidence: e.cfg.MinConfidenceThreshold,
			MaxPerPage:    e.cfg.MaxIntentsPerPage,
		},
		&discovery.TopicMethod{
			Topics:          e.cfg.LDATopics,
			Iterations:      e.cfg.TopicIterations,
			AssignThreshold: e.cfg.TopicAssignmentThreshold,
			Logger:          e.logger,
		},
		&discovery.EmbeddingMethod{
			Embedder:   e.embedder,
			Eps:        e.cfg.DBSCANEps,
			MinSamples: e.cfg.DBSCANMinSamples,
		},
		&discovery.KeywordMethod{Categories: e.cfg.CustomKeywords.Entries},
	}

	var active []discovery.Method
	var disabled []MethodReport
	for _, m := range all {
		name := m.Name()
		switch {
		case name == models.MethodKeywords && !e.cfg.FallbackKeywords:
			disabled = append(disabled, MethodReport{Method: name, Status: StatusDisabled, Reason: "fallback_keywords is off"})
		case name == models.MethodKeywords && e.cfg.CustomKeywords.Len() == 0:
			disabled = append(disabled, MethodReport{Method: name, Status: StatusDisabled, Reason: "no custom_keywords configured"})
		case name != models.MethodKeywords && !enabled[name]:
			disabled = append(disabled, MethodReport{
				Method: name,
				Status: StatusDisabled,
				Reason: "not used by extraction_method " + e.cfg.ExtractionMethod.String(),
			})
		default:
			active = append(active, m)
		}
	}
	return active, disabled
}

type methodOutcome struct {
	cands []models.Candidate
	err   error
}

// discover runs the methods concurrently. Candidates are concatenated in
// method order so the merge sees the same input on every run.
func (e *Engine) discover(ctx context.Context, methods []discovery.Method, in *discovery.Input) ([]models.Candidate, []MethodReport) {
	outcomes := make([]methodOutcome, len(methods))
	reports := make([]MethodReport, len(methods))

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i, m := range methods {
		g.Go(func() error {
			outcomes[i], reports[i] = e.runMethod(ctx, m, in)
			return nil
		})
	}
	_ = g.Wait()

	var cands []models.Candidate
	for _, o := range outcomes {
		cands = append(cands, o.cands...)
	}
	return cands, reports
}

// runMethod gives a method its time budget and turns every failure,
// including a panic, into a degraded report.
func (e *Engine) runMethod(ctx context.Context, m discovery.Method, in *discovery.Input) (methodOutcome, MethodReport) {
	start := time.Now()
	name := m.Name()
	mctx, cancel := context.WithTimeout(ctx, e.cfg.MethodTimeout)
	defer cancel()

	done := make(chan methodOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- methodOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		cands, err := m.Produce(mctx, in)
		done <- methodOutcome{cands: cands, err: err}
	}()

	var out methodOutcome
	select {
	case out = <-done:
	case <-mctx.Done():
		if ctx.Err() == nil {
			out.err = fmt.Errorf("exceeded method timeout of %s", e.cfg.MethodTimeout)
		} else {
			out.err = ctx.Err()
		}
	}
	report := MethodReport{Method: name, Status: StatusOK, Duration: time.Since(start)}
	if out.err != nil {
		var degraded *discovery.DegradedError
		if errors.As(out.err, &degraded) {
			report.Reason = degraded.Reason
		} else {
			report.Reason = out.err.Error()
		}
		report.Status = StatusDegraded
		out.cands = nil
		e.logger.Warn("Discovery method degraded", "method", name, "reason", report.Reason, "duration", report.Duration)
		return out, report
	}

	report.Candidates = len(out.cands)
	e.logger.Info("Discovery method finished", "method", name, "candidates", report.Candidates, "duration", report.Duration)
	return out, report
}

var methodOrder = map[models.SourceMethod]int{
	models.MethodPattern:   0,
	models.MethodTopic:     1,
	models.MethodEmbedding: 2,
	models.MethodKeywords:  3,
}

func orderReports(reports []MethodReport) []MethodReport {
	sort.SliceStable(reports, func(i, j int) bool {
		oi, iok := methodOrder[reports[i].Method]
		oj, jok := methodOrder[reports[j].Method]
		if !iok {
			oi = len(methodOrder)
		}
		if !jok {
			oj = len(methodOrder)
		}
		return oi < oj
	})
	return reports
}

// Consolidate scores and names merged groups. Intents are ordered by page
// count, then confidence, then name; repeated names get _2, _3... suffixes.
func Consolidate(groups []merge.Group) []models.Intent {
	intents := make([]models.Intent, len(groups))
	raw := make([]float64, len(groups))
	for i, g := range groups {
		raw[i] = scoring.Confidence(g.Candidates)
		intents[i] = models.Intent{
			PrimaryIntent:         naming.Name(naming.SourceFor(g.Candidates, g.Keywords, g.Phrases, i+1)),
			Confidence:            scoring.Round2(raw[i]),
			Keywords:              nonNil(g.Keywords),
			RepresentativePhrases: nonNil(g.Phrases),
			PageCount:             len(g.Pages),
			ExtractionMethod:      g.Provenance,
			Pages:                 nonNil(g.Pages),
			MethodScores:          scoring.MethodScores(g.Candidates),
		}
	}

	order := make([]int, len(intents))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		x, y := intents[order[a]], intents[order[b]]
		if x.PageCount != y.PageCount {
			return x.PageCount > y.PageCount
		}
		if raw[order[a]] != raw[order[b]] {
			return raw[order[a]] > raw[order[b]]
		}
		return x.PrimaryIntent < y.PrimaryIntent
	})

	sorted := make([]models.Intent, len(intents))
	names := make([]string, len(intents))
	for i, idx := range order {
		sorted[i] = intents[idx]
		names[i] = sorted[i].PrimaryIntent
	}
	for i, name := range naming.Dedupe(names) {
		sorted[i].PrimaryIntent = name
		sorted[i].DisplayLabel = naming.DisplayLabel(name)
	}
	return sorted
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
