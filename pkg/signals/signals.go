// Package signals scans page text for the lexical evidence every discovery
// method shares: definition keyword hits, action clauses, pain phrases and
// desired outcomes.
package signals

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/analytics"
	"github.com/dtnitsch/llm-intent-miner/pkg/library"
)

const (
	// maxTextMatches caps action, pain and outcome matches per page.
	maxTextMatches = 10
	contextWindow  = 50
	maxActionRunes = 120
)

// ActionVerbs are the verbs that open an actionable clause.
var ActionVerbs = []string{
	"buy", "build", "compare", "configure", "connect", "contact", "create",
	"deploy", "discover", "download", "evaluate", "explore", "find", "fix",
	"get", "install", "integrate", "learn", "manage", "migrate", "monitor",
	"optimize", "purchase", "read", "register", "request", "run", "schedule",
	"set", "setup", "sign", "solve", "start", "subscribe", "track",
	"troubleshoot", "try", "understand", "upgrade", "use", "watch",
}

var painPatterns = []string{
	`\b(?:difficult|hard|challenging|complex|confusing|frustrating)\b`,
	`\b(?:can't|cannot|unable to|doesn't work|not working|failed)\b`,
	`\b(?:slow|expensive|time-consuming|inefficient|limited)\b`,
	`\b(?:need help|struggling|stuck|blocked|confused)\b`,
	`\b(?:why doesn't|why can't|why won't|how come)\b`,
}

var outcomePatterns = []string{
	`\b(?:achieve|accomplish|reach|attain|obtain|gain)\b[^.]{0,50}`,
	`\b(?:want to|need to|trying to|hoping to|planning to)\b[^.]{0,50}`,
	`\b(?:goal|objective|target|aim|purpose)\b[^.]{0,50}`,
	`\b(?:so that|in order to|to help|to enable)\b[^.]{0,50}`,
}

type idPattern struct {
	id string
	re *regexp.Regexp
}

// Extractor holds the compiled pattern set. It is safe for concurrent use.
type Extractor struct {
	lib      *library.Library
	verbs    map[string]struct{}
	toVerb   *regexp.Regexp
	pain     []idPattern
	outcomes []idPattern
}

// NewExtractor compiles the fixed vocabularies once. lib may be nil, in which
// case no keyword signals are produced.
func NewExtractor(lib *library.Library) *Extractor {
	verbs := make(map[string]struct{}, len(ActionVerbs))
	for _, v := range ActionVerbs {
		verbs[v] = struct{}{}
	}
	return &Extractor{
		lib:      lib,
		verbs:    verbs,
		toVerb:   regexp.MustCompile(`(?i)\bto (` + strings.Join(ActionVerbs, "|") + `)\b(?:\s+\S+){0,3}`),
		pain:     compileAll("pain", painPatterns),
		outcomes: compileAll("outcome", outcomePatterns),
	}
}

func compileAll(prefix string, sources []string) []idPattern {
	out := make([]idPattern, len(sources))
	for i, src := range sources {
		out[i] = idPattern{id: fmt.Sprintf("%s#%d", prefix, i), re: regexp.MustCompile("(?i)" + src)}
	}
	return out
}

// IsActionVerb reports whether word is one of the known action verbs.
func (e *Extractor) IsActionVerb(word string) bool {
	_, ok := e.verbs[strings.ToLower(word)]
	return ok
}

// Extract returns every signal found in text. It never fails; text without
// matches yields empty lists.
func (e *Extractor) Extract(text string) models.Signals {
	return e.extract(text, Sentences(text))
}

func (e *Extractor) extract(text string, sentences []Sentence) models.Signals {
	sig := models.Signals{
		models.SignalKeyword: e.keywordMatches(text),
		models.SignalAction:  e.actionMatches(text, sentences),
		models.SignalPain:    e.contextMatches(text, models.SignalPain, e.pain, true),
		models.SignalOutcome: e.contextMatches(text, models.SignalOutcome, e.outcomes, false),
	}
	return sig
}

func (e *Extractor) keywordMatches(text string) []models.Match {
	if e.lib == nil {
		return []models.Match{}
	}
	matches := []models.Match{}
	for _, def := range e.lib.Definitions {
		for _, p := range def.Patterns {
			for _, loc := range p.Regexp.FindAllStringIndex(text, -1) {
				matches = append(matches, models.Match{
					Type:      models.SignalKeyword,
					PatternID: p.ID,
					Text:      strings.ToLower(text[loc[0]:loc[1]]),
					Start:     loc[0],
					End:       loc[1],
				})
			}
		}
	}
	return matches
}

func (e *Extractor) actionMatches(text string, sentences []Sentence) []models.Match {
	matches := []models.Match{}
	for _, s := range sentences {
		lead := leadWord(s.Text)
		if !e.IsActionVerb(lead) {
			continue
		}
		matches = append(matches, models.Match{
			Type:      models.SignalAction,
			PatternID: "action/" + strings.ToLower(lead),
			Text:      truncateRunes(s.Text, maxActionRunes),
			Start:     s.Start,
			End:       s.Start + len(s.Text),
		})
	}

	for _, loc := range e.toVerb.FindAllStringSubmatchIndex(text, -1) {
		verb := strings.ToLower(text[loc[2]:loc[3]])
		matches = append(matches, models.Match{
			Type:      models.SignalAction,
			PatternID: "to/" + verb,
			Text:      strings.TrimSpace(text[loc[0]:loc[1]]),
			Start:     loc[0],
			End:       loc[1],
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	if len(matches) > maxTextMatches {
		matches = matches[:maxTextMatches]
	}
	return matches
}

func (e *Extractor) contextMatches(text string, typ models.SignalType, patterns []idPattern, withContext bool) []models.Match {
	matches := []models.Match{}
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			m := models.Match{
				Type:      typ,
				PatternID: p.id,
				Text:      strings.TrimSpace(text[loc[0]:loc[1]]),
				Start:     loc[0],
				End:       loc[1],
			}
			if withContext {
				m.Context = window(text, loc[0], loc[1], contextWindow)
			}
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	if len(matches) > maxTextMatches {
		matches = matches[:maxTextMatches]
	}
	return matches
}

func leadWord(sentence string) string {
	fields := strings.Fields(sentence)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], `"'([{*-•`)
}

// window returns text[start-n:end+n], widened to rune boundaries.
func window(text string, start, end, n int) string {
	lo := max(0, start-n)
	hi := min(len(text), end+n)
	for lo > 0 && !isRuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !isRuneStart(text[hi]) {
		hi++
	}
	return strings.TrimSpace(text[lo:hi])
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

// Evidence is everything derived once from a page and shared read-only by
// the discovery methods.
type Evidence struct {
	URL       string
	Text      string
	Tokens    []string
	Sentences []Sentence
	Signals   models.Signals
	WordCount int
}

// Analyze derives the evidence for one page.
func (e *Extractor) Analyze(page models.Page) *Evidence {
	text := page.FullText()
	sentences := Sentences(text)
	return &Evidence{
		URL:       page.URL,
		Text:      text,
		Tokens:    analytics.Tokenize(text),
		Sentences: sentences,
		Signals:   e.extract(text, sentences),
		WordCount: analytics.WordCount(text),
	}
}

// HitsIn counts the matches of type t whose pattern ID starts with prefix
// and that fall inside [start, end).
func (ev *Evidence) HitsIn(t models.SignalType, prefix string, start, end int) int {
	n := 0
	for _, m := range ev.Signals[t] {
		if m.Start >= start && m.End <= end && strings.HasPrefix(m.PatternID, prefix) {
			n++
		}
	}
	return n
}
