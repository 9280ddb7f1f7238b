// Package naming derives stable snake_case identifiers and display labels for
// merged intents.
package naming

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/analytics"
)

// actionVerbs maps verb stems found in keywords or phrases to the verb used
// in a derived name.
var actionVerbs = []struct {
	stem, verb string
}{
	{"learn", "learn"},
	{"buy", "buy"},
	{"purchas", "buy"},
	{"compar", "compare"},
	{"install", "install"},
	{"configur", "configure"},
	{"integrat", "integrate"},
	{"implement", "implement"},
	{"troubleshoot", "troubleshoot"},
	{"fix", "fix"},
	{"solv", "solve"},
	{"evaluat", "evaluate"},
	{"optimiz", "optimize"},
	{"upgrad", "upgrade"},
	{"migrat", "migrate"},
	{"deploy", "deploy"},
	{"download", "download"},
	{"subscrib", "subscribe"},
	{"contact", "contact"},
	{"find", "find"},
	{"get", "get"},
	{"explor", "explore"},
	{"discover", "discover"},
}

// topicNouns maps content nouns to the object used when no noun can be read
// from the evidence itself.
var topicNouns = map[string]string{
	"product": "product_discovery", "products": "product_discovery",
	"help": "support", "support": "support", "faq": "support",
	"api": "technical_integration", "integration": "technical_integration", "developer": "technical_integration",
	"price": "pricing_info", "pricing": "pricing_info", "cost": "pricing_info", "plan": "pricing_info", "plans": "pricing_info",
}

var questionPatterns = []struct {
	re       *regexp.Regexp
	prefix   string
	fallback string
}{
	{regexp.MustCompile(`(?i)\bhow (?:to|do|can)\b`), "how_to", "how_to_guide"},
	{regexp.MustCompile(`(?i)\bwhat (?:is|are)\b`), "what_is", "explanation"},
	{regexp.MustCompile(`(?i)\bwhy\b`), "why", "reasoning"},
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

var titler = cases.Title(language.English)

// SnakeCase lower-cases s and joins its alphanumeric runs with underscores.
func SnakeCase(s string) string {
	s = nonWord.ReplaceAllString(strings.ToLower(analytics.Normalize(s)), "_")
	return strings.Trim(s, "_")
}

// DisplayLabel renders a snake_case identifier as a title-cased label.
func DisplayLabel(id string) string {
	return titler.String(strings.ReplaceAll(id, "_", " "))
}

// Source is the evidence a name is derived from.
type Source struct {
	// Labels are configured names of contributing candidates, best first.
	Labels   []string
	Keywords []string
	Phrases  []string
	// TopicIndex is the originating topic or cluster index, or -1.
	TopicIndex int
	// Ordinal numbers groups that have no other name.
	Ordinal int
}

// Name picks the identifier for an intent: a configured label first, then a
// verb_noun name read from keywords and phrases, then topic_<n>.
func Name(src Source) string {
	for _, label := range src.Labels {
		if id := SnakeCase(label); id != "" {
			return id
		}
	}
	if id := fromKeywords(src.Keywords); id != "" {
		return id
	}
	if id := fromPhrases(src.Phrases, src.Keywords); id != "" {
		return id
	}
	n := src.TopicIndex
	if n < 0 {
		n = src.Ordinal
	}
	return fmt.Sprintf("topic_%d", n)
}

func verbOf(word string) string {
	w := strings.ToLower(word)
	for _, v := range actionVerbs {
		if strings.HasPrefix(w, v.stem) {
			return v.verb
		}
	}
	return ""
}

// nounFrom returns the first keyword usable as the object of a name.
func nounFrom(keywords []string, skip string) string {
	for _, kw := range keywords {
		for _, tok := range analytics.Tokenize(kw) {
			if tok == skip || verbOf(tok) != "" {
				continue
			}
			if mapped, ok := topicNouns[tok]; ok {
				return mapped
			}
			return SnakeCase(tok)
		}
	}
	return ""
}

func fromKeywords(keywords []string) string {
	for _, kw := range keywords {
		for _, tok := range strings.Fields(kw) {
			verb := verbOf(tok)
			if verb == "" {
				continue
			}
			noun := nounFrom(keywords, strings.ToLower(tok))
			if noun == "" {
				return verb + "_content"
			}
			return verb + "_" + noun
		}
	}
	return ""
}

func fromPhrases(phrases, keywords []string) string {
	for _, q := range questionPatterns {
		for _, p := range phrases {
			loc := q.re.FindStringIndex(p)
			if loc == nil {
				continue
			}
			if noun := nounFrom([]string{p[loc[1]:]}, ""); noun != "" {
				return q.prefix + "_" + noun
			}
			if noun := nounFrom(keywords, ""); noun != "" {
				return q.prefix + "_" + noun
			}
			return q.fallback
		}
	}

	for _, p := range phrases {
		words := strings.Fields(p)
		for i, w := range words {
			verb := verbOf(strings.Trim(w, `.,:;!?"'()`))
			if verb == "" {
				continue
			}
			if noun := nounFrom([]string{strings.Join(words[i+1:], " ")}, ""); noun != "" {
				return verb + "_" + noun
			}
		}
	}
	return ""
}

// Dedupe makes identifiers unique in order, suffixing repeats with _2, _3...
func Dedupe(ids []string) []string {
	seen := make(map[string]int, len(ids))
	taken := make(map[string]bool, len(ids))
	for _, id := range ids {
		taken[id] = true
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		seen[id]++
		if seen[id] == 1 {
			out[i] = id
			continue
		}
		n := seen[id]
		candidate := fmt.Sprintf("%s_%d", id, n)
		for taken[candidate] {
			n++
			candidate = fmt.Sprintf("%s_%d", id, n)
		}
		taken[candidate] = true
		seen[id] = n
		out[i] = candidate
	}
	return out
}

// SourceFor builds a naming source from a group of candidates ordered best
// first. Pattern definition names come before any other configured label.
func SourceFor(cands []models.Candidate, keywords, phrases []string, ordinal int) Source {
	src := Source{Keywords: keywords, Phrases: phrases, TopicIndex: -1, Ordinal: ordinal}
	var others []string
	for _, c := range cands {
		switch {
		case c.Label == "":
		case c.Method == models.MethodPattern:
			src.Labels = append(src.Labels, c.Label)
		default:
			others = append(others, c.Label)
		}
		if src.TopicIndex < 0 && c.Index >= 0 && (c.Method == models.MethodTopic || c.Method == models.MethodEmbedding) {
			src.TopicIndex = c.Index
		}
	}
	src.Labels = append(src.Labels, others...)
	return src
}
