package analytics

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

type Analytics struct{}

// stopwordList holds frequent English words plus site chrome that carry no
// intent on their own.
var stopwordList = strings.Fields(`
a about above across after afterwards again against all almost alone along
already also although always am among amongst amount an and another any anyhow
anyone anything anyway anywhere are aren't around as at
back be became because become becomes becoming been before beforehand behind
being below beside besides between beyond both but by
can can't cannot could couldn't
did didn't do does doesn't doing don't done down during
each either else elsewhere enough entirely especially etc even ever every
everyone everything everywhere
few for former formerly from further
had hadn't has hasn't have haven't having he he'd he'll he's hence her here
hereafter hereby herein here's hereupon hers herself him himself his how however
i i'd i'll i'm i've if in indeed into is isn't it it's its itself
just keep
last latter latterly least less let let's like likely
made make many may maybe me meanwhile might mine more moreover most mostly much
must mustn't my myself
neither never nevertheless next no nobody none noone nor not nothing now nowhere
of off often on once one only onto or other others otherwise our ours ourselves
out over own
part per perhaps please put
rather re same see seem seemed seeming seems several she she'd she'll she's
should shouldn't since so some somehow someone something sometime sometimes
somewhere still such
take than that that's the their theirs them themselves then thence there
thereafter thereby therefore therein there's thereupon these they they'd they'll
they're they've this those through throughout thru thus to together too toward
towards
under until up upon us use
very via
was wasn't we we'd we'll we're we've well were weren't what whatever what's when
whence whenever where whereafter whereas whereby wherein where's whereupon
wherever whether which while whither who who'd whoever who'll who's whose why
with within without won't would wouldn't
yet you you'd you'll you're you've your yours yourself yourselves
ain't it'll shan't that'll when's
will new
click clickable clicked clicking button link menu redirected redirect
redirecting page pages website site home homepage search searching searched
loading loaded load loads cookie cookies privacy copyright rights reserved
`)

var commonWords = func() map[string]struct{} {
	m := make(map[string]struct{}, len(stopwordList))
	for _, w := range stopwordList {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopword checks if a word is a common stopword that should be filtered out.
func IsStopword(word string) bool {
	_, exists := commonWords[strings.ToLower(word)]
	return exists
}

// Normalize applies NFKC folding and lower-casing so visually identical text
// compares equal.
func Normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}

// Tokenize splits text into normalized content words. Stopwords, tokens
// shorter than three runes and pure numbers are dropped.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	tokens := make([]string, 0, len(fields))
	for _, word := range fields {
		word = strings.Trim(word, "'")
		word = strings.TrimSuffix(word, "'s")
		if len([]rune(word)) < 3 {
			continue
		}
		if _, exists := commonWords[word]; exists {
			continue
		}
		if isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func isNumeric(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// WordCount returns the number of whitespace separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func (a *Analytics) WordFrequency(text string) map[string]int {
	frequencies := make(map[string]int)
	for _, word := range Tokenize(text) {
		frequencies[word]++
	}
	return frequencies
}

type wordCount struct {
	Word  string
	Count int
}

func (a *Analytics) TopNWords(text string, n int) []string {
	frequencies := a.WordFrequency(text)

	counts := make([]wordCount, 0, len(frequencies))
	for k, v := range frequencies {
		counts = append(counts, wordCount{k, v})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Word < counts[j].Word
	})

	limit := n
	if len(counts) < n {
		limit = len(counts)
	}

	topN := make([]string, limit)
	for i := 0; i < limit; i++ {
		topN[i] = counts[i].Word
	}

	return topN
}
