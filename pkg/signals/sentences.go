package signals

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Sentence is a trimmed sentence and its byte offset in the source text.
type Sentence struct {
	Text  string
	Start int
}

// Sentences splits text on Unicode sentence boundaries (UAX #29). Line
// breaks also end a sentence since cleaned page text keeps one block per line.
func Sentences(text string) []Sentence {
	var out []Sentence
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		lineStart := offset
		offset += len(line)

		rest := line
		state := -1
		pos := lineStart
		for len(rest) > 0 {
			var sentence string
			sentence, rest, state = uniseg.FirstSentenceInString(rest, state)
			trimmed := strings.TrimSpace(sentence)
			if trimmed != "" {
				lead := strings.Index(sentence, trimmed)
				out = append(out, Sentence{Text: trimmed, Start: pos + lead})
			}
			pos += len(sentence)
		}
	}
	return out
}
