package models

import "strings"

// Page is one crawled page as handed to the engine. The engine never
// mutates it.
type Page struct {
	URL         string `json:"url" yaml:"url"`
	Title       string `json:"title" yaml:"title"`
	CleanedText string `json:"cleaned_text" yaml:"cleaned_text"`
	Section     string `json:"section,omitempty" yaml:"section,omitempty"`
}

// ContentBlock is a semantic block of text extracted from HTML before it is
// flattened into CleanedText.
type ContentBlock struct {
	Type string `json:"type"` // e.g., "h1", "h2", "p", "li"
	Text string `json:"text"`
}

// FullText returns the title followed by the cleaned body text.
func (p *Page) FullText() string {
	if p.Title == "" {
		return p.CleanedText
	}
	if p.CleanedText == "" {
		return p.Title
	}
	return p.Title + "\n" + p.CleanedText
}

// BlocksToPlainText concatenates readable text from content blocks, one block
// per line.
func BlocksToPlainText(blocks []ContentBlock) string {
	var sb strings.Builder
	for _, block := range blocks {
		if block.Text == "" {
			continue
		}
		sb.WriteString(block.Text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
