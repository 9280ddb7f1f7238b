package ingest

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/dtnitsch/llm-intent-miner/models"
)

// ParseHTML extracts the main article of an HTML document with readability
// and flattens its headings, paragraphs, list items and tables into a page.
// Code blocks are dropped: they carry no visitor intent.
func ParseHTML(rawURL, html string) (*models.Page, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", rawURL, err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability failed for %s: %w", rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article of %s: %w", rawURL, err)
	}

	var blocks []models.ContentBlock
	doc.Find("h1,h2,h3,h4,p,li,table").Each(func(i int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		var text string
		if tag == "table" {
			text = tableText(s)
		} else {
			text = normalizeText(s.Text())
		}
		if text != "" {
			blocks = append(blocks, models.ContentBlock{Type: tag, Text: text})
		}
	})

	return &models.Page{
		URL:         rawURL,
		Title:       normalizeText(article.Title),
		CleanedText: models.BlocksToPlainText(blocks),
	}, nil
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// tableText renders a table one row per line with cells separated by " | ".
func tableText(s *goquery.Selection) string {
	var lines []string
	s.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(j int, cell *goquery.Selection) {
			if text := normalizeText(cell.Text()); text != "" {
				cells = append(cells, text)
			}
		})
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " | "))
		}
	})
	return strings.Join(lines, "\n")
}
