// Package ingest turns crawl output on disk into pages for the engine.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/llm-intent-miner/internal/common"
	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/storage"
)

// Loader reads pages from JSON, JSON Lines, YAML files or a directory of
// saved HTML documents.
type Loader struct {
	Storage *storage.Storage
	// BaseURL is joined with the relative file path of HTML documents that
	// carry no canonical link.
	BaseURL string
}

// pageList accepts both a bare list and a {"pages": [...]} wrapper.
type pageList struct {
	Pages []models.Page `json:"pages" yaml:"pages"`
}

// Load picks a decoder by file extension, or walks path when it is a
// directory.
func (l *Loader) Load(p string) ([]models.Page, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("cannot read input %s: %w", p, err)
	}
	if info.IsDir() {
		return l.loadHTMLDir(p)
	}

	data, err := l.Storage.ReadFile(p)
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	switch strings.ToLower(filepath.Ext(p)) {
	case ".jsonl", ".ndjson":
		pages, err = decodeJSONLines(data)
	case ".yaml", ".yml":
		pages, err = decodeYAML(data)
	case ".json":
		pages, err = decodeJSON(data)
	case ".html", ".htm":
		var page *models.Page
		page, err = l.parseHTMLFile(filepath.Base(p), data)
		if page != nil {
			pages = []models.Page{*page}
		}
	default:
		return nil, fmt.Errorf("unsupported input format %q (want .json, .jsonl, .yaml or a directory)", filepath.Ext(p))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p, err)
	}
	return cleanURLs(pages), nil
}

func decodeJSON(data []byte) ([]models.Page, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped pageList
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Pages, nil
	}
	var pages []models.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

func decodeJSONLines(data []byte) ([]models.Page, error) {
	var pages []models.Page
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var p models.Page
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		pages = append(pages, p)
	}
	return pages, scanner.Err()
}

func decodeYAML(data []byte) ([]models.Page, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.MappingNode {
		var wrapped pageList
		if err := node.Decode(&wrapped); err != nil {
			return nil, err
		}
		return wrapped.Pages, nil
	}
	var pages []models.Page
	if err := node.Decode(&pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// cleanURLs strips copy-paste debris from page URLs. Pages are otherwise
// passed through untouched so the engine can report them as skipped.
func cleanURLs(pages []models.Page) []models.Page {
	for i := range pages {
		pages[i].URL = common.SanitizeURL(pages[i].URL)
	}
	return pages
}

func (l *Loader) loadHTMLDir(dir string) ([]models.Page, error) {
	var pages []models.Page
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(p))
		if d.IsDir() || (ext != ".html" && ext != ".htm") {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := l.Storage.ReadFile(p)
		if err != nil {
			return err
		}
		page, err := l.parseHTMLFile(rel, data)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		pages = append(pages, *page)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load html directory %s: %w", dir, err)
	}
	return cleanURLs(pages), nil
}

func (l *Loader) parseHTMLFile(rel string, data []byte) (*models.Page, error) {
	html := string(data)
	pageURL := canonicalURL(html)
	if pageURL == "" {
		pageURL = l.urlForFile(rel)
	}
	return ParseHTML(pageURL, html)
}

// urlForFile maps "blog/post.html" to BaseURL + "/blog/post" and any
// index.html to its directory.
func (l *Loader) urlForFile(rel string) string {
	p := filepath.ToSlash(rel)
	p = strings.TrimSuffix(p, path.Ext(p))
	if path.Base(p) == "index" {
		p = strings.TrimSuffix(path.Dir(p), ".")
	}
	base := strings.TrimSuffix(l.BaseURL, "/")
	if base == "" {
		base = "file://"
	}
	return base + "/" + strings.TrimPrefix(p, "/")
}

func canonicalURL(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	href, _ := doc.Find(`link[rel="canonical"]`).First().Attr("href")
	return strings.TrimSpace(href)
}

// InvalidURLs lists page URLs that are not absolute http(s) URLs. Such pages
// are still analyzed; their URL is only an identifier.
func InvalidURLs(pages []models.Page) []string {
	var invalid []string
	for _, p := range pages {
		if p.URL != "" && !common.ValidPageURL(p.URL) {
			invalid = append(invalid, p.URL)
		}
	}
	return invalid
}
