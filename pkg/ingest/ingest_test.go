package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pemistahl/lingua-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/storage"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Sourdough Basics</title>%s</head>
<body>
<nav><a href="/">Home</a> <a href="/shop">Shop</a></nav>
<article>
<h1>Sourdough Basics</h1>
<p>Learning to bake sourdough bread takes patience. This tutorial walks through
feeding a starter, mixing the dough and shaping the loaf so that beginners can
follow every step at home without special equipment.</p>
<p>Most bakers start with a simple recipe of flour, water and salt. Once the
starter is active, the dough rises slowly overnight and develops the sour flavor
that gives the bread its name.</p>
<h2>What you need</h2>
<ul><li>Bread flour</li><li>Filtered water</li><li>Sea salt</li></ul>
<table><tr><th>Step</th><th>Time</th></tr><tr><td>Mix</td><td>10 minutes</td></tr></table>
<pre>print("not content")</pre>
</article>
<footer>Copyright bakery</footer>
</body></html>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestParseHTML(t *testing.T) {
	page, err := ParseHTML("https://bakery.example/learn/sourdough", strings.Replace(articleHTML, "%s", "", 1))
	require.NoError(t, err)

	assert.Equal(t, "https://bakery.example/learn/sourdough", page.URL)
	assert.Contains(t, page.Title, "Sourdough Basics")
	assert.Contains(t, page.CleanedText, "feeding a starter")
	assert.Contains(t, page.CleanedText, "Bread flour")
	assert.Contains(t, page.CleanedText, "Mix | 10 minutes")
	assert.NotContains(t, page.CleanedText, "not content")
}

func TestLoadJSONFormats(t *testing.T) {
	dir := t.TempDir()
	l := &Loader{Storage: &storage.Storage{}}

	cases := map[string]string{
		"list.json":    `[{"url":" https://a.example/x, ","title":"X","cleaned_text":"text"}]`,
		"wrapped.json": `{"pages":[{"url":"https://a.example/x","cleaned_text":"text"}]}`,
		"lines.jsonl":  "{\"url\":\"https://a.example/x\",\"cleaned_text\":\"text\"}\n\n",
		"list.yaml":    "- url: https://a.example/x\n  cleaned_text: text\n",
		"wrapped.yml":  "pages:\n  - url: https://a.example/x\n    cleaned_text: text\n    section: blog\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			pages, err := l.Load(writeFile(t, dir, name, content))
			require.NoError(t, err)
			require.Len(t, pages, 1)
			assert.Equal(t, "https://a.example/x", pages[0].URL)
			assert.Equal(t, "text", pages[0].CleanedText)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	l := &Loader{Storage: &storage.Storage{}}

	_, err := l.Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = l.Load(writeFile(t, dir, "pages.csv", "url,text"))
	assert.ErrorContains(t, err, "unsupported input format")

	_, err = l.Load(writeFile(t, dir, "bad.jsonl", "{\"url\":\"a\"}\nnot json\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestLoadHTMLDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", strings.Replace(articleHTML, "%s", "", 1))
	writeFile(t, dir, "learn/sourdough.html", strings.Replace(articleHTML, "%s", "", 1))
	writeFile(t, dir, "canonical.htm", strings.Replace(articleHTML, "%s", `<link rel="canonical" href="https://bakery.example/c">`, 1))
	writeFile(t, dir, "notes.txt", "ignored")

	l := &Loader{Storage: &storage.Storage{}, BaseURL: "https://bakery.example/"}
	pages, err := l.Load(dir)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	urls := []string{pages[0].URL, pages[1].URL, pages[2].URL}
	assert.ElementsMatch(t, []string{
		"https://bakery.example/c",
		"https://bakery.example/",
		"https://bakery.example/learn/sourdough",
	}, urls)
}

func TestInvalidURLs(t *testing.T) {
	pages := []models.Page{
		{URL: "https://bakery.example/learn"},
		{URL: "file:///learn/sourdough"},
		{URL: ""},
	}
	assert.Equal(t, []string{"file:///learn/sourdough"}, InvalidURLs(pages))
}

func TestLanguageGate(t *testing.T) {
	gate := EnglishOnly()

	keep, reason := gate.Keep(models.Page{CleanedText: "How to bake sourdough bread at home with a simple starter and a hot oven."})
	assert.True(t, keep)
	assert.Empty(t, reason)

	keep, reason = gate.Keep(models.Page{CleanedText: "Comment faire du pain au levain à la maison avec un four très chaud et beaucoup de patience."})
	assert.False(t, keep)
	assert.Contains(t, reason, "french")

	keep, _ = gate.Keep(models.Page{})
	assert.True(t, keep, "empty text is left for length validation")
}

func TestNewLanguageGateAddsWantedLanguage(t *testing.T) {
	gate := NewLanguageGate(lingua.Polish)
	keep, _ := gate.Keep(models.Page{CleanedText: "Jak upiec chleb na zakwasie w domu, krok po kroku, z prostym zakwasem i gorącym piekarnikiem."})
	assert.True(t, keep)
}

func TestSample(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, sample(short))

	long := strings.Repeat("é", sampleGraphemes+10)
	got := sample(long)
	assert.Equal(t, sampleGraphemes, len([]rune(got)))
}
