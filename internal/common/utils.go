package common

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/dtnitsch/llm-intent-miner/models"
)

// intentFieldNames maps short field names accepted by --fields to the JSON
// keys of an intent.
var intentFieldNames = map[string]string{
	"name":    "primary_intent",
	"conf":    "confidence",
	"kw":      "keywords",
	"phrases": "representative_phrases",
	"count":   "page_count",
	"method":  "extraction_method",
	"pages":   "pages",
}

// FilterFields keeps only the requested JSON fields of result. Short names
// from intentFieldNames are accepted next to the full keys. An empty
// fieldsStr keeps everything.
func FilterFields(result interface{}, fieldsStr string) map[string]interface{} {
	fullMap := structToMap(result)
	if fieldsStr == "" {
		return fullMap
	}

	includeFields := make(map[string]bool)
	for _, field := range strings.Split(fieldsStr, ",") {
		field = strings.TrimSpace(field)
		if full, ok := intentFieldNames[field]; ok {
			field = full
		}
		includeFields[field] = true
	}

	filtered := make(map[string]interface{})
	for key, value := range fullMap {
		if includeFields[key] {
			filtered[key] = value
		}
	}
	return filtered
}

// FilterIntentFields applies FilterFields to every intent, preserving order.
func FilterIntentFields(intents []models.Intent, fieldsStr string) []map[string]interface{} {
	out := make([]map[string]interface{}, len(intents))
	for i, in := range intents {
		out[i] = FilterFields(in, fieldsStr)
	}
	return out
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(obj interface{}) map[string]interface{} {
	data, _ := json.Marshal(obj)
	var result map[string]interface{}
	_ = json.Unmarshal(data, &result)
	return result
}

// CorpusFingerprint identifies a corpus and the settings it was analyzed
// with. Page order does not matter; any change to a URL, a text or the
// settings does.
func CorpusFingerprint(pages []models.Page, settings []byte) string {
	entries := make([]string, len(pages))
	for i, p := range pages {
		entries[i] = p.URL + "\x00" + ContentHash([]byte(p.FullText()))
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e))
		h.Write([]byte("\n"))
	}
	h.Write(settings)
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// ContentHash computes SHA256 hash of content and returns hex string.
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

var (
	markdownLink = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)
	httpURL      = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.]*[a-zA-Z0-9](:[0-9]+)?(/[^\s]*)?$`)
)

// SanitizeURL strips copy-paste debris from a page URL: surrounding space,
// markdown link syntax, and stray quotes, brackets or punctuation.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)
	if m := markdownLink.FindStringSubmatch(cleaned); len(m) > 1 {
		cleaned = m[1]
	}
	cleaned = strings.TrimRight(cleaned, ",.)}]\"'>;")
	cleaned = strings.TrimLeft(cleaned, "([<\"'")
	return strings.TrimSpace(cleaned)
}

// ValidPageURL reports whether u is an absolute http(s) URL with a plain
// host name.
func ValidPageURL(u string) bool {
	if u == "" || strings.Contains(u, " ") || !httpURL.MatchString(u) {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}
