package detector

import (
	"net/url"
	"path"
	"strings"
)

// Site is the cheap URL-based classification of a crawled site
type Site struct {
	Domain     string `json:"domain" yaml:"domain"`
	DomainType string `json:"domain_type" yaml:"domain_type"` // gov, edu, academic, commercial, mobile
	Category   string `json:"category" yaml:"category"`       // gov/health, academic/ai, docs/api, blog, news/tech, general
	Country    string `json:"country" yaml:"country"`         // TLD-based guess: us, uk, de, jp, etc
}

// HomeSection is the section of pages at the site root
const HomeSection = "home"

// SectionFromURL returns the first path segment of a page URL, lower-cased
// and without a file extension. Root pages belong to HomeSection.
func SectionFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return HomeSection
	}
	p := strings.Trim(u.Path, "/")
	if p == "" {
		return HomeSection
	}
	first, _, _ := strings.Cut(p, "/")
	first = strings.TrimSuffix(first, path.Ext(first))
	if first == "" || strings.EqualFold(first, "index") {
		return HomeSection
	}
	return strings.ToLower(first)
}

// Section returns the explicit section when set, otherwise the one derived
// from the URL.
func Section(explicit, rawURL string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return strings.ToLower(s)
	}
	return SectionFromURL(rawURL)
}

// Classify derives the site classification from any page URL of the site
func Classify(rawURL string) Site {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return Site{DomainType: "unknown", Category: "general", Country: "unknown"}
	}
	domainType := detectDomainType(u)
	return Site{
		Domain:     strings.ToLower(u.Hostname()),
		DomainType: domainType,
		Category:   detectCategory(u, domainType),
		Country:    detectCountry(u),
	}
}

// detectDomainType identifies domain classification
func detectDomainType(u *url.URL) string {
	host := strings.ToLower(u.Hostname())

	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".mil") {
		return "gov"
	}
	if strings.HasSuffix(host, ".edu") {
		return "edu"
	}

	academicDomains := []string{
		"arxiv.org", "doi.org", "pubmed.ncbi.nlm.nih.gov",
		"scholar.google.com", "researchgate.net", "academia.edu",
		"biorxiv.org", "medrxiv.org", "ssrn.com",
	}
	for _, domain := range academicDomains {
		if strings.Contains(host, domain) {
			return "academic"
		}
	}

	if strings.HasPrefix(host, "m.") || strings.HasPrefix(host, "mobile.") {
		return "mobile"
	}

	return "commercial"
}

// detectCountry extracts country from TLD
func detectCountry(u *url.URL) string {
	parts := strings.Split(strings.ToLower(u.Hostname()), ".")
	if len(parts) < 2 {
		return "unknown"
	}

	tld := parts[len(parts)-1]
	countries := map[string]string{
		"uk": "uk", "de": "de", "fr": "fr", "jp": "jp", "cn": "cn",
		"au": "au", "ca": "ca", "in": "in", "br": "br", "ru": "ru",
		"it": "it", "es": "es", "nl": "nl", "se": "se", "ch": "ch",
	}
	if country, ok := countries[tld]; ok {
		return country
	}

	// US implied for .gov, .edu, .mil
	if tld == "gov" || tld == "edu" || tld == "mil" {
		return "us"
	}
	return "unknown"
}

// detectCategory determines site category from URL patterns
func detectCategory(u *url.URL, domainType string) string {
	host := strings.ToLower(u.Hostname())
	p := strings.ToLower(u.Path)

	if domainType == "gov" {
		if strings.Contains(host, "health") || strings.Contains(host, "cdc") ||
			strings.Contains(host, "nih") || strings.Contains(host, "fda") {
			return "gov/health"
		}
		return "gov/general"
	}

	if domainType == "academic" || domainType == "edu" {
		if strings.Contains(p, "/ai/") || strings.Contains(p, "/ml/") || strings.HasPrefix(host, "ai.") {
			return "academic/ai"
		}
		return "academic/general"
	}

	if strings.HasPrefix(host, "docs.") || strings.HasPrefix(host, "documentation.") ||
		strings.Contains(p, "/docs/") || strings.Contains(p, "/documentation/") {
		return "docs/api"
	}
	if strings.HasPrefix(host, "api.") || strings.Contains(p, "/api/") {
		return "docs/api"
	}

	if strings.HasPrefix(host, "blog.") || strings.Contains(p, "/blog/") {
		return "blog"
	}

	newsDomains := []string{"techcrunch", "wired", "arstechnica", "theverge", "hacker", "news"}
	for _, newsDomain := range newsDomains {
		if strings.Contains(host, newsDomain) {
			return "news/tech"
		}
	}

	return "general"
}
