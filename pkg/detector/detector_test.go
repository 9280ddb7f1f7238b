package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://bakery.example/", "home"},
		{"https://bakery.example", "home"},
		{"https://bakery.example/index.html", "home"},
		{"https://bakery.example/Pricing/wholesale", "pricing"},
		{"https://bakery.example/about.php?x=1", "about"},
		{"https://bakery.example/learn/sourdough/starter", "learn"},
		{"::not a url", "home"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, SectionFromURL(tt.url))
		})
	}

	assert.Equal(t, "recipes", Section(" Recipes ", "https://bakery.example/learn/a"))
	assert.Equal(t, "learn", Section("", "https://bakery.example/learn/a"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Site
	}{
		{"https://docs.example.com/guide", Site{Domain: "docs.example.com", DomainType: "commercial", Category: "docs/api", Country: "unknown"}},
		{"https://www.cdc.gov/flu", Site{Domain: "www.cdc.gov", DomainType: "gov", Category: "gov/health", Country: "us"}},
		{"https://arxiv.org/abs/2401.00001", Site{Domain: "arxiv.org", DomainType: "academic", Category: "academic/general", Country: "unknown"}},
		{"https://bakery.co.uk/blog/bread", Site{Domain: "bakery.co.uk", DomainType: "commercial", Category: "blog", Country: "uk"}},
		{"https://m.example.com:8443/", Site{Domain: "m.example.com", DomainType: "mobile", Category: "general", Country: "unknown"}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.url))
		})
	}
	assert.Equal(t, "unknown", Classify("not a url").DomainType)
}
