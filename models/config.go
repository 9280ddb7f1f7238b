// Package models defines the data structures shared by the engine, its
// discovery methods and the CLI.
package models

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of an intent discovery run. Keys missing from
// the YAML file keep the defaults from DefaultConfig.
type Config struct {
	// ExtractionMethod selects pattern, dynamic or hybrid discovery.
	ExtractionMethod ExtractionMode `yaml:"extraction_method" json:"extraction_method"`
	// LDATopics is the requested number of topics; reduced automatically for
	// small corpora.
	LDATopics int `yaml:"lda_topics" json:"lda_topics"`
	// SimilarityThreshold is the keyword similarity at or above which two
	// candidates are merged.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	// MinClusterSize is the minimum page count of an emitted intent.
	MinClusterSize int `yaml:"min_cluster_size" json:"min_cluster_size"`
	// MinConfidenceThreshold is the minimum pattern score for page membership.
	MinConfidenceThreshold float64 `yaml:"min_confidence_threshold" json:"min_confidence_threshold"`
	// MaxIntentsPerPage caps pattern memberships per page.
	MaxIntentsPerPage int `yaml:"max_intents_per_page" json:"max_intents_per_page"`
	// FallbackKeywords enables the custom keyword method and keeps its
	// categories even when they are smaller than MinClusterSize.
	FallbackKeywords bool `yaml:"fallback_keywords" json:"fallback_keywords"`
	// CustomKeywords maps a category name to its keywords.
	CustomKeywords CustomKeywords `yaml:"custom_keywords" json:"custom_keywords"`
	// EmbeddingsModel selects the embedding provider ("" disables it).
	EmbeddingsModel string `yaml:"embeddings_model" json:"embeddings_model"`

	TopicAssignmentThreshold float64       `yaml:"topic_assignment_threshold" json:"topic_assignment_threshold"`
	TopicIterations          int           `yaml:"topic_iterations" json:"topic_iterations"`
	DBSCANEps                float64       `yaml:"dbscan_eps" json:"dbscan_eps"`
	DBSCANMinSamples         int           `yaml:"dbscan_min_samples" json:"dbscan_min_samples"` // 0 = max(2, 5% of pages)
	MethodTimeout            time.Duration `yaml:"method_timeout" json:"method_timeout"`
	Workers                  int           `yaml:"workers" json:"workers"`
	MinContentLength         int           `yaml:"min_content_length" json:"min_content_length"`
	PatternLibrary           string        `yaml:"pattern_library" json:"pattern_library,omitempty"`
	OllamaEndpoint           string        `yaml:"ollama_endpoint" json:"ollama_endpoint,omitempty"`
	EmbeddingCacheDir        string        `yaml:"embedding_cache_dir" json:"embedding_cache_dir,omitempty"`
	EmbeddingCacheTTL        time.Duration `yaml:"embedding_cache_ttl" json:"embedding_cache_ttl,omitempty"`
	EmbeddingRateLimit       float64       `yaml:"embedding_rate_limit" json:"embedding_rate_limit,omitempty"` // requests per second, 0 = unlimited
	EnglishOnly              bool          `yaml:"english_only" json:"english_only"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ExtractionMethod:         ExtractionHybrid,
		LDATopics:                10,
		SimilarityThreshold:      0.7,
		MinClusterSize:           3,
		MinConfidenceThreshold:   0.1,
		MaxIntentsPerPage:        5,
		FallbackKeywords:         true,
		TopicAssignmentThreshold: 0.2,
		TopicIterations:          200,
		DBSCANEps:                0.3,
		MethodTimeout:            2 * time.Minute,
		Workers:                  3,
		MinContentLength:         20,
		OllamaEndpoint:           "http://localhost:11434",
		EmbeddingCacheTTL:        7 * 24 * time.Hour,
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no run can use.
func (c *Config) Validate() error {
	switch {
	case c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1:
		return &ConfigError{Field: "similarity_threshold", Message: "must be within [0, 1]"}
	case c.MinConfidenceThreshold < 0 || c.MinConfidenceThreshold > 1:
		return &ConfigError{Field: "min_confidence_threshold", Message: "must be within [0, 1]"}
	case c.TopicAssignmentThreshold < 0 || c.TopicAssignmentThreshold > 1:
		return &ConfigError{Field: "topic_assignment_threshold", Message: "must be within [0, 1]"}
	case c.LDATopics < 1:
		return &ConfigError{Field: "lda_topics", Message: "must be at least 1"}
	case c.MinClusterSize < 1:
		return &ConfigError{Field: "min_cluster_size", Message: "must be at least 1"}
	case c.MaxIntentsPerPage < 1:
		return &ConfigError{Field: "max_intents_per_page", Message: "must be at least 1"}
	case c.DBSCANEps <= 0 || c.DBSCANEps > 2:
		return &ConfigError{Field: "dbscan_eps", Message: "must be within (0, 2]"}
	case c.Workers < 1:
		return &ConfigError{Field: "workers", Message: "must be at least 1"}
	case c.MethodTimeout <= 0:
		return &ConfigError{Field: "method_timeout", Message: "must be positive"}
	}
	return nil
}

// CustomKeywords holds the valid custom keyword categories plus the names of
// entries that were skipped while decoding.
type CustomKeywords struct {
	Entries map[string][]string
	Invalid []string
}

// Len returns the number of usable categories.
func (ck CustomKeywords) Len() int {
	return len(ck.Entries)
}

// Names returns the category names in sorted order.
func (ck CustomKeywords) Names() []string {
	names := make([]string, 0, len(ck.Entries))
	for name := range ck.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnmarshalYAML decodes a mapping of name to keyword list. Entries that are
// not a non-empty list of strings are recorded in Invalid and skipped.
func (ck *CustomKeywords) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return &ConfigError{Field: "custom_keywords", Message: "must be a mapping of name to keyword list"}
	}
	ck.Entries = make(map[string][]string)
	ck.Invalid = nil

	for i := 0; i+1 < len(value.Content); i += 2 {
		name := value.Content[i].Value
		var keywords []string
		if err := value.Content[i+1].Decode(&keywords); err != nil || name == "" {
			ck.Invalid = append(ck.Invalid, name)
			continue
		}
		cleaned := keywords[:0]
		for _, kw := range keywords {
			if kw != "" {
				cleaned = append(cleaned, kw)
			}
		}
		if len(cleaned) == 0 {
			ck.Invalid = append(ck.Invalid, name)
			continue
		}
		ck.Entries[name] = cleaned
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (ck CustomKeywords) MarshalYAML() (interface{}, error) {
	return ck.Entries, nil
}

// UnmarshalJSON decodes the form MarshalJSON writes, so a config stored with
// a run reads back with its categories.
func (ck *CustomKeywords) UnmarshalJSON(data []byte) error {
	var entries map[string][]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return &ConfigError{Field: "custom_keywords", Message: "must be a mapping of name to keyword list"}
	}
	ck.Entries = make(map[string][]string, len(entries))
	ck.Invalid = nil
	for name, keywords := range entries {
		if name == "" || len(keywords) == 0 {
			ck.Invalid = append(ck.Invalid, name)
			continue
		}
		ck.Entries[name] = keywords
	}
	sort.Strings(ck.Invalid)
	return nil
}

// MarshalJSON encodes the valid entries only.
func (ck CustomKeywords) MarshalJSON() ([]byte, error) {
	if ck.Entries == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(ck.Entries)
}
