package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

// ExtractionMode selects which discovery methods a run uses.
type ExtractionMode int

const (
	// ExtractionHybrid runs pattern, topic and embedding discovery.
	ExtractionHybrid ExtractionMode = iota
	ExtractionPattern                 // Rule-based signal matching only
	ExtractionDynamic                 // Topic model and embedding clustering
)

var extractionModeNames = []string{"hybrid", "pattern", "dynamic"}

func (m ExtractionMode) String() string {
	if int(m) < 0 || int(m) >= len(extractionModeNames) {
		return "unknown"
	}
	return extractionModeNames[m]
}

// Methods returns the discovery methods the mode enables, in run order.
func (m ExtractionMode) Methods() []SourceMethod {
	switch m {
	case ExtractionPattern:
		return []SourceMethod{MethodPattern}
	case ExtractionDynamic:
		return []SourceMethod{MethodTopic, MethodEmbedding}
	default:
		return []SourceMethod{MethodPattern, MethodTopic, MethodEmbedding}
	}
}

// ParseExtractionMode resolves a mode name. Unknown names return a
// *ConfigError carrying the closest known name, if any.
func ParseExtractionMode(name string) (ExtractionMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return ExtractionHybrid, nil
	}
	for i, known := range extractionModeNames {
		if normalized == known {
			return ExtractionMode(i), nil
		}
	}

	suggestion := ""
	if matches := fuzzy.Find(normalized, extractionModeNames); len(matches) > 0 {
		suggestion = matches[0].Str
	}
	return ExtractionHybrid, &ConfigError{
		Field:      "extraction_method",
		Message:    fmt.Sprintf("value %q not recognized", name),
		Suggestion: suggestion,
	}
}

// MarshalYAML implements yaml.Marshaler.
func (m ExtractionMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for the string form.
func (m *ExtractionMode) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	mode, err := ParseExtractionMode(raw)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalJSON encodes the mode by name.
func (m ExtractionMode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes a mode written by MarshalJSON.
func (m *ExtractionMode) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return &ConfigError{Field: "extraction_method", Message: "must be a string"}
	}
	mode, err := ParseExtractionMode(name)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
