// Package library loads and compiles the intent definition table used by
// rule-based discovery. Definitions are data: the built-in table is embedded
// and a YAML file with the same shape can replace it.
package library

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_library.yaml
var defaultLibrary []byte

// Definition is one named intent as written in the library file.
type Definition struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	SignalPatterns []string `yaml:"signal_patterns"`
	UserGoals      []string `yaml:"user_goals"`
	PainPoints     []string `yaml:"pain_points"`
	// BoostTerms add Boost to a page score when any of them occurs.
	BoostTerms []string `yaml:"boost_terms"`
	Boost      float64  `yaml:"boost"`
	// PainBoost is added when the page carries pain signals.
	PainBoost float64 `yaml:"pain_boost"`
}

type file struct {
	Definitions []Definition `yaml:"definitions"`
}

// Pattern is a compiled signal pattern with its stable id.
type Pattern struct {
	ID     string
	Source string
	Regexp *regexp.Regexp
}

// Compiled is a definition whose patterns compiled successfully.
type Compiled struct {
	Definition
	Patterns []Pattern
	boost    *regexp.Regexp
}

// HasBoost reports whether text contains one of the definition's boost terms.
func (c *Compiled) HasBoost(text string) bool {
	return c.boost != nil && c.boost.MatchString(text)
}

// Library is the compiled, read-only definition table.
type Library struct {
	Definitions []*Compiled
	// Skipped lists the patterns and definitions dropped while compiling.
	Skipped []string
	byName  map[string]*Compiled
}

// Lookup returns the compiled definition with the given name.
func (l *Library) Lookup(name string) (*Compiled, bool) {
	c, ok := l.byName[name]
	return c, ok
}

// Names returns definition names in library order.
func (l *Library) Names() []string {
	names := make([]string, len(l.Definitions))
	for i, d := range l.Definitions {
		names[i] = d.Name
	}
	return names
}

// Default compiles the embedded definition table.
func Default(logger *slog.Logger) (*Library, error) {
	return Parse(defaultLibrary, logger)
}

// Load compiles the definition table at path, or the embedded one when path
// is empty.
func Load(path string, logger *slog.Logger) (*Library, error) {
	if path == "" {
		return Default(logger)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern library: %w", err)
	}
	return Parse(data, logger)
}

// Parse decodes and compiles a YAML definition table. Invalid patterns are
// skipped with a warning; a definition left without patterns is skipped too.
func Parse(data []byte, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse pattern library: %w", err)
	}

	lib := &Library{byName: make(map[string]*Compiled)}
	for _, def := range f.Definitions {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			logger.Warn("Skipping intent definition without a name")
			lib.Skipped = append(lib.Skipped, "<unnamed>")
			continue
		}
		if _, dup := lib.byName[name]; dup {
			logger.Warn("Skipping duplicate intent definition", "name", name)
			lib.Skipped = append(lib.Skipped, name)
			continue
		}
		def.Name = name

		compiled := &Compiled{Definition: def}
		for i, src := range def.SignalPatterns {
			id := fmt.Sprintf("%s#%d", name, i)
			re, err := regexp.Compile("(?i)" + src)
			if err != nil {
				logger.Warn("Skipping invalid signal pattern", "definition", name, "pattern", src, "error", err)
				lib.Skipped = append(lib.Skipped, id)
				continue
			}
			compiled.Patterns = append(compiled.Patterns, Pattern{ID: id, Source: src, Regexp: re})
		}
		if len(compiled.Patterns) == 0 {
			logger.Warn("Skipping intent definition without usable patterns", "definition", name)
			lib.Skipped = append(lib.Skipped, name)
			continue
		}

		if terms := quoteTerms(def.BoostTerms); terms != "" {
			compiled.boost = regexp.MustCompile(`(?i)\b(?:` + terms + `)\b`)
		}

		lib.Definitions = append(lib.Definitions, compiled)
		lib.byName[name] = compiled
	}
	return lib, nil
}

func quoteTerms(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
	}
	return strings.Join(quoted, "|")
}
