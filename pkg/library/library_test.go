package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLibrary(t *testing.T) {
	lib, err := Default(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"research_and_compare",
		"learn_and_understand",
		"solve_problem",
		"evaluate_and_purchase",
		"implement_and_integrate",
		"optimize_and_improve",
		"stay_informed",
		"connect_and_communicate",
	}, lib.Names())
	assert.Empty(t, lib.Skipped)

	learn, ok := lib.Lookup("learn_and_understand")
	require.True(t, ok)
	assert.True(t, learn.HasBoost("A short Tutorial"))
	assert.False(t, learn.HasBoost("guidelines"))
	assert.Equal(t, "learn_and_understand#0", learn.Patterns[0].ID)
}

func TestParseSkipsMalformedEntries(t *testing.T) {
	data := []byte(`
definitions:
  - name: pricing
    signal_patterns: ['\bpric(e|ing)\b', '(unclosed']
  - name: broken
    signal_patterns: ['[a-']
  - name: ''
    signal_patterns: ['\bx\b']
  - name: pricing
    signal_patterns: ['\bcost\b']
`)
	lib, err := Parse(data, nil)
	require.NoError(t, err)

	require.Len(t, lib.Definitions, 1)
	pricing := lib.Definitions[0]
	assert.Equal(t, "pricing", pricing.Name)
	require.Len(t, pricing.Patterns, 1)
	assert.True(t, pricing.Patterns[0].Regexp.MatchString("PRICING page"))

	assert.Equal(t, []string{"pricing#1", "broken#0", "broken", "<unnamed>", "pricing"}, lib.Skipped)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("definitions: [unterminated"), nil)
	assert.Error(t, err)
}
