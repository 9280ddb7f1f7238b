package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
}

func TestSaveEncoded(t *testing.T) {
	s := &Storage{}
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "nested", "out.json")
	require.NoError(t, s.SaveEncoded(jsonPath, []record{{Name: "learn", Score: 0.5}}))
	data, err := s.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"learn","score":0.5}]`, string(data))

	yamlPath := filepath.Join(dir, "out.yaml")
	require.NoError(t, s.SaveEncoded(yamlPath, record{Name: "buy", Score: 1}))
	data, err = s.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "name: buy"))

	assert.True(t, s.HasFile(yamlPath))
	assert.False(t, s.HasFile(filepath.Join(dir, "missing.json")))

	stats, err := s.GetFileStats(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), stats.SizeBytes)
}

func TestReadFileMissing(t *testing.T) {
	_, err := (&Storage{}).ReadFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
