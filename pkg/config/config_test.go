package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/deobf/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 8, cfg.MaxIterations)
	assert.Empty(t, cfg.Unicode.ZeroWidth)
	assert.Empty(t, cfg.Unicode.Confusables)
}

func TestLoadValidConfig(t *testing.T) {
	tests := []struct {
		name              string
		content           string
		wantMaxIterations int
	}{
		{
			name:              "only maxIterations",
			content:           `{"maxIterations": 20}`,
			wantMaxIterations: 20,
		},
		{
			name:              "empty object falls back to default iteration bound",
			content:           `{}`,
			wantMaxIterations: 8,
		},
		{
			name: "unicode overrides",
			content: `{
				"maxIterations": 5,
				"unicode": {
					"zeroWidth": ["​"],
					"confusables": {"а": "a"}
				}
			}`,
			wantMaxIterations: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			cfg, err := config.Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMaxIterations, cfg.MaxIterations)
		})
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `not json at all`},
		{"unknown field", `{"unknownField": true}`},
		{"maxIterations out of range", `{"maxIterations": 0}`},
		{"maxIterations too large", `{"maxIterations": 1000}`},
		{"zeroWidth entry too long", `{"unicode": {"zeroWidth": ["ab"]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}
