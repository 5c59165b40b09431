// Package config loads the pipeline's one externally tunable surface: the
// unicode zero-width/confusable table unicodeNormalizationPass falls back
// to when no override is supplied (spec.md §9 calls this table "best left
// as a configuration point"), plus the fixed-point iteration bound. JSON
// input is validated against an embedded JSON Schema before being trusted,
// grounded on the teacher's core/types/validation.go
// (compiler.Draft/AddResource/Compile, then Validate before unmarshal).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// UnicodeConfig overrides the zero-width and confusable-character tables
// core/transform's unicode pass normalizes. A nil/zero Confusables or
// ZeroWidth in a loaded Config leaves the pass's compiled-in default in
// place (see core/transform/unicode.go).
type UnicodeConfig struct {
	ZeroWidth   []string          `json:"zeroWidth,omitempty"`
	Confusables map[string]string `json:"confusables,omitempty"`
}

// Config is the full pipeline configuration.
type Config struct {
	MaxIterations int           `json:"maxIterations,omitempty"`
	Unicode       UnicodeConfig `json:"unicode,omitempty"`
}

// Default returns the pipeline's built-in configuration: the compiled-in
// unicode table and core/transform.DefaultMaxIterations. A zero
// MaxIterations is treated by core/transform.RunWithConfig as
// DefaultMaxIterations, so a zero Config runs the same bound.
func Default() *Config {
	return &Config{MaxIterations: 8}
}

const schemaDoc = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"maxIterations": {"type": "integer", "minimum": 1, "maximum": 64},
		"unicode": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"zeroWidth": {
					"type": "array",
					"items": {"type": "string", "minLength": 1, "maxLength": 1}
				},
				"confusables": {
					"type": "object",
					"additionalProperties": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

// Load reads, schema-validates, and parses a config file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Config, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const url = "schema://config.json"
	if err := compiler.AddResource(url, strings.NewReader(schemaDoc)); err != nil {
		return nil, fmt.Errorf("config: compile schema: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("config: compile schema: %w", err)
	}

	var instance interface{}
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("config: invalid JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 8
	}
	return cfg, nil
}
