// internal/config/load.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envRef = regexp.MustCompile(`\$\{([a-zA-Z_][0-9a-zA-Z_]*)\}`)

// Load reads the YAML document at path, expands ${VAR} references
// and decodes it strictly (unknown fields are errors).
// It does not validate. Unset variables expand to "" and are returned
// so the caller can warn about them.
func Load(path string) (*Config, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw, os.LookupEnv)
}

// Parse is Load without the filesystem. lookup resolves variables.
func Parse(raw []byte, lookup func(string) (string, bool)) (*Config, []string, error) {
	expanded, missing := ExpandEnv(raw, lookup)

	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, missing, fmt.Errorf("config: parse: %w", err)
	}
	return &cfg, missing, nil
}

// ExpandEnv replaces every ${VAR} in raw. Unset variables become ""
// and are reported once each, in order of first appearance.
func ExpandEnv(raw []byte, lookup func(string) (string, bool)) ([]byte, []string) {
	var missing []string
	seen := map[string]bool{}

	out := envRef.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := string(envRef.FindSubmatch(m)[1])
		if v, ok := lookup(name); ok {
			return []byte(v)
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return nil
	})
	return out, missing
}
