package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// varPattern matches ${VAR} and ${VAR:-default} references. Secrets
// such as the API client credentials reach the file only through these,
// so the file itself never holds a literal secret.
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads a YAML configuration file, substitutes environment
// references, parses it, and applies defaults. The result still needs
// Validate before use.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var missing []string
	expanded := varPattern.ReplaceAllStringFunc(string(raw), func(ref string) string {
		sub := varPattern.FindStringSubmatch(ref)
		name, fallback := sub[1], sub[2]

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		// ${VAR:-} is an explicit empty default; bare ${VAR} with no
		// environment value is a configuration error.
		if strings.Contains(ref, ":-") {
			return fallback
		}

		missing = append(missing, name)
		return ref
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("config: %s: unresolved variable: %s",
			path, strings.Join(missing, ", "))
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
