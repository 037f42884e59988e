// Package overlay loads locally maintained suffix rules from YAML, JSON and TOML
// files. Overlay rules are appended after the fetched list, so private suffixes
// can be resolved without publishing them upstream.
//
// A file holds a single "rules" key:
//
//	rules:
//	  - corp.example
//	  - "*.dev.corp.example"
//	  - "!www.dev.corp.example"
package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/rr-psl/internal/psl/domain"
)

const rulesKey = "rules"

// LoadDirectory walks dir in lexical order and returns the rule lines of every
// supported file. Files with other extensions are ignored. It fails on the first
// file that cannot be parsed or holds an invalid rule.
func LoadDirectory(dir string) ([]string, error) {
	var lines []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rules, err := LoadFile(path)
		if err != nil {
			return err
		}
		lines = append(lines, rules...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// LoadFile parses a single overlay file. Unsupported extensions yield no rules.
func LoadFile(path string) ([]string, error) {
	parser := parserFor(path)
	if parser == nil {
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load overlay file %s: %w", path, err)
	}
	if !k.Exists(rulesKey) {
		return nil, fmt.Errorf("overlay file %s missing %q", path, rulesKey)
	}

	rules := toStringValues(k.Get(rulesKey))
	for i, r := range rules {
		if _, err := domain.ParseRule(r); err != nil {
			return nil, fmt.Errorf("invalid rule %d in %s: %w", i+1, path, err)
		}
	}
	return rules, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return nil
	}
}

// toStringValues accepts a single string or a list and keeps the non-empty
// string elements, trimmed. Comment lines are dropped here so every returned
// value is a rule.
func toStringValues(val any) []string {
	var raw []any
	switch v := val.(type) {
	case string:
		raw = []any{v}
	case []any:
		raw = v
	case []string:
		for _, s := range v {
			raw = append(raw, s)
		}
	default:
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, elem := range raw {
		s, ok := elem.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if !domain.IsRuleLine(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
