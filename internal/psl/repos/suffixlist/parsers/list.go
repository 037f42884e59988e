package parsers

import (
	"fmt"
	"strings"

	logpkg "github.com/haukened/rr-psl/internal/psl/common/log"
	"github.com/haukened/rr-psl/internal/psl/domain"
)

// ParseLines builds a RuleSet from lines already split by a source.
//
// Behavior:
// - Skips empty lines and lines starting with "//"
// - Removes a UTF-8 BOM from the first line; lines is not modified
// - Anything after the first whitespace on a rule line is ignored by the rule parser
// - Fails at the first line that is not a valid rule, reporting its line number
//
// Line splitting, including "\r\n" endings, belongs to the source that
// produced lines.
func ParseLines(lines []string, source string, logger logpkg.Logger) (*domain.RuleSet, error) {
	logger.Debug(map[string]any{"source": source, "lines": len(lines)}, "parse_list_start")

	if len(lines) > 0 && strings.HasPrefix(lines[0], "\uFEFF") {
		lines = append([]string{strings.TrimPrefix(lines[0], "\uFEFF")}, lines[1:]...)
	}

	for i, line := range lines {
		switch {
		case line == "":
			logger.Debug(map[string]any{"line": i + 1}, "skip_empty")
		case !domain.IsRuleLine(line):
			logger.Debug(map[string]any{"line": i + 1}, "skip_comment")
		default:
			logger.Debug(map[string]any{"line": i + 1, "raw": line}, "emit_rule")
		}
	}

	rs, err := domain.NewRuleSet(lines)
	if err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "parse_list_invalid_rule")
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var exceptions, wildcards int
	for _, r := range rs.Rules() {
		if r.IsException() {
			exceptions++
		}
		if strings.Contains(r.Text(), domain.Wildcard) {
			wildcards++
		}
	}
	logger.Debug(map[string]any{
		"source":     source,
		"rules":      rs.Len(),
		"exceptions": exceptions,
		"wildcards":  wildcards,
	}, "parse_list_done")
	return rs, nil
}
