package domain

import "fmt"

// Wildcard is the label token that matches any single host label at its position.
const Wildcard = "*"

// Rule is a single public suffix pattern such as "com", "*.uk" or "!parliament.uk".
//
// Notes:
// - labels are stored outermost first, so "co.uk" is ["uk", "co"].
// - A Rule is immutable once parsed; accessors return copies.
type Rule struct {
	exception bool
	labels    []string
	text      string
}

// ParseRule parses one suffix pattern. A leading "!" marks an exception rule.
// The remainder is normalized with Normalize; an empty pattern yields a rule
// with a single empty label.
func ParseRule(pattern string) (Rule, error) {
	var r Rule
	if len(pattern) > 0 && pattern[0] == '!' {
		r.exception = true
		pattern = pattern[1:]
	}
	text, err := Normalize(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	r.text = text
	r.labels = reversedLabels(text)
	return r, nil
}

// MustParseRule is like ParseRule but panics on error.
func MustParseRule(pattern string) Rule {
	r, err := ParseRule(pattern)
	if err != nil {
		panic(err)
	}
	return r
}

// IsException reports whether the pattern began with "!".
func (r Rule) IsException() bool { return r.exception }

// Len returns the number of labels in the pattern.
func (r Rule) Len() int { return len(r.labels) }

// Labels returns a copy of the pattern labels, outermost first.
func (r Rule) Labels() []string {
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

// Text returns the normalized pattern without the exception marker.
func (r Rule) Text() string { return r.text }

// String renders the rule the way it appears in a list, including "!" for exceptions.
func (r Rule) String() string {
	if r.exception {
		return "!" + r.text
	}
	return r.text
}

// Match reports whether the rule applies to host. Only the first Len() labels
// (counted from the right) are compared; extra host labels are ignored.
// A host that fails normalization never matches.
func (r Rule) Match(host string) bool {
	name, err := Normalize(host)
	if err != nil {
		return false
	}
	return r.matchLabels(reversedLabels(name))
}

// matchLabels compares the rule against host labels that are already reversed.
func (r Rule) matchLabels(hostLabels []string) bool {
	// A rule can't match a host with fewer labels than itself.
	if len(r.labels) > len(hostLabels) {
		return false
	}
	for i, label := range r.labels {
		if label != Wildcard && label != hostLabels[i] {
			return false
		}
	}
	return true
}

// isWildcardRoot reports whether the outermost label is the wildcard token,
// i.e. the rule can match hosts under any top-level label.
func (r Rule) isWildcardRoot() bool {
	return r.labels[0] == Wildcard
}

// CompareRules orders rules by specificity for picking the best match:
// exception rules sort before non-exception rules, then rules with more labels
// sort first. Equal rules compare as 0, so a stable sort keeps input order.
// It is suitable for slices.SortStableFunc.
func CompareRules(a, b Rule) int {
	if a.exception != b.exception {
		if a.exception {
			return -1
		}
		return 1
	}
	switch {
	case len(a.labels) > len(b.labels):
		return -1
	case len(a.labels) < len(b.labels):
		return 1
	default:
		return 0
	}
}
