package domain

import (
	"fmt"
	"iter"
	"strings"
)

// RuleSet is an ordered collection of suffix rules.
//
// A RuleSet is only populated through NewRuleSet and Append, which skip blank
// lines and "//" comments. Resolution methods never mutate the set, so a built
// RuleSet may be shared by concurrent readers. Append must not run concurrently
// with reads; build a new RuleSet and swap it instead.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet parses lines into a RuleSet, preserving input order.
// It stops at the first line that fails to parse.
func NewRuleSet(lines []string) (*RuleSet, error) {
	s := &RuleSet{rules: make([]Rule, 0, len(lines))}
	if err := s.Append(lines...); err != nil {
		return nil, err
	}
	return s, nil
}

// IsRuleLine reports whether a raw list line holds a rule, i.e. it is neither
// empty nor a "//" comment.
func IsRuleLine(line string) bool {
	return line != "" && !strings.HasPrefix(line, "//")
}

// Append parses and appends additional lines with the same filtering as NewRuleSet.
// On error the set is left unchanged and the error names the 1-based position
// of the offending line within lines.
func (s *RuleSet) Append(lines ...string) error {
	parsed := make([]Rule, 0, len(lines))
	for i, line := range lines {
		if !IsRuleLine(line) {
			continue
		}
		r, err := ParseRule(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		parsed = append(parsed, r)
	}
	s.rules = append(s.rules, parsed...)
	return nil
}

// Len returns the number of rules.
func (s *RuleSet) Len() int { return len(s.rules) }

// Rules returns a copy of the rules in input order.
func (s *RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// HasWildcardRoot reports whether any rule has "*" as its outermost label.
// Such a rule can match a host regardless of its top-level label.
func (s *RuleSet) HasWildcardRoot() bool {
	for _, r := range s.rules {
		if r.isWildcardRoot() {
			return true
		}
	}
	return false
}

// Match returns the most specific rule matching host according to CompareRules.
// Among equally specific rules the first one in input order wins.
func (s *RuleSet) Match(host string) (Rule, bool) {
	name, err := Normalize(host)
	if err != nil {
		return Rule{}, false
	}
	return s.best(reversedLabels(name))
}

func (s *RuleSet) best(hostLabels []string) (Rule, bool) {
	var (
		best  Rule
		found bool
	)
	for _, r := range s.rules {
		if !r.matchLabels(hostLabels) {
			continue
		}
		if !found || CompareRules(r, best) < 0 {
			best, found = r, true
		}
	}
	return best, found
}

// suffix returns how many trailing labels of the host form its public suffix,
// along with the rule that decided it (ok is false when the default rule applied).
func (s *RuleSet) suffix(hostLabels []string) (n int, r Rule, ok bool) {
	r, ok = s.best(hostLabels)
	if !ok {
		// Implicit default rule: an unlisted top-level label is its own suffix.
		return 1, r, false
	}
	n = len(r.labels)
	if r.exception {
		// An exception carves its leftmost label out of the suffix.
		n--
	}
	return n, r, true
}

// split normalizes host and returns its labels in DNS order along with the
// number of trailing labels in the public suffix. Hosts that are not valid
// UTF-8 are treated as having no labels.
func (s *RuleSet) split(host string) (labels []string, n int) {
	name, err := Normalize(host)
	if err != nil {
		return nil, 0
	}
	n, _, _ = s.suffix(reversedLabels(name))
	return strings.Split(name, "."), n
}

// TLD returns the public suffix of host.
func (s *RuleSet) TLD(host string) string {
	labels, n := s.split(host)
	if n >= len(labels) {
		// The host is exactly as long as the matching pattern.
		return strings.Join(labels, ".")
	}
	return strings.Join(labels[len(labels)-n:], ".")
}

// Domain returns the registrable domain of host: its public suffix plus one label.
// It reports false when host is itself a public suffix.
func (s *RuleSet) Domain(host string) (string, bool) {
	labels, n := s.split(host)
	if n >= len(labels) {
		return "", false
	}
	return strings.Join(labels[len(labels)-n-1:], "."), true
}

// IterParents yields the ancestors of host, most specific first, ending with
// its registrable domain. Nothing is yielded when host is its own registrable
// domain or has none. Each call starts a fresh traversal.
func (s *RuleSet) IterParents(host string) iter.Seq[string] {
	return func(yield func(string) bool) {
		labels, n := s.split(host)
		// labels[i:] for i in [1, last] are the parents; last leaves n+1 labels.
		last := len(labels) - n - 1
		for i := 1; i <= last; i++ {
			if !yield(strings.Join(labels[i:], ".")) {
				return
			}
		}
	}
}

// Parents returns every ancestor of host up to and including its registrable domain.
func (s *RuleSet) Parents(host string) []string {
	var out []string
	for p := range s.IterParents(host) {
		out = append(out, p)
	}
	return out
}

// Parent returns the immediate ancestor of host, or false when host has no
// ancestor below its public suffix.
func (s *RuleSet) Parent(host string) (string, bool) {
	for p := range s.IterParents(host) {
		return p, true
	}
	return "", false
}

// Resolve computes the full Resolution for host in a single rule scan.
func (s *RuleSet) Resolve(host string) Resolution {
	name, err := Normalize(host)
	if err != nil {
		return Resolution{Host: host}
	}
	res := Resolution{Host: name}
	n, rule, ok := s.suffix(reversedLabels(name))
	if ok {
		res.Rule = rule.String()
	}
	labels := strings.Split(name, ".")
	if n >= len(labels) {
		res.TLD = name
		return res
	}
	res.TLD = strings.Join(labels[len(labels)-n:], ".")
	res.Domain = strings.Join(labels[len(labels)-n-1:], ".")
	res.HasDomain = true
	for i := 1; i < len(labels)-n; i++ {
		res.Parents = append(res.Parents, strings.Join(labels[i:], "."))
	}
	return res
}
