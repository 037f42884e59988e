package domain

// Resolution is the outcome of resolving a host name against a RuleSet.
// Pure value type, safe to cache and share.
type Resolution struct {
	Host      string   // normalized host name
	TLD       string   // public suffix
	Domain    string   // registrable domain; empty when HasDomain is false
	HasDomain bool     // false when the host is itself a public suffix
	Parents   []string // ancestors, most specific first, ending with Domain
	Rule      string   // rule that decided the suffix; empty when the default rule applied
}

// Parent returns the first ancestor, if any.
func (r Resolution) Parent() (string, bool) {
	if len(r.Parents) == 0 {
		return "", false
	}
	return r.Parents[0], true
}

// IsDefault reports whether no listed rule matched and the implicit default rule was used.
func (r Resolution) IsDefault() bool { return r.Rule == "" }
