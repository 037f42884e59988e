package resolver

import (
	"golang.org/x/net/publicsuffix"

	"github.com/haukened/rr-psl/internal/psl/domain"
)

// Builtin is the answer of the public suffix list compiled into golang.org/x/net.
type Builtin struct {
	TLD       string
	Domain    string
	HasDomain bool
	ICANN     bool // suffix is managed by ICANN rather than a private registry
	Agrees    bool // TLD and Domain match the loaded list
}

func compareBuiltin(res domain.Resolution) Builtin {
	var b Builtin
	b.TLD, b.ICANN = publicsuffix.PublicSuffix(res.Host)
	if d, err := publicsuffix.EffectiveTLDPlusOne(res.Host); err == nil {
		b.Domain, b.HasDomain = d, true
	}
	b.Agrees = b.TLD == res.TLD && b.HasDomain == res.HasDomain && b.Domain == res.Domain
	return b
}
