package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/haukened/rr-psl/internal/psl/common/clock"
	"github.com/haukened/rr-psl/internal/psl/common/log"
	"github.com/haukened/rr-psl/internal/psl/domain"
	"github.com/haukened/rr-psl/internal/psl/repos/lookup"
	"github.com/haukened/rr-psl/internal/psl/repos/snapshot"
	"github.com/haukened/rr-psl/internal/psl/repos/suffixlist/parsers"
)

var (
	// ErrNoRules is returned by Load when the fetched list holds no rules.
	ErrNoRules = errors.New("public suffix list contains no rules")
	// ErrNoSource is returned by New when no LineSource is configured.
	ErrNoSource = errors.New("line source is required")
	// ErrNoLookup is returned by New when no lookup repository is configured.
	ErrNoLookup = errors.New("lookup repository is required")
)

// Resolver loads a public suffix list from its source and answers host name
// queries from the lookup repository.
type Resolver struct {
	source         LineSource
	snapshots      snapshot.Store
	lookup         lookup.Repository
	clock          clock.Clock
	logger         log.Logger
	compareBuiltin bool
	extra          []string
}

type Options struct {
	// required parameters
	Source LineSource
	Lookup lookup.Repository
	// optional; nil disables snapshot fallback and persistence
	Snapshots snapshot.Store
	Clock     clock.Clock
	Logger    log.Logger
	// CompareBuiltin attaches the Go-bundled list answer to each Result.
	CompareBuiltin bool
	// Extra rule lines appended after every fetched list; never persisted.
	Extra []string
}

func New(opts Options) (*Resolver, error) {
	if opts.Source == nil {
		return nil, ErrNoSource
	}
	if opts.Lookup == nil {
		return nil, ErrNoLookup
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Resolver{
		source:         opts.Source,
		snapshots:      opts.Snapshots,
		lookup:         opts.Lookup,
		clock:          opts.Clock,
		logger:         opts.Logger,
		compareBuiltin: opts.CompareBuiltin,
		extra:          opts.Extra,
	}, nil
}

// Load fetches the list, parses it and swaps it into the lookup repository.
// When the fetch fails and a snapshot store is configured, the last saved
// snapshot for the source is used instead. A list that fails to parse is
// never loaded; the previous rules stay in effect.
func (r *Resolver) Load(ctx context.Context) error {
	name := r.source.Name()
	lines, fetchErr := r.source.Fetch(ctx)
	fromSnapshot := false
	if fetchErr != nil {
		if r.snapshots == nil {
			return fmt.Errorf("fetch %s: %w", name, fetchErr)
		}
		r.logger.Warn(map[string]any{"source": name, "error": fetchErr.Error()}, "Fetch failed, falling back to snapshot")
		snap, err := r.snapshots.Load(name)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", name, errors.Join(fetchErr, err))
		}
		lines = snap.Lines
		fromSnapshot = true
		r.logger.Info(map[string]any{
			"source":  name,
			"version": snap.Version,
			"updated": snap.UpdatedUnix,
		}, "Using snapshot")
	}

	rules, err := parsers.ParseLines(lines, name, r.logger)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if err := rules.Append(r.extra...); err != nil {
		return fmt.Errorf("extra rules: %w", err)
	}
	if rules.Len() == 0 {
		return fmt.Errorf("%w: %s", ErrNoRules, name)
	}

	if !fromSnapshot && r.snapshots != nil {
		snap, err := r.snapshots.Save(snapshot.Snapshot{
			Source:      name,
			Lines:       lines,
			UpdatedUnix: r.clock.Now().Unix(),
		})
		if err != nil {
			r.logger.Warn(map[string]any{"source": name, "error": err.Error()}, "Failed to save snapshot")
		} else {
			r.logger.Debug(map[string]any{"source": name, "version": snap.Version}, "Snapshot saved")
		}
	}

	r.lookup.Update(rules)
	r.logger.Info(map[string]any{
		"source":        name,
		"rules":         rules.Len(),
		"extra_rules":   len(r.extra),
		"from_snapshot": fromSnapshot,
	}, "Public suffix list loaded")
	return nil
}

// Result is a resolution, optionally paired with the Go-bundled list's answer.
type Result struct {
	domain.Resolution
	Builtin *Builtin
}

// Resolve answers a single host name. It never fails; a host that is its own
// public suffix has HasDomain false.
func (r *Resolver) Resolve(host string) Result {
	res := Result{Resolution: r.lookup.Resolve(host)}
	if r.compareBuiltin {
		b := compareBuiltin(res.Resolution)
		res.Builtin = &b
		if !b.Agrees {
			r.logger.Debug(map[string]any{
				"host":           res.Host,
				"tld":            res.TLD,
				"builtin_tld":    b.TLD,
				"domain":         res.Domain,
				"builtin_domain": b.Domain,
			}, "Builtin list disagrees")
		}
	}
	return res
}

// TLD returns the public suffix of host.
func (r *Resolver) TLD(host string) string { return r.lookup.Resolve(host).TLD }

// Domain returns the registrable domain of host, if it has one.
func (r *Resolver) Domain(host string) (string, bool) {
	res := r.lookup.Resolve(host)
	return res.Domain, res.HasDomain
}

// Parents returns the ancestors of host up to its registrable domain.
func (r *Resolver) Parents(host string) []string { return r.lookup.Resolve(host).Parents }

// Parent returns the immediate ancestor of host, if any.
func (r *Resolver) Parent(host string) (string, bool) { return r.lookup.Resolve(host).Parent() }

// Stats reports lookup repository counters.
func (r *Resolver) Stats() lookup.RepoStats { return r.lookup.RepoStats() }
