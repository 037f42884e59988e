package resolver

import "context"

// LineSource supplies raw list lines. It is satisfied by the gateways in
// internal/psl/gateways/source.
type LineSource interface {
	Fetch(ctx context.Context) ([]string, error)
	Name() string
}
