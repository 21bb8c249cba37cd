package reconcile

import (
	"context"
	"fmt"

	"github.com/uptimectlhq/uptimectl/internal/uptimerobot"
	"github.com/uptimectlhq/uptimectl/pkg/types"
)

// Gateway is the remote-operation surface the reconciliation core consumes.
// *uptimerobot.Client satisfies it.
type Gateway interface {
	ListMonitors(ctx context.Context, filter uptimerobot.Filter) ([]types.MonitorRecord, error)
	CreateMonitor(ctx context.Context, friendlyName, monitorURL string, alertContactIDs []string) (string, error)
	EditMonitor(ctx context.Context, id string, status uptimerobot.EditStatus) error
	DeleteMonitor(ctx context.Context, id string) error
}

// Resolution is the outcome of mapping a spec onto at most one remote id.
// Record is only populated when the id came from a search, and is not
// authoritative for status decisions.
type Resolution struct {
	ID     string
	Record *types.MonitorRecord
	Found  bool
}

// Resolver establishes the 1:1 mapping between a spec and a remote monitor.
type Resolver struct {
	gateway Gateway
}

// NewResolver constructs a Resolver over the given gateway.
func NewResolver(gateway Gateway) *Resolver {
	return &Resolver{gateway: gateway}
}

// Resolve returns the remote id the spec refers to. An explicit id is passed
// through without verification; existence is confirmed by the first
// subsequent lookup. Otherwise the spec's name (else URL) is searched, and
// only an exact unique match resolves: zero matches reports Found=false,
// two or more fail with ErrAmbiguous.
func (r *Resolver) Resolve(ctx context.Context, spec types.MonitorSpec) (Resolution, error) {
	if spec.ID != "" {
		return Resolution{ID: spec.ID, Found: true}, nil
	}

	term := spec.SearchTerm()
	matches, err := r.gateway.ListMonitors(ctx, uptimerobot.Filter{Search: term})
	if err != nil {
		return Resolution{}, fmt.Errorf("search monitors for %q: %w", term, err)
	}

	switch len(matches) {
	case 0:
		return Resolution{}, nil
	case 1:
		record := matches[0]
		return Resolution{ID: record.ID, Record: &record, Found: true}, nil
	default:
		return Resolution{}, fmt.Errorf("%w: %q matched %d monitors, pass an explicit id", ErrAmbiguous, term, len(matches))
	}
}
