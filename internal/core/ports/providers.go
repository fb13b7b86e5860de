package ports

import (
	"context"

	"github.com/komodo-ops/change-detector/internal/core/domain"
)

// DesiredStateProvider loads declarative resource records for one kind,
// filtered to the active environment tag.
type DesiredStateProvider interface {
	Load(ctx context.Context, kind domain.ResourceKind) (map[string]domain.DesiredResource, error)
}

// IdentifierResolver builds the run-wide id-to-name lookup tables and resolves
// the active environment tag name to its canonical identifier.
type IdentifierResolver interface {
	ResolveEnvironmentTagID(ctx context.Context, tagName string) (string, bool)
	BuildIdentifierMaps(ctx context.Context) domain.IdentifierMaps
}

// CurrentStateProvider fetches the live state for one resource kind: the
// tag-filtered listing plus full per-resource detail, fetched concurrently.
// desiredNames is the special-case hint set used to recover untagged servers;
// it is nil for other kinds.
type CurrentStateProvider interface {
	Fetch(ctx context.Context, kind domain.ResourceKind, tagFilter []any, desiredNames map[string]struct{}) map[string]domain.Detail
}
