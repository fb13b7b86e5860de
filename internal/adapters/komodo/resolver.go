package komodo

import (
	"context"

	"github.com/komodo-ops/change-detector/internal/core/domain"
	"github.com/komodo-ops/change-detector/internal/core/ports"
)

// Resolver builds id-to-name lookup tables and resolves environment tag
// names against the read API.
type Resolver struct {
	client ports.ReadClient
	logger ports.Logger
}

var _ ports.IdentifierResolver = (*Resolver)(nil)

func NewResolver(client ports.ReadClient, logger ports.Logger) *Resolver {
	return &Resolver{client: client, logger: logger}
}

// ResolveEnvironmentTagID looks the tag up by exact name and returns its
// canonical identifier. ok=false means no exact match; the caller then falls
// back to filtering by the raw tag name.
func (r *Resolver) ResolveEnvironmentTagID(ctx context.Context, tagName string) (string, bool) {
	tags := r.client.Query(ctx, "ListTags", map[string]any{"query": map[string]any{"name": tagName}})
	for _, tag := range tags {
		if name, _ := tag["name"].(string); name != tagName {
			continue
		}
		rawID := tag["id"]
		if rawID == nil {
			rawID = tag["_id"]
		}
		if id, ok := domain.ExtractIDString(rawID); ok {
			return id, true
		}
	}
	return "", false
}

// BuildIDToNameMap lists all resources behind one list request and keeps
// entries having both an identifier and a name.
func (r *Resolver) BuildIDToNameMap(ctx context.Context, listRequest string) map[string]string {
	mapping := make(map[string]string)
	for _, res := range r.client.Query(ctx, listRequest, nil) {
		rawID := res["id"]
		if rawID == nil {
			rawID = res["_id"]
		}
		id, ok := domain.ExtractIDString(rawID)
		if !ok {
			continue
		}
		name, _ := res["name"].(string)
		if name == "" {
			continue
		}
		mapping[id] = name
	}
	return mapping
}

// BuildIdentifierMaps builds the three lookup tables once per run. The maps
// are read-only afterwards and shared across all resource-kind
// reconciliations.
func (r *Resolver) BuildIdentifierMaps(ctx context.Context) domain.IdentifierMaps {
	maps := domain.IdentifierMaps{
		Servers: r.BuildIDToNameMap(ctx, domain.KindServer.ListRequest()),
		Repos:   r.BuildIDToNameMap(ctx, domain.KindRepo.ListRequest()),
		Tags:    r.BuildIDToNameMap(ctx, "ListTags"),
	}
	r.logger.Infof(ctx, "Loaded identifier maps: %d servers, %d repos, %d tags",
		len(maps.Servers), len(maps.Repos), len(maps.Tags))
	return maps
}
