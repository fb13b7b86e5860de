package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/komodo-ops/change-detector/internal/core/domain"
	"github.com/komodo-ops/change-detector/internal/core/ports"
	"github.com/komodo-ops/change-detector/pkg/normalize"
)

// fieldAliases declares, per canonical field, the current-state keys that may
// hold its value. Additions here are additive; no comparison code branches on
// specific aliases beyond this table.
var fieldAliases = map[string][]string{
	"linked_repo": {"linked_repo", "repo"},
	"repo":        {"repo", "linked_repo"},
}

// repoRefAlias is the current-state key whose string values are repo
// identifiers and resolve through the repo id-to-name table.
const repoRefAlias = "linked_repo"

// Comparer computes field-level differences between a desired record and the
// live detail of the same resource. The identifier maps are read-only.
type Comparer struct {
	maps   domain.IdentifierMaps
	logger ports.Logger
}

func NewComparer(maps domain.IdentifierMaps, logger ports.Logger) *Comparer {
	return &Comparer{maps: maps, logger: logger}
}

// Compare reports whether the resource is modified, with one Difference per
// deviating field. A resource whose merged current view is empty is treated
// as unchanged: detail was unavailable and a spurious positive is worse than
// a miss.
func (c *Comparer) Compare(ctx context.Context, kind domain.ResourceKind, desired domain.DesiredResource, current domain.Detail) (bool, []domain.Difference) {
	currentInfo := mergedView(current)

	if len(currentInfo) == 0 {
		c.logger.Warnf(ctx, "SKIP: %s - details unavailable from API", desired.Name)
		return false, nil
	}

	var differences []domain.Difference

	if diff, ok := c.compareTags(desired, current, currentInfo); ok {
		differences = append(differences, diff)
	}

	if kind.HasServerRef() {
		if diff, ok := c.compareServerRef(desired, currentInfo); ok {
			differences = append(differences, diff)
		}
	}

	differences = append(differences, c.compareConfigFields(desired, currentInfo)...)

	if len(differences) > 0 {
		c.logger.Infof(ctx, "MODIFIED: %s - %v", desired.Name, differences)
	} else {
		c.logger.Debugf(ctx, "UNCHANGED: %s", desired.Name)
	}
	return len(differences) > 0, differences
}

// mergedView builds the comparison view of current state by merging the
// `info` and `config` sub-mappings, config winning on key collision.
func mergedView(current domain.Detail) map[string]any {
	merged := make(map[string]any)
	if info, ok := current["info"].(map[string]any); ok {
		for k, v := range info {
			merged[k] = v
		}
	}
	if config, ok := current["config"].(map[string]any); ok {
		for k, v := range config {
			merged[k] = v
		}
	}
	return merged
}

// compareTags normalizes both tag lists, mapping identifier-shaped current
// tags through the tag id-to-name table first. Entries that are
// identifier-shaped but unmapped are excluded rather than compared raw.
func (c *Comparer) compareTags(desired domain.DesiredResource, current domain.Detail, currentInfo map[string]any) (domain.Difference, bool) {
	desiredTags := normalize.Value(desired.Tags)

	rawTags := listValue(current["tags"])
	if len(rawTags) == 0 {
		rawTags = listValue(currentInfo["tags"])
	}

	var currentTags any
	if len(rawTags) > 0 && allObjectIDs(rawTags) {
		mapped := make([]any, 0, len(rawTags))
		for _, t := range rawTags {
			if name, ok := c.maps.Tags[fmt.Sprint(t)]; ok {
				mapped = append(mapped, name)
			}
		}
		if len(mapped) > 0 {
			currentTags = normalize.Value(mapped)
		}
	} else {
		raw := make([]any, 0, len(rawTags))
		for _, t := range rawTags {
			if !domain.IsObjectID(fmt.Sprint(t)) {
				raw = append(raw, t)
			}
		}
		currentTags = normalize.Value(raw)
	}

	if normalize.IsAbsent(desiredTags) || normalize.IsAbsent(currentTags) {
		return domain.Difference{}, false
	}
	if cmp.Equal(desiredTags, currentTags) {
		return domain.Difference{}, false
	}
	return domain.Difference{Key: "tags", Desired: desiredTags, Current: currentTags}, true
}

// compareServerRef resolves the current server reference (server_id, then
// server, unwrapping identifier envelopes) through the server id-to-name
// table and compares it to the desired `config.server` name.
func (c *Comparer) compareServerRef(desired domain.DesiredResource, currentInfo map[string]any) (domain.Difference, bool) {
	desiredServer, _ := desired.Config["server"].(string)
	if desiredServer == "" {
		return domain.Difference{}, false
	}

	id, ok := domain.ExtractIDString(currentInfo["server_id"])
	if !ok {
		id, ok = domain.ExtractIDString(currentInfo["server"])
	}

	var currentServer any
	if ok {
		if name, found := c.maps.Servers[id]; found {
			currentServer = name
		}
	}

	if name, ok := currentServer.(string); ok && name == desiredServer {
		return domain.Difference{}, false
	}
	return domain.Difference{Key: "server", Desired: desiredServer, Current: currentServer}, true
}

// compareConfigFields walks the desired config keys (server excluded) and
// records a difference wherever both sides assert a value and the normalized
// forms differ. Lookup on the current side is alias-aware.
func (c *Comparer) compareConfigFields(desired domain.DesiredResource, currentInfo map[string]any) []domain.Difference {
	keys := make([]string, 0, len(desired.Config))
	for key := range desired.Config {
		if key == "server" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var differences []domain.Difference
	for _, key := range keys {
		if !hasCurrentKey(key, currentInfo) {
			continue
		}

		desiredNorm := normalize.Value(desired.Config[key])
		if normalize.IsAbsent(desiredNorm) {
			continue
		}

		currentVal, ok := c.currentValue(key, currentInfo)
		if !ok {
			continue
		}
		currentNorm := normalize.Value(currentVal)

		if !cmp.Equal(desiredNorm, currentNorm) {
			differences = append(differences, domain.Difference{Key: key, Desired: desiredNorm, Current: currentNorm})
		}
	}
	return differences
}

func aliasesFor(key string) []string {
	if aliases, ok := fieldAliases[key]; ok {
		return aliases
	}
	return []string{key}
}

func hasCurrentKey(desiredKey string, currentInfo map[string]any) bool {
	for _, key := range aliasesFor(desiredKey) {
		if _, ok := currentInfo[key]; ok {
			return true
		}
	}
	return false
}

// currentValue resolves the current value for a desired key through the
// alias table. A string value found under the repo-reference alias that is a
// known repo identifier resolves to the repo name.
func (c *Comparer) currentValue(desiredKey string, currentInfo map[string]any) (any, bool) {
	for _, key := range aliasesFor(desiredKey) {
		value, ok := currentInfo[key]
		if !ok {
			continue
		}
		if key == repoRefAlias {
			if id, isStr := value.(string); isStr {
				if name, mapped := c.maps.Repos[id]; mapped {
					return name, true
				}
			}
		}
		if value == nil {
			return nil, false
		}
		return value, true
	}
	return nil, false
}

func listValue(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case []string:
		anys := make([]any, len(val))
		for i, s := range val {
			anys[i] = s
		}
		return anys
	}
	return nil
}

func allObjectIDs(items []any) bool {
	for _, item := range items {
		if !domain.IsObjectID(fmt.Sprint(item)) {
			return false
		}
	}
	return true
}
