package domain

import (
	"github.com/go-viper/mapstructure/v2"
)

// Detail is the raw mapping the read API returns for a single resource. It may
// carry `config` (desired-shape configuration) and/or `info` (live-observed
// state) sub-mappings alongside top-level fields like `name` and `tags`.
type Detail map[string]any

// Name returns the resource name, or "" when absent or not a string.
func (d Detail) Name() string {
	name, _ := d["name"].(string)
	return name
}

// ResourceSummary is the sparse per-resource mapping a list query returns,
// decoded once at the client boundary. Raw preserves the full mapping for
// fallback use when a detail fetch fails.
type ResourceSummary struct {
	Name  string `mapstructure:"name"`
	ID    any    `mapstructure:"id"`
	AltID any    `mapstructure:"_id"`
	// Tags stays untyped: the API returns a list of identifiers or names
	// here, but odd shapes must not invalidate an otherwise named entry.
	Tags any `mapstructure:"tags"`

	Raw Detail `mapstructure:"-"`
}

// RawID returns the summary's identifier field, preferring `id` over `_id`.
// The value may still be wrapped in an ObjectId envelope.
func (s ResourceSummary) RawID() any {
	if s.ID != nil {
		return s.ID
	}
	return s.AltID
}

// DecodeSummary converts a raw list-result mapping into a ResourceSummary.
func DecodeSummary(m map[string]any) (ResourceSummary, error) {
	var s ResourceSummary
	if err := mapstructure.Decode(m, &s); err != nil {
		// A named entry is still usable even when a side field has an
		// unexpected shape; only give up when no name survives.
		name, _ := m["name"].(string)
		if name == "" {
			return ResourceSummary{}, err
		}
		s = ResourceSummary{Name: name, ID: m["id"], AltID: m["_id"], Tags: m["tags"]}
	}
	s.Raw = Detail(m)
	return s, nil
}

// DesiredResource is one record from a declarative TOML resource file.
type DesiredResource struct {
	Name   string         `toml:"name"`
	Tags   []string       `toml:"tags"`
	Config map[string]any `toml:"config"`
}

// HasTag reports whether the record is tagged for the given environment.
func (r DesiredResource) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IdentifierMaps holds the three id-to-name lookup tables built once per run.
// They are read-only after construction and shared across all resource-kind
// reconciliations.
type IdentifierMaps struct {
	Servers map[string]string
	Repos   map[string]string
	Tags    map[string]string
}
